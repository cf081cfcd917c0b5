package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/news"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/aggregate"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/sentiment"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/metrics"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// ErrNoSnapshot is returned by Latest before the first successful run
var ErrNoSnapshot = errors.New("no snapshot available yet")

// RecordCache stores fetched records between runs
type RecordCache interface {
	GetRecords(ctx context.Context, section string) ([]models.ArticleRecord, bool, error)
	SetRecords(ctx context.Context, section string, records []models.ArticleRecord) error
}

// SnapshotStore persists completed snapshots
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
}

// Notifier is told about every new snapshot. previous is nil on the first run.
type Notifier interface {
	NotifySnapshot(ctx context.Context, current, previous *models.Snapshot) error
}

// Config wires a pipeline. Provider and Scorer are required.
type Config struct {
	Provider   news.Provider
	Scorer     *sentiment.Scorer
	Section    string
	Field      sentiment.FieldSelector
	Thresholds aggregate.Thresholds
	Cache      RecordCache
	Store      SnapshotStore
	Notifier   Notifier
	Metrics    *metrics.Collector
}

// Pipeline runs fetch -> score -> summarize and keeps the latest snapshot
type Pipeline struct {
	provider   news.Provider
	scorer     *sentiment.Scorer
	section    string
	field      sentiment.FieldSelector
	thresholds aggregate.Thresholds
	cache      RecordCache
	store      SnapshotStore
	notifier   Notifier
	metrics    *metrics.Collector
	now        func() time.Time

	runMu  sync.Mutex
	mu     sync.RWMutex
	latest *models.Snapshot
}

// New creates new pipeline
func New(cfg Config) (*Pipeline, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("pipeline: provider is required")
	}
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("pipeline: scorer is required")
	}
	if cfg.Thresholds == (aggregate.Thresholds{}) {
		cfg.Thresholds = aggregate.DefaultThresholds()
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if cfg.Field == "" {
		cfg.Field = sentiment.DefaultField
	}
	if cfg.Section == "" {
		if sp, ok := cfg.Provider.(interface{ Section() string }); ok {
			cfg.Section = sp.Section()
		} else {
			cfg.Section = cfg.Provider.Name()
		}
	}

	return &Pipeline{
		provider:   cfg.Provider,
		scorer:     cfg.Scorer,
		section:    cfg.Section,
		field:      cfg.Field,
		thresholds: cfg.Thresholds,
		cache:      cfg.Cache,
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		metrics:    cfg.Metrics,
		now:        time.Now,
	}, nil
}

// Scorer returns the scorer shared with other consumers of the analyzer
func (p *Pipeline) Scorer() *sentiment.Scorer {
	return p.scorer
}

// Thresholds returns the classification bounds used for summaries
func (p *Pipeline) Thresholds() aggregate.Thresholds {
	return p.thresholds
}

// Section returns the news section the pipeline reads
func (p *Pipeline) Section() string {
	return p.section
}

// Latest returns the most recent snapshot. Callers must not modify it.
func (p *Pipeline) Latest() (*models.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.latest == nil {
		return nil, ErrNoSnapshot
	}
	return p.latest, nil
}

// Run scores field of the current records, reading through the cache when
// one is configured
func (p *Pipeline) Run(ctx context.Context, field sentiment.FieldSelector) (*models.Snapshot, error) {
	return p.run(ctx, field, true)
}

// Refresh fetches fresh records, bypassing the cache, and scores the
// configured field
func (p *Pipeline) Refresh(ctx context.Context) (*models.Snapshot, error) {
	return p.run(ctx, p.field, false)
}

func (p *Pipeline) run(ctx context.Context, field sentiment.FieldSelector, useCache bool) (*models.Snapshot, error) {
	if err := field.Validate(); err != nil {
		p.metrics.RunFailed(metrics.KindScore)
		return nil, err
	}

	p.runMu.Lock()
	defer p.runMu.Unlock()

	records, err := p.records(ctx, useCache)
	if err != nil {
		p.metrics.RunFailed(ErrorKind(err))
		return nil, err
	}

	scored, err := p.scorer.Score(records, field)
	if err != nil {
		p.metrics.RunFailed(ErrorKind(err))
		return nil, err
	}

	snap := &models.Snapshot{
		ID:             uuid.New(),
		FetchedAt:      p.now().UTC(),
		Section:        p.section,
		Field:          string(field),
		LexiconVersion: p.scorer.Analyzer().Version(),
		Articles:       scored,
		Summary:        aggregate.SummarizeWith(scored, p.thresholds),
	}

	if p.store != nil {
		if err := p.store.SaveSnapshot(ctx, snap); err != nil {
			p.metrics.RunFailed(metrics.KindStore)
			logger.Error("failed to persist snapshot",
				zap.String("snapshot_id", snap.ID.String()),
				zap.Error(err),
			)
		}
	}

	p.mu.Lock()
	previous := p.latest
	p.latest = snap
	p.mu.Unlock()

	s := snap.Summary
	p.metrics.RunSucceeded(snap.FetchedAt, len(scored), s.MeanSentiment, s.PositiveCount, s.NeutralCount, s.NegativeCount)

	logger.Info("pipeline run completed",
		zap.String("snapshot_id", snap.ID.String()),
		zap.String("field", snap.Field),
		zap.Int("records", len(records)),
		zap.Int("scored", len(scored)),
		zap.Float64("mean", s.Mean()),
	)

	if p.notifier != nil {
		if err := p.notifier.NotifySnapshot(ctx, snap, previous); err != nil {
			logger.Warn("failed to send snapshot notification", zap.Error(err))
		}
	}

	return snap, nil
}

func (p *Pipeline) records(ctx context.Context, useCache bool) ([]models.ArticleRecord, error) {
	if p.cache != nil && useCache {
		records, ok, err := p.cache.GetRecords(ctx, p.section)
		switch {
		case err != nil:
			logger.Warn("record cache read failed, fetching", zap.Error(err))
		case ok:
			p.metrics.CacheLookup(true)
			return records, nil
		default:
			p.metrics.CacheLookup(false)
		}
	}

	start := p.now()
	records, err := p.provider.Fetch(ctx)
	p.metrics.ObserveFetch(p.now().Sub(start))
	if err != nil {
		logger.Error("failed to fetch articles",
			zap.String("source", p.provider.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.SetRecords(ctx, p.section, records); err != nil {
			logger.Warn("record cache write failed", zap.Error(err))
		}
	}

	return records, nil
}

// ErrorKind classifies a run failure for metrics and alerts
func ErrorKind(err error) string {
	var (
		cfgErr   *news.ConfigError
		fetchErr *news.FetchError
		parseErr *news.ParseError
	)

	switch {
	case errors.As(err, &cfgErr):
		return metrics.KindConfig
	case errors.As(err, &fetchErr):
		return metrics.KindFetch
	case errors.As(err, &parseErr):
		return metrics.KindParse
	case errors.Is(err, sentiment.ErrScore):
		return metrics.KindScore
	default:
		return metrics.KindOther
	}
}
