package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/redis"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// Refresher produces a fresh snapshot
type Refresher interface {
	Refresh(ctx context.Context) (*models.Snapshot, error)
}

// RefreshWorker re-fetches and re-scores the section on every tick. With
// several replicas only the holder of the refresh lock does the work.
type RefreshWorker struct {
	refresher Refresher
	lock      redis.Locker
}

// NewRefreshWorker creates new refresh worker. A nil lock means no
// coordination between replicas.
func NewRefreshWorker(refresher Refresher, lock redis.Locker) *RefreshWorker {
	if lock == nil {
		lock = redis.NoopLock{}
	}
	return &RefreshWorker{
		refresher: refresher,
		lock:      lock,
	}
}

func (w *RefreshWorker) Name() string {
	return "sentiment_refresh"
}

func (w *RefreshWorker) Run(ctx context.Context) error {
	acquired, err := w.lock.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire refresh lock: %w", err)
	}
	if !acquired {
		logger.Debug("refresh skipped, another replica holds the lock")
		return nil
	}
	defer func() {
		if err := w.lock.Release(ctx); err != nil {
			logger.Warn("failed to release refresh lock", zap.Error(err))
		}
	}()

	snap, err := w.refresher.Refresh(ctx)
	if err != nil {
		return err
	}

	logger.Info("📰 sentiment snapshot refreshed",
		zap.String("section", snap.Section),
		zap.Int("articles", len(snap.Articles)),
		zap.Float64("mean", snap.Summary.Mean()),
	)

	return nil
}
