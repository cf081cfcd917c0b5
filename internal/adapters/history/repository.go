package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/database"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/news"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

const (
	defaultListLimit   = 50
	defaultSearchLimit = 100
	maxLimit           = 1000
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// StoredArticle is a scored article as persisted with its snapshot
type StoredArticle struct {
	models.ScoredArticle
	SnapshotID uuid.UUID `json:"snapshot_id" db:"snapshot_id"`
	FetchedAt  time.Time `json:"fetched_at" db:"fetched_at"`
	ImageURL   string    `json:"image_url" db:"image_url"`
}

// ArticleQuery selects stored articles across snapshots. Nil bounds are open.
type ArticleQuery struct {
	MinSentiment *float64
	MaxSentiment *float64
	Keyword      string
	Section      string
	Since        time.Time
	Limit        uint64
	Offset       uint64
}

// Repository persists pipeline snapshots
type Repository struct {
	db *database.DB
}

// NewRepository creates new snapshot history repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// SaveSnapshot stores the snapshot header and its articles atomically
func (r *Repository) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	header := snap.Record()

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := insertSnapshotQuery(header).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build snapshot insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		if len(snap.Articles) == 0 {
			return nil
		}

		query, args, err = insertArticlesQuery(snap.ID, snap.Articles).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build article insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert articles: %w", err)
		}

		logger.Debug("snapshot saved",
			zap.String("id", snap.ID.String()),
			zap.Int("articles", len(snap.Articles)),
		)
		return nil
	})
}

// ListSnapshots returns the most recent snapshot headers, newest first
func (r *Repository) ListSnapshots(ctx context.Context, limit uint64) ([]models.SnapshotRecord, error) {
	query, args, err := listSnapshotsQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot query: %w", err)
	}

	records := make([]models.SnapshotRecord, 0)
	if err := r.db.DB().SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	return records, nil
}

// SearchArticles finds stored articles matching q, newest snapshot first
func (r *Repository) SearchArticles(ctx context.Context, q ArticleQuery) ([]StoredArticle, error) {
	query, args, err := searchArticlesQuery(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	articles := make([]StoredArticle, 0)
	if err := r.db.DB().SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}

	return articles, nil
}

// Ping checks the underlying connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Health(ctx)
}

func insertSnapshotQuery(rec models.SnapshotRecord) sq.InsertBuilder {
	return psql.Insert("snapshots").
		Columns(
			"id", "section", "field", "lexicon_version", "fetched_at",
			"article_count", "mean_sentiment", "positive_count", "negative_count", "neutral_count",
		).
		Values(
			rec.ID, rec.Section, rec.Field, rec.LexiconVersion, rec.FetchedAt,
			rec.ArticleCount, rec.MeanSentiment, rec.PositiveCount, rec.NegativeCount, rec.NeutralCount,
		)
}

func insertArticlesQuery(snapshotID uuid.UUID, articles []models.ScoredArticle) sq.InsertBuilder {
	b := psql.Insert("scored_articles").
		Columns("snapshot_id", "position", "title", "abstract", "url", "author", "published_date", "image_url", "sentiment")

	for i, a := range articles {
		image, _ := news.SelectImageURL(a.Media)
		b = b.Values(snapshotID, i, a.Title, a.Abstract, a.URL, a.Author, a.PublishedDate, image, a.Sentiment)
	}

	return b
}

func listSnapshotsQuery(limit uint64) sq.SelectBuilder {
	return psql.Select(
		"id", "section", "field", "lexicon_version", "fetched_at",
		"article_count", "mean_sentiment", "positive_count", "negative_count", "neutral_count",
	).
		From("snapshots").
		OrderBy("fetched_at DESC").
		Limit(clampLimit(limit, defaultListLimit))
}

func searchArticlesQuery(q ArticleQuery) sq.SelectBuilder {
	b := psql.Select(
		"a.snapshot_id", "s.fetched_at", "a.title", "a.abstract", "a.url",
		"a.author", "a.published_date", "a.image_url", "a.sentiment",
	).
		From("scored_articles a").
		Join("snapshots s ON s.id = a.snapshot_id")

	if q.MinSentiment != nil {
		b = b.Where(sq.GtOrEq{"a.sentiment": *q.MinSentiment})
	}
	if q.MaxSentiment != nil {
		b = b.Where(sq.LtOrEq{"a.sentiment": *q.MaxSentiment})
	}
	if q.Keyword != "" {
		b = b.Where(sq.ILike{"a.title": "%" + escapeLike(q.Keyword) + "%"})
	}
	if q.Section != "" {
		b = b.Where(sq.Eq{"s.section": q.Section})
	}
	if !q.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"s.fetched_at": q.Since})
	}

	b = b.OrderBy("s.fetched_at DESC", "a.position ASC").
		Limit(clampLimit(q.Limit, defaultSearchLimit))
	if q.Offset > 0 {
		b = b.Offset(q.Offset)
	}

	return b
}

func clampLimit(limit, def uint64) uint64 {
	if limit == 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// escapeLike makes user input literal inside an ILIKE pattern
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
