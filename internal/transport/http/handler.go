package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/history"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/news"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/aggregate"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/export"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/sentiment"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

const (
	defaultTrendPeriod = 3
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SnapshotSource serves the latest pipeline result
type SnapshotSource interface {
	Latest() (*models.Snapshot, error)
	Refresh(ctx context.Context) (*models.Snapshot, error)
	Thresholds() aggregate.Thresholds
}

// HistoryStore reads persisted snapshots
type HistoryStore interface {
	ListSnapshots(ctx context.Context, limit uint64) ([]models.SnapshotRecord, error)
	SearchArticles(ctx context.Context, q history.ArticleQuery) ([]history.StoredArticle, error)
}

// Handler serves the dashboard API
type Handler struct {
	source      SnapshotSource
	scorer      *sentiment.Scorer
	history     HistoryStore
	validate    *validator.Validate
	mediaFormat string
}

// NewHandler creates new API handler. history may be nil when storage is
// disabled; the history endpoints then answer 503.
func NewHandler(source SnapshotSource, scorer *sentiment.Scorer, history HistoryStore, mediaFormat string) *Handler {
	if scorer == nil {
		scorer = sentiment.NewScorer(nil)
	}
	if mediaFormat == "" {
		mediaFormat = news.PreferredMediaFormat
	}

	return &Handler{
		source:      source,
		scorer:      scorer,
		history:     history,
		validate:    newValidator(),
		mediaFormat: mediaFormat,
	}
}

type envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Status: "success", Data: data})
}

type snapshotMeta struct {
	ID             uuid.UUID       `json:"id"`
	FetchedAt      time.Time       `json:"fetched_at"`
	Section        string          `json:"section"`
	Field          string          `json:"field"`
	LexiconVersion string          `json:"lexicon_version"`
	Range          aggregate.Range `json:"range"`
	Keyword        string          `json:"keyword,omitempty"`
}

type articleView struct {
	models.ScoredArticle
	Label    aggregate.Label `json:"label"`
	ImageURL string          `json:"image_url"`
}

type articlesResponse struct {
	Snapshot snapshotMeta                `json:"snapshot"`
	Articles aggregate.Page[articleView] `json:"articles"`
}

type summaryResponse struct {
	Snapshot snapshotMeta            `json:"snapshot"`
	Summary  models.AggregateSummary `json:"summary"`
}

type distributionResponse struct {
	Snapshot  snapshotMeta               `json:"snapshot"`
	Breakdown []aggregate.BreakdownSlice `json:"breakdown"`
	Histogram []aggregate.HistogramBin   `json:"histogram"`
}

type historyResponse struct {
	Snapshots []models.SnapshotRecord `json:"snapshots"`
	Trend     *models.SentimentTrend  `json:"trend,omitempty"`
}

// filtered resolves the snapshot for q and applies its range and keyword
func (h *Handler) filtered(q articleQuery) (snapshotMeta, []models.ScoredArticle, error) {
	snap, err := h.source.Latest()
	if err != nil {
		return snapshotMeta{}, nil, err
	}

	scored := snap.Articles
	field := snap.Field
	if q.Field != "" {
		f, err := sentiment.ParseField(q.Field)
		if err != nil {
			return snapshotMeta{}, nil, err
		}
		if string(f) != snap.Field {
			if scored, err = h.rescore(snap, f); err != nil {
				return snapshotMeta{}, nil, err
			}
			field = string(f)
		}
	}

	meta := snapshotMeta{
		ID:             snap.ID,
		FetchedAt:      snap.FetchedAt,
		Section:        snap.Section,
		Field:          field,
		LexiconVersion: snap.LexiconVersion,
		Range:          q.Range(),
		Keyword:        q.Keyword,
	}

	return meta, aggregate.Filter(scored, q.Range(), q.Keyword), nil
}

// rescore scores another field of the records already held by snap
func (h *Handler) rescore(snap *models.Snapshot, field sentiment.FieldSelector) ([]models.ScoredArticle, error) {
	records := make([]models.ArticleRecord, len(snap.Articles))
	for i, a := range snap.Articles {
		records[i] = a.ArticleRecord
	}
	return h.scorer.Score(records, field)
}

// ListArticles handles GET /api/articles
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseArticleQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	meta, scored, err := h.filtered(q)
	if err != nil {
		renderError(w, r, err)
		return
	}

	thresholds := h.source.Thresholds()
	views := make([]articleView, len(scored))
	for i, a := range scored {
		image, _ := news.SelectImageURLWithFormat(a.Media, h.mediaFormat)
		views[i] = articleView{
			ScoredArticle: a,
			Label:         thresholds.Classify(a.Sentiment),
			ImageURL:      image,
		}
	}

	respond(w, r, http.StatusOK, articlesResponse{
		Snapshot: meta,
		Articles: aggregate.Paginate(views, q.Page, q.PageSize),
	})
}

// GetSummary handles GET /api/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseArticleQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	meta, scored, err := h.filtered(q)
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, summaryResponse{
		Snapshot: meta,
		Summary:  aggregate.SummarizeWith(scored, h.source.Thresholds()),
	})
}

// GetDistribution handles GET /api/distribution
func (h *Handler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseArticleQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	meta, scored, err := h.filtered(q)
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, distributionResponse{
		Snapshot:  meta,
		Breakdown: aggregate.Breakdown(scored, h.source.Thresholds()),
		Histogram: aggregate.Histogram(scored, q.Bins),
	})
}

// ExportCSV handles GET /api/export.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, export.CSVFileName, "text/csv; charset=utf-8", func(buf *bytes.Buffer, scored []models.ScoredArticle) error {
		return export.WriteCSV(buf, scored)
	})
}

// ExportXLSX handles GET /api/export.xlsx
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	thresholds := h.source.Thresholds()
	h.export(w, r, export.XLSXFileName, xlsxContentType, func(buf *bytes.Buffer, scored []models.ScoredArticle) error {
		return export.WriteXLSX(buf, scored, aggregate.SummarizeWith(scored, thresholds))
	})
}

// export buffers the whole file so a write failure still yields a JSON error
func (h *Handler) export(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(*bytes.Buffer, []models.ScoredArticle) error) {
	q, err := h.parseArticleQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	_, scored, err := h.filtered(q)
	if err != nil {
		renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, scored); err != nil {
		renderError(w, r, fmt.Errorf("failed to export %s: %w", filename, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Warn("failed to write export", zap.String("file", filename), zap.Error(err))
	}
}

// GetHistory handles GET /api/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		renderError(w, r, errStoreDisabled)
		return
	}

	q, err := h.parseHistoryQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	records, err := h.history.ListSnapshots(r.Context(), uint64(q.Limit))
	if err != nil {
		renderError(w, r, err)
		return
	}

	resp := historyResponse{Snapshots: records}

	// records are newest first; the trend wants oldest first
	means := make([]float64, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if m := records[i].MeanSentiment; m != nil {
			means = append(means, *m)
		}
	}
	if len(means) > 0 {
		period := q.Period
		if period == 0 {
			period = defaultTrendPeriod
		}
		trend, err := aggregate.Trend(means, period)
		if err != nil {
			renderError(w, r, err)
			return
		}
		resp.Trend = &trend
	}

	respond(w, r, http.StatusOK, resp)
}

// SearchArticles handles GET /api/history/articles
func (h *Handler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		renderError(w, r, errStoreDisabled)
		return
	}

	q, err := h.parseHistoryQuery(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	articles, err := h.history.SearchArticles(r.Context(), history.ArticleQuery{
		MinSentiment: q.Min,
		MaxSentiment: q.Max,
		Keyword:      q.Keyword,
		Section:      q.Section,
		Since:        q.Since,
		Limit:        uint64(q.Limit),
		Offset:       uint64(q.Offset),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, articles)
}

// Refresh handles POST /api/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Refresh(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, summaryResponse{
		Snapshot: snapshotMeta{
			ID:             snap.ID,
			FetchedAt:      snap.FetchedAt,
			Section:        snap.Section,
			Field:          snap.Field,
			LexiconVersion: snap.LexiconVersion,
			Range:          aggregate.FullRange(),
		},
		Summary: snap.Summary,
	})
}
