package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/history"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/news"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/aggregate"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/health"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/pipeline"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/metrics"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

type fakeSource struct {
	snap       *models.Snapshot
	refreshErr error
}

func (f *fakeSource) Latest() (*models.Snapshot, error) {
	if f.snap == nil {
		return nil, pipeline.ErrNoSnapshot
	}
	return f.snap, nil
}

func (f *fakeSource) Refresh(ctx context.Context) (*models.Snapshot, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.snap, nil
}

func (f *fakeSource) Thresholds() aggregate.Thresholds {
	return aggregate.DefaultThresholds()
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) ListSnapshots(ctx context.Context, limit uint64) ([]models.SnapshotRecord, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SnapshotRecord), args.Error(1)
}

func (m *MockHistory) SearchArticles(ctx context.Context, q history.ArticleQuery) ([]history.StoredArticle, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.StoredArticle), args.Error(1)
}

func dashboardSnapshot() *models.Snapshot {
	rows := []struct {
		title, abstract string
		score           float64
	}{
		{"Tech Stocks Surge", "Stocks rallied as tech shares gained.", 0.3182},
		{"Fed Raises Rates", "The Federal Reserve raised rates again.", 0},
		{"Crypto Falls", "Cryptocurrency prices fell sharply.", -0.5106},
		{"AI Boom Continues", "Investment in AI keeps growing.", 0.4404},
		{"Market Dips", "Markets dipped on weak earnings.", -0.2732},
	}

	articles := make([]models.ScoredArticle, len(rows))
	for i, r := range rows {
		articles[i] = models.ScoredArticle{
			ArticleRecord: models.ArticleRecord{
				Title:    r.title,
				Abstract: r.abstract,
				URL:      "https://www.nytimes.com/" + string(rune('1'+i)),
				Author:   "By Reporter",
				Media: []models.MediaItem{
					{Format: "Super Jumbo", URL: "https://static.nyt.com/jumbo.jpg"},
					{Format: news.PreferredMediaFormat, URL: "https://static.nyt.com/thumb.jpg"},
				},
			},
			Sentiment: r.score,
		}
	}

	return &models.Snapshot{
		ID:             uuid.New(),
		FetchedAt:      time.Date(2025, 2, 24, 12, 0, 0, 0, time.UTC),
		Section:        "business",
		Field:          "title",
		LexiconVersion: "test",
		Articles:       articles,
		Summary:        aggregate.Summarize(articles),
	}
}

func newTestRouter(source SnapshotSource, hist HistoryStore) http.Handler {
	return NewRouter(NewHandler(source, nil, hist, ""), health.New(nil), metrics.New())
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "success", env.Status)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHandler_ListArticles(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	tests := []struct {
		name       string
		target     string
		wantTitles []string
		wantTotal  int
		wantPages  int
	}{
		{
			name:       "all articles",
			target:     "/api/articles",
			wantTitles: []string{"Tech Stocks Surge", "Fed Raises Rates", "Crypto Falls", "AI Boom Continues", "Market Dips"},
			wantTotal:  5,
			wantPages:  1,
		},
		{
			name:       "keyword ignores case",
			target:     "/api/articles?keyword=BOOM",
			wantTitles: []string{"AI Boom Continues"},
			wantTotal:  1,
			wantPages:  1,
		},
		{
			name:       "positive range",
			target:     "/api/articles?min=0.1&max=1",
			wantTitles: []string{"Tech Stocks Surge", "AI Boom Continues"},
			wantTotal:  2,
			wantPages:  1,
		},
		{
			name:       "inverted range matches nothing",
			target:     "/api/articles?min=0.5&max=0.1",
			wantTitles: []string{},
			wantTotal:  0,
			wantPages:  1,
		},
		{
			name:       "last page",
			target:     "/api/articles?page=3&page_size=2",
			wantTitles: []string{"Market Dips"},
			wantTotal:  5,
			wantPages:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Snapshot snapshotMeta `json:"snapshot"`
				Articles struct {
					Items []struct {
						Title    string  `json:"title"`
						Label    string  `json:"label"`
						ImageURL string  `json:"image_url"`
						Score    float64 `json:"sentiment"`
					} `json:"items"`
					TotalItems int `json:"total_items"`
					TotalPages int `json:"total_pages"`
				} `json:"articles"`
			}
			decodeData(t, rec, &resp)

			titles := make([]string, 0, len(resp.Articles.Items))
			for _, item := range resp.Articles.Items {
				titles = append(titles, item.Title)
				assert.Equal(t, "https://static.nyt.com/thumb.jpg", item.ImageURL)
				assert.Equal(t, string(aggregate.Classify(item.Score)), item.Label)
			}

			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, tt.wantTotal, resp.Articles.TotalItems)
			assert.Equal(t, tt.wantPages, resp.Articles.TotalPages)
			assert.Equal(t, "title", resp.Snapshot.Field)
		})
	}
}

func TestHandler_ListArticles_Rescore(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/articles?field=abstract")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp articlesResponse
	decodeData(t, rec, &resp)

	assert.Equal(t, "abstract", resp.Snapshot.Field)
	assert.Equal(t, 5, resp.Articles.TotalItems)
}

func TestHandler_BadRequests(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	tests := []struct {
		name     string
		target   string
		wantCode string
	}{
		{name: "non numeric bound", target: "/api/articles?min=abc", wantCode: "INVALID_PARAMETER"},
		{name: "bound out of range", target: "/api/summary?max=2", wantCode: "VALIDATION_FAILED"},
		{name: "page size too large", target: "/api/articles?page_size=1000", wantCode: "VALIDATION_FAILED"},
		{name: "unknown field", target: "/api/distribution?field=headline", wantCode: "UNKNOWN_FIELD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).ErrorCode)
		})
	}
}

func TestHandler_NoSnapshot(t *testing.T) {
	router := newTestRouter(&fakeSource{}, nil)

	for _, target := range []string{"/api/articles", "/api/summary", "/api/distribution", "/api/export.csv"} {
		rec := doRequest(t, router, http.MethodGet, target)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.Equal(t, "NO_SNAPSHOT", decodeError(t, rec).ErrorCode, target)
	}
}

func TestHandler_GetSummary(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp summaryResponse
	decodeData(t, rec, &resp)

	s := resp.Summary
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.PositiveCount)
	assert.Equal(t, 1, s.NeutralCount)
	assert.Equal(t, 2, s.NegativeCount)
	require.NotNil(t, s.MeanSentiment)
	assert.InDelta(t, -0.00504, *s.MeanSentiment, 1e-9)
	assert.Equal(t, "Negative", s.Label)
}

func TestHandler_GetSummary_EmptyFilter(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/summary?keyword=nothing-matches")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp summaryResponse
	decodeData(t, rec, &resp)

	assert.Equal(t, 0, resp.Summary.Total)
	assert.Nil(t, resp.Summary.MeanSentiment)
	assert.Zero(t, resp.Summary.PositivePct)
}

func TestHandler_GetDistribution(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/distribution?bins=4")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp distributionResponse
	decodeData(t, rec, &resp)

	require.Len(t, resp.Histogram, 4)
	require.Len(t, resp.Breakdown, 3)

	total := 0
	for _, bin := range resp.Histogram {
		total += bin.Count
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, aggregate.LabelPositive, resp.Breakdown[0].Label)
	assert.Equal(t, 2, resp.Breakdown[0].Count)
}

func TestHandler_Export(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	t.Run("csv", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/export.csv?min=0.1")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Contains(t, rec.Header().Get("Content-Disposition"), "news_sentiment_filtered.csv")
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

		body := rec.Body.Bytes()
		assert.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}), "missing BOM")
		assert.Contains(t, string(body), "Tech Stocks Surge")
		assert.NotContains(t, string(body), "Crypto Falls")
	})

	t.Run("xlsx", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/export.xlsx")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
	})
}

func TestHandler_GetHistory(t *testing.T) {
	mean := func(v float64) *float64 { return &v }

	t.Run("disabled", func(t *testing.T) {
		router := newTestRouter(&fakeSource{}, nil)
		rec := doRequest(t, router, http.MethodGet, "/api/history")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "HISTORY_DISABLED", decodeError(t, rec).ErrorCode)
	})

	t.Run("trend oldest first", func(t *testing.T) {
		hist := new(MockHistory)
		hist.On("ListSnapshots", uint64(10)).Return([]models.SnapshotRecord{
			{ID: uuid.New(), MeanSentiment: mean(0.3)},
			{ID: uuid.New(), MeanSentiment: nil},
			{ID: uuid.New(), MeanSentiment: mean(0.1)},
			{ID: uuid.New(), MeanSentiment: mean(-0.1)},
		}, nil)

		router := newTestRouter(&fakeSource{}, hist)
		rec := doRequest(t, router, http.MethodGet, "/api/history?limit=10")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp historyResponse
		decodeData(t, rec, &resp)

		assert.Len(t, resp.Snapshots, 4)
		require.NotNil(t, resp.Trend)
		assert.Equal(t, []float64{-0.1, 0.1, 0.3}, resp.Trend.Datapoints)
		hist.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		hist := new(MockHistory)
		hist.On("ListSnapshots", uint64(0)).Return(nil, errors.New("connection refused"))

		router := newTestRouter(&fakeSource{}, hist)
		rec := doRequest(t, router, http.MethodGet, "/api/history")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestHandler_SearchArticles(t *testing.T) {
	hist := new(MockHistory)
	hist.On("SearchArticles", mock.MatchedBy(func(q history.ArticleQuery) bool {
		return q.Keyword == "surge" && q.MinSentiment != nil && *q.MinSentiment == 0.2 &&
			q.MaxSentiment == nil && q.Limit == 5 && q.Section == "business"
	})).Return([]history.StoredArticle{{ImageURL: "https://static.nyt.com/thumb.jpg"}}, nil)

	router := newTestRouter(&fakeSource{}, hist)
	rec := doRequest(t, router, http.MethodGet, "/api/history/articles?keyword=surge&min=0.2&limit=5&section=business")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []history.StoredArticle
	decodeData(t, rec, &resp)
	assert.Len(t, resp, 1)
	hist.AssertExpectations(t)

	rec = doRequest(t, router, http.MethodGet, "/api/history/articles?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Refresh(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "missing credential", err: &news.ConfigError{Field: "api_key", Reason: "credential is required"}, wantStatus: http.StatusBadRequest, wantCode: "SOURCE_CONFIG"},
		{name: "upstream down", err: &news.FetchError{Source: "nyt", StatusCode: 500}, wantStatus: http.StatusBadGateway, wantCode: "UPSTREAM_UNAVAILABLE"},
		{name: "schema drift", err: &news.ParseError{Source: "nyt", Reason: "missing results container"}, wantStatus: http.StatusBadGateway, wantCode: "UPSTREAM_SCHEMA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeSource{snap: dashboardSnapshot(), refreshErr: tt.err}, nil)
			rec := doRequest(t, router, http.MethodPost, "/api/refresh")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).ErrorCode)
			}
		})
	}
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	router := newTestRouter(&fakeSource{snap: dashboardSnapshot()}, nil)

	rec := doRequest(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready until marked")

	doRequest(t, router, http.MethodGet, "/api/summary")
	rec = doRequest(t, router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/summary"`)
}
