package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from metrics handler, got %d", rec.Code)
	}
	return rec.Body.String()
}

func assertContains(t *testing.T, body string, lines ...string) {
	t.Helper()

	for _, line := range lines {
		if !strings.Contains(body, line) {
			t.Errorf("Exposition missing %q", line)
		}
	}
}

func TestCollector_RunSucceeded(t *testing.T) {
	c := New()
	mean := 0.25

	c.RunSucceeded(time.Unix(1700000000, 0), 2, &mean, 1, 1, 0)
	c.RunSucceeded(time.Unix(1700000100, 0), 0, nil, 0, 0, 0)

	assertContains(t, scrape(t, c),
		"sentiment_last_mean_sentiment 0.25",
		"sentiment_articles_scored_total 2",
		`sentiment_articles{label="negative"} 0`,
	)
}

func TestCollector_RunFailed(t *testing.T) {
	c := New()

	c.RunFailed(KindParse)
	c.RunFailed(KindParse)
	c.RunFailed(KindFetch)

	assertContains(t, scrape(t, c),
		`sentiment_run_errors_total{kind="parse"} 2`,
		`sentiment_run_errors_total{kind="fetch"} 1`,
	)
}

func TestCollector_CacheAndRequests(t *testing.T) {
	c := New()

	c.CacheLookup(false)
	c.CacheLookup(true)
	c.ObserveRequest("/api/summary", http.MethodGet, "200", 10*time.Millisecond)

	assertContains(t, scrape(t, c),
		`sentiment_cache_lookups_total{result="miss"} 1`,
		`sentiment_cache_lookups_total{result="hit"} 1`,
		`sentiment_http_request_duration_seconds_count{method="GET",route="/api/summary",status="200"} 1`,
	)
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector

	c.ObserveFetch(time.Second)
	c.RunFailed(KindFetch)
	c.CacheLookup(true)
	c.RunSucceeded(time.Now(), 1, nil, 0, 1, 0)
	c.ObserveRequest("/api/summary", http.MethodGet, "200", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 from nil collector, got %d", rec.Code)
	}
}
