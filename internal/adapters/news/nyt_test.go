package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const samplePayload = `{
  "status": "OK",
  "section": "business",
  "num_results": 3,
  "results": [
    {
      "section": "business",
      "title": "Tech Stocks Surge",
      "abstract": "AI drives gains",
      "url": "https://www.nytimes.com/2025/02/24/business/tech.html",
      "byline": "By Jane Doe and John Smith",
      "published_date": "2025-02-24T05:00:00-05:00",
      "des_facet": ["Stocks"],
      "multimedia": [
        {"url": "https://static01.nyt.com/a.jpg", "format": "Super Jumbo", "height": 1365},
        {"url": "https://static01.nyt.com/b.jpg", "format": "threeByTwoSmallAt2X", "height": 400}
      ]
    },
    {
      "title": "Fed Raises Rates",
      "abstract": "",
      "url": "https://www.nytimes.com/2025/02/23/business/fed.html",
      "byline": "",
      "published_date": "2025-02-23T05:00:00-05:00",
      "multimedia": null
    },
    {
      "title": "",
      "url": "https://www.nytimes.com/placeholder",
      "multimedia": ""
    }
  ]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*NYTProvider, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	provider := NewNYTProvider(SourceConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	}, srv.Client())

	return provider, &hits
}

func TestNYTProvider_Fetch(t *testing.T) {
	var gotPath, gotKey string
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	})

	records, err := provider.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotPath != "/svc/topstories/v2/business.json" {
		t.Errorf("Unexpected request path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("Expected api-key query parameter, got %q", gotKey)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records (placeholder dropped), got %d", len(records))
	}

	first := records[0]
	if first.Title != "Tech Stocks Surge" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if first.Abstract != "AI drives gains" {
		t.Errorf("Unexpected abstract %q", first.Abstract)
	}
	if first.Author != "By Jane Doe and John Smith" {
		t.Errorf("Expected byline mapped to author, got %q", first.Author)
	}
	if first.PublishedDate != "2025-02-24T05:00:00-05:00" {
		t.Errorf("Unexpected published date %q", first.PublishedDate)
	}
	if len(first.Media) != 2 || first.Media[1].Format != "threeByTwoSmallAt2X" {
		t.Errorf("Media not mapped in source order: %+v", first.Media)
	}

	if records[1].Media == nil || len(records[1].Media) != 0 {
		t.Errorf("Expected empty media for null multimedia, got %+v", records[1].Media)
	}
}

func TestNYTProvider_SkipsMalformedItems(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "numeric byline",
			body: `{"results": [
				{"title": "Bad Byline", "url": "https://nyt.com/a", "byline": 123},
				{"title": "Good Story", "url": "https://nyt.com/b", "byline": "By A"}
			]}`,
			want: []string{"Good Story"},
		},
		{
			name: "bare string item",
			body: `{"results": ["oops", {"title": "Good Story", "url": "https://nyt.com/b"}]}`,
			want: []string{"Good Story"},
		},
		{
			name: "numeric title",
			body: `{"results": [{"title": 42, "url": "u"}]}`,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			records, err := provider.Fetch(context.Background())
			if err != nil {
				t.Fatalf("A malformed item must not fail the fetch: %v", err)
			}
			if len(records) != len(tt.want) {
				t.Fatalf("Expected %d records, got %d (%+v)", len(tt.want), len(records), records)
			}
			for i, title := range tt.want {
				if records[i].Title != title {
					t.Errorf("Record %d: expected %q, got %q", i, title, records[i].Title)
				}
			}
		})
	}
}

func TestNYTProvider_OversizedPayload(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": ["`))
		w.Write([]byte(strings.Repeat("x", maxPayloadBytes)))
		w.Write([]byte(`"]}`))
	})

	_, err := provider.Fetch(context.Background())

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %T (%v)", err, err)
	}
	if !strings.Contains(parseErr.Reason, "exceeds") {
		t.Errorf("Expected size limit reason, got %q", parseErr.Reason)
	}
}

func TestNYTProvider_Section(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	provider := NewNYTProvider(SourceConfig{APIKey: "k", BaseURL: srv.URL, Section: "technology"}, srv.Client())
	if _, err := provider.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotPath != "/svc/topstories/v2/technology.json" {
		t.Errorf("Unexpected request path %q", gotPath)
	}
}

func TestNYTProvider_MissingCredential(t *testing.T) {
	provider, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePayload))
	})
	provider.cfg.APIKey = "  "

	records, err := provider.Fetch(context.Background())

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T (%v)", err, err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("Expected api_key field, got %q", cfgErr.Field)
	}
	if records != nil {
		t.Error("Expected no records on config error")
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Error("No request should be made without a credential")
	}
}

func TestNYTProvider_EmptyResults(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OK", "results": []}`))
	})

	records, err := provider.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Empty results must not be an error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", records)
	}
}

func TestNYTProvider_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing results field", body: `{"status": "OK", "num_results": 0}`},
		{name: "null results", body: `{"status": "OK", "results": null}`},
		{name: "results is an object", body: `{"results": {"title": "x"}}`},
		{name: "top level list", body: `[{"title": "x"}]`},
		{name: "not json", body: `<html>maintenance</html>`},
		{name: "truncated results", body: `{"results": [{"title": "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := provider.Fetch(context.Background())

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *ParseError, got %T (%v)", err, err)
			}

			var fetchErr *FetchError
			if errors.As(err, &fetchErr) {
				t.Error("Parse failures must not be reported as fetch failures")
			}
		})
	}
}

func TestNYTProvider_HTTPError(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"fault": "invalid key"}`, http.StatusUnauthorized)
	})

	_, err := provider.Fetch(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T (%v)", err, err)
	}
	if fetchErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", fetchErr.StatusCode)
	}
}

func TestNYTProvider_TransportErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	provider := NewNYTProvider(SourceConfig{APIKey: "super-secret", BaseURL: baseURL}, nil)

	_, err := provider.Fetch(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T (%v)", err, err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("Transport failure should carry no status, got %d", fetchErr.StatusCode)
	}
	if strings.Contains(err.Error(), "super-secret") {
		t.Errorf("Error leaks credential: %v", err)
	}
}

func TestNYTProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	provider := NewNYTProvider(SourceConfig{
		APIKey:  "k",
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
	}, nil)

	_, err := provider.Fetch(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected timeout as *FetchError, got %T (%v)", err, err)
	}
}

func TestSourceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SourceConfig
		wantErr bool
	}{
		{name: "valid", cfg: SourceConfig{APIKey: "k"}},
		{name: "missing key", cfg: SourceConfig{}, wantErr: true},
		{name: "bad base url", cfg: SourceConfig{APIKey: "k", BaseURL: "not a url"}, wantErr: true},
		{name: "section with slash", cfg: SourceConfig{APIKey: "k", Section: "business/../x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Expected *ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
