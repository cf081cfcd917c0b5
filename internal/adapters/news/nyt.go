package news

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

const (
	nytSourceName     = "nyt"
	defaultNYTBaseURL = "https://api.nytimes.com"
	defaultSection    = "business"
	maxPayloadBytes   = 8 << 20
)

// SourceConfig identifies the Top Stories endpoint and the credential used
// to call it. The credential is always supplied by the caller.
type SourceConfig struct {
	APIKey  string
	BaseURL string
	Section string
	Timeout time.Duration
}

// Validate reports the first missing or malformed setting as a *ConfigError
func (c SourceConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ConfigError{Field: "api_key", Reason: "credential is required"}
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Field: "base_url", Reason: fmt.Sprintf("invalid url %q", c.BaseURL)}
		}
	}

	if strings.ContainsAny(c.Section, "/?#") {
		return &ConfigError{Field: "section", Reason: fmt.Sprintf("invalid section %q", c.Section)}
	}

	return nil
}

func (c SourceConfig) withDefaults() SourceConfig {
	if c.BaseURL == "" {
		c.BaseURL = defaultNYTBaseURL
	}
	if c.Section == "" {
		c.Section = defaultSection
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// endpoint builds the request URL including the credential
func (c SourceConfig) endpoint() (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}

	u := base.JoinPath("svc", "topstories", "v2", c.Section+".json")
	q := u.Query()
	q.Set("api-key", c.APIKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NYTProvider fetches top stories from the New York Times API
type NYTProvider struct {
	client *http.Client
	cfg    SourceConfig
}

// NewNYTProvider creates new NYT provider. A nil client gets a default one
// with the configured timeout.
func NewNYTProvider(cfg SourceConfig, client *http.Client) *NYTProvider {
	cfg = cfg.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &NYTProvider{
		client: client,
		cfg:    cfg,
	}
}

// Fetch performs one request with a default client
func Fetch(ctx context.Context, cfg SourceConfig) ([]models.ArticleRecord, error) {
	return NewNYTProvider(cfg, nil).Fetch(ctx)
}

func (p *NYTProvider) Name() string {
	return nytSourceName
}

// Section returns the top stories section this provider reads
func (p *NYTProvider) Section() string {
	return p.cfg.Section
}

func (p *NYTProvider) Fetch(ctx context.Context) ([]models.ArticleRecord, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := p.cfg.endpoint()
	if err != nil {
		return nil, &ConfigError{Field: "base_url", Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Source: p.Name(), Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: p.Name(), Cause: redactURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var cause error
		if msg := strings.TrimSpace(string(body)); msg != "" {
			cause = errors.New(msg)
		}
		return nil, &FetchError{Source: p.Name(), StatusCode: resp.StatusCode, Cause: cause}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, &FetchError{Source: p.Name(), StatusCode: resp.StatusCode, Cause: fmt.Errorf("failed to read body: %w", err)}
	}
	if len(body) > maxPayloadBytes {
		return nil, &ParseError{Source: p.Name(), Reason: fmt.Sprintf("payload exceeds %d bytes", maxPayloadBytes)}
	}

	records, skipped, err := decodeTopStories(body)
	if err != nil {
		return nil, err
	}

	logger.Debug("fetched NYT top stories",
		zap.String("section", p.cfg.Section),
		zap.Int("count", len(records)),
		zap.Int("skipped", skipped),
	)

	return records, nil
}

// decodeTopStories maps the allow-listed fields of a Top Stories payload
func decodeTopStories(body []byte) ([]models.ArticleRecord, int, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, &ParseError{Source: nytSourceName, Reason: "payload is not a JSON object", Cause: err}
	}

	raw := bytes.TrimSpace(envelope.Results)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, 0, &ParseError{Source: nytSourceName, Reason: "missing results container"}
	}
	if raw[0] != '[' {
		return nil, 0, &ParseError{Source: nytSourceName, Reason: "results is not a list"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, &ParseError{Source: nytSourceName, Reason: "malformed results list", Cause: err}
	}

	// a malformed item is skipped like one without title or url
	records := make([]models.ArticleRecord, 0, len(items))
	skipped := 0
	for _, item := range items {
		var article nytArticle
		if err := json.Unmarshal(item, &article); err != nil {
			skipped++
			continue
		}
		record, ok := article.toRecord()
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	return records, skipped, nil
}

type nytArticle struct {
	Title         string       `json:"title"`
	Abstract      string       `json:"abstract"`
	URL           string       `json:"url"`
	Byline        string       `json:"byline"`
	PublishedDate string       `json:"published_date"`
	Multimedia    nytMediaList `json:"multimedia"`
}

func (a nytArticle) toRecord() (models.ArticleRecord, bool) {
	title := strings.TrimSpace(a.Title)
	link := strings.TrimSpace(a.URL)
	if title == "" || link == "" {
		return models.ArticleRecord{}, false
	}

	media := make([]models.MediaItem, 0, len(a.Multimedia))
	for _, m := range a.Multimedia {
		media = append(media, models.MediaItem{Format: m.Format, URL: m.URL})
	}

	return models.ArticleRecord{
		Title:         title,
		Abstract:      strings.TrimSpace(a.Abstract),
		URL:           link,
		Author:        strings.TrimSpace(a.Byline),
		PublishedDate: a.PublishedDate,
		Media:         media,
	}, true
}

type nytMedia struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// nytMediaList tolerates the API returning "", null or an object instead of
// a list; anything that is not a list decodes to no media.
type nytMediaList []nytMedia

func (l *nytMediaList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	items := make(nytMediaList, 0, len(raw))
	for _, r := range raw {
		var m nytMedia
		if err := json.Unmarshal(r, &m); err != nil {
			continue
		}
		items = append(items, m)
	}
	*l = items

	return nil
}

// redactURLError strips the query string so the credential never reaches logs
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			uerr.URL = u.String()
		}
	}
	return err
}
