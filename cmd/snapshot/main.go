package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/config"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/news"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/aggregate"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/export"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/pipeline"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/sentiment"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

type options struct {
	field   string
	min     float64
	max     float64
	keyword string
	csvPath string
	xlsx    string
	asJSON  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.field, "field", "", "record attribute to score (default from SENTIMENT_FIELD)")
	flag.Float64Var(&opts.min, "min", -1, "lowest sentiment to keep")
	flag.Float64Var(&opts.max, "max", 1, "highest sentiment to keep")
	flag.StringVar(&opts.keyword, "keyword", "", "keep titles containing this text")
	flag.StringVar(&opts.csvPath, "csv", "", "write the filtered articles to this CSV file")
	flag.StringVar(&opts.xlsx, "xlsx", "", "write the filtered articles to this XLSX file")
	flag.BoolVar(&opts.asJSON, "json", false, "print the snapshot as JSON")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	fieldName := cfg.Sentiment.Field
	if opts.field != "" {
		fieldName = opts.field
	}
	field, err := sentiment.ParseField(fieldName)
	if err != nil {
		return err
	}

	thresholds := aggregate.Thresholds{
		Positive: cfg.Sentiment.PositiveThreshold,
		Negative: cfg.Sentiment.NegativeThreshold,
	}

	p, err := pipeline.New(pipeline.Config{
		Provider: news.NewNYTProvider(news.SourceConfig{
			APIKey:  cfg.NYT.APIKey,
			BaseURL: cfg.NYT.BaseURL,
			Section: cfg.NYT.Section,
			Timeout: cfg.NYT.Timeout,
		}, nil),
		Scorer:     sentiment.NewScorer(nil),
		Field:      field,
		Thresholds: thresholds,
	})
	if err != nil {
		return err
	}

	snap, err := p.Run(ctx, field)
	if err != nil {
		return err
	}

	filtered := aggregate.Filter(snap.Articles, aggregate.Range{Low: opts.min, High: opts.max}, opts.keyword)
	summary := aggregate.SummarizeWith(filtered, thresholds)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Snapshot *models.Snapshot        `json:"snapshot"`
			Filtered []models.ScoredArticle  `json:"filtered"`
			Summary  models.AggregateSummary `json:"summary"`
		}{snap, filtered, summary}); err != nil {
			return err
		}
	} else {
		printSummary(out, snap, filtered, summary)
	}

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(w io.Writer) error { return export.WriteCSV(w, filtered) }); err != nil {
			return err
		}
	}
	if opts.xlsx != "" {
		if err := writeFile(opts.xlsx, func(w io.Writer) error { return export.WriteXLSX(w, filtered, summary) }); err != nil {
			return err
		}
	}

	return nil
}

func printSummary(out io.Writer, snap *models.Snapshot, filtered []models.ScoredArticle, s models.AggregateSummary) {
	fmt.Fprintf(out, "%s top stories scored by %s at %s\n", snap.Section, snap.Field, snap.FetchedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(out, "articles: %d fetched, %d shown\n", len(snap.Articles), len(filtered))

	if s.HasMean() {
		fmt.Fprintf(out, "average:  %s (%s)\n", export.FormatScore(s.Mean()), s.Label)
	} else {
		fmt.Fprintln(out, "average:  n/a")
	}
	fmt.Fprintf(out, "positive: %d (%.1f%%)  neutral: %d (%.1f%%)  negative: %d (%.1f%%)\n\n",
		s.PositiveCount, s.PositivePct, s.NeutralCount, s.NeutralPct, s.NegativeCount, s.NegativePct)

	for _, a := range filtered {
		fmt.Fprintf(out, "%8s  %s\n", export.FormatScore(a.Sentiment), a.Title)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("export written", zap.String("path", path))
	return nil
}
