package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/config"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/database"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/history"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/news"
	redisAdapter "github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/redis"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/telegram"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/aggregate"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/health"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/pipeline"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/sentiment"
	transport "github.com/kyle-ycp/sentiment-analysis-dashboard/internal/transport/http"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/workers"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/metrics"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/worker"
)

const shutdownTimeout = 25 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// infrastructure holds the optional backing services
type infrastructure struct {
	db       *database.DB
	redis    *redisAdapter.Client
	notifier *telegram.Notifier
}

func (i *infrastructure) Close() {
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.Error("redis close error", zap.Error(err))
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			logger.Error("database close error", zap.Error(err))
		}
	}
}

func run(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("📰 News sentiment dashboard starting...",
		zap.String("section", cfg.NYT.Section),
		zap.String("field", cfg.Sentiment.Field),
	)

	infra, err := initInfrastructure(ctx, cfg)
	if err != nil {
		return err
	}
	defer infra.Close()

	collector := metrics.New()

	provider := news.NewCircuitBreaker(news.NewNYTProvider(news.SourceConfig{
		APIKey:  cfg.NYT.APIKey,
		BaseURL: cfg.NYT.BaseURL,
		Section: cfg.NYT.Section,
		Timeout: cfg.NYT.Timeout,
	}, nil), news.BreakerConfig{
		MaxFailures: cfg.NYT.BreakerMaxFailures,
		Cooldown:    cfg.NYT.BreakerCooldown,
		DailyBudget: cfg.NYT.DailyBudget,
	})

	// one analyzer per process, shared by the pipeline and the API
	scorer := sentiment.NewScorer(nil)

	p, err := initPipeline(cfg, provider, scorer, infra, collector)
	if err != nil {
		return err
	}

	group := startWorkers(ctx, cfg, p, infra)

	probes := health.New(healthChecks(infra))
	probes.AddInfo("nyt_breaker", provider)

	var store transport.HistoryStore
	if infra.db != nil {
		store = history.NewRepository(infra.db)
	}
	handler := transport.NewHandler(p, scorer, store, cfg.Sentiment.MediaFormat)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      transport.NewRouter(handler, probes, collector),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("🌐 HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	probes.SetReady(true)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("http server error", zap.Error(err))
	}

	return shutdown(server, probes, group)
}

// initConfig loads .env and the environment, then initializes the logger
func initConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// initInfrastructure connects the enabled backing services. A failing
// optional service is fatal: it was asked for explicitly.
func initInfrastructure(ctx context.Context, cfg *config.Config) (*infrastructure, error) {
	infra := &infrastructure{}

	if cfg.Database.Enabled {
		db, err := database.New(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		infra.db = db
	}

	if cfg.Redis.Enabled {
		client, err := redisAdapter.New(ctx, &cfg.Redis)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.redis = client
	}

	if cfg.Telegram.Enabled {
		notifier, err := telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
		infra.notifier = notifier
		logger.Info("📱 Telegram digest enabled", zap.Float64("min_shift", cfg.Telegram.MinShift))
	}

	return infra, nil
}

func initPipeline(cfg *config.Config, provider news.Provider, scorer *sentiment.Scorer, infra *infrastructure, collector *metrics.Collector) (*pipeline.Pipeline, error) {
	field, err := sentiment.ParseField(cfg.Sentiment.Field)
	if err != nil {
		return nil, err
	}

	pc := pipeline.Config{
		Provider: provider,
		Scorer:   scorer,
		Field:    field,
		Thresholds: aggregate.Thresholds{
			Positive: cfg.Sentiment.PositiveThreshold,
			Negative: cfg.Sentiment.NegativeThreshold,
		},
		Metrics: collector,
	}
	// interface fields stay nil unless the service is enabled
	if infra.redis != nil {
		pc.Cache = infra.redis
	}
	if infra.db != nil {
		pc.Store = history.NewRepository(infra.db)
	}
	if infra.notifier != nil {
		pc.Notifier = infra.notifier
	}

	return pipeline.New(pc)
}

func startWorkers(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, infra *infrastructure) *worker.WorkerGroup {
	group := worker.NewWorkerGroup(ctx)
	if !cfg.Refresh.Enabled {
		logger.Info("refresh worker disabled")
		return group
	}

	var lock redisAdapter.Locker
	if infra.redis != nil {
		lock = infra.redis.RefreshLock(p.Section())
	}

	pw := group.Add(workers.NewRefreshWorker(p, lock), cfg.Refresh.Interval)
	if infra.notifier != nil {
		pw.OnError(func(ctx context.Context, name string, err error) {
			if alertErr := infra.notifier.SendErrorAlert(ctx, pipeline.ErrorKind(err), err); alertErr != nil {
				logger.Warn("failed to send refresh alert", zap.Error(alertErr))
			}
		})
	}

	group.Start()
	return group
}

func healthChecks(infra *infrastructure) map[string]health.Checker {
	checks := make(map[string]health.Checker)
	if infra.db != nil {
		checks["database"] = infra.db
	}
	if infra.redis != nil {
		checks["redis"] = infra.redis
	}
	return checks
}

func shutdown(server *http.Server, probes *health.Service, group *worker.WorkerGroup) error {
	logger.Info("🛑 Shutdown signal received, starting graceful shutdown...")

	probes.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	group.Stop(10 * time.Second)

	logger.Info("stopping http server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("✅ Graceful shutdown completed")
	return nil
}
