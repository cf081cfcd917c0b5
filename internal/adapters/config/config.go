package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	NYT       NYTConfig       `envconfig:"NYT"`
	Sentiment SentimentConfig `envconfig:"SENTIMENT"`
	HTTP      HTTPConfig      `envconfig:"HTTP"`
	Refresh   RefreshConfig   `envconfig:"REFRESH"`
	Database  DatabaseConfig  `envconfig:"DB"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Telegram  TelegramConfig  `envconfig:"TELEGRAM"`
	Logging   LoggingConfig   `envconfig:"LOG"`
}

// NYTConfig identifies the Top Stories endpoint and its credential.
// The key is not required here: the fetcher reports a missing key itself.
type NYTConfig struct {
	APIKey  string        `envconfig:"NYT_API_KEY" required:"false"`
	BaseURL string        `envconfig:"NYT_BASE_URL" default:"https://api.nytimes.com"`
	Section string        `envconfig:"NYT_SECTION" default:"business"`
	Timeout time.Duration `envconfig:"NYT_TIMEOUT" default:"30s"`

	// the Top Stories API allows 500 requests a day per key
	BreakerMaxFailures int           `envconfig:"NYT_BREAKER_MAX_FAILURES" default:"3"`
	BreakerCooldown    time.Duration `envconfig:"NYT_BREAKER_COOLDOWN" default:"5m"`
	DailyBudget        int           `envconfig:"NYT_DAILY_BUDGET" default:"500"`
}

// SentimentConfig overrides scoring and classification defaults
type SentimentConfig struct {
	Field             string  `envconfig:"SENTIMENT_FIELD" default:"title"`
	PositiveThreshold float64 `envconfig:"SENTIMENT_POSITIVE_THRESHOLD" default:"0.05"`
	NegativeThreshold float64 `envconfig:"SENTIMENT_NEGATIVE_THRESHOLD" default:"-0.05"`
	MediaFormat       string  `envconfig:"SENTIMENT_MEDIA_FORMAT" default:"threeByTwoSmallAt2X"`
}

// HTTPConfig represents the dashboard API server
type HTTPConfig struct {
	Port         string        `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
}

// RefreshConfig controls the background refresh worker
type RefreshConfig struct {
	Enabled  bool          `envconfig:"REFRESH_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Enabled        bool   `envconfig:"DB_ENABLED" default:"false"`
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"sentiment"`
	User           string `envconfig:"DB_USER" default:"sentiment"`
	Password       string `envconfig:"DB_PASSWORD" required:"false"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" required:"false"`
}

// RedisConfig represents the record cache
type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_TTL" default:"10m"`
	LockTTL  time.Duration `envconfig:"REDIS_LOCK_TTL" default:"2m"`
}

// TelegramConfig represents the digest notifier
type TelegramConfig struct {
	Enabled  bool    `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64   `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
	MinShift float64 `envconfig:"TELEGRAM_MIN_SHIFT" default:"0"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	s := c.Sentiment
	if s.PositiveThreshold < s.NegativeThreshold {
		return fmt.Errorf("positive threshold %.4f is below negative threshold %.4f", s.PositiveThreshold, s.NegativeThreshold)
	}
	if s.PositiveThreshold > 1 || s.NegativeThreshold < -1 {
		return fmt.Errorf("sentiment thresholds must lie within [-1, 1]")
	}
	if s.Field == "" {
		return fmt.Errorf("sentiment field is required")
	}

	if c.NYT.Section == "" {
		return fmt.Errorf("nyt section is required")
	}
	if c.NYT.Timeout <= 0 {
		return fmt.Errorf("nyt timeout must be positive")
	}
	if c.NYT.BreakerMaxFailures < 0 || c.NYT.DailyBudget < 0 {
		return fmt.Errorf("nyt breaker limits must not be negative")
	}

	if c.HTTP.Port == "" {
		return fmt.Errorf("http port is required")
	}

	if c.Refresh.Enabled && c.Refresh.Interval < time.Minute {
		return fmt.Errorf("refresh interval must be at least 1m, got %s", c.Refresh.Interval)
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot token is required")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram chat_id is required")
		}
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns host:port of the Redis server
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
