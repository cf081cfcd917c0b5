package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/config"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

const keyPrefix = "sentiment"

// Client caches fetched records and hands out refresh locks
type Client struct {
	lockManager *redlock.RedLock
	cache       *redis.Client
	ttl         time.Duration
	lockTTL     time.Duration
}

// lockAddr builds the redlock connection string, carrying the password and
// database of the cache client: tcp://:password@host:port/db
func lockAddr(cfg *config.RedisConfig) string {
	u := url.URL{
		Scheme: "tcp",
		Host:   cfg.Addr(),
		Path:   "/" + strconv.Itoa(cfg.DB),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword("", cfg.Password)
	}
	return u.String()
}

// New creates new Redis client with RedLock support + caching
func New(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	lockManager, err := redlock.NewRedLock(ctx, []string{lockAddr(cfg)})
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	cacheClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := cacheClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	logger.Info("redis cache client initialized",
		zap.String("address", cfg.Addr()),
		zap.Int("db", cfg.DB),
		zap.Duration("ttl", cfg.TTL),
	)

	return &Client{
		lockManager: lockManager,
		cache:       cacheClient,
		ttl:         cfg.TTL,
		lockTTL:     cfg.LockTTL,
	}, nil
}

// Close closes redis connections
func (c *Client) Close() error {
	if c.cache != nil {
		logger.Info("closing redis cache client")
		if err := c.cache.Close(); err != nil {
			return fmt.Errorf("failed to close redis cache: %w", err)
		}
	}
	return nil
}

// Health checks redis health
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.cache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// GetRecords returns cached records for section. A miss is (nil, false, nil).
func (c *Client) GetRecords(ctx context.Context, section string) ([]models.ArticleRecord, bool, error) {
	data, err := c.cache.Get(ctx, recordsKey(section)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached records: %w", err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

// SetRecords caches records for section with the configured TTL
func (c *Client) SetRecords(ctx context.Context, section string, records []models.ArticleRecord) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	if err := c.cache.Set(ctx, recordsKey(section), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache records: %w", err)
	}
	return nil
}

// InvalidateRecords drops cached records for section
func (c *Client) InvalidateRecords(ctx context.Context, section string) error {
	return c.cache.Del(ctx, recordsKey(section)).Err()
}

// RefreshLock returns the cross-replica lock guarding refreshes of section
func (c *Client) RefreshLock(section string) Locker {
	return NewDistributedLock(c.lockManager, refreshLockName(section), c.lockTTL)
}

func recordsKey(section string) string {
	return fmt.Sprintf("%s:records:%s", keyPrefix, section)
}

func refreshLockName(section string) string {
	return fmt.Sprintf("%s:refresh:%s", keyPrefix, section)
}

type cachedRecords struct {
	Records  []models.ArticleRecord `json:"records"`
	CachedAt time.Time              `json:"cached_at"`
}

func encodeRecords(records []models.ArticleRecord) ([]byte, error) {
	if records == nil {
		records = []models.ArticleRecord{}
	}
	data, err := json.Marshal(cachedRecords{Records: records, CachedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return data, nil
}

func decodeRecords(data []byte) ([]models.ArticleRecord, error) {
	var payload cachedRecords
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode cached records: %w", err)
	}
	if payload.Records == nil {
		return nil, fmt.Errorf("cached entry has no records")
	}
	return payload.Records, nil
}
