package news

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// ErrCircuitOpen is the cause of FetchErrors returned while the breaker is open
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerConfig bounds how hard a provider may be hit. Zero values disable
// the corresponding limit.
type BreakerConfig struct {
	MaxFailures int
	Cooldown    time.Duration
	DailyBudget int
}

// CircuitBreaker stops calling a provider after repeated failures or once
// the daily request budget is spent. Configuration errors never count as
// failures: they are not the upstream's fault.
type CircuitBreaker struct {
	provider Provider
	cfg      BreakerConfig
	now      func() time.Time

	mu                  sync.Mutex
	isOpen              bool
	reason              string
	consecutiveFailures int
	requestsToday       int
	openedAt            time.Time
	lastResetDate       time.Time
}

// NewCircuitBreaker wraps provider
func NewCircuitBreaker(provider Provider, cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		provider:      provider,
		cfg:           cfg,
		now:           time.Now,
		lastResetDate: time.Now(),
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.provider.Name()
}

// Section forwards the wrapped provider's section when it has one
func (cb *CircuitBreaker) Section() string {
	if sp, ok := cb.provider.(interface{ Section() string }); ok {
		return sp.Section()
	}
	return cb.provider.Name()
}

func (cb *CircuitBreaker) Fetch(ctx context.Context) ([]models.ArticleRecord, error) {
	if err := cb.admit(); err != nil {
		return nil, err
	}

	records, err := cb.provider.Fetch(ctx)
	cb.record(err)

	return records, err
}

// admit rejects the call while open and spends one unit of budget otherwise
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	if !isSameDay(cb.lastResetDate, now) {
		cb.requestsToday = 0
		cb.lastResetDate = now
		if cb.reason == reasonBudget {
			cb.closeLocked()
		}
	}

	if cb.isOpen && cb.reason == reasonFailures && now.Sub(cb.openedAt) >= cb.cfg.Cooldown {
		// half-open: one probe goes through, a failure reopens immediately
		cb.isOpen = false
		cb.consecutiveFailures = cb.cfg.MaxFailures - 1
	}

	if cb.isOpen {
		return &FetchError{Source: cb.provider.Name(), Cause: fmt.Errorf("%w: %s", ErrCircuitOpen, cb.reason)}
	}

	if cb.cfg.DailyBudget > 0 && cb.requestsToday >= cb.cfg.DailyBudget {
		cb.openLocked(reasonBudget)
		return &FetchError{Source: cb.provider.Name(), Cause: fmt.Errorf("%w: %s", ErrCircuitOpen, cb.reason)}
	}

	cb.requestsToday++
	return nil
}

const (
	reasonFailures = "consecutive upstream failures"
	reasonBudget   = "daily request budget exhausted"
)

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var cfgErr *ConfigError
	switch {
	case err == nil:
		cb.consecutiveFailures = 0
	case errors.As(err, &cfgErr), errors.Is(err, context.Canceled):
		return
	default:
		cb.consecutiveFailures++
		logger.Warn("upstream fetch failed",
			zap.String("source", cb.provider.Name()),
			zap.Int("consecutive_failures", cb.consecutiveFailures),
			zap.Error(err),
		)
		if cb.cfg.MaxFailures > 0 && cb.consecutiveFailures >= cb.cfg.MaxFailures {
			cb.openLocked(reasonFailures)
		}
	}
}

func (cb *CircuitBreaker) openLocked(reason string) {
	if cb.isOpen {
		return
	}

	cb.isOpen = true
	cb.reason = reason
	cb.openedAt = cb.now()

	logger.Error("CIRCUIT BREAKER OPENED",
		zap.String("source", cb.provider.Name()),
		zap.String("reason", reason),
		zap.Duration("cooldown", cb.cfg.Cooldown),
	)
}

func (cb *CircuitBreaker) closeLocked() {
	cb.isOpen = false
	cb.reason = ""
	cb.consecutiveFailures = 0
	logger.Info("circuit breaker closed", zap.String("source", cb.provider.Name()))
}

// Reset closes the breaker and clears every counter
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.closeLocked()
	cb.requestsToday = 0
	cb.lastResetDate = cb.now()
}

// Health reports an open breaker as an unhealthy dependency
func (cb *CircuitBreaker) Health(ctx context.Context) error {
	status := cb.Status()
	if status.IsOpen {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, status.Reason)
	}
	return nil
}

// BreakerStatus is a point-in-time view of the breaker
type BreakerStatus struct {
	IsOpen              bool          `json:"is_open"`
	Reason              string        `json:"reason,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	RequestsToday       int           `json:"requests_today"`
	OpenedAt            time.Time     `json:"opened_at,omitempty"`
	CooldownRemaining   time.Duration `json:"cooldown_remaining,omitempty"`
}

// Status returns current breaker state
func (cb *CircuitBreaker) Status() BreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := BreakerStatus{
		IsOpen:              cb.isOpen,
		Reason:              cb.reason,
		ConsecutiveFailures: cb.consecutiveFailures,
		RequestsToday:       cb.requestsToday,
		OpenedAt:            cb.openedAt,
	}

	if cb.isOpen && cb.reason == reasonFailures {
		if remaining := cb.cfg.Cooldown - cb.now().Sub(cb.openedAt); remaining > 0 {
			status.CooldownRemaining = remaining
		}
	}

	return status
}

func isSameDay(a, b time.Time) bool {
	y1, m1, d1 := a.UTC().Date()
	y2, m2, d2 := b.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
