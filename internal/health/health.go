package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
)

const checkTimeout = 2 * time.Second

// Checker reports whether a dependency is usable
type Checker interface {
	Health(ctx context.Context) error
}

// CheckFunc adapts a function to Checker
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Health(ctx context.Context) error {
	return f(ctx)
}

// Service serves liveness and readiness probes
type Service struct {
	checks    map[string]Checker
	info      map[string]Checker
	ready     bool
	readyMu   sync.RWMutex
	startTime time.Time
}

// HealthStatus represents system health
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessStatus represents system readiness
type ReadinessStatus struct {
	Ready     bool              `json:"ready"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// New creates health service; nil checkers are ignored
func New(checks map[string]Checker) *Service {
	filtered := make(map[string]Checker, len(checks))
	for name, c := range checks {
		if c != nil {
			filtered[name] = c
		}
	}

	return &Service{
		checks:    filtered,
		info:      make(map[string]Checker),
		startTime: time.Now(),
	}
}

// AddInfo registers a check reported by the verbose liveness probe only; it
// never affects readiness
func (s *Service) AddInfo(name string, c Checker) {
	if c == nil {
		return
	}
	s.info[name] = c
}

// SetReady marks the service as ready
func (s *Service) SetReady(ready bool) {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	s.ready = ready

	if ready {
		logger.Info("service marked as READY")
	} else {
		logger.Warn("service marked as NOT READY")
	}
}

// HandleHealth is the liveness probe. It returns 200 while the process is up,
// even if dependencies are down; ?verbose=true includes dependency checks.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.Checks, _ = runChecks(r.Context(), s.checks)
		info, _ := runChecks(r.Context(), s.info)
		for name, result := range info {
			status.Checks[name] = result
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, status)
}

// HandleReadiness returns 200 only after SetReady(true) and while every
// dependency check passes
func (s *Service) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	s.readyMu.RLock()
	ready := s.ready
	s.readyMu.RUnlock()

	checks, allHealthy := runChecks(r.Context(), s.checks)
	isReady := ready && allHealthy

	if !isReady {
		logger.Debug("readiness check failed",
			zap.Bool("started", ready),
			zap.Any("checks", checks),
		)
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, ReadinessStatus{
		Ready:     isReady,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func runChecks(ctx context.Context, checks map[string]Checker) (map[string]string, bool) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	allHealthy := true

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checks[name].Health(cctx)
		cancel()

		if err != nil {
			results[name] = "unhealthy: " + err.Error()
			allHealthy = false
			continue
		}
		results[name] = "healthy"
	}

	return results, allHealthy
}
