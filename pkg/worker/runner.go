package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
)

// Worker is one unit of background work run on a schedule
type Worker interface {
	// Name returns worker name for logging
	Name() string
	// Run executes one iteration of work
	Run(ctx context.Context) error
}

// ErrorHandler is called with every failed iteration
type ErrorHandler func(ctx context.Context, name string, err error)

// PeriodicWorker runs a Worker immediately and then every interval until its
// context is cancelled. A failed or panicking iteration never stops the loop.
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	onError  ErrorHandler
	wg       sync.WaitGroup
	name     string
}

// NewPeriodicWorker creates new periodic worker
func NewPeriodicWorker(worker Worker, interval time.Duration) *PeriodicWorker {
	return &PeriodicWorker{
		worker:   worker,
		interval: interval,
		name:     worker.Name(),
	}
}

// OnError registers a handler for failed iterations
func (pw *PeriodicWorker) OnError(h ErrorHandler) *PeriodicWorker {
	pw.onError = h
	return pw
}

// Start launches the loop in a goroutine
func (pw *PeriodicWorker) Start(ctx context.Context) {
	pw.wg.Add(1)
	go pw.loop(ctx)
}

// Stop waits up to timeout for the loop to exit. It reports whether the
// worker finished in time.
func (pw *PeriodicWorker) Stop(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("✅ Worker stopped gracefully", zap.String("worker", pw.name))
		return true
	case <-time.After(timeout):
		logger.Warn("⚠️ Worker stop timeout", zap.String("worker", pw.name))
		return false
	}
}

func (pw *PeriodicWorker) loop(ctx context.Context) {
	defer pw.wg.Done()

	logger.Info("🚀 Worker started",
		zap.String("worker", pw.name),
		zap.Duration("interval", pw.interval),
	)

	pw.runOnce(ctx)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("🛑 Worker stopping", zap.String("worker", pw.name))
			return
		case <-ticker.C:
			pw.runOnce(ctx)
		}
	}
}

func (pw *PeriodicWorker) runOnce(ctx context.Context) {
	start := time.Now()
	err := pw.safeRun(ctx)
	if err == nil {
		logger.Debug("worker iteration completed",
			zap.String("worker", pw.name),
			zap.Duration("took", time.Since(start)),
		)
		return
	}

	if ctx.Err() != nil {
		return
	}

	logger.Error("worker execution failed",
		zap.String("worker", pw.name),
		zap.Error(err),
	)
	if pw.onError != nil {
		pw.onError(ctx, pw.name, err)
	}
}

func (pw *PeriodicWorker) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %s panicked: %v", pw.name, r)
		}
	}()
	return pw.worker.Run(ctx)
}

// WorkerGroup starts and stops a set of periodic workers together
type WorkerGroup struct {
	workers []*PeriodicWorker
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewWorkerGroup creates new worker group
func NewWorkerGroup(ctx context.Context) *WorkerGroup {
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerGroup{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a worker; it starts with the group
func (wg *WorkerGroup) Add(worker Worker, interval time.Duration) *PeriodicWorker {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	pw := NewPeriodicWorker(worker, interval)
	wg.workers = append(wg.workers, pw)
	return pw
}

// Start starts all workers
func (wg *WorkerGroup) Start() {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, w := range wg.workers {
		w.Start(wg.ctx)
	}

	logger.Info("🚀 Worker group started", zap.Int("workers", len(wg.workers)))
}

// Stop cancels every worker and waits for each up to timeout
func (wg *WorkerGroup) Stop(timeout time.Duration) {
	logger.Info("🛑 Stopping worker group...", zap.Int("workers", len(wg.workers)))

	wg.cancel()

	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, w := range wg.workers {
		w.Stop(timeout)
	}

	logger.Info("✅ Worker group stopped")
}
