package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingWorker struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (w *countingWorker) Name() string { return "counting" }

func (w *countingWorker) Run(ctx context.Context) error {
	w.calls.Add(1)
	if w.panic {
		panic("boom")
	}
	return w.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPeriodicWorker_RunsImmediatelyAndRepeats(t *testing.T) {
	w := &countingWorker{}
	ctx, cancel := context.WithCancel(context.Background())

	pw := NewPeriodicWorker(w, 10*time.Millisecond)
	pw.Start(ctx)

	waitFor(t, func() bool { return w.calls.Load() >= 3 })

	cancel()
	if !pw.Stop(time.Second) {
		t.Error("Expected worker to stop in time")
	}
}

func TestPeriodicWorker_ErrorsAndPanicsKeepLoopAlive(t *testing.T) {
	tests := []struct {
		name   string
		worker *countingWorker
	}{
		{name: "error", worker: &countingWorker{err: errors.New("upstream down")}},
		{name: "panic", worker: &countingWorker{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu     sync.Mutex
				errs   []error
				ctx, c = context.WithCancel(context.Background())
			)
			defer c()

			pw := NewPeriodicWorker(tt.worker, 10*time.Millisecond).OnError(func(_ context.Context, name string, err error) {
				mu.Lock()
				defer mu.Unlock()
				errs = append(errs, err)
			})
			pw.Start(ctx)

			waitFor(t, func() bool { return tt.worker.calls.Load() >= 2 })
			c()
			pw.Stop(time.Second)

			mu.Lock()
			defer mu.Unlock()
			if len(errs) < 2 {
				t.Errorf("Expected error handler on every failed run, got %d", len(errs))
			}
		})
	}
}

func TestWorkerGroup_StartStop(t *testing.T) {
	a, b := &countingWorker{}, &countingWorker{}

	group := NewWorkerGroup(context.Background())
	group.Add(a, time.Hour)
	group.Add(b, time.Hour)
	group.Start()

	waitFor(t, func() bool { return a.calls.Load() == 1 && b.calls.Load() == 1 })
	group.Stop(time.Second)
}
