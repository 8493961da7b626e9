package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

type fakeReconciler struct {
	calls atomic.Int32
	opts  services.ReconcileOptions
	err   error
	block chan struct{}
	mu    sync.Mutex
}

func (f *fakeReconciler) Reconcile(ctx context.Context, opts services.ReconcileOptions) (*services.ReconcileReport, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.opts = opts
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &services.ReconcileReport{Scanned: 3, Repaired: 1}, nil
}

type fakePruner struct {
	calls atomic.Int32
}

func (f *fakePruner) PruneExpiredTokens(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return 2, nil
}

func TestRunReconcilePassesBatchSize(t *testing.T) {
	rec := &fakeReconciler{}
	s := NewScheduler(logger.Nop(), rec, &fakePruner{}, Config{BatchSize: 50})
	if err := s.RunReconcile(context.Background()); err != nil {
		t.Fatalf("RunReconcile: %v", err)
	}
	if rec.opts.BatchSize != 50 || rec.opts.DryRun {
		t.Fatalf("options: got=%+v", rec.opts)
	}

	rec.err = errors.New("db down")
	if err := s.RunReconcile(context.Background()); err == nil {
		t.Fatalf("want error")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(logger.Nop(), &fakeReconciler{}, &fakePruner{}, Config{ReconcileSchedule: "not a schedule"})
	if _, err := s.Start(context.Background()); err == nil {
		t.Fatalf("want schedule parse error")
	}
}

func TestStartRegistersConfiguredJobs(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want int
	}{
		{"both", Config{ReconcileSchedule: "@every 1h", PruneSchedule: "@hourly"}, 2},
		{"reconcile only", Config{ReconcileSchedule: "@every 1h"}, 1},
		{"disabled", Config{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			c, err := NewScheduler(logger.Nop(), &fakeReconciler{}, &fakePruner{}, tc.cfg).Start(ctx)
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			if got := len(c.Entries()); got != tc.want {
				t.Fatalf("entries: want=%d got=%d", tc.want, got)
			}
		})
	}
}

func TestScheduledJobsRun(t *testing.T) {
	rec := &fakeReconciler{}
	pr := &fakePruner{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := NewScheduler(logger.Nop(), rec, pr, Config{
		ReconcileSchedule: "@every 1s",
		PruneSchedule:     "@every 1s",
	}).Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rec.calls.Load() > 0 && pr.calls.Load() > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("jobs did not run: reconcile=%d prune=%d", rec.calls.Load(), pr.calls.Load())
}

func TestGuardSkipsOverlappingRuns(t *testing.T) {
	rec := &fakeReconciler{block: make(chan struct{})}
	s := NewScheduler(logger.Nop(), rec, &fakePruner{}, Config{})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		s.guard(ctx, "reconcile", s.RunReconcile)
		close(done)
	}()
	for rec.calls.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	s.guard(ctx, "reconcile", s.RunReconcile)
	if got := rec.calls.Load(); got != 1 {
		t.Fatalf("overlapping run must be skipped, calls=%d", got)
	}

	close(rec.block)
	<-done
	rec.block = nil
	s.guard(ctx, "reconcile", s.RunReconcile)
	if got := rec.calls.Load(); got != 2 {
		t.Fatalf("run after completion: want=2 got=%d", got)
	}
}

func TestGuardSkipsCancelledContext(t *testing.T) {
	pr := &fakePruner{}
	s := NewScheduler(logger.Nop(), &fakeReconciler{}, pr, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.guard(ctx, "prune_tokens", s.RunPrune)
	if pr.calls.Load() != 0 {
		t.Fatalf("cancelled scheduler must not run jobs")
	}
}
