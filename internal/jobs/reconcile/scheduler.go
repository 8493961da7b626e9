package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/envutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

const (
	defaultReconcileSchedule = "@every 15m"
	defaultPruneSchedule     = "@hourly"
)

// TokenPruner removes expired sessions.
type TokenPruner interface {
	PruneExpiredTokens(ctx context.Context) (int64, error)
}

type Config struct {
	// Empty disables the job.
	ReconcileSchedule string
	PruneSchedule     string
	BatchSize         int
	RunTimeout        time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		ReconcileSchedule: envutil.String("RECONCILE_SCHEDULE", defaultReconcileSchedule),
		PruneSchedule:     envutil.String("TOKEN_PRUNE_SCHEDULE", defaultPruneSchedule),
		BatchSize:         envutil.Int("RECONCILE_BATCH_SIZE", 0),
		RunTimeout:        envutil.Duration("RECONCILE_RUN_TIMEOUT", 10*time.Minute),
	}
}

// Scheduler runs periodic maintenance: tracking-store repair and session
// pruning. A run is skipped while the previous run of the same job is
// still in flight.
type Scheduler struct {
	log        *logger.Logger
	reconciler services.Reconciler
	pruner     TokenPruner
	cfg        Config

	mu      sync.Mutex
	running map[string]bool
}

func NewScheduler(log *logger.Logger, reconciler services.Reconciler, pruner TokenPruner, cfg Config) *Scheduler {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	return &Scheduler{
		log:        log.With("component", "ReconcileScheduler"),
		reconciler: reconciler,
		pruner:     pruner,
		cfg:        cfg,
		running:    map[string]bool{},
	}
}

// Start registers the configured jobs and starts the cron runner. The
// runner stops when ctx is done; callers may also Stop it directly.
func (s *Scheduler) Start(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()

	if sched := strings.TrimSpace(s.cfg.ReconcileSchedule); sched != "" && s.reconciler != nil {
		if _, err := c.AddFunc(sched, func() { s.guard(ctx, "reconcile", s.RunReconcile) }); err != nil {
			return nil, fmt.Errorf("schedule reconcile %q: %w", sched, err)
		}
	}
	if sched := strings.TrimSpace(s.cfg.PruneSchedule); sched != "" && s.pruner != nil {
		if _, err := c.AddFunc(sched, func() { s.guard(ctx, "prune_tokens", s.RunPrune) }); err != nil {
			return nil, fmt.Errorf("schedule token prune %q: %w", sched, err)
		}
	}

	c.Start()
	s.log.Info("Maintenance scheduler started",
		"reconcile_schedule", s.cfg.ReconcileSchedule,
		"prune_schedule", s.cfg.PruneSchedule,
		"entries", len(c.Entries()),
	)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		s.log.Info("Maintenance scheduler stopped")
	}()
	return c, nil
}

func (s *Scheduler) guard(ctx context.Context, name string, run func(context.Context) error) {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		s.log.Warn("Previous run still in flight; skipping", "job", name)
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Scheduled job panicked", "job", name, "panic", r)
		}
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()
	if err := run(runCtx); err != nil {
		s.log.Error("Scheduled job failed", "job", name, "error", err)
	}
}

func (s *Scheduler) RunReconcile(ctx context.Context) error {
	report, err := s.reconciler.Reconcile(ctx, services.ReconcileOptions{BatchSize: s.cfg.BatchSize})
	if err != nil {
		return err
	}
	observability.Current().ObserveReconcile(report.Scanned, report.Missing, report.Drifted, report.Repaired, report.Failed, report.Duration)
	s.log.Info("Reconcile finished",
		"scanned", report.Scanned,
		"missing", report.Missing,
		"drifted", report.Drifted,
		"repaired", report.Repaired,
		"failed", report.Failed,
		"duration", report.Duration.String(),
	)
	return nil
}

func (s *Scheduler) RunPrune(ctx context.Context) error {
	n, err := s.pruner.PruneExpiredTokens(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("Pruned expired sessions", "count", n)
	}
	return nil
}
