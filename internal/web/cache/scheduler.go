package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner is a backend that removes expired entries on demand
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// PruneScheduler runs a Pruner on a cron schedule such as "@every 10m" or
// "0 3 * * *".
type PruneScheduler struct {
	pruner  Pruner
	cron    *cron.Cron
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
}

// NewPruneScheduler creates a stopped scheduler
func NewPruneScheduler(pruner Pruner, logger *zap.Logger) *PruneScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PruneScheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: logger.Named("prune"),
	}
}

// Start schedules pruning and returns immediately. The scheduler stops
// when ctx is cancelled or Stop is called. An empty schedule disables it.
func (s *PruneScheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schedule == "" {
		return nil
	}
	if s.running {
		return fmt.Errorf("prune scheduler already running")
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("prune scheduler started", zap.String("schedule", schedule))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *PruneScheduler) run(ctx context.Context) {
	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("prune failed", zap.Error(err))
		return
	}
	s.logger.Debug("pruned expired entries", zap.Int64("deleted", deleted))
}

// Stop stops the scheduler and waits for a running prune to finish
func (s *PruneScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// IsRunning reports whether the scheduler is started
func (s *PruneScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns when pruning next runs, or the zero time when stopped
func (s *PruneScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
