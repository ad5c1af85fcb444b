package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gaudesp/noxbot/internal/domain"
)

var (
	ErrAlreadyStarted  = errors.New("scheduler already started")
	ErrCycleInProgress = errors.New("sync cycle already in progress")
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

// Scheduler runs sync cycles on a fixed interval. At most one cycle runs at
// a time; ticks that fire during a cycle are skipped.
type Scheduler struct {
	syncer       Syncer
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger

	startMu sync.Mutex
	started bool
	cycleMu sync.Mutex
}

func NewScheduler(syncer Syncer, interval, cycleTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:       syncer,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}
}

// Start runs a cycle immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.startMu.Lock()
	if s.started {
		s.startMu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.startMu.Unlock()

	defer func() {
		s.startMu.Lock()
		s.started = false
		s.startMu.Unlock()
	}()

	s.logger.Info("scheduler started", "interval", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

// RunOnce runs a single cycle unless one is already running.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.SyncStats, error) {
	if !s.cycleMu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()

	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}

	return s.syncer.Sync(ctx)
}

func (s *Scheduler) runSync(ctx context.Context) {
	_, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrCycleInProgress):
		s.logger.Warn("skipping tick, previous cycle still running")
	case err != nil:
		s.logger.Error("sync failed", "error", err)
	}
}
