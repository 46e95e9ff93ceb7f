package automation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// Reaper is the part of the registry the scheduler drives.
type Reaper interface {
	ReapInactive(threshold time.Duration) []id.SessionID
	ReapAll() []id.SessionID
}

// Scheduler periodically reaps idle sessions and tears everything down on
// Stop. The cycle doubles as the inactivity threshold; a zero cycle only
// disables the periodic pass.
type Scheduler struct {
	reaper Reaper
	cycle  time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewScheduler creates a scheduler; call Start to begin reaping.
func NewScheduler(reaper Reaper, cycle time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		reaper: reaper,
		cycle:  cycle,
		logger: logger,
	}
}

// Start launches the reaping loop. The first pass runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil || s.stopped {
		return
	}
	if s.cycle <= 0 {
		s.logger.Info("Session cleanup disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.logger.Info("Session cleanup started", zap.Duration("cycle", s.cycle))
	go s.loop(ctx, s.done)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cycle)
	defer ticker.Stop()

	for {
		s.RunOnce()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single reaping pass.
func (s *Scheduler) RunOnce() []id.SessionID {
	removed := s.reaper.ReapInactive(s.cycle)
	if len(removed) == 0 {
		return removed
	}
	pass := id.NewRequestID()
	for _, sid := range removed {
		s.logger.Info("Removed inactive session",
			zap.String("pass_id", pass.String()),
			zap.String("session_id", string(sid)))
	}
	return removed
}

// Stop halts the loop and closes every remaining session. It is safe to
// call more than once.
func (s *Scheduler) Stop() []id.SessionID {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	removed := s.reaper.ReapAll()
	s.logger.Info("Session cleanup stopped", zap.Int("closed_sessions", len(removed)))
	return removed
}
