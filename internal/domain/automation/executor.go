package automation

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Executor bounds the number of provider calls in flight.
type Executor struct {
	sem *semaphore.Weighted
}

// NewExecutor creates an executor with the given number of workers.
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = 1
	}
	return &Executor{sem: semaphore.NewWeighted(int64(workers))}
}

// Do runs fn once a worker slot is free. It gives up without running fn
// if ctx ends first; once started, fn runs to completion.
func (e *Executor) Do(ctx context.Context, fn func() error) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for automation worker: %w", err)
	}
	defer e.sem.Release(1)
	return fn()
}

// DoFor runs fn as the next command of s. The session's turn is taken
// before a worker slot, so commands queued behind a busy session never
// hold workers other sessions need. Both waits end with ctx.
func (e *Executor) DoFor(ctx context.Context, s *Session, fn func() error) error {
	if err := s.turn.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for session %s: %w", s.id, err)
	}
	defer s.turn.Release(1)
	return e.Do(ctx, fn)
}
