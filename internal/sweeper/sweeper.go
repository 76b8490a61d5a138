// Package sweeper runs the periodic purge of expired deleted accounts.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Purger interface {
	PurgeExpired(ctx context.Context, retentionDays int) (int, error)
}

// Sweeper invokes the purger once at startup and then at a fixed
// interval until stopped.
type Sweeper struct {
	purger        Purger
	interval      time.Duration
	retentionDays int

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func New(purger Purger, interval time.Duration, retentionDays int) *Sweeper {
	return &Sweeper{
		purger:        purger,
		interval:      interval,
		retentionDays: retentionDays,
	}
}

// Start launches the sweep loop. It returns immediately; the loop stops
// when ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// RunOnce performs a single sweep. Errors are logged, never fatal; the
// next tick retries.
func (s *Sweeper) RunOnce(ctx context.Context) {
	purged, err := s.purger.PurgeExpired(ctx, s.retentionDays)
	if err != nil {
		slog.Error("account purge sweep failed", "err", err)
		return
	}
	if purged > 0 {
		slog.Info("account purge sweep finished", "purged", purged)
	}
}
