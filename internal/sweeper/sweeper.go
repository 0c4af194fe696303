// Package sweeper drives periodic expiry of stale holds.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cimillas/seatlease/internal/app"
)

// Cleaner runs one expiry pass.
type Cleaner interface {
	CleanupExpiredHolds(ctx context.Context) (app.CleanupResult, error)
}

type Sweeper struct {
	cleaner  Cleaner
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	last app.CleanupResult
	runs int
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(cleaner Cleaner, interval time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{cleaner: cleaner, interval: interval, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps once immediately and then every interval until ctx is done. A
// non-positive interval disables the loop and Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.InfoContext(ctx, "in-process sweeper disabled")
		<-ctx.Done()
		return nil
	}

	s.logger.InfoContext(ctx, "sweeper started", slog.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		_, _ = s.Trigger(ctx)
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.WithoutCancel(ctx), "sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Trigger runs one pass now. Failures are logged and returned; the next pass
// retries whatever was left.
func (s *Sweeper) Trigger(ctx context.Context) (app.CleanupResult, error) {
	start := time.Now()
	res, err := s.cleaner.CleanupExpiredHolds(ctx)

	s.mu.Lock()
	s.last = res
	s.runs++
	s.mu.Unlock()

	attrs := []any{
		slog.Int("cleaned", res.Cleaned),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", time.Since(start)),
	}
	switch {
	case err != nil && ctx.Err() == nil:
		s.logger.ErrorContext(ctx, "sweep failed", append(attrs, slog.Any("error", err))...)
	case err != nil:
		// shutting down
	case res.Cleaned > 0 || res.Failed > 0:
		s.logger.InfoContext(ctx, "sweep pass", attrs...)
	default:
		s.logger.DebugContext(ctx, "sweep pass", attrs...)
	}
	return res, err
}

// Stats reports the number of passes run and the result of the latest one.
func (s *Sweeper) Stats() (runs int, last app.CleanupResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.last
}
