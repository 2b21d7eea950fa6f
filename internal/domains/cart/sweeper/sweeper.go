package sweeper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pawmart/pawmart-api/internal/domains/cart/ports"
)

// DefaultInterval is how often the sweeper looks for expired locks.
const DefaultInterval = time.Minute

// Sweeper periodically releases expired cart locks. Runs are skipped rather
// than queued when a previous pass is still in flight.
type Sweeper struct {
	cart     ports.Service
	interval time.Duration
	logger   *slog.Logger
	running  atomic.Bool
}

type Option func(*Sweeper)

// WithInterval overrides the sweep cadence.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// New builds a sweeper over the cart service.
func New(cart ports.Service, opts ...Option) *Sweeper {
	s := &Sweeper{cart: cart, interval: DefaultInterval}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// SweepOnce performs a single pass, for cron-style invocation.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	return s.cart.Sweep(ctx)
}

func (s *Sweeper) sweep(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	released, err := s.cart.Sweep(ctx)
	if err != nil {
		if s.logger != nil && ctx.Err() == nil {
			s.logger.Error("cart lock sweep failed", slog.String("error", err.Error()))
		}
		return
	}
	if released > 0 && s.logger != nil {
		s.logger.Info("cart lock sweep released expired locks", slog.Int("count", released))
	}
}
