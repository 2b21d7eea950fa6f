package sweeper

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	"github.com/pawmart/pawmart-api/internal/domains/cart/ports"
)

// stubCart counts Sweep calls and can block inside them to simulate a slow
// pass.
type stubCart struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	result  int
	err     error
}

func (s *stubCart) Sweep(ctx context.Context) (int, error) {
	s.calls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return s.result, s.err
}

func (s *stubCart) AcquireLock(context.Context, uuid.UUID, domain.Owner) (*domain.Lock, error) {
	panic("not used")
}

func (s *stubCart) ViewCart(context.Context, domain.Owner) ([]ports.Entry, error) {
	panic("not used")
}

func (s *stubCart) ReleaseLock(context.Context, uuid.UUID, domain.Owner) error {
	panic("not used")
}

func (s *stubCart) MergeGuestCart(context.Context, string, uuid.UUID) (int, error) {
	panic("not used")
}

var _ ports.Service = (*stubCart)(nil)

func TestSweep_SkipsOverlappingPass(t *testing.T) {
	cart := &stubCart{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := New(cart)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.sweep(ctx)
	}()
	<-cart.entered

	// A second pass while the first is in flight must be dropped.
	s.sweep(ctx)
	require.EqualValues(t, 1, cart.calls.Load())

	close(cart.release)
	wg.Wait()

	s.sweep(ctx)
	require.EqualValues(t, 2, cart.calls.Load())
}

func TestSweepOnce_DelegatesToCart(t *testing.T) {
	cart := &stubCart{result: 3}
	released, err := New(cart).SweepOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, released)
	require.EqualValues(t, 1, cart.calls.Load())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cart := &stubCart{}
	s := New(cart, WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return cart.calls.Load() >= 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
