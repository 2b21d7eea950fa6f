package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	cartports "github.com/pawmart/pawmart-api/internal/domains/cart/ports"
)

const tracerName = "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/observability/service"

// Service decorates the cart service with tracing, logging, and metrics.
type Service struct {
	inner   cartports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core cart service.
func New(inner cartports.Service, opts ...Option) cartports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) AcquireLock(ctx context.Context, petID uuid.UUID, owner cartdomain.Owner) (*cartdomain.Lock, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AcquireLock",
		trace.WithAttributes(attribute.String("pet.id", petID.String()), attribute.Bool("owner.authenticated", owner.IsUser())))
	defer span.End()

	s.logInfo(ctx, "acquiring cart lock", slog.String("pet.id", petID.String()))
	lock, err := s.inner.AcquireLock(ctx, petID, owner)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to acquire cart lock", slog.String("pet.id", petID.String()))
	}
	s.metrics.recordAcquired(ctx)
	s.logInfo(ctx, "cart lock acquired",
		slog.String("lock.id", lock.ID.String()),
		slog.Time("lock.until", lock.LockedUntil))
	return lock, nil
}

func (s *Service) ViewCart(ctx context.Context, owner cartdomain.Owner) ([]cartports.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.ViewCart",
		trace.WithAttributes(attribute.Bool("owner.authenticated", owner.IsUser())))
	defer span.End()

	entries, err := s.inner.ViewCart(ctx, owner)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart")
	}
	span.SetAttributes(attribute.Int("cart.entries", len(entries)))
	return entries, nil
}

func (s *Service) ReleaseLock(ctx context.Context, lockID uuid.UUID, owner cartdomain.Owner) error {
	ctx, span := s.tracer.Start(ctx, "CartService.ReleaseLock",
		trace.WithAttributes(attribute.String("lock.id", lockID.String())))
	defer span.End()

	s.logInfo(ctx, "releasing cart lock", slog.String("lock.id", lockID.String()))
	if err := s.inner.ReleaseLock(ctx, lockID, owner); err != nil {
		return s.handleError(ctx, span, err, "failed to release cart lock", slog.String("lock.id", lockID.String()))
	}
	s.metrics.recordReleased(ctx)
	return nil
}

func (s *Service) MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) (int, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.MergeGuestCart",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	moved, err := s.inner.MergeGuestCart(ctx, sessionID, userID)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to merge guest cart", slog.String("user.id", userID.String()))
	}
	span.SetAttributes(attribute.Int("cart.locks_merged", moved))
	s.logInfo(ctx, "guest cart merged", slog.String("user.id", userID.String()), slog.Int("locks", moved))
	return moved, nil
}

func (s *Service) Sweep(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.Sweep")
	defer span.End()

	released, err := s.inner.Sweep(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "cart sweep failed")
	}
	if released > 0 {
		s.metrics.recordSwept(ctx, released)
		s.logInfo(ctx, "expired cart locks released", slog.Int("count", released))
	}
	span.SetAttributes(attribute.Int("cart.locks_swept", released))
	return released, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	// Business-rule outcomes are the caller's problem, not an operational
	// failure; only infrastructure errors surface at Error level.
	level := slog.LevelError
	if businessError(err) {
		level = slog.LevelDebug
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		if !businessError(err) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func businessError(err error) bool {
	return errors.Is(err, cartdomain.ErrAlreadyReserved) ||
		errors.Is(err, cartdomain.ErrItemUnavailable) ||
		errors.Is(err, cartdomain.ErrInvalidOwner) ||
		errors.Is(err, cartports.ErrLockNotFound) ||
		errors.Is(err, cartports.ErrPetNotFound)
}

type serviceMetrics struct {
	locksAcquired metric.Int64Counter
	locksReleased metric.Int64Counter
	locksSwept    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	acquired, _ := m.Int64Counter("cart.service.locks_acquired", metric.WithDescription("Number of cart locks acquired"))
	released, _ := m.Int64Counter("cart.service.locks_released", metric.WithDescription("Number of cart locks released by their owner"))
	swept, _ := m.Int64Counter("cart.service.locks_swept", metric.WithDescription("Number of expired cart locks released by the sweeper"))
	return serviceMetrics{locksAcquired: acquired, locksReleased: released, locksSwept: swept}
}

func (m serviceMetrics) recordAcquired(ctx context.Context) {
	if m.locksAcquired != nil {
		m.locksAcquired.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordReleased(ctx context.Context) {
	if m.locksReleased != nil {
		m.locksReleased.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordSwept(ctx context.Context, n int) {
	if m.locksSwept != nil {
		m.locksSwept.Add(ctx, int64(n))
	}
}

var _ cartports.Service = (*Service)(nil)
