package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	ordersports "github.com/pawmart/pawmart-api/internal/domains/orders/ports"
)

const tracerName = "github.com/pawmart/pawmart-api/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
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

// New wraps the core order service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
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

func (s *Service) PlaceOrder(ctx context.Context, input ordersports.PlaceOrderInput) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(attribute.Bool("buyer.authenticated", input.Owner.IsUser())))
	defer span.End()

	s.logInfo(ctx, "placing order")
	order, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order")
	}
	span.SetAttributes(
		attribute.String("order.number", order.OrderNumber),
		attribute.Int("order.items", len(order.Items)))
	s.metrics.recordPlaced(ctx, len(order.Items), order.Total)
	s.logInfo(ctx, "order placed",
		slog.String("order.number", order.OrderNumber),
		slog.Int("items", len(order.Items)),
		slog.Float64("total", order.Total))
	return order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, input ordersports.UpdateStatusInput) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(
			attribute.String("order.id", input.OrderID.String()),
			attribute.String("order.status", string(input.Status))))
	defer span.End()

	order, err := s.inner.UpdateStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status",
			slog.String("order.id", input.OrderID.String()),
			slog.String("status", string(input.Status)))
	}
	s.metrics.recordTransition(ctx, order.Status)
	s.logInfo(ctx, "order status updated",
		slog.String("order.number", order.OrderNumber),
		slog.String("status", string(order.Status)))
	return order, nil
}

func (s *Service) UpdateDelivery(ctx context.Context, input ordersports.UpdateDeliveryInput) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateDelivery",
		trace.WithAttributes(attribute.String("order.id", input.OrderID.String())))
	defer span.End()

	order, err := s.inner.UpdateDelivery(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update delivery",
			slog.String("order.id", input.OrderID.String()))
	}
	if order.Delivery != nil {
		span.SetAttributes(attribute.String("delivery.status", string(order.Delivery.Status)))
	}
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id.String()))
	}
	return order, nil
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByNumber",
		trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	order, err := s.inner.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.number", number))
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListForUser",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	orders, err := s.inner.ListForUser(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("user.id", userID.String()))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) ListByStatus(ctx context.Context, status ordersdomain.Status) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByStatus",
		trace.WithAttributes(attribute.String("order.status", string(status))))
	defer span.End()

	orders, err := s.inner.ListByStatus(ctx, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("status", string(status)))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) DeliveryCalendar(ctx context.Context, from, to time.Time) ([]ordersports.CalendarDay, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeliveryCalendar")
	defer span.End()

	days, err := s.inner.DeliveryCalendar(ctx, from, to)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to build delivery calendar")
	}
	span.SetAttributes(attribute.Int("calendar.days", len(days)))
	return days, nil
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
	return errors.Is(err, ordersdomain.ErrEmptyCart) ||
		errors.Is(err, ordersdomain.ErrCartExpired) ||
		errors.Is(err, ordersdomain.ErrInvalidTransition) ||
		errors.Is(err, ordersdomain.ErrValidationFailed) ||
		errors.Is(err, ordersdomain.ErrInvalidDeliveryStatus) ||
		errors.Is(err, ordersports.ErrOrderNotFound) ||
		errors.Is(err, ordersports.ErrDeliveryNotFound) ||
		errors.Is(err, ordersports.ErrPetNotFound)
}

type serviceMetrics struct {
	ordersPlaced metric.Int64Counter
	orderValue   metric.Float64Counter
	transitions  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders placed"))
	value, _ := m.Float64Counter("orders.service.order_value", metric.WithDescription("Total value of placed orders"))
	transitions, _ := m.Int64Counter("orders.service.status_transitions", metric.WithDescription("Number of order status transitions"))
	return serviceMetrics{ordersPlaced: placed, orderValue: value, transitions: transitions}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, items int, total float64) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.Int("order.items", items)))
	}
	if m.orderValue != nil {
		m.orderValue.Add(ctx, total)
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, status ordersdomain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

var _ ordersports.Service = (*Service)(nil)
