package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/client"

	"github.com/pawmart/pawmart-api/internal/clients/http/mailer"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/ports"
	orderworkflows "github.com/pawmart/pawmart-api/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.Notifier = (*TemporalNotifier)(nil)
	_ ports.Notifier = (*InlineNotifier)(nil)
)

// TemporalNotifier starts the confirmation workflow on a Temporal cluster.
// The workflow id is derived from the order number, so a retried placement
// cannot double-send.
type TemporalNotifier struct {
	client    client.Client
	taskQueue string
}

// NewTemporalNotifier wires a Temporal client into the notifier.
func NewTemporalNotifier(c client.Client) *TemporalNotifier {
	return &TemporalNotifier{client: c, taskQueue: orderworkflows.OrderConfirmationTaskQueue}
}

// OrderPlaced starts the confirmation workflow without waiting for the send
// to finish; durability is the cluster's problem from here.
func (n *TemporalNotifier) OrderPlaced(ctx context.Context, order *domain.Order, email string) error {
	if n == nil || n.client == nil {
		return errors.New("temporal order notifier not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("order-confirmation-%s", order.OrderNumber),
		TaskQueue: n.taskQueue,
	}
	_, err := n.client.ExecuteWorkflow(ctx, options, orderworkflows.OrderConfirmationWorkflow,
		orderworkflows.OrderConfirmationWorkflowInput{
			Message: confirmationMessage(order, email),
			TraceID: traceID(ctx),
		})
	return err
}

// InlineNotifier sends through the mail gateway directly, used when no
// Temporal cluster is configured.
type InlineNotifier struct {
	mailer *mailer.Client
}

// NewInlineNotifier wraps the mailer client for synchronous dispatch.
func NewInlineNotifier(m *mailer.Client) *InlineNotifier {
	return &InlineNotifier{mailer: m}
}

// OrderPlaced sends the confirmation in-process, single attempt.
func (n *InlineNotifier) OrderPlaced(ctx context.Context, order *domain.Order, email string) error {
	if n == nil || n.mailer == nil {
		return errors.New("inline order notifier not configured")
	}
	return n.mailer.SendOrderConfirmation(ctx, confirmationMessage(order, email))
}

func confirmationMessage(order *domain.Order, email string) mailer.OrderConfirmation {
	lines := make([]mailer.OrderLine, 0, len(order.Items))
	for i := range order.Items {
		lines = append(lines, mailer.OrderLine{Name: order.Items[i].PetName, Price: order.Items[i].Price})
	}
	placedAt := order.CreatedAt
	if placedAt.IsZero() {
		placedAt = time.Now()
	}
	return mailer.OrderConfirmation{
		Email:       email,
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
		Items:       lines,
		PlacedAt:    placedAt,
	}
}

func traceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
