package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/pawmart/pawmart-api/internal/clients/http/mailer"
)

// SendOrderConfirmationActivityName dispatches the confirmation e-mail.
const SendOrderConfirmationActivityName = "orders.activities.SendOrderConfirmation"

// Mailer is the slice of the mail gateway the activity needs.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, msg mailer.OrderConfirmation) error
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	mailer Mailer
}

// NewActivities wires the mail gateway into the Temporal activities bundle.
func NewActivities(m Mailer) *Activities {
	return &Activities{mailer: m}
}

// SendOrderConfirmation delivers the confirmation message for one order.
func (a *Activities) SendOrderConfirmation(ctx context.Context, msg mailer.OrderConfirmation) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.mailer == nil {
		logger.Error("order confirmation activity not initialized", "orderNumber", msg.OrderNumber)
		return errors.New("order confirmation activity not initialized")
	}
	logger.Info("SendOrderConfirmation activity started", "orderNumber", msg.OrderNumber)
	if err := a.mailer.SendOrderConfirmation(ctx, msg); err != nil {
		logger.Error("SendOrderConfirmation activity failed", "orderNumber", msg.OrderNumber, "error", err)
		return err
	}
	logger.Info("SendOrderConfirmation activity completed", "orderNumber", msg.OrderNumber)
	return nil
}
