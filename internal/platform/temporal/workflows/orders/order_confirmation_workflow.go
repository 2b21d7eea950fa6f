package orders

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/pawmart/pawmart-api/internal/clients/http/mailer"
	orderactivities "github.com/pawmart/pawmart-api/internal/platform/temporal/activities/orders"
)

const (
	// OrderConfirmationWorkflowName is the public identifier for registering the workflow.
	OrderConfirmationWorkflowName = "orders.workflows.Confirmation"
	// OrderConfirmationTaskQueue is the queue consumed by the worker processing order workflows.
	OrderConfirmationTaskQueue = "ORDER_CONFIRMATION"
)

// OrderConfirmationWorkflowInput captures the payload for one confirmation.
type OrderConfirmationWorkflowInput struct {
	Message mailer.OrderConfirmation
	TraceID string
}

// OrderConfirmationWorkflow retries the confirmation send until the mail
// gateway accepts it or the retry budget is exhausted.
func OrderConfirmationWorkflow(ctx workflow.Context, input OrderConfirmationWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderConfirmationWorkflow started", withTraceID(input.TraceID, "orderNumber", input.Message.OrderNumber)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, options),
		orderactivities.SendOrderConfirmationActivityName,
		input.Message,
	).Get(ctx, nil)
	if err != nil {
		logger.Error("OrderConfirmationWorkflow failed", withTraceID(input.TraceID, "orderNumber", input.Message.OrderNumber, "error", err)...)
		return err
	}
	logger.Info("OrderConfirmationWorkflow completed", withTraceID(input.TraceID, "orderNumber", input.Message.OrderNumber)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
