package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the courier-side lifecycle, independent of the order
// lifecycle except that a delivered delivery also delivers the order.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryDispatched DeliveryStatus = "dispatched"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryFailed     DeliveryStatus = "failed"
)

// ErrInvalidDeliveryStatus signals a status outside the known set.
var ErrInvalidDeliveryStatus = errors.New("delivery status is invalid")

// ValidDeliveryStatus reports whether the value belongs to the known set.
func ValidDeliveryStatus(status DeliveryStatus) bool {
	switch status {
	case DeliveryPending, DeliveryDispatched, DeliveryDelivered, DeliveryFailed:
		return true
	}
	return false
}

// Delivery tracks fulfilment of one order. DispatchedAt and DeliveredAt are
// set once and must be monotonic.
type Delivery struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Status        DeliveryStatus
	ScheduledDate *time.Time
	DispatchedAt  *time.Time
	DeliveredAt   *time.Time
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDelivery creates the pending delivery record for an order.
func NewDelivery(orderID uuid.UUID) *Delivery {
	return &Delivery{
		ID:      uuid.New(),
		OrderID: orderID,
		Status:  DeliveryPending,
	}
}

// MarkStatus applies a status change, stamping dispatch and delivery times
// on first entry into those states. Delivered before dispatched stamps both
// so the timestamps stay ordered.
func (d *Delivery) MarkStatus(status DeliveryStatus, now time.Time) error {
	if !ValidDeliveryStatus(status) {
		return ErrInvalidDeliveryStatus
	}
	switch status {
	case DeliveryDispatched:
		if d.DispatchedAt == nil {
			dispatchedAt := now
			d.DispatchedAt = &dispatchedAt
		}
	case DeliveryDelivered:
		if d.DispatchedAt == nil {
			dispatchedAt := now
			d.DispatchedAt = &dispatchedAt
		}
		if d.DeliveredAt == nil {
			deliveredAt := now
			d.DeliveredAt = &deliveredAt
		}
	}
	d.Status = status
	return nil
}
