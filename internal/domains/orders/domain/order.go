package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// PaymentMethod of an order. Cash on delivery is the only supported method.
type PaymentMethod string

const PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"

var (
	// ErrEmptyCart signals order placement with no live cart locks.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartExpired signals a cart lock expired before placement started.
	ErrCartExpired = errors.New("cart contents expired and must be re-added")
	// ErrInvalidTransition signals a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("order status transition is not allowed")
	// ErrValidationFailed signals malformed order input.
	ErrValidationFailed = errors.New("order input validation failed")
)

// transitions is the full lifecycle: delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// ValidStatus reports whether the value belongs to the lifecycle set.
func ValidStatus(status Status) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderItem is an immutable snapshot of a pet at purchase time. PetID may
// outlive the pet record itself; the snapshot fields never change.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	PetID      *uuid.UUID
	PetName    string
	PetSpecies string
	PetBreed   *string
	Price      float64
	CreatedAt  time.Time
}

// StatusChange is one append-only audit entry in an order's history.
type StatusChange struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    Status
	ChangedBy *uuid.UUID
	Notes     *string
	CreatedAt time.Time
}

// Order is the aggregate produced by checkout. Items, History, and Delivery
// are loaded eagerly by the repository.
type Order struct {
	ID                 uuid.UUID
	OrderNumber        string
	UserID             *uuid.UUID
	GuestContactID     *uuid.UUID
	DeliveryAddressID  uuid.UUID
	Subtotal           float64
	DeliveryFee        float64
	Total              float64
	PaymentMethod      PaymentMethod
	Status             Status
	CancellationReason *string
	CancelledAt        *time.Time
	DeliveredAt        *time.Time
	Notes              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Items    []OrderItem
	History  []StatusChange
	Delivery *Delivery
}

// NewOrder assembles a pending order for the given buyer. Exactly one of
// userID and guestContactID must be set upstream; totals are derived here.
func NewOrder(orderNumber string, userID, guestContactID *uuid.UUID, addressID uuid.UUID, subtotal, deliveryFee float64, notes *string) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, ErrValidationFailed
	}
	if subtotal < 0 || deliveryFee < 0 {
		return nil, ErrValidationFailed
	}
	return &Order{
		ID:                uuid.New(),
		OrderNumber:       orderNumber,
		UserID:            userID,
		GuestContactID:    guestContactID,
		DeliveryAddressID: addressID,
		Subtotal:          subtotal,
		DeliveryFee:       deliveryFee,
		Total:             subtotal + deliveryFee,
		PaymentMethod:     PaymentCashOnDelivery,
		Status:            StatusPending,
		Notes:             notes,
	}, nil
}

// Transition moves the order to the next status. Cancellation requires a
// non-empty reason; delivery stamps DeliveredAt once.
func (o *Order) Transition(to Status, reason *string, now time.Time) error {
	if !ValidStatus(to) {
		return ErrValidationFailed
	}
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}
	switch to {
	case StatusCancelled:
		if reason == nil || strings.TrimSpace(*reason) == "" {
			return ErrValidationFailed
		}
		o.CancellationReason = reason
		cancelledAt := now
		o.CancelledAt = &cancelledAt
	case StatusDelivered:
		if o.DeliveredAt == nil {
			deliveredAt := now
			o.DeliveredAt = &deliveredAt
		}
	}
	o.Status = to
	return nil
}
