package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
)

// PlaceOrderInput carries everything checkout needs beyond the caller's
// cart. Guest fields are required when Owner is a guest session; Email is
// optional for authenticated users and only used for the confirmation mail.
type PlaceOrderInput struct {
	Owner       cartdomain.Owner
	Email       string
	Name        *string
	Phone       *string
	AddressLine string
	City        *string
	Area        *string
	DeliveryFee float64
	Notes       *string
}

// UpdateStatusInput drives one lifecycle transition.
type UpdateStatusInput struct {
	OrderID            uuid.UUID
	Status             domain.Status
	Actor              *uuid.UUID
	Notes              *string
	CancellationReason *string
}

// UpdateDeliveryInput mutates the fulfilment record of an order.
type UpdateDeliveryInput struct {
	OrderID       uuid.UUID
	Status        *domain.DeliveryStatus
	ScheduledDate *time.Time
	Notes         *string
	Actor         *uuid.UUID
}

// CalendarDay groups the deliveries scheduled for one date.
type CalendarDay struct {
	Date       time.Time
	Deliveries []*domain.Delivery
}

// Service exposes the order use cases.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*domain.Order, error)
	UpdateDelivery(ctx context.Context, input UpdateDeliveryInput) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	DeliveryCalendar(ctx context.Context, from, to time.Time) ([]CalendarDay, error)
}

// Notifier dispatches buyer-facing notifications. Implementations must be
// safe to call after the placing transaction commits; failures are logged,
// never returned to the buyer.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *domain.Order, email string) error
}
