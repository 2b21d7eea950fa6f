package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
)

var (
	// ErrOrderNotFound signals an order id or number with no row.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDeliveryNotFound signals an order without a delivery record.
	ErrDeliveryNotFound = errors.New("delivery not found")
	// ErrGuestContactNotFound signals no guest contact for the e-mail.
	ErrGuestContactNotFound = errors.New("guest contact not found")
	// ErrPetNotFound signals a pet id with no live row.
	ErrPetNotFound = errors.New("pet not found")
)

// Repository is the storage surface for order assembly and lifecycle. InTx
// runs fn against a transaction-bound repository; everything inside commits
// or rolls back together. Checkout reaches across contexts (cart locks, pet
// status) because all of it must move in the same transaction.
type Repository interface {
	InTx(ctx context.Context, fn func(tx Repository) error) error

	// Cart collaboration during checkout.
	LocksForOwner(ctx context.Context, owner cartdomain.Owner) ([]cartdomain.Lock, error)
	ExtendLocks(ctx context.Context, ids []uuid.UUID, until time.Time) error
	DeleteLock(ctx context.Context, id uuid.UUID) error

	// Catalog collaboration: price/name snapshots and status writes.
	PetsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalogdomain.Pet, error)
	SetPetStatus(ctx context.Context, petID uuid.UUID, status catalogdomain.Status) error

	// Buyer identity.
	CreateAddress(ctx context.Context, address *domain.Address) error
	GuestContactByEmail(ctx context.Context, email string) (*domain.GuestContact, error)
	CreateGuestContact(ctx context.Context, contact *domain.GuestContact) error
	GuestContactByID(ctx context.Context, id uuid.UUID) (*domain.GuestContact, error)

	// Order rows.
	OrderNumberExists(ctx context.Context, number string) (bool, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	UpdateOrder(ctx context.Context, order *domain.Order) error
	CreateOrderItems(ctx context.Context, items []domain.OrderItem) error
	AppendStatusHistory(ctx context.Context, change *domain.StatusChange) error
	CreateDelivery(ctx context.Context, delivery *domain.Delivery) error
	UpdateDelivery(ctx context.Context, delivery *domain.Delivery) error

	// Queries. Orders come back with items, history, and delivery eager.
	OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	OrderByNumber(ctx context.Context, number string) (*domain.Order, error)
	OrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	OrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	DeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Delivery, error)
	DeliveriesScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Delivery, error)
}
