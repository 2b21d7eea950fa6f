package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
)

// Entry pairs a live lock with the pet it reserves.
type Entry struct {
	Lock domain.Lock
	Pet  *catalogdomain.Pet
}

// Service exposes the cart use cases consumed by transport and decorators.
type Service interface {
	AcquireLock(ctx context.Context, petID uuid.UUID, owner domain.Owner) (*domain.Lock, error)
	ViewCart(ctx context.Context, owner domain.Owner) ([]Entry, error)
	ReleaseLock(ctx context.Context, lockID uuid.UUID, owner domain.Owner) error
	MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) (int, error)
	Sweep(ctx context.Context) (int, error)
}
