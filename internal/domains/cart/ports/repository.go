package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
)

var (
	// ErrLockNotFound signals no matching lock exists (or it is not visible
	// to the caller's owner scope).
	ErrLockNotFound = errors.New("cart lock not found")
	// ErrPetNotFound signals the referenced pet does not exist.
	ErrPetNotFound = errors.New("pet not found")
	// ErrDuplicateLock surfaces the storage-level unique constraint on the
	// pet id; the loser of a concurrent acquire race receives it.
	ErrDuplicateLock = errors.New("a lock for this pet already exists")
)

// Repository is the cart's view of the persistent store. InTx runs fn
// against a transaction-scoped repository; every write inside fn commits or
// rolls back as one unit.
type Repository interface {
	InTx(ctx context.Context, fn func(tx Repository) error) error

	// Pet availability, owned by the cart within its transactions.
	PetStatus(ctx context.Context, petID uuid.UUID) (catalogdomain.Status, error)
	SetPetStatus(ctx context.Context, petID uuid.UUID, status catalogdomain.Status) error

	LockByPetID(ctx context.Context, petID uuid.UUID) (*domain.Lock, error)
	LockByIDForOwner(ctx context.Context, id uuid.UUID, owner domain.Owner) (*domain.Lock, error)
	LocksForOwner(ctx context.Context, owner domain.Owner) ([]domain.Lock, error)
	CreateLock(ctx context.Context, lock *domain.Lock) error
	DeleteLock(ctx context.Context, id uuid.UUID) error
	// DeleteLockIfExpired removes the lock only when its stored expiry is
	// still in the past, so a concurrent extension wins over a stale sweep.
	DeleteLockIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ExtendUserLocks(ctx context.Context, userID uuid.UUID, until time.Time) error
	// ReassignSessionLocks moves every session-owned lock to the user and
	// resets its expiry; returns the number of locks moved.
	ReassignSessionLocks(ctx context.Context, sessionID string, userID uuid.UUID, until time.Time) (int, error)
	ExpiredLocks(ctx context.Context, now time.Time) ([]domain.Lock, error)
}
