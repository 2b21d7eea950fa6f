package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LockWindow is how long a cart reservation holds a pet before it may be
// swept. Expiry is advisory: it is acted on by the sweeper or the next
// read/merge/checkout touching the lock, never instantaneously.
const LockWindow = 15 * time.Minute

var (
	// ErrItemUnavailable signals the pet is not in the available state.
	ErrItemUnavailable = errors.New("pet is not available")
	// ErrAlreadyReserved signals an unexpired lock is already held for the pet.
	ErrAlreadyReserved = errors.New("pet is already reserved by another customer")
	// ErrInvalidOwner signals an owner with neither (or both) identities set.
	ErrInvalidOwner = errors.New("cart owner must be exactly one of user or session")
)

// Owner identifies who holds a cart: an authenticated user or a guest
// session, exactly one of the two.
type Owner struct {
	UserID    *uuid.UUID
	SessionID string
}

// UserOwner builds an owner for an authenticated user.
func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: &userID}
}

// GuestOwner builds an owner for an anonymous session.
func GuestOwner(sessionID string) Owner {
	return Owner{SessionID: sessionID}
}

// IsUser reports whether the owner is an authenticated user.
func (o Owner) IsUser() bool {
	return o.UserID != nil
}

// Validate enforces the exactly-one-identity invariant.
func (o Owner) Validate() error {
	hasSession := strings.TrimSpace(o.SessionID) != ""
	if o.UserID != nil && hasSession {
		return ErrInvalidOwner
	}
	if o.UserID == nil && !hasSession {
		return ErrInvalidOwner
	}
	return nil
}

// Lock is a time-boxed reservation of one pet by one owner. At most one lock
// may reference a pet at a time; the storage layer enforces this with a
// unique constraint on the pet id.
type Lock struct {
	ID          uuid.UUID
	PetID       uuid.UUID
	UserID      *uuid.UUID
	SessionID   *string
	LockedUntil time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewLock reserves a pet for an owner until the given instant.
func NewLock(petID uuid.UUID, owner Owner, until time.Time) (*Lock, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	lock := &Lock{ID: uuid.New(), PetID: petID, LockedUntil: until}
	if owner.IsUser() {
		userID := *owner.UserID
		lock.UserID = &userID
	} else {
		session := owner.SessionID
		lock.SessionID = &session
	}
	return lock, nil
}

// Expired reports whether the lock window has passed at the given instant.
func (l *Lock) Expired(now time.Time) bool {
	return l.LockedUntil.Before(now)
}

// Owner reconstructs the owner identity held by the lock.
func (l *Lock) Owner() Owner {
	if l.UserID != nil {
		return UserOwner(*l.UserID)
	}
	if l.SessionID != nil {
		return GuestOwner(*l.SessionID)
	}
	return Owner{}
}

// HeldBy reports whether the lock belongs to the given owner. A lock that
// has been attached to a user no longer answers to the original session.
func (l *Lock) HeldBy(owner Owner) bool {
	if owner.IsUser() {
		return l.UserID != nil && *l.UserID == *owner.UserID
	}
	return l.UserID == nil && l.SessionID != nil && *l.SessionID == owner.SessionID
}
