package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	"github.com/pawmart/pawmart-api/internal/domains/cart/ports"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	catalogports "github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
)

// Service orchestrates the cart bounded context: lock acquisition, cart
// reads with sliding-window renewal, release, guest-to-user merge, and the
// expired-lock sweep.
type Service struct {
	repo    ports.Repository
	catalog catalogports.Repository
	window  time.Duration
	now     func() time.Time
}

// Option configures the cart service.
type Option func(*Service)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLockWindow overrides the reservation window.
func WithLockWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// NewService wires the cart service with its dependencies.
func NewService(repo ports.Repository, catalog catalogports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		catalog: catalog,
		window:  domain.LockWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// AcquireLock reserves a pet for the owner for one lock window. An expired
// lock left by any owner is taken over; an unexpired one held by someone
// else wins the race and the caller gets ErrAlreadyReserved. Re-acquiring a
// pet the owner already holds returns the existing lock unchanged. The pet
// moves to reserved in the same transaction that creates the lock.
func (s *Service) AcquireLock(ctx context.Context, petID uuid.UUID, owner domain.Owner) (*domain.Lock, error) {
	if err := owner.Validate(); err != nil {
		return nil, mapError(err)
	}
	now := s.now()
	var acquired *domain.Lock
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		existing, err := tx.LockByPetID(ctx, petID)
		if err != nil && !errors.Is(err, ports.ErrLockNotFound) {
			return err
		}
		if existing != nil {
			if !existing.Expired(now) {
				if existing.HeldBy(owner) {
					acquired = existing
					return nil
				}
				return domain.ErrAlreadyReserved
			}
			// Expired lock: take it over.
			if err := tx.DeleteLock(ctx, existing.ID); err != nil {
				return err
			}
		}

		status, err := tx.PetStatus(ctx, petID)
		if err != nil {
			return err
		}
		// A pet still marked reserved by the expired lock we just removed is
		// fair game; anything else must be available.
		if existing == nil && status != catalogdomain.StatusAvailable {
			return domain.ErrItemUnavailable
		}
		if existing != nil && status == catalogdomain.StatusSold {
			return domain.ErrItemUnavailable
		}

		lock, err := domain.NewLock(petID, owner, now.Add(s.window))
		if err != nil {
			return err
		}
		if err := tx.CreateLock(ctx, lock); err != nil {
			return err
		}
		if err := tx.SetPetStatus(ctx, petID, catalogdomain.StatusReserved); err != nil {
			return err
		}
		acquired = lock
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return acquired, nil
}

// ViewCart sweeps expired locks, then returns the caller's live locks. For
// authenticated users it also slides every owned lock forward by one full
// window, so a reservation is never lost merely by browsing.
func (s *Service) ViewCart(ctx context.Context, owner domain.Owner) ([]ports.Entry, error) {
	if err := owner.Validate(); err != nil {
		return nil, mapError(err)
	}
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	var locks []domain.Lock
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		if owner.IsUser() {
			if err := tx.ExtendUserLocks(ctx, *owner.UserID, now.Add(s.window)); err != nil {
				return err
			}
		}
		var err error
		locks, err = tx.LocksForOwner(ctx, owner)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return s.attachPets(ctx, locks)
}

// ReleaseLock removes a lock owned by the caller and returns the pet to the
// available pool.
func (s *Service) ReleaseLock(ctx context.Context, lockID uuid.UUID, owner domain.Owner) error {
	if err := owner.Validate(); err != nil {
		return mapError(err)
	}
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		lock, err := tx.LockByIDForOwner(ctx, lockID, owner)
		if err != nil {
			return err
		}
		if err := tx.SetPetStatus(ctx, lock.PetID, catalogdomain.StatusAvailable); err != nil {
			// The pet may have been removed; the lock still has to go.
			if !errors.Is(err, ports.ErrPetNotFound) {
				return err
			}
		}
		return tx.DeleteLock(ctx, lock.ID)
	})
	return mapError(err)
}

// MergeGuestCart reassigns every lock held by the session to the user and
// restarts each lock's window from the merge moment. Called right after
// login so reservations made as a guest survive authentication.
func (s *Service) MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) (int, error) {
	var moved int
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		var err error
		moved, err = tx.ReassignSessionLocks(ctx, sessionID, userID, s.now().Add(s.window))
		return err
	})
	if err != nil {
		return 0, mapError(err)
	}
	return moved, nil
}

// Sweep releases every expired lock and restores pet availability. It is
// idempotent: a second pass with no new expiries processes zero locks. A
// lock extended between the expiry read and the delete survives, because
// the delete re-checks the stored expiry.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	var processed int
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		expired, err := tx.ExpiredLocks(ctx, now)
		if err != nil {
			return err
		}
		for i := range expired {
			ok, err := tx.DeleteLockIfExpired(ctx, expired[i].ID, now)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := tx.SetPetStatus(ctx, expired[i].PetID, catalogdomain.StatusAvailable); err != nil {
				// The pet may have been hard-removed; the lock is gone either way.
				if errors.Is(err, ports.ErrPetNotFound) {
					processed++
					continue
				}
				return err
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, mapError(err)
	}
	return processed, nil
}

func (s *Service) attachPets(ctx context.Context, locks []domain.Lock) ([]ports.Entry, error) {
	entries := make([]ports.Entry, 0, len(locks))
	if len(locks) == 0 {
		return entries, nil
	}
	ids := make([]uuid.UUID, 0, len(locks))
	for i := range locks {
		ids = append(ids, locks[i].PetID)
	}
	pets, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalogdomain.Pet, len(pets))
	for _, pet := range pets {
		byID[pet.ID] = pet
	}
	for i := range locks {
		entries = append(entries, ports.Entry{Lock: locks[i], Pet: byID[locks[i].PetID]})
	}
	return entries, nil
}

var _ ports.Service = (*Service)(nil)
