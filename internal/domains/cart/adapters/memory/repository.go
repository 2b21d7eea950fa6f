package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	"github.com/pawmart/pawmart-api/internal/domains/cart/ports"
	catalogmemory "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
)

var _ ports.Repository = (*Repository)(nil)

// Repository provides an in-memory cart lock store for development and
// tests. It shares pet state with the catalog memory repository so status
// transitions are visible across contexts, mirroring the shared database.
type Repository struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]domain.Lock
	catalog *catalogmemory.Repository
	now     func() time.Time
}

// NewRepository constructs an empty lock store bound to the given catalog.
func NewRepository(catalog *catalogmemory.Repository) *Repository {
	return &Repository{
		locks:   map[uuid.UUID]domain.Lock{},
		catalog: catalog,
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// InTx serializes the whole unit under one mutex and rolls back every write
// (including pet status changes) when fn fails.
func (r *Repository) InTx(_ context.Context, fn func(tx ports.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &txRepository{repo: r}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (r *Repository) PetStatus(ctx context.Context, petID uuid.UUID) (catalogdomain.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).PetStatus(ctx, petID)
}

func (r *Repository) SetPetStatus(ctx context.Context, petID uuid.UUID, status catalogdomain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).SetPetStatus(ctx, petID, status)
}

func (r *Repository) LockByPetID(ctx context.Context, petID uuid.UUID) (*domain.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).LockByPetID(ctx, petID)
}

func (r *Repository) LockByIDForOwner(ctx context.Context, id uuid.UUID, owner domain.Owner) (*domain.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).LockByIDForOwner(ctx, id, owner)
}

func (r *Repository) LocksForOwner(ctx context.Context, owner domain.Owner) ([]domain.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).LocksForOwner(ctx, owner)
}

func (r *Repository) CreateLock(ctx context.Context, lock *domain.Lock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).CreateLock(ctx, lock)
}

func (r *Repository) DeleteLock(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).DeleteLock(ctx, id)
}

func (r *Repository) DeleteLockIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).DeleteLockIfExpired(ctx, id, now)
}

func (r *Repository) ExtendUserLocks(ctx context.Context, userID uuid.UUID, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).ExtendUserLocks(ctx, userID, until)
}

func (r *Repository) ReassignSessionLocks(ctx context.Context, sessionID string, userID uuid.UUID, until time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).ReassignSessionLocks(ctx, sessionID, userID, until)
}

func (r *Repository) ExpiredLocks(ctx context.Context, now time.Time) ([]domain.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).ExpiredLocks(ctx, now)
}

// Lock returns a copy of the lock by id. Helper for sibling contexts' memory
// adapters standing in for the shared cart_locks table.
func (r *Repository) Lock(id uuid.UUID) (domain.Lock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	return lock, ok
}

// SetLockUntil moves a lock's expiry and reports the previous value.
func (r *Repository) SetLockUntil(id uuid.UUID, until time.Time) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		return time.Time{}, false
	}
	previous := lock.LockedUntil
	lock.LockedUntil = until
	lock.UpdatedAt = r.now()
	r.locks[id] = lock
	return previous, true
}

// Remove deletes a lock and returns it, for callers that may need to
// reinstate it on rollback.
func (r *Repository) Remove(id uuid.UUID) (domain.Lock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if ok {
		delete(r.locks, id)
	}
	return lock, ok
}

// Restore reinstates a previously removed lock verbatim.
func (r *Repository) Restore(lock domain.Lock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[lock.ID] = lock
}

// txRepository applies writes directly to the parent maps while recording
// inverse operations, replayed in reverse on rollback.
type txRepository struct {
	repo *Repository
	undo []func()
}

var _ ports.Repository = (*txRepository)(nil)

func (t *txRepository) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// InTx inside a transaction just runs fn against the same scope.
func (t *txRepository) InTx(_ context.Context, fn func(tx ports.Repository) error) error {
	return fn(t)
}

func (t *txRepository) PetStatus(_ context.Context, petID uuid.UUID) (catalogdomain.Status, error) {
	status, ok := t.repo.catalog.Status(petID)
	if !ok {
		return "", ports.ErrPetNotFound
	}
	return status, nil
}

func (t *txRepository) SetPetStatus(_ context.Context, petID uuid.UUID, status catalogdomain.Status) error {
	previous, ok := t.repo.catalog.Status(petID)
	if !ok {
		return ports.ErrPetNotFound
	}
	if !t.repo.catalog.SetStatus(petID, status) {
		return ports.ErrPetNotFound
	}
	t.undo = append(t.undo, func() { t.repo.catalog.SetStatus(petID, previous) })
	return nil
}

func (t *txRepository) LockByPetID(_ context.Context, petID uuid.UUID) (*domain.Lock, error) {
	for _, lock := range t.repo.locks {
		if lock.PetID == petID {
			found := lock
			return &found, nil
		}
	}
	return nil, ports.ErrLockNotFound
}

func (t *txRepository) LockByIDForOwner(_ context.Context, id uuid.UUID, owner domain.Owner) (*domain.Lock, error) {
	lock, ok := t.repo.locks[id]
	if !ok || !lock.HeldBy(owner) {
		return nil, ports.ErrLockNotFound
	}
	found := lock
	return &found, nil
}

func (t *txRepository) LocksForOwner(_ context.Context, owner domain.Owner) ([]domain.Lock, error) {
	result := make([]domain.Lock, 0)
	for _, lock := range t.repo.locks {
		if lock.HeldBy(owner) {
			result = append(result, lock)
		}
	}
	return result, nil
}

func (t *txRepository) CreateLock(_ context.Context, lock *domain.Lock) error {
	for _, existing := range t.repo.locks {
		if existing.PetID == lock.PetID {
			return ports.ErrDuplicateLock
		}
	}
	stored := *lock
	now := t.repo.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	t.repo.locks[stored.ID] = stored
	lock.CreatedAt = now
	lock.UpdatedAt = now
	id := stored.ID
	t.undo = append(t.undo, func() { delete(t.repo.locks, id) })
	return nil
}

func (t *txRepository) DeleteLock(_ context.Context, id uuid.UUID) error {
	lock, ok := t.repo.locks[id]
	if !ok {
		return ports.ErrLockNotFound
	}
	delete(t.repo.locks, id)
	t.undo = append(t.undo, func() { t.repo.locks[id] = lock })
	return nil
}

func (t *txRepository) DeleteLockIfExpired(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	lock, ok := t.repo.locks[id]
	if !ok || !lock.Expired(now) {
		return false, nil
	}
	delete(t.repo.locks, id)
	t.undo = append(t.undo, func() { t.repo.locks[id] = lock })
	return true, nil
}

func (t *txRepository) ExtendUserLocks(_ context.Context, userID uuid.UUID, until time.Time) error {
	for id, lock := range t.repo.locks {
		if lock.UserID != nil && *lock.UserID == userID {
			previous := lock
			lock.LockedUntil = until
			lock.UpdatedAt = t.repo.now()
			t.repo.locks[id] = lock
			id := id
			t.undo = append(t.undo, func() { t.repo.locks[id] = previous })
		}
	}
	return nil
}

func (t *txRepository) ReassignSessionLocks(_ context.Context, sessionID string, userID uuid.UUID, until time.Time) (int, error) {
	moved := 0
	for id, lock := range t.repo.locks {
		if lock.UserID == nil && lock.SessionID != nil && *lock.SessionID == sessionID {
			previous := lock
			user := userID
			lock.UserID = &user
			lock.SessionID = nil
			lock.LockedUntil = until
			lock.UpdatedAt = t.repo.now()
			t.repo.locks[id] = lock
			id := id
			t.undo = append(t.undo, func() { t.repo.locks[id] = previous })
			moved++
		}
	}
	return moved, nil
}

func (t *txRepository) ExpiredLocks(_ context.Context, now time.Time) ([]domain.Lock, error) {
	result := make([]domain.Lock, 0)
	for _, lock := range t.repo.locks {
		if lock.Expired(now) {
			result = append(result, lock)
		}
	}
	return result, nil
}
