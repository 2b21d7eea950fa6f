package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	"github.com/pawmart/pawmart-api/internal/domains/cart/ports"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists cart locks in PostgreSQL using GORM. Pet status reads
// take a row lock so acquire and checkout serialize on the pet row.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed cart repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type cartLockRecord struct {
	ID          uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	PetID       uuid.UUID  `gorm:"column:pet_id;type:uuid"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid"`
	SessionID   *string    `gorm:"column:session_id"`
	LockedUntil time.Time  `gorm:"column:locked_until"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (cartLockRecord) TableName() string { return "cart_locks" }

// InTx runs fn inside one database transaction. The repository handed to fn
// is bound to that transaction, so every operation commits or rolls back as
// a unit.
func (r *Repository) InTx(ctx context.Context, fn func(tx ports.Repository) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// PetStatus reads a pet's status under FOR UPDATE so concurrent cart and
// order flows serialize on the row.
func (r *Repository) PetStatus(ctx context.Context, petID uuid.UUID) (catalogdomain.Status, error) {
	if err := r.ensureDB(); err != nil {
		return "", err
	}
	var row struct{ Status string }
	err := r.db.WithContext(ctx).
		Table("pets").
		Select("status").
		Where("id = ? AND deleted_at IS NULL", petID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ports.ErrPetNotFound
	}
	if err != nil {
		return "", err
	}
	return catalogdomain.Status(row.Status), nil
}

func (r *Repository) SetPetStatus(ctx context.Context, petID uuid.UUID, status catalogdomain.Status) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Table("pets").
		Where("id = ? AND deleted_at IS NULL", petID).
		Updates(map[string]any{"status": string(status), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrPetNotFound
	}
	return nil
}

func (r *Repository) LockByPetID(ctx context.Context, petID uuid.UUID) (*domain.Lock, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record cartLockRecord
	err := r.db.WithContext(ctx).Where("pet_id = ?", petID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrLockNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&record), nil
}

func (r *Repository) LockByIDForOwner(ctx context.Context, id uuid.UUID, owner domain.Owner) (*domain.Lock, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record cartLockRecord
	err := ownerScope(r.db.WithContext(ctx).Where("id = ?", id), owner).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrLockNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&record), nil
}

func (r *Repository) LocksForOwner(ctx context.Context, owner domain.Owner) ([]domain.Lock, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []cartLockRecord
	if err := ownerScope(r.db.WithContext(ctx), owner).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	locks := make([]domain.Lock, 0, len(records))
	for i := range records {
		locks = append(locks, *toDomain(&records[i]))
	}
	return locks, nil
}

// CreateLock inserts the lock. A unique index on pet_id arbitrates
// concurrent acquires: the loser gets ErrDuplicateLock.
func (r *Repository) CreateLock(ctx context.Context, lock *domain.Lock) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := toRecord(lock)
	err := r.db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.ErrDuplicateLock
	}
	return err
}

func (r *Repository) DeleteLock(ctx context.Context, id uuid.UUID) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&cartLockRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrLockNotFound
	}
	return nil
}

// DeleteLockIfExpired deletes the lock only if its stored expiry is still in
// the past, so a concurrent extension wins over a stale sweep decision.
func (r *Repository) DeleteLockIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Where("id = ? AND locked_until < ?", id, now).
		Delete(&cartLockRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ExtendUserLocks(ctx context.Context, userID uuid.UUID, until time.Time) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&cartLockRecord{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"locked_until": until, "updated_at": gorm.Expr("NOW()")}).Error
}

func (r *Repository) ReassignSessionLocks(ctx context.Context, sessionID string, userID uuid.UUID, until time.Time) (int, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).
		Model(&cartLockRecord{}).
		Where("user_id IS NULL AND session_id = ?", sessionID).
		Updates(map[string]any{
			"user_id":      userID,
			"session_id":   nil,
			"locked_until": until,
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) ExpiredLocks(ctx context.Context, now time.Time) ([]domain.Lock, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []cartLockRecord
	if err := r.db.WithContext(ctx).
		Where("locked_until < ?", now).
		Find(&records).Error; err != nil {
		return nil, err
	}
	locks := make([]domain.Lock, 0, len(records))
	for i := range records {
		locks = append(locks, *toDomain(&records[i]))
	}
	return locks, nil
}

func (r *Repository) ensureDB() error {
	if r.db == nil {
		return errors.New("cart postgres repository is not initialized")
	}
	return nil
}

func ownerScope(db *gorm.DB, owner domain.Owner) *gorm.DB {
	if owner.IsUser() {
		return db.Where("user_id = ?", *owner.UserID)
	}
	return db.Where("user_id IS NULL AND session_id = ?", owner.SessionID)
}

func toRecord(lock *domain.Lock) *cartLockRecord {
	return &cartLockRecord{
		ID:          lock.ID,
		PetID:       lock.PetID,
		UserID:      lock.UserID,
		SessionID:   lock.SessionID,
		LockedUntil: lock.LockedUntil,
		CreatedAt:   lock.CreatedAt,
		UpdatedAt:   lock.UpdatedAt,
	}
}

func toDomain(record *cartLockRecord) *domain.Lock {
	return &domain.Lock{
		ID:          record.ID,
		PetID:       record.PetID,
		UserID:      record.UserID,
		SessionID:   record.SessionID,
		LockedUntil: record.LockedUntil,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
