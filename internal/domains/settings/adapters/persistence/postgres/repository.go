package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pawmart/pawmart-api/internal/domains/settings/domain"
	"github.com/pawmart/pawmart-api/internal/domains/settings/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists settings in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type settingRecord struct {
	Key       string     `gorm:"primaryKey;column:key;size:128"`
	Value     string     `gorm:"column:value"`
	Type      string     `gorm:"column:type;size:16"`
	UpdatedBy *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (settingRecord) TableName() string { return "system_settings" }

func (r *Repository) All(ctx context.Context) ([]*domain.Setting, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []settingRecord
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	settings := make([]*domain.Setting, 0, len(records))
	for i := range records {
		settings = append(settings, toDomain(&records[i]))
	}
	return settings, nil
}

func (r *Repository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record settingRecord
	err := r.db.WithContext(ctx).Where("key = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&record), nil
}

func (r *Repository) Upsert(ctx context.Context, setting *domain.Setting) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := settingRecord{
		Key:       setting.Key,
		Value:     setting.Value,
		Type:      string(setting.Type),
		UpdatedBy: setting.UpdatedBy,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      record.Value,
				"type":       record.Type,
				"updated_by": record.UpdatedBy,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(&record).Error
}

func (r *Repository) ensureDB() error {
	if r.db == nil {
		return errors.New("settings postgres repository is not initialized")
	}
	return nil
}

func toDomain(record *settingRecord) *domain.Setting {
	return &domain.Setting{
		Key:       record.Key,
		Value:     record.Value,
		Type:      domain.Type(record.Type),
		UpdatedBy: record.UpdatedBy,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
