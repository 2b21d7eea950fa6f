package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/settings/domain"
)

// ErrNotFound signals a setting key with no row.
var ErrNotFound = errors.New("setting not found")

// Repository is the storage surface for system settings.
type Repository interface {
	All(ctx context.Context) ([]*domain.Setting, error)
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Upsert(ctx context.Context, setting *domain.Setting) error
}

// SetInput carries one settings write.
type SetInput struct {
	Key       string
	Value     string
	Type      domain.Type
	UpdatedBy *uuid.UUID
}

// Service exposes the settings use cases.
type Service interface {
	All(ctx context.Context) ([]*domain.Setting, error)
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Set(ctx context.Context, input SetInput) (*domain.Setting, error)
}
