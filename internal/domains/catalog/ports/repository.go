package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("pet not found")

// GeoFilter restricts a search to listings within RadiusKm of a point.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// SearchQuery captures the public catalog browse parameters.
type SearchQuery struct {
	Text     string
	Species  string
	Statuses []domain.Status
	Near     *GeoFilter
	Limit    int
	Offset   int
}

// Repository persists catalog pets. Soft-deleted pets are invisible to every
// read except snapshots already taken by placed orders.
type Repository interface {
	Save(ctx context.Context, pet *domain.Pet) (*domain.Pet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Pet, error)
	Search(ctx context.Context, query SearchQuery) ([]*domain.Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
