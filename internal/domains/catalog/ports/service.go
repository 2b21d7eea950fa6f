package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
)

// AddPetInput carries the admin create payload.
type AddPetInput struct {
	Name        string
	Species     string
	Breed       string
	Gender      domain.Gender
	Size        domain.Size
	AgeMonths   int
	Color       string
	Price       float64
	Description string
	PhotoURLs   []string
	Location    *domain.Location
	CreatedBy   *uuid.UUID
}

// UpdatePetInput carries a partial admin update; nil fields are untouched.
type UpdatePetInput struct {
	ID            uuid.UUID
	Name          *string
	Breed         *string
	Size          *domain.Size
	AgeMonths     *int
	Color         *string
	Price         *float64
	Description   *string
	PhotoURLs     *[]string
	Location      *domain.Location
	ClearLocation bool
}

// Service exposes the catalog use cases consumed by transport.
type Service interface {
	AddPet(ctx context.Context, input AddPetInput) (*domain.Pet, error)
	UpdatePet(ctx context.Context, input UpdatePetInput) (*domain.Pet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error)
	Search(ctx context.Context, query SearchQuery) ([]*domain.Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
