package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
)

// Service orchestrates the catalog bounded context use cases.
type Service struct {
	repo ports.Repository
}

// NewService wires the catalog service with its dependencies.
func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// AddPet persists a new pet listing as available.
func (s *Service) AddPet(ctx context.Context, input ports.AddPetInput) (*domain.Pet, error) {
	pet, err := domain.NewPet(input.Name, input.Species, input.Gender, input.AgeMonths, input.Price)
	if err != nil {
		return nil, mapError(err)
	}
	pet.Breed = input.Breed
	pet.Color = input.Color
	pet.Description = input.Description
	pet.CreatedBy = input.CreatedBy
	pet.ReplacePhotos(input.PhotoURLs)
	if err := pet.SetSize(input.Size); err != nil {
		return nil, mapError(err)
	}
	if err := pet.SetLocation(input.Location); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, pet)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// UpdatePet applies a partial mutation to an existing listing. The status
// field is deliberately absent: availability is owned by the cart and orders
// contexts.
func (s *Service) UpdatePet(ctx context.Context, input ports.UpdatePetInput) (*domain.Pet, error) {
	pet, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := applyPartialMutation(pet, input); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, pet)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetByID loads a single listing.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return pet, nil
}

// Search runs the public browse query.
func (s *Service) Search(ctx context.Context, query ports.SearchQuery) ([]*domain.Pet, error) {
	if len(query.Statuses) == 0 {
		query.Statuses = []domain.Status{domain.StatusAvailable}
	}
	for _, status := range query.Statuses {
		if !domain.ValidStatus(status) {
			return nil, mapError(fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status))
		}
	}
	result, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// Delete soft-deletes a listing. Order item snapshots survive it. A pet
// sitting in someone's cart cannot be removed until the lock clears.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if pet.Status == domain.StatusReserved {
		return domain.ErrPetReserved
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	return nil
}

func applyPartialMutation(target *domain.Pet, input ports.UpdatePetInput) error {
	if input.Name != nil {
		if err := target.Rename(*input.Name); err != nil {
			return err
		}
	}
	if input.Breed != nil {
		target.Breed = *input.Breed
	}
	if input.Size != nil {
		if err := target.SetSize(*input.Size); err != nil {
			return err
		}
	}
	if input.AgeMonths != nil {
		if err := target.SetAge(*input.AgeMonths); err != nil {
			return err
		}
	}
	if input.Color != nil {
		target.Color = *input.Color
	}
	if input.Price != nil {
		if err := target.SetPrice(*input.Price); err != nil {
			return err
		}
	}
	if input.Description != nil {
		target.Description = *input.Description
	}
	if input.PhotoURLs != nil {
		target.ReplacePhotos(*input.PhotoURLs)
	}
	if input.ClearLocation {
		return target.SetLocation(nil)
	}
	if input.Location != nil {
		return target.SetLocation(input.Location)
	}
	return nil
}

var _ ports.Service = (*Service)(nil)
