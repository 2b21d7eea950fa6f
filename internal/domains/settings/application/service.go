package application

import (
	"context"
	"errors"
	"strings"

	"github.com/pawmart/pawmart-api/internal/domains/settings/domain"
	"github.com/pawmart/pawmart-api/internal/domains/settings/ports"
)

// Service manages the typed system settings.
type Service struct {
	repo ports.Repository
}

// NewService wires the settings service.
func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// All returns every setting.
func (s *Service) All(ctx context.Context) ([]*domain.Setting, error) {
	return s.repo.All(ctx)
}

// Get returns one setting by key.
func (s *Service) Get(ctx context.Context, key string) (*domain.Setting, error) {
	return s.repo.Get(ctx, strings.TrimSpace(key))
}

// Set writes a setting. The value is validated against the declared type;
// when the type is omitted, an existing setting keeps its type and a new
// one defaults to string. A setting's type never changes implicitly.
func (s *Service) Set(ctx context.Context, input ports.SetInput) (*domain.Setting, error) {
	settingType := input.Type
	existing, err := s.repo.Get(ctx, strings.TrimSpace(input.Key))
	switch {
	case err == nil:
		if settingType == "" {
			settingType = existing.Type
		} else if settingType != existing.Type {
			return nil, domain.ErrIncompatibleValue
		}
	case errors.Is(err, ports.ErrNotFound):
		if settingType == "" {
			settingType = domain.TypeString
		}
	default:
		return nil, err
	}

	setting, err := domain.NewSetting(input.Key, input.Value, settingType, input.UpdatedBy)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, setting.Key)
}

var _ ports.Service = (*Service)(nil)
