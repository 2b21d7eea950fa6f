package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pawmart/pawmart-api/internal/domains/settings/domain"
	"github.com/pawmart/pawmart-api/internal/domains/settings/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps settings in memory for development and tests.
type Repository struct {
	mu       sync.RWMutex
	settings map[string]domain.Setting
	now      func() time.Time
}

// NewRepository constructs an empty settings store.
func NewRepository() *Repository {
	return &Repository{
		settings: map[string]domain.Setting{},
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) All(_ context.Context) ([]*domain.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Setting, 0, len(r.settings))
	for _, setting := range r.settings {
		found := setting
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (r *Repository) Get(_ context.Context, key string) (*domain.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	setting, ok := r.settings[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	found := setting
	return &found, nil
}

func (r *Repository) Upsert(_ context.Context, setting *domain.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *setting
	now := r.now()
	if existing, ok := r.settings[stored.Key]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.settings[stored.Key] = stored
	return nil
}
