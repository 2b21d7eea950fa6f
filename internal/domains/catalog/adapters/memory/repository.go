package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository provides an in-memory catalog for development and tests.
type Repository struct {
	mu      sync.RWMutex
	pets    map[uuid.UUID]*domain.Pet
	deleted map[uuid.UUID]bool
	now     func() time.Time
}

// NewRepository constructs an empty in-memory catalog.
func NewRepository() *Repository {
	return &Repository{
		pets:    map[uuid.UUID]*domain.Pet{},
		deleted: map[uuid.UUID]bool{},
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Save inserts or replaces a pet.
func (r *Repository) Save(_ context.Context, pet *domain.Pet) (*domain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	copy := clonePet(pet)
	if existing, ok := r.pets[pet.ID]; ok {
		copy.CreatedAt = existing.CreatedAt
	} else {
		copy.CreatedAt = now
	}
	copy.UpdatedAt = now
	r.pets[pet.ID] = copy
	return clonePet(copy), nil
}

// GetByID fetches a pet, hiding soft-deleted rows.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*domain.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pet, ok := r.pets[id]
	if !ok || r.deleted[id] {
		return nil, ports.ErrNotFound
	}
	return clonePet(pet), nil
}

// GetByIDs fetches several pets at once; missing or deleted ids are skipped.
func (r *Repository) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Pet, 0, len(ids))
	for _, id := range ids {
		if pet, ok := r.pets[id]; ok && !r.deleted[id] {
			result = append(result, clonePet(pet))
		}
	}
	return result, nil
}

// Search applies the browse filters: substring text match stands in for the
// SQL adapter's trigram similarity, and the geo filter uses haversine.
func (r *Repository) Search(_ context.Context, query ports.SearchQuery) ([]*domain.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	text := strings.ToLower(strings.TrimSpace(query.Text))
	matches := make([]*domain.Pet, 0)
	for id, pet := range r.pets {
		if r.deleted[id] {
			continue
		}
		if query.Species != "" && !strings.EqualFold(pet.Species, query.Species) {
			continue
		}
		if len(query.Statuses) > 0 && !statusIn(pet.Status, query.Statuses) {
			continue
		}
		if text != "" && !textMatches(pet, text) {
			continue
		}
		if query.Near != nil {
			if pet.Location == nil {
				continue
			}
			dist := haversineKm(query.Near.Latitude, query.Near.Longitude, pet.Location.Latitude, pet.Location.Longitude)
			if dist > query.Near.RadiusKm {
				continue
			}
		}
		matches = append(matches, clonePet(pet))
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if query.Offset > 0 {
		if query.Offset >= len(matches) {
			return []*domain.Pet{}, nil
		}
		matches = matches[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(matches) {
		matches = matches[:query.Limit]
	}
	return matches, nil
}

// Delete soft-deletes a pet.
func (r *Repository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pets[id]; !ok || r.deleted[id] {
		return ports.ErrNotFound
	}
	r.deleted[id] = true
	return nil
}

// SetStatus flips the availability status. Consumed by the cart and orders
// memory adapters, which own status transitions.
func (r *Repository) SetStatus(id uuid.UUID, status domain.Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	pet, ok := r.pets[id]
	if !ok || r.deleted[id] {
		return false
	}
	pet.Status = status
	pet.UpdatedAt = r.now()
	return true
}

// Status reads the availability status without a full fetch.
func (r *Repository) Status(id uuid.UUID) (domain.Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pet, ok := r.pets[id]
	if !ok || r.deleted[id] {
		return "", false
	}
	return pet.Status, true
}

func statusIn(status domain.Status, set []domain.Status) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func textMatches(pet *domain.Pet, needle string) bool {
	for _, field := range []string{pet.Name, pet.Species, pet.Breed, pet.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func clonePet(pet *domain.Pet) *domain.Pet {
	copy := *pet
	copy.PhotoURLs = append([]string{}, pet.PhotoURLs...)
	if pet.Location != nil {
		loc := *pet.Location
		copy.Location = &loc
	}
	if pet.CreatedBy != nil {
		createdBy := *pet.CreatedBy
		copy.CreatedBy = &createdBy
	}
	return &copy
}
