package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists catalog pets in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed catalog repository. Caller manages
// DB lifecycle and schema migration.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// petRecord maps the pet aggregate to its relational table.
type petRecord struct {
	ID           uuid.UUID      `gorm:"primaryKey;column:id;type:uuid"`
	Name         string         `gorm:"column:name"`
	Species      string         `gorm:"column:species;size:100"`
	Breed        *string        `gorm:"column:breed;size:100"`
	Gender       string         `gorm:"column:gender;size:16"`
	Size         *string        `gorm:"column:size;size:16"`
	AgeMonths    int            `gorm:"column:age_months"`
	Color        *string        `gorm:"column:color;size:100"`
	Price        float64        `gorm:"column:price"`
	Description  *string        `gorm:"column:description"`
	PhotoURLs    pq.StringArray `gorm:"column:photo_urls;type:text[]"`
	Status       string         `gorm:"column:status;size:16;index"`
	Latitude     *float64       `gorm:"column:latitude"`
	Longitude    *float64       `gorm:"column:longitude"`
	LocationName *string        `gorm:"column:location_name"`
	CreatedBy    *uuid.UUID     `gorm:"column:created_by;type:uuid"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (petRecord) TableName() string { return "pets" }

// Save inserts or updates a pet listing.
func (r *Repository) Save(ctx context.Context, pet *domain.Pet) (*domain.Pet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if pet == nil {
		return nil, errors.New("pet is nil")
	}
	record := toRecord(pet)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":          record.Name,
				"species":       record.Species,
				"breed":         record.Breed,
				"size":          record.Size,
				"age_months":    record.AgeMonths,
				"color":         record.Color,
				"price":         record.Price,
				"description":   record.Description,
				"photo_urls":    record.PhotoURLs,
				"latitude":      record.Latitude,
				"longitude":     record.Longitude,
				"location_name": record.LocationName,
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a pet by identifier; soft-deleted rows are invisible.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record petRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByIDs fetches a batch of pets; missing or deleted ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Pet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []petRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	pets := make([]*domain.Pet, 0, len(records))
	for i := range records {
		pets = append(pets, records[i].toDomain())
	}
	return pets, nil
}

// Search runs the public browse query. Text matching relies on the pg_trgm
// extension; results are ordered by trigram similarity when text is given,
// newest-first otherwise.
func (r *Repository) Search(ctx context.Context, query ports.SearchQuery) ([]*domain.Pet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	tx := r.db.WithContext(ctx).Model(&petRecord{})

	if len(query.Statuses) > 0 {
		statuses := make([]string, 0, len(query.Statuses))
		for _, s := range query.Statuses {
			statuses = append(statuses, string(s))
		}
		tx = tx.Where("status IN ?", statuses)
	}
	if query.Species != "" {
		tx = tx.Where("LOWER(species) = LOWER(?)", query.Species)
	}
	if text := query.Text; text != "" {
		haystack := "name || ' ' || species || ' ' || COALESCE(breed, '') || ' ' || COALESCE(description, '')"
		tx = tx.Where("similarity("+haystack+", ?) > 0.1", text).
			Order(clause.Expr{SQL: "similarity(" + haystack + ", ?) DESC", Vars: []any{text}})
	} else {
		tx = tx.Order("created_at DESC")
	}
	if near := query.Near; near != nil {
		// Haversine over the plain lat/lon columns.
		tx = tx.Where(
			"latitude IS NOT NULL AND longitude IS NOT NULL AND "+
				"(2 * 6371 * asin(sqrt(pow(sin(radians(latitude - ?) / 2), 2) + "+
				"cos(radians(?)) * cos(radians(latitude)) * pow(sin(radians(longitude - ?) / 2), 2)))) <= ?",
			near.Latitude, near.Latitude, near.Longitude, near.RadiusKm,
		)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if query.Offset > 0 {
		tx = tx.Offset(query.Offset)
	}

	var records []petRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	pets := make([]*domain.Pet, 0, len(records))
	for i := range records {
		pets = append(pets, records[i].toDomain())
	}
	return pets, nil
}

// Delete soft-deletes a pet by identifier.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&petRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

func toRecord(pet *domain.Pet) petRecord {
	rec := petRecord{
		ID:        pet.ID,
		Name:      pet.Name,
		Species:   pet.Species,
		Breed:     optional(pet.Breed),
		Gender:    string(pet.Gender),
		AgeMonths: pet.AgeMonths,
		Color:     optional(pet.Color),
		Price:     pet.Price,
		Description: optional(pet.Description),
		PhotoURLs: append(pq.StringArray{}, pet.PhotoURLs...),
		Status:    string(pet.Status),
		CreatedBy: pet.CreatedBy,
	}
	if pet.Size != "" {
		size := string(pet.Size)
		rec.Size = &size
	}
	if pet.Location != nil {
		lat, lon := pet.Location.Latitude, pet.Location.Longitude
		rec.Latitude = &lat
		rec.Longitude = &lon
		rec.LocationName = optional(pet.Location.Name)
	}
	return rec
}

func (r petRecord) toDomain() *domain.Pet {
	pet := &domain.Pet{
		ID:          r.ID,
		Name:        r.Name,
		Species:     r.Species,
		Breed:       deref(r.Breed),
		Gender:      domain.Gender(r.Gender),
		AgeMonths:   r.AgeMonths,
		Color:       deref(r.Color),
		Price:       r.Price,
		Description: deref(r.Description),
		PhotoURLs:   append([]string{}, r.PhotoURLs...),
		Status:      domain.Status(r.Status),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Size != nil {
		pet.Size = domain.Size(*r.Size)
	}
	if r.Latitude != nil && r.Longitude != nil {
		pet.Location = &domain.Location{
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
			Name:      deref(r.LocationName),
		}
	}
	return pet
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
