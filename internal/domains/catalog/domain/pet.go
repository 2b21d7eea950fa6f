package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the availability lifecycle of a pet in the catalog.
// Transitions are driven exclusively by the cart and orders contexts; the
// catalog itself never flips a pet between these states.
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

// Gender of the listed pet.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Size buckets used for catalog filtering.
type Size string

const (
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeExtraLarge Size = "extra_large"
)

const (
	maxAgeMonths = 300
	maxPrice     = 50000
)

var (
	ErrEmptyName     = errors.New("pet name is required")
	ErrEmptySpecies  = errors.New("pet species is required")
	ErrInvalidGender = errors.New("pet gender must be male or female")
	ErrInvalidSize   = errors.New("pet size is invalid")
	ErrInvalidAge    = errors.New("pet age must be between 0 and 300 months")
	ErrInvalidPrice  = errors.New("pet price must be between 0 and 50000")
	ErrInvalidGeo    = errors.New("pet coordinates are out of range")
	ErrInvalidStatus = errors.New("pet status is invalid")
	ErrPetReserved   = errors.New("pet is reserved and cannot be deleted")
)

// Location pins a listing to a point for proximity search.
type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Pet is the catalog aggregate. Status is read-mostly here: the catalog
// creates pets as available and thereafter only the cart/orders contexts
// move them through reserved/sold.
type Pet struct {
	ID          uuid.UUID
	Name        string
	Species     string
	Breed       string
	Gender      Gender
	Size        Size
	AgeMonths   int
	Color       string
	Price       float64
	Description string
	PhotoURLs   []string
	Status      Status
	Location    *Location
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPet validates the invariants and builds a new available Pet aggregate.
func NewPet(name, species string, gender Gender, ageMonths int, price float64) (*Pet, error) {
	p := &Pet{ID: uuid.New(), Status: StatusAvailable}
	if err := p.Rename(name); err != nil {
		return nil, err
	}
	if err := p.SetSpecies(species); err != nil {
		return nil, err
	}
	if err := p.SetGender(gender); err != nil {
		return nil, err
	}
	if err := p.SetAge(ageMonths); err != nil {
		return nil, err
	}
	if err := p.SetPrice(price); err != nil {
		return nil, err
	}
	return p, nil
}

// Rename mutates the pet name ensuring the invariant.
func (p *Pet) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	p.Name = name
	return nil
}

// SetSpecies requires a non-empty species.
func (p *Pet) SetSpecies(species string) error {
	if strings.TrimSpace(species) == "" {
		return ErrEmptySpecies
	}
	p.Species = species
	return nil
}

// SetGender accepts only the known gender values.
func (p *Pet) SetGender(gender Gender) error {
	switch gender {
	case GenderMale, GenderFemale:
		p.Gender = gender
		return nil
	default:
		return ErrInvalidGender
	}
}

// SetSize accepts a known size bucket or clears it when empty.
func (p *Pet) SetSize(size Size) error {
	switch size {
	case "", SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge:
		p.Size = size
		return nil
	default:
		return ErrInvalidSize
	}
}

// SetAge bounds the age the same way the schema does.
func (p *Pet) SetAge(months int) error {
	if months < 0 || months > maxAgeMonths {
		return ErrInvalidAge
	}
	p.AgeMonths = months
	return nil
}

// SetPrice bounds the price the same way the schema does.
func (p *Pet) SetPrice(price float64) error {
	if price < 0 || price > maxPrice {
		return ErrInvalidPrice
	}
	p.Price = price
	return nil
}

// SetLocation validates coordinates; nil clears the pin.
func (p *Pet) SetLocation(loc *Location) error {
	if loc == nil {
		p.Location = nil
		return nil
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return ErrInvalidGeo
	}
	copy := *loc
	p.Location = &copy
	return nil
}

// ReplacePhotos swaps the photo set.
func (p *Pet) ReplacePhotos(urls []string) {
	p.PhotoURLs = append([]string{}, urls...)
}

// IsAvailable reports whether the pet can enter a cart.
func (p *Pet) IsAvailable() bool {
	return p.Status == StatusAvailable
}

// ValidStatus reports whether the value belongs to the lifecycle set.
func ValidStatus(status Status) bool {
	switch status {
	case StatusAvailable, StatusReserved, StatusSold:
		return true
	default:
		return false
	}
}
