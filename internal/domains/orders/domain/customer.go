package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is an immutable delivery address. Every order gets a fresh row;
// addresses are never updated or deduplicated.
type Address struct {
	ID          uuid.UUID
	AddressLine string
	City        *string
	Area        *string
	CreatedAt   time.Time
}

// NewAddress validates and builds an address.
func NewAddress(line string, city, area *string) (*Address, error) {
	if strings.TrimSpace(line) == "" {
		return nil, ErrValidationFailed
	}
	return &Address{
		ID:          uuid.New(),
		AddressLine: strings.TrimSpace(line),
		City:        city,
		Area:        area,
	}, nil
}

// GuestContact identifies a guest buyer by e-mail. Name and phone are
// attached at first creation only and never overwritten by later orders.
type GuestContact struct {
	ID        uuid.UUID
	Email     string
	Name      *string
	Phone     *string
	CreatedAt time.Time
}

// NewGuestContact validates and builds a guest contact.
func NewGuestContact(email string, name, phone *string) (*GuestContact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrValidationFailed
	}
	return &GuestContact{
		ID:    uuid.New(),
		Email: email,
		Name:  name,
		Phone: phone,
	}, nil
}
