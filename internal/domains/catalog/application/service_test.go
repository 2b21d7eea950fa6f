package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/memory"
	"github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
)

func newCatalogFixture() (*memory.Repository, *Service) {
	repo := memory.NewRepository()
	return repo, NewService(repo)
}

func validAddInput() ports.AddPetInput {
	return ports.AddPetInput{
		Name:      "Luna",
		Species:   "dog",
		Breed:     "beagle",
		Gender:    domain.GenderFemale,
		AgeMonths: 8,
		Price:     350,
	}
}

func TestAddPet_CreatesAvailableListing(t *testing.T) {
	_, svc := newCatalogFixture()

	input := validAddInput()
	input.PhotoURLs = []string{"https://cdn.example.com/luna.jpg"}
	input.Location = &domain.Location{Latitude: 23.81, Longitude: 90.41, Name: "Dhaka"}

	pet, err := svc.AddPet(context.Background(), input)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, pet.ID)
	require.Equal(t, domain.StatusAvailable, pet.Status)
	require.Equal(t, []string{"https://cdn.example.com/luna.jpg"}, pet.PhotoURLs)
	require.NotNil(t, pet.Location)
	require.Equal(t, "Dhaka", pet.Location.Name)

	loaded, err := svc.GetByID(context.Background(), pet.ID)
	require.NoError(t, err)
	require.Equal(t, pet.Name, loaded.Name)
}

func TestAddPet_ValidationBounds(t *testing.T) {
	_, svc := newCatalogFixture()

	cases := map[string]func(*ports.AddPetInput){
		"blank name":        func(in *ports.AddPetInput) { in.Name = "   " },
		"blank species":     func(in *ports.AddPetInput) { in.Species = "" },
		"unknown gender":    func(in *ports.AddPetInput) { in.Gender = "other" },
		"unknown size":      func(in *ports.AddPetInput) { in.Size = "gigantic" },
		"negative age":      func(in *ports.AddPetInput) { in.AgeMonths = -1 },
		"age over 300":      func(in *ports.AddPetInput) { in.AgeMonths = 301 },
		"negative price":    func(in *ports.AddPetInput) { in.Price = -0.01 },
		"price over 50000":  func(in *ports.AddPetInput) { in.Price = 50001 },
		"latitude overflow": func(in *ports.AddPetInput) { in.Location = &domain.Location{Latitude: 90.5} },
		"longitude overflow": func(in *ports.AddPetInput) {
			in.Location = &domain.Location{Longitude: -180.5}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validAddInput()
			mutate(&input)
			_, err := svc.AddPet(context.Background(), input)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdatePet_PartialMutation(t *testing.T) {
	_, svc := newCatalogFixture()
	pet, err := svc.AddPet(context.Background(), validAddInput())
	require.NoError(t, err)

	price := 475.0
	color := "tricolor"
	updated, err := svc.UpdatePet(context.Background(), ports.UpdatePetInput{
		ID:    pet.ID,
		Price: &price,
		Color: &color,
	})
	require.NoError(t, err)
	require.Equal(t, 475.0, updated.Price)
	require.Equal(t, "tricolor", updated.Color)
	require.Equal(t, pet.Name, updated.Name, "untouched fields survive")

	badAge := 999
	_, err = svc.UpdatePet(context.Background(), ports.UpdatePetInput{ID: pet.ID, AgeMonths: &badAge})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdatePet_ClearLocation(t *testing.T) {
	_, svc := newCatalogFixture()
	input := validAddInput()
	input.Location = &domain.Location{Latitude: 1, Longitude: 1, Name: "somewhere"}
	pet, err := svc.AddPet(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, pet.Location)

	updated, err := svc.UpdatePet(context.Background(), ports.UpdatePetInput{ID: pet.ID, ClearLocation: true})
	require.NoError(t, err)
	require.Nil(t, updated.Location)
}

func TestSearch_DefaultsToAvailable(t *testing.T) {
	repo, svc := newCatalogFixture()
	available, err := svc.AddPet(context.Background(), validAddInput())
	require.NoError(t, err)
	soldInput := validAddInput()
	soldInput.Name = "Max"
	sold, err := svc.AddPet(context.Background(), soldInput)
	require.NoError(t, err)
	require.True(t, repo.SetStatus(sold.ID, domain.StatusSold))

	pets, err := svc.Search(context.Background(), ports.SearchQuery{})
	require.NoError(t, err)
	require.Len(t, pets, 1)
	require.Equal(t, available.ID, pets[0].ID)

	pets, err = svc.Search(context.Background(), ports.SearchQuery{
		Statuses: []domain.Status{domain.StatusSold},
	})
	require.NoError(t, err)
	require.Len(t, pets, 1)
	require.Equal(t, sold.ID, pets[0].ID)
}

func TestSearch_RejectsUnknownStatus(t *testing.T) {
	_, svc := newCatalogFixture()
	_, err := svc.Search(context.Background(), ports.SearchQuery{
		Statuses: []domain.Status{"vanished"},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestSearch_TextAndGeoFilters(t *testing.T) {
	_, svc := newCatalogFixture()

	near := validAddInput()
	near.Name = "Biscuit"
	near.Location = &domain.Location{Latitude: 23.8103, Longitude: 90.4125, Name: "Dhaka"}
	nearPet, err := svc.AddPet(context.Background(), near)
	require.NoError(t, err)

	far := validAddInput()
	far.Name = "Biscotti"
	far.Location = &domain.Location{Latitude: 22.3569, Longitude: 91.7832, Name: "Chattogram"}
	_, err = svc.AddPet(context.Background(), far)
	require.NoError(t, err)

	pets, err := svc.Search(context.Background(), ports.SearchQuery{
		Text: "bisc",
		Near: &ports.GeoFilter{Latitude: 23.8103, Longitude: 90.4125, RadiusKm: 50},
	})
	require.NoError(t, err)
	require.Len(t, pets, 1)
	require.Equal(t, nearPet.ID, pets[0].ID)
}

func TestDelete_RefusesReservedPet(t *testing.T) {
	repo, svc := newCatalogFixture()
	pet, err := svc.AddPet(context.Background(), validAddInput())
	require.NoError(t, err)
	require.True(t, repo.SetStatus(pet.ID, domain.StatusReserved))

	err = svc.Delete(context.Background(), pet.ID)
	require.ErrorIs(t, err, domain.ErrPetReserved)

	// Still listed once the reservation clears.
	require.True(t, repo.SetStatus(pet.ID, domain.StatusAvailable))
	require.NoError(t, svc.Delete(context.Background(), pet.ID))
}

func TestDelete_HidesListing(t *testing.T) {
	_, svc := newCatalogFixture()
	pet, err := svc.AddPet(context.Background(), validAddInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), pet.ID))

	_, err = svc.GetByID(context.Background(), pet.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)

	pets, err := svc.Search(context.Background(), ports.SearchQuery{})
	require.NoError(t, err)
	require.Empty(t, pets)
}
