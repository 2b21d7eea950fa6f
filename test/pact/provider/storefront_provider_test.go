//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	pacttest "github.com/pawmart/pawmart-api/test/pact"

	cartmemory "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/memory"
	cartapplication "github.com/pawmart/pawmart-api/internal/domains/cart/application"
	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogmemory "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/memory"
	catalogapplication "github.com/pawmart/pawmart-api/internal/domains/catalog/application"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	ordersmemory "github.com/pawmart/pawmart-api/internal/domains/orders/adapters/memory"
	ordersapplication "github.com/pawmart/pawmart-api/internal/domains/orders/application"
	settingsmemory "github.com/pawmart/pawmart-api/internal/domains/settings/adapters/memory"
	settingsapplication "github.com/pawmart/pawmart-api/internal/domains/settings/application"
	transporthttp "github.com/pawmart/pawmart-api/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestStorefrontProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StatePetAvailable: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedPet(t)
			}
			return nil, nil
		},
		pacttest.StatePetMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StatePetReserved: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedPet(t)
				app.reservePet(t, "pact-session-holder")
			}
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	catalog *catalogmemory.Repository
	carts   *cartmemory.Repository
	cart    *cartapplication.Service
	server  *httptest.Server
	petID   uuid.UUID
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	catalogRepo := catalogmemory.NewRepository()
	cartRepo := cartmemory.NewRepository(catalogRepo)
	cartService := cartapplication.NewService(cartRepo, catalogRepo)
	ordersService := ordersapplication.NewService(ordersmemory.NewRepository(catalogRepo, cartRepo))
	catalogService := catalogapplication.NewService(catalogRepo)
	settingsService := settingsapplication.NewService(settingsmemory.NewRepository())

	router := gin.New()
	router.Use(gin.Recovery())
	transporthttp.NewServer(catalogService, cartService, ordersService, settingsService).Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{
		catalog: catalogRepo,
		carts:   cartRepo,
		cart:    cartService,
		server:  server,
		petID:   uuid.MustParse(pacttest.AvailablePetID),
	}
}

// reset drops any reservation on the shared pet; seedPet re-saves it as
// available afterwards.
func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	ctx := context.Background()
	if lock, err := a.carts.LockByPetID(ctx, a.petID); err == nil {
		require.NoError(t, a.carts.DeleteLock(ctx, lock.ID))
	}
}

func (a *contractProviderApp) seedPet(t testing.TB) {
	t.Helper()
	pet, err := catalogdomain.NewPet(pacttest.ExamplePetName, "cat", catalogdomain.GenderFemale, 10, 450)
	require.NoError(t, err)
	pet.ID = a.petID
	_, err = a.catalog.Save(context.Background(), pet)
	require.NoError(t, err)
}

func (a *contractProviderApp) reservePet(t testing.TB, sessionID string) {
	t.Helper()
	_, err := a.cart.AcquireLock(context.Background(), a.petID, cartdomain.GuestOwner(sessionID))
	require.NoError(t, err)
}
