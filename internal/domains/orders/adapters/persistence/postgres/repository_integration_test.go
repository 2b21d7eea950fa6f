//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	cartpostgres "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/persistence/postgres"
	cartapplication "github.com/pawmart/pawmart-api/internal/domains/cart/application"
	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogpostgres "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/application"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/ports"
	"github.com/pawmart/pawmart-api/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("pawmart_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

type checkoutHarness struct {
	db     *gorm.DB
	cart   *cartapplication.Service
	orders *application.Service
}

func newCheckoutHarness(db *gorm.DB) *checkoutHarness {
	catalogRepo := catalogpostgres.NewRepository(db)
	return &checkoutHarness{
		db:     db,
		cart:   cartapplication.NewService(cartpostgres.NewRepository(db), catalogRepo),
		orders: application.NewService(NewRepository(db)),
	}
}

func (h *checkoutHarness) seedPet(t *testing.T, name string, price float64) *catalogdomain.Pet {
	t.Helper()
	pet, err := catalogdomain.NewPet(name, "cat", catalogdomain.GenderFemale, 8, price)
	require.NoError(t, err)
	saved, err := catalogpostgres.NewRepository(h.db).Save(context.Background(), pet)
	require.NoError(t, err)
	return saved
}

func (h *checkoutHarness) fillCart(t *testing.T, owner cartdomain.Owner, names ...string) float64 {
	t.Helper()
	var subtotal float64
	for _, name := range names {
		pet := h.seedPet(t, name, 300)
		_, err := h.cart.AcquireLock(context.Background(), pet.ID, owner)
		require.NoError(t, err)
		subtotal += pet.Price
	}
	return subtotal
}

func TestPostgresCheckout_GuestPlaceOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	h := newCheckoutHarness(db)
	ctx := context.Background()
	owner := cartdomain.GuestOwner("sess-checkout")
	subtotal := h.fillCart(t, owner, "Clementine", "Mochi")

	name := "Dana"
	order, err := h.orders.PlaceOrder(ctx, ports.PlaceOrderInput{
		Owner:       owner,
		Email:       "dana@example.com",
		Name:        &name,
		AddressLine: "12 Harbour Road",
		DeliveryFee: 20,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-[A-Z0-9]{6}$`, order.OrderNumber)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.InDelta(t, subtotal, order.Subtotal, 0.001)
	assert.InDelta(t, subtotal+20, order.Total, 0.001)
	require.Len(t, order.Items, 2)
	require.NotNil(t, order.Delivery)
	assert.Equal(t, domain.DeliveryPending, order.Delivery.Status)
	require.NotNil(t, order.GuestContactID)

	// The cart is consumed and the pets are off the market.
	entries, err := h.cart.ViewCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, entries)
	for _, item := range order.Items {
		require.NotNil(t, item.PetID)
		pet, err := catalogpostgres.NewRepository(db).GetByID(ctx, *item.PetID)
		require.NoError(t, err)
		assert.Equal(t, catalogdomain.StatusSold, pet.Status)
	}

	// Tracking lookup is case-insensitive on the order number.
	tracked, err := h.orders.GetByNumber(ctx, "  "+strings.ToLower(order.OrderNumber)+" ")
	require.NoError(t, err)
	assert.Equal(t, order.ID, tracked.ID)
}

func TestPostgresCheckout_CancelReturnsPets(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	h := newCheckoutHarness(db)
	ctx := context.Background()
	owner := cartdomain.GuestOwner("sess-cancel")
	h.fillCart(t, owner, "Pepper")

	order, err := h.orders.PlaceOrder(ctx, ports.PlaceOrderInput{
		Owner:       owner,
		Email:       "pepper@example.com",
		AddressLine: "4 Mill Lane",
	})
	require.NoError(t, err)

	reason := "changed my mind"
	cancelled, err := h.orders.UpdateStatus(ctx, ports.UpdateStatusInput{
		OrderID:            order.ID,
		Status:             domain.StatusCancelled,
		CancellationReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	pet, err := catalogpostgres.NewRepository(db).GetByID(ctx, *order.Items[0].PetID)
	require.NoError(t, err)
	assert.Equal(t, catalogdomain.StatusAvailable, pet.Status)
}

func TestPostgresCheckout_DeliveryLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	h := newCheckoutHarness(db)
	ctx := context.Background()
	owner := cartdomain.GuestOwner("sess-delivery")
	h.fillCart(t, owner, "Waffle")

	order, err := h.orders.PlaceOrder(ctx, ports.PlaceOrderInput{
		Owner:       owner,
		Email:       "waffle@example.com",
		AddressLine: "9 Clover Street",
	})
	require.NoError(t, err)

	for _, status := range []domain.Status{domain.StatusConfirmed, domain.StatusOutForDelivery} {
		order, err = h.orders.UpdateStatus(ctx, ports.UpdateStatusInput{OrderID: order.ID, Status: status})
		require.NoError(t, err)
	}

	scheduled := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	dispatched := domain.DeliveryDispatched
	order, err = h.orders.UpdateDelivery(ctx, ports.UpdateDeliveryInput{
		OrderID:       order.ID,
		Status:        &dispatched,
		ScheduledDate: &scheduled,
	})
	require.NoError(t, err)
	require.NotNil(t, order.Delivery.DispatchedAt)

	delivered := domain.DeliveryDelivered
	order, err = h.orders.UpdateDelivery(ctx, ports.UpdateDeliveryInput{OrderID: order.ID, Status: &delivered})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, order.Status)
	require.NotNil(t, order.DeliveredAt)

	days, err := h.orders.DeliveryCalendar(ctx, scheduled.Add(-24*time.Hour), scheduled.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Deliveries, 1)
}
