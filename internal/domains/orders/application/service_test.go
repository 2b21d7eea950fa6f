package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	cartmemory "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/memory"
	cartapplication "github.com/pawmart/pawmart-api/internal/domains/cart/application"
	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogmemory "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	ordersmemory "github.com/pawmart/pawmart-api/internal/domains/orders/adapters/memory"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/ports"
)

type orderFixture struct {
	catalog *catalogmemory.Repository
	carts   *cartmemory.Repository
	repo    *ordersmemory.Repository
	cartSvc *cartapplication.Service
	svc     *Service
	now     time.Time
	mu      sync.Mutex
}

func newOrderFixture(t *testing.T, opts ...Option) *orderFixture {
	t.Helper()
	f := &orderFixture{
		catalog: catalogmemory.NewRepository(),
		now:     time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	f.carts = cartmemory.NewRepository(f.catalog)
	f.repo = ordersmemory.NewRepository(f.catalog, f.carts)
	clock := func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	}
	f.catalog.WithClock(clock)
	f.carts.WithClock(clock)
	f.repo.WithClock(clock)
	f.cartSvc = cartapplication.NewService(f.carts, f.catalog, cartapplication.WithClock(clock))
	f.svc = NewService(f.repo, append([]Option{WithClock(clock)}, opts...)...)
	return f
}

func (f *orderFixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *orderFixture) seedPet(t *testing.T, name string, price float64) uuid.UUID {
	t.Helper()
	pet, err := catalogdomain.NewPet(name, "dog", catalogdomain.GenderMale, 8, price)
	require.NoError(t, err)
	saved, err := f.catalog.Save(context.Background(), pet)
	require.NoError(t, err)
	return saved.ID
}

func (f *orderFixture) fillCart(t *testing.T, owner cartdomain.Owner, petIDs ...uuid.UUID) {
	t.Helper()
	for _, id := range petIDs {
		_, err := f.cartSvc.AcquireLock(context.Background(), id, owner)
		require.NoError(t, err)
	}
}

func (f *orderFixture) petStatus(t *testing.T, id uuid.UUID) catalogdomain.Status {
	t.Helper()
	status, ok := f.catalog.Status(id)
	require.True(t, ok)
	return status
}

func guestInput(owner cartdomain.Owner) ports.PlaceOrderInput {
	name := "Dana Szabo"
	return ports.PlaceOrderInput{
		Owner:       owner,
		Email:       "dana@example.com",
		Name:        &name,
		AddressLine: "12 Kossuth utca",
		DeliveryFee: 15,
	}
}

func TestPlaceOrder_GuestHappyPath(t *testing.T) {
	f := newOrderFixture(t)
	first := f.seedPet(t, "Luna", 200)
	second := f.seedPet(t, "Rex", 350)
	owner := cartdomain.GuestOwner("session-1")
	f.fillCart(t, owner, first, second)

	order, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)

	require.Regexp(t, `^ORD-[A-Z0-9]{6}$`, order.OrderNumber)
	require.Equal(t, domain.StatusPending, order.Status)
	require.InDelta(t, 550.0, order.Subtotal, 0.001)
	require.InDelta(t, 565.0, order.Total, 0.001)
	require.Equal(t, domain.PaymentCashOnDelivery, order.PaymentMethod)
	require.Nil(t, order.UserID)
	require.NotNil(t, order.GuestContactID)
	require.Len(t, order.Items, 2)
	require.Len(t, order.History, 1)
	require.Equal(t, domain.StatusPending, order.History[0].Status)
	require.NotNil(t, order.Delivery)
	require.Equal(t, domain.DeliveryPending, order.Delivery.Status)

	// Pets sold, locks consumed.
	require.Equal(t, catalogdomain.StatusSold, f.petStatus(t, first))
	require.Equal(t, catalogdomain.StatusSold, f.petStatus(t, second))
	entries, err := f.cartSvc.ViewCart(context.Background(), owner)
	require.NoError(t, err)
	require.Empty(t, entries)

	// Snapshots carry the purchase-time data.
	names := []string{order.Items[0].PetName, order.Items[1].PetName}
	require.ElementsMatch(t, []string{"Luna", "Rex"}, names)
}

func TestPlaceOrder_SnapshotBreed(t *testing.T) {
	f := newOrderFixture(t)
	withBreed, err := catalogdomain.NewPet("Luna", "dog", catalogdomain.GenderFemale, 8, 200)
	require.NoError(t, err)
	withBreed.Breed = "beagle"
	savedWithBreed, err := f.catalog.Save(context.Background(), withBreed)
	require.NoError(t, err)
	withoutBreed := f.seedPet(t, "Rex", 350)

	owner := cartdomain.GuestOwner("session-1")
	f.fillCart(t, owner, savedWithBreed.ID, withoutBreed)

	order, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	breedByName := map[string]*string{}
	for _, item := range order.Items {
		breedByName[item.PetName] = item.PetBreed
	}
	require.NotNil(t, breedByName["Luna"])
	require.Equal(t, "beagle", *breedByName["Luna"])
	require.Nil(t, breedByName["Rex"], "blank breed is omitted from the snapshot")
}

func TestPlaceOrder_UserHappyPath(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	userID := uuid.New()
	owner := cartdomain.UserOwner(userID)
	f.fillCart(t, owner, petID)

	order, err := f.svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		Owner:       owner,
		AddressLine: "12 Kossuth utca",
		DeliveryFee: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	require.Equal(t, userID, *order.UserID)
	require.Nil(t, order.GuestContactID)

	listed, err := f.svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, order.OrderNumber, listed[0].OrderNumber)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), guestInput(cartdomain.GuestOwner("session-1")))
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestPlaceOrder_CartExpired(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	owner := cartdomain.GuestOwner("session-1")
	f.fillCart(t, owner, petID)

	f.advance(cartdomain.LockWindow + time.Second)

	_, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.ErrorIs(t, err, domain.ErrCartExpired)
	// Nothing was consumed; the sweeper still owns reclamation.
	require.Equal(t, catalogdomain.StatusReserved, f.petStatus(t, petID))
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	owner := cartdomain.GuestOwner("session-1")
	f.fillCart(t, owner, petID)

	negativeFee := guestInput(owner)
	negativeFee.DeliveryFee = -1
	_, err := f.svc.PlaceOrder(context.Background(), negativeFee)
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	noAddress := guestInput(owner)
	noAddress.AddressLine = "   "
	_, err = f.svc.PlaceOrder(context.Background(), noAddress)
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	noEmail := guestInput(owner)
	noEmail.Email = ""
	_, err = f.svc.PlaceOrder(context.Background(), noEmail)
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	// Failed attempts consumed nothing.
	require.Equal(t, catalogdomain.StatusReserved, f.petStatus(t, petID))
}

func TestPlaceOrder_GuestContactReused(t *testing.T) {
	f := newOrderFixture(t)
	first := f.seedPet(t, "Luna", 200)
	second := f.seedPet(t, "Rex", 350)
	owner := cartdomain.GuestOwner("session-1")

	f.fillCart(t, owner, first)
	orderA, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)

	f.fillCart(t, owner, second)
	input := guestInput(owner)
	other := "Someone Else"
	input.Name = &other
	orderB, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)

	require.Equal(t, *orderA.GuestContactID, *orderB.GuestContactID)
	contact, err := f.repo.GuestContactByID(context.Background(), *orderB.GuestContactID)
	require.NoError(t, err)
	// Name from first creation wins; later orders never overwrite it.
	require.NotNil(t, contact.Name)
	require.Equal(t, "Dana Szabo", *contact.Name)
}

func TestPlaceOrder_OrderNumberCollisionRetries(t *testing.T) {
	calls := 0
	sequence := func(n int) int {
		calls++
		// First two orders collide on the same 6 characters, then diverge.
		if calls <= 18 {
			return 0
		}
		return 1
	}
	f := newOrderFixture(t, WithRandom(sequence))
	first := f.seedPet(t, "Luna", 200)
	second := f.seedPet(t, "Rex", 350)
	owner := cartdomain.GuestOwner("session-1")

	f.fillCart(t, owner, first)
	orderA, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)
	require.Equal(t, "ORD-AAAAAA", orderA.OrderNumber)

	f.fillCart(t, owner, second)
	orderB, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)
	require.NotEqual(t, orderA.OrderNumber, orderB.OrderNumber)
	require.True(t, strings.HasPrefix(orderB.OrderNumber, "ORD-"))
}

type failingTx struct {
	ports.Repository
}

func (f *failingTx) CreateOrderItems(context.Context, []domain.OrderItem) error {
	return errors.New("injected storage failure")
}

type failingRepo struct {
	ports.Repository
}

func (f *failingRepo) InTx(ctx context.Context, fn func(tx ports.Repository) error) error {
	return f.Repository.InTx(ctx, func(tx ports.Repository) error {
		return fn(&failingTx{Repository: tx})
	})
}

func TestPlaceOrder_RollbackLeavesNoTrace(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	owner := cartdomain.GuestOwner("session-1")
	f.fillCart(t, owner, petID)

	// Fail after the pet was marked sold and the lock deleted, before commit.
	svc := NewService(&failingRepo{Repository: f.repo})
	_, err := svc.PlaceOrder(context.Background(), guestInput(owner))
	require.Error(t, err)

	// Pet status and lock restored, no order or contact rows left behind.
	require.Equal(t, catalogdomain.StatusReserved, f.petStatus(t, petID))
	entries, viewErr := f.cartSvc.ViewCart(context.Background(), owner)
	require.NoError(t, viewErr)
	require.Len(t, entries, 1)
	_, lookupErr := f.repo.GuestContactByEmail(context.Background(), "dana@example.com")
	require.ErrorIs(t, lookupErr, ports.ErrGuestContactNotFound)
	pending, listErr := f.svc.ListByStatus(context.Background(), domain.StatusPending)
	require.NoError(t, listErr)
	require.Empty(t, pending)
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []string
	err    error
	signal chan struct{}
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{err: err, signal: make(chan struct{}, 4)}
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *domain.Order, email string) error {
	n.mu.Lock()
	n.sent = append(n.sent, order.OrderNumber+"->"+email)
	n.mu.Unlock()
	n.signal <- struct{}{}
	return n.err
}

func (n *recordingNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was never invoked")
	}
}

func TestPlaceOrder_NotifiesGuestEmail(t *testing.T) {
	notifier := newRecordingNotifier(nil)
	f := newOrderFixture(t, WithNotifier(notifier))
	petID := f.seedPet(t, "Luna", 200)
	owner := cartdomain.GuestOwner("session-1")
	f.fillCart(t, owner, petID)

	order, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)
	notifier.wait(t)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Equal(t, []string{order.OrderNumber + "->dana@example.com"}, notifier.sent)
}

func TestPlaceOrder_NotifierFailureDoesNotFailPlacement(t *testing.T) {
	notifier := newRecordingNotifier(errors.New("gateway down"))
	f := newOrderFixture(t, WithNotifier(notifier))
	petID := f.seedPet(t, "Luna", 200)
	owner := cartdomain.GuestOwner("session-1")
	f.fillCart(t, owner, petID)

	order, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, order.Status)
	notifier.wait(t)
}

func placeGuestOrder(t *testing.T, f *orderFixture, petIDs ...uuid.UUID) *domain.Order {
	t.Helper()
	owner := cartdomain.GuestOwner(uuid.NewString())
	f.fillCart(t, owner, petIDs...)
	order, err := f.svc.PlaceOrder(context.Background(), guestInput(owner))
	require.NoError(t, err)
	return order
}

func TestUpdateStatus_WalksTheLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	order := placeGuestOrder(t, f, petID)
	actor := uuid.New()

	for _, status := range []domain.Status{domain.StatusConfirmed, domain.StatusOutForDelivery, domain.StatusDelivered} {
		var err error
		order, err = f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
			OrderID: order.ID,
			Status:  status,
			Actor:   &actor,
		})
		require.NoError(t, err)
		require.Equal(t, status, order.Status)
	}
	require.NotNil(t, order.DeliveredAt)
	// placed + three transitions
	require.Len(t, order.History, 4)
	require.Equal(t, domain.StatusDelivered, order.History[3].Status)
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	order := placeGuestOrder(t, f, petID)

	_, err := f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		OrderID: order.ID,
		Status:  domain.StatusDelivered,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Terminal states have no exits.
	reason := "buyer changed their mind"
	cancelled, err := f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		OrderID:            order.ID,
		Status:             domain.StatusCancelled,
		CancellationReason: &reason,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		OrderID: cancelled.ID,
		Status:  domain.StatusConfirmed,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateStatus_CancelRequiresReason(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	order := placeGuestOrder(t, f, petID)

	_, err := f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		OrderID: order.ID,
		Status:  domain.StatusCancelled,
	})
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	blank := "   "
	_, err = f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		OrderID:            order.ID,
		Status:             domain.StatusCancelled,
		CancellationReason: &blank,
	})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestUpdateStatus_CancelReturnsPetsToPool(t *testing.T) {
	f := newOrderFixture(t)
	first := f.seedPet(t, "Luna", 200)
	second := f.seedPet(t, "Rex", 350)
	order := placeGuestOrder(t, f, first, second)
	require.Equal(t, catalogdomain.StatusSold, f.petStatus(t, first))

	reason := "payment never arrived"
	cancelled, err := f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		OrderID:            order.ID,
		Status:             domain.StatusCancelled,
		CancellationReason: &reason,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, reason, *cancelled.CancellationReason)
	require.Equal(t, catalogdomain.StatusAvailable, f.petStatus(t, first))
	require.Equal(t, catalogdomain.StatusAvailable, f.petStatus(t, second))
}

func TestUpdateDelivery_DispatchStampsOnce(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	order := placeGuestOrder(t, f, petID)

	dispatched := domain.DeliveryDispatched
	updated, err := f.svc.UpdateDelivery(context.Background(), ports.UpdateDeliveryInput{
		OrderID: order.ID,
		Status:  &dispatched,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Delivery)
	require.NotNil(t, updated.Delivery.DispatchedAt)
	firstStamp := *updated.Delivery.DispatchedAt

	f.advance(time.Hour)
	updated, err = f.svc.UpdateDelivery(context.Background(), ports.UpdateDeliveryInput{
		OrderID: order.ID,
		Status:  &dispatched,
	})
	require.NoError(t, err)
	require.True(t, updated.Delivery.DispatchedAt.Equal(firstStamp))
}

func TestUpdateDelivery_DeliveredCascadesToOrder(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	order := placeGuestOrder(t, f, petID)

	for _, status := range []domain.Status{domain.StatusConfirmed, domain.StatusOutForDelivery} {
		var err error
		order, err = f.svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{OrderID: order.ID, Status: status})
		require.NoError(t, err)
	}

	delivered := domain.DeliveryDelivered
	updated, err := f.svc.UpdateDelivery(context.Background(), ports.UpdateDeliveryInput{
		OrderID: order.ID,
		Status:  &delivered,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
	require.NotNil(t, updated.Delivery.DeliveredAt)
	require.NotNil(t, updated.Delivery.DispatchedAt)
	require.False(t, updated.Delivery.DeliveredAt.Before(*updated.Delivery.DispatchedAt))
}

func TestUpdateDelivery_DeliveredOnPendingOrderRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	order := placeGuestOrder(t, f, petID)

	delivered := domain.DeliveryDelivered
	_, err := f.svc.UpdateDelivery(context.Background(), ports.UpdateDeliveryInput{
		OrderID: order.ID,
		Status:  &delivered,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	// The delivery mutation rolled back with the failed order transition.
	reloaded, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, reloaded.Status)
	require.Equal(t, domain.DeliveryPending, reloaded.Delivery.Status)
	require.Nil(t, reloaded.Delivery.DeliveredAt)
}

func TestDeliveryCalendar_GroupsByDay(t *testing.T) {
	f := newOrderFixture(t)
	first := f.seedPet(t, "Luna", 200)
	second := f.seedPet(t, "Rex", 350)
	third := f.seedPet(t, "Mia", 120)
	orderA := placeGuestOrder(t, f, first)
	orderB := placeGuestOrder(t, f, second)
	orderC := placeGuestOrder(t, f, third)

	dayOne := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, pair := range []struct {
		orderID uuid.UUID
		date    time.Time
	}{
		{orderA.ID, dayOne},
		{orderB.ID, dayOne},
		{orderC.ID, dayTwo},
	} {
		date := pair.date
		_, err := f.svc.UpdateDelivery(context.Background(), ports.UpdateDeliveryInput{
			OrderID:       pair.orderID,
			ScheduledDate: &date,
		})
		require.NoError(t, err)
	}

	days, err := f.svc.DeliveryCalendar(context.Background(),
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.True(t, days[0].Date.Equal(dayOne))
	require.Len(t, days[0].Deliveries, 2)
	require.True(t, days[1].Date.Equal(dayTwo))
	require.Len(t, days[1].Deliveries, 1)
}

func TestGetByNumber_NormalizesInput(t *testing.T) {
	f := newOrderFixture(t)
	petID := f.seedPet(t, "Luna", 200)
	order := placeGuestOrder(t, f, petID)

	found, err := f.svc.GetByNumber(context.Background(), "  "+strings.ToLower(order.OrderNumber)+" ")
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)

	_, err = f.svc.GetByNumber(context.Background(), "ORD-ZZZZZZ")
	require.ErrorIs(t, err, ports.ErrOrderNotFound)
}
