package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	cartmemory "github.com/pawmart/pawmart-api/internal/domains/cart/adapters/memory"
	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogmemory "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps orders in memory for development and tests. It shares
// pet and lock state with the catalog and cart memory repositories the same
// way the Postgres adapters share tables, and its InTx records undo
// operations so a failed checkout leaves no trace.
type Repository struct {
	mu         sync.Mutex
	catalog    *catalogmemory.Repository
	carts      *cartmemory.Repository
	addresses  map[uuid.UUID]domain.Address
	contacts   map[uuid.UUID]domain.GuestContact
	orders     map[uuid.UUID]domain.Order
	items      map[uuid.UUID][]domain.OrderItem
	history    map[uuid.UUID][]domain.StatusChange
	deliveries map[uuid.UUID]domain.Delivery
	now        func() time.Time
}

// NewRepository constructs an empty order store bound to the shared catalog
// and cart state.
func NewRepository(catalog *catalogmemory.Repository, carts *cartmemory.Repository) *Repository {
	return &Repository{
		catalog:    catalog,
		carts:      carts,
		addresses:  map[uuid.UUID]domain.Address{},
		contacts:   map[uuid.UUID]domain.GuestContact{},
		orders:     map[uuid.UUID]domain.Order{},
		items:      map[uuid.UUID][]domain.OrderItem{},
		history:    map[uuid.UUID][]domain.StatusChange{},
		deliveries: map[uuid.UUID]domain.Delivery{},
		now:        time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// InTx serializes the unit under one mutex and rolls back every write,
// including lock removals and pet status changes, when fn fails.
func (r *Repository) InTx(_ context.Context, fn func(tx ports.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &txRepository{repo: r}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (r *Repository) LocksForOwner(ctx context.Context, owner cartdomain.Owner) ([]cartdomain.Lock, error) {
	return (&txRepository{repo: r}).LocksForOwner(ctx, owner)
}

func (r *Repository) ExtendLocks(ctx context.Context, ids []uuid.UUID, until time.Time) error {
	return (&txRepository{repo: r}).ExtendLocks(ctx, ids, until)
}

func (r *Repository) DeleteLock(ctx context.Context, id uuid.UUID) error {
	return (&txRepository{repo: r}).DeleteLock(ctx, id)
}

func (r *Repository) PetsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalogdomain.Pet, error) {
	return r.catalog.GetByIDs(ctx, ids)
}

func (r *Repository) SetPetStatus(ctx context.Context, petID uuid.UUID, status catalogdomain.Status) error {
	return (&txRepository{repo: r}).SetPetStatus(ctx, petID, status)
}

func (r *Repository) CreateAddress(ctx context.Context, address *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).CreateAddress(ctx, address)
}

func (r *Repository) GuestContactByEmail(ctx context.Context, email string) (*domain.GuestContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).GuestContactByEmail(ctx, email)
}

func (r *Repository) CreateGuestContact(ctx context.Context, contact *domain.GuestContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).CreateGuestContact(ctx, contact)
}

func (r *Repository) GuestContactByID(ctx context.Context, id uuid.UUID) (*domain.GuestContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).GuestContactByID(ctx, id)
}

func (r *Repository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).OrderNumberExists(ctx, number)
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).CreateOrder(ctx, order)
}

func (r *Repository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).UpdateOrder(ctx, order)
}

func (r *Repository) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).CreateOrderItems(ctx, items)
}

func (r *Repository) AppendStatusHistory(ctx context.Context, change *domain.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).AppendStatusHistory(ctx, change)
}

func (r *Repository) CreateDelivery(ctx context.Context, delivery *domain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).CreateDelivery(ctx, delivery)
}

func (r *Repository) UpdateDelivery(ctx context.Context, delivery *domain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).UpdateDelivery(ctx, delivery)
}

func (r *Repository) OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).OrderByID(ctx, id)
}

func (r *Repository) OrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).OrderByNumber(ctx, number)
}

func (r *Repository) OrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).OrdersForUser(ctx, userID)
}

func (r *Repository) OrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).OrdersByStatus(ctx, status)
}

func (r *Repository) DeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).DeliveryByOrderID(ctx, orderID)
}

func (r *Repository) DeliveriesScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&txRepository{repo: r}).DeliveriesScheduledBetween(ctx, from, to)
}

type txRepository struct {
	repo *Repository
	undo []func()
}

var _ ports.Repository = (*txRepository)(nil)

func (t *txRepository) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txRepository) InTx(_ context.Context, fn func(tx ports.Repository) error) error {
	return fn(t)
}

func (t *txRepository) LocksForOwner(ctx context.Context, owner cartdomain.Owner) ([]cartdomain.Lock, error) {
	return t.repo.carts.LocksForOwner(ctx, owner)
}

func (t *txRepository) ExtendLocks(_ context.Context, ids []uuid.UUID, until time.Time) error {
	for _, id := range ids {
		previous, ok := t.repo.carts.SetLockUntil(id, until)
		if !ok {
			continue
		}
		id := id
		prev := previous
		t.undo = append(t.undo, func() { t.repo.carts.SetLockUntil(id, prev) })
	}
	return nil
}

func (t *txRepository) DeleteLock(_ context.Context, id uuid.UUID) error {
	removed, ok := t.repo.carts.Remove(id)
	if !ok {
		return nil
	}
	t.undo = append(t.undo, func() { t.repo.carts.Restore(removed) })
	return nil
}

func (t *txRepository) PetsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalogdomain.Pet, error) {
	return t.repo.catalog.GetByIDs(ctx, ids)
}

func (t *txRepository) SetPetStatus(_ context.Context, petID uuid.UUID, status catalogdomain.Status) error {
	previous, ok := t.repo.catalog.Status(petID)
	if !ok {
		return ports.ErrPetNotFound
	}
	if !t.repo.catalog.SetStatus(petID, status) {
		return ports.ErrPetNotFound
	}
	t.undo = append(t.undo, func() { t.repo.catalog.SetStatus(petID, previous) })
	return nil
}

func (t *txRepository) CreateAddress(_ context.Context, address *domain.Address) error {
	stored := *address
	stored.CreatedAt = t.repo.now()
	t.repo.addresses[stored.ID] = stored
	address.CreatedAt = stored.CreatedAt
	id := stored.ID
	t.undo = append(t.undo, func() { delete(t.repo.addresses, id) })
	return nil
}

func (t *txRepository) GuestContactByEmail(_ context.Context, email string) (*domain.GuestContact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, contact := range t.repo.contacts {
		if contact.Email == email {
			found := contact
			return &found, nil
		}
	}
	return nil, ports.ErrGuestContactNotFound
}

func (t *txRepository) CreateGuestContact(_ context.Context, contact *domain.GuestContact) error {
	stored := *contact
	stored.CreatedAt = t.repo.now()
	t.repo.contacts[stored.ID] = stored
	contact.CreatedAt = stored.CreatedAt
	id := stored.ID
	t.undo = append(t.undo, func() { delete(t.repo.contacts, id) })
	return nil
}

func (t *txRepository) GuestContactByID(_ context.Context, id uuid.UUID) (*domain.GuestContact, error) {
	contact, ok := t.repo.contacts[id]
	if !ok {
		return nil, ports.ErrGuestContactNotFound
	}
	found := contact
	return &found, nil
}

func (t *txRepository) OrderNumberExists(_ context.Context, number string) (bool, error) {
	for _, order := range t.repo.orders {
		if order.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *txRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	stored := *order
	stored.Items = nil
	stored.History = nil
	stored.Delivery = nil
	now := t.repo.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	t.repo.orders[stored.ID] = stored
	order.CreatedAt = now
	order.UpdatedAt = now
	id := stored.ID
	t.undo = append(t.undo, func() { delete(t.repo.orders, id) })
	return nil
}

func (t *txRepository) UpdateOrder(_ context.Context, order *domain.Order) error {
	previous, ok := t.repo.orders[order.ID]
	if !ok {
		return ports.ErrOrderNotFound
	}
	stored := *order
	stored.Items = nil
	stored.History = nil
	stored.Delivery = nil
	stored.CreatedAt = previous.CreatedAt
	stored.UpdatedAt = t.repo.now()
	t.repo.orders[order.ID] = stored
	id := order.ID
	t.undo = append(t.undo, func() { t.repo.orders[id] = previous })
	return nil
}

func (t *txRepository) CreateOrderItems(_ context.Context, items []domain.OrderItem) error {
	now := t.repo.now()
	for i := range items {
		item := items[i]
		item.CreatedAt = now
		orderID := item.OrderID
		t.repo.items[orderID] = append(t.repo.items[orderID], item)
		t.undo = append(t.undo, func() {
			existing := t.repo.items[orderID]
			t.repo.items[orderID] = existing[:len(existing)-1]
		})
	}
	return nil
}

func (t *txRepository) AppendStatusHistory(_ context.Context, change *domain.StatusChange) error {
	stored := *change
	stored.CreatedAt = t.repo.now()
	orderID := stored.OrderID
	t.repo.history[orderID] = append(t.repo.history[orderID], stored)
	t.undo = append(t.undo, func() {
		existing := t.repo.history[orderID]
		t.repo.history[orderID] = existing[:len(existing)-1]
	})
	return nil
}

func (t *txRepository) CreateDelivery(_ context.Context, delivery *domain.Delivery) error {
	stored := *delivery
	now := t.repo.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	t.repo.deliveries[stored.OrderID] = stored
	orderID := stored.OrderID
	t.undo = append(t.undo, func() { delete(t.repo.deliveries, orderID) })
	return nil
}

func (t *txRepository) UpdateDelivery(_ context.Context, delivery *domain.Delivery) error {
	previous, ok := t.repo.deliveries[delivery.OrderID]
	if !ok {
		return ports.ErrDeliveryNotFound
	}
	stored := *delivery
	stored.CreatedAt = previous.CreatedAt
	stored.UpdatedAt = t.repo.now()
	t.repo.deliveries[delivery.OrderID] = stored
	orderID := delivery.OrderID
	t.undo = append(t.undo, func() { t.repo.deliveries[orderID] = previous })
	return nil
}

func (t *txRepository) OrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := t.repo.orders[id]
	if !ok {
		return nil, ports.ErrOrderNotFound
	}
	return t.assemble(order), nil
}

func (t *txRepository) OrderByNumber(_ context.Context, number string) (*domain.Order, error) {
	for _, order := range t.repo.orders {
		if order.OrderNumber == number {
			return t.assemble(order), nil
		}
	}
	return nil, ports.ErrOrderNotFound
}

func (t *txRepository) OrdersForUser(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var result []*domain.Order
	for _, order := range t.repo.orders {
		if order.UserID != nil && *order.UserID == userID {
			result = append(result, t.assemble(order))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (t *txRepository) OrdersByStatus(_ context.Context, status domain.Status) ([]*domain.Order, error) {
	var result []*domain.Order
	for _, order := range t.repo.orders {
		if order.Status == status {
			result = append(result, t.assemble(order))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (t *txRepository) DeliveryByOrderID(_ context.Context, orderID uuid.UUID) (*domain.Delivery, error) {
	delivery, ok := t.repo.deliveries[orderID]
	if !ok {
		return nil, ports.ErrDeliveryNotFound
	}
	found := delivery
	return &found, nil
}

func (t *txRepository) DeliveriesScheduledBetween(_ context.Context, from, to time.Time) ([]*domain.Delivery, error) {
	var result []*domain.Delivery
	for _, delivery := range t.repo.deliveries {
		if delivery.ScheduledDate == nil {
			continue
		}
		scheduled := *delivery.ScheduledDate
		if scheduled.Before(from) || scheduled.After(to) {
			continue
		}
		found := delivery
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledDate.Before(*result[j].ScheduledDate)
	})
	return result, nil
}

func (t *txRepository) assemble(order domain.Order) *domain.Order {
	full := order
	full.Items = append([]domain.OrderItem(nil), t.repo.items[order.ID]...)
	full.History = append([]domain.StatusChange(nil), t.repo.history[order.ID]...)
	if delivery, ok := t.repo.deliveries[order.ID]; ok {
		found := delivery
		full.Delivery = &found
	}
	return &full
}

func sortNewestFirst(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
