package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/ports"
)

const (
	orderNumberPrefix   = "ORD-"
	orderNumberLength   = 6
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberAttempts = 10

	placedNote = "Order placed."
)

// Service orchestrates checkout and the order lifecycle. All multi-row
// writes go through the repository's transaction so an order either exists
// completely or not at all.
type Service struct {
	repo     ports.Repository
	notifier ports.Notifier
	logger   *slog.Logger
	window   time.Duration
	now      func() time.Time
	randomN  func(n int) int
}

// Option configures the order service.
type Option func(*Service)

// WithNotifier attaches the confirmation dispatcher.
func WithNotifier(notifier ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithLogger attaches a logger for post-commit failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLockWindow overrides the extension applied to participating locks.
func WithLockWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithRandom overrides the order-number randomness source.
func WithRandom(randomN func(n int) int) Option {
	return func(s *Service) {
		if randomN != nil {
			s.randomN = randomN
		}
	}
}

// NewService wires the order service.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		window:  cartdomain.LockWindow,
		now:     time.Now,
		randomN: rand.IntN,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder converts the caller's live cart into a pending order in one
// transaction: locks re-validated and extended, address persisted, buyer
// resolved, totals computed, order plus snapshots plus history plus delivery
// created, pets marked sold, locks consumed. The confirmation notification
// runs after commit and never fails the placement.
func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*domain.Order, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidationFailed, err)
	}
	if input.DeliveryFee < 0 {
		return nil, fmt.Errorf("%w: delivery fee must not be negative", domain.ErrValidationFailed)
	}

	now := s.now()
	var placed *domain.Order
	var buyerEmail string
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		locks, err := tx.LocksForOwner(ctx, input.Owner)
		if err != nil {
			return err
		}
		if len(locks) == 0 {
			return domain.ErrEmptyCart
		}
		lockIDs := make([]uuid.UUID, 0, len(locks))
		petIDs := make([]uuid.UUID, 0, len(locks))
		for i := range locks {
			if locks[i].Expired(now) {
				return domain.ErrCartExpired
			}
			lockIDs = append(lockIDs, locks[i].ID)
			petIDs = append(petIDs, locks[i].PetID)
		}
		// Keep a concurrent sweep from consuming the cart mid-conversion.
		if err := tx.ExtendLocks(ctx, lockIDs, now.Add(s.window)); err != nil {
			return err
		}

		address, err := domain.NewAddress(input.AddressLine, input.City, input.Area)
		if err != nil {
			return err
		}
		if err := tx.CreateAddress(ctx, address); err != nil {
			return err
		}

		var userID, contactID *uuid.UUID
		if input.Owner.IsUser() {
			id := *input.Owner.UserID
			userID = &id
			buyerEmail = strings.TrimSpace(input.Email)
		} else {
			contact, err := s.resolveGuestContact(ctx, tx, input)
			if err != nil {
				return err
			}
			contactID = &contact.ID
			buyerEmail = contact.Email
		}

		pets, err := tx.PetsByIDs(ctx, petIDs)
		if err != nil {
			return err
		}
		if len(pets) != len(petIDs) {
			return ports.ErrPetNotFound
		}
		petByID := make(map[uuid.UUID]*catalogdomain.Pet, len(pets))
		subtotal := 0.0
		for _, pet := range pets {
			petByID[pet.ID] = pet
			subtotal += pet.Price
		}

		number, err := s.newOrderNumber(ctx, tx)
		if err != nil {
			return err
		}
		order, err := domain.NewOrder(number, userID, contactID, address.ID, subtotal, input.DeliveryFee, input.Notes)
		if err != nil {
			return err
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		items := make([]domain.OrderItem, 0, len(locks))
		for i := range locks {
			pet := petByID[locks[i].PetID]
			petID := pet.ID
			items = append(items, domain.OrderItem{
				ID:         uuid.New(),
				OrderID:    order.ID,
				PetID:      &petID,
				PetName:    pet.Name,
				PetSpecies: pet.Species,
				PetBreed:   optional(pet.Breed),
				Price:      pet.Price,
			})
			if err := tx.SetPetStatus(ctx, pet.ID, catalogdomain.StatusSold); err != nil {
				return err
			}
			if err := tx.DeleteLock(ctx, locks[i].ID); err != nil {
				return err
			}
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return err
		}

		note := placedNote
		if err := tx.AppendStatusHistory(ctx, &domain.StatusChange{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Status:    domain.StatusPending,
			ChangedBy: userID,
			Notes:     &note,
		}); err != nil {
			return err
		}
		if err := tx.CreateDelivery(ctx, domain.NewDelivery(order.ID)); err != nil {
			return err
		}

		placed, err = tx.OrderByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyPlaced(ctx, placed, buyerEmail)
	return placed, nil
}

// UpdateStatus applies one lifecycle transition with its side effects:
// cancellation needs a reason and returns every still-existing pet to the
// available pool; delivery stamps the delivered time. The history entry is
// written in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, input ports.UpdateStatusInput) (*domain.Order, error) {
	now := s.now()
	var updated *domain.Order
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		order, err := tx.OrderByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if err := order.Transition(input.Status, input.CancellationReason, now); err != nil {
			return err
		}
		if input.Status == domain.StatusCancelled {
			if err := s.returnItemsToPool(ctx, tx, order.Items); err != nil {
				return err
			}
		}
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.AppendStatusHistory(ctx, &domain.StatusChange{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Status:    input.Status,
			ChangedBy: input.Actor,
			Notes:     input.Notes,
		}); err != nil {
			return err
		}
		updated, err = tx.OrderByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateDelivery mutates an order's fulfilment record. Marking the delivery
// delivered also moves the parent order to delivered through the same
// lifecycle rules, in the same transaction.
func (s *Service) UpdateDelivery(ctx context.Context, input ports.UpdateDeliveryInput) (*domain.Order, error) {
	now := s.now()
	var updated *domain.Order
	err := s.repo.InTx(ctx, func(tx ports.Repository) error {
		delivery, err := tx.DeliveryByOrderID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if input.ScheduledDate != nil {
			scheduled := *input.ScheduledDate
			delivery.ScheduledDate = &scheduled
		}
		if input.Notes != nil {
			delivery.Notes = input.Notes
		}
		if input.Status != nil {
			if err := delivery.MarkStatus(*input.Status, now); err != nil {
				return err
			}
		}
		if err := tx.UpdateDelivery(ctx, delivery); err != nil {
			return err
		}

		if input.Status != nil && *input.Status == domain.DeliveryDelivered {
			order, err := tx.OrderByID(ctx, input.OrderID)
			if err != nil {
				return err
			}
			if order.Status != domain.StatusDelivered {
				if err := order.Transition(domain.StatusDelivered, nil, now); err != nil {
					return err
				}
				if err := tx.UpdateOrder(ctx, order); err != nil {
					return err
				}
				note := "Delivery completed."
				if err := tx.AppendStatusHistory(ctx, &domain.StatusChange{
					ID:        uuid.New(),
					OrderID:   order.ID,
					Status:    domain.StatusDelivered,
					ChangedBy: input.Actor,
					Notes:     &note,
				}); err != nil {
					return err
				}
			}
		}

		updated, err = tx.OrderByID(ctx, input.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetByID loads one order with items, history, and delivery.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.OrderByID(ctx, id)
}

// GetByNumber loads one order by its public order number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.repo.OrderByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
}

// ListForUser returns the buyer's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.repo.OrdersForUser(ctx, userID)
}

// ListByStatus returns orders in one lifecycle state for the admin view.
func (s *Service) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	if !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidationFailed, status)
	}
	return s.repo.OrdersByStatus(ctx, status)
}

// DeliveryCalendar groups scheduled deliveries in [from, to] by day.
func (s *Service) DeliveryCalendar(ctx context.Context, from, to time.Time) ([]ports.CalendarDay, error) {
	deliveries, err := s.repo.DeliveriesScheduledBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDay := map[time.Time][]*domain.Delivery{}
	for _, delivery := range deliveries {
		if delivery.ScheduledDate == nil {
			continue
		}
		day := delivery.ScheduledDate.Truncate(24 * time.Hour)
		byDay[day] = append(byDay[day], delivery)
	}
	days := make([]ports.CalendarDay, 0, len(byDay))
	for day, group := range byDay {
		days = append(days, ports.CalendarDay{Date: day, Deliveries: group})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func (s *Service) resolveGuestContact(ctx context.Context, tx ports.Repository, input ports.PlaceOrderInput) (*domain.GuestContact, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := tx.GuestContactByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ports.ErrGuestContactNotFound) {
		return nil, err
	}
	contact, err := domain.NewGuestContact(email, input.Name, input.Phone)
	if err != nil {
		return nil, err
	}
	if err := tx.CreateGuestContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) returnItemsToPool(ctx context.Context, tx ports.Repository, items []domain.OrderItem) error {
	for i := range items {
		if items[i].PetID == nil {
			continue
		}
		err := tx.SetPetStatus(ctx, *items[i].PetID, catalogdomain.StatusAvailable)
		if err != nil && !errors.Is(err, ports.ErrPetNotFound) {
			return err
		}
	}
	return nil
}

func (s *Service) newOrderNumber(ctx context.Context, tx ports.Repository) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number := s.randomOrderNumber()
		exists, err := tx.OrderNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", errors.New("exhausted order number attempts")
}

func (s *Service) randomOrderNumber() string {
	var b strings.Builder
	b.WriteString(orderNumberPrefix)
	for i := 0; i < orderNumberLength; i++ {
		b.WriteByte(orderNumberAlphabet[s.randomN(len(orderNumberAlphabet))])
	}
	return b.String()
}

func (s *Service) notifyPlaced(ctx context.Context, order *domain.Order, email string) {
	if s.notifier == nil || order == nil || email == "" {
		return
	}
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.notifier.OrderPlaced(notifyCtx, order, email); err != nil && s.logger != nil {
			s.logger.Warn("order confirmation dispatch failed",
				slog.String("order.number", order.OrderNumber),
				slog.String("error", err.Error()))
		}
	}()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ ports.Service = (*Service)(nil)
