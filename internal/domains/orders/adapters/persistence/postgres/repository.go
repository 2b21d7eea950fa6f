package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	catalogpg "github.com/pawmart/pawmart-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	"github.com/pawmart/pawmart-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Checkout's writes to
// the pets and cart_locks tables happen through the same *gorm.DB so they
// join the surrounding transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed order repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type cartLockRecord struct {
	ID          uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	PetID       uuid.UUID  `gorm:"column:pet_id;type:uuid"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid"`
	SessionID   *string    `gorm:"column:session_id"`
	LockedUntil time.Time  `gorm:"column:locked_until"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (cartLockRecord) TableName() string { return "cart_locks" }

type addressRecord struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	AddressLine string    `gorm:"column:address_line"`
	City        *string   `gorm:"column:city"`
	Area        *string   `gorm:"column:area"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (addressRecord) TableName() string { return "addresses" }

type guestContactRecord struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	Email     string    `gorm:"column:email"`
	Name      *string   `gorm:"column:name"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (guestContactRecord) TableName() string { return "guest_contacts" }

type orderRecord struct {
	ID                 uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	OrderNumber        string     `gorm:"column:order_number;size:10"`
	UserID             *uuid.UUID `gorm:"column:user_id;type:uuid"`
	GuestContactID     *uuid.UUID `gorm:"column:guest_contact_id;type:uuid"`
	DeliveryAddressID  uuid.UUID  `gorm:"column:delivery_address_id;type:uuid"`
	Subtotal           float64    `gorm:"column:subtotal"`
	DeliveryFee        float64    `gorm:"column:delivery_fee"`
	Total              float64    `gorm:"column:total"`
	PaymentMethod      string     `gorm:"column:payment_method;size:16"`
	Status             string     `gorm:"column:status;size:24"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	DeliveredAt        *time.Time `gorm:"column:delivered_at"`
	Notes              *string    `gorm:"column:notes"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID                 uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	OrderID            uuid.UUID  `gorm:"column:order_id;type:uuid"`
	PetID              *uuid.UUID `gorm:"column:pet_id;type:uuid"`
	PetNameSnapshot    string     `gorm:"column:pet_name_snapshot"`
	PetSpeciesSnapshot string     `gorm:"column:pet_species_snapshot;size:100"`
	PetBreedSnapshot   *string    `gorm:"column:pet_breed_snapshot;size:100"`
	PriceSnapshot      float64    `gorm:"column:price_snapshot"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type orderStatusHistoryRecord struct {
	ID        uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid"`
	Status    string     `gorm:"column:status;size:24"`
	ChangedBy *uuid.UUID `gorm:"column:changed_by;type:uuid"`
	Notes     *string    `gorm:"column:notes"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (orderStatusHistoryRecord) TableName() string { return "order_status_history" }

type deliveryRecord struct {
	ID            uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid"`
	Status        string     `gorm:"column:status;size:16"`
	ScheduledDate *time.Time `gorm:"column:scheduled_date"`
	DispatchedAt  *time.Time `gorm:"column:dispatched_at"`
	DeliveredAt   *time.Time `gorm:"column:delivered_at"`
	Notes         *string    `gorm:"column:notes"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (deliveryRecord) TableName() string { return "deliveries" }

// InTx runs fn inside one database transaction.
func (r *Repository) InTx(ctx context.Context, fn func(tx ports.Repository) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) LocksForOwner(ctx context.Context, owner cartdomain.Owner) ([]cartdomain.Lock, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx)
	if owner.IsUser() {
		query = query.Where("user_id = ?", *owner.UserID)
	} else {
		query = query.Where("user_id IS NULL AND session_id = ?", owner.SessionID)
	}
	var records []cartLockRecord
	if err := query.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	locks := make([]cartdomain.Lock, 0, len(records))
	for i := range records {
		locks = append(locks, cartdomain.Lock{
			ID:          records[i].ID,
			PetID:       records[i].PetID,
			UserID:      records[i].UserID,
			SessionID:   records[i].SessionID,
			LockedUntil: records[i].LockedUntil,
			CreatedAt:   records[i].CreatedAt,
			UpdatedAt:   records[i].UpdatedAt,
		})
	}
	return locks, nil
}

func (r *Repository) ExtendLocks(ctx context.Context, ids []uuid.UUID, until time.Time) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&cartLockRecord{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"locked_until": until, "updated_at": gorm.Expr("NOW()")}).Error
}

func (r *Repository) DeleteLock(ctx context.Context, id uuid.UUID) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&cartLockRecord{}).Error
}

// PetsByIDs delegates to the catalog adapter bound to the same transaction.
func (r *Repository) PetsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalogdomain.Pet, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return catalogpg.NewRepository(r.db).GetByIDs(ctx, ids)
}

func (r *Repository) SetPetStatus(ctx context.Context, petID uuid.UUID, status catalogdomain.Status) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Table("pets").
		Where("id = ? AND deleted_at IS NULL", petID).
		Updates(map[string]any{"status": string(status), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrPetNotFound
	}
	return nil
}

func (r *Repository) CreateAddress(ctx context.Context, address *domain.Address) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := addressRecord{
		ID:          address.ID,
		AddressLine: address.AddressLine,
		City:        address.City,
		Area:        address.Area,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	address.CreatedAt = record.CreatedAt
	return nil
}

func (r *Repository) GuestContactByEmail(ctx context.Context, email string) (*domain.GuestContact, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record guestContactRecord
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrGuestContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return contactToDomain(&record), nil
}

func (r *Repository) CreateGuestContact(ctx context.Context, contact *domain.GuestContact) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := guestContactRecord{
		ID:    contact.ID,
		Email: contact.Email,
		Name:  contact.Name,
		Phone: contact.Phone,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	contact.CreatedAt = record.CreatedAt
	return nil
}

func (r *Repository) GuestContactByID(ctx context.Context, id uuid.UUID) (*domain.GuestContact, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record guestContactRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrGuestContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return contactToDomain(&record), nil
}

func (r *Repository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("order_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := orderToRecord(order)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}
	order.CreatedAt = record.CreatedAt
	order.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *Repository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":              string(order.Status),
			"cancellation_reason": order.CancellationReason,
			"cancelled_at":        order.CancelledAt,
			"delivered_at":        order.DeliveredAt,
			"notes":               order.Notes,
			"updated_at":          gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	records := make([]orderItemRecord, 0, len(items))
	for i := range items {
		records = append(records, orderItemRecord{
			ID:                 items[i].ID,
			OrderID:            items[i].OrderID,
			PetID:              items[i].PetID,
			PetNameSnapshot:    items[i].PetName,
			PetSpeciesSnapshot: items[i].PetSpecies,
			PetBreedSnapshot:   items[i].PetBreed,
			PriceSnapshot:      items[i].Price,
		})
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *Repository) AppendStatusHistory(ctx context.Context, change *domain.StatusChange) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := orderStatusHistoryRecord{
		ID:        change.ID,
		OrderID:   change.OrderID,
		Status:    string(change.Status),
		ChangedBy: change.ChangedBy,
		Notes:     change.Notes,
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *Repository) CreateDelivery(ctx context.Context, delivery *domain.Delivery) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := deliveryToRecord(delivery)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}
	delivery.CreatedAt = record.CreatedAt
	delivery.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *Repository) UpdateDelivery(ctx context.Context, delivery *domain.Delivery) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&deliveryRecord{}).
		Where("order_id = ?", delivery.OrderID).
		Updates(map[string]any{
			"status":         string(delivery.Status),
			"scheduled_date": delivery.ScheduledDate,
			"dispatched_at":  delivery.DispatchedAt,
			"delivered_at":   delivery.DeliveredAt,
			"notes":          delivery.Notes,
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrDeliveryNotFound
	}
	return nil
}

func (r *Repository) OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, &record)
}

func (r *Repository) OrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := r.db.WithContext(ctx).Where("order_number = ?", number).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, &record)
}

func (r *Repository) OrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return r.assembleAll(ctx, records)
}

func (r *Repository) OrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return r.assembleAll(ctx, records)
}

func (r *Repository) DeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Delivery, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record deliveryRecord
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrDeliveryNotFound
	}
	if err != nil {
		return nil, err
	}
	return deliveryToDomain(&record), nil
}

func (r *Repository) DeliveriesScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Delivery, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []deliveryRecord
	if err := r.db.WithContext(ctx).
		Where("scheduled_date IS NOT NULL AND scheduled_date BETWEEN ? AND ?", from, to).
		Order("scheduled_date ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	deliveries := make([]*domain.Delivery, 0, len(records))
	for i := range records {
		deliveries = append(deliveries, deliveryToDomain(&records[i]))
	}
	return deliveries, nil
}

func (r *Repository) assemble(ctx context.Context, record *orderRecord) (*domain.Order, error) {
	order := orderToDomain(record)

	var itemRecords []orderItemRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", record.ID).
		Order("created_at ASC").
		Find(&itemRecords).Error; err != nil {
		return nil, err
	}
	for i := range itemRecords {
		order.Items = append(order.Items, domain.OrderItem{
			ID:         itemRecords[i].ID,
			OrderID:    itemRecords[i].OrderID,
			PetID:      itemRecords[i].PetID,
			PetName:    itemRecords[i].PetNameSnapshot,
			PetSpecies: itemRecords[i].PetSpeciesSnapshot,
			PetBreed:   itemRecords[i].PetBreedSnapshot,
			Price:      itemRecords[i].PriceSnapshot,
			CreatedAt:  itemRecords[i].CreatedAt,
		})
	}

	var historyRecords []orderStatusHistoryRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", record.ID).
		Order("created_at ASC").
		Find(&historyRecords).Error; err != nil {
		return nil, err
	}
	for i := range historyRecords {
		order.History = append(order.History, domain.StatusChange{
			ID:        historyRecords[i].ID,
			OrderID:   historyRecords[i].OrderID,
			Status:    domain.Status(historyRecords[i].Status),
			ChangedBy: historyRecords[i].ChangedBy,
			Notes:     historyRecords[i].Notes,
			CreatedAt: historyRecords[i].CreatedAt,
		})
	}

	var delivery deliveryRecord
	err := r.db.WithContext(ctx).Where("order_id = ?", record.ID).Take(&delivery).Error
	if err == nil {
		order.Delivery = deliveryToDomain(&delivery)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return order, nil
}

func (r *Repository) assembleAll(ctx context.Context, records []orderRecord) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := r.assemble(ctx, &records[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r.db == nil {
		return errors.New("orders postgres repository is not initialized")
	}
	return nil
}

func orderToRecord(order *domain.Order) *orderRecord {
	return &orderRecord{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		UserID:             order.UserID,
		GuestContactID:     order.GuestContactID,
		DeliveryAddressID:  order.DeliveryAddressID,
		Subtotal:           order.Subtotal,
		DeliveryFee:        order.DeliveryFee,
		Total:              order.Total,
		PaymentMethod:      string(order.PaymentMethod),
		Status:             string(order.Status),
		CancellationReason: order.CancellationReason,
		CancelledAt:        order.CancelledAt,
		DeliveredAt:        order.DeliveredAt,
		Notes:              order.Notes,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

func orderToDomain(record *orderRecord) *domain.Order {
	return &domain.Order{
		ID:                 record.ID,
		OrderNumber:        record.OrderNumber,
		UserID:             record.UserID,
		GuestContactID:     record.GuestContactID,
		DeliveryAddressID:  record.DeliveryAddressID,
		Subtotal:           record.Subtotal,
		DeliveryFee:        record.DeliveryFee,
		Total:              record.Total,
		PaymentMethod:      domain.PaymentMethod(record.PaymentMethod),
		Status:             domain.Status(record.Status),
		CancellationReason: record.CancellationReason,
		CancelledAt:        record.CancelledAt,
		DeliveredAt:        record.DeliveredAt,
		Notes:              record.Notes,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

func deliveryToRecord(delivery *domain.Delivery) *deliveryRecord {
	return &deliveryRecord{
		ID:            delivery.ID,
		OrderID:       delivery.OrderID,
		Status:        string(delivery.Status),
		ScheduledDate: delivery.ScheduledDate,
		DispatchedAt:  delivery.DispatchedAt,
		DeliveredAt:   delivery.DeliveredAt,
		Notes:         delivery.Notes,
		CreatedAt:     delivery.CreatedAt,
		UpdatedAt:     delivery.UpdatedAt,
	}
}

func deliveryToDomain(record *deliveryRecord) *domain.Delivery {
	return &domain.Delivery{
		ID:            record.ID,
		OrderID:       record.OrderID,
		Status:        domain.DeliveryStatus(record.Status),
		ScheduledDate: record.ScheduledDate,
		DispatchedAt:  record.DispatchedAt,
		DeliveredAt:   record.DeliveredAt,
		Notes:         record.Notes,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func contactToDomain(record *guestContactRecord) *domain.GuestContact {
	return &domain.GuestContact{
		ID:        record.ID,
		Email:     record.Email,
		Name:      record.Name,
		Phone:     record.Phone,
		CreatedAt: record.CreatedAt,
	}
}
