package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to be the single
// place the relational shape is declared; adapters map onto these tables.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&petRecord{},
		&cartLockRecord{},
		&addressRecord{},
		&guestContactRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&orderStatusHistoryRecord{},
		&deliveryRecord{},
		&systemSettingRecord{},
	)
}

// Pet schema mirrors the catalog Postgres adapter.
type petRecord struct {
	ID           uuid.UUID      `gorm:"primaryKey;column:id;type:uuid"`
	Name         string         `gorm:"column:name"`
	Species      string         `gorm:"column:species;size:100"`
	Breed        *string        `gorm:"column:breed;size:100"`
	Gender       string         `gorm:"column:gender;size:16"`
	Size         *string        `gorm:"column:size;size:16"`
	AgeMonths    int            `gorm:"column:age_months;check:age_months >= 0 AND age_months <= 300"`
	Color        *string        `gorm:"column:color;size:100"`
	Price        float64        `gorm:"column:price;type:numeric(10,2);check:price >= 0 AND price <= 50000"`
	Description  *string        `gorm:"column:description;type:text"`
	PhotoURLs    pq.StringArray `gorm:"column:photo_urls;type:text[]"`
	Status       string         `gorm:"column:status;size:16;index"`
	Latitude     *float64       `gorm:"column:latitude;check:latitude IS NULL OR (latitude BETWEEN -90 AND 90)"`
	Longitude    *float64       `gorm:"column:longitude;check:longitude IS NULL OR (longitude BETWEEN -180 AND 180)"`
	LocationName *string        `gorm:"column:location_name"`
	CreatedBy    *uuid.UUID     `gorm:"column:created_by;type:uuid"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (petRecord) TableName() string { return "pets" }

// Cart lock schema mirrors the cart Postgres adapter. The unique index on
// pet_id is the storage-level guarantee that at most one lock references a
// pet; concurrent acquires race on this constraint, not on application reads.
type cartLockRecord struct {
	ID          uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	PetID       uuid.UUID  `gorm:"column:pet_id;type:uuid;uniqueIndex:cart_locks_pet_unique"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	SessionID   *string    `gorm:"column:session_id;index"`
	LockedUntil time.Time  `gorm:"column:locked_until;index"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (cartLockRecord) TableName() string { return "cart_locks" }

// Address schema mirrors the orders Postgres adapter. Rows are immutable.
type addressRecord struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	AddressLine string    `gorm:"column:address_line"`
	City        *string   `gorm:"column:city"`
	Area        *string   `gorm:"column:area"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (addressRecord) TableName() string { return "addresses" }

// Guest contact schema mirrors the orders Postgres adapter.
type guestContactRecord struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	Email     string    `gorm:"column:email;uniqueIndex"`
	Name      *string   `gorm:"column:name"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (guestContactRecord) TableName() string { return "guest_contacts" }

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID                 uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	OrderNumber        string     `gorm:"column:order_number;size:10;uniqueIndex"`
	UserID             *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	GuestContactID     *uuid.UUID `gorm:"column:guest_contact_id;type:uuid"`
	DeliveryAddressID  uuid.UUID  `gorm:"column:delivery_address_id;type:uuid"`
	Subtotal           float64    `gorm:"column:subtotal;type:numeric(10,2);check:subtotal >= 0"`
	DeliveryFee        float64    `gorm:"column:delivery_fee;type:numeric(10,2);check:delivery_fee >= 0"`
	Total              float64    `gorm:"column:total;type:numeric(10,2)"`
	PaymentMethod      string     `gorm:"column:payment_method;size:16"`
	Status             string     `gorm:"column:status;size:24;index"`
	CancellationReason *string    `gorm:"column:cancellation_reason;type:text"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	DeliveredAt        *time.Time `gorm:"column:delivered_at"`
	Notes              *string    `gorm:"column:notes;type:text"`
	CreatedAt          time.Time  `gorm:"column:created_at;index"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Order item schema: immutable snapshots of pet data at purchase time.
type orderItemRecord struct {
	ID                 uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	OrderID            uuid.UUID  `gorm:"column:order_id;type:uuid;index"`
	PetID              *uuid.UUID `gorm:"column:pet_id;type:uuid"`
	PetNameSnapshot    string     `gorm:"column:pet_name_snapshot"`
	PetSpeciesSnapshot string     `gorm:"column:pet_species_snapshot;size:100"`
	PetBreedSnapshot   *string    `gorm:"column:pet_breed_snapshot;size:100"`
	PriceSnapshot      float64    `gorm:"column:price_snapshot;type:numeric(10,2);check:price_snapshot >= 0"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Status history schema: append-only, no updated_at on purpose.
type orderStatusHistoryRecord struct {
	ID        uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;index"`
	Status    string     `gorm:"column:status;size:24"`
	ChangedBy *uuid.UUID `gorm:"column:changed_by;type:uuid"`
	Notes     *string    `gorm:"column:notes;type:text"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (orderStatusHistoryRecord) TableName() string { return "order_status_history" }

// Delivery schema: one row per order.
type deliveryRecord struct {
	ID            uuid.UUID  `gorm:"column:id;primaryKey;type:uuid"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;uniqueIndex"`
	Status        string     `gorm:"column:status;size:16"`
	ScheduledDate *time.Time `gorm:"column:scheduled_date;type:date"`
	DispatchedAt  *time.Time `gorm:"column:dispatched_at"`
	DeliveredAt   *time.Time `gorm:"column:delivered_at;check:dispatched_at IS NULL OR delivered_at IS NULL OR dispatched_at <= delivered_at"`
	Notes         *string    `gorm:"column:notes;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (deliveryRecord) TableName() string { return "deliveries" }

// System setting schema: typed key/value pairs with an update audit trail.
type systemSettingRecord struct {
	Key       string     `gorm:"primaryKey;column:key;size:128"`
	Value     string     `gorm:"column:value;type:text"`
	Type      string     `gorm:"column:type;size:16"`
	UpdatedBy *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (systemSettingRecord) TableName() string { return "system_settings" }
