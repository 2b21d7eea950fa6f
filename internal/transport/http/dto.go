package http

import (
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	cartports "github.com/pawmart/pawmart-api/internal/domains/cart/ports"
	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	ordersdomain "github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	settingsdomain "github.com/pawmart/pawmart-api/internal/domains/settings/domain"
)

// Response payloads. Handlers never expose domain types directly so the
// wire shape can evolve independently of the aggregates.

type locationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

type petResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Species     string            `json:"species"`
	Breed       string            `json:"breed,omitempty"`
	Gender      string            `json:"gender"`
	Size        string            `json:"size,omitempty"`
	AgeMonths   int               `json:"ageMonths"`
	Color       string            `json:"color,omitempty"`
	Price       float64           `json:"price"`
	Description string            `json:"description,omitempty"`
	PhotoURLs   []string          `json:"photoUrls,omitempty"`
	Status      string            `json:"status"`
	Location    *locationResponse `json:"location,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toPetResponse(pet *catalogdomain.Pet) petResponse {
	resp := petResponse{
		ID:          pet.ID,
		Name:        pet.Name,
		Species:     pet.Species,
		Breed:       pet.Breed,
		Gender:      string(pet.Gender),
		Size:        string(pet.Size),
		AgeMonths:   pet.AgeMonths,
		Color:       pet.Color,
		Price:       pet.Price,
		Description: pet.Description,
		PhotoURLs:   pet.PhotoURLs,
		Status:      string(pet.Status),
		CreatedAt:   pet.CreatedAt,
		UpdatedAt:   pet.UpdatedAt,
	}
	if pet.Location != nil {
		resp.Location = &locationResponse{
			Latitude:  pet.Location.Latitude,
			Longitude: pet.Location.Longitude,
			Name:      pet.Location.Name,
		}
	}
	return resp
}

func toPetResponses(pets []*catalogdomain.Pet) []petResponse {
	out := make([]petResponse, 0, len(pets))
	for _, pet := range pets {
		out = append(out, toPetResponse(pet))
	}
	return out
}

type cartItemResponse struct {
	LockID      uuid.UUID   `json:"lockId"`
	LockedUntil time.Time   `json:"lockedUntil"`
	Pet         petResponse `json:"pet"`
}

type cartResponse struct {
	Items []cartItemResponse `json:"items"`
}

func toCartResponse(entries []cartports.Entry) cartResponse {
	resp := cartResponse{Items: make([]cartItemResponse, 0, len(entries))}
	for _, entry := range entries {
		// A lock can briefly outlive its pet record; such entries carry
		// nothing worth rendering.
		if entry.Pet == nil {
			continue
		}
		resp.Items = append(resp.Items, cartItemResponse{
			LockID:      entry.Lock.ID,
			LockedUntil: entry.Lock.LockedUntil,
			Pet:         toPetResponse(entry.Pet),
		})
	}
	return resp
}

type lockResponse struct {
	LockID      uuid.UUID `json:"lockId"`
	PetID       uuid.UUID `json:"petId"`
	LockedUntil time.Time `json:"lockedUntil"`
}

func toLockResponse(lock *cartdomain.Lock) lockResponse {
	return lockResponse{LockID: lock.ID, PetID: lock.PetID, LockedUntil: lock.LockedUntil}
}

type orderItemResponse struct {
	ID         uuid.UUID  `json:"id"`
	PetID      *uuid.UUID `json:"petId,omitempty"`
	PetName    string     `json:"petName"`
	PetSpecies string     `json:"petSpecies"`
	PetBreed   *string    `json:"petBreed,omitempty"`
	Price      float64    `json:"price"`
}

type statusChangeResponse struct {
	Status    string     `json:"status"`
	ChangedBy *uuid.UUID `json:"changedBy,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type deliveryResponse struct {
	ID            uuid.UUID  `json:"id"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	DispatchedAt  *time.Time `json:"dispatchedAt,omitempty"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type orderResponse struct {
	ID                 uuid.UUID              `json:"id"`
	OrderNumber        string                 `json:"orderNumber"`
	UserID             *uuid.UUID             `json:"userId,omitempty"`
	Status             string                 `json:"status"`
	PaymentMethod      string                 `json:"paymentMethod"`
	Subtotal           float64                `json:"subtotal"`
	DeliveryFee        float64                `json:"deliveryFee"`
	Total              float64                `json:"total"`
	Notes              *string                `json:"notes,omitempty"`
	CancellationReason *string                `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time             `json:"cancelledAt,omitempty"`
	DeliveredAt        *time.Time             `json:"deliveredAt,omitempty"`
	Items              []orderItemResponse    `json:"items"`
	History            []statusChangeResponse `json:"history"`
	Delivery           *deliveryResponse      `json:"delivery,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

func toDeliveryResponse(delivery *ordersdomain.Delivery) *deliveryResponse {
	if delivery == nil {
		return nil
	}
	return &deliveryResponse{
		ID:            delivery.ID,
		Status:        string(delivery.Status),
		ScheduledDate: delivery.ScheduledDate,
		DispatchedAt:  delivery.DispatchedAt,
		DeliveredAt:   delivery.DeliveredAt,
		Notes:         delivery.Notes,
	}
}

func toOrderResponse(order *ordersdomain.Order) orderResponse {
	resp := orderResponse{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		UserID:             order.UserID,
		Status:             string(order.Status),
		PaymentMethod:      string(order.PaymentMethod),
		Subtotal:           order.Subtotal,
		DeliveryFee:        order.DeliveryFee,
		Total:              order.Total,
		Notes:              order.Notes,
		CancellationReason: order.CancellationReason,
		CancelledAt:        order.CancelledAt,
		DeliveredAt:        order.DeliveredAt,
		Items:              make([]orderItemResponse, 0, len(order.Items)),
		History:            make([]statusChangeResponse, 0, len(order.History)),
		Delivery:           toDeliveryResponse(order.Delivery),
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:         item.ID,
			PetID:      item.PetID,
			PetName:    item.PetName,
			PetSpecies: item.PetSpecies,
			PetBreed:   item.PetBreed,
			Price:      item.Price,
		})
	}
	for _, change := range order.History {
		resp.History = append(resp.History, statusChangeResponse{
			Status:    string(change.Status),
			ChangedBy: change.ChangedBy,
			Notes:     change.Notes,
			CreatedAt: change.CreatedAt,
		})
	}
	return resp
}

func toOrderResponses(orders []*ordersdomain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	return out
}

type calendarDayResponse struct {
	Date       string             `json:"date"`
	Deliveries []deliveryResponse `json:"deliveries"`
}

type settingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Type      string    `json:"type"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSettingResponse(setting *settingsdomain.Setting) settingResponse {
	return settingResponse{
		Key:       setting.Key,
		Value:     setting.Value,
		Type:      string(setting.Type),
		UpdatedAt: setting.UpdatedAt,
	}
}
