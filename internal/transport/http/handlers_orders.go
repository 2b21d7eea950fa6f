package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/pawmart/pawmart-api/internal/domains/orders/domain"
	ordersports "github.com/pawmart/pawmart-api/internal/domains/orders/ports"
	sharederrors "github.com/pawmart/pawmart-api/internal/shared/errors"
)

type placeOrderRequest struct {
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	AddressLine string  `json:"addressLine" binding:"required"`
	City        *string `json:"city"`
	Area        *string `json:"area"`
	DeliveryFee float64 `json:"deliveryFee"`
	Notes       *string `json:"notes"`
}

type updateOrderStatusRequest struct {
	Status             string  `json:"status" binding:"required"`
	Notes              *string `json:"notes"`
	CancellationReason *string `json:"cancellationReason"`
}

type updateDeliveryRequest struct {
	Status        *string    `json:"status"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	Notes         *string    `json:"notes"`
}

// placeOrder converts the caller's cart into an order. Guests must supply
// contact details; users only an optional notification email override.
func (s *Server) placeOrder(c *gin.Context) {
	owner, ok := callerOwner(c)
	if !ok {
		sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("a user or guest session is required"))
		return
	}
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	order, err := s.orders.PlaceOrder(c.Request.Context(), ordersports.PlaceOrderInput{
		Owner:       owner,
		Email:       req.Email,
		Name:        req.Name,
		Phone:       req.Phone,
		AddressLine: req.AddressLine,
		City:        req.City,
		Area:        req.Area,
		DeliveryFee: req.DeliveryFee,
		Notes:       req.Notes,
	})
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathUUID(c, "orderID")
	if !ok {
		return
	}
	order, err := s.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// getOrderByNumber is the guest-facing tracking lookup.
func (s *Server) getOrderByNumber(c *gin.Context) {
	order, err := s.orders.GetByNumber(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// listMyOrders returns the authenticated caller's order history.
func (s *Server) listMyOrders(c *gin.Context) {
	userID, ok := callerUserID(c)
	if !ok {
		sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("authentication required"))
		return
	}
	orders, err := s.orders.ListForUser(c.Request.Context(), userID)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderResponses(orders)})
}

// listOrdersByStatus is the admin fulfilment queue view.
func (s *Server) listOrdersByStatus(c *gin.Context) {
	status := ordersdomain.Status(c.Query("status"))
	if !ordersdomain.ValidStatus(status) {
		s.responder.BadRequest(c, "status query parameter must be a valid order status")
		return
	}
	orders, err := s.orders.ListByStatus(c.Request.Context(), status)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderResponses(orders)})
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := pathUUID(c, "orderID")
	if !ok {
		return
	}
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	input := ordersports.UpdateStatusInput{
		OrderID:            id,
		Status:             ordersdomain.Status(req.Status),
		Notes:              req.Notes,
		CancellationReason: req.CancellationReason,
	}
	if userID, ok := callerUserID(c); ok {
		input.Actor = &userID
	}
	order, err := s.orders.UpdateStatus(c.Request.Context(), input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (s *Server) updateDelivery(c *gin.Context) {
	id, ok := pathUUID(c, "orderID")
	if !ok {
		return
	}
	var req updateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	input := ordersports.UpdateDeliveryInput{
		OrderID:       id,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
	}
	if req.Status != nil {
		status := ordersdomain.DeliveryStatus(*req.Status)
		input.Status = &status
	}
	if userID, ok := callerUserID(c); ok {
		input.Actor = &userID
	}
	order, err := s.orders.UpdateDelivery(c.Request.Context(), input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// deliveryCalendar groups scheduled deliveries by day for the admin view.
func (s *Server) deliveryCalendar(c *gin.Context) {
	from, err := time.Parse(time.DateOnly, c.Query("from"))
	if err != nil {
		s.responder.BadRequest(c, "from must be a date in YYYY-MM-DD form")
		return
	}
	to, err := time.Parse(time.DateOnly, c.Query("to"))
	if err != nil {
		s.responder.BadRequest(c, "to must be a date in YYYY-MM-DD form")
		return
	}
	days, err := s.orders.DeliveryCalendar(c.Request.Context(), from, to.Add(24*time.Hour))
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	resp := make([]calendarDayResponse, 0, len(days))
	for _, day := range days {
		entry := calendarDayResponse{Date: day.Date.Format(time.DateOnly)}
		for _, delivery := range day.Deliveries {
			entry.Deliveries = append(entry.Deliveries, *toDeliveryResponse(delivery))
		}
		resp = append(resp, entry)
	}
	c.JSON(http.StatusOK, gin.H{"days": resp})
}
