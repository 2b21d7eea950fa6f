package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts every route under /api/v1. Identity headers are parsed
// for the whole tree; admin routes additionally require a user.
func (s *Server) Register(router gin.IRouter) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1", CallerIdentity())

	v1.GET("/pets", s.searchPets)
	v1.GET("/pets/:petID", s.getPet)

	v1.GET("/cart", s.viewCart)
	v1.POST("/cart/items", s.addCartItem)
	v1.DELETE("/cart/items/:lockID", s.removeCartItem)
	v1.POST("/cart/merge", RequireUser(), s.mergeCart)

	v1.POST("/orders", s.placeOrder)
	v1.GET("/orders", RequireUser(), s.listMyOrders)
	v1.GET("/orders/track/:orderNumber", s.getOrderByNumber)

	admin := v1.Group("/admin", RequireUser())
	admin.POST("/pets", s.addPet)
	admin.PATCH("/pets/:petID", s.updatePet)
	admin.DELETE("/pets/:petID", s.deletePet)

	admin.GET("/orders", s.listOrdersByStatus)
	admin.GET("/orders/:orderID", s.getOrder)
	admin.PATCH("/orders/:orderID/status", s.updateOrderStatus)
	admin.PATCH("/orders/:orderID/delivery", s.updateDelivery)
	admin.GET("/deliveries/calendar", s.deliveryCalendar)

	admin.GET("/settings", s.listSettings)
	admin.GET("/settings/:key", s.getSetting)
	admin.PUT("/settings/:key", s.putSetting)
}
