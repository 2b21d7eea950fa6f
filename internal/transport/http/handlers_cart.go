package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sharederrors "github.com/pawmart/pawmart-api/internal/shared/errors"
)

type addCartItemRequest struct {
	PetID uuid.UUID `json:"petId" binding:"required"`
}

type mergeCartRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// addCartItem reserves a pet for the caller. Guests and authenticated users
// share the endpoint; the owner comes from the identity headers.
func (s *Server) addCartItem(c *gin.Context) {
	owner, ok := callerOwner(c)
	if !ok {
		sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("a user or guest session is required"))
		return
	}
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	lock, err := s.cart.AcquireLock(c.Request.Context(), req.PetID, owner)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLockResponse(lock))
}

// viewCart returns the caller's live reservations with the pets they hold.
func (s *Server) viewCart(c *gin.Context) {
	owner, ok := callerOwner(c)
	if !ok {
		sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("a user or guest session is required"))
		return
	}
	entries, err := s.cart.ViewCart(c.Request.Context(), owner)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(entries))
}

// removeCartItem releases one reservation and returns the pet to the pool.
func (s *Server) removeCartItem(c *gin.Context) {
	owner, ok := callerOwner(c)
	if !ok {
		sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("a user or guest session is required"))
		return
	}
	lockID, ok := pathUUID(c, "lockID")
	if !ok {
		return
	}
	if err := s.cart.ReleaseLock(c.Request.Context(), lockID, owner); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// mergeCart moves a guest session's reservations onto the authenticated
// user, restarting their lock windows.
func (s *Server) mergeCart(c *gin.Context) {
	userID, ok := callerUserID(c)
	if !ok {
		sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("authentication required"))
		return
	}
	var req mergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	merged, err := s.cart.MergeGuestCart(c.Request.Context(), req.SessionID, userID)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": merged})
}
