package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cartdomain "github.com/pawmart/pawmart-api/internal/domains/cart/domain"
	sharederrors "github.com/pawmart/pawmart-api/internal/shared/errors"
)

const (
	headerUserID    = "X-User-ID"
	headerSessionID = "X-Session-ID"

	ctxUserID    = "auth.userID"
	ctxSessionID = "auth.sessionID"
)

// CallerIdentity reads the identity headers set by the auth gateway. A
// request may carry a user id, a guest session id, or neither; handlers
// decide what they require.
func CallerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := strings.TrimSpace(c.GetHeader(headerUserID)); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("malformed user id header"))
				c.Abort()
				return
			}
			c.Set(ctxUserID, userID)
		}
		if session := strings.TrimSpace(c.GetHeader(headerSessionID)); session != "" {
			c.Set(ctxSessionID, session)
		}
		c.Next()
	}
}

// RequireUser rejects requests without an authenticated user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := callerUserID(c); !ok {
			sharederrors.Respond(c, sharederrors.ErrUnauthorized.WithDetail("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func callerUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func callerSessionID(c *gin.Context) (string, bool) {
	value, ok := c.Get(ctxSessionID)
	if !ok {
		return "", false
	}
	session, ok := value.(string)
	return session, ok
}

// callerOwner resolves the cart owner for the request: the user when
// authenticated, otherwise the guest session.
func callerOwner(c *gin.Context) (cartdomain.Owner, bool) {
	if userID, ok := callerUserID(c); ok {
		return cartdomain.UserOwner(userID), true
	}
	if session, ok := callerSessionID(c); ok {
		return cartdomain.GuestOwner(session), true
	}
	return cartdomain.Owner{}, false
}
