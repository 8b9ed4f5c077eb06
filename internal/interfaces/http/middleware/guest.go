// internal/interfaces/http/middleware/guest.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
)

const (
	ctxGuestID      = "guest_id"
	guestCookieName = "guest_id"
)

// GuestMiddleware assigns anonymous visitors a stable guest identity via an
// httpOnly cookie. Authenticated requests skip it entirely so a login never
// spawns a fresh guest cart. Runs after OptionalAuthMiddleware.
func GuestMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, authenticated := GetUserIDFromContext(c); authenticated {
			// Keep the existing cookie around for the post-login merge.
			if guestID, err := c.Cookie(guestCookieName); err == nil && guestID != "" {
				c.Set(ctxGuestID, guestID)
			}
			c.Next()
			return
		}

		guestID, err := c.Cookie(guestCookieName)
		if err != nil || guestID == "" {
			guestID = uuid.NewString()
			secure := cfg.App.Environment == "production"
			maxAge := int(cfg.Security.GuestCookieMaxAge.Seconds())
			c.SetCookie(guestCookieName, guestID, maxAge, "/", "", secure, true)
		}

		c.Set(ctxGuestID, guestID)
		c.Next()
	}
}

// GetGuestIDFromContext extracts the guest identity from gin context
func GetGuestIDFromContext(c *gin.Context) (string, bool) {
	guestID, exists := c.Get(ctxGuestID)
	if !exists {
		return "", false
	}
	return guestID.(string), true
}

// ClearGuestCookie expires the guest identity cookie, used once the guest
// cart has been merged into an account cart.
func ClearGuestCookie(c *gin.Context, cfg *config.Config) {
	secure := cfg.App.Environment == "production"
	c.SetCookie(guestCookieName, "", -1, "/", "", secure, true)
}
