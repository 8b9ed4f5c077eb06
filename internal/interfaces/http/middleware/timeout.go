// internal/interfaces/http/middleware/timeout.go
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
)

// Timeout bounds request handling at cfg.Server.RequestTimeout. The deadline
// rides on the request context, so downstream database and gateway calls are
// cancelled along with the handler.
func Timeout(cfg *config.Config) gin.HandlerFunc {
	timeout := cfg.Server.RequestTimeout

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		go func() {
			defer close(done)
			c.Next()
		}()

		select {
		case <-done:
		case <-ctx.Done():
			c.JSON(http.StatusRequestTimeout, gin.H{
				"error": "Request timeout",
			})
			c.Abort()
		}
	}
}
