// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
)

// CheckoutHandler handles checkout session and order confirmation endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		config:          cfg,
	}
}

// CreateSession handles POST /checkout/session
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	owner, err := ownerFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req checkout.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.checkoutService.CreateSession(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout session created",
		"data":    session,
	})
}

// ConfirmSession handles GET /checkout/confirm. The success redirect lands
// here; retries and double-deliveries return the same order.
func (h *CheckoutHandler) ConfirmSession(c *gin.Context) {
	sessionID := c.Query("session_id")

	o, created, err := h.checkoutService.Materialize(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Order already confirmed"
	if created {
		status = http.StatusCreated
		message = "Order confirmed"
	}

	c.JSON(status, gin.H{
		"message": message,
		"data":    o,
	})
}
