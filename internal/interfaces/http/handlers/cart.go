// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints. Every endpoint works for both guests
// and authenticated users; the owner comes off the request.
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		config:      cfg,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	owner, err := ownerFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cartResponse, err := h.cartService.Get(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, err := ownerFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req cart.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.Add(c.Request.Context(), owner, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartResponse,
	})
}

// IncreaseItem handles POST /cart/items/:id/increase
func (h *CartHandler) IncreaseItem(c *gin.Context) {
	owner, err := ownerFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cartResponse, err := h.cartService.Increase(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item quantity increased",
		"data":    cartResponse,
	})
}

// DecreaseItem handles POST /cart/items/:id/decrease
func (h *CartHandler) DecreaseItem(c *gin.Context) {
	owner, err := ownerFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cartResponse, err := h.cartService.Decrease(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item quantity decreased",
		"data":    cartResponse,
	})
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, err := ownerFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cartResponse, err := h.cartService.Remove(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartResponse,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	owner, err := ownerFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cartResponse, err := h.cartService.Clear(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    cartResponse,
	})
}

// MergeCart handles POST /cart/merge, for clients that re-trigger the
// post-login merge explicitly. Requires authentication and a guest cookie.
func (h *CartHandler) MergeCart(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	guestID, ok := middleware.GetGuestIDFromContext(c)
	if !ok || guestID == "" {
		// Nothing to merge, return the user's cart as-is.
		owner, err := cart.UserOwner(userID)
		if err != nil {
			respondError(c, err)
			return
		}
		cartResponse, err := h.cartService.Get(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "No guest cart to merge",
			"data":    cartResponse,
		})
		return
	}

	cartResponse, err := h.cartService.Merge(c.Request.Context(), userID, guestID)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.ClearGuestCookie(c, h.config)

	c.JSON(http.StatusOK, gin.H{
		"message": "Guest cart merged successfully",
		"data":    cartResponse,
	})
}
