// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// respondError translates domain errors into HTTP responses. Handlers never
// pick status codes by hand; the error taxonomy decides.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errs.ErrStockInsufficient):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, errs.ErrExternalGateway):
		status = http.StatusBadGateway
		message = "Payment provider unavailable"
	}

	c.JSON(status, gin.H{"error": message})
}

// ownerFromContext resolves the acting cart owner: the authenticated user
// when present, the guest cookie identity otherwise.
func ownerFromContext(c *gin.Context) (cart.Owner, error) {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return cart.UserOwner(userID)
	}
	if guestID, ok := middleware.GetGuestIDFromContext(c); ok {
		return cart.GuestOwner(guestID)
	}
	return cart.Owner{}, errs.Validation("no cart identity on request")
}
