// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Service handles order queries and the fulfillment status machine. Order
// creation itself lives in the checkout materializer.
type Service struct {
	repo Repository
}

// NewService creates a new order service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpdateStatusRequest represents a fulfillment status change
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID uint) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns an order, restricted to its owner unless the caller is admin.
func (s *Service) Get(ctx context.Context, id uint, userID uint, isAdmin bool) (*Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && (o.UserID == nil || *o.UserID != userID) {
		// Hide existence from non-owners.
		return nil, errs.NotFound("order %d", id)
	}
	return o, nil
}

// UpdateStatus advances the fulfillment status. Only the transitions
// processing→shipped→delivered and processing→cancelled are legal; payment
// status and order contents never change here.
func (s *Service) UpdateStatus(ctx context.Context, id uint, next Status) (*Order, error) {
	switch next {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
	default:
		return nil, errs.Validation("unknown order status %q", next)
	}

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.CanTransitionTo(next) {
		return nil, errs.Validation("cannot move order from %s to %s", o.Status, next)
	}

	o.Status = next
	if err := s.repo.SaveStatus(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist status change: %w", err)
	}
	return o, nil
}
