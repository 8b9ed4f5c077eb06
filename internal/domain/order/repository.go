// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"gorm.io/gorm"
)

// Repository persists orders. Create relies on the unique index over
// payment_session_id: a duplicate insert comes back as errs.ErrConflict,
// which the materializer treats as "already materialized, fetch existing".
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Order, error)
	ListByUser(ctx context.Context, userID uint) ([]Order, error)
	SaveStatus(ctx context.Context, o *Order) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates the gorm-backed order repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, o *Order) error {
	err := r.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("order for session %s already exists: %w", o.PaymentSessionID, errs.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("order %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

func (r *gormRepository) FindBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("payment_session_id = ?", sessionID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("order for session %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

func (r *gormRepository) ListByUser(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *gormRepository) SaveStatus(ctx context.Context, o *Order) error {
	err := r.db.WithContext(ctx).Model(o).Update("status", o.Status).Error
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}
