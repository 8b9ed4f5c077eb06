// internal/domain/cart/repository.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"gorm.io/gorm"
)

// Repository persists cart aggregates. Save is a compare-and-swap on the
// version column so concurrent read-modify-write cycles cannot silently lose
// updates; callers retry on errs.ErrConflict.
type Repository interface {
	FindByOwner(ctx context.Context, owner Owner) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, c *Cart) error

	// Transaction runs fn against a repository bound to one database
	// transaction. The merge engine uses it to make merge-write and
	// guest-cart-discard atomic.
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates the gorm-backed cart repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByOwner(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx)
	if userID, ok := owner.UserID(); ok {
		query = query.Where("user_id = ?", userID)
	} else {
		guestID, _ := owner.GuestID()
		query = query.Where("guest_id = ?", guestID)
	}

	var c Cart
	err := query.First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("cart for %s", owner)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &c, nil
}

func (r *gormRepository) Create(ctx context.Context, c *Cart) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another request created the owner's cart first.
		return fmt.Errorf("cart already exists: %w", errs.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Save writes the whole aggregate in one row update guarded by the version
// column. RowsAffected == 0 means another writer got there first.
func (r *gormRepository) Save(ctx context.Context, c *Cart) error {
	// The map-based update does not run model hooks against c, so the
	// ownership invariant is checked on the populated struct here.
	if err := c.validateOwnership(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&Cart{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]interface{}{
			"user_id":        c.UserID,
			"guest_id":       c.GuestID,
			"lines":          c.Lines,
			"version":        c.Version + 1,
			"last_active_at": c.LastActiveAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save cart: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cart %d was modified concurrently: %w", c.ID, errs.ErrConflict)
	}

	c.Version++
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, c *Cart) error {
	if err := r.db.WithContext(ctx).Delete(c).Error; err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
