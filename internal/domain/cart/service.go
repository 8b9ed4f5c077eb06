// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Cart mutations are read-modify-write cycles against a shared row. The
// repository rejects stale writes; the service re-reads and replays a bounded
// number of times before giving up.
const maxSaveAttempts = 3

// Service handles cart business logic
type Service struct {
	repo    Repository
	catalog Catalog
	stock   *StockValidator
	log     *logrus.Logger
}

// NewService creates a new cart service
func NewService(repo Repository, catalog Catalog, log *logrus.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		stock:   NewStockValidator(catalog),
		log:     log,
	}
}

// ItemResponse is a cart line joined with current catalog data
type ItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// Response represents a cart with priced items and the derived total
type Response struct {
	Owner        string          `json:"owner"`
	Items        []ItemResponse  `json:"items"`
	Total        decimal.Decimal `json:"total"`
	LastActiveAt time.Time       `json:"last_active_at"`
}

// AddRequest represents the add-to-cart request body
type AddRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// Resolve finds the single active cart for the owner, creating an empty one
// on first interaction. It never returns a cart belonging to a different
// owner.
func (s *Service) Resolve(ctx context.Context, owner Owner) (*Cart, error) {
	c, err := s.repo.FindByOwner(ctx, owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	c, err = NewCart(owner)
	if err != nil {
		return nil, err
	}
	err = s.repo.Create(ctx, c)
	if errors.Is(err, errs.ErrConflict) {
		// Lost the creation race; the winner's cart is ours too.
		return s.repo.FindByOwner(ctx, owner)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the owner's cart with prices resolved from the catalog.
func (s *Service) Get(ctx context.Context, owner Owner) (*Response, error) {
	c, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, c)
}

// Add puts quantity units of a product into the cart. The stock check covers
// the new line total (existing + requested); rejection leaves the cart
// untouched.
func (s *Service) Add(ctx context.Context, owner Owner, productID string, quantity int) (*Response, error) {
	c, err := s.mutate(ctx, owner, func(c *Cart) error {
		if _, err := s.stock.Approve(ctx, productID, c.LineQuantity(productID)+quantity); err != nil {
			return err
		}
		c.addQuantity(productID, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, c)
}

// Increase adds one unit of the product, checked against the stock snapshot
// read now, not the one from when the line was first added.
func (s *Service) Increase(ctx context.Context, owner Owner, productID string) (*Response, error) {
	return s.Add(ctx, owner, productID, 1)
}

// Decrease removes one unit; a quantity-1 line is removed entirely so a
// quantity never persists at 0.
func (s *Service) Decrease(ctx context.Context, owner Owner, productID string) (*Response, error) {
	c, err := s.mutate(ctx, owner, func(c *Cart) error {
		if !c.decreaseLine(productID) {
			return errs.NotFound("product %s in cart", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, c)
}

// Remove deletes the product's line from the cart.
func (s *Service) Remove(ctx context.Context, owner Owner, productID string) (*Response, error) {
	c, err := s.mutate(ctx, owner, func(c *Cart) error {
		if !c.removeLine(productID) {
			return errs.NotFound("product %s in cart", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, c)
}

// Clear empties the cart. Clearing an already-empty cart is a no-op, which
// makes the post-order clear safe to retry.
func (s *Service) Clear(ctx context.Context, owner Owner) (*Response, error) {
	c, err := s.mutate(ctx, owner, func(c *Cart) error {
		c.clearLines()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, c)
}

// ClearByIdentity clears the cart matching a serialized owner identity
// ("user:<id>" or "guest:<id>"), as carried in checkout session metadata.
func (s *Service) ClearByIdentity(ctx context.Context, identity string) error {
	owner, err := ParseOwner(identity)
	if err != nil {
		return err
	}
	_, err = s.Clear(ctx, owner)
	return err
}

// Merge folds the guest cart into the user's cart, once, at login.
//
// No user cart: the guest cart's owner is rewritten in place, same record,
// no copy. User cart exists: quantities are summed per product and unknown
// lines appended, deliberately without re-validating stock, then the guest
// record is discarded in the same transaction as the merge write.
func (s *Service) Merge(ctx context.Context, userID uint, guestID string) (*Response, error) {
	userOwner, err := UserOwner(userID)
	if err != nil {
		return nil, err
	}
	guestOwner, err := GuestOwner(guestID)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		guestCart, err := tx.FindByOwner(ctx, guestOwner)
		if errors.Is(err, errs.ErrNotFound) {
			return nil // nothing to merge
		}
		if err != nil {
			return err
		}

		userCart, err := tx.FindByOwner(ctx, userOwner)
		if errors.Is(err, errs.ErrNotFound) {
			// Promote: rewrite ownership on the same record.
			guestCart.UserID = &userID
			guestCart.GuestID = nil
			guestCart.LastActiveAt = time.Now().UTC()
			return tx.Save(ctx, guestCart)
		}
		if err != nil {
			return err
		}

		for _, line := range guestCart.Lines {
			userCart.addQuantity(line.ProductID, line.Quantity)
		}
		userCart.LastActiveAt = time.Now().UTC()
		if err := tx.Save(ctx, userCart); err != nil {
			return err
		}
		return tx.Delete(ctx, guestCart)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge guest cart: %w", err)
	}

	return s.Get(ctx, userOwner)
}

// mutate runs the resolve-mutate-persist cycle, retrying when the versioned
// save detects a concurrent writer.
func (s *Service) mutate(ctx context.Context, owner Owner, fn func(*Cart) error) (*Cart, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		c, err := s.Resolve(ctx, owner)
		if err != nil {
			return nil, err
		}

		if err := fn(c); err != nil {
			return nil, err
		}

		c.LastActiveAt = time.Now().UTC()
		err = s.repo.Save(ctx, c)
		if errors.Is(err, errs.ErrConflict) {
			s.log.WithFields(logrus.Fields{
				"owner":   owner.String(),
				"attempt": attempt + 1,
			}).Debug("cart save lost optimistic lock, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("cart for %s is under heavy contention: %w", owner, errs.ErrConflict)
}

// buildResponse joins lines with current catalog data. The total is a pure
// function of the line list and current prices, rounded to 2 decimal places
// (half away from zero). Lines whose product has left the catalog contribute
// nothing and are omitted from the item list, matching how the cart is
// rendered.
func (s *Service) buildResponse(ctx context.Context, c *Cart) (*Response, error) {
	items := make([]ItemResponse, 0, len(c.Lines))
	total := decimal.Zero

	for _, line := range c.Lines {
		prod, err := s.catalog.Lookup(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrValidation) {
				continue
			}
			return nil, err
		}

		lineTotal := prod.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, ItemResponse{
			ProductID: line.ProductID,
			Name:      prod.Name,
			Quantity:  line.Quantity,
			UnitPrice: prod.Price,
			LineTotal: lineTotal.Round(2),
			Stock:     prod.Stock,
			ImageURL:  prod.ImageURL,
		})
	}

	return &Response{
		Owner:        c.Owner().String(),
		Items:        items,
		Total:        total.Round(2),
		LastActiveAt: c.LastActiveAt,
	}, nil
}
