// internal/domain/cart/validator.go
package cart

import (
	"context"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Catalog is the read surface of the product catalog this package consults
// for existence, current price and available stock.
type Catalog interface {
	Lookup(ctx context.Context, productID string) (*product.Product, error)
}

// StockValidator approves or rejects a requested quantity against the stock
// snapshot read at call time. It holds no reservation: approval is a
// check-then-act against stock that may be depleted concurrently.
type StockValidator struct {
	catalog Catalog
}

// NewStockValidator creates a stock validator over the catalog
func NewStockValidator(catalog Catalog) *StockValidator {
	return &StockValidator{catalog: catalog}
}

// Approve returns the product when the requested total quantity can be
// satisfied by current stock, errs.ErrStockInsufficient otherwise.
func (v *StockValidator) Approve(ctx context.Context, productID string, requested int) (*product.Product, error) {
	if requested < 1 {
		return nil, errs.Validation("quantity must be at least 1, got %d", requested)
	}

	prod, err := v.catalog.Lookup(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !prod.InStock(requested) {
		return nil, errs.StockInsufficient(productID, prod.Stock, requested)
	}
	return prod, nil
}
