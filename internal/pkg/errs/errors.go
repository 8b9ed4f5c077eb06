// internal/pkg/errs/errors.go
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the API distinguishes. Services wrap
// these with context via fmt.Errorf("...: %w", err); handlers match with
// errors.Is to pick a status code.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrStockInsufficient = errors.New("insufficient stock")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrExternalGateway   = errors.New("payment gateway unavailable")

	// ErrConflict marks a write that lost a compare-and-swap or hit a unique
	// constraint. It is resolved internally (retry, or fetch-existing on
	// duplicate order materialization) and never reaches the caller as-is.
	ErrConflict = errors.New("conflict")
)

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Validation wraps ErrValidation with a formatted message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// StockInsufficient wraps ErrStockInsufficient with product context.
func StockInsufficient(productID string, available, requested int) error {
	return fmt.Errorf("product %s has %d available, %d requested: %w",
		productID, available, requested, ErrStockInsufficient)
}

// ExternalGateway wraps a provider failure so callers can treat it as retryable.
func ExternalGateway(err error) error {
	return fmt.Errorf("%w: %v", ErrExternalGateway, err)
}
