// internal/domain/cart/merge_test.go
package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

func TestMergeWithoutGuestCartIsNoOp(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	ctx := context.Background()
	userOwner := mustUserOwner(t, 7)

	_, err := svc.Add(ctx, userOwner, widgetID, 2)
	require.NoError(t, err)

	resp, err := svc.Merge(ctx, 7, "no-such-guest")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestMergePromotesGuestCartWhenUserHasNone(t *testing.T) {
	svc, repo := newTestService(testProduct(widgetID, "5.00", 10))
	ctx := context.Background()
	guestOwner := mustGuestOwner(t, "g1")

	_, err := svc.Add(ctx, guestOwner, widgetID, 3)
	require.NoError(t, err)

	guestCart, err := repo.FindByOwner(ctx, guestOwner)
	require.NoError(t, err)

	resp, err := svc.Merge(ctx, 7, "g1")
	require.NoError(t, err)
	assert.Equal(t, "user:7", resp.Owner)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)

	// Same record, rewritten ownership: no copy was made.
	userCart, err := repo.FindByOwner(ctx, mustUserOwner(t, 7))
	require.NoError(t, err)
	assert.Equal(t, guestCart.ID, userCart.ID)

	_, err = repo.FindByOwner(ctx, guestOwner)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMergeSumsQuantitiesAndDiscardsGuestCart(t *testing.T) {
	svc, repo := newTestService(
		testProduct(widgetID, "5.00", 100),
		testProduct(gadgetID, "2.50", 100),
	)
	ctx := context.Background()
	userOwner := mustUserOwner(t, 7)
	guestOwner := mustGuestOwner(t, "g1")

	_, err := svc.Add(ctx, userOwner, widgetID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, guestOwner, widgetID, 3)
	require.NoError(t, err)
	_, err = svc.Add(ctx, guestOwner, gadgetID, 1)
	require.NoError(t, err)

	resp, err := svc.Merge(ctx, 7, "g1")
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	byProduct := map[string]int{}
	for _, item := range resp.Items {
		byProduct[item.ProductID] = item.Quantity
	}
	assert.Equal(t, 5, byProduct[widgetID])
	assert.Equal(t, 1, byProduct[gadgetID])

	_, err = repo.FindByOwner(ctx, guestOwner)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMergeDoesNotRevalidateStock(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 3))
	ctx := context.Background()
	userOwner := mustUserOwner(t, 7)
	guestOwner := mustGuestOwner(t, "g1")

	_, err := svc.Add(ctx, userOwner, widgetID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, guestOwner, widgetID, 2)
	require.NoError(t, err)

	// 2 + 2 exceeds the stock of 3; the merge keeps the sum anyway and the
	// excess surfaces at checkout.
	resp, err := svc.Merge(ctx, 7, "g1")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 4, resp.Items[0].Quantity)
}

func TestMergeIsIdempotentOnceGuestCartIsGone(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 100))
	ctx := context.Background()
	guestOwner := mustGuestOwner(t, "g1")

	_, err := svc.Add(ctx, guestOwner, widgetID, 3)
	require.NoError(t, err)

	first, err := svc.Merge(ctx, 7, "g1")
	require.NoError(t, err)
	second, err := svc.Merge(ctx, 7, "g1")
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
}

func TestMergeRejectsInvalidArguments(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Merge(ctx, 0, "g1")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Merge(ctx, 7, "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}
