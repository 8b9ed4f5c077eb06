// internal/domain/cart/service_test.go
package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// memoryRepository is an in-memory Repository with the same compare-and-swap
// save semantics as the gorm implementation.
type memoryRepository struct {
	mu       sync.Mutex
	nextID   uint
	carts    map[uint]*Cart
	saveHook func(*Cart) error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{carts: make(map[uint]*Cart)}
}

func copyCart(c *Cart) *Cart {
	dup := *c
	dup.Lines = append(Lines{}, c.Lines...)
	if c.UserID != nil {
		id := *c.UserID
		dup.UserID = &id
	}
	if c.GuestID != nil {
		id := *c.GuestID
		dup.GuestID = &id
	}
	return &dup
}

func (r *memoryRepository) findLocked(owner Owner) *Cart {
	for _, c := range r.carts {
		if userID, ok := owner.UserID(); ok && c.UserID != nil && *c.UserID == userID {
			return c
		}
		if guestID, ok := owner.GuestID(); ok && c.GuestID != nil && *c.GuestID == guestID {
			return c
		}
	}
	return nil
}

func (r *memoryRepository) FindByOwner(ctx context.Context, owner Owner) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.findLocked(owner); c != nil {
		return copyCart(c), nil
	}
	return nil, errs.NotFound("cart for %s", owner)
}

func (r *memoryRepository) Create(ctx context.Context, c *Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.findLocked(c.Owner()); existing != nil {
		return fmt.Errorf("cart already exists: %w", errs.ErrConflict)
	}
	r.nextID++
	c.ID = r.nextID
	c.Version = 0
	r.carts[c.ID] = copyCart(c)
	return nil
}

func (r *memoryRepository) Save(ctx context.Context, c *Cart) error {
	if r.saveHook != nil {
		if err := r.saveHook(c); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.carts[c.ID]
	if !ok || stored.Version != c.Version {
		return fmt.Errorf("stale cart write: %w", errs.ErrConflict)
	}
	c.Version++
	r.carts[c.ID] = copyCart(c)
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, c *Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, c.ID)
	return nil
}

func (r *memoryRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

// stubCatalog resolves products from a fixed map
type stubCatalog struct {
	products map[string]*product.Product
}

func (s *stubCatalog) Lookup(ctx context.Context, productID string) (*product.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return nil, errs.NotFound("product %s", productID)
	}
	return p, nil
}

func testProduct(id, price string, stock int) *product.Product {
	return &product.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestService(products ...*product.Product) (*Service, *memoryRepository) {
	catalog := &stubCatalog{products: make(map[string]*product.Product)}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	repo := newMemoryRepository()
	return NewService(repo, catalog, quietLogger()), repo
}

func mustGuestOwner(t *testing.T, id string) Owner {
	t.Helper()
	owner, err := GuestOwner(id)
	require.NoError(t, err)
	return owner
}

func mustUserOwner(t *testing.T, id uint) Owner {
	t.Helper()
	owner, err := UserOwner(id)
	require.NoError(t, err)
	return owner
}

const (
	widgetID = "9b2f62e8-0a4e-4f6e-9f2b-111111111111"
	gadgetID = "9b2f62e8-0a4e-4f6e-9f2b-222222222222"
)

func TestResolveCreatesEmptyCartOnFirstUse(t *testing.T) {
	svc, _ := newTestService()
	owner := mustGuestOwner(t, "g1")

	c, err := svc.Resolve(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, owner.String(), c.Owner().String())

	again, err := svc.Resolve(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
}

func TestAddNewProduct(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "19.99", 10))
	owner := mustGuestOwner(t, "g1")

	resp, err := svc.Add(context.Background(), owner, widgetID, 2)
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, "39.98", resp.Total.StringFixed(2))
}

func TestAddExistingProductSumsQuantities(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 2)
	require.NoError(t, err)
	resp, err := svc.Add(ctx, owner, widgetID, 3)
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)
}

func TestAddRejectsInsufficientStockAndLeavesCartUnchanged(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 3))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 2)
	require.NoError(t, err)

	// 2 already in the cart, stock 3: asking for 2 more must fail.
	_, err = svc.Add(ctx, owner, widgetID, 2)
	require.ErrorIs(t, err, errs.ErrStockInsufficient)

	resp, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _ := newTestService()
	owner := mustGuestOwner(t, "g1")

	_, err := svc.Add(context.Background(), owner, widgetID, 1)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestIncreaseAddsSingleUnit(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 1)
	require.NoError(t, err)
	resp, err := svc.Increase(ctx, owner, widgetID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestIncreaseAbsentProductStartsLine(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")

	resp, err := svc.Increase(context.Background(), owner, widgetID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].Quantity)
}

func TestDecreaseRemovesLineAtQuantityOne(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 1)
	require.NoError(t, err)

	resp, err := svc.Decrease(ctx, owner, widgetID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
}

func TestDecreaseAbsentProduct(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")

	_, err := svc.Decrease(context.Background(), owner, widgetID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRemoveDeletesWholeLine(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10), testProduct(gadgetID, "2.50", 10))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 3)
	require.NoError(t, err)
	_, err = svc.Add(ctx, owner, gadgetID, 1)
	require.NoError(t, err)

	resp, err := svc.Remove(ctx, owner, widgetID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, gadgetID, resp.Items[0].ProductID)
}

func TestClearEmptiesCart(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 3)
	require.NoError(t, err)

	resp, err := svc.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())

	// Clearing again is a no-op, not an error.
	_, err = svc.Clear(ctx, owner)
	assert.NoError(t, err)
}

func TestClearByIdentity(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.ClearByIdentity(ctx, "guest:g1"))

	resp, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	assert.Error(t, svc.ClearByIdentity(ctx, "nonsense"))
}

func TestTotalRoundsHalfAwayFromZero(t *testing.T) {
	svc, _ := newTestService(testProduct(widgetID, "1.115", 10))
	owner := mustGuestOwner(t, "g1")

	resp, err := svc.Add(context.Background(), owner, widgetID, 3)
	require.NoError(t, err)

	// 3 x 1.115 = 3.345, which rounds to 3.35.
	assert.Equal(t, "3.35", resp.Total.StringFixed(2))
}

func TestVanishedProductContributesNothing(t *testing.T) {
	svc, repo := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, widgetID, 2)
	require.NoError(t, err)

	// The product leaves the catalog after it was added.
	c, err := repo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	c.Lines = append(c.Lines, Line{ProductID: gadgetID, Quantity: 4})
	require.NoError(t, repo.Save(ctx, c))

	resp, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, widgetID, resp.Items[0].ProductID)
	assert.Equal(t, "10.00", resp.Total.StringFixed(2))
}

func TestMutateRetriesOnStaleWrite(t *testing.T) {
	svc, repo := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")

	conflicts := 0
	repo.saveHook = func(*Cart) error {
		if conflicts < 2 {
			conflicts++
			return fmt.Errorf("stale cart write: %w", errs.ErrConflict)
		}
		return nil
	}

	resp, err := svc.Add(context.Background(), owner, widgetID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, conflicts)
	assert.Len(t, resp.Items, 1)
}

func TestMutateGivesUpUnderSustainedContention(t *testing.T) {
	svc, repo := newTestService(testProduct(widgetID, "5.00", 10))
	owner := mustGuestOwner(t, "g1")

	repo.saveHook = func(*Cart) error {
		return fmt.Errorf("stale cart write: %w", errs.ErrConflict)
	}

	_, err := svc.Add(context.Background(), owner, widgetID, 1)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestStaleWriteCannotOverwriteNewerCart(t *testing.T) {
	_, repo := newTestService()
	owner := mustGuestOwner(t, "g1")
	ctx := context.Background()

	c, err := NewCart(owner)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, c))

	first, err := repo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	second, err := repo.FindByOwner(ctx, owner)
	require.NoError(t, err)

	first.addQuantity(widgetID, 1)
	require.NoError(t, repo.Save(ctx, first))

	// The second reader now holds a stale version.
	second.addQuantity(gadgetID, 1)
	err = repo.Save(ctx, second)
	require.ErrorIs(t, err, errs.ErrConflict)

	current, err := repo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, current.LineQuantity(widgetID))
	assert.Equal(t, 0, current.LineQuantity(gadgetID))
}
