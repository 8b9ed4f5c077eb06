// internal/domain/cart/repository_test.go
package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The gorm repository is exercised against a real database here because the
// write path mixes hooks, a map-based CAS update and error translation, none
// of which the in-memory fake reproduces.
func newTestRepository(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Cart{}))
	return NewRepository(db)
}

func createGuestCart(t *testing.T, repo Repository, guestID string) *Cart {
	t.Helper()
	c, err := NewCart(mustGuestOwner(t, guestID))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestRepositorySavePersistsMutatedCart(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	c := createGuestCart(t, repo, "g1")
	c.addQuantity(widgetID, 2)

	require.NoError(t, repo.Save(ctx, c))
	assert.Equal(t, int64(1), c.Version)

	reloaded, err := repo.FindByOwner(ctx, mustGuestOwner(t, "g1"))
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.Equal(t, widgetID, reloaded.Lines[0].ProductID)
	assert.Equal(t, 2, reloaded.Lines[0].Quantity)
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestRepositorySaveRejectsStaleVersion(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	createGuestCart(t, repo, "g1")

	first, err := repo.FindByOwner(ctx, mustGuestOwner(t, "g1"))
	require.NoError(t, err)
	second, err := repo.FindByOwner(ctx, mustGuestOwner(t, "g1"))
	require.NoError(t, err)

	first.addQuantity(widgetID, 1)
	require.NoError(t, repo.Save(ctx, first))

	second.addQuantity(gadgetID, 5)
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, errs.ErrConflict)

	// The winner's write survives untouched.
	reloaded, err := repo.FindByOwner(ctx, mustGuestOwner(t, "g1"))
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.Equal(t, widgetID, reloaded.Lines[0].ProductID)
}

func TestRepositorySaveRewritesOwnership(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	c := createGuestCart(t, repo, "g1")
	c.addQuantity(widgetID, 3)
	require.NoError(t, repo.Save(ctx, c))

	userID := uint(7)
	c.UserID = &userID
	c.GuestID = nil
	require.NoError(t, repo.Save(ctx, c))

	promoted, err := repo.FindByOwner(ctx, mustUserOwner(t, 7))
	require.NoError(t, err)
	assert.Equal(t, c.ID, promoted.ID)
	require.Len(t, promoted.Lines, 1)
	assert.Equal(t, 3, promoted.Lines[0].Quantity)

	_, err = repo.FindByOwner(ctx, mustGuestOwner(t, "g1"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRepositorySaveRejectsOwnerlessCart(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	c := createGuestCart(t, repo, "g1")
	c.GuestID = nil

	assert.Error(t, repo.Save(ctx, c))
}

func TestRepositoryCreateTranslatesDuplicateOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	createGuestCart(t, repo, "g1")

	dup, err := NewCart(mustGuestOwner(t, "g1"))
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestRepositoryCreateRejectsOwnerlessCart(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Create(context.Background(), &Cart{Lines: Lines{}})
	assert.Error(t, err)
}
