// internal/domain/cart/owner_test.go
package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserOwner(t *testing.T) {
	owner, err := UserOwner(42)
	require.NoError(t, err)

	assert.Equal(t, OwnerKindUser, owner.Kind())
	userID, ok := owner.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, "user:42", owner.String())
	assert.False(t, owner.IsZero())
}

func TestUserOwnerRejectsZeroID(t *testing.T) {
	_, err := UserOwner(0)
	assert.Error(t, err)
}

func TestGuestOwner(t *testing.T) {
	owner, err := GuestOwner("abc-123")
	require.NoError(t, err)

	assert.Equal(t, OwnerKindGuest, owner.Kind())
	guestID, ok := owner.GuestID()
	assert.True(t, ok)
	assert.Equal(t, "abc-123", guestID)
	assert.Equal(t, "guest:abc-123", owner.String())
}

func TestGuestOwnerRejectsEmptyID(t *testing.T) {
	_, err := GuestOwner("")
	assert.Error(t, err)
}

func TestParseOwnerRoundTrip(t *testing.T) {
	for _, identity := range []string{"user:7", "guest:d1b0c0de"} {
		owner, err := ParseOwner(identity)
		require.NoError(t, err)
		assert.Equal(t, identity, owner.String())
	}
}

func TestParseOwnerRejectsMalformedIdentity(t *testing.T) {
	for _, identity := range []string{"", "user:", "user:abc", "guest:", "session:9", "user"} {
		_, err := ParseOwner(identity)
		assert.Error(t, err, "identity %q should not parse", identity)
	}
}
