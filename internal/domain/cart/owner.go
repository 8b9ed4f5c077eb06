// internal/domain/cart/owner.go
package cart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// OwnerKind discriminates the two cart owner variants.
type OwnerKind string

const (
	OwnerKindUser  OwnerKind = "user"
	OwnerKindGuest OwnerKind = "guest"
)

// Owner identifies who a cart (or order) belongs to: an authenticated user or
// an anonymous guest. The zero value is invalid; construct through UserOwner
// or GuestOwner so exactly one variant is ever populated.
type Owner struct {
	kind    OwnerKind
	userID  uint
	guestID string
}

// UserOwner builds the authenticated-user variant.
func UserOwner(userID uint) (Owner, error) {
	if userID == 0 {
		return Owner{}, errs.Validation("owner requires a user id")
	}
	return Owner{kind: OwnerKindUser, userID: userID}, nil
}

// GuestOwner builds the anonymous-guest variant.
func GuestOwner(guestID string) (Owner, error) {
	if strings.TrimSpace(guestID) == "" {
		return Owner{}, errs.Validation("owner requires a guest id")
	}
	return Owner{kind: OwnerKindGuest, guestID: guestID}, nil
}

// ParseOwner parses the wire form produced by String: "user:<id>" or
// "guest:<id>". It is how checkout metadata round-trips the actor identity.
func ParseOwner(identity string) (Owner, error) {
	kind, id, found := strings.Cut(identity, ":")
	if !found || id == "" {
		return Owner{}, errs.Validation("malformed owner identity %q", identity)
	}

	switch OwnerKind(kind) {
	case OwnerKindUser:
		userID, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return Owner{}, errs.Validation("malformed user id %q", id)
		}
		return UserOwner(uint(userID))
	case OwnerKindGuest:
		return GuestOwner(id)
	default:
		return Owner{}, errs.Validation("unknown owner kind %q", kind)
	}
}

// Kind returns the populated variant.
func (o Owner) Kind() OwnerKind {
	return o.kind
}

// UserID returns the user id and whether this is the user variant.
func (o Owner) UserID() (uint, bool) {
	return o.userID, o.kind == OwnerKindUser
}

// GuestID returns the guest id and whether this is the guest variant.
func (o Owner) GuestID() (string, bool) {
	return o.guestID, o.kind == OwnerKindGuest
}

// IsZero reports whether the owner was never populated.
func (o Owner) IsZero() bool {
	return o.kind == ""
}

// Validate rejects owners that were not built through a factory.
func (o Owner) Validate() error {
	switch o.kind {
	case OwnerKindUser:
		if o.userID == 0 {
			return errs.Validation("user owner without user id")
		}
	case OwnerKindGuest:
		if o.guestID == "" {
			return errs.Validation("guest owner without guest id")
		}
	default:
		return errs.Validation("cart owner must be a user or a guest")
	}
	return nil
}

// String renders the owner in its wire form: "user:<id>" or "guest:<id>".
func (o Owner) String() string {
	if o.kind == OwnerKindUser {
		return fmt.Sprintf("user:%d", o.userID)
	}
	return fmt.Sprintf("guest:%s", o.guestID)
}
