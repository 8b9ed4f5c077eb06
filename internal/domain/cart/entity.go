// internal/domain/cart/entity.go
package cart

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Line is a single product/quantity pair in a cart. Quantities are always
// >= 1; a line that would reach 0 is removed instead. Price is deliberately
// not stored here; it is resolved from the catalog at read time.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Lines is the ordered line list, persisted as a single JSONB column so every
// cart write is one atomic row replace.
type Lines []Line

// Value implements driver.Valuer for the JSONB column
func (l Lines) Value() (driver.Value, error) {
	if l == nil {
		l = Lines{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for the JSONB column
func (l *Lines) Scan(value interface{}) error {
	if value == nil {
		*l = Lines{}
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, l)
	case string:
		return json.Unmarshal([]byte(data), l)
	default:
		return fmt.Errorf("unsupported cart lines column type %T", value)
	}
}

// Cart is the single active cart aggregate for one owner. The version column
// backs optimistic concurrency: Repository.Save compares and swaps on it.
type Cart struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	GuestID      *string   `gorm:"uniqueIndex;size:64" json:"guest_id,omitempty"`
	Lines        Lines     `gorm:"type:jsonb;not null;default:'[]'" json:"lines"`
	Version      int64     `gorm:"not null;default:0" json:"-"`
	LastActiveAt time.Time `gorm:"index" json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Cart) TableName() string {
	return "carts"
}

// NewCart builds an empty cart for the given owner.
func NewCart(owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	c := &Cart{
		Lines:        Lines{},
		LastActiveAt: time.Now().UTC(),
	}
	if userID, ok := owner.UserID(); ok {
		c.UserID = &userID
	}
	if guestID, ok := owner.GuestID(); ok {
		c.GuestID = &guestID
	}
	return c, nil
}

// validateOwnership rejects carts whose ownership invariant is broken.
// Construction goes through NewCart, so a failure here is a programming error.
func (c *Cart) validateOwnership() error {
	if (c.UserID == nil) == (c.GuestID == nil) {
		return fmt.Errorf("cart must belong to exactly one of user or guest")
	}
	return nil
}

// BeforeCreate guards the insert path. The update path uses a map dest, which
// gorm runs hooks against the empty Model value for, so Repository.Save checks
// the populated struct itself instead of relying on a hook.
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	return c.validateOwnership()
}

// Owner reconstructs the owner variant from the persisted columns.
func (c *Cart) Owner() Owner {
	if c.UserID != nil {
		owner, _ := UserOwner(*c.UserID)
		return owner
	}
	if c.GuestID != nil {
		owner, _ := GuestOwner(*c.GuestID)
		return owner
	}
	return Owner{}
}

// LineQuantity returns the quantity for a product, 0 when absent.
func (c *Cart) LineQuantity(productID string) int {
	if i := c.lineIndex(productID); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) lineIndex(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// addQuantity increments an existing line or appends a new one.
func (c *Cart) addQuantity(productID string, quantity int) {
	if i := c.lineIndex(productID); i >= 0 {
		c.Lines[i].Quantity += quantity
		return
	}
	c.Lines = append(c.Lines, Line{ProductID: productID, Quantity: quantity})
}

// removeLine deletes the product's line; reports whether it was present.
func (c *Cart) removeLine(productID string) bool {
	i := c.lineIndex(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// decreaseLine decrements the line by one, removing it when the quantity
// would reach 0. Reports whether the line was present.
func (c *Cart) decreaseLine(productID string) bool {
	i := c.lineIndex(productID)
	if i < 0 {
		return false
	}
	if c.Lines[i].Quantity > 1 {
		c.Lines[i].Quantity--
		return true
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// clearLines empties the line list.
func (c *Cart) clearLines() {
	c.Lines = Lines{}
}
