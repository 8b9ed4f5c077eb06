// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status represents the fulfillment status, driven by an external process
// after materialization.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus reflects what the payment session reported when the order
// was materialized. It is set once, not re-polled.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// GuestInfo carries contact details for orders placed without an account
type GuestInfo struct {
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Name    string `gorm:"size:255" json:"name,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
}

// IsZero reports whether no contact field is set
func (g GuestInfo) IsZero() bool {
	return g.Email == "" && g.Name == "" && g.Address == ""
}

// Order is the durable result of a completed checkout session. Its line list
// and total are immutable after creation; only the two status fields move.
// PaymentSessionID carries a unique index; it is the idempotency key that
// makes materialization exactly-once under duplicate delivery.
type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           *uint           `gorm:"index" json:"user_id,omitempty"`
	GuestID          *string         `gorm:"index;size:64" json:"guest_id,omitempty"`
	GuestInfo        GuestInfo       `gorm:"embedded;embeddedPrefix:guest_" json:"guest_info,omitempty"`
	Items            []Item          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaymentStatus    PaymentStatus   `gorm:"not null;default:'pending'" json:"payment_status"`
	Status           Status          `gorm:"not null;default:'processing'" json:"status"`
	PaymentSessionID string          `gorm:"uniqueIndex;not null;size:255" json:"payment_session_id"`
	ShippingDetails  string          `gorm:"type:text" json:"shipping_details,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Item is an order line with the unit price snapshotted at purchase time
type Item struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	ProductID       string          `gorm:"type:uuid;not null;index" json:"product_id"`
	Name            string          `gorm:"not null;size:255" json:"name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_at_purchase"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string { return "orders" }
func (Item) TableName() string  { return "order_items" }

// Validate enforces the ownership invariant at construction: an order needs
// an owner or guest contact info, never neither.
func (o *Order) Validate() error {
	if o.UserID == nil && o.GuestID == nil && o.GuestInfo.IsZero() {
		return fmt.Errorf("order must have an owner or guest contact info")
	}
	if o.PaymentSessionID == "" {
		return fmt.Errorf("order must reference a payment session")
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}
	return nil
}

// BeforeCreate mirrors Validate at the persistence boundary
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	return o.Validate()
}

// CanTransitionTo reports whether the fulfillment status may move to next.
// Legal moves: processing→shipped→delivered, or processing→cancelled.
func (o *Order) CanTransitionTo(next Status) bool {
	switch o.Status {
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	default:
		return false
	}
}
