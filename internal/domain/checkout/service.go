// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Metadata keys attached to the payment session. The session is the single
// source of truth for materialization, so everything the order needs rides
// along here.
const (
	metaOwnerIdentity = "owner_identity"
	metaCartItems     = "cart_items"
	metaGuestInfo     = "guest_info"
)

// Gateway is the payment provider surface checkout depends on
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *payment.CreateSessionRequest) (*payment.Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*payment.Session, error)
}

// Catalog resolves product ids to live catalog rows
type Catalog interface {
	Lookup(ctx context.Context, productID string) (*product.Product, error)
}

// Carts clears the originating cart once its order exists
type Carts interface {
	ClearByIdentity(ctx context.Context, identity string) error
}

// Mailer sends the order confirmation. Failures are logged, never surfaced.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, o *order.Order, recipient string) error
}

// Users resolves the confirmation recipient for account orders
type Users interface {
	EmailByID(ctx context.Context, id uint) (string, error)
}

// Service drives the two halves of checkout: opening a payment session from
// the current cart, and materializing exactly one order when the session
// completes.
type Service struct {
	config  *config.Config
	gateway Gateway
	catalog Catalog
	carts   Carts
	orders  order.Repository
	users   Users
	mailer  Mailer
	log     *logrus.Logger
}

// NewService creates a new checkout service
func NewService(cfg *config.Config, gateway Gateway, catalog Catalog, carts Carts, orders order.Repository, users Users, mailer Mailer, log *logrus.Logger) *Service {
	return &Service{
		config:  cfg,
		gateway: gateway,
		catalog: catalog,
		carts:   carts,
		orders:  orders,
		users:   users,
		mailer:  mailer,
		log:     log,
	}
}

// SubmittedItem is one cart line as the client displayed it. The price here
// is a display hint only; the charged price always comes from the catalog.
type SubmittedItem struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

// CreateSessionRequest represents the checkout request body
type CreateSessionRequest struct {
	Items     []SubmittedItem `json:"items" binding:"required,min=1,dive"`
	GuestInfo order.GuestInfo `json:"guestInfo"`
}

// SessionResponse carries the hosted payment page the client redirects to
type SessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// metaItem is the line snapshot stored in session metadata, with the
// catalog-derived price frozen at session creation.
type metaItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CreateSession opens a payment session for the submitted items. Every line
// is re-priced from the catalog and re-checked against stock; the snapshot
// stored in session metadata is what materialization will later trust.
func (s *Service) CreateSession(ctx context.Context, owner cart.Owner, req *CreateSessionRequest) (*SessionResponse, error) {
	if owner.Kind() == cart.OwnerKindGuest && req.GuestInfo.IsZero() {
		return nil, errs.Validation("guest checkout requires contact info")
	}

	lineItems := make([]payment.LineItem, 0, len(req.Items))
	snapshot := make([]metaItem, 0, len(req.Items))

	for _, item := range req.Items {
		prod, err := s.catalog.Lookup(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !prod.InStock(item.Quantity) {
			return nil, errs.StockInsufficient(prod.ID, prod.Stock, item.Quantity)
		}
		if !item.Price.IsZero() && !item.Price.Equal(prod.Price) {
			s.log.WithFields(logrus.Fields{
				"product_id":      prod.ID,
				"submitted_price": item.Price.String(),
				"catalog_price":   prod.Price.String(),
			}).Warn("checkout submitted a stale price, charging catalog price")
		}

		lineItems = append(lineItems, payment.LineItem{
			Name:       prod.Name,
			UnitAmount: prod.Price.Shift(2).IntPart(),
			Quantity:   item.Quantity,
			ImageURL:   prod.ImageURL,
		})
		snapshot = append(snapshot, metaItem{
			ProductID: prod.ID,
			Name:      prod.Name,
			Quantity:  item.Quantity,
			Price:     prod.Price,
		})
	}

	metadata, err := s.buildMetadata(owner, snapshot, req.GuestInfo)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &payment.CreateSessionRequest{
		LineItems:  lineItems,
		Metadata:   metadata,
		SuccessURL: s.config.App.ClientURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.config.App.ClientURL + "/cart",
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"owner":      owner.String(),
		"items":      len(lineItems),
	}).Info("checkout session created")

	return &SessionResponse{SessionID: session.ID, URL: session.URL}, nil
}

// Materialize turns a completed payment session into exactly one order. The
// caller may invoke it any number of times for the same session: the first
// call creates the order, every later one returns it unchanged. Concurrent
// first calls race on the unique session index and the loser adopts the
// winner's row.
func (s *Service) Materialize(ctx context.Context, sessionID string) (*order.Order, bool, error) {
	if sessionID == "" {
		return nil, false, errs.Validation("session id is required")
	}

	if existing, err := s.orders.FindBySessionID(ctx, sessionID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, false, err
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	o, err := s.buildOrder(session)
	if err != nil {
		return nil, false, err
	}

	err = s.orders.Create(ctx, o)
	if errors.Is(err, errs.ErrConflict) {
		existing, findErr := s.orders.FindBySessionID(ctx, sessionID)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":   o.ID,
		"session_id": sessionID,
		"total":      o.TotalAmount.String(),
	}).Info("order materialized from checkout session")

	// The order is durable at this point. Cart cleanup and the confirmation
	// email must not fail the request.
	if identity := session.Metadata[metaOwnerIdentity]; identity != "" {
		if err := s.carts.ClearByIdentity(ctx, identity); err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id":  o.ID,
				"owner":     identity,
				"reconcile": "stale_cart",
			}).WithError(err).Warn("failed to clear cart after order creation")
		}
	}
	s.sendConfirmation(ctx, o)

	return o, true, nil
}

// buildOrder reconstructs the order entirely from the session, the single
// source of truth after payment.
func (s *Service) buildOrder(session *payment.Session) (*order.Order, error) {
	identity := session.Metadata[metaOwnerIdentity]
	if identity == "" {
		return nil, errs.Validation("session %s carries no owner identity", session.ID)
	}
	owner, err := cart.ParseOwner(identity)
	if err != nil {
		return nil, err
	}

	var snapshot []metaItem
	if err := json.Unmarshal([]byte(session.Metadata[metaCartItems]), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot for session %s: %w", session.ID, err)
	}

	items := make([]order.Item, 0, len(snapshot))
	for _, m := range snapshot {
		items = append(items, order.Item{
			ProductID:       m.ProductID,
			Name:            m.Name,
			Quantity:        m.Quantity,
			PriceAtPurchase: m.Price,
		})
	}

	o := &order.Order{
		Items:            items,
		TotalAmount:      decimal.New(session.AmountTotal, -2),
		PaymentStatus:    mapPaymentStatus(session.PaymentStatus),
		Status:           order.StatusProcessing,
		PaymentSessionID: session.ID,
		ShippingDetails:  string(session.ShippingDetails),
	}

	if id, ok := owner.UserID(); ok {
		o.UserID = &id
	}
	if gid, ok := owner.GuestID(); ok {
		o.GuestID = &gid
	}

	if raw := session.Metadata[metaGuestInfo]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &o.GuestInfo); err != nil {
			return nil, fmt.Errorf("failed to decode guest info for session %s: %w", session.ID, err)
		}
	}

	if err := o.Validate(); err != nil {
		return nil, errs.Validation("session %s yields an invalid order: %v", session.ID, err)
	}
	return o, nil
}

func (s *Service) buildMetadata(owner cart.Owner, snapshot []metaItem, guestInfo order.GuestInfo) (map[string]string, error) {
	itemsJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	metadata := map[string]string{
		metaOwnerIdentity: owner.String(),
		metaCartItems:     string(itemsJSON),
	}
	if !guestInfo.IsZero() {
		infoJSON, err := json.Marshal(guestInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to encode guest info: %w", err)
		}
		metadata[metaGuestInfo] = string(infoJSON)
	}
	return metadata, nil
}

func (s *Service) sendConfirmation(ctx context.Context, o *order.Order) {
	recipient := o.GuestInfo.Email
	if recipient == "" && o.UserID != nil {
		email, err := s.users.EmailByID(ctx, *o.UserID)
		if err != nil {
			s.log.WithField("order_id", o.ID).WithError(err).
				Warn("failed to resolve confirmation recipient")
			return
		}
		recipient = email
	}
	if recipient == "" {
		return
	}

	if err := s.mailer.SendOrderConfirmation(ctx, o, recipient); err != nil {
		s.log.WithFields(logrus.Fields{
			"order_id":  o.ID,
			"recipient": recipient,
		}).WithError(err).Warn("failed to send order confirmation email")
	}
}

func mapPaymentStatus(providerStatus string) order.PaymentStatus {
	switch providerStatus {
	case "paid":
		return order.PaymentStatusPaid
	case "failed":
		return order.PaymentStatusFailed
	default:
		return order.PaymentStatusPending
	}
}
