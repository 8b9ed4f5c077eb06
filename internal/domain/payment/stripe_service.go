// internal/domain/payment/stripe_service.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Session is the provider-held representation of an intended payment. The
// metadata carries everything needed to reconstruct the order without
// re-reading the cart.
type Session struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"` // smallest currency unit
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
	ShippingDetails json.RawMessage   `json:"shipping_details,omitempty"`
}

// LineItem is one priced row submitted to the provider
type LineItem struct {
	Name       string
	UnitAmount int64 // smallest currency unit
	Quantity   int
	ImageURL   string
}

// CreateSessionRequest carries everything needed to open a checkout session
type CreateSessionRequest struct {
	LineItems  []LineItem
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// StripeService talks to the Stripe Checkout Sessions API
type StripeService struct {
	config     *config.Config
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewStripeService creates a new Stripe service
func NewStripeService(cfg *config.Config) *StripeService {
	return &StripeService{
		config:    cfg,
		baseURL:   cfg.External.Stripe.BaseURL,
		secretKey: cfg.External.Stripe.SecretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCheckoutSession opens a hosted payment session for the submitted
// line items and attaches the metadata verbatim.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("shipping_address_collection[allowed_countries][0]", "US")
	form.Set("shipping_address_collection[allowed_countries][1]", "CA")
	form.Set("shipping_address_collection[allowed_countries][2]", "GB")

	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", s.config.External.Stripe.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.ImageURL != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", item.ImageURL)
		}
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	for key, value := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	body, err := s.makeAPICall(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session response: %w", err)
	}
	return &session, nil
}

// RetrieveSession fetches a session by id. Provider failures surface as
// errs.ErrExternalGateway; this client never retries internally.
func (s *StripeService) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errs.Validation("session id is required")
	}

	body, err := s.makeAPICall(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session response: %w", err)
	}
	return &session, nil
}

// makeAPICall makes form-encoded HTTP calls to the Stripe API
func (s *StripeService) makeAPICall(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	if s.secretKey == "" {
		return nil, fmt.Errorf("stripe API credentials not configured")
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth(s.secretKey, "")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errs.ExternalGateway(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ExternalGateway(err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errs.NotFound("checkout session")
	}
	if resp.StatusCode >= 400 {
		return nil, errs.ExternalGateway(
			fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, respBody))
	}

	return respBody, nil
}
