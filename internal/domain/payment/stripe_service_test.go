// internal/domain/payment/stripe_service_test.go
package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

func newTestStripeService(baseURL string) *StripeService {
	cfg := &config.Config{}
	cfg.External.Stripe.BaseURL = baseURL
	cfg.External.Stripe.SecretKey = "sk_test_123"
	cfg.External.Stripe.Currency = "usd"
	return NewStripeService(cfg)
}

func TestCreateCheckoutSessionEncodesForm(t *testing.T) {
	var gotForm map[string][]string
	var gotUser string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		gotUser, _, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","url":"https://pay.example/cs_test_1","status":"open","payment_status":"unpaid"}`))
	}))
	defer srv.Close()

	svc := newTestStripeService(srv.URL)
	session, err := svc.CreateCheckoutSession(context.Background(), &CreateSessionRequest{
		LineItems: []LineItem{
			{Name: "Widget", UnitAmount: 1999, Quantity: 2},
		},
		Metadata:   map[string]string{"owner_identity": "user:7"},
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cart",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://pay.example/cs_test_1", session.URL)
	assert.Equal(t, "sk_test_123", gotUser)

	assert.Equal(t, "payment", gotForm["mode"][0])
	assert.Equal(t, "usd", gotForm["line_items[0][price_data][currency]"][0])
	assert.Equal(t, "1999", gotForm["line_items[0][price_data][unit_amount]"][0])
	assert.Equal(t, "Widget", gotForm["line_items[0][price_data][product_data][name]"][0])
	assert.Equal(t, "2", gotForm["line_items[0][quantity]"][0])
	assert.Equal(t, "user:7", gotForm["metadata[owner_identity]"][0])
	assert.Equal(t, "https://shop.example/success", gotForm["success_url"][0])
}

func TestRetrieveSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/checkout/sessions/cs_test_1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"cs_test_1",
			"status":"complete",
			"payment_status":"paid",
			"amount_total":3998,
			"currency":"usd",
			"metadata":{"owner_identity":"user:7"}
		}`))
	}))
	defer srv.Close()

	svc := newTestStripeService(srv.URL)
	session, err := svc.RetrieveSession(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, "paid", session.PaymentStatus)
	assert.Equal(t, int64(3998), session.AmountTotal)
	assert.Equal(t, "user:7", session.Metadata["owner_identity"])
}

func TestRetrieveSessionRequiresID(t *testing.T) {
	svc := newTestStripeService("http://unused")
	_, err := svc.RetrieveSession(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRetrieveSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := newTestStripeService(srv.URL)
	_, err := svc.RetrieveSession(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProviderErrorsSurfaceAsGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"something broke"}}`))
	}))
	defer srv.Close()

	svc := newTestStripeService(srv.URL)
	_, err := svc.CreateCheckoutSession(context.Background(), &CreateSessionRequest{})
	assert.ErrorIs(t, err, errs.ErrExternalGateway)
}

func TestMissingCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.External.Stripe.BaseURL = "http://unused"
	svc := NewStripeService(cfg)

	_, err := svc.RetrieveSession(context.Background(), "cs_test_1")
	assert.Error(t, err)
}
