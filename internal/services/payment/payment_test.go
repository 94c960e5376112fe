package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewStripeGateway(StripeConfig{
		SecretKey:  "sk_test_123",
		Timeout:    2 * time.Second,
		MaxRetries: 0,
		BaseURL:    srv.URL,
	})
}

func TestStripeGateway_CreateCheckoutSession(t *testing.T) {
	var form map[string][]string
	var path string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_123","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_123"}`))
	})

	sess, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		Mode:        ModePayment,
		ProductName: "Drone Cleaning Service",
		Amount:      90000,
		Currency:    "USD",
		SuccessURL:  "http://localhost:3000/payment/success",
		CancelURL:   "http://localhost:3000/payment/cancel",
		Metadata:    map[string]string{"type": MetadataTypeJobPayment, "bidId": "b1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/checkout/sessions", path)
	assert.Equal(t, "cs_test_123", sess.ID)
	assert.Contains(t, sess.URL, "cs_test_123")
	assert.Equal(t, []string{"payment"}, form["mode"])
	assert.Equal(t, []string{"usd"}, form["line_items[0][price_data][currency]"])
	assert.Equal(t, []string{"90000"}, form["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, []string{"job_payment"}, form["metadata[type]"])
	assert.Equal(t, []string{"b1"}, form["metadata[bidId]"])
}

func TestStripeGateway_SubscriptionIsRecurring(t *testing.T) {
	var form map[string][]string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = w.Write([]byte(`{"id":"cs_test_sub","object":"checkout.session"}`))
	})

	_, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		Mode:        ModeSubscription,
		ProductName: "Premium",
		Amount:      7999,
		Metadata:    map[string]string{"type": MetadataTypeSubscription, "planId": "premium"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"month"}, form["line_items[0][price_data][recurring][interval]"])
	assert.Equal(t, []string{"premium"}, form["subscription_data[metadata][planId]"])
}

func TestStripeGateway_ProviderError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	})

	_, err := g.Refund(context.Background(), "pi_123", 1000, "duplicate")
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
}

func TestConstructEvent(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	body, header, err := SignedEvent("whsec_test", "evt_1", EventCheckoutCompleted, created, map[string]any{
		"id":             "cs_1",
		"amount_total":   90000,
		"payment_intent": "pi_1",
		"metadata":       map[string]string{"type": "job_payment", "bidId": "b1"},
	})
	require.NoError(t, err)

	ev, err := NewFakeGateway().ConstructEvent(body, header, "whsec_test")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.True(t, created.Equal(ev.Created))

	var sess CheckoutSessionObject
	require.NoError(t, json.Unmarshal(ev.Object, &sess))
	assert.Equal(t, int64(90000), sess.AmountTotal)
	assert.Equal(t, "pi_1", sess.PaymentIntent.String())
	assert.True(t, sess.IsJobPayment())
	assert.False(t, sess.IsSubscription())
}

func TestConstructEvent_BadSignature(t *testing.T) {
	body, header, err := SignedEvent("whsec_other", "evt_1", EventInvoicePaid, time.Now(), map[string]any{})
	require.NoError(t, err)

	_, err = NewFakeGateway().ConstructEvent(body, header, "whsec_test")
	assert.ErrorIs(t, err, ErrSignature)

	_, err = NewFakeGateway().ConstructEvent(body, header, "")
	assert.ErrorIs(t, err, ErrSignature)
}

func TestExpandableID(t *testing.T) {
	var inv InvoiceObject
	require.NoError(t, json.Unmarshal([]byte(`{"id":"in_1","customer":{"id":"cus_1","object":"customer"},"subscription":"sub_1","charge":null}`), &inv))
	assert.Equal(t, "cus_1", inv.Customer.String())
	assert.Equal(t, "sub_1", inv.Subscription.String())
	assert.Empty(t, inv.Charge.String())
}

func TestCheckoutSessionObject_LegacyMetadata(t *testing.T) {
	s := CheckoutSessionObject{Metadata: map[string]string{"planId": "basic"}}
	assert.True(t, s.IsSubscription())
	assert.False(t, s.IsJobPayment())
}
