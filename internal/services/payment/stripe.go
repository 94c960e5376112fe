package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"dronemarket_backend/internal/money"
)

// StripeConfig - ключ и параметры сетевого клиента
type StripeConfig struct {
	SecretKey  string
	Timeout    time.Duration
	MaxRetries int64
	// BaseURL переопределяет адрес API (для тестов)
	BaseURL string
}

// StripeGateway - Gateway поверх stripe-go.
// Повторы с экспоненциальной задержкой делает сам клиент Stripe.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}
	return &StripeGateway{api: client.New(cfg.SecretKey, backends)}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency: stripe.String(currency),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(req.ProductName),
		},
		UnitAmount: stripe.Int64(int64(req.Amount)),
	}
	if req.Description != "" {
		priceData.ProductData.Description = stripe.String(req.Description)
	}

	mode := req.Mode
	if mode == "" {
		mode = ModePayment
	}
	if mode == ModeSubscription {
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(defaultSubscriptionInterval),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(mode),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{PriceData: priceData, Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if mode == ModeSubscription {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		}
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx
	if _, err := g.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe cancel subscription %s: %w", subscriptionID, err)
	}
	return nil
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string, amount money.Cents, reason string) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(int64(amount))
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}
	params.Context = ctx

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund %s: %w", paymentIntentID, err)
	}
	return &Refund{ID: r.ID, Status: string(r.Status)}, nil
}

// ConstructEvent проверяет подпись Stripe-Signature и разбирает событие
func (g *StripeGateway) ConstructEvent(payload []byte, signature, secret string) (*Event, error) {
	return constructStripeEvent(payload, signature, secret)
}

func constructStripeEvent(payload []byte, signature, secret string) (*Event, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrSignature)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	out := &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}

// IsProviderError - ошибка пришла от API Stripe, а не из сети
func IsProviderError(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se)
}
