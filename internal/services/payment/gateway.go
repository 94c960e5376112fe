// Package payment - интеграция с платежным провайдером.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dronemarket_backend/internal/money"
)

// ProviderStripe - значение provider в журнале вебхуков
const ProviderStripe = "stripe"

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// Типы событий, которые мы обрабатываем
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventInvoicePaid            = "invoice.payment_succeeded"
	EventInvoiceFailed          = "invoice.payment_failed"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	MetadataTypeJobPayment      = "job_payment"
	MetadataTypeSubscription    = "subscription"
	defaultSubscriptionInterval = "month"
)

// ErrSignature - подпись вебхука не совпала или устарела
var ErrSignature = errors.New("webhook signature verification failed")

// CheckoutRequest - параметры hosted checkout
type CheckoutRequest struct {
	Mode              string
	ProductName       string
	Description       string
	Amount            money.Cents
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

type Refund struct {
	ID     string
	Status string
}

// Event - проверенное событие провайдера; Object - сырой JSON data.object
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Object  json.RawMessage
}

// Gateway - операции провайдера, нужные маркетплейсу
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) error
	Refund(ctx context.Context, paymentIntentID string, amount money.Cents, reason string) (*Refund, error)
	ConstructEvent(payload []byte, signature, secret string) (*Event, error)
}
