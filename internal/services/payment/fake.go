package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"dronemarket_backend/internal/money"
)

// FakeGateway - Gateway в памяти для тестов и работы без ключа Stripe.
// Подпись вебхуков проверяется настоящим алгоритмом Stripe.
type FakeGateway struct {
	mu        sync.Mutex
	Sessions  []CheckoutRequest
	Cancelled []string
	Refunds   []string
	// Err возвращается всеми исходящими вызовами, если задан
	Err error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Sessions = append(f.Sessions, req)
	id := "cs_test_" + uuid.NewString()[:8]
	return &CheckoutSession{ID: id, URL: fmt.Sprintf("https://checkout.stripe.test/%s", id)}, nil
}

func (f *FakeGateway) CancelSubscriptionAtPeriodEnd(_ context.Context, subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Cancelled = append(f.Cancelled, subscriptionID)
	return nil
}

func (f *FakeGateway) Refund(_ context.Context, paymentIntentID string, _ money.Cents, _ string) (*Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Refunds = append(f.Refunds, paymentIntentID)
	return &Refund{ID: "re_test_" + uuid.NewString()[:8], Status: "succeeded"}, nil
}

func (f *FakeGateway) ConstructEvent(payload []byte, signature, secret string) (*Event, error) {
	return constructStripeEvent(payload, signature, secret)
}

// LastSession - последний созданный checkout
func (f *FakeGateway) LastSession() (CheckoutRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sessions) == 0 {
		return CheckoutRequest{}, false
	}
	return f.Sessions[len(f.Sessions)-1], true
}
