// Package events - доменные события маркетплейса и их рассылка после коммита.
package events

import (
	"context"
	"errors"
	"time"

	"dronemarket_backend/internal/logger"
)

const (
	BidSubmitted            = "bid.submitted"
	BidAccepted             = "bid.accepted"
	BidRejected             = "bid.rejected"
	BidWithdrawn            = "bid.withdrawn"
	PaymentCompleted        = "payment.completed"
	PaymentRefunded         = "payment.refunded"
	MembershipUpdated       = "membership.updated"
	MembershipPaymentFailed = "membership.payment_failed"
	InsuranceExpiring       = "insurance.expiring"
)

// Recipient - адресат уведомления
type Recipient struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Event - факт, уже зафиксированный в базе
type Event struct {
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurredAt"`
	Recipients []Recipient    `json:"recipients,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(name string, data map[string]any, recipients ...Recipient) Event {
	return Event{
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Recipients: recipients,
		Data:       data,
	}
}

// Publisher доставляет событие одному каналу (NATS, websocket, email)
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// Nop - публикатор, который ничего не делает
func Nop() Publisher { return nopPublisher{} }

// Multi рассылает событие во все каналы; ошибки логируются и собираются
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			logger.CtxWithError(ctx, "event publish failed", err, "event", ev.Name)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishAll - удобный помощник для сервисов: событие не должно ломать запрос
func PublishAll(ctx context.Context, p Publisher, evs ...Event) {
	if p == nil {
		return
	}
	for _, ev := range evs {
		_ = p.Publish(ctx, ev)
	}
}
