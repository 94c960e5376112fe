package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookStatus string

const (
	WebhookProcessed WebhookStatus = "processed"
	WebhookSkipped   WebhookStatus = "skipped"
	WebhookFailed    WebhookStatus = "failed"
)

// WebhookEvent - журнал обработанных событий платежного провайдера.
// Пара (provider, provider_event_id) уникальна.
type WebhookEvent struct {
	BaseModel
	Provider        string         `gorm:"size:32;not null;uniqueIndex:idx_webhook_provider_event" json:"provider"`
	ProviderEventID string         `gorm:"size:255;not null;uniqueIndex:idx_webhook_provider_event" json:"providerEventId"`
	EventType       string         `gorm:"size:100;not null;index" json:"eventType"`
	Status          WebhookStatus  `gorm:"type:varchar(20);not null" json:"status"`
	Reason          string         `json:"reason,omitempty"`
	EventCreatedAt  time.Time      `json:"eventCreatedAt"`
	Payload         datatypes.JSON `json:"-"`
}
