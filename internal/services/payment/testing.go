package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81/webhook"
)

// SignedEvent собирает тело события и заголовок Stripe-Signature для него.
// Используется в тестах и в локальной отладке вебхуков.
func SignedEvent(secret, id, eventType string, created time.Time, object any) ([]byte, string, error) {
	obj, err := json.Marshal(object)
	if err != nil {
		return nil, "", fmt.Errorf("marshal event object: %w", err)
	}
	body, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"created":     created.Unix(),
		"api_version": "2024-09-30.acacia",
		"data":        map[string]json.RawMessage{"object": obj},
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshal event: %w", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return body, signed.Header, nil
}
