package dto

import (
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
)

type CreateJobPaymentRequest struct {
	BidID string `json:"bidId" validate:"required,uuid"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// RefundRequest - без amount возвращается вся сумма
type RefundRequest struct {
	Amount money.Cents `json:"amount" validate:"gte=0"`
	Reason string      `json:"reason" validate:"omitempty,max=500"`
}

type PaymentListResponse struct {
	Payments   []models.Payment `json:"payments"`
	Pagination Pagination       `json:"pagination"`
}

// WebhookResponse - ответ провайдеру
type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}
