package models

import (
	"time"

	"gorm.io/datatypes"

	"dronemarket_backend/internal/money"
)

type Payment struct {
	BaseModel
	BidID                 *string        `gorm:"type:uuid;index" json:"bidId,omitempty"`
	JobID                 *string        `gorm:"type:uuid;index" json:"jobId,omitempty"`
	PilotID               *string        `gorm:"type:uuid;index" json:"pilotId,omitempty"`
	PropertyManagerID     *string        `gorm:"type:uuid;index" json:"propertyManagerId,omitempty"`
	Amount                money.Cents    `gorm:"not null" json:"amount"`
	Currency              string         `gorm:"default:'USD'" json:"currency"`
	PaymentType           PaymentType    `gorm:"type:varchar(30);not null;index" json:"paymentType"`
	PaymentMethod         PaymentMethod  `gorm:"type:varchar(30)" json:"paymentMethod,omitempty"`
	StripeSessionID       *string        `gorm:"index" json:"stripeSessionId,omitempty"`
	CheckoutURL           string         `gorm:"type:text" json:"checkoutUrl,omitempty"`
	StripePaymentIntentID *string        `gorm:"index" json:"stripePaymentIntentId,omitempty"`
	StripeInvoiceID       *string        `json:"stripeInvoiceId,omitempty"`
	StripeChargeID        *string        `json:"stripeChargeId,omitempty"`
	Status                PaymentStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	CommissionAmount      money.Cents    `gorm:"not null" json:"commissionAmount"`
	PilotAmount           money.Cents    `gorm:"not null" json:"pilotAmount"`
	PlatformFee           money.Cents    `json:"platformFee"`
	ProcessingFee         money.Cents    `json:"processingFee"`
	Description           string         `gorm:"type:text" json:"description,omitempty"`
	FailureReason         string         `gorm:"type:text" json:"failureReason,omitempty"`
	ProcessedAt           *time.Time     `json:"processedAt,omitempty"`
	RefundedAt            *time.Time     `json:"refundedAt,omitempty"`
	RefundAmount          money.Cents    `json:"refundAmount"`
	RefundReason          string         `gorm:"type:text" json:"refundReason,omitempty"`
	// RefundRequired - лишняя оплата уже оплаченной ставки, пилоту не зачислена
	RefundRequired bool           `gorm:"not null;default:false;index" json:"refundRequired"`
	Metadata              datatypes.JSON `json:"metadata,omitempty"`
}

// CalculateTotals - доля пилота после комиссии и сборов
func (p *Payment) CalculateTotals(rate money.BasisPoints) {
	p.CommissionAmount = money.Percent(p.Amount, rate)
	p.PilotAmount = p.Amount - p.CommissionAmount - p.PlatformFee - p.ProcessingFee
}

// IsParty - пользователь заказчик или пилот платежа
func (p *Payment) IsParty(userID, pilotID string) bool {
	if p.PropertyManagerID != nil && *p.PropertyManagerID == userID {
		return true
	}
	return pilotID != "" && p.PilotID != nil && *p.PilotID == pilotID
}
