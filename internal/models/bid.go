package models

import (
	"time"

	"gorm.io/datatypes"

	"dronemarket_backend/internal/money"
)

type Bid struct {
	BaseModel
	JobID             string         `gorm:"type:uuid;not null;index" json:"jobId"`
	PilotID           string         `gorm:"type:uuid;not null;index" json:"pilotId"`
	Amount            money.Cents    `gorm:"not null;index" json:"amount"`
	Currency          string         `gorm:"default:'USD'" json:"currency"`
	EstimatedDuration *int           `json:"estimatedDuration,omitempty"`
	ProposedStartDate *time.Time     `json:"proposedStartDate,omitempty"`
	ProposedEndDate   *time.Time     `json:"proposedEndDate,omitempty"`
	Message           string         `gorm:"type:text" json:"message,omitempty"`
	Inclusions        datatypes.JSON `json:"inclusions"`
	Exclusions        datatypes.JSON `json:"exclusions"`
	Warranty          *int           `json:"warranty,omitempty"`
	Terms             string         `gorm:"type:text" json:"terms,omitempty"`
	Status            BidStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	IsPriority        bool           `gorm:"not null;index" json:"isPriority"`
	PriorityFee       money.Cents    `json:"priorityFee"`
	TotalAmount       money.Cents    `gorm:"not null" json:"totalAmount"`
	CommissionAmount  money.Cents    `gorm:"not null" json:"commissionAmount"`
	PilotAmount       money.Cents    `gorm:"not null" json:"pilotAmount"`
	AcceptedAt        *time.Time     `json:"acceptedAt,omitempty"`
	RejectedAt        *time.Time     `json:"rejectedAt,omitempty"`
	RejectionReason   string         `gorm:"type:text" json:"rejectionReason,omitempty"`
	WithdrawnAt       *time.Time     `json:"withdrawnAt,omitempty"`
	WithdrawalReason  string         `gorm:"type:text" json:"withdrawalReason,omitempty"`
	AwardedAt         *time.Time     `json:"awardedAt,omitempty"`
	IsRead            bool           `gorm:"not null" json:"isRead"`
	ReadAt            *time.Time     `json:"readAt,omitempty"`

	// Relations
	Job   *Job   `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Pilot *Pilot `gorm:"foreignKey:PilotID" json:"pilot,omitempty"`
}

// CalculateTotals считает итог и делит его по ставке комиссии.
// Приоритетный сбор учитывается только для приоритетной ставки.
func (b *Bid) CalculateTotals(rate money.BasisPoints) {
	if !b.IsPriority {
		b.PriorityFee = 0
	}
	b.TotalAmount = b.Amount + b.PriorityFee
	b.CommissionAmount, b.PilotAmount = money.Split(b.TotalAmount, rate)
}
