package models

import (
	"math"
	"time"

	"gorm.io/datatypes"

	"dronemarket_backend/internal/money"
)

type PolicyType string
type BillingCycle string
type VerificationMethod string

const (
	PolicyGeneralLiability      PolicyType = "general_liability"
	PolicyProfessionalLiability PolicyType = "professional_liability"
	PolicyDroneLiability        PolicyType = "drone_liability"
	PolicyComprehensive         PolicyType = "comprehensive"
	PolicyOther                 PolicyType = "other"

	BillingMonthly   BillingCycle = "monthly"
	BillingQuarterly BillingCycle = "quarterly"
	BillingAnnually  BillingCycle = "annually"

	VerificationManual         VerificationMethod = "manual"
	VerificationAPI            VerificationMethod = "api"
	VerificationDocumentUpload VerificationMethod = "document_upload"
)

type Insurance struct {
	BaseModel
	PilotID            string             `gorm:"type:uuid;uniqueIndex;not null" json:"pilotId"`
	Provider           string             `gorm:"not null;index" json:"provider"`
	PolicyNumber       string             `gorm:"not null" json:"policyNumber"`
	PolicyType         PolicyType         `gorm:"type:varchar(30);not null;index" json:"policyType"`
	CoverageAmount     money.Cents        `gorm:"not null" json:"coverageAmount"`
	Deductible         money.Cents        `json:"deductible"`
	Premium            money.Cents        `json:"premium"`
	BillingCycle       BillingCycle       `gorm:"type:varchar(20)" json:"billingCycle,omitempty"`
	EffectiveDate      time.Time          `gorm:"not null" json:"effectiveDate"`
	ExpiryDate         time.Time          `gorm:"not null;index" json:"expiryDate"`
	IsActive           bool               `gorm:"not null;index" json:"isActive"`
	IsVerified         bool               `gorm:"not null;index" json:"isVerified"`
	VerificationDate   *time.Time         `json:"verificationDate,omitempty"`
	VerificationMethod VerificationMethod `gorm:"type:varchar(20)" json:"verificationMethod,omitempty"`
	CoverageDetails    datatypes.JSON     `json:"coverageDetails"`
	ClaimsHistory      datatypes.JSON     `json:"claimsHistory"`
	DocumentURL        string             `json:"documentUrl,omitempty"`
	Notes              string             `gorm:"type:text" json:"notes,omitempty"`
	ReminderSentAt     *time.Time         `json:"-"`

	// Relations
	Pilot *Pilot `gorm:"foreignKey:PilotID" json:"pilot,omitempty"`
}

// Claim - запись в истории страховых случаев
type Claim struct {
	Date        time.Time   `json:"date"`
	Amount      money.Cents `json:"amount"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
}

// IsValid - полис активен, проверен и не истек
func (i *Insurance) IsValid(now time.Time) bool {
	if !i.IsActive || !i.IsVerified {
		return false
	}
	return now.Before(i.ExpiryDate)
}

// DaysUntilExpiry - дни до окончания, округление вверх
func (i *Insurance) DaysUntilExpiry(now time.Time) int {
	return int(math.Ceil(i.ExpiryDate.Sub(now).Hours() / 24))
}

func (i *Insurance) IsExpiringSoon(now time.Time, days int) bool {
	return i.IsValid(now) && i.DaysUntilExpiry(now) <= days
}
