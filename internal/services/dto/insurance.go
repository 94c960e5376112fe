package dto

import (
	"time"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
)

type CreateInsuranceRequest struct {
	Provider        string              `json:"provider" validate:"required,max=100"`
	PolicyNumber    string              `json:"policyNumber" validate:"required,max=100"`
	PolicyType      models.PolicyType   `json:"policyType" validate:"required,is-policy-type"`
	CoverageAmount  money.Cents         `json:"coverageAmount" validate:"required,gt=0"`
	Deductible      money.Cents         `json:"deductible" validate:"gte=0"`
	Premium         money.Cents         `json:"premium" validate:"gte=0"`
	BillingCycle    models.BillingCycle `json:"billingCycle" validate:"omitempty,is-billing-cycle"`
	EffectiveDate   time.Time           `json:"effectiveDate" validate:"required"`
	ExpiryDate      time.Time           `json:"expiryDate" validate:"required,gtfield=EffectiveDate"`
	CoverageDetails map[string]any      `json:"coverageDetails"`
	Notes           string              `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateInsuranceRequest struct {
	Provider        *string              `json:"provider,omitempty" validate:"omitempty,max=100"`
	PolicyNumber    *string              `json:"policyNumber,omitempty" validate:"omitempty,max=100"`
	PolicyType      *models.PolicyType   `json:"policyType,omitempty" validate:"omitempty,is-policy-type"`
	CoverageAmount  *money.Cents         `json:"coverageAmount,omitempty" validate:"omitempty,gt=0"`
	Deductible      *money.Cents         `json:"deductible,omitempty" validate:"omitempty,gte=0"`
	Premium         *money.Cents         `json:"premium,omitempty" validate:"omitempty,gte=0"`
	BillingCycle    *models.BillingCycle `json:"billingCycle,omitempty" validate:"omitempty,is-billing-cycle"`
	EffectiveDate   *time.Time           `json:"effectiveDate,omitempty"`
	ExpiryDate      *time.Time           `json:"expiryDate,omitempty"`
	CoverageDetails map[string]any       `json:"coverageDetails,omitempty"`
	Notes           *string              `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type VerifyInsuranceRequest struct {
	Method models.VerificationMethod `json:"method" validate:"required,is-verification-method"`
}

type ClaimRequest struct {
	Date        time.Time   `json:"date" validate:"required"`
	Amount      money.Cents `json:"amount" validate:"gte=0"`
	Description string      `json:"description" validate:"required,max=1000"`
	Status      string      `json:"status" validate:"omitempty,oneof=open pending approved denied closed"`
}

type ExpiringQuery struct {
	Days int `form:"days" json:"days" validate:"omitempty,min=1,max=365"`
}

// InsuranceResponse - полис с вычисляемыми признаками
type InsuranceResponse struct {
	*models.Insurance
	IsValidNow      bool `json:"isValid"`
	DaysUntilExpiry int  `json:"daysUntilExpiry"`
	ExpiringSoon    bool `json:"isExpiringSoon"`
}

func NewInsuranceResponse(ins *models.Insurance, now time.Time, reminderDays int) *InsuranceResponse {
	return &InsuranceResponse{
		Insurance:       ins,
		IsValidNow:      ins.IsValid(now),
		DaysUntilExpiry: ins.DaysUntilExpiry(now),
		ExpiringSoon:    ins.IsExpiringSoon(now, reminderDays),
	}
}
