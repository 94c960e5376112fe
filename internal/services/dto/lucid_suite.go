package dto

import (
	"time"

	"dronemarket_backend/internal/models"
)

type ConnectLucidSuiteRequest struct {
	LucidSuiteCustomerID string                `json:"lucidSuiteCustomerId" validate:"required,max=100"`
	LucidSuiteAccountID  string                `json:"lucidSuiteAccountId" validate:"omitempty,max=100"`
	SubscriptionTier     models.LucidSuiteTier `json:"subscriptionTier" validate:"required,is-lucid-tier"`
}

type LucidSuiteConnectionResponse struct {
	Connected            bool                  `json:"connected"`
	LucidSuiteCustomerID string                `json:"lucidSuiteCustomerId,omitempty"`
	SubscriptionTier     models.LucidSuiteTier `json:"subscriptionTier,omitempty"`
	IntegrationDate      *time.Time            `json:"integrationDate,omitempty"`
}

type AddROMsRequest struct {
	Minutes int `json:"minutes" validate:"required,gt=0"`
}

// APIKeyResponse - ключ показывается один раз
type APIKeyResponse struct {
	APIKey    string    `json:"apiKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type LucidSuiteSyncRequest struct {
	UserID     string                      `json:"userId" validate:"required,uuid"`
	SyncStatus models.LucidSuiteSyncStatus `json:"syncStatus" validate:"required,is-sync-status"`
}
