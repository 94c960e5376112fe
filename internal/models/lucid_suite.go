package models

import (
	"time"

	"gorm.io/datatypes"
)

type LucidSuiteTier string
type LucidSuiteSyncStatus string

const (
	LucidTierBasic        LucidSuiteTier = "basic"
	LucidTierProfessional LucidSuiteTier = "professional"
	LucidTierEnterprise   LucidSuiteTier = "enterprise"
	LucidTierCustom       LucidSuiteTier = "custom"

	SyncSynced   LucidSuiteSyncStatus = "synced"
	SyncPending  LucidSuiteSyncStatus = "pending"
	SyncFailed   LucidSuiteSyncStatus = "failed"
	SyncDisabled LucidSuiteSyncStatus = "disabled"

	LucidSubscriptionActive = "active"
)

type LucidSuiteUser struct {
	BaseModel
	UserID                string               `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	LucidSuiteCustomerID  string               `gorm:"uniqueIndex;not null" json:"lucidSuiteCustomerId"`
	LucidSuiteAccountID   string               `json:"lucidSuiteAccountId,omitempty"`
	SubscriptionTier      LucidSuiteTier       `gorm:"type:varchar(20);not null;index" json:"subscriptionTier"`
	SubscriptionStatus    string               `gorm:"type:varchar(20);not null;index" json:"subscriptionStatus"`
	SubscriptionStartDate *time.Time           `json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time           `json:"subscriptionEndDate,omitempty"`
	RobotOperatingMinutes int                  `gorm:"not null;default:0" json:"robotOperatingMinutes"`
	MonthlyROMs           int                  `gorm:"column:monthly_roms;not null;default:0" json:"monthlyROMs"`
	TotalROMs             int                  `gorm:"column:total_roms;not null;default:0" json:"totalROMs"`
	LastROMUpdate         *time.Time           `gorm:"column:last_rom_update" json:"lastROMUpdate,omitempty"`
	MarketplaceAccess     bool                 `gorm:"not null;index" json:"marketplaceAccess"`
	PriorityBidding       bool                 `gorm:"not null" json:"priorityBidding"`
	ExclusiveJobs         bool                 `gorm:"not null" json:"exclusiveJobs"`
	APIAccess             bool                 `gorm:"column:api_access;not null" json:"apiAccess"`
	APIKeyHash            string               `gorm:"column:api_key_hash" json:"-"`
	APIKeyExpiry          *time.Time           `gorm:"column:api_key_expiry" json:"apiKeyExpiry,omitempty"`
	IntegrationSettings   datatypes.JSON       `json:"integrationSettings"`
	SyncStatus            LucidSuiteSyncStatus `gorm:"type:varchar(20);not null;index" json:"syncStatus"`
	LastSyncAt            *time.Time           `json:"lastSyncAt,omitempty"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (l *LucidSuiteUser) IsSubscriptionActive(now time.Time) bool {
	if l.SubscriptionStatus != LucidSubscriptionActive {
		return false
	}
	return l.SubscriptionEndDate == nil || !now.After(*l.SubscriptionEndDate)
}

func (l *LucidSuiteUser) CanAccessMarketplace(now time.Time) bool {
	return l.MarketplaceAccess && l.IsSubscriptionActive(now)
}

// AddMonthlyROMs начисляет минуты работы роботов
func (l *LucidSuiteUser) AddMonthlyROMs(minutes int, now time.Time) {
	l.MonthlyROMs += minutes
	l.TotalROMs += minutes
	l.RobotOperatingMinutes += minutes
	l.LastROMUpdate = &now
}

func (l *LucidSuiteUser) IsAPIKeyValid(now time.Time) bool {
	return l.APIKeyHash != "" && l.APIKeyExpiry != nil && now.Before(*l.APIKeyExpiry)
}
