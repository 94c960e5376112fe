package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BeforeCreate проставляет UUID, если ID не задан
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AllModels - порядок для AutoMigrate
func AllModels() []any {
	return []any{
		&User{},
		&Pilot{},
		&Job{},
		&Bid{},
		&Payment{},
		&Insurance{},
		&LucidSuiteUser{},
		&WebhookEvent{},
	}
}
