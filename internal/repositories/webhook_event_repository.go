package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dronemarket_backend/internal/models"
)

var ErrWebhookEventNotFound = errors.New("webhook event not found")

type WebhookEventRepository interface {
	// Record вставляет событие; false - такое событие уже записано
	Record(db *gorm.DB, event *models.WebhookEvent) (bool, error)
	Find(db *gorm.DB, provider, providerEventID string) (*models.WebhookEvent, error)
	SetOutcome(db *gorm.DB, id string, status models.WebhookStatus, reason string) error
	Count(db *gorm.DB, provider, providerEventID string) (int64, error)
}

type WebhookEventRepositoryImpl struct{}

func NewWebhookEventRepository() WebhookEventRepository {
	return &WebhookEventRepositoryImpl{}
}

func (r *WebhookEventRepositoryImpl) Record(db *gorm.DB, event *models.WebhookEvent) (bool, error) {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *WebhookEventRepositoryImpl) Find(db *gorm.DB, provider, providerEventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := db.First(&event, "provider = ? AND provider_event_id = ?", provider, providerEventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *WebhookEventRepositoryImpl) SetOutcome(db *gorm.DB, id string, status models.WebhookStatus, reason string) error {
	return db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status": status,
		"reason": reason,
	}).Error
}

func (r *WebhookEventRepositoryImpl) Count(db *gorm.DB, provider, providerEventID string) (int64, error) {
	var count int64
	err := db.Model(&models.WebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		Count(&count).Error
	return count, err
}
