package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"dronemarket_backend/internal/models"
)

var (
	ErrInsuranceNotFound      = errors.New("insurance not found")
	ErrInsuranceAlreadyExists = errors.New("insurance already exists")
)

type InsuranceRepository interface {
	Create(db *gorm.DB, ins *models.Insurance) error
	FindByID(db *gorm.DB, id string) (*models.Insurance, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Insurance, error)
	FindByPilotID(db *gorm.DB, pilotID string) (*models.Insurance, error)
	UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
	FindExpiring(db *gorm.DB, now, until time.Time) ([]models.Insurance, error)
	FindNeedingReminder(db *gorm.DB, now, until time.Time) ([]models.Insurance, error)
	MarkReminderSent(db *gorm.DB, id string, at time.Time) error
	DeactivateExpired(db *gorm.DB, now time.Time) (int64, error)
}

type InsuranceRepositoryImpl struct{}

func NewInsuranceRepository() InsuranceRepository {
	return &InsuranceRepositoryImpl{}
}

func (r *InsuranceRepositoryImpl) Create(db *gorm.DB, ins *models.Insurance) error {
	var count int64
	if err := db.Model(&models.Insurance{}).Where("pilot_id = ?", ins.PilotID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrInsuranceAlreadyExists
	}
	return db.Create(ins).Error
}

func (r *InsuranceRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Insurance, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *InsuranceRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Insurance, error) {
	return r.findOne(forUpdate(db), "id = ?", id)
}

func (r *InsuranceRepositoryImpl) FindByPilotID(db *gorm.DB, pilotID string) (*models.Insurance, error) {
	return r.findOne(db, "pilot_id = ?", pilotID)
}

func (r *InsuranceRepositoryImpl) findOne(db *gorm.DB, query string, args ...interface{}) (*models.Insurance, error) {
	var ins models.Insurance
	if err := db.Where(query, args...).First(&ins).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsuranceNotFound
		}
		return nil, err
	}
	return &ins, nil
}

func (r *InsuranceRepositoryImpl) UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error {
	result := db.Model(&models.Insurance{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsuranceNotFound
	}
	return nil
}

func (r *InsuranceRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Insurance{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsuranceNotFound
	}
	return nil
}

// FindExpiring - действующие проверенные полисы, истекающие в окне [now, until]
func (r *InsuranceRepositoryImpl) FindExpiring(db *gorm.DB, now, until time.Time) ([]models.Insurance, error) {
	var list []models.Insurance
	err := db.Preload("Pilot.User").
		Where("is_active = ? AND is_verified = ?", true, true).
		Where("expiry_date BETWEEN ? AND ?", now, until).
		Order("expiry_date ASC").
		Find(&list).Error
	return list, err
}

func (r *InsuranceRepositoryImpl) FindNeedingReminder(db *gorm.DB, now, until time.Time) ([]models.Insurance, error) {
	var list []models.Insurance
	err := db.Preload("Pilot.User").
		Where("is_active = ? AND is_verified = ? AND reminder_sent_at IS NULL", true, true).
		Where("expiry_date BETWEEN ? AND ?", now, until).
		Find(&list).Error
	return list, err
}

func (r *InsuranceRepositoryImpl) MarkReminderSent(db *gorm.DB, id string, at time.Time) error {
	return r.UpdateFields(db, id, map[string]interface{}{"reminder_sent_at": at})
}

// DeactivateExpired снимает флаг активности с истекших полисов
func (r *InsuranceRepositoryImpl) DeactivateExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Insurance{}).
		Where("is_active = ? AND expiry_date <= ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
