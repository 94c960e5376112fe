package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dronemarket_backend/internal/models"
)

var (
	ErrLucidSuiteNotFound      = errors.New("lucid suite link not found")
	ErrLucidSuiteAlreadyExists = errors.New("lucid suite link already exists")
	ErrLucidSuiteCustomerTaken = errors.New("lucid suite customer id already linked")
)

type LucidSuiteRepository interface {
	Create(db *gorm.DB, link *models.LucidSuiteUser) error
	FindByUserID(db *gorm.DB, userID string) (*models.LucidSuiteUser, error)
	FindByUserIDForUpdate(db *gorm.DB, userID string) (*models.LucidSuiteUser, error)
	UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
}

type LucidSuiteRepositoryImpl struct{}

func NewLucidSuiteRepository() LucidSuiteRepository {
	return &LucidSuiteRepositoryImpl{}
}

func (r *LucidSuiteRepositoryImpl) Create(db *gorm.DB, link *models.LucidSuiteUser) error {
	var count int64
	if err := db.Model(&models.LucidSuiteUser{}).Where("user_id = ?", link.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrLucidSuiteAlreadyExists
	}
	if err := db.Model(&models.LucidSuiteUser{}).
		Where("lucid_suite_customer_id = ?", link.LucidSuiteCustomerID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrLucidSuiteCustomerTaken
	}
	return db.Create(link).Error
}

func (r *LucidSuiteRepositoryImpl) FindByUserID(db *gorm.DB, userID string) (*models.LucidSuiteUser, error) {
	return r.findOne(db, userID)
}

func (r *LucidSuiteRepositoryImpl) FindByUserIDForUpdate(db *gorm.DB, userID string) (*models.LucidSuiteUser, error) {
	return r.findOne(forUpdate(db), userID)
}

func (r *LucidSuiteRepositoryImpl) findOne(db *gorm.DB, userID string) (*models.LucidSuiteUser, error) {
	var link models.LucidSuiteUser
	if err := db.First(&link, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLucidSuiteNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *LucidSuiteRepositoryImpl) UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error {
	result := db.Model(&models.LucidSuiteUser{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLucidSuiteNotFound
	}
	return nil
}

func (r *LucidSuiteRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.LucidSuiteUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLucidSuiteNotFound
	}
	return nil
}
