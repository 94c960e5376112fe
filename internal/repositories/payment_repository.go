package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dronemarket_backend/internal/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository interface {
	Create(db *gorm.DB, payment *models.Payment) error
	FindByID(db *gorm.DB, id string) (*models.Payment, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Payment, error)
	FindBySessionIDForUpdate(db *gorm.DB, sessionID string) (*models.Payment, error)
	UpdateFields(db *gorm.DB, paymentID string, fields map[string]interface{}) error
	ListForParty(db *gorm.DB, userID, pilotID string, p Pagination) ([]models.Payment, int64, error)
	ListAll(db *gorm.DB, p Pagination) ([]models.Payment, int64, error)
	CountByBid(db *gorm.DB, bidID string, status models.PaymentStatus) (int64, error)
	FindPendingByBid(db *gorm.DB, bidID string) (*models.Payment, error)
}

type PaymentRepositoryImpl struct{}

func NewPaymentRepository() PaymentRepository {
	return &PaymentRepositoryImpl{}
}

func (r *PaymentRepositoryImpl) Create(db *gorm.DB, payment *models.Payment) error {
	return db.Create(payment).Error
}

func (r *PaymentRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Payment, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *PaymentRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Payment, error) {
	return r.findOne(forUpdate(db), "id = ?", id)
}

func (r *PaymentRepositoryImpl) FindBySessionIDForUpdate(db *gorm.DB, sessionID string) (*models.Payment, error) {
	return r.findOne(forUpdate(db), "stripe_session_id = ?", sessionID)
}

func (r *PaymentRepositoryImpl) findOne(db *gorm.DB, query string, args ...interface{}) (*models.Payment, error) {
	var payment models.Payment
	if err := db.Where(query, args...).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) UpdateFields(db *gorm.DB, paymentID string, fields map[string]interface{}) error {
	result := db.Model(&models.Payment{}).Where("id = ?", paymentID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// ListForParty - платежи, где пользователь заказчик или пилот
func (r *PaymentRepositoryImpl) ListForParty(db *gorm.DB, userID, pilotID string, p Pagination) ([]models.Payment, int64, error) {
	query := db.Model(&models.Payment{})
	if pilotID != "" {
		query = query.Where("property_manager_id = ? OR pilot_id = ?", userID, pilotID)
	} else {
		query = query.Where("property_manager_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := query.Order("created_at DESC").Scopes(paginate(p)).Find(&payments).Error
	return payments, total, err
}

func (r *PaymentRepositoryImpl) ListAll(db *gorm.DB, p Pagination) ([]models.Payment, int64, error) {
	query := db.Model(&models.Payment{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := query.Order("created_at DESC").Scopes(paginate(p)).Find(&payments).Error
	return payments, total, err
}

func (r *PaymentRepositoryImpl) CountByBid(db *gorm.DB, bidID string, status models.PaymentStatus) (int64, error) {
	var count int64
	err := db.Model(&models.Payment{}).Where("bid_id = ? AND status = ?", bidID, status).Count(&count).Error
	return count, err
}

// FindPendingByBid - последний открытый checkout по ставке
func (r *PaymentRepositoryImpl) FindPendingByBid(db *gorm.DB, bidID string) (*models.Payment, error) {
	var payment models.Payment
	err := db.Where("bid_id = ? AND status = ? AND stripe_session_id IS NOT NULL", bidID, models.PaymentStatusPending).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}
