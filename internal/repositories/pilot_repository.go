package repositories

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
)

var (
	ErrPilotNotFound      = errors.New("pilot not found")
	ErrPilotAlreadyExists = errors.New("pilot profile already exists")
)

// PilotFilter - фильтры каталога пилотов
type PilotFilter struct {
	Search    string
	MinRating *float64
	Specialty string
	Certified bool
	Available bool
	Now       time.Time
	Pagination
}

type PilotRepository interface {
	Create(db *gorm.DB, pilot *models.Pilot) error
	FindByID(db *gorm.DB, id string) (*models.Pilot, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Pilot, error)
	FindByUserID(db *gorm.DB, userID string) (*models.Pilot, error)
	FindByStripeSubscriptionID(db *gorm.DB, subscriptionID string) (*models.Pilot, error)
	FindByStripeCustomerID(db *gorm.DB, customerID string) (*models.Pilot, error)
	UpdateFields(db *gorm.DB, pilotID string, fields map[string]interface{}) error
	Search(db *gorm.DB, filter PilotFilter) ([]models.Pilot, int64, error)
	FindLucidSuitePilots(db *gorm.DB) ([]models.Pilot, error)
	AddEarnings(db *gorm.DB, pilotID string, amount money.Cents, completedJobs int) error
	DowngradeExpiredMemberships(db *gorm.DB, cutoff time.Time) (int64, error)
}

type PilotRepositoryImpl struct{}

func NewPilotRepository() PilotRepository {
	return &PilotRepositoryImpl{}
}

func (r *PilotRepositoryImpl) Create(db *gorm.DB, pilot *models.Pilot) error {
	var count int64
	if err := db.Model(&models.Pilot{}).Where("user_id = ?", pilot.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPilotAlreadyExists
	}
	return db.Create(pilot).Error
}

func (r *PilotRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Pilot, error) {
	return r.findOne(db.Preload("User").Preload("Insurance"), "id = ?", id)
}

func (r *PilotRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Pilot, error) {
	return r.findOne(forUpdate(db), "id = ?", id)
}

func (r *PilotRepositoryImpl) FindByUserID(db *gorm.DB, userID string) (*models.Pilot, error) {
	return r.findOne(db.Preload("User").Preload("Insurance"), "user_id = ?", userID)
}

func (r *PilotRepositoryImpl) FindByStripeSubscriptionID(db *gorm.DB, subscriptionID string) (*models.Pilot, error) {
	return r.findOne(forUpdate(db), "stripe_subscription_id = ?", subscriptionID)
}

func (r *PilotRepositoryImpl) FindByStripeCustomerID(db *gorm.DB, customerID string) (*models.Pilot, error) {
	return r.findOne(forUpdate(db), "stripe_customer_id = ?", customerID)
}

func (r *PilotRepositoryImpl) findOne(db *gorm.DB, query string, args ...interface{}) (*models.Pilot, error) {
	var pilot models.Pilot
	if err := db.Where(query, args...).First(&pilot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPilotNotFound
		}
		return nil, err
	}
	return &pilot, nil
}

func (r *PilotRepositoryImpl) UpdateFields(db *gorm.DB, pilotID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := db.Model(&models.Pilot{}).Where("id = ?", pilotID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPilotNotFound
	}
	return nil
}

// Search - активные пилоты по рейтингу, затем по числу отзывов
func (r *PilotRepositoryImpl) Search(db *gorm.DB, filter PilotFilter) ([]models.Pilot, int64, error) {
	query := db.Model(&models.Pilot{}).
		Joins("JOIN users ON users.id = pilots.user_id").
		Where("pilots.status = ?", models.PilotStatusActive)

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"LOWER(pilots.business_name) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.MinRating != nil {
		query = query.Where("pilots.rating >= ?", *filter.MinRating)
	}
	if filter.Specialty != "" {
		query = whereJSONArrayContains(query, "pilots.services_offered", filter.Specialty)
	}
	if filter.Certified {
		now := filter.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		query = query.Where("pilots.is_certified = ? AND pilots.certification_expiry > ?", true, now)
	}
	if filter.Available {
		query = query.Where("pilots.is_available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pilots []models.Pilot
	err := query.
		Preload("User").
		Order("pilots.rating DESC").
		Order("pilots.total_reviews DESC").
		Scopes(paginate(filter.Pagination)).
		Find(&pilots).Error
	return pilots, total, err
}

// whereJSONArrayContains - JSON-массив строк содержит значение
func whereJSONArrayContains(db *gorm.DB, column, value string) *gorm.DB {
	if isPostgres(db) {
		doc, _ := json.Marshal([]string{value})
		return db.Where(column+" @> ?::jsonb", string(doc))
	}
	quoted, _ := json.Marshal(value)
	return db.Where(column+" LIKE ?", "%"+string(quoted)+"%")
}

func (r *PilotRepositoryImpl) FindLucidSuitePilots(db *gorm.DB) ([]models.Pilot, error) {
	var pilots []models.Pilot
	err := db.Preload("User").
		Where("is_lucid_suite_customer = ? AND status = ?", true, models.PilotStatusActive).
		Order("rating DESC").
		Find(&pilots).Error
	return pilots, err
}

// AddEarnings атомарно увеличивает заработок; отрицательная сумма - возврат
func (r *PilotRepositoryImpl) AddEarnings(db *gorm.DB, pilotID string, amount money.Cents, completedJobs int) error {
	result := db.Model(&models.Pilot{}).Where("id = ?", pilotID).Updates(map[string]interface{}{
		"total_earnings": gorm.Expr("total_earnings + ?", int64(amount)),
		"completed_jobs": gorm.Expr("completed_jobs + ?", completedJobs),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPilotNotFound
	}
	return nil
}

// DowngradeExpiredMemberships переводит на free платные тарифы, истекшие до cutoff
func (r *PilotRepositoryImpl) DowngradeExpiredMemberships(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Model(&models.Pilot{}).
		Where("membership_status IN ?", []models.MembershipTier{models.MembershipBasic, models.MembershipPremium, models.MembershipEnterprise}).
		Where("membership_expiry IS NOT NULL AND membership_expiry < ?", cutoff).
		Updates(map[string]interface{}{
			"membership_status": models.MembershipFree,
			"membership_expiry": nil,
		})
	return result.RowsAffected, result.Error
}
