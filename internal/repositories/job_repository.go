package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
)

var ErrJobNotFound = errors.New("job not found")

// JobFilter - фильтры доски работ
type JobFilter struct {
	Status       models.JobStatus
	PropertyType models.PropertyType
	CleaningType models.CleaningType
	BudgetMin    *money.Cents
	BudgetMax    *money.Cents
	City         string
	Search       string
	Pagination
}

type JobRepository interface {
	Create(db *gorm.DB, job *models.Job) error
	FindByID(db *gorm.DB, id string) (*models.Job, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Job, error)
	UpdateFields(db *gorm.DB, jobID string, fields map[string]interface{}) error
	Delete(db *gorm.DB, jobID string) error
	List(db *gorm.DB, filter JobFilter) ([]models.Job, int64, error)
	ListByManager(db *gorm.DB, managerID string, p Pagination) ([]models.Job, int64, error)
	IncrementViewCount(db *gorm.DB, jobID string) error
	IncrementBidCount(db *gorm.DB, jobID string) error
	HasCompletedJobWithPilot(db *gorm.DB, managerID, pilotID string) (bool, error)
}

type JobRepositoryImpl struct{}

func NewJobRepository() JobRepository {
	return &JobRepositoryImpl{}
}

func (r *JobRepositoryImpl) Create(db *gorm.DB, job *models.Job) error {
	return db.Create(job).Error
}

func (r *JobRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Job, error) {
	return r.findOne(db.Preload("PropertyManager"), id)
}

func (r *JobRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Job, error) {
	return r.findOne(forUpdate(db), id)
}

func (r *JobRepositoryImpl) findOne(db *gorm.DB, id string) (*models.Job, error) {
	var job models.Job
	if err := db.First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepositoryImpl) UpdateFields(db *gorm.DB, jobID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := db.Model(&models.Job{}).Where("id = ?", jobID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepositoryImpl) Delete(db *gorm.DB, jobID string) error {
	result := db.Where("id = ?", jobID).Delete(&models.Job{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// List - без фильтра статуса возвращает активную доску (published|bidding, публичные)
func (r *JobRepositoryImpl) List(db *gorm.DB, filter JobFilter) ([]models.Job, int64, error) {
	query := db.Model(&models.Job{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status IN ? AND is_public = ?", models.BoardJobStatuses, true)
	}
	if filter.PropertyType != "" {
		query = query.Where("property_type = ?", filter.PropertyType)
	}
	if filter.CleaningType != "" {
		query = query.Where("cleaning_type = ?", filter.CleaningType)
	}
	if filter.BudgetMin != nil {
		query = query.Where("budget >= ?", int64(*filter.BudgetMin))
	}
	if filter.BudgetMax != nil {
		query = query.Where("budget <= ?", int64(*filter.BudgetMax))
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) LIKE ?", likePattern(filter.City))
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []models.Job
	err := query.Preload("PropertyManager").
		Order("created_at DESC").
		Scopes(paginate(filter.Pagination)).
		Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepositoryImpl) ListByManager(db *gorm.DB, managerID string, p Pagination) ([]models.Job, int64, error) {
	query := db.Model(&models.Job{}).Where("property_manager_id = ?", managerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []models.Job
	err := query.Order("created_at DESC").Scopes(paginate(p)).Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepositoryImpl) IncrementViewCount(db *gorm.DB, jobID string) error {
	return db.Model(&models.Job{}).Where("id = ?", jobID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *JobRepositoryImpl) IncrementBidCount(db *gorm.DB, jobID string) error {
	return db.Model(&models.Job{}).Where("id = ?", jobID).
		UpdateColumn("bid_count", gorm.Expr("bid_count + 1")).Error
}

// HasCompletedJobWithPilot - у заказчика есть завершенная работа, выигранная пилотом
func (r *JobRepositoryImpl) HasCompletedJobWithPilot(db *gorm.DB, managerID, pilotID string) (bool, error) {
	var count int64
	err := db.Model(&models.Job{}).
		Joins("JOIN bids ON bids.id = jobs.awarded_bid_id").
		Where("jobs.property_manager_id = ? AND jobs.status = ? AND bids.pilot_id = ?",
			managerID, models.JobStatusCompleted, pilotID).
		Count(&count).Error
	return count > 0, err
}
