package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"dronemarket_backend/internal/models"
)

var ErrBidNotFound = errors.New("bid not found")

type BidRepository interface {
	Create(db *gorm.DB, bid *models.Bid) error
	FindByID(db *gorm.DB, id string) (*models.Bid, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Bid, error)
	HasActiveBid(db *gorm.DB, jobID, pilotID string) (bool, error)
	UpdateFields(db *gorm.DB, bidID string, fields map[string]interface{}) error
	TransitionStatus(db *gorm.DB, bidID string, from []models.BidStatus, fields map[string]interface{}) (bool, error)
	RejectOtherActive(db *gorm.DB, jobID, exceptBidID, reason string, at time.Time) (int64, error)
	ListByJob(db *gorm.DB, jobID string) ([]models.Bid, error)
	ListByPilot(db *gorm.DB, pilotID string, p Pagination) ([]models.Bid, int64, error)
	ListForManager(db *gorm.DB, managerID, jobID string, p Pagination) ([]models.Bid, int64, error)
	ListAll(db *gorm.DB, p Pagination) ([]models.Bid, int64, error)
	DeleteByJob(db *gorm.DB, jobID string) error
}

type BidRepositoryImpl struct{}

func NewBidRepository() BidRepository {
	return &BidRepositoryImpl{}
}

func (r *BidRepositoryImpl) Create(db *gorm.DB, bid *models.Bid) error {
	return db.Create(bid).Error
}

func (r *BidRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Bid, error) {
	return r.findOne(db.Preload("Job").Preload("Pilot.User"), id)
}

func (r *BidRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Bid, error) {
	return r.findOne(forUpdate(db), id)
}

func (r *BidRepositoryImpl) findOne(db *gorm.DB, id string) (*models.Bid, error) {
	var bid models.Bid
	if err := db.First(&bid, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}
	return &bid, nil
}

// HasActiveBid - вызывать под блокировкой строки работы
func (r *BidRepositoryImpl) HasActiveBid(db *gorm.DB, jobID, pilotID string) (bool, error) {
	var count int64
	err := db.Model(&models.Bid{}).
		Where("job_id = ? AND pilot_id = ? AND status IN ?", jobID, pilotID, models.ActiveBidStatuses).
		Count(&count).Error
	return count > 0, err
}

func (r *BidRepositoryImpl) UpdateFields(db *gorm.DB, bidID string, fields map[string]interface{}) error {
	result := db.Model(&models.Bid{}).Where("id = ?", bidID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBidNotFound
	}
	return nil
}

// TransitionStatus - условное обновление: false, если статус уже сменился
func (r *BidRepositoryImpl) TransitionStatus(db *gorm.DB, bidID string, from []models.BidStatus, fields map[string]interface{}) (bool, error) {
	result := db.Model(&models.Bid{}).
		Where("id = ? AND status IN ?", bidID, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RejectOtherActive отклоняет все прочие активные ставки на работу
func (r *BidRepositoryImpl) RejectOtherActive(db *gorm.DB, jobID, exceptBidID, reason string, at time.Time) (int64, error) {
	result := db.Model(&models.Bid{}).
		Where("job_id = ? AND id <> ? AND status IN ?", jobID, exceptBidID, models.ActiveBidStatuses).
		Updates(map[string]interface{}{
			"status":           models.BidStatusRejected,
			"rejected_at":      at,
			"rejection_reason": reason,
		})
	return result.RowsAffected, result.Error
}

// ListByJob - сначала дешевые, при равенстве более ранние
func (r *BidRepositoryImpl) ListByJob(db *gorm.DB, jobID string) ([]models.Bid, error) {
	var bids []models.Bid
	err := db.Preload("Pilot.User").
		Where("job_id = ?", jobID).
		Order("total_amount ASC").
		Order("created_at ASC").
		Find(&bids).Error
	return bids, err
}

func (r *BidRepositoryImpl) ListByPilot(db *gorm.DB, pilotID string, p Pagination) ([]models.Bid, int64, error) {
	query := db.Model(&models.Bid{}).Where("pilot_id = ?", pilotID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bids []models.Bid
	err := query.Preload("Job").Order("created_at DESC").Scopes(paginate(p)).Find(&bids).Error
	return bids, total, err
}

func (r *BidRepositoryImpl) ListForManager(db *gorm.DB, managerID, jobID string, p Pagination) ([]models.Bid, int64, error) {
	query := db.Model(&models.Bid{}).
		Joins("JOIN jobs ON jobs.id = bids.job_id").
		Where("jobs.property_manager_id = ?", managerID)
	if jobID != "" {
		query = query.Where("bids.job_id = ?", jobID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bids []models.Bid
	err := query.Preload("Job").Preload("Pilot.User").
		Order("bids.total_amount ASC").
		Order("bids.created_at ASC").
		Scopes(paginate(p)).
		Find(&bids).Error
	return bids, total, err
}

func (r *BidRepositoryImpl) ListAll(db *gorm.DB, p Pagination) ([]models.Bid, int64, error) {
	query := db.Model(&models.Bid{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bids []models.Bid
	err := query.Preload("Job").Order("created_at DESC").Scopes(paginate(p)).Find(&bids).Error
	return bids, total, err
}

func (r *BidRepositoryImpl) DeleteByJob(db *gorm.DB, jobID string) error {
	return db.Where("job_id = ?", jobID).Delete(&models.Bid{}).Error
}
