package services

import (
	"context"

	"gorm.io/gorm"

	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

type PilotService interface {
	CreateProfile(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreatePilotRequest) (*models.Pilot, error)
	UpdateProfile(ctx context.Context, db *gorm.DB, actor dto.Actor, pilotID string, req *dto.UpdatePilotRequest) (*models.Pilot, error)
	GetPilot(db *gorm.DB, pilotID string) (*models.Pilot, error)
	GetMyProfile(db *gorm.DB, userID string) (*models.Pilot, error)
	Search(db *gorm.DB, q *dto.PilotSearchQuery) (*dto.PilotListResponse, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, pilotID string, status models.PilotStatus) (*models.Pilot, error)
	Rate(ctx context.Context, db *gorm.DB, actor dto.Actor, pilotID string, rating float64) (*models.Pilot, error)
}

type pilotService struct {
	pilotRepo repositories.PilotRepository
	jobRepo   repositories.JobRepository
	now       clock
}

func NewPilotService(pilotRepo repositories.PilotRepository, jobRepo repositories.JobRepository) PilotService {
	return &pilotService{pilotRepo: pilotRepo, jobRepo: jobRepo, now: utcNow}
}

// CreateProfile - один профиль на пользователя, стартовый статус pending
func (s *pilotService) CreateProfile(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreatePilotRequest) (*models.Pilot, error) {
	if !actor.IsPilot() {
		return nil, apperrors.ErrInsufficientPermissions
	}

	radius := req.ServiceRadius
	if radius == 0 {
		radius = 50
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	pilot := &models.Pilot{
		UserID:              actor.UserID,
		BusinessName:        req.BusinessName,
		BusinessLicense:     req.BusinessLicense,
		YearsOfExperience:   req.YearsOfExperience,
		HourlyRate:          req.HourlyRate,
		ServiceRadius:       radius,
		IsCertified:         req.IsCertified,
		CertificationDate:   req.CertificationDate,
		CertificationExpiry: req.CertificationExpiry,
		MembershipStatus:    models.MembershipFree,
		IsAvailable:         available,
		ServicesOffered:     jsonArray(req.ServicesOffered),
		Specialties:         jsonArray(req.Specialties),
		Languages:           jsonArray(req.Languages),
		Equipment:           jsonArray(req.Equipment),
		Bio:                 req.Bio,
		Status:              models.PilotStatusPending,
	}
	if err := s.pilotRepo.Create(db, pilot); err != nil {
		return nil, translate(err, pilotErrors)
	}

	logger.CtxInfo(ctx, "pilot profile created", "pilot_id", pilot.ID)
	return s.GetPilot(db, pilot.ID)
}

func (s *pilotService) UpdateProfile(ctx context.Context, db *gorm.DB, actor dto.Actor, pilotID string, req *dto.UpdatePilotRequest) (*models.Pilot, error) {
	pilot, err := s.pilotRepo.FindByID(db, pilotID)
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	if pilot.UserID != actor.UserID {
		return nil, apperrors.ErrPilotNotOwned
	}

	fields := map[string]interface{}{}
	if req.BusinessName != nil {
		fields["business_name"] = *req.BusinessName
	}
	if req.BusinessLicense != nil {
		fields["business_license"] = *req.BusinessLicense
	}
	if req.YearsOfExperience != nil {
		fields["years_of_experience"] = *req.YearsOfExperience
	}
	if req.HourlyRate != nil {
		fields["hourly_rate"] = *req.HourlyRate
	}
	if req.ServiceRadius != nil {
		fields["service_radius"] = *req.ServiceRadius
	}
	if req.IsCertified != nil {
		fields["is_certified"] = *req.IsCertified
	}
	if req.CertificationDate != nil {
		fields["certification_date"] = *req.CertificationDate
	}
	if req.CertificationExpiry != nil {
		fields["certification_expiry"] = *req.CertificationExpiry
	}
	if req.ServicesOffered != nil {
		fields["services_offered"] = jsonArray(req.ServicesOffered)
	}
	if req.Specialties != nil {
		fields["specialties"] = jsonArray(req.Specialties)
	}
	if req.Languages != nil {
		fields["languages"] = jsonArray(req.Languages)
	}
	if req.Equipment != nil {
		fields["equipment"] = jsonArray(req.Equipment)
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.IsAvailable != nil {
		fields["is_available"] = *req.IsAvailable
	}

	if err := s.pilotRepo.UpdateFields(db, pilotID, fields); err != nil {
		return nil, translate(err, pilotErrors)
	}
	logger.CtxDebug(ctx, "pilot profile updated", "pilot_id", pilotID)
	return s.GetPilot(db, pilotID)
}

func (s *pilotService) GetPilot(db *gorm.DB, pilotID string) (*models.Pilot, error) {
	pilot, err := s.pilotRepo.FindByID(db, pilotID)
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	return pilot, nil
}

func (s *pilotService) GetMyProfile(db *gorm.DB, userID string) (*models.Pilot, error) {
	pilot, err := s.pilotRepo.FindByUserID(db, userID)
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	return pilot, nil
}

func (s *pilotService) Search(db *gorm.DB, q *dto.PilotSearchQuery) (*dto.PilotListResponse, error) {
	page := q.PageQuery.Pagination()
	pilots, total, err := s.pilotRepo.Search(db, repositories.PilotFilter{
		Search:     q.Search,
		MinRating:  q.MinRating,
		Specialty:  q.Specialty,
		Certified:  q.Certified,
		Available:  q.Available,
		Now:        s.now(),
		Pagination: page,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if pilots == nil {
		pilots = []models.Pilot{}
	}
	return &dto.PilotListResponse{Pilots: pilots, Pagination: dto.NewPagination(page, total)}, nil
}

// UpdateStatus - модерация; первая активация помечает профиль проверенным
func (s *pilotService) UpdateStatus(ctx context.Context, db *gorm.DB, pilotID string, status models.PilotStatus) (*models.Pilot, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	pilot, err := s.pilotRepo.FindByIDForUpdate(tx, pilotID)
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	if !pilot.Status.CanTransitionTo(status) {
		return nil, apperrors.ErrInvalidPilotStatus.WithDetails(map[string]string{
			"from": string(pilot.Status),
			"to":   string(status),
		})
	}

	fields := map[string]interface{}{"status": status}
	if pilot.Status == models.PilotStatusPending && status == models.PilotStatusActive {
		fields["is_verified"] = true
		fields["verification_date"] = s.now()
	}
	if err := s.pilotRepo.UpdateFields(tx, pilotID, fields); err != nil {
		return nil, inTx(err, pilotErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "pilot status changed", "pilot_id", pilotID, "from", pilot.Status, "to", status)
	return s.GetPilot(db, pilotID)
}

// Rate - оценка от заказчика завершенной работы, скользящее среднее
func (s *pilotService) Rate(ctx context.Context, db *gorm.DB, actor dto.Actor, pilotID string, rating float64) (*models.Pilot, error) {
	if !actor.IsPropertyManager() {
		return nil, apperrors.ErrNotEligibleToRate
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	pilot, err := s.pilotRepo.FindByIDForUpdate(tx, pilotID)
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	eligible, err := s.jobRepo.HasCompletedJobWithPilot(tx, actor.UserID, pilotID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !eligible {
		return nil, apperrors.ErrNotEligibleToRate
	}

	pilot.ApplyRating(rating)
	if err := s.pilotRepo.UpdateFields(tx, pilotID, map[string]interface{}{
		"rating":        pilot.Rating,
		"total_reviews": pilot.TotalReviews,
	}); err != nil {
		return nil, inTx(err, pilotErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "pilot rated", "pilot_id", pilotID, "rating", rating)
	return s.GetPilot(db, pilotID)
}

