package services

import (
	"context"

	"gorm.io/gorm"

	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

type JobService interface {
	CreateJob(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreateJobRequest) (*models.Job, error)
	GetJob(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string) (*models.Job, error)
	ListJobs(db *gorm.DB, q *dto.JobListQuery) (*dto.JobListResponse, error)
	ListMyJobs(db *gorm.DB, actor dto.Actor, q dto.PageQuery) (*dto.JobListResponse, error)
	UpdateJob(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string, req *dto.UpdateJobRequest) (*models.Job, error)
	DeleteJob(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string) error
	UpdateStatus(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string, status models.JobStatus) (*models.Job, error)
}

type jobService struct {
	jobRepo repositories.JobRepository
	bidRepo repositories.BidRepository
}

func NewJobService(jobRepo repositories.JobRepository, bidRepo repositories.BidRepository) JobService {
	return &jobService{jobRepo: jobRepo, bidRepo: bidRepo}
}

// validateBudget - range требует обе границы, fixed требует сумму
func validateBudget(budgetType models.BudgetType, budget, min, max money.Cents) error {
	details := map[string]string{}
	switch budgetType {
	case models.BudgetRange:
		if min <= 0 {
			details["budgetMin"] = "This field is required"
		}
		if max <= 0 {
			details["budgetMax"] = "This field is required"
		}
		if min > 0 && max > 0 && min > max {
			details["budgetMax"] = "Must be greater than or equal to budgetMin"
		}
	case models.BudgetFixed:
		if budget <= 0 {
			details["budget"] = "Must be greater than 0"
		}
	}
	if len(details) > 0 {
		return apperrors.ValidationError(details)
	}
	return nil
}

func (s *jobService) CreateJob(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreateJobRequest) (*models.Job, error) {
	if !actor.IsPropertyManager() {
		return nil, apperrors.ErrInsufficientPermissions
	}

	budgetType := req.BudgetType
	if budgetType == "" {
		budgetType = models.BudgetNegotiable
	}
	if err := validateBudget(budgetType, req.Budget, req.BudgetMin, req.BudgetMax); err != nil {
		return nil, err
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	status := models.JobStatusDraft
	if req.Publish {
		status = models.JobStatusPublished
	}

	job := &models.Job{
		Title:               req.Title,
		Description:         req.Description,
		PropertyManagerID:   actor.UserID,
		PropertyType:        req.PropertyType,
		CleaningType:        req.CleaningType,
		Urgency:             urgency,
		BuildingHeight:      req.BuildingHeight,
		SquareFootage:       req.SquareFootage,
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		ZipCode:             req.ZipCode,
		Country:             "US",
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		Budget:              req.Budget,
		BudgetType:          budgetType,
		BudgetMin:           req.BudgetMin,
		BudgetMax:           req.BudgetMax,
		PreferredStartDate:  req.PreferredStartDate,
		Deadline:            req.Deadline,
		EstimatedDuration:   req.EstimatedDuration,
		SpecialRequirements: req.SpecialRequirements,
		AccessNotes:         req.AccessNotes,
		SafetyRequirements:  req.SafetyRequirements,
		Status:              status,
		IsPublic:            isPublic,
		IsLucidSuiteOnly:    req.IsLucidSuiteOnly,
		Tags:                jsonArray(req.Tags),
	}
	if err := s.jobRepo.Create(db, job); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "job created", "job_id", job.ID, "status", job.Status)
	return job, nil
}

// GetJob - чужой просмотр увеличивает счетчик, владелец видит ставки
func (s *jobService) GetJob(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, translate(err, jobErrors)
	}

	if job.IsOwnedBy(actor.UserID) {
		bids, err := s.bidRepo.ListByJob(db, job.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		job.Bids = bids
		return job, nil
	}

	if err := s.jobRepo.IncrementViewCount(db, job.ID); err != nil {
		logger.CtxWithError(ctx, "failed to increment job views", err, "job_id", job.ID)
	} else {
		job.ViewCount++
	}
	return job, nil
}

func (s *jobService) ListJobs(db *gorm.DB, q *dto.JobListQuery) (*dto.JobListResponse, error) {
	page := q.PageQuery.Pagination()
	filter := repositories.JobFilter{
		Status:       q.Status,
		PropertyType: q.PropertyType,
		CleaningType: q.CleaningType,
		City:         q.City,
		Search:       q.Search,
		Pagination:   page,
	}
	if q.BudgetMin != nil {
		filter.BudgetMin = ptr(money.FromFloat(*q.BudgetMin))
	}
	if q.BudgetMax != nil {
		filter.BudgetMax = ptr(money.FromFloat(*q.BudgetMax))
	}

	jobs, total, err := s.jobRepo.List(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return &dto.JobListResponse{Jobs: jobs, Pagination: dto.NewPagination(page, total)}, nil
}

func (s *jobService) ListMyJobs(db *gorm.DB, actor dto.Actor, q dto.PageQuery) (*dto.JobListResponse, error) {
	page := q.Pagination()
	jobs, total, err := s.jobRepo.ListByManager(db, actor.UserID, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return &dto.JobListResponse{Jobs: jobs, Pagination: dto.NewPagination(page, total)}, nil
}

// editable - статусы, в которых владелец может править работу
func editable(status models.JobStatus) bool {
	return status == models.JobStatusDraft || status == models.JobStatusPublished || status == models.JobStatusBidding
}

func (s *jobService) UpdateJob(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string, req *dto.UpdateJobRequest) (*models.Job, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	job, err := s.jobRepo.FindByIDForUpdate(tx, jobID)
	if err != nil {
		return nil, translate(err, jobErrors)
	}
	if !job.IsOwnedBy(actor.UserID) {
		return nil, apperrors.ErrJobNotOwned
	}
	if !editable(job.Status) {
		return nil, apperrors.ErrInvalidJobStatus
	}

	fields := map[string]interface{}{}
	str := func(column string, v *string) {
		if v != nil {
			fields[column] = *v
		}
	}
	str("title", req.Title)
	str("description", req.Description)
	str("address", req.Address)
	str("city", req.City)
	str("state", req.State)
	str("zip_code", req.ZipCode)
	str("special_requirements", req.SpecialRequirements)
	str("access_notes", req.AccessNotes)
	str("safety_requirements", req.SafetyRequirements)
	if req.PropertyType != nil {
		fields["property_type"] = *req.PropertyType
	}
	if req.CleaningType != nil {
		fields["cleaning_type"] = *req.CleaningType
	}
	if req.Urgency != nil {
		fields["urgency"] = *req.Urgency
	}
	if req.BuildingHeight != nil {
		fields["building_height"] = *req.BuildingHeight
	}
	if req.SquareFootage != nil {
		fields["square_footage"] = *req.SquareFootage
	}
	if req.PreferredStartDate != nil {
		fields["preferred_start_date"] = *req.PreferredStartDate
	}
	if req.Deadline != nil {
		fields["deadline"] = *req.Deadline
	}
	if req.EstimatedDuration != nil {
		fields["estimated_duration"] = *req.EstimatedDuration
	}
	if req.IsPublic != nil {
		fields["is_public"] = *req.IsPublic
	}
	if req.IsLucidSuiteOnly != nil {
		fields["is_lucid_suite_only"] = *req.IsLucidSuiteOnly
	}
	if req.Tags != nil {
		fields["tags"] = jsonArray(req.Tags)
	}

	budgetType, budget, bmin, bmax := job.BudgetType, job.Budget, job.BudgetMin, job.BudgetMax
	if req.BudgetType != nil {
		budgetType = *req.BudgetType
		fields["budget_type"] = budgetType
	}
	if req.Budget != nil {
		budget = *req.Budget
		fields["budget"] = budget
	}
	if req.BudgetMin != nil {
		bmin = *req.BudgetMin
		fields["budget_min"] = bmin
	}
	if req.BudgetMax != nil {
		bmax = *req.BudgetMax
		fields["budget_max"] = bmax
	}
	if err := validateBudget(budgetType, budget, bmin, bmax); err != nil {
		return nil, err
	}

	if err := s.jobRepo.UpdateFields(tx, jobID, fields); err != nil {
		return nil, inTx(err, jobErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	logger.CtxDebug(ctx, "job updated", "job_id", jobID)
	return s.findJob(db, jobID)
}

func (s *jobService) DeleteJob(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	job, err := s.jobRepo.FindByIDForUpdate(tx, jobID)
	if err != nil {
		return translate(err, jobErrors)
	}
	if !job.IsOwnedBy(actor.UserID) {
		return apperrors.ErrJobNotOwned
	}
	if job.Status.IsLocked() {
		return apperrors.ErrInvalidJobStatus
	}

	if err := s.bidRepo.DeleteByJob(tx, jobID); err != nil {
		return apperrors.TransactionError(err)
	}
	if err := s.jobRepo.Delete(tx, jobID); err != nil {
		return inTx(err, jobErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "job deleted", "job_id", jobID)
	return nil
}

// UpdateStatus - ручные переходы по FSM; awarded и completed ставятся только через ставки и оплату
func (s *jobService) UpdateStatus(ctx context.Context, db *gorm.DB, actor dto.Actor, jobID string, status models.JobStatus) (*models.Job, error) {
	if status == models.JobStatusAwarded || status == models.JobStatusCompleted {
		return nil, apperrors.ErrInvalidJobStatus
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	job, err := s.jobRepo.FindByIDForUpdate(tx, jobID)
	if err != nil {
		return nil, translate(err, jobErrors)
	}
	if !job.IsOwnedBy(actor.UserID) {
		return nil, apperrors.ErrJobNotOwned
	}
	if !job.Status.CanTransitionTo(status) {
		return nil, apperrors.ErrInvalidJobStatus.WithDetails(map[string]string{
			"from": string(job.Status),
			"to":   string(status),
		})
	}

	if err := s.jobRepo.UpdateFields(tx, jobID, map[string]interface{}{"status": status}); err != nil {
		return nil, inTx(err, jobErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "job status changed", "job_id", jobID, "from", job.Status, "to", status)
	return s.findJob(db, jobID)
}

func (s *jobService) findJob(db *gorm.DB, jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, translate(err, jobErrors)
	}
	return job, nil
}
