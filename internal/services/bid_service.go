package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/metrics"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

// BidService - жизненный цикл ставок
type BidService interface {
	SubmitBid(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreateBidRequest) (*models.Bid, error)
	AcceptBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error)
	RejectBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID, reason string) (*models.Bid, error)
	WithdrawBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID, reason string) (*models.Bid, error)
	ReviewBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error)
	MarkRead(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error)
	GetBid(db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error)
	ListBids(db *gorm.DB, actor dto.Actor, q *dto.BidListQuery) (*dto.BidListResponse, error)
	ListJobBids(db *gorm.DB, actor dto.Actor, jobID string) ([]models.Bid, error)
}

type bidService struct {
	bidRepo   repositories.BidRepository
	jobRepo   repositories.JobRepository
	pilotRepo repositories.PilotRepository
	userRepo  repositories.UserRepository
	events    events.Publisher
	settings  Settings
	now       clock
}

func NewBidService(repos *repositories.Repositories, publisher events.Publisher, settings Settings) BidService {
	return &bidService{
		bidRepo:   repos.Bids,
		jobRepo:   repos.Jobs,
		pilotRepo: repos.Pilots,
		userRepo:  repos.Users,
		events:    publisher,
		settings:  settings.withDefaults(),
		now:       utcNow,
	}
}

// SubmitBid - проверка допуска и дубликата под блокировкой работы
func (s *bidService) SubmitBid(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreateBidRequest) (*models.Bid, error) {
	now := s.now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	pilot, err := s.pilotRepo.FindByUserID(tx, actor.UserID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}

	job, err := s.jobRepo.FindByIDForUpdate(tx, req.JobID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	if !job.CanBeBidOn() {
		return nil, apperrors.ErrJobNotOpenForBidding
	}
	if job.IsLucidSuiteOnly && !pilot.IsLucidSuiteCustomer {
		return nil, apperrors.ErrLucidSuiteOnlyJob
	}
	if !pilot.CanBid(now) {
		return nil, apperrors.ErrPilotNotEligible.WithDetails(eligibility(pilot, now))
	}

	exists, err := s.bidRepo.HasActiveBid(tx, job.ID, pilot.ID)
	if err != nil {
		return nil, apperrors.TransactionError(err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateActiveBid
	}

	bid := &models.Bid{
		JobID:             job.ID,
		PilotID:           pilot.ID,
		Amount:            req.Amount,
		Currency:          "USD",
		EstimatedDuration: req.EstimatedDuration,
		ProposedStartDate: req.ProposedStartDate,
		ProposedEndDate:   req.ProposedEndDate,
		Message:           req.Message,
		Inclusions:        jsonArray(req.Inclusions),
		Exclusions:        jsonArray(req.Exclusions),
		Warranty:          req.Warranty,
		Terms:             req.Terms,
		Status:            models.BidStatusSubmitted,
		IsPriority:        req.IsPriority,
		PriorityFee:       req.PriorityFee,
	}
	bid.CalculateTotals(s.settings.CommissionRate)

	if err := s.bidRepo.Create(tx, bid); err != nil {
		return nil, apperrors.TransactionError(err)
	}
	if err := s.jobRepo.IncrementBidCount(tx, job.ID); err != nil {
		return nil, inTx(err, bidErrors)
	}
	if job.Status == models.JobStatusPublished {
		if err := s.jobRepo.UpdateFields(tx, job.ID, map[string]interface{}{"status": models.JobStatusBidding}); err != nil {
			return nil, inTx(err, bidErrors)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	metrics.BidTransitionsTotal.WithLabelValues(string(models.BidStatusSubmitted)).Inc()
	logger.CtxInfo(ctx, "bid submitted", "bid_id", bid.ID, "job_id", job.ID, "pilot_id", pilot.ID, "total", bid.TotalAmount)

	manager, _ := s.userRepo.FindByID(db, job.PropertyManagerID)
	events.PublishAll(ctx, s.events, events.New(events.BidSubmitted, map[string]any{
		"bidId":       bid.ID,
		"jobId":       job.ID,
		"jobTitle":    job.Title,
		"totalAmount": bid.TotalAmount,
	}, recipientOf(manager)))

	return bid, nil
}

// eligibility - какие из условий допуска не выполнены
func eligibility(p *models.Pilot, now time.Time) map[string]string {
	details := map[string]string{}
	if !p.IsCertificationValid(now) {
		details["certification"] = "Certification is missing or expired"
	}
	if !p.IsMembershipActive(now) {
		details["membership"] = "Membership is not active"
	}
	if !p.IsAvailable {
		details["availability"] = "Pilot is not available"
	}
	if p.Status != models.PilotStatusActive {
		details["status"] = "Pilot account is not active"
	}
	return details
}

// AcceptBid - ставка accepted, работа awarded, прочие активные ставки rejected; все в одной транзакции
func (s *bidService) AcceptBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error) {
	now := s.now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	bid, err := s.bidRepo.FindByIDForUpdate(tx, bidID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	job, err := s.jobRepo.FindByIDForUpdate(tx, bid.JobID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	if !job.IsOwnedBy(actor.UserID) {
		return nil, apperrors.ErrJobNotOwned
	}
	if !bid.Status.CanTransitionTo(models.BidStatusAccepted) {
		return nil, apperrors.ErrInvalidBidStatus.WithDetails(map[string]string{"status": string(bid.Status)})
	}
	if job.Status != models.JobStatusBidding {
		return nil, apperrors.ErrInvalidJobStatus.WithDetails(map[string]string{"status": string(job.Status)})
	}

	ok, err := s.bidRepo.TransitionStatus(tx, bid.ID, models.ActiveBidStatuses, map[string]interface{}{
		"status":      models.BidStatusAccepted,
		"accepted_at": now,
	})
	if err != nil {
		return nil, apperrors.TransactionError(err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidBidStatus
	}

	if err := s.jobRepo.UpdateFields(tx, job.ID, map[string]interface{}{
		"status":         models.JobStatusAwarded,
		"awarded_bid_id": bid.ID,
		"awarded_at":     now,
	}); err != nil {
		return nil, apperrors.TransactionError(err)
	}

	rejected, err := s.bidRepo.RejectOtherActive(tx, job.ID, bid.ID, "Another bid was accepted", now)
	if err != nil {
		return nil, apperrors.TransactionError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	metrics.BidTransitionsTotal.WithLabelValues(string(models.BidStatusAccepted)).Inc()
	metrics.BidTransitionsTotal.WithLabelValues(string(models.BidStatusRejected)).Add(float64(rejected))
	logger.CtxInfo(ctx, "bid accepted", "bid_id", bid.ID, "job_id", job.ID, "rejected_siblings", rejected)

	accepted, err := s.bidRepo.FindByID(db, bid.ID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}

	var pilotUser *models.User
	if accepted.Pilot != nil {
		pilotUser = accepted.Pilot.User
	}
	events.PublishAll(ctx, s.events, events.New(events.BidAccepted, map[string]any{
		"bidId":       bid.ID,
		"jobId":       job.ID,
		"jobTitle":    job.Title,
		"totalAmount": bid.TotalAmount,
		"pilotAmount": bid.PilotAmount,
	}, recipientOf(pilotUser)))

	return accepted, nil
}

func (s *bidService) RejectBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID, reason string) (*models.Bid, error) {
	bid, err := s.transition(db, bidID, func(_ *gorm.DB, bid *models.Bid, job *models.Job) error {
		if !job.IsOwnedBy(actor.UserID) {
			return apperrors.ErrJobNotOwned
		}
		return nil
	}, models.BidStatusRejected, map[string]interface{}{
		"rejected_at":      s.now(),
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "bid rejected", "bid_id", bid.ID)
	var pilotUser *models.User
	if bid.Pilot != nil {
		pilotUser = bid.Pilot.User
	}
	events.PublishAll(ctx, s.events, events.New(events.BidRejected, map[string]any{
		"bidId":  bid.ID,
		"jobId":  bid.JobID,
		"reason": reason,
	}, recipientOf(pilotUser)))
	return bid, nil
}

func (s *bidService) WithdrawBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID, reason string) (*models.Bid, error) {
	bid, err := s.transition(db, bidID, func(tx *gorm.DB, bid *models.Bid, _ *models.Job) error {
		return s.ensureBidOwner(tx, bid, actor)
	}, models.BidStatusWithdrawn, map[string]interface{}{
		"withdrawn_at":      s.now(),
		"withdrawal_reason": reason,
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "bid withdrawn", "bid_id", bid.ID)
	var manager *models.User
	if bid.Job != nil {
		manager, _ = s.userRepo.FindByID(db, bid.Job.PropertyManagerID)
	}
	events.PublishAll(ctx, s.events, events.New(events.BidWithdrawn, map[string]any{
		"bidId":  bid.ID,
		"jobId":  bid.JobID,
		"reason": reason,
	}, recipientOf(manager)))
	return bid, nil
}

func (s *bidService) ReviewBid(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error) {
	bid, err := s.transition(db, bidID, func(_ *gorm.DB, bid *models.Bid, job *models.Job) error {
		if !job.IsOwnedBy(actor.UserID) {
			return apperrors.ErrJobNotOwned
		}
		return nil
	}, models.BidStatusUnderReview, nil)
	if err != nil {
		return nil, err
	}
	logger.CtxDebug(ctx, "bid under review", "bid_id", bid.ID)
	return bid, nil
}

// transition - общий шаблон простого перехода по FSM с условным UPDATE
func (s *bidService) transition(
	db *gorm.DB,
	bidID string,
	authorize func(tx *gorm.DB, bid *models.Bid, job *models.Job) error,
	to models.BidStatus,
	fields map[string]interface{},
) (*models.Bid, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	bid, err := s.bidRepo.FindByIDForUpdate(tx, bidID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	job, err := s.jobRepo.FindByID(tx, bid.JobID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	if err := authorize(tx, bid, job); err != nil {
		return nil, err
	}
	if !bid.Status.CanTransitionTo(to) {
		return nil, apperrors.ErrInvalidBidStatus.WithDetails(map[string]string{
			"from": string(bid.Status),
			"to":   string(to),
		})
	}

	from := []models.BidStatus{bid.Status}
	update := map[string]interface{}{"status": to}
	for k, v := range fields {
		update[k] = v
	}
	ok, err := s.bidRepo.TransitionStatus(tx, bid.ID, from, update)
	if err != nil {
		return nil, apperrors.TransactionError(err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidBidStatus
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	metrics.BidTransitionsTotal.WithLabelValues(string(to)).Inc()

	updated, err := s.bidRepo.FindByID(db, bid.ID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	return updated, nil
}

// MarkRead - идемпотентно, в любом статусе
func (s *bidService) MarkRead(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error) {
	bid, err := s.bidRepo.FindByID(db, bidID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	if bid.Job == nil || !bid.Job.IsOwnedBy(actor.UserID) {
		return nil, apperrors.ErrJobNotOwned
	}
	if bid.IsRead {
		return bid, nil
	}

	now := s.now()
	if err := s.bidRepo.UpdateFields(db, bid.ID, map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}); err != nil {
		return nil, translate(err, bidErrors)
	}
	bid.IsRead = true
	bid.ReadAt = &now

	logger.CtxDebug(ctx, "bid marked read", "bid_id", bid.ID)
	return bid, nil
}

func (s *bidService) ensureBidOwner(db *gorm.DB, bid *models.Bid, actor dto.Actor) error {
	pilot, err := s.pilotRepo.FindByUserID(db, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrPilotNotFound) {
			return apperrors.ErrBidNotOwned
		}
		return apperrors.InternalError(err)
	}
	if pilot.ID != bid.PilotID {
		return apperrors.ErrBidNotOwned
	}
	return nil
}

// GetBid - видна пилоту ставки, владельцу работы и администратору
func (s *bidService) GetBid(db *gorm.DB, actor dto.Actor, bidID string) (*models.Bid, error) {
	bid, err := s.bidRepo.FindByID(db, bidID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	if actor.IsAdmin() {
		return bid, nil
	}
	if bid.Job != nil && bid.Job.IsOwnedBy(actor.UserID) {
		return bid, nil
	}
	if err := s.ensureBidOwner(db, bid, actor); err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *bidService) ListBids(db *gorm.DB, actor dto.Actor, q *dto.BidListQuery) (*dto.BidListResponse, error) {
	page := q.PageQuery.Pagination()

	var (
		bids  []models.Bid
		total int64
		err   error
	)
	switch {
	case actor.IsAdmin():
		bids, total, err = s.bidRepo.ListAll(db, page)
	case actor.IsPilot():
		pilot, perr := s.pilotRepo.FindByUserID(db, actor.UserID)
		if perr != nil {
			return nil, translate(perr, bidErrors)
		}
		bids, total, err = s.bidRepo.ListByPilot(db, pilot.ID, page)
	default:
		bids, total, err = s.bidRepo.ListForManager(db, actor.UserID, q.JobID, page)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	return &dto.BidListResponse{Bids: bids, Pagination: dto.NewPagination(page, total)}, nil
}

func (s *bidService) ListJobBids(db *gorm.DB, actor dto.Actor, jobID string) ([]models.Bid, error) {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, translate(err, jobErrors)
	}
	if !job.IsOwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, apperrors.ErrJobNotOwned
	}
	bids, err := s.bidRepo.ListByJob(db, jobID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	return bids, nil
}
