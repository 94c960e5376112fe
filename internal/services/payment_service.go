package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/pkg/apperrors"
)

// PaymentService - оплата принятых ставок, история и возвраты
type PaymentService interface {
	CreateJobPayment(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*dto.CheckoutResponse, error)
	ListPayments(db *gorm.DB, actor dto.Actor, q dto.PageQuery) (*dto.PaymentListResponse, error)
	GetPayment(db *gorm.DB, actor dto.Actor, paymentID string) (*models.Payment, error)
	Refund(ctx context.Context, db *gorm.DB, actor dto.Actor, paymentID string, req *dto.RefundRequest) (*models.Payment, error)
}

type paymentService struct {
	paymentRepo repositories.PaymentRepository
	bidRepo     repositories.BidRepository
	pilotRepo   repositories.PilotRepository
	userRepo    repositories.UserRepository
	gateway     payment.Gateway
	events      events.Publisher
	settings    Settings
	now         clock
}

func NewPaymentService(repos *repositories.Repositories, gateway payment.Gateway, publisher events.Publisher, settings Settings) PaymentService {
	return &paymentService{
		paymentRepo: repos.Payments,
		bidRepo:     repos.Bids,
		pilotRepo:   repos.Pilots,
		userRepo:    repos.Users,
		gateway:     gateway,
		events:      publisher,
		settings:    settings.withDefaults(),
		now:         utcNow,
	}
}

// CreateJobPayment открывает hosted checkout на сумму принятой ставки
func (s *paymentService) CreateJobPayment(ctx context.Context, db *gorm.DB, actor dto.Actor, bidID string) (*dto.CheckoutResponse, error) {
	bid, err := s.bidRepo.FindByID(db, bidID)
	if err != nil {
		return nil, translate(err, paymentErrors)
	}
	if bid.Job == nil || !bid.Job.IsOwnedBy(actor.UserID) {
		return nil, apperrors.ErrJobNotOwned
	}
	if bid.Status != models.BidStatusAccepted {
		return nil, apperrors.ErrBidNotAccepted
	}

	paid, err := s.paymentRepo.CountByBid(db, bid.ID, models.PaymentStatusCompleted)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if paid > 0 {
		return nil, apperrors.ErrInvalidPaymentStatus.WithDetails(map[string]string{"bid": "already paid"})
	}

	// один открытый checkout на ставку
	existing, err := s.paymentRepo.FindPendingByBid(db, bid.ID)
	switch {
	case err == nil && existing.CheckoutURL != "":
		logger.CtxDebug(ctx, "checkout session reused", "bid_id", bid.ID, "session_id", *existing.StripeSessionID)
		return &dto.CheckoutResponse{SessionID: *existing.StripeSessionID, URL: existing.CheckoutURL}, nil
	case err != nil && !errors.Is(err, repositories.ErrPaymentNotFound):
		return nil, apperrors.InternalError(err)
	}

	pilotName := "pilot"
	if bid.Pilot != nil {
		pilotName = bid.Pilot.BusinessName
		if pilotName == "" && bid.Pilot.User != nil {
			pilotName = bid.Pilot.User.FullName()
		}
	}

	frontend := strings.TrimRight(s.settings.FrontendURL, "/")
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Mode:        payment.ModePayment,
		ProductName: "Drone cleaning: " + bid.Job.Title,
		Description: fmt.Sprintf("Payment for job completed by %s", pilotName),
		Amount:      bid.TotalAmount,
		Currency:    s.settings.Currency,
		SuccessURL:  frontend + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   frontend + "/payment/cancel",
		Metadata: map[string]string{
			"type":              payment.MetadataTypeJobPayment,
			"bidId":             bid.ID,
			"jobId":             bid.JobID,
			"pilotId":           bid.PilotID,
			"propertyManagerId": actor.UserID,
		},
	})
	if err != nil {
		logger.CtxWithError(ctx, "checkout session failed", err, "bid_id", bid.ID)
		return nil, apperrors.ErrPaymentProvider.WithError(err)
	}

	pending := &models.Payment{
		BidID:             ptr(bid.ID),
		JobID:             ptr(bid.JobID),
		PilotID:           ptr(bid.PilotID),
		PropertyManagerID: ptr(actor.UserID),
		Amount:            bid.TotalAmount,
		Currency:          strings.ToUpper(s.settings.Currency),
		PaymentType:       models.PaymentTypeJob,
		PaymentMethod:     models.PaymentMethodStripe,
		StripeSessionID:   ptr(session.ID),
		CheckoutURL:       session.URL,
		Status:            models.PaymentStatusPending,
		Description:       "Job payment for " + bid.Job.Title,
	}
	pending.CalculateTotals(s.settings.CommissionRate)
	if err := s.paymentRepo.Create(db, pending); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "checkout session created", "bid_id", bid.ID, "session_id", session.ID, "amount", bid.TotalAmount)
	return &dto.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// pilotIDOf - профиль пилота пользователя или пустая строка
func pilotIDOf(db *gorm.DB, repo repositories.PilotRepository, actor dto.Actor) (string, error) {
	if !actor.IsPilot() {
		return "", nil
	}
	pilot, err := repo.FindByUserID(db, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrPilotNotFound) {
			return "", nil
		}
		return "", err
	}
	return pilot.ID, nil
}

func (s *paymentService) ListPayments(db *gorm.DB, actor dto.Actor, q dto.PageQuery) (*dto.PaymentListResponse, error) {
	page := q.Pagination()

	var (
		items []models.Payment
		total int64
		err   error
	)
	if actor.IsAdmin() {
		items, total, err = s.paymentRepo.ListAll(db, page)
	} else {
		pilotID, perr := pilotIDOf(db, s.pilotRepo, actor)
		if perr != nil {
			return nil, apperrors.InternalError(perr)
		}
		items, total, err = s.paymentRepo.ListForParty(db, actor.UserID, pilotID, page)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if items == nil {
		items = []models.Payment{}
	}
	return &dto.PaymentListResponse{Payments: items, Pagination: dto.NewPagination(page, total)}, nil
}

func (s *paymentService) GetPayment(db *gorm.DB, actor dto.Actor, paymentID string) (*models.Payment, error) {
	p, err := s.paymentRepo.FindByID(db, paymentID)
	if err != nil {
		return nil, translate(err, paymentErrors)
	}
	if actor.IsAdmin() {
		return p, nil
	}
	pilotID, err := pilotIDOf(db, s.pilotRepo, actor)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !p.IsParty(actor.UserID, pilotID) {
		return nil, apperrors.NewForbiddenError("Not authorized to view this payment")
	}
	return p, nil
}

// Refund - возврат у провайдера и пропорциональное списание заработка пилота
func (s *paymentService) Refund(ctx context.Context, db *gorm.DB, actor dto.Actor, paymentID string, req *dto.RefundRequest) (*models.Payment, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrInsufficientPermissions
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	p, err := s.paymentRepo.FindByIDForUpdate(tx, paymentID)
	if err != nil {
		return nil, translate(err, paymentErrors)
	}
	if !p.Status.CanTransitionTo(models.PaymentStatusRefunded) {
		return nil, apperrors.ErrInvalidPaymentStatus.WithDetails(map[string]string{"status": string(p.Status)})
	}
	if p.StripePaymentIntentID == nil || *p.StripePaymentIntentID == "" {
		return nil, apperrors.ValidationMessage("payment", "Payment has no provider charge to refund")
	}

	amount := req.Amount
	if amount == 0 {
		amount = p.Amount
	}
	if amount > p.Amount {
		return nil, apperrors.ValidationError(map[string]string{"amount": "Must not exceed the payment amount"})
	}

	if _, err := s.gateway.Refund(ctx, *p.StripePaymentIntentID, amount, req.Reason); err != nil {
		logger.CtxWithError(ctx, "provider refund failed", err, "payment_id", p.ID)
		return nil, apperrors.ErrPaymentProvider.WithError(err)
	}

	now := s.now()
	if err := s.paymentRepo.UpdateFields(tx, p.ID, map[string]interface{}{
		"status":        models.PaymentStatusRefunded,
		"refund_amount": amount,
		"refund_reason": req.Reason,
		"refunded_at":   now,
	}); err != nil {
		return nil, inTx(err, paymentErrors)
	}

	clawback := money.Fraction(p.PilotAmount, amount, p.Amount)
	if p.RefundRequired {
		clawback = 0
	}
	if p.PilotID != nil && clawback > 0 && p.PaymentType == models.PaymentTypeJob {
		jobs := 0
		if amount == p.Amount {
			jobs = -1
		}
		if err := s.pilotRepo.AddEarnings(tx, *p.PilotID, -clawback, jobs); err != nil {
			return nil, inTx(err, paymentErrors)
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.CtxError(ctx, "refund recorded at provider but not committed", "payment_id", p.ID, "error", err)
		return nil, apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "payment refunded", "payment_id", p.ID, "amount", amount, "pilot_clawback", clawback)

	refunded, err := s.paymentRepo.FindByID(db, p.ID)
	if err != nil {
		return nil, translate(err, paymentErrors)
	}

	var recipients []events.Recipient
	if p.PropertyManagerID != nil {
		if u, err := s.userRepo.FindByID(db, *p.PropertyManagerID); err == nil {
			recipients = append(recipients, recipientOf(u))
		}
	}
	events.PublishAll(ctx, s.events, events.New(events.PaymentRefunded, map[string]any{
		"paymentId": p.ID,
		"amount":    amount,
		"reason":    req.Reason,
	}, recipients...))

	return refunded, nil
}
