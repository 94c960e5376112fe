package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/pkg/apperrors"
)

// SubscriptionService - платное членство пилотов
type SubscriptionService interface {
	Plans() []models.Plan
	CreateCheckout(ctx context.Context, db *gorm.DB, actor dto.Actor, planID string) (*dto.CheckoutResponse, error)
	Status(db *gorm.DB, actor dto.Actor) (*dto.SubscriptionStatusResponse, error)
	Cancel(ctx context.Context, db *gorm.DB, actor dto.Actor) error
}

type subscriptionService struct {
	pilotRepo repositories.PilotRepository
	gateway   payment.Gateway
	settings  Settings
	now       clock
}

func NewSubscriptionService(pilotRepo repositories.PilotRepository, gateway payment.Gateway, settings Settings) SubscriptionService {
	return &subscriptionService{
		pilotRepo: pilotRepo,
		gateway:   gateway,
		settings:  settings.withDefaults(),
		now:       utcNow,
	}
}

func (s *subscriptionService) Plans() []models.Plan {
	return models.Plans
}

func (s *subscriptionService) CreateCheckout(ctx context.Context, db *gorm.DB, actor dto.Actor, planID string) (*dto.CheckoutResponse, error) {
	plan, ok := models.FindPlan(planID)
	if !ok {
		return nil, apperrors.ErrPlanNotFound
	}
	pilot, err := s.pilotRepo.FindByUserID(db, actor.UserID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}

	frontend := strings.TrimRight(s.settings.FrontendURL, "/")
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Mode:              payment.ModeSubscription,
		ProductName:       fmt.Sprintf("%s Membership", plan.Name),
		Description:       strings.Join(plan.Features, ", "),
		Amount:            plan.Price,
		Currency:          s.settings.Currency,
		SuccessURL:        frontend + "/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         frontend + "/subscription/cancel",
		ClientReferenceID: pilot.ID,
		Metadata: map[string]string{
			"type":    payment.MetadataTypeSubscription,
			"planId":  string(plan.ID),
			"pilotId": pilot.ID,
		},
	})
	if err != nil {
		logger.CtxWithError(ctx, "subscription checkout failed", err, "pilot_id", pilot.ID, "plan", plan.ID)
		return nil, apperrors.ErrPaymentProvider.WithError(err)
	}

	logger.CtxInfo(ctx, "subscription checkout created", "pilot_id", pilot.ID, "plan", plan.ID, "session_id", session.ID)
	return &dto.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

func (s *subscriptionService) Status(db *gorm.DB, actor dto.Actor) (*dto.SubscriptionStatusResponse, error) {
	pilot, err := s.pilotRepo.FindByUserID(db, actor.UserID)
	if err != nil {
		return nil, translate(err, bidErrors)
	}
	return membershipStatus(pilot, s.now()), nil
}

// Cancel - отмена в конце оплаченного периода; тариф снимет customer.subscription.deleted
func (s *subscriptionService) Cancel(ctx context.Context, db *gorm.DB, actor dto.Actor) error {
	pilot, err := s.pilotRepo.FindByUserID(db, actor.UserID)
	if err != nil {
		return translate(err, bidErrors)
	}
	if pilot.StripeSubscriptionID == nil || *pilot.StripeSubscriptionID == "" {
		return apperrors.ErrNoActiveSubscription
	}

	if err := s.gateway.CancelSubscriptionAtPeriodEnd(ctx, *pilot.StripeSubscriptionID); err != nil {
		logger.CtxWithError(ctx, "subscription cancel failed", err, "pilot_id", pilot.ID)
		return apperrors.ErrPaymentProvider.WithError(err)
	}

	logger.CtxInfo(ctx, "subscription cancellation scheduled", "pilot_id", pilot.ID)
	return nil
}
