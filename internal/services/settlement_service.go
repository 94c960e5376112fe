package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dronemarket_backend/internal/cache"
	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/metrics"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/pkg/apperrors"
)

// OutcomeDuplicate - событие уже есть в журнале
const OutcomeDuplicate = "duplicate"

const handlerSavepoint = "webhook_handler"

// SettlementService - обработка вебхуков платежного провайдера
type SettlementService interface {
	HandlePaymentWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) (*dto.WebhookResponse, error)
	HandleSubscriptionWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) (*dto.WebhookResponse, error)
}

type settlementService struct {
	repos    *repositories.Repositories
	gateway  payment.Gateway
	cache    cache.EventCache
	events   events.Publisher
	settings Settings
	now      clock
}

func NewSettlementService(
	repos *repositories.Repositories,
	gateway payment.Gateway,
	eventCache cache.EventCache,
	publisher events.Publisher,
	settings Settings,
) SettlementService {
	if eventCache == nil {
		eventCache = cache.Nop()
	}
	return &settlementService{
		repos:    repos,
		gateway:  gateway,
		cache:    eventCache,
		events:   publisher,
		settings: settings.withDefaults(),
		now:      utcNow,
	}
}

// outcome - итог обработчика одного события
type outcome struct {
	status  models.WebhookStatus
	reason  string
	events  []events.Event
	settled money.Cents
	kind    models.PaymentType
}

func processed(evs ...events.Event) *outcome {
	return &outcome{status: models.WebhookProcessed, events: evs}
}

func skipped(reason string) *outcome {
	return &outcome{status: models.WebhookSkipped, reason: reason}
}

func (s *settlementService) HandlePaymentWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) (*dto.WebhookResponse, error) {
	return s.handle(ctx, db, payload, signature, s.settings.WebhookSecret)
}

func (s *settlementService) HandleSubscriptionWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) (*dto.WebhookResponse, error) {
	return s.handle(ctx, db, payload, signature, s.settings.SubscriptionWebhookSecret)
}

// handle - подпись, журнал и побочные эффекты в одной транзакции.
// Доменная ошибка обработчика откатывается до savepoint и фиксируется как failed.
// Инфраструктурная ошибка откатывает все, провайдер повторит доставку.
func (s *settlementService) handle(ctx context.Context, db *gorm.DB, payload []byte, signature, secret string) (*dto.WebhookResponse, error) {
	ev, err := s.gateway.ConstructEvent(payload, signature, secret)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		logger.CtxWarn(ctx, "webhook signature rejected", "error", err)
		return nil, apperrors.InvalidSignature(err)
	}

	started := time.Now()
	ctx = logger.WithAttrs(ctx, "event_id", ev.ID)

	if seen, err := s.cache.Seen(ctx, payment.ProviderStripe, ev.ID); err != nil {
		logger.CtxWithError(ctx, "webhook cache lookup failed", err)
	} else if seen {
		s.observe(ev, OutcomeDuplicate, started)
		return &dto.WebhookResponse{Received: true, Outcome: OutcomeDuplicate}, nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	row := &models.WebhookEvent{
		Provider:        payment.ProviderStripe,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		Status:          models.WebhookProcessed,
		EventCreatedAt:  ev.Created,
		Payload:         datatypes.JSON(payload),
	}
	inserted, err := s.repos.Webhooks.Record(tx, row)
	if err != nil {
		return nil, apperrors.TransactionError(err)
	}
	if !inserted {
		if err := tx.Commit().Error; err != nil {
			return nil, apperrors.TransactionError(err)
		}
		s.markSeen(ctx, ev.ID)
		s.observe(ev, OutcomeDuplicate, started)
		return &dto.WebhookResponse{Received: true, Outcome: OutcomeDuplicate}, nil
	}

	if err := tx.SavePoint(handlerSavepoint).Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	res, err := s.dispatch(ctx, tx, ev)
	if err != nil {
		appErr, ok := apperrors.AsAppError(err)
		if !ok || appErr.HTTPCode >= 500 {
			logger.CtxWithError(ctx, "webhook handler failed", err, "type", ev.Type)
			metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "error").Inc()
			if ok {
				return nil, appErr
			}
			return nil, apperrors.TransactionError(err)
		}
		if rerr := tx.RollbackTo(handlerSavepoint).Error; rerr != nil {
			return nil, apperrors.TransactionError(rerr)
		}
		logger.CtxWarn(ctx, "webhook event not applicable", "type", ev.Type, "reason", appErr.Message)
		res = &outcome{status: models.WebhookFailed, reason: appErr.Message}
	}

	if res.status != models.WebhookProcessed {
		if err := s.repos.Webhooks.SetOutcome(tx, row.ID, res.status, res.reason); err != nil {
			return nil, apperrors.TransactionError(err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	s.markSeen(ctx, ev.ID)
	s.observe(ev, string(res.status), started)
	if res.settled > 0 {
		metrics.PaymentsSettledCents.WithLabelValues(string(res.kind)).Add(float64(res.settled))
	}
	events.PublishAll(ctx, s.events, res.events...)

	return &dto.WebhookResponse{Received: true, Outcome: string(res.status)}, nil
}

func (s *settlementService) markSeen(ctx context.Context, eventID string) {
	if err := s.cache.Mark(ctx, payment.ProviderStripe, eventID); err != nil {
		logger.CtxWithError(ctx, "webhook cache mark failed", err)
	}
}

func (s *settlementService) observe(ev *payment.Event, result string, started time.Time) {
	metrics.WebhookEventsTotal.WithLabelValues(ev.Type, result).Inc()
	metrics.WebhookProcessingDuration.WithLabelValues(ev.Type).Observe(time.Since(started).Seconds())
	logger.WebhookLog(payment.ProviderStripe, ev.ID, ev.Type, result)
}

func (s *settlementService) dispatch(ctx context.Context, tx *gorm.DB, ev *payment.Event) (*outcome, error) {
	switch ev.Type {
	case payment.EventCheckoutCompleted:
		var session payment.CheckoutSessionObject
		if err := json.Unmarshal(ev.Object, &session); err != nil {
			return nil, apperrors.ValidationMessage("webhook", "Malformed checkout session")
		}
		switch {
		case session.IsJobPayment():
			return s.settleJobPayment(ctx, tx, &session)
		case session.IsSubscription():
			return s.activateSubscription(ctx, tx, ev, &session)
		default:
			return skipped("checkout session without marketplace metadata"), nil
		}

	case payment.EventInvoicePaid, payment.EventInvoiceFailed:
		var invoice payment.InvoiceObject
		if err := json.Unmarshal(ev.Object, &invoice); err != nil {
			return nil, apperrors.ValidationMessage("webhook", "Malformed invoice")
		}
		if ev.Type == payment.EventInvoicePaid {
			return s.renewMembership(ctx, tx, ev, &invoice)
		}
		return s.failMembership(ctx, tx, ev, &invoice)

	case payment.EventSubscriptionDeleted:
		var sub payment.SubscriptionObject
		if err := json.Unmarshal(ev.Object, &sub); err != nil {
			return nil, apperrors.ValidationMessage("webhook", "Malformed subscription")
		}
		return s.cancelMembership(ctx, tx, ev, &sub)
	}

	return skipped("unhandled event type"), nil
}

// ============================================
// Оплата работы
// ============================================

// savePayment - вставка новой строки или обновление полей проведенного платежа
func (s *settlementService) savePayment(tx *gorm.DB, p *models.Payment, isNew bool) error {
	if isNew {
		return s.repos.Payments.Create(tx, p)
	}
	return s.repos.Payments.UpdateFields(tx, p.ID, map[string]interface{}{
		"amount":                   p.Amount,
		"commission_amount":        p.CommissionAmount,
		"pilot_amount":             p.PilotAmount,
		"processing_fee":           p.ProcessingFee,
		"status":                   p.Status,
		"processed_at":             p.ProcessedAt,
		"stripe_payment_intent_id": p.StripePaymentIntentID,
		"refund_required":          p.RefundRequired,
		"failure_reason":           p.FailureReason,
	})
}

func (s *settlementService) settleJobPayment(ctx context.Context, tx *gorm.DB, session *payment.CheckoutSessionObject) (*outcome, error) {
	now := s.now()

	bidID := session.Metadata["bidId"]
	if bidID == "" {
		return nil, apperrors.ValidationMessage("webhook", "Job payment without bidId")
	}
	bid, err := s.repos.Bids.FindByIDForUpdate(tx, bidID)
	if err != nil {
		return nil, translate(err, paymentErrors)
	}

	p, err := s.repos.Payments.FindBySessionIDForUpdate(tx, session.ID)
	isNew := false
	switch {
	case errors.Is(err, repositories.ErrPaymentNotFound):
		isNew = true
		p = &models.Payment{
			BidID:           ptr(bid.ID),
			JobID:           ptr(bid.JobID),
			PilotID:         ptr(bid.PilotID),
			Currency:        strings.ToUpper(s.settings.Currency),
			PaymentType:     models.PaymentTypeJob,
			PaymentMethod:   models.PaymentMethodStripe,
			StripeSessionID: ptr(session.ID),
			Status:          models.PaymentStatusPending,
		}
		if pm := session.Metadata["propertyManagerId"]; pm != "" {
			p.PropertyManagerID = ptr(pm)
		}
	case err != nil:
		return nil, err
	}

	if p.Status == models.PaymentStatusCompleted {
		return skipped("payment already settled"), nil
	}
	if !p.Status.CanTransitionTo(models.PaymentStatusCompleted) {
		return nil, apperrors.ErrInvalidPaymentStatus.WithDetails(map[string]string{"status": string(p.Status)})
	}

	amount := money.Cents(session.AmountTotal)
	if amount <= 0 {
		amount = bid.TotalAmount
	}
	p.Amount = amount
	p.ProcessingFee = 0
	p.CalculateTotals(s.settings.CommissionRate)
	p.Status = models.PaymentStatusCompleted
	p.ProcessedAt = &now
	if pi := session.PaymentIntent.String(); pi != "" {
		p.StripePaymentIntentID = ptr(pi)
	}

	// ставка уже оплачена другой сессией: деньги приняты, пилоту не зачисляются
	if bid.Status == models.BidStatusAwarded {
		p.RefundRequired = true
		p.FailureReason = "bid already paid by another checkout session"
		if err := s.savePayment(tx, p, isNew); err != nil {
			return nil, err
		}
		logger.CtxWarn(ctx, "duplicate job payment needs refund",
			"payment_id", p.ID, "bid_id", bid.ID, "session_id", session.ID, "amount", p.Amount)
		res := processed()
		res.reason = p.FailureReason
		return res, nil
	}

	if err := s.savePayment(tx, p, isNew); err != nil {
		return nil, err
	}

	job, err := s.repos.Jobs.FindByIDForUpdate(tx, bid.JobID)
	if err != nil {
		return nil, translate(err, paymentErrors)
	}
	if job.Status != models.JobStatusCompleted {
		if !job.Status.CanTransitionTo(models.JobStatusCompleted) {
			return nil, apperrors.ErrInvalidJobStatus.WithDetails(map[string]string{"status": string(job.Status)})
		}
		if err := s.repos.Jobs.UpdateFields(tx, job.ID, map[string]interface{}{
			"status":       models.JobStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return nil, err
		}
	}

	if bid.Status != models.BidStatusAwarded {
		ok, err := s.repos.Bids.TransitionStatus(tx, bid.ID, []models.BidStatus{models.BidStatusAccepted}, map[string]interface{}{
			"status":     models.BidStatusAwarded,
			"awarded_at": now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.ErrInvalidBidStatus.WithDetails(map[string]string{"status": string(bid.Status)})
		}
	}

	if err := s.repos.Pilots.AddEarnings(tx, bid.PilotID, p.PilotAmount, 1); err != nil {
		return nil, translate(err, paymentErrors)
	}

	logger.CtxInfo(ctx, "job payment settled",
		"payment_id", p.ID, "bid_id", bid.ID, "job_id", job.ID,
		"amount", p.Amount, "commission", p.CommissionAmount, "pilot_amount", p.PilotAmount)

	var recipients []events.Recipient
	if manager, err := s.repos.Users.FindByID(tx, job.PropertyManagerID); err == nil {
		recipients = append(recipients, recipientOf(manager))
	}
	if pilot, err := s.repos.Pilots.FindByID(tx, bid.PilotID); err == nil {
		recipients = append(recipients, recipientOf(pilot.User))
	}

	res := processed(events.New(events.PaymentCompleted, map[string]any{
		"paymentId":   p.ID,
		"bidId":       bid.ID,
		"jobId":       job.ID,
		"amount":      p.Amount,
		"pilotAmount": p.PilotAmount,
	}, recipients...))
	res.settled = p.Amount
	res.kind = models.PaymentTypeJob
	return res, nil
}

// ============================================
// Членство пилота
// ============================================

func (s *settlementService) period(from time.Time) time.Time {
	return from.AddDate(0, s.settings.BillingPeriodMonths, 0)
}

// findSubscriber ищет пилота по customer, затем по подписке, затем по metadata.pilotId
func (s *settlementService) findSubscriber(tx *gorm.DB, customerID, subscriptionID, pilotID string) (*models.Pilot, error) {
	lookups := []struct {
		key  string
		find func(*gorm.DB, string) (*models.Pilot, error)
	}{
		{customerID, s.repos.Pilots.FindByStripeCustomerID},
		{subscriptionID, s.repos.Pilots.FindByStripeSubscriptionID},
		{pilotID, s.repos.Pilots.FindByIDForUpdate},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		pilot, err := l.find(tx, l.key)
		if err == nil {
			return pilot, nil
		}
		if !errors.Is(err, repositories.ErrPilotNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.ErrPilotNotFound
}

func (s *settlementService) membershipEvent(tx *gorm.DB, name string, pilot *models.Pilot, data map[string]any) events.Event {
	data["pilotId"] = pilot.ID
	var recipient events.Recipient
	if u, err := s.repos.Users.FindByID(tx, pilot.UserID); err == nil {
		recipient = recipientOf(u)
	}
	return events.New(name, data, recipient)
}

func (s *settlementService) activateSubscription(ctx context.Context, tx *gorm.DB, ev *payment.Event, session *payment.CheckoutSessionObject) (*outcome, error) {
	plan, ok := models.FindPlan(session.Metadata["planId"])
	if !ok {
		return nil, apperrors.ErrPlanNotFound
	}
	pilotID := session.Metadata["pilotId"]
	if pilotID == "" {
		pilotID = session.ClientReferenceID
	}
	pilot, err := s.findSubscriber(tx, "", "", pilotID)
	if err != nil {
		return nil, translate(err, pilotErrors)
	}

	ids := map[string]interface{}{}
	if c := session.Customer.String(); c != "" {
		ids["stripe_customer_id"] = c
	}
	if sub := session.Subscription.String(); sub != "" {
		ids["stripe_subscription_id"] = sub
	}

	if pilot.IsStaleMembershipEvent(ev.Created) {
		// идентификаторы провайдера нужны даже из устаревшего события
		if err := s.repos.Pilots.UpdateFields(tx, pilot.ID, ids); err != nil {
			return nil, err
		}
		return skipped("stale membership event"), nil
	}

	expiry := s.period(s.now())
	fields := map[string]interface{}{
		"membership_status":   plan.ID,
		"membership_expiry":   expiry,
		"membership_event_at": ev.Created,
	}
	for k, v := range ids {
		fields[k] = v
	}
	if err := s.repos.Pilots.UpdateFields(tx, pilot.ID, fields); err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "membership activated", "pilot_id", pilot.ID, "plan", plan.ID, "expiry", expiry)
	return processed(s.membershipEvent(tx, events.MembershipUpdated, pilot, map[string]any{
		"tier":   plan.ID,
		"expiry": expiry,
	})), nil
}

func (s *settlementService) renewMembership(ctx context.Context, tx *gorm.DB, ev *payment.Event, invoice *payment.InvoiceObject) (*outcome, error) {
	now := s.now()

	pilot, err := s.findSubscriber(tx, invoice.Customer.String(), invoice.Subscription.String(), invoice.SubscriptionDetails.Metadata["pilotId"])
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	if pilot.IsStaleMembershipEvent(ev.Created) {
		return skipped("stale membership event"), nil
	}

	base := now
	if pilot.MembershipExpiry != nil && pilot.MembershipExpiry.After(now) {
		base = *pilot.MembershipExpiry
	}
	expiry := s.period(base)
	// первый счет оплачивает тот же период, что уже открыл checkout
	if invoice.BillingReason == payment.BillingReasonCreate {
		expiry = s.period(now)
		if pilot.MembershipExpiry != nil && pilot.MembershipExpiry.After(expiry) {
			expiry = *pilot.MembershipExpiry
		}
	}

	fields := map[string]interface{}{
		"membership_expiry":   expiry,
		"membership_event_at": ev.Created,
	}
	if pilot.Status == models.PilotStatusActive || pilot.Status.CanTransitionTo(models.PilotStatusActive) {
		fields["status"] = models.PilotStatusActive
	}
	if pilot.MembershipStatus == models.MembershipFree {
		if plan, ok := models.FindPlan(invoice.SubscriptionDetails.Metadata["planId"]); ok {
			fields["membership_status"] = plan.ID
		}
	}
	if c := invoice.Customer.String(); c != "" && pilot.StripeCustomerID == nil {
		fields["stripe_customer_id"] = c
	}
	if sub := invoice.Subscription.String(); sub != "" && pilot.StripeSubscriptionID == nil {
		fields["stripe_subscription_id"] = sub
	}
	if err := s.repos.Pilots.UpdateFields(tx, pilot.ID, fields); err != nil {
		return nil, err
	}

	amount := money.Cents(invoice.AmountPaid)
	fee := &models.Payment{
		PilotID:          ptr(pilot.ID),
		Amount:           amount,
		Currency:         strings.ToUpper(invoice.Currency),
		PaymentType:      models.PaymentTypeMembership,
		PaymentMethod:    models.PaymentMethodStripe,
		StripeInvoiceID:  ptr(invoice.ID),
		Status:           models.PaymentStatusCompleted,
		CommissionAmount: amount,
		ProcessedAt:      &now,
		Description:      "Membership fee",
	}
	if fee.Currency == "" {
		fee.Currency = strings.ToUpper(s.settings.Currency)
	}
	if pi := invoice.PaymentIntent.String(); pi != "" {
		fee.StripePaymentIntentID = ptr(pi)
	}
	if ch := invoice.Charge.String(); ch != "" {
		fee.StripeChargeID = ptr(ch)
	}
	if err := s.repos.Payments.Create(tx, fee); err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "membership renewed", "pilot_id", pilot.ID, "expiry", expiry, "amount", amount)
	res := processed(s.membershipEvent(tx, events.MembershipUpdated, pilot, map[string]any{
		"tier":   pilot.MembershipStatus,
		"expiry": expiry,
	}))
	res.settled = amount
	res.kind = models.PaymentTypeMembership
	return res, nil
}

func (s *settlementService) failMembership(ctx context.Context, tx *gorm.DB, ev *payment.Event, invoice *payment.InvoiceObject) (*outcome, error) {
	pilot, err := s.findSubscriber(tx, invoice.Customer.String(), invoice.Subscription.String(), invoice.SubscriptionDetails.Metadata["pilotId"])
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	if pilot.IsStaleMembershipEvent(ev.Created) {
		return skipped("stale membership event"), nil
	}

	fields := map[string]interface{}{"membership_event_at": ev.Created}
	if pilot.Status.CanTransitionTo(models.PilotStatusSuspended) {
		fields["status"] = models.PilotStatusSuspended
	}
	if err := s.repos.Pilots.UpdateFields(tx, pilot.ID, fields); err != nil {
		return nil, err
	}

	logger.CtxWarn(ctx, "membership payment failed", "pilot_id", pilot.ID, "invoice_id", invoice.ID)
	return processed(s.membershipEvent(tx, events.MembershipPaymentFailed, pilot, map[string]any{
		"invoiceId": invoice.ID,
		"amountDue": money.Cents(invoice.AmountDue),
	})), nil
}

func (s *settlementService) cancelMembership(ctx context.Context, tx *gorm.DB, ev *payment.Event, sub *payment.SubscriptionObject) (*outcome, error) {
	pilot, err := s.findSubscriber(tx, sub.Customer.String(), sub.ID, sub.Metadata["pilotId"])
	if err != nil {
		return nil, translate(err, pilotErrors)
	}
	if pilot.IsStaleMembershipEvent(ev.Created) {
		return skipped("stale membership event"), nil
	}

	fields := map[string]interface{}{
		"membership_status":      models.MembershipFree,
		"membership_expiry":      nil,
		"membership_event_at":    ev.Created,
		"stripe_subscription_id": nil,
	}
	if pilot.Status.CanTransitionTo(models.PilotStatusInactive) {
		fields["status"] = models.PilotStatusInactive
	}
	if err := s.repos.Pilots.UpdateFields(tx, pilot.ID, fields); err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "membership cancelled", "pilot_id", pilot.ID, "subscription_id", sub.ID)
	return processed(s.membershipEvent(tx, events.MembershipUpdated, pilot, map[string]any{
		"tier": models.MembershipFree,
	})), nil
}
