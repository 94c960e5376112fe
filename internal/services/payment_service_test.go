package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/pkg/apperrors"
)

var adminActor = dto.Actor{UserID: "00000000-0000-0000-0000-000000000001", Role: models.UserRoleAdmin}

func TestCreateJobPayment_OpensCheckoutForAcceptedBid(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.accepted(t, e, 90000)

	checkout, err := e.svc.Payments.CreateJobPayment(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, checkout.URL)

	req, ok := e.gateway.LastSession()
	require.True(t, ok)
	assert.Equal(t, payment.ModePayment, req.Mode)
	assert.EqualValues(t, 90000, req.Amount)
	assert.Equal(t, payment.MetadataTypeJobPayment, req.Metadata["type"])
	assert.Equal(t, bid.ID, req.Metadata["bidId"])
	assert.Contains(t, req.SuccessURL, "{CHECKOUT_SESSION_ID}")

	var p models.Payment
	require.NoError(t, e.db.First(&p, "stripe_session_id = ?", checkout.SessionID).Error)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.EqualValues(t, 13500, p.CommissionAmount)
}

func TestCreateJobPayment_ReusesOpenCheckout(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.accepted(t, e, 90000)

	first, err := e.svc.Payments.CreateJobPayment(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	again, err := e.svc.Payments.CreateJobPayment(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, again.SessionID)
	assert.Equal(t, first.URL, again.URL)
	assert.Len(t, e.gateway.Sessions, 1)
	assert.EqualValues(t, 1, countRows(t, e, &models.Payment{}, "bid_id = ?", bid.ID))
}

func TestCreateJobPayment_Guards(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)

	_, err := e.svc.Payments.CreateJobPayment(ctx, e.db, actorOf(m.manager), bid.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrBidNotAccepted))

	_, err = e.svc.Payments.CreateJobPayment(ctx, e.db, actorOf(m.pilotUser), bid.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotOwned))

	_, err = e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	e.gateway.Err = errors.New("stripe unavailable")
	_, err = e.svc.Payments.CreateJobPayment(ctx, e.db, actorOf(m.manager), bid.ID)
	assert.Equal(t, apperrors.CodeExternalServiceError, apperrors.CodeOf(err))
	assert.EqualValues(t, 0, countRows(t, e, &models.Payment{}, "1 = 1"))
}

// settledPayment - ставка оплачена через вебхук
func settledPayment(t *testing.T, e *env, m *marketplace, amount money.Cents) *models.Payment {
	t.Helper()
	bid := m.accepted(t, e, amount)
	body, sig := signed(t, payment.EventCheckoutCompleted, time.Now(), paidSession(t, e, m, bid))
	_, err := e.svc.Settlement.HandlePaymentWebhook(ctx, e.db, body, sig)
	require.NoError(t, err)

	var p models.Payment
	require.NoError(t, e.db.First(&p, "bid_id = ?", bid.ID).Error)
	require.Equal(t, models.PaymentStatusCompleted, p.Status)
	return &p
}

func TestRefund_PartialClawsBackProportionally(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	p := settledPayment(t, e, m, 90000)

	refunded, err := e.svc.Payments.Refund(ctx, e.db, adminActor, p.ID, &dto.RefundRequest{Amount: 45000, Reason: "half done"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	assert.EqualValues(t, 45000, refunded.RefundAmount)
	assert.Len(t, e.gateway.Refunds, 1)

	pilot := reloadPilot(t, e, m.pilot.ID)
	assert.EqualValues(t, 76500-38250, pilot.TotalEarnings)
	assert.Equal(t, 1, pilot.CompletedJobs)
	assert.Contains(t, e.events.names(), events.PaymentRefunded)

	_, err = e.svc.Payments.Refund(ctx, e.db, adminActor, p.ID, &dto.RefundRequest{})
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))
}

func TestRefund_FullRevertsCompletedJob(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	p := settledPayment(t, e, m, 90000)

	_, err := e.svc.Payments.Refund(ctx, e.db, adminActor, p.ID, &dto.RefundRequest{})
	require.NoError(t, err)

	pilot := reloadPilot(t, e, m.pilot.ID)
	assert.EqualValues(t, 0, pilot.TotalEarnings)
	assert.Equal(t, 0, pilot.CompletedJobs)
}

func TestRefund_Guards(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	p := settledPayment(t, e, m, 90000)

	_, err := e.svc.Payments.Refund(ctx, e.db, actorOf(m.manager), p.ID, &dto.RefundRequest{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientPermissions))

	_, err = e.svc.Payments.Refund(ctx, e.db, adminActor, p.ID, &dto.RefundRequest{Amount: 90001})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	// сбой провайдера не меняет платеж
	e.gateway.Err = errors.New("card network down")
	_, err = e.svc.Payments.Refund(ctx, e.db, adminActor, p.ID, &dto.RefundRequest{})
	assert.Equal(t, apperrors.CodeExternalServiceError, apperrors.CodeOf(err))
	var still models.Payment
	require.NoError(t, e.db.First(&still, "id = ?", p.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, still.Status)
}

func TestPaymentVisibility(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	p := settledPayment(t, e, m, 90000)
	outsider, _ := anotherPilot(t, e)

	_, err := e.svc.Payments.GetPayment(e.db, actorOf(m.manager), p.ID)
	assert.NoError(t, err)
	_, err = e.svc.Payments.GetPayment(e.db, actorOf(m.pilotUser), p.ID)
	assert.NoError(t, err)
	_, err = e.svc.Payments.GetPayment(e.db, actorOf(outsider), p.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	list, err := e.svc.Payments.ListPayments(e.db, actorOf(m.pilotUser), dto.PageQuery{})
	require.NoError(t, err)
	assert.Len(t, list.Payments, 1)

	list, err = e.svc.Payments.ListPayments(e.db, actorOf(outsider), dto.PageQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Payments)
}
