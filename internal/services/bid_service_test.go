package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

func TestSubmitBid_ComputesExactSplit(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	bid := m.submit(t, e, 90000)

	assert.Equal(t, models.BidStatusSubmitted, bid.Status)
	assert.EqualValues(t, 90000, bid.TotalAmount)
	assert.EqualValues(t, 13500, bid.CommissionAmount)
	assert.EqualValues(t, 76500, bid.PilotAmount)
	assert.Equal(t, bid.TotalAmount, bid.CommissionAmount+bid.PilotAmount)

	var job models.Job
	require.NoError(t, e.db.First(&job, "id = ?", m.job.ID).Error)
	assert.Equal(t, 1, job.BidCount)
	assert.Contains(t, e.events.names(), events.BidSubmitted)
}

func TestSubmitBid_PriorityFeeOnlyWhenPriority(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	bid, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(m.pilotUser), &dto.CreateBidRequest{
		JobID:       m.job.ID,
		Amount:      90000,
		PriorityFee: 5000,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, bid.PriorityFee)
	assert.EqualValues(t, 90000, bid.TotalAmount)

	u2, _ := anotherPilot(t, e)
	bid, err = e.svc.Bids.SubmitBid(ctx, e.db, actorOf(u2), &dto.CreateBidRequest{
		JobID:       m.job.ID,
		Amount:      90000,
		IsPriority:  true,
		PriorityFee: 5000,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 95000, bid.TotalAmount)
	assert.Equal(t, bid.TotalAmount, bid.CommissionAmount+bid.PilotAmount)
}

func TestSubmitBid_DuplicateActiveBidConflicts(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	m.submit(t, e, 50000)

	_, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(m.pilotUser), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 40000})
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateActiveBid))
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestSubmitBid_WithdrawnBidAllowsNewOne(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	first := m.submit(t, e, 50000)

	_, err := e.svc.Bids.WithdrawBid(ctx, e.db, actorOf(m.pilotUser), first.ID, "changed my mind")
	require.NoError(t, err)

	second := m.submit(t, e, 45000)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitBid_Eligibility(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	// 1. Истекший сертификат
	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, e.db.Model(&models.Pilot{}).Where("id = ?", m.pilot.ID).
		Update("certification_expiry", past).Error)

	_, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(m.pilotUser), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 1000})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPilotNotEligible))
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	// 2. Работа не в bidding
	require.NoError(t, e.db.Model(&models.Job{}).Where("id = ?", m.job.ID).Update("status", models.JobStatusDraft).Error)
	_, err = e.svc.Bids.SubmitBid(ctx, e.db, actorOf(m.pilotUser), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 1000})
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotOpenForBidding))
}

func TestSubmitBid_PublishedJobOpensBidding(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	require.NoError(t, e.db.Model(&models.Job{}).Where("id = ?", m.job.ID).Update("status", models.JobStatusPublished).Error)

	// 1. Первая ставка на опубликованную работу
	bid := m.submit(t, e, 90000)
	assert.Equal(t, models.BidStatusSubmitted, bid.Status)

	// 2. Работа перешла в bidding и принимает ставку к исполнению
	var job models.Job
	require.NoError(t, e.db.First(&job, "id = ?", m.job.ID).Error)
	assert.Equal(t, models.JobStatusBidding, job.Status)
	assert.Equal(t, 1, job.BidCount)

	_, err := e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
}

func TestSubmitBid_LucidSuiteOnlyJob(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	require.NoError(t, e.db.Model(&models.Job{}).Where("id = ?", m.job.ID).Update("is_lucid_suite_only", true).Error)

	_, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(m.pilotUser), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 1000})
	assert.True(t, apperrors.Is(err, apperrors.ErrLucidSuiteOnlyJob))

	require.NoError(t, e.db.Model(&models.Pilot{}).Where("id = ?", m.pilot.ID).Update("is_lucid_suite_customer", true).Error)
	m.submit(t, e, 1000)
}

func TestSubmitBid_WithoutPilotProfile(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	_, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(m.manager), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 1000})
	assert.True(t, apperrors.Is(err, apperrors.ErrPilotProfileRequired))
}

func TestAcceptBid_CascadesAtomically(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	// 1. Три ставки от разных пилотов
	winner := m.submit(t, e, 90000)
	var losers []string
	for i := 0; i < 2; i++ {
		u, _ := anotherPilot(t, e)
		bid, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(u), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 95000})
		require.NoError(t, err)
		losers = append(losers, bid.ID)
	}

	// 2. Принятие
	accepted, err := e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), winner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.AcceptedAt)

	// 3. Работа awarded, остальные отклонены
	var job models.Job
	require.NoError(t, e.db.First(&job, "id = ?", m.job.ID).Error)
	assert.Equal(t, models.JobStatusAwarded, job.Status)
	require.NotNil(t, job.AwardedBidID)
	assert.Equal(t, winner.ID, *job.AwardedBidID)
	assert.NotNil(t, job.AwardedAt)

	for _, id := range losers {
		var b models.Bid
		require.NoError(t, e.db.First(&b, "id = ?", id).Error)
		assert.Equal(t, models.BidStatusRejected, b.Status)
		assert.NotNil(t, b.RejectedAt)
	}
	assert.Contains(t, e.events.names(), events.BidAccepted)

	// 4. Повторное принятие - StateError
	_, err = e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), winner.ID)
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))
}

func TestAcceptBid_OnlyJobOwner(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)

	_, err := e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.pilotUser), bid.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotOwned))
}

func TestAcceptBid_ConcurrentAcceptsOneWins(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	first := m.submit(t, e, 1000)
	u, _ := anotherPilot(t, e)
	second, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(u), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 2000})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), id)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, e.db.Model(&models.Bid{}).
		Where("job_id = ? AND status = ?", m.job.ID, models.BidStatusAccepted).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAcceptBid_FailureRollsBackAndMapsToTransactionError(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)

	// обновление работы падает внутри транзакции
	require.NoError(t, e.db.Callback().Update().Before("gorm:update").Register("test:fail_jobs", func(tx *gorm.DB) {
		if tx.Statement.Table == "jobs" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), bid.ID)
	assert.Equal(t, apperrors.CodeTransactionFailed, apperrors.CodeOf(err))

	require.NoError(t, e.db.Callback().Update().Remove("test:fail_jobs"))

	var b models.Bid
	require.NoError(t, e.db.First(&b, "id = ?", bid.ID).Error)
	assert.Equal(t, models.BidStatusSubmitted, b.Status)
}

func TestRejectAndWithdraw_TerminalIsStateError(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)

	rejected, err := e.svc.Bids.RejectBid(ctx, e.db, actorOf(m.manager), bid.ID, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusRejected, rejected.Status)
	assert.Equal(t, "too expensive", rejected.RejectionReason)

	_, err = e.svc.Bids.WithdrawBid(ctx, e.db, actorOf(m.pilotUser), bid.ID, "")
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))

	_, err = e.svc.Bids.RejectBid(ctx, e.db, actorOf(m.manager), bid.ID, "again")
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))
}

func TestWithdraw_OnlyOwningPilot(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)
	other, _ := anotherPilot(t, e)

	_, err := e.svc.Bids.WithdrawBid(ctx, e.db, actorOf(other), bid.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrBidNotOwned))

	_, err = e.svc.Bids.RejectBid(ctx, e.db, actorOf(m.pilotUser), bid.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotOwned))
}

func TestReviewThenAccept(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)

	reviewed, err := e.svc.Bids.ReviewBid(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusUnderReview, reviewed.Status)

	_, err = e.svc.Bids.ReviewBid(ctx, e.db, actorOf(m.manager), bid.ID)
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))

	accepted, err := e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusAccepted, accepted.Status)
}

func TestMarkRead_Idempotent(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)

	first, err := e.svc.Bids.MarkRead(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	second, err := e.svc.Bids.MarkRead(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt))
}

func TestGetBid_Visibility(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)
	outsider, _ := anotherPilot(t, e)

	_, err := e.svc.Bids.GetBid(e.db, actorOf(m.pilotUser), bid.ID)
	assert.NoError(t, err)
	_, err = e.svc.Bids.GetBid(e.db, actorOf(m.manager), bid.ID)
	assert.NoError(t, err)
	_, err = e.svc.Bids.GetBid(e.db, dto.Actor{UserID: "admin", Role: models.UserRoleAdmin}, bid.ID)
	assert.NoError(t, err)
	_, err = e.svc.Bids.GetBid(e.db, actorOf(outsider), bid.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrBidNotOwned))
}

func TestListBids_CheapestThenOldestForManager(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	m.submit(t, e, 3000)
	u, _ := anotherPilot(t, e)
	_, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(u), &dto.CreateBidRequest{JobID: m.job.ID, Amount: 1000})
	require.NoError(t, err)

	list, err := e.svc.Bids.ListBids(e.db, actorOf(m.manager), &dto.BidListQuery{JobID: m.job.ID})
	require.NoError(t, err)
	require.Len(t, list.Bids, 2)
	assert.EqualValues(t, 1000, list.Bids[0].Amount)
	assert.EqualValues(t, 2, list.Pagination.Total)

	mine, err := e.svc.Bids.ListBids(e.db, actorOf(m.pilotUser), &dto.BidListQuery{})
	require.NoError(t, err)
	require.Len(t, mine.Bids, 1)
	assert.EqualValues(t, 3000, mine.Bids[0].Amount)

	_, err = e.svc.Bids.ListJobBids(e.db, actorOf(u), m.job.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotOwned))
}
