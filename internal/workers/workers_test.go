package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/metrics"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
	dbtest "dronemarket_backend/internal/testutil"
)

type countingWorker struct {
	name  string
	runs  atomic.Int32
	fails bool
}

func (w *countingWorker) Name() string { return w.name }

func (w *countingWorker) RunOnce(context.Context) error {
	w.runs.Add(1)
	if w.fails {
		return errors.New("sweep failed")
	}
	return nil
}

type capturePublisher struct {
	got []events.Event
	err error
}

func (p *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, ev)
	return nil
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := &countingWorker{name: "counting"}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, w, 5*time.Millisecond)
		close(done)
	}()

	// первый проход сразу, дальше по тикеру
	require.Eventually(t, func() bool { return w.runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRunAll_CountsErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	before := testutil.ToFloat64(metrics.WorkerErrorsTotal.WithLabelValues("failing"))
	ok := &countingWorker{name: "ok"}
	failing := &countingWorker{name: "failing", fails: true}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunAll(ctx, time.Hour, ok, failing)
		close(done)
	}()

	require.Eventually(t, func() bool { return ok.runs.Load() == 1 && failing.runs.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WorkerErrorsTotal.WithLabelValues("failing")))
}

func TestMembershipWorker_DowngradesAfterGrace(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := repositories.NewPilotRepository()
	now := time.Now().UTC()

	// 1. Один пилот истек 5 дней назад, второй вчера (еще в льготном периоде)
	_, lapsed := dbtest.CreateEligiblePilot(t, db)
	require.NoError(t, repo.UpdateFields(db, lapsed.ID, map[string]interface{}{
		"membership_status": models.MembershipPremium,
		"membership_expiry": now.AddDate(0, 0, -5),
	}))
	_, grace := dbtest.CreateEligiblePilot(t, db)
	require.NoError(t, repo.UpdateFields(db, grace.ID, map[string]interface{}{
		"membership_status": models.MembershipBasic,
		"membership_expiry": now.AddDate(0, 0, -1),
	}))

	// 2. Проход
	w := NewMembershipWorker(db, repo, 3)
	w.now = func() time.Time { return now }
	require.NoError(t, w.RunOnce(context.Background()))

	// 3. Проверяем
	got, err := repo.FindByID(db, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipFree, got.MembershipStatus)
	assert.Nil(t, got.MembershipExpiry)

	got, err = repo.FindByID(db, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipBasic, got.MembershipStatus)
}

func createPolicy(t *testing.T, pilotID string, now, expiry time.Time) *models.Insurance {
	t.Helper()
	ins := &models.Insurance{
		PilotID: pilotID, Provider: "Acme", PolicyNumber: "P-" + pilotID[:4], PolicyType: models.PolicyDroneLiability,
		CoverageAmount: 100000000, EffectiveDate: now.AddDate(-1, 0, 0), ExpiryDate: expiry,
		IsActive: true, IsVerified: true,
	}
	return ins
}

func TestInsuranceWorker_DeactivatesAndRemindsOnce(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := repositories.NewInsuranceRepository()
	now := time.Now().UTC()

	// 1. Истекший полис и полис, истекающий через 10 дней
	_, p1 := dbtest.CreateEligiblePilot(t, db)
	expired := createPolicy(t, p1.ID, now, now.Add(-time.Hour))
	require.NoError(t, repo.Create(db, expired))

	u2, p2 := dbtest.CreateEligiblePilot(t, db)
	soon := createPolicy(t, p2.ID, now, now.AddDate(0, 0, 10))
	require.NoError(t, repo.Create(db, soon))

	pub := &capturePublisher{}
	w := NewInsuranceWorker(db, repo, pub, 30)
	w.now = func() time.Time { return now }

	// 2. Первый проход
	require.NoError(t, w.RunOnce(context.Background()))

	got, err := repo.FindByID(db, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.Len(t, pub.got, 1)
	ev := pub.got[0]
	assert.Equal(t, events.InsuranceExpiring, ev.Name)
	assert.Equal(t, soon.ID, ev.Data["insuranceId"])
	require.Len(t, ev.Recipients, 1)
	assert.Equal(t, u2.Email, ev.Recipients[0].Email)

	// 3. Повторный проход не дублирует напоминание
	require.NoError(t, w.RunOnce(context.Background()))
	assert.Len(t, pub.got, 1)
}

func TestInsuranceWorker_RetriesFailedReminder(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := repositories.NewInsuranceRepository()
	now := time.Now().UTC()

	_, p := dbtest.CreateEligiblePilot(t, db)
	require.NoError(t, repo.Create(db, createPolicy(t, p.ID, now, now.AddDate(0, 0, 5))))

	pub := &capturePublisher{err: errors.New("smtp down")}
	w := NewInsuranceWorker(db, repo, pub, 30)
	w.now = func() time.Time { return now }

	assert.Error(t, w.RunOnce(context.Background()))

	// доставка восстановилась - напоминание уходит
	pub.err = nil
	require.NoError(t, w.RunOnce(context.Background()))
	assert.Len(t, pub.got, 1)
}
