package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/testutil"
)

type RepositorySuite struct {
	suite.Suite
	db *gorm.DB
}

func (s *RepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) TestUserCreate_DuplicateEmail() {
	repo := NewUserRepository()
	u := &models.User{Email: "Pilot@Example.com", PasswordHash: "x", FirstName: "A", LastName: "B", Role: models.UserRolePilot, IsActive: true}
	s.Require().NoError(repo.Create(s.db, u))
	s.Equal("pilot@example.com", u.Email)

	dup := &models.User{Email: "pilot@example.com ", PasswordHash: "x", FirstName: "A", LastName: "B", Role: models.UserRolePilot}
	s.ErrorIs(repo.Create(s.db, dup), ErrUserAlreadyExists)

	found, err := repo.FindByEmail(s.db, "PILOT@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	_, err = repo.FindByID(s.db, "00000000-0000-0000-0000-000000000000")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *RepositorySuite) TestPilotSearch_OrderAndFilters() {
	repo := NewPilotRepository()

	_, p1 := testutil.CreateEligiblePilot(s.T(), s.db)
	_, p2 := testutil.CreateEligiblePilot(s.T(), s.db)
	_, p3 := testutil.CreateEligiblePilot(s.T(), s.db)
	_, pending := testutil.CreateEligiblePilot(s.T(), s.db)

	s.Require().NoError(repo.UpdateFields(s.db, p1.ID, map[string]interface{}{"rating": 4.5, "total_reviews": 2}))
	s.Require().NoError(repo.UpdateFields(s.db, p2.ID, map[string]interface{}{"rating": 4.5, "total_reviews": 10}))
	s.Require().NoError(repo.UpdateFields(s.db, p3.ID, map[string]interface{}{
		"rating":           3.0,
		"services_offered": datatypes.JSON(`["roof_cleaning"]`),
		"is_available":     false,
	}))
	s.Require().NoError(repo.UpdateFields(s.db, pending.ID, map[string]interface{}{"status": models.PilotStatusPending}))

	pilots, total, err := repo.Search(s.db, PilotFilter{Pagination: Pagination{Page: 1, PageSize: 10}})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(pilots, 3)
	s.Equal(p2.ID, pilots[0].ID)
	s.Equal(p1.ID, pilots[1].ID)
	s.Equal(p3.ID, pilots[2].ID)
	s.NotNil(pilots[0].User)

	minRating := 4.0
	pilots, _, err = repo.Search(s.db, PilotFilter{MinRating: &minRating})
	s.Require().NoError(err)
	s.Len(pilots, 2)

	pilots, _, err = repo.Search(s.db, PilotFilter{Specialty: "roof_cleaning"})
	s.Require().NoError(err)
	s.Require().Len(pilots, 1)
	s.Equal(p3.ID, pilots[0].ID)

	pilots, _, err = repo.Search(s.db, PilotFilter{Available: true, Certified: true})
	s.Require().NoError(err)
	s.Len(pilots, 2)

	pilots, _, err = repo.Search(s.db, PilotFilter{Search: p1.BusinessName})
	s.Require().NoError(err)
	s.Require().Len(pilots, 1)
	s.Equal(p1.ID, pilots[0].ID)
}

func (s *RepositorySuite) TestPilotEarningsAndDowngrade() {
	repo := NewPilotRepository()
	_, p := testutil.CreateEligiblePilot(s.T(), s.db)

	s.Require().NoError(repo.AddEarnings(s.db, p.ID, 76500, 1))
	s.Require().NoError(repo.AddEarnings(s.db, p.ID, -500, 0))

	expired := time.Now().UTC().AddDate(0, 0, -5)
	s.Require().NoError(repo.UpdateFields(s.db, p.ID, map[string]interface{}{
		"membership_status": models.MembershipPremium,
		"membership_expiry": expired,
	}))

	n, err := repo.DowngradeExpiredMemberships(s.db, time.Now().UTC().AddDate(0, 0, -3))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	got, err := repo.FindByID(s.db, p.ID)
	s.Require().NoError(err)
	s.Equal(money.Cents(76000), got.TotalEarnings)
	s.Equal(1, got.CompletedJobs)
	s.Equal(models.MembershipFree, got.MembershipStatus)
	s.Nil(got.MembershipExpiry)
}

func (s *RepositorySuite) TestJobList_DefaultBoard() {
	repo := NewJobRepository()
	pm := testutil.CreateUser(s.T(), s.db, models.UserRolePropertyManager)

	bidding := testutil.CreateJob(s.T(), s.db, pm.ID)
	draft := testutil.CreateJob(s.T(), s.db, pm.ID)
	s.Require().NoError(repo.UpdateFields(s.db, draft.ID, map[string]interface{}{"status": models.JobStatusDraft}))
	private := testutil.CreateJob(s.T(), s.db, pm.ID)
	s.Require().NoError(repo.UpdateFields(s.db, private.ID, map[string]interface{}{"is_public": false}))

	jobs, total, err := repo.List(s.db, JobFilter{})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(bidding.ID, jobs[0].ID)

	jobs, _, err = repo.List(s.db, JobFilter{Status: models.JobStatusDraft})
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(draft.ID, jobs[0].ID)

	low := money.Cents(200000)
	jobs, _, err = repo.List(s.db, JobFilter{BudgetMin: &low})
	s.Require().NoError(err)
	s.Empty(jobs)

	jobs, _, err = repo.List(s.db, JobFilter{City: "aus", Search: "office"})
	s.Require().NoError(err)
	s.Len(jobs, 1)

	mine, total, err := repo.ListByManager(s.db, pm.ID, Pagination{Page: 1, PageSize: 20})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(mine, 3)
}

func (s *RepositorySuite) TestBidListByJob_CheapestThenOldest() {
	bids := NewBidRepository()
	pm := testutil.CreateUser(s.T(), s.db, models.UserRolePropertyManager)
	job := testutil.CreateJob(s.T(), s.db, pm.ID)

	mk := func(total money.Cents, created time.Time) *models.Bid {
		_, p := testutil.CreateEligiblePilot(s.T(), s.db)
		b := &models.Bid{JobID: job.ID, PilotID: p.ID, Amount: total, TotalAmount: total, PilotAmount: total, Status: models.BidStatusSubmitted}
		b.CreatedAt = created
		s.Require().NoError(bids.Create(s.db, b))
		return b
	}
	base := time.Now().UTC().Add(-time.Hour)
	expensive := mk(95000, base)
	cheapLate := mk(90000, base.Add(2*time.Minute))
	cheapEarly := mk(90000, base.Add(time.Minute))

	list, err := bids.ListByJob(s.db, job.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(cheapEarly.ID, list[0].ID)
	s.Equal(cheapLate.ID, list[1].ID)
	s.Equal(expensive.ID, list[2].ID)

	n, err := bids.RejectOtherActive(s.db, job.ID, cheapEarly.ID, "another bid was accepted", time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	has, err := bids.HasActiveBid(s.db, job.ID, cheapEarly.PilotID)
	s.Require().NoError(err)
	s.True(has)
	has, err = bids.HasActiveBid(s.db, job.ID, expensive.PilotID)
	s.Require().NoError(err)
	s.False(has)

	ok, err := bids.TransitionStatus(s.db, expensive.ID, models.ActiveBidStatuses, map[string]interface{}{"status": models.BidStatusAccepted})
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RepositorySuite) TestWebhookRecord_Duplicate() {
	repo := NewWebhookEventRepository()
	ev := func() *models.WebhookEvent {
		return &models.WebhookEvent{Provider: "stripe", ProviderEventID: "evt_1", EventType: "invoice.payment_failed", Status: models.WebhookProcessed}
	}

	inserted, err := repo.Record(s.db, ev())
	s.Require().NoError(err)
	s.True(inserted)

	inserted, err = repo.Record(s.db, ev())
	s.Require().NoError(err)
	s.False(inserted)

	n, err := repo.Count(s.db, "stripe", "evt_1")
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func TestInsuranceExpiryQueries(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInsuranceRepository()
	now := time.Now().UTC()

	mk := func(expiry time.Time) *models.Insurance {
		_, p := testutil.CreateEligiblePilot(t, db)
		ins := &models.Insurance{
			PilotID: p.ID, Provider: "Acme", PolicyNumber: "P-1", PolicyType: models.PolicyDroneLiability,
			CoverageAmount: 100000000, EffectiveDate: now.AddDate(-1, 0, 0), ExpiryDate: expiry,
			IsActive: true, IsVerified: true,
		}
		require.NoError(t, repo.Create(db, ins))
		return ins
	}
	expired := mk(now.Add(-time.Hour))
	soon := mk(now.AddDate(0, 0, 10))
	_ = mk(now.AddDate(0, 6, 0))

	dup := &models.Insurance{PilotID: soon.PilotID, Provider: "x", PolicyNumber: "y", PolicyType: models.PolicyOther, EffectiveDate: now, ExpiryDate: now}
	assert.ErrorIs(t, repo.Create(db, dup), ErrInsuranceAlreadyExists)

	list, err := repo.FindExpiring(db, now, now.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, soon.ID, list[0].ID)

	n, err := repo.DeactivateExpired(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(db, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, repo.MarkReminderSent(db, soon.ID, now))
	pending, err := repo.FindNeedingReminder(db, now, now.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Empty(t, pending)
}
