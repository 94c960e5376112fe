package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dronemarket_backend/internal/money"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestInsuranceIsValid(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	expiredVerified := Insurance{IsActive: true, IsVerified: true, ExpiryDate: now.Add(-24 * time.Hour)}
	assert.False(t, expiredVerified.IsValid(now))

	futureUnverified := Insurance{IsActive: true, IsVerified: false, ExpiryDate: now.Add(90 * 24 * time.Hour)}
	assert.False(t, futureUnverified.IsValid(now))

	ok := Insurance{IsActive: true, IsVerified: true, ExpiryDate: now.Add(90 * 24 * time.Hour)}
	assert.True(t, ok.IsValid(now))

	inactive := ok
	inactive.IsActive = false
	assert.False(t, inactive.IsValid(now))
}

func TestInsuranceExpiry(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ins := Insurance{IsActive: true, IsVerified: true, ExpiryDate: now.Add(29*24*time.Hour + time.Hour)}

	assert.Equal(t, 30, ins.DaysUntilExpiry(now))
	assert.True(t, ins.IsExpiringSoon(now, 30))
	assert.False(t, ins.IsExpiringSoon(now, 7))
}

func TestPilotCanBid(t *testing.T) {
	now := time.Now()
	eligible := Pilot{
		IsCertified:         true,
		CertificationExpiry: ptrTime(now.Add(time.Hour)),
		MembershipStatus:    MembershipFree,
		IsAvailable:         true,
		Status:              PilotStatusActive,
	}
	assert.True(t, eligible.CanBid(now))

	expiredCert := eligible
	expiredCert.CertificationExpiry = ptrTime(now.Add(-time.Hour))
	assert.False(t, expiredCert.CanBid(now))

	lapsed := eligible
	lapsed.MembershipStatus = MembershipPremium
	lapsed.MembershipExpiry = ptrTime(now.Add(-time.Hour))
	assert.False(t, lapsed.CanBid(now))

	paid := lapsed
	paid.MembershipExpiry = ptrTime(now.Add(time.Hour))
	assert.True(t, paid.CanBid(now))

	unavailable := eligible
	unavailable.IsAvailable = false
	assert.False(t, unavailable.CanBid(now))

	suspended := eligible
	suspended.Status = PilotStatusSuspended
	assert.False(t, suspended.CanBid(now))
}

func TestPilotApplyRating(t *testing.T) {
	p := Pilot{Rating: 4, TotalReviews: 3}
	p.ApplyRating(5)
	assert.Equal(t, 4, p.TotalReviews)
	assert.InDelta(t, 4.25, p.Rating, 1e-9)
}

func TestBidCalculateTotals(t *testing.T) {
	b := Bid{Amount: money.FromFloat(900)}
	b.CalculateTotals(money.RateToBasisPoints(0.15))
	assert.Equal(t, "900.00", b.TotalAmount.String())
	assert.Equal(t, "135.00", b.CommissionAmount.String())
	assert.Equal(t, "765.00", b.PilotAmount.String())

	// сбор учитывается только у приоритетной ставки
	b = Bid{Amount: 10000, PriorityFee: 2500}
	b.CalculateTotals(1500)
	assert.Equal(t, money.Cents(10000), b.TotalAmount)

	b = Bid{Amount: 10000, PriorityFee: 2500, IsPriority: true}
	b.CalculateTotals(1500)
	assert.Equal(t, money.Cents(12500), b.TotalAmount)
	assert.Equal(t, b.TotalAmount, b.CommissionAmount+b.PilotAmount)
}

func TestBidTransitions(t *testing.T) {
	assert.True(t, BidStatusSubmitted.CanTransitionTo(BidStatusUnderReview))
	assert.True(t, BidStatusUnderReview.CanTransitionTo(BidStatusAccepted))
	assert.True(t, BidStatusAccepted.CanTransitionTo(BidStatusAwarded))
	assert.False(t, BidStatusAccepted.CanTransitionTo(BidStatusAccepted))
	assert.False(t, BidStatusUnderReview.CanTransitionTo(BidStatusSubmitted))

	for _, s := range []BidStatus{BidStatusRejected, BidStatusWithdrawn, BidStatusAwarded} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.CanTransitionTo(BidStatusWithdrawn), s)
	}
	assert.False(t, BidStatusAccepted.IsTerminal())
	assert.True(t, BidStatusUnderReview.IsActive())
	assert.False(t, BidStatusAccepted.IsActive())
}

func TestJobPilotPaymentTransitions(t *testing.T) {
	assert.True(t, JobStatusBidding.CanTransitionTo(JobStatusAwarded))
	assert.False(t, JobStatusDraft.CanTransitionTo(JobStatusAwarded))
	assert.False(t, JobStatusCompleted.CanTransitionTo(JobStatusCancelled))
	assert.True(t, JobStatusAwarded.CanTransitionTo(JobStatusCompleted))

	assert.True(t, PilotStatusPending.CanTransitionTo(PilotStatusActive))
	assert.False(t, PilotStatusPending.CanTransitionTo(PilotStatusSuspended))
	assert.True(t, PilotStatusSuspended.CanTransitionTo(PilotStatusInactive))

	assert.True(t, PaymentStatusCompleted.CanTransitionTo(PaymentStatusRefunded))
	assert.False(t, PaymentStatusPending.CanTransitionTo(PaymentStatusRefunded))
}

func TestJobCanBeBidOn(t *testing.T) {
	j := Job{Status: JobStatusBidding, IsPublic: true}
	assert.True(t, j.CanBeBidOn())
	j.IsPublic = false
	assert.False(t, j.CanBeBidOn())
	j = Job{Status: JobStatusPublished, IsPublic: true}
	assert.True(t, j.CanBeBidOn())
	j = Job{Status: JobStatusDraft, IsPublic: true}
	assert.False(t, j.CanBeBidOn())
	j = Job{Status: JobStatusAwarded, IsPublic: true}
	assert.False(t, j.CanBeBidOn())
}

func TestLucidSuiteAccess(t *testing.T) {
	now := time.Now()
	l := LucidSuiteUser{SubscriptionStatus: LucidSubscriptionActive, MarketplaceAccess: true}
	assert.True(t, l.CanAccessMarketplace(now))

	l.SubscriptionEndDate = ptrTime(now.Add(-time.Minute))
	assert.False(t, l.CanAccessMarketplace(now))

	l.SubscriptionEndDate = nil
	l.AddMonthlyROMs(30, now)
	l.AddMonthlyROMs(15, now)
	assert.Equal(t, 45, l.MonthlyROMs)
	assert.Equal(t, 45, l.TotalROMs)
	assert.Equal(t, 45, l.RobotOperatingMinutes)
}

func TestFindPlan(t *testing.T) {
	p, ok := FindPlan("premium")
	assert.True(t, ok)
	assert.Equal(t, "79.99", p.Price.String())
	_, ok = FindPlan("gold")
	assert.False(t, ok)
}
