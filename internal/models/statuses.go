package models

type UserRole string
type PilotStatus string
type MembershipTier string
type JobStatus string
type BidStatus string
type PaymentStatus string
type PaymentType string
type PaymentMethod string

const (
	UserRolePropertyManager UserRole = "property_manager"
	UserRolePilot           UserRole = "pilot"
	UserRoleAdmin           UserRole = "admin"

	PilotStatusPending   PilotStatus = "pending"
	PilotStatusActive    PilotStatus = "active"
	PilotStatusSuspended PilotStatus = "suspended"
	PilotStatusInactive  PilotStatus = "inactive"

	MembershipFree       MembershipTier = "free"
	MembershipBasic      MembershipTier = "basic"
	MembershipPremium    MembershipTier = "premium"
	MembershipEnterprise MembershipTier = "enterprise"

	JobStatusDraft      JobStatus = "draft"
	JobStatusPublished  JobStatus = "published"
	JobStatusBidding    JobStatus = "bidding"
	JobStatusAwarded    JobStatus = "awarded"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"

	BidStatusSubmitted   BidStatus = "submitted"
	BidStatusUnderReview BidStatus = "under_review"
	BidStatusAccepted    BidStatus = "accepted"
	BidStatusRejected    BidStatus = "rejected"
	BidStatusWithdrawn   BidStatus = "withdrawn"
	BidStatusAwarded     BidStatus = "awarded"

	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"

	PaymentTypeJob        PaymentType = "job_payment"
	PaymentTypeMembership PaymentType = "membership_fee"
	PaymentTypePriority   PaymentType = "priority_fee"
	PaymentTypeCommission PaymentType = "commission"
	PaymentTypeRefund     PaymentType = "refund"

	PaymentMethodStripe PaymentMethod = "stripe"
)

// ============================================
// Переходы статусов
// ============================================

var bidTransitions = map[BidStatus][]BidStatus{
	BidStatusSubmitted:   {BidStatusUnderReview, BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn},
	BidStatusUnderReview: {BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn},
	BidStatusAccepted:    {BidStatusAwarded},
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusDraft:      {JobStatusPublished, JobStatusCancelled},
	JobStatusPublished:  {JobStatusBidding, JobStatusCancelled},
	JobStatusBidding:    {JobStatusAwarded, JobStatusCancelled},
	JobStatusAwarded:    {JobStatusInProgress, JobStatusCompleted, JobStatusCancelled},
	JobStatusInProgress: {JobStatusCompleted},
}

var pilotTransitions = map[PilotStatus][]PilotStatus{
	PilotStatusPending:   {PilotStatusActive},
	PilotStatusActive:    {PilotStatusSuspended, PilotStatusInactive},
	PilotStatusSuspended: {PilotStatusActive, PilotStatusInactive},
	PilotStatusInactive:  {PilotStatusActive},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	return contains(bidTransitions[s], next)
}

// IsActive - ставка еще ожидает решения заказчика
func (s BidStatus) IsActive() bool {
	return s == BidStatusSubmitted || s == BidStatusUnderReview
}

func (s BidStatus) IsTerminal() bool {
	return len(bidTransitions[s]) == 0
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	return contains(jobTransitions[s], next)
}

// IsOnBoard - работа видна на общей доске
func (s JobStatus) IsOnBoard() bool {
	return s == JobStatusPublished || s == JobStatusBidding
}

// IsLocked - работу нельзя редактировать или удалять
func (s JobStatus) IsLocked() bool {
	return s == JobStatusAwarded || s == JobStatusInProgress || s == JobStatusCompleted
}

func (s PilotStatus) CanTransitionTo(next PilotStatus) bool {
	return contains(pilotTransitions[s], next)
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return contains(paymentTransitions[s], next)
}

func (t MembershipTier) IsPaid() bool {
	return t == MembershipBasic || t == MembershipPremium || t == MembershipEnterprise
}

// ActiveBidStatuses - статусы, которые блокируют повторную ставку
var ActiveBidStatuses = []BidStatus{BidStatusSubmitted, BidStatusUnderReview}

// BoardJobStatuses - статусы работ на общей доске
var BoardJobStatuses = []JobStatus{JobStatusPublished, JobStatusBidding}
