package dto

import (
	"time"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
)

type CreateBidRequest struct {
	JobID             string      `json:"jobId" validate:"required,uuid"`
	Amount            money.Cents `json:"amount" validate:"required,gt=0"`
	IsPriority        bool        `json:"isPriority"`
	PriorityFee       money.Cents `json:"priorityFee" validate:"gte=0"`
	EstimatedDuration *int        `json:"estimatedDuration" validate:"omitempty,min=1"`
	ProposedStartDate *time.Time  `json:"proposedStartDate"`
	ProposedEndDate   *time.Time  `json:"proposedEndDate"`
	Message           string      `json:"message" validate:"omitempty,max=2000"`
	Inclusions        []string    `json:"inclusions" validate:"omitempty,dive,max=200"`
	Exclusions        []string    `json:"exclusions" validate:"omitempty,dive,max=200"`
	Warranty          *int        `json:"warranty" validate:"omitempty,min=0"`
	Terms             string      `json:"terms" validate:"omitempty,max=5000"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type BidListQuery struct {
	JobID string `form:"jobId" json:"jobId" validate:"omitempty,uuid"`
	PageQuery
}

type BidListResponse struct {
	Bids       []models.Bid `json:"bids"`
	Pagination Pagination   `json:"pagination"`
}
