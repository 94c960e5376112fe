package dto

type CreateSubscriptionCheckoutRequest struct {
	PlanID string `json:"planId" validate:"required,is-plan"`
}
