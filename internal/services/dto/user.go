package dto

import (
	"time"

	"dronemarket_backend/internal/models"
)

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=50"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=100"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City      *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State     *string `json:"state,omitempty" validate:"omitempty,max=50"`
	ZipCode   *string `json:"zipCode,omitempty" validate:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// SubscriptionStatusResponse - состояние членства пилота
type SubscriptionStatusResponse struct {
	Status        models.MembershipTier `json:"status"`
	Expiry        *time.Time            `json:"expiry"`
	IsActive      bool                  `json:"isActive"`
	AccountStatus models.PilotStatus    `json:"accountStatus,omitempty"`
}
