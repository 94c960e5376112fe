package dto

import (
	"time"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
)

type CreatePilotRequest struct {
	BusinessName        string      `json:"businessName" validate:"omitempty,max=100"`
	BusinessLicense     string      `json:"businessLicense" validate:"omitempty,max=100"`
	YearsOfExperience   int         `json:"yearsOfExperience" validate:"min=0,max=50"`
	HourlyRate          money.Cents `json:"hourlyRate" validate:"gte=0"`
	ServiceRadius       int         `json:"serviceRadius" validate:"omitempty,min=1,max=500"`
	IsCertified         bool        `json:"isCertified"`
	CertificationDate   *time.Time  `json:"certificationDate"`
	CertificationExpiry *time.Time  `json:"certificationExpiry"`
	ServicesOffered     []string    `json:"servicesOffered" validate:"omitempty,dive,is-cleaning-type"`
	Specialties         []string    `json:"specialties" validate:"omitempty,dive,max=100"`
	Languages           []string    `json:"languages" validate:"omitempty,dive,max=50"`
	Equipment           []string    `json:"equipment" validate:"omitempty,dive,max=100"`
	Bio                 string      `json:"bio" validate:"omitempty,max=1000"`
	IsAvailable         *bool       `json:"isAvailable"`
}

// UpdatePilotRequest - статус, тариф, рейтинг и заработок отсюда не меняются
type UpdatePilotRequest struct {
	BusinessName        *string      `json:"businessName,omitempty" validate:"omitempty,max=100"`
	BusinessLicense     *string      `json:"businessLicense,omitempty" validate:"omitempty,max=100"`
	YearsOfExperience   *int         `json:"yearsOfExperience,omitempty" validate:"omitempty,min=0,max=50"`
	HourlyRate          *money.Cents `json:"hourlyRate,omitempty" validate:"omitempty,gte=0"`
	ServiceRadius       *int         `json:"serviceRadius,omitempty" validate:"omitempty,min=1,max=500"`
	IsCertified         *bool        `json:"isCertified,omitempty"`
	CertificationDate   *time.Time   `json:"certificationDate,omitempty"`
	CertificationExpiry *time.Time   `json:"certificationExpiry,omitempty"`
	ServicesOffered     []string     `json:"servicesOffered,omitempty" validate:"omitempty,dive,is-cleaning-type"`
	Specialties         []string     `json:"specialties,omitempty" validate:"omitempty,dive,max=100"`
	Languages           []string     `json:"languages,omitempty" validate:"omitempty,dive,max=50"`
	Equipment           []string     `json:"equipment,omitempty" validate:"omitempty,dive,max=100"`
	Bio                 *string      `json:"bio,omitempty" validate:"omitempty,max=1000"`
	IsAvailable         *bool        `json:"isAvailable,omitempty"`
}

type PilotStatusRequest struct {
	Status models.PilotStatus `json:"status" validate:"required,is-pilot-status"`
}

type RatingRequest struct {
	Rating float64 `json:"rating" validate:"required,min=1,max=5"`
}

type PilotSearchQuery struct {
	Search    string   `form:"search" json:"search" validate:"omitempty,max=100"`
	MinRating *float64 `form:"rating" json:"rating" validate:"omitempty,min=0,max=5"`
	Specialty string   `form:"specialty" json:"specialty"`
	Certified bool     `form:"certified" json:"certified"`
	Available bool     `form:"available" json:"available"`
	PageQuery
}

type PilotListResponse struct {
	Pilots     []models.Pilot `json:"pilots"`
	Pagination Pagination     `json:"pagination"`
}
