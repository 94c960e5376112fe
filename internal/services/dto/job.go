package dto

import (
	"time"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
)

type CreateJobRequest struct {
	Title               string              `json:"title" validate:"required,min=5,max=200"`
	Description         string              `json:"description" validate:"required,min=10,max=2000"`
	PropertyType        models.PropertyType `json:"propertyType" validate:"required,is-property-type"`
	CleaningType        models.CleaningType `json:"cleaningType" validate:"required,is-cleaning-type"`
	Urgency             models.Urgency      `json:"urgency" validate:"omitempty,is-urgency"`
	BuildingHeight      *int                `json:"buildingHeight" validate:"omitempty,min=1"`
	SquareFootage       *int                `json:"squareFootage" validate:"omitempty,min=1"`
	Address             string              `json:"address" validate:"required,max=255"`
	City                string              `json:"city" validate:"required,max=100"`
	State               string              `json:"state" validate:"required,max=50"`
	ZipCode             string              `json:"zipCode" validate:"required,max=20"`
	Latitude            *float64            `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude           *float64            `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Budget              money.Cents         `json:"budget" validate:"gte=0"`
	BudgetType          models.BudgetType   `json:"budgetType" validate:"omitempty,is-budget-type"`
	BudgetMin           money.Cents         `json:"budgetMin" validate:"gte=0"`
	BudgetMax           money.Cents         `json:"budgetMax" validate:"gte=0"`
	PreferredStartDate  *time.Time          `json:"preferredStartDate"`
	Deadline            *time.Time          `json:"deadline"`
	EstimatedDuration   *int                `json:"estimatedDuration" validate:"omitempty,min=1"`
	SpecialRequirements string              `json:"specialRequirements" validate:"omitempty,max=2000"`
	AccessNotes         string              `json:"accessNotes" validate:"omitempty,max=2000"`
	SafetyRequirements  string              `json:"safetyRequirements" validate:"omitempty,max=2000"`
	IsPublic            *bool               `json:"isPublic"`
	IsLucidSuiteOnly    bool                `json:"isLucidSuiteOnly"`
	Tags                []string            `json:"tags" validate:"omitempty,dive,max=50"`
	// Publish - сразу опубликовать вместо черновика
	Publish bool `json:"publish"`
}

type UpdateJobRequest struct {
	Title               *string              `json:"title,omitempty" validate:"omitempty,min=5,max=200"`
	Description         *string              `json:"description,omitempty" validate:"omitempty,min=10,max=2000"`
	PropertyType        *models.PropertyType `json:"propertyType,omitempty" validate:"omitempty,is-property-type"`
	CleaningType        *models.CleaningType `json:"cleaningType,omitempty" validate:"omitempty,is-cleaning-type"`
	Urgency             *models.Urgency      `json:"urgency,omitempty" validate:"omitempty,is-urgency"`
	BuildingHeight      *int                 `json:"buildingHeight,omitempty" validate:"omitempty,min=1"`
	SquareFootage       *int                 `json:"squareFootage,omitempty" validate:"omitempty,min=1"`
	Address             *string              `json:"address,omitempty" validate:"omitempty,max=255"`
	City                *string              `json:"city,omitempty" validate:"omitempty,max=100"`
	State               *string              `json:"state,omitempty" validate:"omitempty,max=50"`
	ZipCode             *string              `json:"zipCode,omitempty" validate:"omitempty,max=20"`
	Budget              *money.Cents         `json:"budget,omitempty" validate:"omitempty,gte=0"`
	BudgetType          *models.BudgetType   `json:"budgetType,omitempty" validate:"omitempty,is-budget-type"`
	BudgetMin           *money.Cents         `json:"budgetMin,omitempty" validate:"omitempty,gte=0"`
	BudgetMax           *money.Cents         `json:"budgetMax,omitempty" validate:"omitempty,gte=0"`
	PreferredStartDate  *time.Time           `json:"preferredStartDate,omitempty"`
	Deadline            *time.Time           `json:"deadline,omitempty"`
	EstimatedDuration   *int                 `json:"estimatedDuration,omitempty" validate:"omitempty,min=1"`
	SpecialRequirements *string              `json:"specialRequirements,omitempty" validate:"omitempty,max=2000"`
	AccessNotes         *string              `json:"accessNotes,omitempty" validate:"omitempty,max=2000"`
	SafetyRequirements  *string              `json:"safetyRequirements,omitempty" validate:"omitempty,max=2000"`
	IsPublic            *bool                `json:"isPublic,omitempty"`
	IsLucidSuiteOnly    *bool                `json:"isLucidSuiteOnly,omitempty"`
	Tags                []string             `json:"tags,omitempty" validate:"omitempty,dive,max=50"`
}

// JobStatusRequest - ручные переходы; awarded и completed сюда не входят
type JobStatusRequest struct {
	Status models.JobStatus `json:"status" validate:"required,oneof=published bidding in_progress cancelled"`
}

type JobListQuery struct {
	Status       models.JobStatus    `form:"status" json:"status" validate:"omitempty,is-job-status"`
	PropertyType models.PropertyType `form:"propertyType" json:"propertyType" validate:"omitempty,is-property-type"`
	CleaningType models.CleaningType `form:"cleaningType" json:"cleaningType" validate:"omitempty,is-cleaning-type"`
	BudgetMin    *float64            `form:"budgetMin" json:"budgetMin" validate:"omitempty,gte=0"`
	BudgetMax    *float64            `form:"budgetMax" json:"budgetMax" validate:"omitempty,gte=0"`
	City         string              `form:"city" json:"city"`
	Search       string              `form:"search" json:"search" validate:"omitempty,max=100"`
	PageQuery
}

type JobListResponse struct {
	Jobs       []models.Job `json:"jobs"`
	Pagination Pagination   `json:"pagination"`
}
