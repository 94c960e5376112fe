package models

import (
	"time"

	"gorm.io/datatypes"

	"dronemarket_backend/internal/money"
)

type PropertyType string
type CleaningType string
type Urgency string
type BudgetType string

const (
	PropertyResidential   PropertyType = "residential"
	PropertyCommercial    PropertyType = "commercial"
	PropertyIndustrial    PropertyType = "industrial"
	PropertyInstitutional PropertyType = "institutional"
	PropertyMixedUse      PropertyType = "mixed_use"

	CleaningWindow     CleaningType = "window_cleaning"
	CleaningPressure   CleaningType = "pressure_washing"
	CleaningRoof       CleaningType = "roof_cleaning"
	CleaningSolarPanel CleaningType = "solar_panel_cleaning"
	CleaningGutter     CleaningType = "gutter_cleaning"
	CleaningFacade     CleaningType = "facade_cleaning"
	CleaningOther      CleaningType = "other"

	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"

	BudgetFixed      BudgetType = "fixed"
	BudgetRange      BudgetType = "range"
	BudgetNegotiable BudgetType = "negotiable"
)

type Job struct {
	BaseModel
	Title               string         `gorm:"size:200;not null" json:"title"`
	Description         string         `gorm:"type:text;not null" json:"description"`
	PropertyManagerID   string         `gorm:"type:uuid;not null;index" json:"propertyManagerId"`
	PropertyType        PropertyType   `gorm:"type:varchar(30);not null" json:"propertyType"`
	CleaningType        CleaningType   `gorm:"type:varchar(30);not null;index" json:"cleaningType"`
	Urgency             Urgency        `gorm:"type:varchar(20);not null;default:'medium';index" json:"urgency"`
	BuildingHeight      *int           `json:"buildingHeight,omitempty"`
	SquareFootage       *int           `json:"squareFootage,omitempty"`
	Address             string         `gorm:"type:text;not null" json:"address"`
	City                string         `gorm:"not null;index:idx_jobs_city_state" json:"city"`
	State               string         `gorm:"not null;index:idx_jobs_city_state" json:"state"`
	ZipCode             string         `gorm:"not null" json:"zipCode"`
	Country             string         `gorm:"default:'US'" json:"country"`
	Latitude            *float64       `json:"latitude,omitempty"`
	Longitude           *float64       `json:"longitude,omitempty"`
	Budget              money.Cents    `json:"budget"`
	BudgetType          BudgetType     `gorm:"type:varchar(20);not null;default:'negotiable'" json:"budgetType"`
	BudgetMin           money.Cents    `json:"budgetMin"`
	BudgetMax           money.Cents    `json:"budgetMax"`
	PreferredStartDate  *time.Time     `json:"preferredStartDate,omitempty"`
	Deadline            *time.Time     `json:"deadline,omitempty"`
	EstimatedDuration   *int           `json:"estimatedDuration,omitempty"`
	SpecialRequirements string         `gorm:"type:text" json:"specialRequirements,omitempty"`
	AccessNotes         string         `gorm:"type:text" json:"accessNotes,omitempty"`
	SafetyRequirements  string         `gorm:"type:text" json:"safetyRequirements,omitempty"`
	Status              JobStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	IsPublic            bool           `gorm:"not null" json:"isPublic"`
	IsLucidSuiteOnly    bool           `gorm:"not null;index" json:"isLucidSuiteOnly"`
	AwardedBidID        *string        `gorm:"type:uuid" json:"awardedBidId,omitempty"`
	AwardedAt           *time.Time     `json:"awardedAt,omitempty"`
	CompletedAt         *time.Time     `json:"completedAt,omitempty"`
	ViewCount           int            `gorm:"not null;default:0" json:"viewCount"`
	BidCount            int            `gorm:"not null;default:0" json:"bidCount"`
	Tags                datatypes.JSON `json:"tags"`

	// Relations
	PropertyManager *User `gorm:"foreignKey:PropertyManagerID" json:"propertyManager,omitempty"`
	Bids            []Bid `gorm:"foreignKey:JobID" json:"bids,omitempty"`
}

// CanBeBidOn - работа на доске принимает ставки; первая ставка переводит published в bidding
func (j *Job) CanBeBidOn() bool {
	return j.IsPublic && j.Status.IsOnBoard()
}

func (j *Job) IsOwnedBy(userID string) bool {
	return j.PropertyManagerID == userID
}
