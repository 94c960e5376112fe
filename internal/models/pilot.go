package models

import (
	"time"

	"gorm.io/datatypes"

	"dronemarket_backend/internal/money"
)

type Pilot struct {
	BaseModel
	UserID               string         `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	BusinessName         string         `gorm:"size:100" json:"businessName,omitempty"`
	BusinessLicense      string         `json:"businessLicense,omitempty"`
	YearsOfExperience    int            `json:"yearsOfExperience"`
	HourlyRate           money.Cents    `json:"hourlyRate"`
	ServiceRadius        int            `gorm:"default:50" json:"serviceRadius"`
	IsCertified          bool           `gorm:"index" json:"isCertified"`
	CertificationDate    *time.Time     `json:"certificationDate,omitempty"`
	CertificationExpiry  *time.Time     `json:"certificationExpiry,omitempty"`
	IsLucidSuiteCustomer bool           `gorm:"index" json:"isLucidSuiteCustomer"`
	LucidSuiteCustomerID *string        `json:"lucidSuiteCustomerId,omitempty"`
	MembershipStatus     MembershipTier `gorm:"type:varchar(20);not null;default:'free';index" json:"membershipStatus"`
	MembershipExpiry     *time.Time     `json:"membershipExpiry,omitempty"`
	MembershipEventAt    *time.Time     `json:"-"`
	IsAvailable          bool           `gorm:"not null;index" json:"isAvailable"`
	ServicesOffered      datatypes.JSON `json:"servicesOffered"`
	Specialties          datatypes.JSON `json:"specialties"`
	Languages            datatypes.JSON `json:"languages"`
	Equipment            datatypes.JSON `json:"equipment"`
	Bio                  string         `gorm:"size:1000" json:"bio,omitempty"`
	Rating               float64        `gorm:"not null;default:0;index" json:"rating"`
	TotalReviews         int            `gorm:"not null;default:0" json:"totalReviews"`
	CompletedJobs        int            `gorm:"not null;default:0" json:"completedJobs"`
	TotalEarnings        money.Cents    `gorm:"not null;default:0" json:"totalEarnings"`
	IsVerified           bool           `json:"isVerified"`
	VerificationDate     *time.Time     `json:"verificationDate,omitempty"`
	Status               PilotStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StripeCustomerID     *string        `json:"-"`
	StripeSubscriptionID *string        `json:"-"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Insurance *Insurance `gorm:"foreignKey:PilotID" json:"insurance,omitempty"`
}

// IsCertificationValid - сертификат есть и не истек
func (p *Pilot) IsCertificationValid(now time.Time) bool {
	if !p.IsCertified || p.CertificationExpiry == nil {
		return false
	}
	return now.Before(*p.CertificationExpiry)
}

// IsMembershipActive - бесплатный тариф активен всегда, платный до даты окончания
func (p *Pilot) IsMembershipActive(now time.Time) bool {
	if p.MembershipStatus == MembershipFree {
		return true
	}
	if p.MembershipExpiry == nil {
		return false
	}
	return now.Before(*p.MembershipExpiry)
}

// CanBid - все четыре условия допуска к ставкам
func (p *Pilot) CanBid(now time.Time) bool {
	return p.IsCertificationValid(now) &&
		p.IsMembershipActive(now) &&
		p.IsAvailable &&
		p.Status == PilotStatusActive
}

// ApplyRating пересчитывает скользящее среднее
func (p *Pilot) ApplyRating(r float64) {
	total := p.Rating*float64(p.TotalReviews) + r
	p.TotalReviews++
	p.Rating = total / float64(p.TotalReviews)
}

// IsStaleMembershipEvent - событие старше последнего примененного
func (p *Pilot) IsStaleMembershipEvent(created time.Time) bool {
	return p.MembershipEventAt != nil && created.Before(*p.MembershipEventAt)
}
