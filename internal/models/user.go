package models

import "time"

type User struct {
	BaseModel
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	FirstName            string     `gorm:"not null" json:"firstName"`
	LastName             string     `gorm:"not null" json:"lastName"`
	Phone                string     `json:"phone,omitempty"`
	Role                 UserRole   `gorm:"type:varchar(20);not null;index" json:"role"`
	Company              string     `json:"company,omitempty"`
	Address              string     `json:"address,omitempty"`
	City                 string     `json:"city,omitempty"`
	State                string     `json:"state,omitempty"`
	ZipCode              string     `json:"zipCode,omitempty"`
	Country              string     `gorm:"default:'US'" json:"country"`
	ProfileImage         string     `json:"profileImage,omitempty"`
	IsVerified           bool       `json:"isVerified"`
	IsActive             bool       `gorm:"not null" json:"isActive"`
	IsLucidSuiteCustomer bool       `json:"isLucidSuiteCustomer"`
	LastLoginAt          *time.Time `json:"lastLoginAt,omitempty"`
	EmailVerifiedAt      *time.Time `json:"emailVerifiedAt,omitempty"`
	PhoneVerifiedAt      *time.Time `json:"phoneVerifiedAt,omitempty"`

	// Relations
	Pilot *Pilot `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"pilot,omitempty"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
