package dto

import "dronemarket_backend/internal/models"

type SignUpRequest struct {
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,min=8"`
	FirstName string          `json:"firstName" validate:"required,min=1,max=50"`
	LastName  string          `json:"lastName" validate:"required,min=1,max=50"`
	Role      models.UserRole `json:"role" validate:"omitempty,is-signup-role"`
	Phone     string          `json:"phone" validate:"omitempty,min=10,max=15"`
	Company   string          `json:"company" validate:"omitempty,max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}
