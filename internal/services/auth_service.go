package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

type AuthService interface {
	SignUp(ctx context.Context, db *gorm.DB, req *dto.SignUpRequest) (*models.User, error)
	SignIn(ctx context.Context, db *gorm.DB, req *dto.SignInRequest) (*dto.AuthResponse, error)
	SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) (bool, error)
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenManager
	now      clock
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens, now: utcNow}
}

// SignUp - регистрация; роль по умолчанию property_manager
func (s *authService) SignUp(ctx context.Context, db *gorm.DB, req *dto.SignUpRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.UserRolePropertyManager
	}
	if role == models.UserRoleAdmin {
		return nil, apperrors.ValidationError(map[string]string{"role": "Invalid value"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Company:      req.Company,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		return nil, translate(err, userErrors)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, db *gorm.DB, req *dto.SignInRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	if err := s.userRepo.SetLastLogin(db, user.ID, now); err != nil {
		logger.CtxWithError(ctx, "failed to update last login", err, "user_id", user.ID)
	}
	user.LastLoginAt = &now

	return &dto.AuthResponse{Token: token, User: user}, nil
}

// SeedAdmin создает первого администратора, если его еще нет
func (s *authService) SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	exists, err := s.userRepo.ExistsByRole(db, models.UserRoleAdmin)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	if exists {
		return false, nil
	}
	if err := auth.ValidatePassword(password); err != nil {
		return false, apperrors.ValidationMessage("auth", err.Error())
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         models.UserRoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := s.userRepo.Create(db, admin); err != nil {
		return false, translate(err, userErrors)
	}
	logger.CtxInfo(ctx, "first admin created", "email", admin.Email)
	return true, nil
}
