package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

type UserService interface {
	GetProfile(db *gorm.DB, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error
	Deactivate(ctx context.Context, db *gorm.DB, userID string) error
	SubscriptionStatus(db *gorm.DB, userID string) (*dto.SubscriptionStatusResponse, error)
}

type userService struct {
	userRepo  repositories.UserRepository
	pilotRepo repositories.PilotRepository
	now       clock
}

func NewUserService(userRepo repositories.UserRepository, pilotRepo repositories.PilotRepository) UserService {
	return &userService{userRepo: userRepo, pilotRepo: pilotRepo, now: utcNow}
}

func (s *userService) GetProfile(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, translate(err, userErrors)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error) {
	fields := map[string]interface{}{}
	setIf := func(column string, v *string) {
		if v != nil {
			fields[column] = *v
		}
	}
	setIf("first_name", req.FirstName)
	setIf("last_name", req.LastName)
	setIf("phone", req.Phone)
	setIf("company", req.Company)
	setIf("address", req.Address)
	setIf("city", req.City)
	setIf("state", req.State)
	setIf("zip_code", req.ZipCode)

	if err := s.userRepo.UpdateFields(db, userID, fields); err != nil {
		return nil, translate(err, userErrors)
	}
	logger.CtxDebug(ctx, "profile updated", "fields", len(fields))
	return s.GetProfile(db, userID)
}

// ChangePassword - хэш пересчитывается только если пароль действительно сменился
func (s *userService) ChangePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return translate(err, userErrors)
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrWrongPassword
	}
	if auth.CheckPasswordHash(req.NewPassword, user.PasswordHash) {
		return nil
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdateFields(db, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return translate(err, userErrors)
	}
	logger.CtxInfo(ctx, "password changed")
	return nil
}

func (s *userService) Deactivate(ctx context.Context, db *gorm.DB, userID string) error {
	if err := s.userRepo.Deactivate(db, userID); err != nil {
		return translate(err, userErrors)
	}
	logger.CtxInfo(ctx, "account deactivated")
	return nil
}

// SubscriptionStatus - без профиля пилота тариф free
func (s *userService) SubscriptionStatus(db *gorm.DB, userID string) (*dto.SubscriptionStatusResponse, error) {
	pilot, err := s.pilotRepo.FindByUserID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPilotNotFound) {
			return &dto.SubscriptionStatusResponse{Status: models.MembershipFree, IsActive: true}, nil
		}
		return nil, apperrors.InternalError(err)
	}
	return membershipStatus(pilot, s.now()), nil
}

func membershipStatus(p *models.Pilot, now time.Time) *dto.SubscriptionStatusResponse {
	return &dto.SubscriptionStatusResponse{
		Status:        p.MembershipStatus,
		Expiry:        p.MembershipExpiry,
		IsActive:      p.IsMembershipActive(now),
		AccountStatus: p.Status,
	}
}
