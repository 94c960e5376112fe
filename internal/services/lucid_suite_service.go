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

const apiKeyValidity = 1 // лет

// LucidSuiteService - связь аккаунта с платформой Lucid Suite
type LucidSuiteService interface {
	Status(db *gorm.DB, actor dto.Actor) (*dto.LucidSuiteConnectionResponse, error)
	Connect(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.ConnectLucidSuiteRequest) (*models.LucidSuiteUser, error)
	Disconnect(ctx context.Context, db *gorm.DB, actor dto.Actor) error
	Pilots(db *gorm.DB) ([]models.Pilot, error)
	AddROMs(ctx context.Context, db *gorm.DB, actor dto.Actor, minutes int) (*models.LucidSuiteUser, error)
	IssueAPIKey(ctx context.Context, db *gorm.DB, actor dto.Actor) (*dto.APIKeyResponse, error)
	Sync(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.LucidSuiteSyncRequest) (*models.LucidSuiteUser, error)
}

type lucidSuiteService struct {
	linkRepo  repositories.LucidSuiteRepository
	userRepo  repositories.UserRepository
	pilotRepo repositories.PilotRepository
	now       clock
}

func NewLucidSuiteService(repos *repositories.Repositories) LucidSuiteService {
	return &lucidSuiteService{
		linkRepo:  repos.LucidSuite,
		userRepo:  repos.Users,
		pilotRepo: repos.Pilots,
		now:       utcNow,
	}
}

func (s *lucidSuiteService) Status(db *gorm.DB, actor dto.Actor) (*dto.LucidSuiteConnectionResponse, error) {
	link, err := s.linkRepo.FindByUserID(db, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrLucidSuiteNotFound) {
			return &dto.LucidSuiteConnectionResponse{Connected: false}, nil
		}
		return nil, apperrors.InternalError(err)
	}
	created := link.CreatedAt
	return &dto.LucidSuiteConnectionResponse{
		Connected:            true,
		LucidSuiteCustomerID: link.LucidSuiteCustomerID,
		SubscriptionTier:     link.SubscriptionTier,
		IntegrationDate:      &created,
	}, nil
}

// setFlags - флаг клиента Lucid Suite у пользователя и, если есть, у его профиля пилота
func (s *lucidSuiteService) setFlags(tx *gorm.DB, userID string, customerID *string) error {
	connected := customerID != nil
	if err := s.userRepo.UpdateFields(tx, userID, map[string]interface{}{"is_lucid_suite_customer": connected}); err != nil {
		return err
	}
	pilot, err := s.pilotRepo.FindByUserID(tx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPilotNotFound) {
			return nil
		}
		return err
	}
	return s.pilotRepo.UpdateFields(tx, pilot.ID, map[string]interface{}{
		"is_lucid_suite_customer": connected,
		"lucid_suite_customer_id": customerID,
	})
}

func (s *lucidSuiteService) Connect(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.ConnectLucidSuiteRequest) (*models.LucidSuiteUser, error) {
	now := s.now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	link := &models.LucidSuiteUser{
		UserID:                actor.UserID,
		LucidSuiteCustomerID:  req.LucidSuiteCustomerID,
		LucidSuiteAccountID:   req.LucidSuiteAccountID,
		SubscriptionTier:      req.SubscriptionTier,
		SubscriptionStatus:    models.LucidSubscriptionActive,
		SubscriptionStartDate: &now,
		MarketplaceAccess:     true,
		IntegrationSettings: jsonObject(map[string]any{
			"autoSync":      false,
			"notifications": true,
			"dataSharing":   false,
		}),
		SyncStatus: models.SyncPending,
	}
	if err := s.linkRepo.Create(tx, link); err != nil {
		return nil, inTx(err, lucidErrors)
	}
	if err := s.setFlags(tx, actor.UserID, &link.LucidSuiteCustomerID); err != nil {
		return nil, inTx(err, lucidErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "lucid suite connected", "user_id", actor.UserID, "tier", link.SubscriptionTier)
	return link, nil
}

func (s *lucidSuiteService) Disconnect(ctx context.Context, db *gorm.DB, actor dto.Actor) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	link, err := s.linkRepo.FindByUserIDForUpdate(tx, actor.UserID)
	if err != nil {
		return translate(err, lucidErrors)
	}
	if err := s.linkRepo.Delete(tx, link.ID); err != nil {
		return inTx(err, lucidErrors)
	}
	if err := s.setFlags(tx, actor.UserID, nil); err != nil {
		return inTx(err, lucidErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "lucid suite disconnected", "user_id", actor.UserID)
	return nil
}

func (s *lucidSuiteService) Pilots(db *gorm.DB) ([]models.Pilot, error) {
	pilots, err := s.pilotRepo.FindLucidSuitePilots(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if pilots == nil {
		pilots = []models.Pilot{}
	}
	return pilots, nil
}

func (s *lucidSuiteService) AddROMs(ctx context.Context, db *gorm.DB, actor dto.Actor, minutes int) (*models.LucidSuiteUser, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	link, err := s.linkRepo.FindByUserIDForUpdate(tx, actor.UserID)
	if err != nil {
		return nil, translate(err, lucidErrors)
	}
	link.AddMonthlyROMs(minutes, s.now())
	if err := s.linkRepo.UpdateFields(tx, link.ID, map[string]interface{}{
		"monthly_roms":            link.MonthlyROMs,
		"total_roms":              link.TotalROMs,
		"robot_operating_minutes": link.RobotOperatingMinutes,
		"last_rom_update":         link.LastROMUpdate,
	}); err != nil {
		return nil, inTx(err, lucidErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	logger.CtxDebug(ctx, "lucid suite roms added", "user_id", actor.UserID, "minutes", minutes)
	return link, nil
}

// IssueAPIKey - открытый ключ возвращается один раз, хранится только хэш
func (s *lucidSuiteService) IssueAPIKey(ctx context.Context, db *gorm.DB, actor dto.Actor) (*dto.APIKeyResponse, error) {
	link, err := s.linkRepo.FindByUserID(db, actor.UserID)
	if err != nil {
		return nil, translate(err, lucidErrors)
	}

	plain, hash, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	expiry := s.now().AddDate(apiKeyValidity, 0, 0)
	if err := s.linkRepo.UpdateFields(db, link.ID, map[string]interface{}{
		"api_key_hash":   hash,
		"api_key_expiry": expiry,
		"api_access":     true,
	}); err != nil {
		return nil, translate(err, lucidErrors)
	}

	logger.CtxInfo(ctx, "lucid suite api key issued", "user_id", actor.UserID, "expires_at", expiry)
	return &dto.APIKeyResponse{APIKey: plain, ExpiresAt: expiry}, nil
}

func (s *lucidSuiteService) Sync(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.LucidSuiteSyncRequest) (*models.LucidSuiteUser, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	link, err := s.linkRepo.FindByUserID(db, req.UserID)
	if err != nil {
		return nil, translate(err, lucidErrors)
	}

	now := s.now()
	if err := s.linkRepo.UpdateFields(db, link.ID, map[string]interface{}{
		"sync_status":  req.SyncStatus,
		"last_sync_at": now,
	}); err != nil {
		return nil, translate(err, lucidErrors)
	}
	link.SyncStatus = req.SyncStatus
	link.LastSyncAt = &now

	logger.CtxInfo(ctx, "lucid suite sync updated", "user_id", req.UserID, "status", req.SyncStatus)
	return link, nil
}
