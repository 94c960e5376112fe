package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/storage"
	"dronemarket_backend/pkg/apperrors"
)

// InsuranceService - полисы страхования пилотов
type InsuranceService interface {
	GetByPilot(db *gorm.DB, pilotID string) (*dto.InsuranceResponse, error)
	Create(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreateInsuranceRequest) (*dto.InsuranceResponse, error)
	Update(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, req *dto.UpdateInsuranceRequest) (*dto.InsuranceResponse, error)
	Delete(ctx context.Context, db *gorm.DB, actor dto.Actor, id string) error
	Verify(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, method models.VerificationMethod) (*dto.InsuranceResponse, error)
	AddClaim(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, req *dto.ClaimRequest) (*dto.InsuranceResponse, error)
	UploadDocument(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, file io.Reader, size int64) (*dto.InsuranceResponse, error)
	Expiring(db *gorm.DB, days int) ([]*dto.InsuranceResponse, error)
}

type insuranceService struct {
	insuranceRepo repositories.InsuranceRepository
	pilotRepo     repositories.PilotRepository
	storage       storage.Storage
	settings      Settings
	now           clock
}

func NewInsuranceService(insuranceRepo repositories.InsuranceRepository, pilotRepo repositories.PilotRepository, store storage.Storage, settings Settings) InsuranceService {
	return &insuranceService{
		insuranceRepo: insuranceRepo,
		pilotRepo:     pilotRepo,
		storage:       store,
		settings:      settings.withDefaults(),
		now:           utcNow,
	}
}

func (s *insuranceService) respond(ins *models.Insurance) *dto.InsuranceResponse {
	return dto.NewInsuranceResponse(ins, s.now(), s.settings.InsuranceReminderDays)
}

func (s *insuranceService) GetByPilot(db *gorm.DB, pilotID string) (*dto.InsuranceResponse, error) {
	ins, err := s.insuranceRepo.FindByPilotID(db, pilotID)
	if err != nil {
		return nil, translate(err, insuranceErrors)
	}
	return s.respond(ins), nil
}

func (s *insuranceService) Create(ctx context.Context, db *gorm.DB, actor dto.Actor, req *dto.CreateInsuranceRequest) (*dto.InsuranceResponse, error) {
	pilot, err := s.pilotRepo.FindByUserID(db, actor.UserID)
	if err != nil {
		return nil, translate(err, insuranceErrors)
	}

	ins := &models.Insurance{
		PilotID:         pilot.ID,
		Provider:        req.Provider,
		PolicyNumber:    req.PolicyNumber,
		PolicyType:      req.PolicyType,
		CoverageAmount:  req.CoverageAmount,
		Deductible:      req.Deductible,
		Premium:         req.Premium,
		BillingCycle:    req.BillingCycle,
		EffectiveDate:   req.EffectiveDate.UTC(),
		ExpiryDate:      req.ExpiryDate.UTC(),
		IsActive:        true,
		CoverageDetails: jsonObject(req.CoverageDetails),
		ClaimsHistory:   datatypes.JSON("[]"),
		Notes:           req.Notes,
	}
	if err := s.insuranceRepo.Create(db, ins); err != nil {
		return nil, translate(err, insuranceErrors)
	}

	logger.CtxInfo(ctx, "insurance created", "insurance_id", ins.ID, "pilot_id", pilot.ID)
	return s.respond(ins), nil
}

// owned - полис, принадлежащий пилоту текущего пользователя, под блокировкой
func (s *insuranceService) owned(tx *gorm.DB, actor dto.Actor, id string) (*models.Insurance, error) {
	ins, err := s.insuranceRepo.FindByIDForUpdate(tx, id)
	if err != nil {
		return nil, translate(err, insuranceErrors)
	}
	pilot, err := s.pilotRepo.FindByUserID(tx, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrPilotNotFound) {
			return nil, apperrors.ErrInsuranceNotOwned
		}
		return nil, apperrors.InternalError(err)
	}
	if pilot.ID != ins.PilotID {
		return nil, apperrors.ErrInsuranceNotOwned
	}
	return ins, nil
}

// mutate - изменение полиса владельцем в транзакции
func (s *insuranceService) mutate(db *gorm.DB, actor dto.Actor, id string, fn func(tx *gorm.DB, ins *models.Insurance) (map[string]interface{}, error)) (*models.Insurance, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	ins, err := s.owned(tx, actor, id)
	if err != nil {
		return nil, err
	}
	fields, err := fn(tx, ins)
	if err != nil {
		return nil, err
	}
	if err := s.insuranceRepo.UpdateFields(tx, ins.ID, fields); err != nil {
		return nil, inTx(err, insuranceErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.TransactionError(err)
	}

	updated, err := s.insuranceRepo.FindByID(db, ins.ID)
	if err != nil {
		return nil, translate(err, insuranceErrors)
	}
	return updated, nil
}

// Update - любое изменение полиса сбрасывает проверку
func (s *insuranceService) Update(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, req *dto.UpdateInsuranceRequest) (*dto.InsuranceResponse, error) {
	ins, err := s.mutate(db, actor, id, func(_ *gorm.DB, ins *models.Insurance) (map[string]interface{}, error) {
		fields := map[string]interface{}{
			"is_verified":       false,
			"verification_date": nil,
		}
		if req.Provider != nil {
			fields["provider"] = *req.Provider
		}
		if req.PolicyNumber != nil {
			fields["policy_number"] = *req.PolicyNumber
		}
		if req.PolicyType != nil {
			fields["policy_type"] = *req.PolicyType
		}
		if req.CoverageAmount != nil {
			fields["coverage_amount"] = *req.CoverageAmount
		}
		if req.Deductible != nil {
			fields["deductible"] = *req.Deductible
		}
		if req.Premium != nil {
			fields["premium"] = *req.Premium
		}
		if req.BillingCycle != nil {
			fields["billing_cycle"] = *req.BillingCycle
		}
		if req.Notes != nil {
			fields["notes"] = *req.Notes
		}
		if req.CoverageDetails != nil {
			fields["coverage_details"] = jsonObject(req.CoverageDetails)
		}

		effective, expiry := ins.EffectiveDate, ins.ExpiryDate
		if req.EffectiveDate != nil {
			effective = req.EffectiveDate.UTC()
			fields["effective_date"] = effective
		}
		if req.ExpiryDate != nil {
			expiry = req.ExpiryDate.UTC()
			fields["expiry_date"] = expiry
			fields["reminder_sent_at"] = nil
		}
		if !expiry.After(effective) {
			return nil, apperrors.ValidationError(map[string]string{"expiryDate": "Must be after effectiveDate"})
		}
		return fields, nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "insurance updated", "insurance_id", ins.ID)
	return s.respond(ins), nil
}

func (s *insuranceService) Delete(ctx context.Context, db *gorm.DB, actor dto.Actor, id string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	ins, err := s.owned(tx, actor, id)
	if err != nil {
		return err
	}
	if err := s.insuranceRepo.Delete(tx, ins.ID); err != nil {
		return inTx(err, insuranceErrors)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.TransactionError(err)
	}

	logger.CtxInfo(ctx, "insurance deleted", "insurance_id", ins.ID)
	return nil
}

func (s *insuranceService) Verify(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, method models.VerificationMethod) (*dto.InsuranceResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if err := s.insuranceRepo.UpdateFields(db, id, map[string]interface{}{
		"is_verified":         true,
		"verification_date":   s.now(),
		"verification_method": method,
	}); err != nil {
		return nil, translate(err, insuranceErrors)
	}

	ins, err := s.insuranceRepo.FindByID(db, id)
	if err != nil {
		return nil, translate(err, insuranceErrors)
	}
	logger.CtxInfo(ctx, "insurance verified", "insurance_id", id, "method", method)
	return s.respond(ins), nil
}

func (s *insuranceService) AddClaim(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, req *dto.ClaimRequest) (*dto.InsuranceResponse, error) {
	status := req.Status
	if status == "" {
		status = "open"
	}

	ins, err := s.mutate(db, actor, id, func(_ *gorm.DB, ins *models.Insurance) (map[string]interface{}, error) {
		var claims []models.Claim
		if len(ins.ClaimsHistory) > 0 {
			if err := json.Unmarshal(ins.ClaimsHistory, &claims); err != nil {
				return nil, apperrors.InternalError(err)
			}
		}
		claims = append(claims, models.Claim{
			Date:        req.Date.UTC(),
			Amount:      req.Amount,
			Description: req.Description,
			Status:      status,
		})
		b, err := json.Marshal(claims)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		return map[string]interface{}{"claims_history": datatypes.JSON(b)}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "insurance claim added", "insurance_id", ins.ID)
	return s.respond(ins), nil
}

// UploadDocument сохраняет pdf/jpeg/png в хранилище и отмечает способ проверки
func (s *insuranceService) UploadDocument(ctx context.Context, db *gorm.DB, actor dto.Actor, id string, file io.Reader, size int64) (*dto.InsuranceResponse, error) {
	if size > s.settings.MaxUploadSize {
		return nil, apperrors.ErrFileTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewBadRequestError("Failed to read uploaded file")
	}
	head = head[:n]
	contentType, ext, ok := storage.DetectDocumentType(head)
	if !ok {
		return nil, apperrors.ErrInvalidFileType
	}

	var key string
	ins, err := s.mutate(db, actor, id, func(_ *gorm.DB, ins *models.Insurance) (map[string]interface{}, error) {
		key = storage.DocumentKey("insurance", ins.PilotID, ext)
		body := io.LimitReader(io.MultiReader(bytes.NewReader(head), file), s.settings.MaxUploadSize)
		if err := s.storage.Save(ctx, key, body, contentType); err != nil {
			logger.CtxWithError(ctx, "document upload failed", err, "insurance_id", ins.ID)
			return nil, apperrors.ExternalServiceError(err, "storage", "Failed to store document")
		}
		return map[string]interface{}{
			"document_url":        s.storage.URL(key),
			"verification_method": models.VerificationDocumentUpload,
		}, nil
	})
	if err != nil {
		if key != "" {
			_ = s.storage.Delete(context.WithoutCancel(ctx), key)
		}
		return nil, err
	}

	logger.CtxInfo(ctx, "insurance document uploaded", "insurance_id", ins.ID, "key", key)
	return s.respond(ins), nil
}

func (s *insuranceService) Expiring(db *gorm.DB, days int) ([]*dto.InsuranceResponse, error) {
	if days <= 0 {
		days = s.settings.InsuranceReminderDays
	}
	now := s.now()
	list, err := s.insuranceRepo.FindExpiring(db, now, now.Add(time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]*dto.InsuranceResponse, 0, len(list))
	for i := range list {
		out = append(out, s.respond(&list[i]))
	}
	return out, nil
}
