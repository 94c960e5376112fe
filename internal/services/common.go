package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/pkg/apperrors"
)

// Settings - параметры маркетплейса из конфигурации
type Settings struct {
	CommissionRate            money.BasisPoints
	Currency                  string
	FrontendURL               string
	BillingPeriodMonths       int
	WebhookSecret             string
	SubscriptionWebhookSecret string
	InsuranceReminderDays     int
	MaxUploadSize             int64
}

func (s Settings) withDefaults() Settings {
	if s.Currency == "" {
		s.Currency = "usd"
	}
	if s.BillingPeriodMonths <= 0 {
		s.BillingPeriodMonths = 1
	}
	if s.InsuranceReminderDays <= 0 {
		s.InsuranceReminderDays = 30
	}
	if s.MaxUploadSize <= 0 {
		s.MaxUploadSize = 10 << 20
	}
	if s.SubscriptionWebhookSecret == "" {
		s.SubscriptionWebhookSecret = s.WebhookSecret
	}
	return s
}

type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// translate переводит ошибку репозитория в AppError; неизвестные - в InternalError
func translate(err error, mapping map[error]*apperrors.AppError) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	for sentinel, appErr := range mapping {
		if errors.Is(err, sentinel) {
			return appErr
		}
	}
	return apperrors.InternalError(err)
}

// inTx - ошибка внутри многострочной транзакции: доменные ошибки как есть, прочие - TransactionError
func inTx(err error, mapping map[error]*apperrors.AppError) error {
	if err == nil {
		return nil
	}
	translated := translate(err, mapping)
	if appErr, ok := apperrors.AsAppError(translated); ok && appErr.Code == apperrors.CodeInternalError {
		return apperrors.TransactionError(err)
	}
	return translated
}

var (
	bidErrors = map[error]*apperrors.AppError{
		repositories.ErrBidNotFound:   apperrors.ErrBidNotFound,
		repositories.ErrJobNotFound:   apperrors.ErrJobNotFound,
		repositories.ErrPilotNotFound: apperrors.ErrPilotProfileRequired,
	}
	jobErrors = map[error]*apperrors.AppError{
		repositories.ErrJobNotFound: apperrors.ErrJobNotFound,
	}
	pilotErrors = map[error]*apperrors.AppError{
		repositories.ErrPilotNotFound:      apperrors.ErrPilotNotFound,
		repositories.ErrPilotAlreadyExists: apperrors.ErrPilotProfileExists,
		repositories.ErrUserNotFound:       apperrors.ErrUserNotFound,
	}
	userErrors = map[error]*apperrors.AppError{
		repositories.ErrUserNotFound:      apperrors.ErrUserNotFound,
		repositories.ErrUserAlreadyExists: apperrors.ErrEmailAlreadyExists,
	}
	paymentErrors = map[error]*apperrors.AppError{
		repositories.ErrPaymentNotFound: apperrors.ErrPaymentNotFound,
		repositories.ErrBidNotFound:     apperrors.ErrBidNotFound,
		repositories.ErrJobNotFound:     apperrors.ErrJobNotFound,
		repositories.ErrPilotNotFound:   apperrors.ErrPilotNotFound,
	}
	insuranceErrors = map[error]*apperrors.AppError{
		repositories.ErrInsuranceNotFound:      apperrors.ErrInsuranceNotFound,
		repositories.ErrInsuranceAlreadyExists: apperrors.ErrInsuranceExists,
		repositories.ErrPilotNotFound:          apperrors.ErrPilotProfileRequired,
	}
	lucidErrors = map[error]*apperrors.AppError{
		repositories.ErrLucidSuiteNotFound:      apperrors.ErrLucidSuiteNotConnected,
		repositories.ErrLucidSuiteAlreadyExists: apperrors.ErrLucidSuiteAlreadyConnected,
		repositories.ErrLucidSuiteCustomerTaken: apperrors.ErrLucidSuiteCustomerTaken,
		repositories.ErrUserNotFound:            apperrors.ErrUserNotFound,
	}
)

// jsonArray - JSON-массив для колонок datatypes.JSON; nil превращается в []
func jsonArray(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func jsonObject(v map[string]any) datatypes.JSON {
	if v == nil {
		v = map[string]any{}
	}
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

func ptr[T any](v T) *T { return &v }

// recipientOf - адресат события; nil-пользователь дает пустого адресата
func recipientOf(u *models.User) events.Recipient {
	if u == nil {
		return events.Recipient{}
	}
	return events.Recipient{UserID: u.ID, Email: u.Email, Name: u.FullName()}
}
