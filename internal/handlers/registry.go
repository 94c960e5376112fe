package handlers

import (
	"github.com/gin-gonic/gin"

	"dronemarket_backend/internal/services"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	PilotHandler        *PilotHandler
	JobHandler          *JobHandler
	BidHandler          *BidHandler
	PaymentHandler      *PaymentHandler
	SubscriptionHandler *SubscriptionHandler
	InsuranceHandler    *InsuranceHandler
	LucidSuiteHandler   *LucidSuiteHandler
}

func NewAppHandlers(base *BaseHandler, s *services.Services, maxUploadSize int64) *AppHandlers {
	return &AppHandlers{
		AuthHandler:         NewAuthHandler(base, s.Auth),
		UserHandler:         NewUserHandler(base, s.Users),
		PilotHandler:        NewPilotHandler(base, s.Pilots),
		JobHandler:          NewJobHandler(base, s.Jobs),
		BidHandler:          NewBidHandler(base, s.Bids),
		PaymentHandler:      NewPaymentHandler(base, s.Payments, s.Settlement),
		SubscriptionHandler: NewSubscriptionHandler(base, s.Subscriptions, s.Settlement),
		InsuranceHandler:    NewInsuranceHandler(base, s.Insurance, maxUploadSize),
		LucidSuiteHandler:   NewLucidSuiteHandler(base, s.LucidSuite),
	}
}

// RegisterWebhookRoutes - входящие вебхуки провайдера
func (a *AppHandlers) RegisterWebhookRoutes(api *gin.RouterGroup) {
	a.PaymentHandler.RegisterWebhookRoutes(api)
	a.SubscriptionHandler.RegisterWebhookRoutes(api)
}

// RegisterRoutes - HTTP API v1 кроме вебхуков
func (a *AppHandlers) RegisterRoutes(api *gin.RouterGroup) {
	a.AuthHandler.RegisterRoutes(api)
	a.UserHandler.RegisterRoutes(api)
	a.PilotHandler.RegisterRoutes(api)
	a.JobHandler.RegisterRoutes(api)
	a.BidHandler.RegisterRoutes(api)
	a.PaymentHandler.RegisterRoutes(api)
	a.SubscriptionHandler.RegisterRoutes(api)
	a.InsuranceHandler.RegisterRoutes(api)
	a.LucidSuiteHandler.RegisterRoutes(api)
}
