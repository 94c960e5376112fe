package services

import (
	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/cache"
	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/internal/storage"
)

// Deps - внешние зависимости сервисного слоя
type Deps struct {
	Repos    *repositories.Repositories
	Tokens   *auth.TokenManager
	Gateway  payment.Gateway
	Cache    cache.EventCache
	Events   events.Publisher
	Storage  storage.Storage
	Settings Settings
}

// Services - контейнер всех сервисов приложения
type Services struct {
	Auth          AuthService
	Users         UserService
	Pilots        PilotService
	Jobs          JobService
	Bids          BidService
	Payments      PaymentService
	Settlement    SettlementService
	Subscriptions SubscriptionService
	Insurance     InsuranceService
	LucidSuite    LucidSuiteService
}

func NewServices(d Deps) *Services {
	if d.Repos == nil {
		d.Repos = repositories.NewRepositories()
	}
	if d.Events == nil {
		d.Events = events.Nop()
	}
	if d.Cache == nil {
		d.Cache = cache.Nop()
	}
	r := d.Repos

	return &Services{
		Auth:          NewAuthService(r.Users, d.Tokens),
		Users:         NewUserService(r.Users, r.Pilots),
		Pilots:        NewPilotService(r.Pilots, r.Jobs),
		Jobs:          NewJobService(r.Jobs, r.Bids),
		Bids:          NewBidService(r, d.Events, d.Settings),
		Payments:      NewPaymentService(r, d.Gateway, d.Events, d.Settings),
		Settlement:    NewSettlementService(r, d.Gateway, d.Cache, d.Events, d.Settings),
		Subscriptions: NewSubscriptionService(r.Pilots, d.Gateway, d.Settings),
		Insurance:     NewInsuranceService(r.Insurance, r.Pilots, d.Storage, d.Settings),
		LucidSuite:    NewLucidSuiteService(r),
	}
}
