package repositories

// Repositories - все репозитории приложения
type Repositories struct {
	Users      UserRepository
	Pilots     PilotRepository
	Jobs       JobRepository
	Bids       BidRepository
	Payments   PaymentRepository
	Insurance  InsuranceRepository
	LucidSuite LucidSuiteRepository
	Webhooks   WebhookEventRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Users:      NewUserRepository(),
		Pilots:     NewPilotRepository(),
		Jobs:       NewJobRepository(),
		Bids:       NewBidRepository(),
		Payments:   NewPaymentRepository(),
		Insurance:  NewInsuranceRepository(),
		LucidSuite: NewLucidSuiteRepository(),
		Webhooks:   NewWebhookEventRepository(),
	}
}
