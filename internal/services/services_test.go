package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/internal/storage"
	"dronemarket_backend/internal/testutil"
)

const testWebhookSecret = "whsec_test_secret"

var testSettings = Settings{
	CommissionRate: money.BasisPoints(1500),
	Currency:       "usd",
	FrontendURL:    "http://localhost:3000",
	WebhookSecret:  testWebhookSecret,
}

// recorder - Publisher, запоминающий события
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

type env struct {
	db      *gorm.DB
	svc     *Services
	gateway *payment.FakeGateway
	events  *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewTestDB(t)
	gw := payment.NewFakeGateway()
	rec := &recorder{}
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	svc := NewServices(Deps{
		Repos:    repositories.NewRepositories(),
		Tokens:   auth.NewTokenManager("test-secret", time.Hour),
		Gateway:  gw,
		Events:   rec,
		Storage:  store,
		Settings: testSettings,
	})
	return &env{db: db, svc: svc, gateway: gw, events: rec}
}

func actorOf(u *models.User) dto.Actor {
	return dto.Actor{UserID: u.ID, Role: u.Role}
}

var ctx = context.Background()

// marketplace - заказчик, работа в bidding и допущенный пилот
type marketplace struct {
	manager   *models.User
	job       *models.Job
	pilotUser *models.User
	pilot     *models.Pilot
}

func newMarketplace(t *testing.T, e *env) *marketplace {
	t.Helper()
	manager := testutil.CreateUser(t, e.db, models.UserRolePropertyManager)
	job := testutil.CreateJob(t, e.db, manager.ID)
	pilotUser, pilot := testutil.CreateEligiblePilot(t, e.db)
	return &marketplace{manager: manager, job: job, pilotUser: pilotUser, pilot: pilot}
}

func (m *marketplace) submit(t *testing.T, e *env, amount money.Cents) *models.Bid {
	t.Helper()
	bid, err := e.svc.Bids.SubmitBid(ctx, e.db, actorOf(m.pilotUser), &dto.CreateBidRequest{
		JobID:  m.job.ID,
		Amount: amount,
	})
	require.NoError(t, err)
	return bid
}

// accepted - ставка принята, работа awarded
func (m *marketplace) accepted(t *testing.T, e *env, amount money.Cents) *models.Bid {
	t.Helper()
	bid := m.submit(t, e, amount)
	bid, err := e.svc.Bids.AcceptBid(ctx, e.db, actorOf(m.manager), bid.ID)
	require.NoError(t, err)
	return bid
}

// anotherPilot - еще один допущенный пилот
func anotherPilot(t *testing.T, e *env) (*models.User, *models.Pilot) {
	t.Helper()
	return testutil.CreateEligiblePilot(t, e.db)
}
