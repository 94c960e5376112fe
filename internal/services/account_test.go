package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/internal/testutil"
	"dronemarket_backend/pkg/apperrors"
)

func TestSignUpAndSignIn(t *testing.T) {
	e := newEnv(t)

	user, err := e.svc.Auth.SignUp(ctx, e.db, &dto.SignUpRequest{
		Email: "Manager@Example.com", Password: "password123", FirstName: "Ann", LastName: "Lee",
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserRolePropertyManager, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = e.svc.Auth.SignUp(ctx, e.db, &dto.SignUpRequest{
		Email: "manager@example.com", Password: "password123", FirstName: "A", LastName: "B",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrEmailAlreadyExists))

	_, err = e.svc.Auth.SignUp(ctx, e.db, &dto.SignUpRequest{
		Email: "root@example.com", Password: "password123", FirstName: "A", LastName: "B", Role: models.UserRoleAdmin,
	})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	res, err := e.svc.Auth.SignIn(ctx, e.db, &dto.SignInRequest{Email: "manager@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotNil(t, res.User.LastLoginAt)

	_, err = e.svc.Auth.SignIn(ctx, e.db, &dto.SignInRequest{Email: "manager@example.com", Password: "wrong-password"})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
	_, err = e.svc.Auth.SignIn(ctx, e.db, &dto.SignInRequest{Email: "nobody@example.com", Password: "password123"})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))

	require.NoError(t, e.svc.Users.Deactivate(ctx, e.db, user.ID))
	_, err = e.svc.Auth.SignIn(ctx, e.db, &dto.SignInRequest{Email: "manager@example.com", Password: "password123"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUserInactive))
}

func TestSeedAdmin_OnlyOnce(t *testing.T) {
	e := newEnv(t)

	created, err := e.svc.Auth.SeedAdmin(ctx, e.db, "admin@example.com", "Sup3rSecret!")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = e.svc.Auth.SeedAdmin(ctx, e.db, "second@example.com", "Sup3rSecret!")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = e.svc.Auth.SeedAdmin(ctx, e.db, "", "")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	user := createManager(t, e)

	err := e.svc.Users.ChangePassword(ctx, e.db, user.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "not-it", NewPassword: "newpassword1",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrWrongPassword))

	require.NoError(t, e.svc.Users.ChangePassword(ctx, e.db, user.ID, &dto.ChangePasswordRequest{
		CurrentPassword: testutil.TestPassword, NewPassword: "newpassword1",
	}))
	_, err = e.svc.Auth.SignIn(ctx, e.db, &dto.SignInRequest{Email: user.Email, Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestUserProfileAndSubscriptionStatus(t *testing.T) {
	e := newEnv(t)
	user := createManager(t, e)

	city := "Boston"
	updated, err := e.svc.Users.UpdateProfile(ctx, e.db, user.ID, &dto.UpdateProfileRequest{City: &city})
	require.NoError(t, err)
	assert.Equal(t, city, updated.City)

	status, err := e.svc.Users.SubscriptionStatus(e.db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipFree, status.Status)
}

func TestPilotProfileLifecycle(t *testing.T) {
	e := newEnv(t)
	user := testutil.CreateUser(t, e.db, models.UserRolePilot)
	expiry := time.Now().UTC().AddDate(1, 0, 0)

	// 1. Создание: pending, по умолчанию радиус 50
	pilot, err := e.svc.Pilots.CreateProfile(ctx, e.db, actorOf(user), &dto.CreatePilotRequest{
		BusinessName:        "Glass Hawks",
		IsCertified:         true,
		CertificationExpiry: &expiry,
		ServicesOffered:     []string{string(models.CleaningFacade)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PilotStatusPending, pilot.Status)
	assert.Equal(t, 50, pilot.ServiceRadius)

	_, err = e.svc.Pilots.CreateProfile(ctx, e.db, actorOf(user), &dto.CreatePilotRequest{})
	assert.True(t, apperrors.Is(err, apperrors.ErrPilotProfileExists))

	// 2. Невалидный переход и активация модератором
	_, err = e.svc.Pilots.UpdateStatus(ctx, e.db, pilot.ID, models.PilotStatusSuspended)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidPilotStatus))

	active, err := e.svc.Pilots.UpdateStatus(ctx, e.db, pilot.ID, models.PilotStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.PilotStatusActive, active.Status)
	assert.True(t, active.IsVerified)

	// 3. Поиск по специализации
	list, err := e.svc.Pilots.Search(e.db, &dto.PilotSearchQuery{Specialty: string(models.CleaningFacade)})
	require.NoError(t, err)
	require.Len(t, list.Pilots, 1)
	assert.Equal(t, pilot.ID, list.Pilots[0].ID)

	// 4. Чужой профиль не редактируется
	other := testutil.CreateUser(t, e.db, models.UserRolePilot)
	bio := "x"
	_, err = e.svc.Pilots.UpdateProfile(ctx, e.db, actorOf(other), pilot.ID, &dto.UpdatePilotRequest{Bio: &bio})
	assert.True(t, apperrors.Is(err, apperrors.ErrPilotNotOwned))
}

func TestRatePilot_RequiresCompletedJob(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	_, err := e.svc.Pilots.Rate(ctx, e.db, actorOf(m.manager), m.pilot.ID, 5)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotEligibleToRate))

	bid := m.accepted(t, e, 90000)
	body, sig := signed(t, payment.EventCheckoutCompleted, time.Now(), paidSession(t, e, m, bid))
	_, err = e.svc.Settlement.HandlePaymentWebhook(ctx, e.db, body, sig)
	require.NoError(t, err)

	_, err = e.svc.Pilots.Rate(ctx, e.db, actorOf(m.manager), m.pilot.ID, 5)
	require.NoError(t, err)
	rated, err := e.svc.Pilots.Rate(ctx, e.db, actorOf(m.manager), m.pilot.ID, 4)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, rated.Rating, 0.001)
	assert.Equal(t, 2, rated.TotalReviews)
}
