package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

func createPolicy(t *testing.T, e *env, user *models.User, expiresIn time.Duration) *dto.InsuranceResponse {
	t.Helper()
	now := time.Now().UTC()
	res, err := e.svc.Insurance.Create(ctx, e.db, actorOf(user), &dto.CreateInsuranceRequest{
		Provider:       "SkyCover",
		PolicyNumber:   "POL-1",
		PolicyType:     models.PolicyDroneLiability,
		CoverageAmount: 100000000,
		EffectiveDate:  now.Add(-24 * time.Hour),
		ExpiryDate:     now.Add(expiresIn),
	})
	require.NoError(t, err)
	return res
}

func TestInsurance_CreateVerifyAndUpdateResetsVerification(t *testing.T) {
	e := newEnv(t)
	user, pilot := anotherPilot(t, e)

	// 1. Подготовка: новый полис не проверен
	created := createPolicy(t, e, user, 365*24*time.Hour)
	assert.False(t, created.IsValidNow)

	_, err := e.svc.Insurance.Create(ctx, e.db, actorOf(user), &dto.CreateInsuranceRequest{
		Provider: "Other", PolicyNumber: "P2", PolicyType: models.PolicyOther,
		CoverageAmount: 1, EffectiveDate: time.Now(), ExpiryDate: time.Now().Add(time.Hour),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInsuranceExists))

	// 2. Проверка администратором
	_, err = e.svc.Insurance.Verify(ctx, e.db, actorOf(user), created.ID, models.VerificationManual)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientPermissions))

	verified, err := e.svc.Insurance.Verify(ctx, e.db, adminActor, created.ID, models.VerificationManual)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.True(t, verified.IsValidNow)

	// 3. Изменение пилотом сбрасывает проверку
	provider := "AeroShield"
	updated, err := e.svc.Insurance.Update(ctx, e.db, actorOf(user), created.ID, &dto.UpdateInsuranceRequest{Provider: &provider})
	require.NoError(t, err)
	assert.Equal(t, provider, updated.Provider)
	assert.False(t, updated.IsVerified)
	assert.Nil(t, updated.VerificationDate)

	got, err := e.svc.Insurance.GetByPilot(e.db, pilot.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestInsurance_UpdateRejectsExpiryBeforeEffective(t *testing.T) {
	e := newEnv(t)
	user, _ := anotherPilot(t, e)
	created := createPolicy(t, e, user, 365*24*time.Hour)

	past := time.Now().Add(-48 * time.Hour)
	_, err := e.svc.Insurance.Update(ctx, e.db, actorOf(user), created.ID, &dto.UpdateInsuranceRequest{ExpiryDate: &past})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestInsurance_OnlyOwnerMutates(t *testing.T) {
	e := newEnv(t)
	owner, _ := anotherPilot(t, e)
	other, _ := anotherPilot(t, e)
	created := createPolicy(t, e, owner, 365*24*time.Hour)

	notes := "hijack"
	_, err := e.svc.Insurance.Update(ctx, e.db, actorOf(other), created.ID, &dto.UpdateInsuranceRequest{Notes: &notes})
	assert.True(t, apperrors.Is(err, apperrors.ErrInsuranceNotOwned))

	err = e.svc.Insurance.Delete(ctx, e.db, actorOf(other), created.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsuranceNotOwned))

	require.NoError(t, e.svc.Insurance.Delete(ctx, e.db, actorOf(owner), created.ID))
	_, err = e.svc.Insurance.GetByPilot(e.db, created.PilotID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsuranceNotFound))
}

func TestInsurance_AddClaimAppends(t *testing.T) {
	e := newEnv(t)
	user, _ := anotherPilot(t, e)
	created := createPolicy(t, e, user, 365*24*time.Hour)

	for _, d := range []string{"Cracked pane", "Rotor strike"} {
		_, err := e.svc.Insurance.AddClaim(ctx, e.db, actorOf(user), created.ID, &dto.ClaimRequest{
			Date: time.Now(), Amount: 25000, Description: d,
		})
		require.NoError(t, err)
	}

	got, err := e.svc.Insurance.GetByPilot(e.db, created.PilotID)
	require.NoError(t, err)
	var claims []models.Claim
	require.NoError(t, json.Unmarshal(got.ClaimsHistory, &claims))
	require.Len(t, claims, 2)
	assert.Equal(t, "open", claims[0].Status)
	assert.Equal(t, "Rotor strike", claims[1].Description)
}

func TestInsurance_UploadDocument(t *testing.T) {
	e := newEnv(t)
	user, _ := anotherPilot(t, e)
	created := createPolicy(t, e, user, 365*24*time.Hour)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF")
	res, err := e.svc.Insurance.UploadDocument(ctx, e.db, actorOf(user), created.ID, bytes.NewReader(pdf), int64(len(pdf)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.DocumentURL, "/uploads/insurance/"), res.DocumentURL)
	assert.True(t, strings.HasSuffix(res.DocumentURL, ".pdf"), res.DocumentURL)
	assert.Equal(t, models.VerificationDocumentUpload, res.VerificationMethod)

	_, err = e.svc.Insurance.UploadDocument(ctx, e.db, actorOf(user), created.ID, strings.NewReader("plain text, not a document"), 26)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidFileType))

	_, err = e.svc.Insurance.UploadDocument(ctx, e.db, actorOf(user), created.ID, bytes.NewReader(pdf), 11<<20)
	assert.True(t, apperrors.Is(err, apperrors.ErrFileTooLarge))
}

func TestInsurance_Expiring(t *testing.T) {
	e := newEnv(t)
	soon, _ := anotherPilot(t, e)
	later, _ := anotherPilot(t, e)
	for _, p := range []*dto.InsuranceResponse{
		createPolicy(t, e, soon, 5*24*time.Hour),
		createPolicy(t, e, later, 200*24*time.Hour),
	} {
		_, err := e.svc.Insurance.Verify(ctx, e.db, adminActor, p.ID, models.VerificationAPI)
		require.NoError(t, err)
	}

	list, err := e.svc.Insurance.Expiring(e.db, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].ExpiringSoon)
	assert.LessOrEqual(t, list[0].DaysUntilExpiry, 5)
}
