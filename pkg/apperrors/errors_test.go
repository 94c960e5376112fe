package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesPredefinedAfterWithDetails(t *testing.T) {
	err := fmt.Errorf("service: %w", ErrBidNotFound.WithDetails("x"))
	assert.True(t, Is(err, ErrBidNotFound))
	assert.False(t, Is(err, ErrJobNotFound))
}

func TestWithDetails_DoesNotMutateShared(t *testing.T) {
	_ = ErrDuplicateActiveBid.WithDetails("tmp")
	assert.Nil(t, ErrDuplicateActiveBid.Details)
}

func TestMarshalJSON_HidesCause(t *testing.T) {
	err := TransactionError(errors.New("deadlock detected"))
	b, jerr := json.Marshal(err)
	require.NoError(t, jerr)
	assert.NotContains(t, string(b), "deadlock")
	assert.Contains(t, string(b), string(CodeTransactionFailed))
}

func TestTaxonomyHTTPCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		code int
	}{
		{ValidationError(map[string]string{"amount": "gt"}), http.StatusBadRequest},
		{NewUnauthorizedError("x"), http.StatusUnauthorized},
		{InvalidSignature(nil), http.StatusUnauthorized},
		{NewForbiddenError("x"), http.StatusForbidden},
		{NotFound("bid", "x"), http.StatusNotFound},
		{Conflict("bid", "x"), http.StatusConflict},
		{InvalidState("bid", "x"), http.StatusConflict},
		{TransactionError(nil), http.StatusInternalServerError},
		{ExternalServiceError(nil, "payment", "x"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.HTTPCode, tc.err.Error())
	}
}

func TestHandleError_GenericInProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetDebug(false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(CodeInternalError), body["error"]["code"])
}

func TestHandleError_PassesAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, ErrDuplicateActiveBid)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "active bid")
	assert.Equal(t, CodeConflict, CodeOf(ErrDuplicateActiveBid))
	assert.Equal(t, CodeInternalError, CodeOf(errors.New("x")))
}
