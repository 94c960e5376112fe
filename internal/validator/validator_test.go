package validator

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronemarket_backend/internal/services/dto"
)

func TestValidate_SignUp(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		req  dto.SignUpRequest
		want map[string]string
	}{
		{
			name: "valid property manager",
			req:  dto.SignUpRequest{Email: "pm@example.com", Password: "password123", FirstName: "Paula", LastName: "M"},
		},
		{
			name: "admin role is not allowed",
			req:  dto.SignUpRequest{Email: "a@example.com", Password: "password123", FirstName: "A", LastName: "B", Role: "admin"},
			want: map[string]string{"role": "Invalid value (failed on 'is-signup-role' tag)"},
		},
		{
			name: "missing fields use json names",
			req:  dto.SignUpRequest{Email: "not-an-email", Password: "short"},
			want: map[string]string{
				"email":     "Must be a valid email address",
				"password":  "Must be at least 8 items/characters long",
				"firstName": "This field is required",
				"lastName":  "This field is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			if diff := cmp.Diff(tt.want, ve.Errors); diff != "" {
				t.Errorf("validation errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_PlanRule(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&dto.CreateSubscriptionCheckoutRequest{PlanID: "basic"}))

	err := v.Validate(&dto.CreateSubscriptionCheckoutRequest{PlanID: "gold"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Errors, "planId")
	assert.Contains(t, err.Error(), "field 'planId'")
}

func TestValidate_CreateBid(t *testing.T) {
	v := New()
	jobID := "7f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f"
	duration := func(n int) *int { return &n }

	tests := []struct {
		name string
		req  dto.CreateBidRequest
		want map[string]string
	}{
		{
			name: "valid bid",
			req:  dto.CreateBidRequest{JobID: jobID, Amount: 90000, EstimatedDuration: duration(4)},
		},
		{
			name: "zero amount",
			req:  dto.CreateBidRequest{JobID: jobID, Amount: 0},
			want: map[string]string{"amount": "This field is required"},
		},
		{
			name: "negative amount",
			req:  dto.CreateBidRequest{JobID: jobID, Amount: -100},
			want: map[string]string{"amount": "Must be greater than 0"},
		},
		{
			name: "estimated duration below one",
			req:  dto.CreateBidRequest{JobID: jobID, Amount: 90000, EstimatedDuration: duration(0)},
			want: map[string]string{"estimatedDuration": "Must be at least 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			if diff := cmp.Diff(tt.want, ve.Errors); diff != "" {
				t.Errorf("validation errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
