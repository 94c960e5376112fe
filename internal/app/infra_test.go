package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronemarket_backend/internal/config"
	"dronemarket_backend/internal/services/payment"
)

func TestNewGateway(t *testing.T) {
	// 1. Без ключа в development - in-memory шлюз
	cfg := &config.Config{}
	cfg.Server.Env = "development"
	gw, err := newGateway(cfg)
	require.NoError(t, err)
	assert.IsType(t, &payment.FakeGateway{}, gw)

	// 2. Без ключа в production - ошибка
	cfg.Server.Env = "production"
	_, err = newGateway(cfg)
	assert.ErrorContains(t, err, "STRIPE_SECRET_KEY")

	// 3. С ключом - Stripe
	cfg.Stripe.SecretKey = "sk_test_x"
	gw, err = newGateway(cfg)
	require.NoError(t, err)
	assert.IsType(t, &payment.StripeGateway{}, gw)
}
