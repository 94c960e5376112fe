package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWebhookCounter(t *testing.T) {
	c := WebhookEventsTotal.WithLabelValues("checkout.session.completed", "duplicate")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestBidTransitionsLabels(t *testing.T) {
	BidTransitionsTotal.WithLabelValues("accepted").Inc()
	assert.GreaterOrEqual(t, testutil.CollectAndCount(BidTransitionsTotal), 1)
}
