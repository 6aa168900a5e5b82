package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedPricer struct {
	hourly float64
}

func (p fixedPricer) OnDemandPrice(ctx context.Context) float64 {
	return p.hourly
}

func TestEstimate(t *testing.T) {
	estimator := NewCostEstimator(fixedPricer{hourly: 0.192}, 4)

	cost := estimator.Estimate(context.Background(), 30*time.Minute)
	assert.InDelta(t, 0.192*4*0.5, cost, 1e-9)
}

func TestEstimateWithoutPricerIsFree(t *testing.T) {
	estimator := NewCostEstimator(nil, 4)
	assert.Zero(t, estimator.Estimate(context.Background(), time.Hour))
}
