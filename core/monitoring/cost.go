package monitoring

import (
	"context"
	"time"
)

// Pricer yields the hourly USD price of one node host
type Pricer interface {
	OnDemandPrice(ctx context.Context) float64
}

// CostEstimator estimates what a verification run cost when its nodes ran on
// cloud hosts. In-process runs have no pricer and cost nothing.
type CostEstimator struct {
	pricer Pricer
	nodes  int
}

// NewCostEstimator creates a cost estimator for a cluster of the given size
func NewCostEstimator(pricer Pricer, nodes int) *CostEstimator {
	return &CostEstimator{pricer: pricer, nodes: nodes}
}

// Estimate returns the estimated USD cost of running the cluster for elapsed
func (ce *CostEstimator) Estimate(ctx context.Context, elapsed time.Duration) float64 {
	if ce.pricer == nil {
		return 0
	}
	return ce.pricer.OnDemandPrice(ctx) * float64(ce.nodes) * elapsed.Hours()
}
