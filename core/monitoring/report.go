package monitoring

import (
	"grid-harness/core/models"

	"go.uber.org/zap"
)

// RunReport summarizes one harness run for the closing log line
type RunReport struct {
	Scenario string
	Spec     models.ClusterSpec
	Result   models.JobResult
	CostUSD  float64
}

// Fields renders the report as structured log fields
func (r RunReport) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("scenario", r.Scenario),
		zap.String("transport", string(r.Spec.Transport)),
		zap.Int("nodes", r.Spec.Nodes),
		zap.String("status", string(r.Result.Status)),
		zap.Duration("training", r.Result.TrainingElapsed),
	}
	if r.Result.ScoredFrame != nil {
		fields = append(fields, zap.Duration("scoring", r.Result.ScoringElapsed))
	}
	if r.CostUSD > 0 {
		fields = append(fields, zap.Float64("estimated_cost_usd", r.CostUSD))
	}
	if r.Result.Error != "" {
		fields = append(fields, zap.String("job_error", r.Result.Error))
	}
	return fields
}
