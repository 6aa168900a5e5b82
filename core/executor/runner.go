package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"grid-harness/core/cluster"
	"grid-harness/core/models"
	"grid-harness/core/registry"

	"go.uber.org/zap"
)

// Runner submits training jobs to a formed cluster and waits for their
// terminal state. Every handle it causes to exist is registered with the
// resource registry before the caller sees it.
type Runner struct {
	registry     *registry.Registry
	logger       *zap.Logger
	pollInterval time.Duration
}

// NewRunner creates a new job runner
func NewRunner(reg *registry.Registry, logger *zap.Logger, pollInterval time.Duration) *Runner {
	return &Runner{
		registry:     reg,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type scoreRequest struct {
	ModelID string `json:"model_id"`
	FrameID string `json:"frame_id"`
}

// StageDataset uploads headered CSV content to the cluster seed and returns
// the resulting frame handle, registered for teardown
func (r *Runner) StageDataset(ctx context.Context, c *cluster.Cluster, dataset io.Reader) (models.Handle, error) {
	url := c.Seed().Addr + "/v1/datasets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, dataset)
	if err != nil {
		return models.Handle{}, err
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := c.Client(30 * time.Second).Do(req)
	if err != nil {
		return models.Handle{}, fmt.Errorf("failed to stage dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return models.Handle{}, fmt.Errorf("failed to stage dataset: http %d", resp.StatusCode)
	}

	var handle models.Handle
	if err := json.NewDecoder(resp.Body).Decode(&handle); err != nil {
		return models.Handle{}, fmt.Errorf("failed to decode staged handle: %w", err)
	}
	r.registry.Register(handle)
	return handle, nil
}

// Run submits def to the cluster and blocks until the job reaches a terminal
// state or ctx expires. A failed job is a result, not an error: the caller
// decides severity. A scoring failure after successful training returns the
// partial result together with the error; the model handle is already
// registered, so scope teardown reclaims it.
func (r *Runner) Run(ctx context.Context, c *cluster.Cluster, def models.JobDefinition) (models.JobResult, error) {
	client := c.Client(30 * time.Second)
	seed := c.Seed().Addr

	var sub submitResponse
	if err := cluster.PostJSON(ctx, client, seed+"/v1/jobs", def, &sub); err != nil {
		return models.JobResult{}, fmt.Errorf("failed to submit job: %w", err)
	}
	r.logger.Info("job submitted",
		zap.String("job", sub.JobID),
		zap.String("algorithm", string(def.Algorithm)))

	result, err := r.awaitTerminal(ctx, client, seed, sub.JobID)
	if err != nil {
		return result, err
	}

	if result.Artifact != nil {
		r.registry.Register(*result.Artifact)
	}

	if result.Status != models.JobStatusSucceeded {
		r.logger.Warn("job did not succeed",
			zap.String("job", sub.JobID),
			zap.String("status", string(result.Status)),
			zap.String("error", result.Error))
		return result, nil
	}

	r.logger.Info("training finished",
		zap.String("job", sub.JobID),
		zap.Duration("elapsed", result.TrainingElapsed))

	if def.Score {
		if result.Artifact == nil {
			return result, fmt.Errorf("job %s succeeded but reported no artifact", sub.JobID)
		}
		scoringStart := time.Now()
		var scored models.Handle
		req := scoreRequest{ModelID: result.Artifact.ID, FrameID: def.TrainingHandle.ID}
		if err := cluster.PostJSON(ctx, client, seed+"/v1/score", req, &scored); err != nil {
			return result, fmt.Errorf("scoring failed after training succeeded: %w", err)
		}
		r.registry.Register(scored)
		result.ScoredFrame = &scored
		result.ScoringElapsed = time.Since(scoringStart)

		r.logger.Info("scoring finished",
			zap.String("job", sub.JobID),
			zap.Duration("elapsed", result.ScoringElapsed))
	}

	return result, nil
}

// awaitTerminal polls the job until its status is terminal. When ctx expires
// first, the job keeps running remotely; the caller gets a stopped result.
func (r *Runner) awaitTerminal(ctx context.Context, client *http.Client, seed, jobID string) (models.JobResult, error) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		var result models.JobResult
		if err := cluster.GetJSON(ctx, client, seed+"/v1/jobs/"+jobID, &result); err != nil {
			if ctx.Err() != nil {
				return models.JobResult{Status: models.JobStatusStopped},
					fmt.Errorf("job %s abandoned: %w", jobID, ctx.Err())
			}
			return models.JobResult{}, fmt.Errorf("failed to poll job %s: %w", jobID, err)
		}
		if result.Status.Terminal() {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return models.JobResult{Status: models.JobStatusStopped},
				fmt.Errorf("job %s abandoned: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}
