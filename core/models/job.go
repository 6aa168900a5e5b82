package models

import "time"

// AlgorithmKind selects the training algorithm for a job
type AlgorithmKind string

const (
	AlgorithmGBM          AlgorithmKind = "gradient_boosted_trees"
	AlgorithmDeepLearning AlgorithmKind = "neural_network"
)

// JobDefinition is one training job submitted to a formed cluster.
// Immutable once submitted.
type JobDefinition struct {
	Algorithm        AlgorithmKind     `json:"algorithm"`
	TrainingHandle   Handle            `json:"training_handle"`
	ValidationHandle *Handle           `json:"validation_handle,omitempty"`
	Hyperparameters  map[string]string `json:"hyperparameters"`
	TargetColumn     string            `json:"target_column"`
	Score            bool              `json:"score"` // run a scoring pass against the training frame after success
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusStopped   JobStatus = "stopped"
)

// Terminal reports whether no further status transition can occur
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusStopped
}

// JobResult is the terminal outcome of one JobDefinition. Produced once;
// never mutated after Status is terminal.
type JobResult struct {
	Status          JobStatus     `json:"status"`
	Artifact        *Handle       `json:"artifact,omitempty"`     // trained model
	ScoredFrame     *Handle       `json:"scored_frame,omitempty"` // present when a scoring pass ran
	TrainingElapsed time.Duration `json:"training_elapsed"`
	ScoringElapsed  time.Duration `json:"scoring_elapsed"`
	Error           string        `json:"error,omitempty"`
}
