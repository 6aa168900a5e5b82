package models

import "time"

// RunRecord is one harness invocation as persisted to the run ledger
type RunRecord struct {
	ID               string
	Scenario         string // "gbm" or "dl"
	Transport        TransportMode
	Nodes            int
	Status           JobStatus
	TrainingElapsed  time.Duration
	ScoringElapsed   time.Duration
	EstimatedCostUSD float64
	StartedAt        time.Time
	FinishedAt       time.Time
}

// RunEvent marks one phase transition inside a run
type RunEvent struct {
	ID     string
	RunID  string
	At     time.Time
	Phase  string // "formation", "staging", "training", "scoring", "teardown"
	Detail string
}
