package repository

import (
	"time"

	"grid-harness/core/models"

	"github.com/google/uuid"
)

// RunRepository handles database operations for harness runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun inserts a new run at invocation time and returns its ID
func (r *RunRepository) CreateRun(scenario string, transport models.TransportMode, nodes int) (string, error) {
	query := `
		INSERT INTO runs (id, scenario, transport, nodes, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	runID := uuid.New().String()
	_, err := r.db.Exec(query, runID, scenario, string(transport), nodes, string(models.JobStatusRunning), time.Now())
	if err != nil {
		return "", err
	}
	return runID, nil
}

// FinishRun records the terminal outcome of a run
func (r *RunRepository) FinishRun(runID string, result models.JobResult, costUSD float64) error {
	query := `
		UPDATE runs
		SET status = $2,
		    training_elapsed_ms = $3,
		    scoring_elapsed_ms = $4,
		    estimated_cost_usd = $5,
		    finished_at = $6
		WHERE id = $1
	`
	_, err := r.db.Exec(query,
		runID,
		string(result.Status),
		result.TrainingElapsed.Milliseconds(),
		result.ScoringElapsed.Milliseconds(),
		costUSD,
		time.Now(),
	)
	return err
}

// RecordEvent appends a phase event to a run
func (r *RunRepository) RecordEvent(runID, phase, detail string) error {
	query := `
		INSERT INTO run_events (id, run_id, at, phase, detail)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query, uuid.New().String(), runID, time.Now(), phase, detail)
	return err
}

// GetRunEvents retrieves the events of a run, most recent first
func (r *RunRepository) GetRunEvents(runID string, limit int) ([]models.RunEvent, error) {
	query := `
		SELECT id, run_id, at, phase, detail
		FROM run_events
		WHERE run_id = $1
		ORDER BY at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.RunEvent
	for rows.Next() {
		var event models.RunEvent
		if err := rows.Scan(&event.ID, &event.RunID, &event.At, &event.Phase, &event.Detail); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
