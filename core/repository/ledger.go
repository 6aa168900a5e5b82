package repository

import (
	"grid-harness/core/models"

	"go.uber.org/zap"
)

// Ledger records harness runs when a database is configured and is a no-op
// otherwise. Ledger failures are logged, never fatal: a broken ledger must
// not sink a verification run.
type Ledger struct {
	runs   *RunRepository
	logger *zap.Logger
	runID  string
}

// NewLedger connects the run ledger. An empty databaseURL disables it.
func NewLedger(databaseURL string, logger *zap.Logger) *Ledger {
	l := &Ledger{logger: logger}
	if databaseURL == "" {
		return l
	}

	db, err := NewDB(databaseURL)
	if err != nil {
		logger.Warn("run ledger disabled", zap.Error(err))
		return l
	}
	if err := db.EnsureSchema(); err != nil {
		logger.Warn("run ledger disabled", zap.Error(err))
		db.Close()
		return l
	}
	l.runs = NewRunRepository(db)
	return l
}

// Begin opens a run record
func (l *Ledger) Begin(scenario string, transport models.TransportMode, nodes int) {
	if l.runs == nil {
		return
	}
	runID, err := l.runs.CreateRun(scenario, transport, nodes)
	if err != nil {
		l.logger.Warn("failed to record run start", zap.Error(err))
		return
	}
	l.runID = runID
}

// Event records a phase transition for the current run
func (l *Ledger) Event(phase, detail string) {
	if l.runs == nil || l.runID == "" {
		return
	}
	if err := l.runs.RecordEvent(l.runID, phase, detail); err != nil {
		l.logger.Warn("failed to record run event", zap.String("phase", phase), zap.Error(err))
	}
}

// Finish closes the run record with its terminal outcome
func (l *Ledger) Finish(result models.JobResult, costUSD float64) {
	if l.runs == nil || l.runID == "" {
		return
	}
	if err := l.runs.FinishRun(l.runID, result, costUSD); err != nil {
		l.logger.Warn("failed to record run finish", zap.Error(err))
	}
}
