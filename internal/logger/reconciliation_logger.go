// Package logger provides reconciliation-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ReconciliationLogger provides dedicated logging for reconciliation runs.
type ReconciliationLogger struct {
	*logrus.Entry
}

// NewReconciliationLogger creates a new reconciliation logger.
func NewReconciliationLogger(baseLogger *logrus.Logger) *ReconciliationLogger {
	return &ReconciliationLogger{
		Entry: baseLogger.WithField("component", "reconciliation"),
	}
}

// LogRunStarted logs the start of a reconciliation run.
func (rl *ReconciliationLogger) LogRunStarted(runID string, seasonID int64, raceCount int) {
	rl.WithFields(logrus.Fields{
		"run_id":     runID,
		"season_id":  seasonID,
		"race_count": raceCount,
	}).Info("Reconciliation run started")
}

// LogStatusAdvanced logs a race lifecycle advancement.
func (rl *ReconciliationLogger) LogStatusAdvanced(runID string, raceID int64, round int, from, to string) {
	rl.WithFields(logrus.Fields{
		"run_id":  runID,
		"race_id": raceID,
		"round":   round,
		"from":    from,
		"to":      to,
	}).Info("Race status advanced")
}

// LogRaceSynced logs a successfully reconciled race.
func (rl *ReconciliationLogger) LogRaceSynced(runID string, raceID int64, round, resultRows, statsRecomputed int) {
	rl.WithFields(logrus.Fields{
		"run_id":           runID,
		"race_id":          raceID,
		"round":            round,
		"result_rows":      resultRows,
		"stats_recomputed": statsRecomputed,
	}).Info("Race results synced")
}

// LogRaceFailed logs a per-race reconciliation failure.
func (rl *ReconciliationLogger) LogRaceFailed(runID string, raceID int64, round int, err error) {
	rl.WithFields(logrus.Fields{
		"run_id":  runID,
		"race_id": raceID,
		"round":   round,
		"error":   err.Error(),
	}).Warn("Race reconciliation failed")
}

// LogRunCompleted logs the summary of a reconciliation run.
func (rl *ReconciliationLogger) LogRunCompleted(runID string, advanced, synced, failed int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"run_id":      runID,
		"advanced":    advanced,
		"synced":      synced,
		"failed":      failed,
		"duration_ms": float64(duration.Milliseconds()),
	}).Info("Reconciliation run completed")
}
