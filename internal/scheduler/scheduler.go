package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/grid-picks/internal/service"
)

// Scheduler runs reconciliation on a fixed interval. Invocations never
// overlap: if a run is still in flight when the next tick fires, the tick is
// skipped and reconciliation catches up on the following one.
type Scheduler struct {
	cron           *cron.Cron
	reconciliation *service.ReconciliationService
	logger         *logrus.Logger
	runTimeout     time.Duration

	mu        sync.Mutex
	running   sync.Mutex
	isStarted bool
	jobID     cron.EntryID
}

// NewScheduler creates a scheduler around the reconciliation service. All
// schedules evaluate in UTC.
func NewScheduler(reconciliation *service.ReconciliationService, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:           cron.New(cron.WithLocation(time.UTC)),
		reconciliation: reconciliation,
		logger:         logger,
		runTimeout:     10 * time.Minute,
	}
}

// ScheduleReconciliation registers the periodic reconciliation job
func (s *Scheduler) ScheduleReconciliation(intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if intervalSeconds < 30 {
		intervalSeconds = 30
	}

	jobID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), s.runOnce)
	if err != nil {
		return fmt.Errorf("failed to add reconciliation job: %w", err)
	}

	s.jobID = jobID
	s.logger.WithField("interval_seconds", intervalSeconds).Info("Scheduled reconciliation job")
	return nil
}

func (s *Scheduler) runOnce() {
	if !s.running.TryLock() {
		s.logger.Warn("Previous reconciliation still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	report, err := s.reconciliation.Run(ctx, time.Now().UTC())
	if err != nil {
		s.logger.WithError(err).Error("Reconciliation run failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":   report.RunID.String(),
		"advanced": report.Advanced,
		"synced":   len(report.Synced),
		"failed":   len(report.Failed),
	}).Debug("Reconciliation run finished")
}

// Start begins executing the scheduled job
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return fmt.Errorf("scheduler is already running")
	}
	if s.jobID == 0 {
		return fmt.Errorf("no job scheduled")
	}

	s.cron.Start()
	s.isStarted = true
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for any in-flight run to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isStarted {
		return
	}

	<-s.cron.Stop().Done()
	s.isStarted = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether the scheduler has been started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isStarted
}

// NextRun returns when the reconciliation job will next fire
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isStarted || s.jobID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.jobID)
	if !entry.Valid() {
		return time.Time{}
	}
	return entry.Next
}
