package jobs

import (
	"time"

	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/service"
	"vehicle-rental-backend/internal/utils"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	reservations service.ReservationService
	config       *config.Config
	now          func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(reservations service.ReservationService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		reservations: reservations,
		config:       cfg,
		now:          time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	log := logger.WithService("jobs").With("job", jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	log.Info("Starting job")
	start := jr.now()
	jobFunc()
	log.Info("Job completed", "duration_ms", jr.now().Sub(start).Milliseconds())
}

// today is the current calendar date in UTC
func (jr *JobRunner) today() utils.Date {
	return utils.FromTime(jr.now().UTC())
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.ExpireStalePendingReservations()
}
