package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/jobs"
)

func TestNewScheduler_RegistersNightlySweep(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{ExpireStalePending: "0 15 0 * * *"}}
	s, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())

	s.Start()
	defer s.Stop()

	next := s.NextRun()
	require.False(t, next.IsZero())
	next = next.UTC()
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 15, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestNewScheduler_RejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{ExpireStalePending: "every night"}}
	_, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
	assert.Error(t, err)
}
