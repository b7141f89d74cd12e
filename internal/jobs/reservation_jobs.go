package jobs

import (
	"context"
	"time"

	"vehicle-rental-backend/internal/logger"
)

// sweepTimeout bounds one run of a nightly sweep.
const sweepTimeout = 5 * time.Minute

// ExpireStalePendingReservations cancels PENDING reservations whose start date
// has passed, so abandoned holds stop blocking their asset.
func (jr *JobRunner) ExpireStalePendingReservations() {
	jr.runWithRecovery("ExpireStalePendingReservations", func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		today := jr.today()
		expired, err := jr.reservations.ExpireStalePending(ctx, today)
		if err != nil {
			logger.Error("Failed to expire some pending reservations", "today", today, "expired", expired, "error", err)
			return
		}
		logger.Info("Expired stale pending reservations", "today", today, "count", expired)
	})
}
