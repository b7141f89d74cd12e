package service

import (
	"context"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/utils"
)

// OverlapDetector decides whether a candidate window collides with an active
// reservation on the same asset. Each reservation claims its days plus one
// turnaround day on either side, so a new window must leave at least one free
// day between itself and every existing booking.
type OverlapDetector struct{}

// Conflicts reports the first active reservation on assetID that blocks
// [start, end], or nil. excludeID skips one reservation (e.g. when re-validating itself).
// Pass a transaction-bound repository to make the check part of the same atomic unit.
func (d OverlapDetector) Conflicts(ctx context.Context, reservations repository.ReservationRepository, assetID int64, start, end utils.Date, excludeID *uuid.UUID) (*domain.Reservation, error) {
	from, to := searchWindow(start, end)
	existing, err := reservations.ListActiveByAsset(ctx, assetID, from.String(), to.String())
	if err != nil {
		return nil, domain.NewTransientError("check overlap", err)
	}
	return FindConflict(existing, start, end, excludeID)
}

// searchWindow is the range of stored dates that can possibly block [start, end].
func searchWindow(start, end utils.Date) (utils.Date, utils.Date) {
	return utils.AddDays(start, -domain.BufferDays), utils.AddDays(end, domain.BufferDays)
}

// FindConflict is the pure form of Conflicts over an already loaded set.
// Inactive reservations never conflict.
func FindConflict(existing []domain.Reservation, start, end utils.Date, excludeID *uuid.UUID) (*domain.Reservation, error) {
	bufStart, bufEnd := searchWindow(start, end)
	for i := range existing {
		r := &existing[i]
		if !r.Status.IsActive() {
			continue
		}
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		rs, re, err := r.Window()
		if err != nil {
			return nil, domain.NewTransientError("check overlap", err)
		}
		if utils.Overlaps(bufStart, bufEnd, rs, re) {
			return r, nil
		}
	}
	return nil, nil
}
