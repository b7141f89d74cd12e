package service

import (
	"context"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/utils"
)

type availabilityService struct {
	assets       repository.AssetRepository
	reservations repository.ReservationRepository
	overlap      OverlapDetector
}

func NewAvailabilityService(assets repository.AssetRepository, reservations repository.ReservationRepository) AvailabilityService {
	return &availabilityService{assets: assets, reservations: reservations}
}

func (s *availabilityService) ListAvailable(ctx context.Context, startDate, endDate string) ([]domain.Asset, error) {
	const op = "list available assets"
	logger.EnterMethod("availabilityService.ListAvailable", "start_date", startDate, "end_date", endDate)

	if (startDate == "") != (endDate == "") {
		return nil, domain.NewValidationError(op, "start_date and end_date must be given together")
	}

	assets, err := s.assets.ListByStatus(ctx, domain.AssetStatusAvailable)
	if err != nil {
		return nil, domain.NewTransientError(op, err)
	}
	if startDate == "" {
		logger.ExitMethod("availabilityService.ListAvailable", "mode", "browse", "count", len(assets))
		return nonNil(assets), nil
	}

	start, end, err := utils.ParseRange(startDate, endDate)
	if err != nil {
		return nil, domain.NewValidationError(op, "%v", err)
	}

	// One query for the whole fleet, partitioned by asset.
	from, to := searchWindow(start, end)
	active, err := s.reservations.ListActiveInWindow(ctx, from.String(), to.String())
	if err != nil {
		return nil, domain.NewTransientError(op, err)
	}
	byAsset := make(map[int64][]domain.Reservation)
	for _, r := range active {
		byAsset[r.AssetID] = append(byAsset[r.AssetID], r)
	}

	available := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		conflict, err := FindConflict(byAsset[a.ID], start, end, nil)
		if err != nil {
			return nil, err
		}
		if conflict == nil {
			available = append(available, a)
		}
	}

	logger.ExitMethod("availabilityService.ListAvailable", "count", len(available), "candidates", len(assets))
	return available, nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
