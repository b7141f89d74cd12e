package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/utils"
)

// MaxCalendarDays bounds a single projection request.
const MaxCalendarDays = 366

type calendarService struct {
	assets       repository.AssetRepository
	reservations repository.ReservationRepository
}

func NewCalendarService(assets repository.AssetRepository, reservations repository.ReservationRepository) CalendarService {
	return &calendarService{assets: assets, reservations: reservations}
}

func (s *calendarService) Project(ctx context.Context, startDate, endDate string) (*domain.CalendarGrid, error) {
	const op = "project calendar"
	logger.EnterMethod("calendarService.Project", "start_date", startDate, "end_date", endDate)

	start, end, err := utils.ParseRange(startDate, endDate)
	if err != nil {
		return nil, domain.NewValidationError(op, "%v", err)
	}
	if n := utils.DayCount(start, end); n > MaxCalendarDays {
		return nil, domain.NewValidationError(op, "range of %d days exceeds the %d day limit", n, MaxCalendarDays)
	}

	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, domain.NewTransientError(op, err)
	}
	// Reservations just outside the range still cast buffer days into it.
	from, to := searchWindow(start, end)
	reservations, err := s.reservations.ListForCalendar(ctx, from.String(), to.String())
	if err != nil {
		return nil, domain.NewTransientError(op, err)
	}

	grid, err := BuildCalendar(assets, reservations, start, end)
	if err != nil {
		return nil, domain.NewTransientError(op, err)
	}
	logger.ExitMethod("calendarService.Project", "assets", len(grid.Rows), "reservations", len(grid.Reservations))
	return grid, nil
}

// BuildCalendar classifies every asset on every date of [start, end] as
// BOOKED, BUFFER or FREE. A reservation body always wins over another
// reservation's buffer. Only active and completed reservations are drawn.
// Inputs are not modified and the result depends only on the inputs.
func BuildCalendar(assets []domain.Asset, reservations []domain.Reservation, start, end utils.Date) (*domain.CalendarGrid, error) {
	dates := utils.DatesInRange(start, end)

	rows := append([]domain.Asset(nil), assets...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	shown := make([]domain.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Status.OccupiesCalendar() {
			shown = append(shown, r)
		}
	}
	sort.SliceStable(shown, func(i, j int) bool {
		a, b := shown[i], shown[j]
		if a.AssetID != b.AssetID {
			return a.AssetID < b.AssetID
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.ID.String() < b.ID.String()
	})

	type span struct {
		id         uuid.UUID
		start, end int
	}
	byAsset := make(map[int64][]span)
	for _, r := range shown {
		rs, re, err := r.Window()
		if err != nil {
			return nil, err
		}
		byAsset[r.AssetID] = append(byAsset[r.AssetID], span{id: r.ID, start: rs.Ordinal(), end: re.Ordinal()})
	}

	grid := &domain.CalendarGrid{
		StartDate:    start.String(),
		EndDate:      end.String(),
		Dates:        make([]string, len(dates)),
		Rows:         make([]domain.CalendarRow, 0, len(rows)),
		Reservations: shown,
	}
	for i, d := range dates {
		grid.Dates[i] = d.String()
	}

	for _, asset := range rows {
		spans := byAsset[asset.ID]
		row := domain.CalendarRow{Asset: asset, Cells: make([]domain.CalendarCell, len(dates))}
		for i, d := range dates {
			day := d.Ordinal()
			cell := domain.CalendarCell{Date: grid.Dates[i], Kind: domain.CellFree}

			var buffer *span
			for j := range spans {
				sp := &spans[j]
				if day >= sp.start && day <= sp.end {
					id := sp.id
					cell.Kind = domain.CellBooked
					cell.ReservationID = &id
					cell.IsStartDay = day == sp.start
					cell.IsEndDay = day == sp.end
					cell.Clickable = true
					buffer = nil
					break
				}
				if buffer == nil && (day == sp.start-domain.BufferDays || day == sp.end+domain.BufferDays) {
					buffer = sp
				}
			}
			if cell.Kind == domain.CellFree && buffer != nil {
				id := buffer.id
				cell.Kind = domain.CellBuffer
				cell.ReservationID = &id
			}
			row.Cells[i] = cell
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}
