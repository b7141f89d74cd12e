package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/utils"
)

func kinds(t *testing.T, g *domain.CalendarGrid, assetID int64) []domain.CellKind {
	t.Helper()
	for _, row := range g.Rows {
		if row.Asset.ID == assetID {
			out := make([]domain.CellKind, len(row.Cells))
			for i, c := range row.Cells {
				out[i] = c.Kind
			}
			return out
		}
	}
	t.Fatalf("asset %d not in grid", assetID)
	return nil
}

func TestBuildCalendar(t *testing.T) {
	assets := []domain.Asset{{ID: 2, Name: "Van"}, {ID: 1, Name: "Camper"}}
	first := booked(1, "2025-06-10", "2025-06-12", domain.ReservationStatusConfirmed)
	second := booked(1, "2025-06-14", "2025-06-15", domain.ReservationStatusPending)
	done := booked(2, "2025-06-08", "2025-06-09", domain.ReservationStatusCompleted)
	gone := booked(2, "2025-06-13", "2025-06-14", domain.ReservationStatusCancelled)
	reservations := []domain.Reservation{second, gone, first, done}

	start, end := utils.MustParseDate("2025-06-09"), utils.MustParseDate("2025-06-16")
	grid, err := BuildCalendar(assets, reservations, start, end)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-06-09", "2025-06-10", "2025-06-11", "2025-06-12",
		"2025-06-13", "2025-06-14", "2025-06-15", "2025-06-16"}, grid.Dates)
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, int64(1), grid.Rows[0].Asset.ID, "rows ordered by asset id")

	F, B, X := domain.CellFree, domain.CellBooked, domain.CellBuffer
	assert.Equal(t, []domain.CellKind{X, B, B, B, X, B, B, X}, kinds(t, grid, 1))
	assert.Equal(t, []domain.CellKind{B, X, F, F, F, F, F, F}, kinds(t, grid, 2), "completed drawn, cancelled ignored")

	t.Run("Booked cells carry bar edges and are clickable", func(t *testing.T) {
		c, ok := grid.Cell(1, "2025-06-10")
		require.True(t, ok)
		assert.True(t, c.IsStartDay)
		assert.False(t, c.IsEndDay)
		assert.True(t, c.Clickable)
		require.NotNil(t, c.ReservationID)
		assert.Equal(t, first.ID, *c.ReservationID)

		c, _ = grid.Cell(1, "2025-06-12")
		assert.True(t, c.IsEndDay)
	})

	t.Run("Buffer cells reference a reservation but are not clickable", func(t *testing.T) {
		c, _ := grid.Cell(1, "2025-06-13")
		assert.False(t, c.Clickable)
		require.NotNil(t, c.ReservationID)
		assert.Equal(t, first.ID, *c.ReservationID)

		c, _ = grid.Cell(1, "2025-06-16")
		require.NotNil(t, c.ReservationID)
		assert.Equal(t, second.ID, *c.ReservationID)
	})

	t.Run("Body wins over a neighbour's buffer", func(t *testing.T) {
		tight := []domain.Reservation{
			booked(1, "2025-06-10", "2025-06-12", domain.ReservationStatusCompleted),
			booked(1, "2025-06-13", "2025-06-14", domain.ReservationStatusConfirmed),
		}
		g, err := BuildCalendar(assets[1:], tight, start, end)
		require.NoError(t, err)
		c, _ := g.Cell(1, "2025-06-13")
		assert.Equal(t, domain.CellBooked, c.Kind)
		assert.Equal(t, tight[1].ID, *c.ReservationID)
	})

	t.Run("Projection is repeatable and leaves inputs alone", func(t *testing.T) {
		again, err := BuildCalendar(assets, reservations, start, end)
		require.NoError(t, err)
		assert.Equal(t, grid, again)
		assert.Equal(t, int64(2), assets[0].ID)
		assert.Equal(t, second.ID, reservations[0].ID)
	})
}

func TestCalendarService_Project(t *testing.T) {
	ctx := context.Background()

	t.Run("Widens the reservation query by the buffer", func(t *testing.T) {
		assets := new(MockAssetRepo)
		reservations := new(MockReservationRepo)
		assets.On("List", ctx).Return([]domain.Asset{{ID: 1}}, nil)
		reservations.On("ListForCalendar", ctx, "2025-06-09", "2025-06-13").
			Return([]domain.Reservation{booked(1, "2025-06-13", "2025-06-13", domain.ReservationStatusConfirmed)}, nil)

		grid, err := NewCalendarService(assets, reservations).Project(ctx, "2025-06-10", "2025-06-12")
		require.NoError(t, err)
		assert.Equal(t, []domain.CellKind{domain.CellFree, domain.CellFree, domain.CellBuffer}, kinds(t, grid, 1))
	})

	t.Run("Rejects bad ranges", func(t *testing.T) {
		svc := NewCalendarService(new(MockAssetRepo), new(MockReservationRepo))
		_, err := svc.Project(ctx, "2025-06-12", "2025-06-10")
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = svc.Project(ctx, "2025-01-01", "2026-06-01")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
