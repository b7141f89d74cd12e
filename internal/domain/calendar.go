package domain

import "github.com/google/uuid"

type CellKind string

const (
	CellFree   CellKind = "FREE"
	CellBooked CellKind = "BOOKED"
	CellBuffer CellKind = "BUFFER"
)

// CalendarCell classifies one asset on one date.
// ReservationID is set for Booked and Buffer cells; only Booked cells are clickable.
type CalendarCell struct {
	Date          string     `json:"date"`
	Kind          CellKind   `json:"kind"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	IsStartDay    bool       `json:"is_start_day,omitempty"`
	IsEndDay      bool       `json:"is_end_day,omitempty"`
	Clickable     bool       `json:"clickable"`
}

type CalendarRow struct {
	Asset Asset          `json:"asset"`
	Cells []CalendarCell `json:"cells"`
}

// CalendarGrid is the per-asset, per-day projection for the staff dashboard
type CalendarGrid struct {
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	Dates        []string      `json:"dates"`
	Rows         []CalendarRow `json:"rows"`
	Reservations []Reservation `json:"reservations"`
}

// Cell looks up the cell for an asset and a yyyy-mm-dd date.
func (g *CalendarGrid) Cell(assetID int64, date string) (CalendarCell, bool) {
	for _, row := range g.Rows {
		if row.Asset.ID != assetID {
			continue
		}
		for _, c := range row.Cells {
			if c.Date == date {
				return c, true
			}
		}
	}
	return CalendarCell{}, false
}
