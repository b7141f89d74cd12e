package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
)

type assetRepository struct{ b binding }

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	var (
		a  domain.Asset
		ok bool
	)
	r.b.read(func(st *state) { a, ok = st.assets[id] })
	if !ok {
		return nil, domain.NewNotFoundError("get asset", "asset %d not found", id)
	}
	return &a, nil
}

// LockForBooking needs no extra lock: transactions are already serialized.
func (r *assetRepository) LockForBooking(ctx context.Context, id int64) (*domain.Asset, error) {
	return r.GetByID(ctx, id)
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	return r.filter(func(domain.Asset) bool { return true }), nil
}

func (r *assetRepository) ListByStatus(ctx context.Context, status domain.AssetStatus) ([]domain.Asset, error) {
	return r.filter(func(a domain.Asset) bool { return a.Status == status }), nil
}

func (r *assetRepository) filter(keep func(domain.Asset) bool) []domain.Asset {
	var out []domain.Asset
	r.b.read(func(st *state) {
		for _, a := range st.assets {
			if keep(a) {
				out = append(out, a)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *assetRepository) UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error {
	return r.b.write(func(st *state) error {
		a, ok := st.assets[id]
		if !ok {
			return domain.NewNotFoundError("update asset status", "asset %d not found", id)
		}
		a.Status = status
		st.assets[id] = a
		return nil
	})
}

type customerRepository struct{ b binding }

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var (
		c  domain.Customer
		ok bool
	)
	r.b.read(func(st *state) { c, ok = st.customers[id] })
	if !ok {
		return nil, domain.NewNotFoundError("get customer", "customer %d not found", id)
	}
	return &c, nil
}

type catalogRepository struct{ b binding }

func (r *catalogRepository) GetEquipment(ctx context.Context, ids []int64) (map[int64]domain.Equipment, error) {
	out := make(map[int64]domain.Equipment, len(ids))
	r.b.read(func(st *state) {
		for _, id := range ids {
			if e, ok := st.equipment[id]; ok {
				out[id] = e
			}
		}
	})
	return out, nil
}

func (r *catalogRepository) GetActivities(ctx context.Context, ids []int64) (map[int64]domain.Activity, error) {
	out := make(map[int64]domain.Activity, len(ids))
	r.b.read(func(st *state) {
		for _, id := range ids {
			if a, ok := st.activities[id]; ok {
				out[id] = a
			}
		}
	})
	return out, nil
}

type reservationRepository struct{ b binding }

func (r *reservationRepository) Create(ctx context.Context, rt *domain.Reservation) error {
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now().UTC()
	}
	rt.UpdatedAt = rt.CreatedAt
	return r.b.write(func(st *state) error {
		if _, ok := st.assets[rt.AssetID]; !ok {
			return domain.NewNotFoundError("insert reservation", "asset %d not found", rt.AssetID)
		}
		if _, ok := st.customers[rt.CustomerID]; !ok {
			return domain.NewNotFoundError("insert reservation", "customer %d not found", rt.CustomerID)
		}
		if _, dup := st.reservations[rt.ID]; dup {
			return domain.NewValidationError("insert reservation", "reservation %s already exists", rt.ID)
		}
		header := *rt
		header.Equipment, header.Activities = nil, nil
		header.CustomerName, header.AssetName = "", ""
		st.reservations[rt.ID] = header
		return nil
	})
}

func (r *reservationRepository) CreateEquipmentLines(ctx context.Context, lines []domain.ReservationEquipmentLine) error {
	return r.b.write(func(st *state) error {
		for _, l := range lines {
			if _, ok := st.reservations[l.ReservationID]; !ok {
				return domain.NewNotFoundError("insert equipment line", "reservation %s not found", l.ReservationID)
			}
			st.equipmentLines[l.ReservationID] = append(st.equipmentLines[l.ReservationID], l)
		}
		return nil
	})
}

func (r *reservationRepository) CreateActivityLines(ctx context.Context, lines []domain.ReservationActivityLine) error {
	return r.b.write(func(st *state) error {
		for _, l := range lines {
			if _, ok := st.reservations[l.ReservationID]; !ok {
				return domain.NewNotFoundError("insert activity line", "reservation %s not found", l.ReservationID)
			}
			st.activityLines[l.ReservationID] = append(st.activityLines[l.ReservationID], l)
		}
		return nil
	})
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	var (
		rt domain.Reservation
		ok bool
	)
	r.b.read(func(st *state) {
		var h domain.Reservation
		if h, ok = st.reservations[id]; ok {
			rt = withLines(st, h)
		}
	})
	if !ok {
		return nil, domain.NewNotFoundError("get reservation", "reservation %s not found", id)
	}
	return &rt, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	return r.update(id, func(rt *domain.Reservation) { rt.Status = status })
}

func (r *reservationRepository) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reference string) error {
	return r.update(id, func(rt *domain.Reservation) {
		rt.PaymentStatus = status
		rt.PaymentReference = reference
	})
}

func (r *reservationRepository) update(id uuid.UUID, fn func(*domain.Reservation)) error {
	return r.b.write(func(st *state) error {
		rt, ok := st.reservations[id]
		if !ok {
			return domain.NewNotFoundError("update reservation", "reservation %s not found", id)
		}
		fn(&rt)
		rt.UpdatedAt = time.Now().UTC()
		st.reservations[id] = rt
		return nil
	})
}

func (r *reservationRepository) ListActiveByAsset(ctx context.Context, assetID int64, from, to string) ([]domain.Reservation, error) {
	return r.query(func(st *state, rt domain.Reservation) bool {
		return rt.AssetID == assetID && rt.Status.IsActive() && intersects(rt, from, to)
	}), nil
}

func (r *reservationRepository) ListActiveInWindow(ctx context.Context, from, to string) ([]domain.Reservation, error) {
	return r.query(func(st *state, rt domain.Reservation) bool {
		return rt.Status.IsActive() && intersects(rt, from, to)
	}), nil
}

func (r *reservationRepository) ListForCalendar(ctx context.Context, from, to string) ([]domain.Reservation, error) {
	out := r.query(func(st *state, rt domain.Reservation) bool {
		return rt.Status.OccupiesCalendar() && intersects(rt, from, to)
	})
	r.b.read(func(st *state) {
		for i := range out {
			out[i].CustomerName = st.customers[out[i].CustomerID].Name
			out[i].AssetName = st.assets[out[i].AssetID].Name
		}
	})
	return out, nil
}

func (r *reservationRepository) ListStalePending(ctx context.Context, before string) ([]domain.Reservation, error) {
	return r.query(func(st *state, rt domain.Reservation) bool {
		return rt.Status == domain.ReservationStatusPending && rt.StartDate < before
	}), nil
}

// query returns matching reservations with lines, ordered by asset then start date.
func (r *reservationRepository) query(keep func(*state, domain.Reservation) bool) []domain.Reservation {
	var out []domain.Reservation
	r.b.read(func(st *state) {
		for _, rt := range st.reservations {
			if keep(st, rt) {
				out = append(out, withLines(st, rt))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssetID != out[j].AssetID {
			return out[i].AssetID < out[j].AssetID
		}
		return out[i].StartDate < out[j].StartDate
	})
	return out
}

func withLines(st *state, rt domain.Reservation) domain.Reservation {
	rt.Equipment = append([]domain.ReservationEquipmentLine{}, st.equipmentLines[rt.ID]...)
	rt.Activities = append([]domain.ReservationActivityLine{}, st.activityLines[rt.ID]...)
	return rt
}

// intersects compares normalized yyyy-mm-dd strings, whose lexicographic order is calendar order.
func intersects(rt domain.Reservation, from, to string) bool {
	return rt.StartDate <= to && rt.EndDate >= from
}
