package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
)

type reservationRepository struct {
	db Queryable
}

func NewReservationRepository(db Queryable) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `r.id, r.asset_id, r.customer_id,
	to_char(r.start_date, 'YYYY-MM-DD'), to_char(r.end_date, 'YYYY-MM-DD'), r.day_count, r.status,
	r.subtotal_cents, r.discount_rate, r.discount_cents, r.tax_cents, r.total_cents,
	r.payment_method, r.payment_status, r.payment_reference, r.created_at, r.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner, extra ...any) (domain.Reservation, error) {
	var rt domain.Reservation
	dest := []any{
		&rt.ID, &rt.AssetID, &rt.CustomerID, &rt.StartDate, &rt.EndDate, &rt.DayCount, &rt.Status,
		&rt.SubtotalCents, &rt.DiscountRate, &rt.DiscountCents, &rt.TaxCents, &rt.TotalCents,
		&rt.PaymentMethod, &rt.PaymentStatus, &rt.PaymentReference, &rt.CreatedAt, &rt.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return rt, err
}

func (r *reservationRepository) Create(ctx context.Context, rt *domain.Reservation) error {
	query := `INSERT INTO reservations (id, asset_id, customer_id, start_date, end_date, day_count, status,
	          subtotal_cents, discount_rate, discount_cents, tax_cents, total_cents,
	          payment_method, payment_status, payment_reference, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now().UTC()
	}
	rt.UpdatedAt = rt.CreatedAt

	logger.DatabaseCall("insert", "INSERT INTO reservations", "reservation_id", rt.ID, "asset_id", rt.AssetID)
	res, err := r.db.ExecContext(ctx, query,
		rt.ID, rt.AssetID, rt.CustomerID, rt.StartDate, rt.EndDate, rt.DayCount, rt.Status,
		rt.SubtotalCents, rt.DiscountRate, rt.DiscountCents, rt.TaxCents, rt.TotalCents,
		rt.PaymentMethod, rt.PaymentStatus, rt.PaymentReference, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		logger.DatabaseResult("insert", 0, err)
		return classify("insert reservation", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("insert", n, nil, "reservation_id", rt.ID)
	return nil
}

func (r *reservationRepository) CreateEquipmentLines(ctx context.Context, lines []domain.ReservationEquipmentLine) error {
	query := `INSERT INTO reservation_equipment (reservation_id, equipment_id, quantity, days, price_per_day_cents, subtotal_cents)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	for _, l := range lines {
		if _, err := r.db.ExecContext(ctx, query, l.ReservationID, l.EquipmentID, l.Quantity, l.Days, l.PricePerDayCents, l.SubtotalCents); err != nil {
			return classify(fmt.Sprintf("insert equipment line %d", l.EquipmentID), err)
		}
	}
	return nil
}

func (r *reservationRepository) CreateActivityLines(ctx context.Context, lines []domain.ReservationActivityLine) error {
	query := `INSERT INTO reservation_activities (reservation_id, activity_id, activity_date, participants, price_per_participant_cents, subtotal_cents)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	for _, l := range lines {
		if _, err := r.db.ExecContext(ctx, query, l.ReservationID, l.ActivityID, l.Date, l.Participants, l.PricePerParticipantCents, l.SubtotalCents); err != nil {
			return classify(fmt.Sprintf("insert activity line %d", l.ActivityID), err)
		}
	}
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = $1`
	rt, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(fmt.Sprintf("get reservation %s", id), err)
	}

	list := []domain.Reservation{rt}
	if err := r.attachLines(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	query := `UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3`
	return r.exec(ctx, "update reservation status", id, query, status, time.Now().UTC(), id)
}

func (r *reservationRepository) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reference string) error {
	query := `UPDATE reservations SET payment_status = $1, payment_reference = $2, updated_at = $3 WHERE id = $4`
	return r.exec(ctx, "update reservation payment", id, query, status, reference, time.Now().UTC(), id)
}

func (r *reservationRepository) exec(ctx context.Context, op string, id uuid.UUID, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("update", n, err, "reservation_id", id)
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return domain.NewNotFoundError(op, "reservation %s not found", id)
	}
	return nil
}

func (r *reservationRepository) ListActiveByAsset(ctx context.Context, assetID int64, from, to string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	          WHERE r.asset_id = $1 AND r.status = ANY($2) AND r.start_date <= $4 AND r.end_date >= $3
	          ORDER BY r.start_date`
	return r.list(ctx, "list active reservations by asset", query, assetID, activeStatusArray(), from, to)
}

func (r *reservationRepository) ListActiveInWindow(ctx context.Context, from, to string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	          WHERE r.status = ANY($1) AND r.start_date <= $3 AND r.end_date >= $2
	          ORDER BY r.asset_id, r.start_date`
	return r.list(ctx, "list active reservations", query, activeStatusArray(), from, to)
}

func (r *reservationRepository) ListStalePending(ctx context.Context, before string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	          WHERE r.status = $1 AND r.start_date < $2
	          ORDER BY r.start_date`
	return r.list(ctx, "list stale pending reservations", query, domain.ReservationStatusPending, before)
}

func (r *reservationRepository) ListForCalendar(ctx context.Context, from, to string) ([]domain.Reservation, error) {
	statuses := make([]string, 0, len(domain.ActiveReservationStatuses)+1)
	for _, s := range domain.ActiveReservationStatuses {
		statuses = append(statuses, string(s))
	}
	statuses = append(statuses, string(domain.ReservationStatusCompleted))

	query := `SELECT ` + reservationColumns + `, c.name, a.name
	          FROM reservations r
	          JOIN customers c ON c.id = r.customer_id
	          JOIN assets a ON a.id = r.asset_id
	          WHERE r.status = ANY($1) AND r.start_date <= $3 AND r.end_date >= $2
	          ORDER BY r.asset_id, r.start_date`

	logger.DatabaseCall("select", "calendar reservations", "from", from, "to", to)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(statuses), from, to)
	if err != nil {
		return nil, classify("list calendar reservations", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var customerName, assetName string
		rt, err := scanReservation(rows, &customerName, &assetName)
		if err != nil {
			return nil, classify("scan calendar reservation", err)
		}
		rt.CustomerName = customerName
		rt.AssetName = assetName
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list calendar reservations", err)
	}

	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reservationRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Reservation, error) {
	logger.DatabaseCall("select", op)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rt, err := scanReservation(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// attachLines loads equipment and activity lines for the given reservations in two queries.
func (r *reservationRepository) attachLines(ctx context.Context, list []domain.Reservation) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]string, len(list))
	index := make(map[uuid.UUID]int, len(list))
	for i := range list {
		ids[i] = list[i].ID.String()
		index[list[i].ID] = i
		list[i].Equipment = []domain.ReservationEquipmentLine{}
		list[i].Activities = []domain.ReservationActivityLine{}
	}

	eqRows, err := r.db.QueryContext(ctx, `SELECT reservation_id, equipment_id, quantity, days, price_per_day_cents, subtotal_cents
		FROM reservation_equipment WHERE reservation_id = ANY($1::uuid[]) ORDER BY equipment_id`, pq.Array(ids))
	if err != nil {
		return classify("list equipment lines", err)
	}
	if err := scanLines(eqRows, func(rows *sql.Rows) error {
		var l domain.ReservationEquipmentLine
		if err := rows.Scan(&l.ReservationID, &l.EquipmentID, &l.Quantity, &l.Days, &l.PricePerDayCents, &l.SubtotalCents); err != nil {
			return err
		}
		if i, ok := index[l.ReservationID]; ok {
			list[i].Equipment = append(list[i].Equipment, l)
		}
		return nil
	}); err != nil {
		return classify("scan equipment lines", err)
	}

	actRows, err := r.db.QueryContext(ctx, `SELECT reservation_id, activity_id, to_char(activity_date, 'YYYY-MM-DD'), participants, price_per_participant_cents, subtotal_cents
		FROM reservation_activities WHERE reservation_id = ANY($1::uuid[]) ORDER BY activity_date, activity_id`, pq.Array(ids))
	if err != nil {
		return classify("list activity lines", err)
	}
	if err := scanLines(actRows, func(rows *sql.Rows) error {
		var l domain.ReservationActivityLine
		if err := rows.Scan(&l.ReservationID, &l.ActivityID, &l.Date, &l.Participants, &l.PricePerParticipantCents, &l.SubtotalCents); err != nil {
			return err
		}
		if i, ok := index[l.ReservationID]; ok {
			list[i].Activities = append(list[i].Activities, l)
		}
		return nil
	}); err != nil {
		return classify("scan activity lines", err)
	}
	return nil
}

func scanLines(rows *sql.Rows, fn func(*sql.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
