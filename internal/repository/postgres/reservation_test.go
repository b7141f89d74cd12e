package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

var reservationRowColumns = []string{
	"id", "asset_id", "customer_id", "start_date", "end_date", "day_count", "status",
	"subtotal_cents", "discount_rate", "discount_cents", "tax_cents", "total_cents",
	"payment_method", "payment_status", "payment_reference", "created_at", "updated_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func sampleReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:            uuid.MustParse("7d7c1e58-3a41-4c62-9b8e-0c2f4d1b9a10"),
		AssetID:       1,
		CustomerID:    2,
		StartDate:     "2025-06-10",
		EndDate:       "2025-06-12",
		DayCount:      3,
		Status:        domain.ReservationStatusPending,
		SubtotalCents: 6000,
		DiscountRate:  0.1,
		DiscountCents: 600,
		TaxCents:      432,
		TotalCents:    5832,
		PaymentMethod: domain.PaymentMethodOnSite,
		PaymentStatus: domain.PaymentStatusUnpaid,
	}
}

func TestReservationRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rt := sampleReservation()
		mock.ExpectExec("INSERT INTO reservations").
			WithArgs(rt.ID, rt.AssetID, rt.CustomerID, rt.StartDate, rt.EndDate, rt.DayCount, rt.Status,
				rt.SubtotalCents, rt.DiscountRate, rt.DiscountCents, rt.TaxCents, rt.TotalCents,
				rt.PaymentMethod, rt.PaymentStatus, rt.PaymentReference, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, rt))
		assert.False(t, rt.CreatedAt.IsZero())
		assert.Equal(t, rt.CreatedAt, rt.UpdatedAt)
	})

	t.Run("ExclusionViolationIsConflict", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO reservations").
			WillReturnError(&pq.Error{Code: "23P01", Constraint: "reservations_no_overlap"})

		err := repo.Create(ctx, sampleReservation())
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("ConnectionLossIsTransient", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO reservations").WillReturnError(errors.New("driver: bad connection"))

		err := repo.Create(ctx, sampleReservation())
		assert.ErrorIs(t, err, domain.ErrTransientStore)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()
	rt := sampleReservation()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM reservations r WHERE r.id = \$1`).
			WithArgs(rt.ID).
			WillReturnRows(sqlmock.NewRows(reservationRowColumns).AddRow(
				rt.ID.String(), rt.AssetID, rt.CustomerID, rt.StartDate, rt.EndDate, rt.DayCount, string(rt.Status),
				rt.SubtotalCents, rt.DiscountRate, rt.DiscountCents, rt.TaxCents, rt.TotalCents,
				string(rt.PaymentMethod), string(rt.PaymentStatus), "", now, now))
		mock.ExpectQuery("FROM reservation_equipment").
			WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "equipment_id", "quantity", "days", "price_per_day_cents", "subtotal_cents"}).
				AddRow(rt.ID.String(), 4, 2, 3, 500, 3000))
		mock.ExpectQuery("FROM reservation_activities").
			WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "activity_id", "activity_date", "participants", "price_per_participant_cents", "subtotal_cents"}).
				AddRow(rt.ID.String(), 7, "2025-06-11", 2, 3000, 6000))

		got, err := repo.GetByID(ctx, rt.ID)
		require.NoError(t, err)
		assert.Equal(t, rt.ID, got.ID)
		assert.Equal(t, domain.ReservationStatusPending, got.Status)
		assert.Equal(t, 0.1, got.DiscountRate)
		require.Len(t, got.Equipment, 1)
		assert.Equal(t, int64(3000), got.Equipment[0].SubtotalCents)
		require.Len(t, got.Activities, 1)
		assert.Equal(t, "2025-06-11", got.Activities[0].Date)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM reservations r WHERE r.id = \$1`).
			WithArgs(rt.ID).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, rt.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs(domain.ReservationStatusConfirmed, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateStatus(context.Background(), id, domain.ReservationStatusConfirmed))

	mock.ExpectExec("UPDATE reservations SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), id, domain.ReservationStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ListActiveByAsset(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM reservations r\s+WHERE r.asset_id = \$1 AND r.status = ANY\(\$2\)`).
		WithArgs(int64(1), sqlmock.AnyArg(), "2025-06-09", "2025-06-13").
		WillReturnRows(sqlmock.NewRows(reservationRowColumns).
			AddRow(uuid.NewString(), 1, 2, "2025-06-05", "2025-06-09", 5, "CONFIRMED",
				10000, 0.0, 0, 0, 10000, "ON_SITE", "UNPAID", "", now, now))

	list, err := repo.ListActiveByAsset(context.Background(), 1, "2025-06-09", "2025-06-13")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-06-09", list[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepository_LockForBooking(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssetRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM assets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "daily_rate_cents", "status", "location"}).
			AddRow(3, "Camper C", 2000, "AVAILABLE", "Depot North"))

	a, err := repo.LockForBooking(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, a.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reservations").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			return tx.Reservations().Create(ctx, sampleReservation())
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LineFailureRollsBackHeader", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)
		rt := sampleReservation()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reservations").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO reservation_equipment").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "reservation_equipment_equipment_id_fkey"})
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			if err := tx.Reservations().Create(ctx, rt); err != nil {
				return err
			}
			return tx.Reservations().CreateEquipmentLines(ctx, []domain.ReservationEquipmentLine{
				{ReservationID: rt.ID, EquipmentID: 99, Quantity: 1, Days: 3, PricePerDayCents: 500, SubtotalCents: 1500},
			})
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFailureIsTransient", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			t.Fatal("fn must not run without a transaction")
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrTransientStore)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"no rows", sql.ErrNoRows, domain.ErrNotFound},
		{"exclusion", &pq.Error{Code: "23P01"}, domain.ErrConflict},
		{"foreign key", &pq.Error{Code: "23503"}, domain.ErrNotFound},
		{"check", &pq.Error{Code: "23514", Constraint: "reservations_dates_check"}, domain.ErrValidation},
		{"numeric out of range", &pq.Error{Code: "22003"}, domain.ErrValidation},
		{"serialization", &pq.Error{Code: "40001"}, domain.ErrTransientStore},
		{"deadlock", &pq.Error{Code: "40P01"}, domain.ErrTransientStore},
		{"unknown", errors.New("broken pipe"), domain.ErrTransientStore},
		{"classified", domain.NewConflictError("op", "taken"), domain.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.kind)
		})
	}
	assert.NoError(t, classify("op", nil))
}
