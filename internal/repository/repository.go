package repository

import (
	"context"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
)

type AssetRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Asset, error)
	// LockForBooking loads the asset and holds an exclusive lock on it until the
	// surrounding transaction ends. Outside a transaction it behaves like GetByID.
	LockForBooking(ctx context.Context, id int64) (*domain.Asset, error)
	List(ctx context.Context) ([]domain.Asset, error)
	ListByStatus(ctx context.Context, status domain.AssetStatus) ([]domain.Asset, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	CreateEquipmentLines(ctx context.Context, lines []domain.ReservationEquipmentLine) error
	CreateActivityLines(ctx context.Context, lines []domain.ReservationActivityLine) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error
	UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reference string) error

	// ListActiveByAsset returns reservations on the asset whose status is active and
	// whose [start_date, end_date] intersects [from, to]. Dates are yyyy-mm-dd.
	ListActiveByAsset(ctx context.Context, assetID int64, from, to string) ([]domain.Reservation, error)
	// ListActiveInWindow is the bulk form of ListActiveByAsset over all assets.
	ListActiveInWindow(ctx context.Context, from, to string) ([]domain.Reservation, error)
	// ListForCalendar returns active and completed reservations intersecting [from, to],
	// with customer name, asset name and line items populated.
	ListForCalendar(ctx context.Context, from, to string) ([]domain.Reservation, error)
	// ListStalePending returns pending reservations that started before the given date.
	ListStalePending(ctx context.Context, before string) ([]domain.Reservation, error)
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

type CatalogRepository interface {
	GetEquipment(ctx context.Context, ids []int64) (map[int64]domain.Equipment, error)
	GetActivities(ctx context.Context, ids []int64) (map[int64]domain.Activity, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories interface {
	Assets() AssetRepository
	Reservations() ReservationRepository
	Customers() CustomerRepository
	Catalog() CatalogRepository
}

// Store is the unit of work over the durable reservation store.
// WithinTx commits when fn returns nil and rolls back otherwise; if ctx is
// cancelled before commit the transaction is rolled back.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
}
