package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"vehicle-rental-backend/internal/domain"
)

// MockAssetRepo
type MockAssetRepo struct {
	mock.Mock
}

func (m *MockAssetRepo) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}
func (m *MockAssetRepo) LockForBooking(ctx context.Context, id int64) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}
func (m *MockAssetRepo) List(ctx context.Context) ([]domain.Asset, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Asset), args.Error(1)
}
func (m *MockAssetRepo) ListByStatus(ctx context.Context, status domain.AssetStatus) ([]domain.Asset, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Asset), args.Error(1)
}
func (m *MockAssetRepo) UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) CreateEquipmentLines(ctx context.Context, lines []domain.ReservationEquipmentLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}
func (m *MockReservationRepo) CreateActivityLines(ctx context.Context, lines []domain.ReservationActivityLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockReservationRepo) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reference string) error {
	args := m.Called(ctx, id, status, reference)
	return args.Error(0)
}
func (m *MockReservationRepo) ListActiveByAsset(ctx context.Context, assetID int64, from, to string) ([]domain.Reservation, error) {
	args := m.Called(ctx, assetID, from, to)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListActiveInWindow(ctx context.Context, from, to string) ([]domain.Reservation, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListForCalendar(ctx context.Context, from, to string) ([]domain.Reservation, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListStalePending(ctx context.Context, before string) ([]domain.Reservation, error) {
	args := m.Called(ctx, before)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
