package service

import (
	"context"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/utils"
)

type AvailabilityService interface {
	// ListAvailable returns assets free for [startDate, endDate]. With both dates
	// empty it returns every asset in AVAILABLE status (browse mode).
	ListAvailable(ctx context.Context, startDate, endDate string) ([]domain.Asset, error)
}

type DiscountService interface {
	Resolve(tier string) float64
	TierFor(customer *domain.Customer) string
	RateFor(customer *domain.Customer) float64
}

type ReservationService interface {
	Create(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error)
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) (*domain.Reservation, error)
	RecordPayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reference string) (*domain.Reservation, error)
	ExpireStalePending(ctx context.Context, today utils.Date) (int, error)
}

type CalendarService interface {
	Project(ctx context.Context, startDate, endDate string) (*domain.CalendarGrid, error)
}

type EquipmentSelection struct {
	EquipmentID int64 `json:"equipment_id"`
	Quantity    int   `json:"quantity"`
}

type ActivitySelection struct {
	ActivityID   int64  `json:"activity_id"`
	Date         string `json:"date"`
	Participants int    `json:"participants"`
}

// QuoteRequest describes a prospective booking.
// DayCount is optional; when set it must equal the inclusive length of the window.
type QuoteRequest struct {
	CustomerID int64                `json:"customer_id"`
	AssetID    int64                `json:"asset_id"`
	StartDate  string               `json:"start_date"`
	EndDate    string               `json:"end_date"`
	DayCount   int                  `json:"day_count,omitempty"`
	Equipment  []EquipmentSelection `json:"equipment"`
	Activities []ActivitySelection  `json:"activities"`
}

// CreateReservationRequest is a QuoteRequest plus the payment outcome.
// For CREDIT_CARD the gateway has already been called; only its result is passed in.
type CreateReservationRequest struct {
	QuoteRequest
	PaymentMethod    domain.PaymentMethod `json:"payment_method"`
	PaymentSucceeded bool                 `json:"payment_succeeded"`
	PaymentReference string               `json:"payment_reference"`
}

// Quote is the priced outcome of a QuoteRequest. Available is advisory: it is
// re-checked when the reservation is created.
type Quote struct {
	AssetID   int64               `json:"asset_id"`
	StartDate string              `json:"start_date"`
	EndDate   string              `json:"end_date"`
	DayCount  int                 `json:"day_count"`
	Tier      string              `json:"tier"`
	Available bool                `json:"available"`
	Cost      utils.CostBreakdown `json:"cost"`
}
