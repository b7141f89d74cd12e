package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/utils"
)

// BufferDays is the turnaround gap required before and after every reservation.
// The postgres exclusion constraint encodes the same value.
const BufferDays = 1

// Upper bounds on a single booking request. Anything larger is rejected as invalid input.
const (
	MaxReservationDays   = 366
	MaxEquipmentQuantity = 100
	MaxParticipants      = 500
)

type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "PENDING"
	ReservationStatusConfirmed  ReservationStatus = "CONFIRMED"
	ReservationStatusInProgress ReservationStatus = "IN_PROGRESS"
	ReservationStatusCompleted  ReservationStatus = "COMPLETED"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
)

// ActiveReservationStatuses is the single set of statuses that block an asset.
// Overlap checks, availability listing and the storage constraint all use it.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusInProgress,
}

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:    {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed:  {ReservationStatusInProgress, ReservationStatusCancelled},
	ReservationStatusInProgress: {ReservationStatusCompleted},
	ReservationStatusCompleted:  nil,
	ReservationStatusCancelled:  nil,
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	st := ReservationStatus(s)
	if _, ok := reservationTransitions[st]; !ok {
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
	return st, nil
}

// IsActive reports whether a reservation in this status blocks its asset.
func (s ReservationStatus) IsActive() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusInProgress:
		return true
	case ReservationStatusCompleted, ReservationStatusCancelled:
		return false
	}
	return false
}

// OccupiesCalendar reports whether the reservation is drawn on the staff calendar.
func (s ReservationStatus) OccupiesCalendar() bool {
	return s.IsActive() || s == ReservationStatusCompleted
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodOnSite     PaymentMethod = "ON_SITE"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentMethodCreditCard, PaymentMethodOnSite:
		return m, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusUnpaid:   {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusFailed:   {PaymentStatusPaid},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusRefunded: nil,
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(s)
	if _, ok := paymentTransitions[st]; !ok {
		return "", fmt.Errorf("unknown payment status %q", s)
	}
	return st, nil
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation is the durable booking header. Dates are inclusive yyyy-mm-dd strings.
type Reservation struct {
	ID            uuid.UUID         `json:"id"`
	AssetID       int64             `json:"asset_id"`
	CustomerID    int64             `json:"customer_id"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
	DayCount      int               `json:"day_count"`
	Status        ReservationStatus `json:"status"`
	SubtotalCents int64             `json:"subtotal_cents"`
	DiscountRate  float64           `json:"discount_rate"`
	DiscountCents int64             `json:"discount_cents"`
	TaxCents      int64             `json:"tax_cents"`
	TotalCents    int64             `json:"total_cents"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	// Opaque reference returned by the payment gateway, if any.
	PaymentReference string                     `json:"payment_reference,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
	Equipment        []ReservationEquipmentLine `json:"equipment"`
	Activities       []ReservationActivityLine  `json:"activities"`

	// Denormalized for calendar display; empty unless loaded by the calendar query.
	CustomerName string `json:"customer_name,omitempty"`
	AssetName    string `json:"asset_name,omitempty"`
}

// Window parses the reservation's inclusive date range.
func (r *Reservation) Window() (utils.Date, utils.Date, error) {
	return utils.ParseRange(r.StartDate, r.EndDate)
}

// BufferedWindow widens the reservation by bufferDays on both sides.
func (r *Reservation) BufferedWindow(bufferDays int) (utils.Date, utils.Date, error) {
	start, end, err := r.Window()
	if err != nil {
		return utils.Date{}, utils.Date{}, err
	}
	return utils.AddDays(start, -bufferDays), utils.AddDays(end, bufferDays), nil
}

// ReservationEquipmentLine is owned by its reservation and priced at booking time
type ReservationEquipmentLine struct {
	ReservationID    uuid.UUID `json:"reservation_id"`
	EquipmentID      int64     `json:"equipment_id"`
	Quantity         int       `json:"quantity"`
	Days             int       `json:"days"`
	PricePerDayCents int64     `json:"price_per_day_cents"`
	SubtotalCents    int64     `json:"subtotal_cents"`
}

// ReservationActivityLine is owned by its reservation and priced at booking time
type ReservationActivityLine struct {
	ReservationID            uuid.UUID `json:"reservation_id"`
	ActivityID               int64     `json:"activity_id"`
	Date                     string    `json:"date"`
	Participants             int       `json:"participants"`
	PricePerParticipantCents int64     `json:"price_per_participant_cents"`
	SubtotalCents            int64     `json:"subtotal_cents"`
}

type ActivityTiming string

const (
	ActivityUpcoming ActivityTiming = "UPCOMING"
	ActivityToday    ActivityTiming = "TODAY"
	ActivityPast     ActivityTiming = "PAST"
)

// Timing classifies the activity relative to today. It is computed on read and never stored.
func (l ReservationActivityLine) Timing(today utils.Date) (ActivityTiming, error) {
	d, err := utils.ParseDate(l.Date)
	if err != nil {
		return "", err
	}
	switch d.Compare(today) {
	case 1:
		return ActivityUpcoming, nil
	case 0:
		return ActivityToday, nil
	}
	return ActivityPast, nil
}
