package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/utils"
)

type reservationService struct {
	store     repository.Store
	discounts DiscountService
	overlap   OverlapDetector
	taxRate   float64
	timeout   time.Duration
	newID     func() uuid.UUID
}

// NewReservationService wires the booking coordinator. A zero timeout disables
// the per-call deadline.
func NewReservationService(store repository.Store, discounts DiscountService, taxRate float64, timeout time.Duration) ReservationService {
	return &reservationService{
		store:     store,
		discounts: discounts,
		taxRate:   taxRate,
		timeout:   timeout,
		newID:     uuid.New,
	}
}

// booking is a validated QuoteRequest
type booking struct {
	req        QuoteRequest
	start, end utils.Date
	days       int
}

func validateQuote(op string, req QuoteRequest) (*booking, error) {
	if req.CustomerID <= 0 {
		return nil, domain.NewValidationError(op, "customer_id is required")
	}
	if req.AssetID <= 0 {
		return nil, domain.NewValidationError(op, "asset_id is required")
	}
	start, end, err := utils.ParseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, domain.NewValidationError(op, "%v", err)
	}
	days := utils.DayCount(start, end)
	if req.DayCount != 0 && req.DayCount != days {
		return nil, domain.NewValidationError(op, "day_count %d does not match window of %d days", req.DayCount, days)
	}
	if days > domain.MaxReservationDays {
		return nil, domain.NewValidationError(op, "window of %d days exceeds the %d day limit", days, domain.MaxReservationDays)
	}

	seenEquipment := make(map[int64]bool, len(req.Equipment))
	for i, e := range req.Equipment {
		if e.EquipmentID <= 0 {
			return nil, domain.NewValidationError(op, "equipment[%d]: equipment_id is required", i)
		}
		if e.Quantity <= 0 {
			return nil, domain.NewValidationError(op, "equipment[%d]: quantity must be positive", i)
		}
		if e.Quantity > domain.MaxEquipmentQuantity {
			return nil, domain.NewValidationError(op, "equipment[%d]: quantity %d exceeds %d", i, e.Quantity, domain.MaxEquipmentQuantity)
		}
		if seenEquipment[e.EquipmentID] {
			return nil, domain.NewValidationError(op, "equipment %d selected more than once", e.EquipmentID)
		}
		seenEquipment[e.EquipmentID] = true
	}

	type activitySlot struct {
		id   int64
		date string
	}
	seenActivity := make(map[activitySlot]bool, len(req.Activities))
	for i := range req.Activities {
		a := &req.Activities[i]
		if a.ActivityID <= 0 {
			return nil, domain.NewValidationError(op, "activities[%d]: activity_id is required", i)
		}
		if a.Participants <= 0 {
			return nil, domain.NewValidationError(op, "activities[%d]: participants must be positive", i)
		}
		if a.Participants > domain.MaxParticipants {
			return nil, domain.NewValidationError(op, "activities[%d]: %d participants exceeds %d", i, a.Participants, domain.MaxParticipants)
		}
		d, err := utils.ParseDate(a.Date)
		if err != nil {
			return nil, domain.NewValidationError(op, "activities[%d]: %v", i, err)
		}
		if !utils.Contains(start, end, d) {
			return nil, domain.NewValidationError(op, "activities[%d]: date %s is outside the reservation", i, d)
		}
		a.Date = d.String()
		slot := activitySlot{a.ActivityID, a.Date}
		if seenActivity[slot] {
			return nil, domain.NewValidationError(op, "activity %d booked twice on %s", a.ActivityID, a.Date)
		}
		seenActivity[slot] = true
	}

	req.StartDate, req.EndDate, req.DayCount = start.String(), end.String(), days
	return &booking{req: req, start: start, end: end, days: days}, nil
}

func validateCreate(op string, req CreateReservationRequest) (*booking, error) {
	method, err := domain.ParsePaymentMethod(string(req.PaymentMethod))
	if err != nil {
		return nil, domain.NewValidationError(op, "%v", err)
	}
	if method == domain.PaymentMethodCreditCard {
		if !req.PaymentSucceeded {
			return nil, domain.NewValidationError(op, "credit card payment was not captured")
		}
		if req.PaymentReference == "" {
			return nil, domain.NewValidationError(op, "payment_reference is required for credit card payments")
		}
	}
	return validateQuote(op, req.QuoteRequest)
}

// price looks up the customer and catalog through repos and builds an unsaved
// reservation with its line items.
func (s *reservationService) price(ctx context.Context, repos repository.Repositories, asset *domain.Asset, b *booking) (*domain.Reservation, string, utils.CostBreakdown, error) {
	const op = "price reservation"

	customer, err := repos.Customers().GetByID(ctx, b.req.CustomerID)
	if err != nil {
		return nil, "", utils.CostBreakdown{}, domain.NewTransientError(op, err)
	}

	equipmentIDs := make([]int64, 0, len(b.req.Equipment))
	for _, e := range b.req.Equipment {
		equipmentIDs = append(equipmentIDs, e.EquipmentID)
	}
	activityIDs := make([]int64, 0, len(b.req.Activities))
	for _, a := range b.req.Activities {
		activityIDs = append(activityIDs, a.ActivityID)
	}

	equipment := map[int64]domain.Equipment{}
	if len(equipmentIDs) > 0 {
		if equipment, err = repos.Catalog().GetEquipment(ctx, equipmentIDs); err != nil {
			return nil, "", utils.CostBreakdown{}, domain.NewTransientError(op, err)
		}
	}
	activities := map[int64]domain.Activity{}
	if len(activityIDs) > 0 {
		if activities, err = repos.Catalog().GetActivities(ctx, activityIDs); err != nil {
			return nil, "", utils.CostBreakdown{}, domain.NewTransientError(op, err)
		}
	}

	tier := s.discounts.TierFor(customer)
	in := utils.CostInput{
		DailyRateCents: asset.DailyRateCents,
		Days:           b.days,
		DiscountRate:   s.discounts.Resolve(tier),
		TaxRate:        s.taxRate,
	}
	for _, sel := range b.req.Equipment {
		e, ok := equipment[sel.EquipmentID]
		if !ok {
			return nil, "", utils.CostBreakdown{}, domain.NewNotFoundError(op, "equipment %d not found", sel.EquipmentID)
		}
		in.Equipment = append(in.Equipment, utils.EquipmentCharge{PricePerDayCents: e.PricePerDayCents, Quantity: sel.Quantity, Days: b.days})
	}
	for _, sel := range b.req.Activities {
		a, ok := activities[sel.ActivityID]
		if !ok {
			return nil, "", utils.CostBreakdown{}, domain.NewNotFoundError(op, "activity %d not found", sel.ActivityID)
		}
		in.Activities = append(in.Activities, utils.ActivityCharge{PricePerParticipantCents: a.PricePerParticipantCents, Participants: sel.Participants})
	}

	cost, err := utils.CalculateReservationCost(in)
	if err != nil {
		return nil, "", utils.CostBreakdown{}, domain.NewValidationError(op, "%v", err)
	}

	r := &domain.Reservation{
		ID:            s.newID(),
		AssetID:       asset.ID,
		CustomerID:    customer.ID,
		StartDate:     b.req.StartDate,
		EndDate:       b.req.EndDate,
		DayCount:      b.days,
		SubtotalCents: cost.SubtotalCents,
		DiscountRate:  cost.DiscountRate,
		DiscountCents: cost.DiscountCents,
		TaxCents:      cost.TaxCents,
		TotalCents:    cost.TotalCents,
		Equipment:     make([]domain.ReservationEquipmentLine, 0, len(in.Equipment)),
		Activities:    make([]domain.ReservationActivityLine, 0, len(in.Activities)),
	}
	for i, sel := range b.req.Equipment {
		r.Equipment = append(r.Equipment, domain.ReservationEquipmentLine{
			ReservationID:    r.ID,
			EquipmentID:      sel.EquipmentID,
			Quantity:         sel.Quantity,
			Days:             b.days,
			PricePerDayCents: in.Equipment[i].PricePerDayCents,
			SubtotalCents:    cost.EquipmentLineTotals[i],
		})
	}
	for i, sel := range b.req.Activities {
		r.Activities = append(r.Activities, domain.ReservationActivityLine{
			ReservationID:            r.ID,
			ActivityID:               sel.ActivityID,
			Date:                     sel.Date,
			Participants:             sel.Participants,
			PricePerParticipantCents: in.Activities[i].PricePerParticipantCents,
			SubtotalCents:            cost.ActivityLineTotals[i],
		})
	}
	return r, tier, cost, nil
}

func (s *reservationService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create validates the request, then re-checks availability, prices and inserts
// the header and all line items in one transaction. Any failure leaves no trace.
func (s *reservationService) Create(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	const op = "create reservation"
	logger.EnterMethod("reservationService.Create", "asset_id", req.AssetID, "customer_id", req.CustomerID,
		"start_date", req.StartDate, "end_date", req.EndDate)

	b, err := validateCreate(op, req)
	if err != nil {
		logger.ExitMethodWithError("reservationService.Create", err, true)
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var created *domain.Reservation
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		// Serializes concurrent bookings of the same asset until commit.
		asset, err := tx.Assets().LockForBooking(ctx, b.req.AssetID)
		if err != nil {
			return err
		}
		if asset.Status == domain.AssetStatusMaintenance {
			return domain.NewConflictError(op, "asset %d is under maintenance", asset.ID)
		}

		conflict, err := s.overlap.Conflicts(ctx, tx.Reservations(), asset.ID, b.start, b.end, nil)
		if err != nil {
			return err
		}
		if conflict != nil {
			return domain.NewConflictError(op, "asset %d is booked %s to %s", asset.ID, conflict.StartDate, conflict.EndDate)
		}

		r, _, _, err := s.price(ctx, tx, asset, b)
		if err != nil {
			return err
		}
		r.PaymentMethod = req.PaymentMethod
		if req.PaymentMethod == domain.PaymentMethodCreditCard {
			r.Status = domain.ReservationStatusConfirmed
			r.PaymentStatus = domain.PaymentStatusPaid
			r.PaymentReference = req.PaymentReference
		} else {
			r.Status = domain.ReservationStatusPending
			r.PaymentStatus = domain.PaymentStatusUnpaid
		}

		if err := tx.Reservations().Create(ctx, r); err != nil {
			return err
		}
		if len(r.Equipment) > 0 {
			if err := tx.Reservations().CreateEquipmentLines(ctx, r.Equipment); err != nil {
				return err
			}
		}
		if len(r.Activities) > 0 {
			if err := tx.Reservations().CreateActivityLines(ctx, r.Activities); err != nil {
				return err
			}
		}
		created = r
		return nil
	})
	if err != nil {
		err = domain.NewTransientError(op, err)
		logger.ExitMethodWithError("reservationService.Create", err, !errors.Is(err, domain.ErrTransientStore),
			"asset_id", req.AssetID)
		return nil, err
	}

	logger.WithReservation(created.ID.String(), created.AssetID).Info("Reservation created",
		"status", created.Status, "total_cents", created.TotalCents)
	logger.ExitMethod("reservationService.Create", "reservation_id", created.ID)
	return created, nil
}

// Quote prices a request without writing anything.
func (s *reservationService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	const op = "quote reservation"
	logger.EnterMethod("reservationService.Quote", "asset_id", req.AssetID, "customer_id", req.CustomerID)

	b, err := validateQuote(op, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	asset, err := s.store.Assets().GetByID(ctx, b.req.AssetID)
	if err != nil {
		return nil, domain.NewTransientError(op, err)
	}
	_, tier, cost, err := s.price(ctx, s.store, asset, b)
	if err != nil {
		return nil, err
	}
	conflict, err := s.overlap.Conflicts(ctx, s.store.Reservations(), asset.ID, b.start, b.end, nil)
	if err != nil {
		return nil, err
	}

	logger.ExitMethod("reservationService.Quote", "total_cents", cost.TotalCents)
	return &Quote{
		AssetID:   asset.ID,
		StartDate: b.req.StartDate,
		EndDate:   b.req.EndDate,
		DayCount:  b.days,
		Tier:      tier,
		Available: conflict == nil && asset.Status == domain.AssetStatusAvailable,
		Cost:      cost,
	}, nil
}

func (s *reservationService) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r, err := s.store.Reservations().GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewTransientError("get reservation", err)
	}
	return r, nil
}

// SetStatus applies one enumerated lifecycle transition. Checkout marks the
// asset RESERVED and return marks it AVAILABLE again. An asset under
// maintenance cannot be checked out and keeps its status on return.
func (s *reservationService) SetStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) (*domain.Reservation, error) {
	const op = "set reservation status"
	logger.EnterMethod("reservationService.SetStatus", "reservation_id", id, "status", status)

	if _, err := domain.ParseReservationStatus(string(status)); err != nil {
		return nil, domain.NewValidationError(op, "%v", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *domain.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		r, err := tx.Reservations().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(status) {
			return domain.NewValidationError(op, "cannot move reservation from %s to %s", r.Status, status)
		}

		var hint domain.AssetStatus
		switch status {
		case domain.ReservationStatusInProgress:
			hint = domain.AssetStatusReserved
		case domain.ReservationStatusCompleted:
			hint = domain.AssetStatusAvailable
		}
		var inMaintenance bool
		if hint != "" {
			asset, err := tx.Assets().LockForBooking(ctx, r.AssetID)
			if err != nil {
				return err
			}
			inMaintenance = asset.Status == domain.AssetStatusMaintenance
		}
		if inMaintenance && status == domain.ReservationStatusInProgress {
			return domain.NewConflictError(op, "asset %d is under maintenance", r.AssetID)
		}

		if err := tx.Reservations().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		// A maintenance flag set by staff outlives the rental.
		if hint != "" && !inMaintenance {
			if err := tx.Assets().UpdateStatus(ctx, r.AssetID, hint); err != nil {
				return err
			}
		}

		updated, err = tx.Reservations().GetByID(ctx, id)
		return err
	})
	if err != nil {
		err = domain.NewTransientError(op, err)
		logger.ExitMethodWithError("reservationService.SetStatus", err, !errors.Is(err, domain.ErrTransientStore))
		return nil, err
	}

	logger.WithReservation(id.String(), updated.AssetID).Info("Reservation status changed", "status", status)
	return updated, nil
}

// RecordPayment applies a payment-status transition, e.g. staff taking an on-site payment.
// An empty reference keeps the stored one.
func (s *reservationService) RecordPayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reference string) (*domain.Reservation, error) {
	const op = "record payment"
	logger.EnterMethod("reservationService.RecordPayment", "reservation_id", id, "payment_status", status)

	if _, err := domain.ParsePaymentStatus(string(status)); err != nil {
		return nil, domain.NewValidationError(op, "%v", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *domain.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		r, err := tx.Reservations().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !r.PaymentStatus.CanTransitionTo(status) {
			return domain.NewValidationError(op, "cannot move payment from %s to %s", r.PaymentStatus, status)
		}
		if reference == "" {
			reference = r.PaymentReference
		}
		if err := tx.Reservations().UpdatePayment(ctx, id, status, reference); err != nil {
			return err
		}
		updated, err = tx.Reservations().GetByID(ctx, id)
		return err
	})
	if err != nil {
		err = domain.NewTransientError(op, err)
		logger.ExitMethodWithError("reservationService.RecordPayment", err, !errors.Is(err, domain.ErrTransientStore))
		return nil, err
	}

	logger.ExitMethod("reservationService.RecordPayment", "reservation_id", id)
	return updated, nil
}

// ExpireStalePending cancels pending reservations whose start date is before
// today. Each one is cancelled in its own transaction; failures are collected
// and do not stop the sweep.
func (s *reservationService) ExpireStalePending(ctx context.Context, today utils.Date) (int, error) {
	const op = "expire stale pending reservations"
	logger.EnterMethod("reservationService.ExpireStalePending", "today", today)

	stale, err := s.store.Reservations().ListStalePending(ctx, today.String())
	if err != nil {
		return 0, domain.NewTransientError(op, err)
	}

	var (
		expired int
		errs    []error
	)
	for _, candidate := range stale {
		id := candidate.ID
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			r, err := tx.Reservations().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if r.Status != domain.ReservationStatusPending {
				return errSkipped
			}
			return tx.Reservations().UpdateStatus(ctx, id, domain.ReservationStatusCancelled)
		})
		switch {
		case err == nil:
			expired++
			logger.WithReservation(id.String(), candidate.AssetID).Info("Expired stale pending reservation",
				"start_date", candidate.StartDate)
		case errors.Is(err, errSkipped):
		default:
			errs = append(errs, domain.NewTransientError(op, err))
		}
	}

	logger.ExitMethod("reservationService.ExpireStalePending", "expired", expired, "failed", len(errs))
	return expired, errors.Join(errs...)
}

// errSkipped rolls back a sweep transaction whose reservation changed state meanwhile.
var errSkipped = errors.New("reservation no longer pending")
