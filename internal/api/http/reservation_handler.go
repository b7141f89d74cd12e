package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/security"
	"vehicle-rental-backend/internal/service"
	"vehicle-rental-backend/internal/utils"
)

// ReservationHandler serves the booking, quote, availability and calendar endpoints
type ReservationHandler struct {
	availability service.AvailabilityService
	reservations service.ReservationService
	calendar     service.CalendarService
	now          func() time.Time
}

func NewReservationHandler(
	availability service.AvailabilityService,
	reservations service.ReservationService,
	calendar service.CalendarService,
) *ReservationHandler {
	return &ReservationHandler{
		availability: availability,
		reservations: reservations,
		calendar:     calendar,
		now:          time.Now,
	}
}

type activityView struct {
	domain.ReservationActivityLine
	Timing domain.ActivityTiming `json:"timing"`
}

// reservationView adds read-time activity timing to a stored reservation
type reservationView struct {
	*domain.Reservation
	Activities []activityView `json:"activities"`
}

func (h *ReservationHandler) view(r *domain.Reservation) reservationView {
	today := utils.FromTime(h.now().UTC())
	v := reservationView{Reservation: r, Activities: make([]activityView, 0, len(r.Activities))}
	for _, a := range r.Activities {
		timing, _ := a.Timing(today)
		v.Activities = append(v.Activities, activityView{ReservationActivityLine: a, Timing: timing})
	}
	return v
}

// ListAvailable handles GET /assets/available?start_date=&end_date=
func (h *ReservationHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assets, err := h.availability.ListAvailable(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

// Quote handles POST /quotes
func (h *ReservationHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req service.QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body: "+err.Error())
		return
	}
	claims, _ := ClaimsFromContext(r.Context())
	req.CustomerID = customerFor(claims, req.CustomerID)

	quote, err := h.reservations.Quote(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Create handles POST /reservations. Customers always book for themselves;
// staff may book on behalf of any customer.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body: "+err.Error())
		return
	}
	claims, _ := ClaimsFromContext(r.Context())
	req.CustomerID = customerFor(claims, req.CustomerID)

	created, err := h.reservations.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/reservations/"+created.ID.String())
	writeJSON(w, http.StatusCreated, h.view(created))
}

// Get handles GET /reservations/{id}. Customers only see their own reservations.
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	res, err := h.reservations.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if claims, _ := ClaimsFromContext(r.Context()); claims != nil && !claims.IsStaff() && claims.UserID != res.CustomerID {
		WriteError(w, http.StatusNotFound, ErrNotFound, "reservation not found")
		return
	}
	writeJSON(w, http.StatusOK, h.view(res))
}

type statusRequest struct {
	Status domain.ReservationStatus `json:"status"`
}

// SetStatus handles PATCH /reservations/{id}/status
func (h *ReservationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := h.reservations.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(res))
}

type paymentRequest struct {
	Status    domain.PaymentStatus `json:"status"`
	Reference string               `json:"reference"`
}

// RecordPayment handles POST /reservations/{id}/payment
func (h *ReservationHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := h.reservations.RecordPayment(r.Context(), id, req.Status, req.Reference)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(res))
}

// Calendar handles GET /calendar?start_date=&end_date=
func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	grid, err := h.calendar.Project(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func reservationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrValidation, "invalid reservation id")
		return uuid.Nil, false
	}
	return id, true
}

func customerFor(claims *security.UserClaims, requested int64) int64 {
	if claims == nil || (claims.IsStaff() && requested != 0) {
		return requested
	}
	return claims.UserID
}
