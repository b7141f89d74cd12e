package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository/memory"
	"vehicle-rental-backend/internal/security"
	"vehicle-rental-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	router   http.Handler
	tokens   security.TokenManager
	store    *memory.Store
	asset    domain.Asset
	ada, bob domain.Customer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	ts := &testServer{
		store:  store,
		tokens: security.NewTokenManager(testSecret, time.Hour),
		asset:  store.AddAsset(domain.Asset{Name: "Camper A", DailyRateCents: 2000}),
		ada:    store.AddCustomer(domain.Customer{Name: "Ada"}),
		bob:    store.AddCustomer(domain.Customer{Name: "Bob"}),
	}
	discounts := service.NewDiscountService(nil)
	h := NewReservationHandler(
		service.NewAvailabilityService(store.Assets(), store.Reservations()),
		service.NewReservationService(store, discounts, 0, time.Second),
		service.NewCalendarService(store.Assets(), store.Reservations()),
	)
	h.now = func() time.Time { return time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC) }
	ts.router = NewRouter(h, store, ts.tokens)
	return ts
}

func (ts *testServer) token(t *testing.T, id int64, role string) string {
	t.Helper()
	tok, err := ts.tokens.GenerateAccessToken(id, "", []string{role})
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRouter_ReservationFlow(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.token(t, ts.ada.ID, security.RoleCustomer)
	bob := ts.token(t, ts.bob.ID, security.RoleCustomer)
	staff := ts.token(t, 900, security.RoleStaff)

	body := map[string]any{
		"customer_id":    ts.bob.ID, // ignored for customers
		"asset_id":       ts.asset.ID,
		"start_date":     "2025-06-10",
		"end_date":       "2025-06-12",
		"payment_method": "ON_SITE",
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/reservations", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/reservations", ada, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Reservation](t, rec)
	assert.Equal(t, ts.ada.ID, created.CustomerID)
	assert.Equal(t, domain.ReservationStatusPending, created.Status)
	assert.Equal(t, "/api/v1/reservations/"+created.ID.String(), rec.Header().Get("Location"))

	rec = ts.do(t, http.MethodPost, "/api/v1/reservations", bob, map[string]any{
		"asset_id": ts.asset.ID, "start_date": "2025-06-13", "end_date": "2025-06-14", "payment_method": "ON_SITE",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrConflict, decode[ErrorResponse](t, rec).Error)

	path := "/api/v1/reservations/" + created.ID.String()
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, path, ada, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, bob, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, path, staff, nil).Code)

	rec = ts.do(t, http.MethodPatch, path+"/status", ada, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, path+"/status", staff, map[string]string{"status": "IN_PROGRESS"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "pending cannot be checked out")

	rec = ts.do(t, http.MethodPatch, path+"/status", staff, map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ReservationStatusConfirmed, decode[domain.Reservation](t, rec).Status)

	rec = ts.do(t, http.MethodPost, path+"/payment", staff, map[string]string{"status": "PAID", "reference": "till-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaymentStatusPaid, decode[domain.Reservation](t, rec).PaymentStatus)

	rec = ts.do(t, http.MethodGet, "/api/v1/calendar?start_date=2025-06-09&end_date=2025-06-13", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	grid := decode[domain.CalendarGrid](t, rec)
	cell, ok := grid.Cell(ts.asset.ID, "2025-06-13")
	require.True(t, ok)
	assert.Equal(t, domain.CellBuffer, cell.Kind)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/v1/calendar?start_date=2025-06-09&end_date=2025-06-13", ada, nil).Code)
}

func TestRouter_ActivityTiming(t *testing.T) {
	ts := newTestServer(t)
	tour := ts.store.AddActivity(domain.Activity{Name: "Tour", PricePerParticipantCents: 1000})
	ada := ts.token(t, ts.ada.ID, security.RoleCustomer)

	rec := ts.do(t, http.MethodPost, "/api/v1/reservations", ada, map[string]any{
		"asset_id": ts.asset.ID, "start_date": "2025-06-10", "end_date": "2025-06-12", "payment_method": "ON_SITE",
		"activities": []map[string]any{
			{"activity_id": tour.ID, "date": "2025-06-10", "participants": 1},
			{"activity_id": tour.ID, "date": "2025-06-11", "participants": 1},
			{"activity_id": tour.ID, "date": "2025-06-12", "participants": 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		Activities []struct {
			Date   string                `json:"date"`
			Timing domain.ActivityTiming `json:"timing"`
		} `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Activities, 3)
	assert.Equal(t, domain.ActivityPast, got.Activities[0].Timing)
	assert.Equal(t, domain.ActivityToday, got.Activities[1].Timing)
	assert.Equal(t, domain.ActivityUpcoming, got.Activities[2].Timing)
}

func TestRouter_PublicAndBadInput(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.token(t, ts.ada.ID, security.RoleCustomer)

	rec := ts.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = ts.do(t, http.MethodGet, "/api/v1/assets/available?start_date=2025-06-10&end_date=2025-06-12", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assets := decode[map[string][]domain.Asset](t, rec)["assets"]
	assert.Len(t, assets, 1)

	rec = ts.do(t, http.MethodGet, "/api/v1/assets/available?start_date=2025-06-10", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrValidation, decode[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodGet, "/api/v1/reservations/not-a-uuid", ada, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/reservations", ada, map[string]any{"unexpected": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrBadRequest, decode[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/v1/quotes", ada, map[string]any{
		"asset_id": ts.asset.ID, "start_date": "2025-06-10", "end_date": "2025-06-11",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decode[service.Quote](t, rec)
	assert.True(t, quote.Available)
	assert.Equal(t, int64(4000), quote.Cost.TotalCents)

	rec = ts.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type downStore struct{}

func (downStore) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestHealthCheck_Degraded(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheck(downStore{})(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewValidationError("op", "bad"), http.StatusBadRequest, ErrValidation},
		{domain.NewNotFoundError("op", "gone"), http.StatusNotFound, ErrNotFound},
		{domain.NewConflictError("op", "taken"), http.StatusConflict, ErrConflict},
		{domain.NewTransientError("op", errors.New("reset")), http.StatusServiceUnavailable, ErrTransient},
		{errors.New("boom"), http.StatusInternalServerError, ErrInternalError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Error)
	}
}

func TestErrorRecovery(t *testing.T) {
	h := ErrorRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected nil asset")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrInternalError, decode[ErrorResponse](t, rec).Error)
}
