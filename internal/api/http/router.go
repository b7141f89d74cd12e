package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"vehicle-rental-backend/internal/security"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns 503 while the store is unreachable.
func HealthCheck(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", DBConnected: true})
	}
}

// NewRouter creates and configures the HTTP router with all API routes.
// Route names key the security levels in config.EndpointSecurityConfig.
func NewRouter(h *ReservationHandler, store Pinger, tm security.TokenManager) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(Logging)
	r.Use(ErrorRecovery)
	r.Use(NewAuthMiddleware(tm).Middleware)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", HealthCheck(store)).Methods(http.MethodGet).Name("Health")
	api.HandleFunc("/assets/available", h.ListAvailable).Methods(http.MethodGet).Name("ListAvailable")
	api.HandleFunc("/quotes", h.Quote).Methods(http.MethodPost).Name("QuoteReservation")

	api.HandleFunc("/reservations", h.Create).Methods(http.MethodPost).Name("CreateReservation")
	api.HandleFunc("/reservations/{id}", h.Get).Methods(http.MethodGet).Name("GetReservation")
	api.HandleFunc("/reservations/{id}/status", h.SetStatus).Methods(http.MethodPatch).Name("SetReservationStatus")
	api.HandleFunc("/reservations/{id}/payment", h.RecordPayment).Methods(http.MethodPost).Name("RecordPayment")

	api.HandleFunc("/calendar", h.Calendar).Methods(http.MethodGet).Name("GetCalendar")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "route not found")
	})
	return r
}
