// Package handler implements the HTTP handlers for the flight booking API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, flights.go, etc.) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/middleware"
	"github.com/pkordes/flight-booking/internal/service"
)

// FlightServicer defines the catalogue operations the flight handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type FlightServicer interface {
	Create(ctx context.Context, f domain.Flight) (domain.Flight, error)
	Get(ctx context.Context, id uuid.UUID) (domain.FlightDetail, error)
	List(ctx context.Context, p domain.PageRequest) ([]domain.Flight, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error)
	SeatMap(ctx context.Context, id uuid.UUID) ([]domain.ClassSeats, error)
}

// ReservationServicer defines the reservation lifecycle operations.
// Every call is scoped to the authenticated user.
type ReservationServicer interface {
	Create(ctx context.Context, req service.ReservationRequest) (domain.ReservationView, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (bool, error)
	Restore(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *domain.ReservationStatus) ([]domain.ReservationView, error)
	Get(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error)
}

// AuditServicer lists audit entries for admins.
type AuditServicer interface {
	List(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error)
}

// SeatStreamer upgrades a request to a live seat-event stream for one flight.
type SeatStreamer interface {
	ServeFlight(w http.ResponseWriter, r *http.Request, flightID uuid.UUID)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	flights      FlightServicer
	reservations ReservationServicer
	audit        AuditServicer
	seats        SeatStreamer
	log          *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil log discards handler logs.
func NewServer(flights FlightServicer, reservations ReservationServicer, audit AuditServicer, seats SeatStreamer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{flights: flights, reservations: reservations, audit: audit, seats: seats, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil)
}

// RouterOptions configure the middleware stack of NewRouter.
type RouterOptions struct {
	Logger       *slog.Logger
	JWTSecret    []byte
	CORSOrigins  []string
	MaxBodyBytes int64
}

// NewRouter mounts every route of s on a chi router.
//
// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer →
// CORS → body limit. RequestID generates a unique trace ID per request.
// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
// SlogLogger writes one structured JSON log line per request.
// Recoverer catches panics and returns HTTP 500 instead of crashing.
//
// Flight reads are public; reservations need a bearer token; flight writes
// and the audit log need the admin role.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = s.log
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	authenticate := middleware.NewAuthenticator(opts.JWTSecret)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(opts.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBody))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/flights", func(r chi.Router) {
		r.Get("/", s.ListFlights)
		r.Get("/{flightId}", s.GetFlight)
		r.Get("/{flightId}/seats", s.GetSeatMap)
		r.Get("/{flightId}/ws", s.StreamFlight)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, middleware.RequireAdmin)
			r.Post("/", s.CreateFlight)
			r.Put("/{flightId}/status", s.UpdateFlightStatus)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", s.CreateReservation)
			r.Get("/", s.ListReservations)
			r.Get("/{reservationId}", s.GetReservation)
			r.Post("/{reservationId}/cancel", s.CancelReservation)
			r.Post("/{reservationId}/restore", s.RestoreReservation)
		})

		r.With(middleware.RequireAdmin).Get("/audit-logs", s.ListAuditLogs)
	})

	return r
}
