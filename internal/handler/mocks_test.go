package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/handler"
	"github.com/pkordes/flight-booking/internal/middleware"
	"github.com/pkordes/flight-booking/internal/service"
)

var testSecret = []byte("handler-test-secret")

var errBoom = errors.New("boom")

// --- Mocks ------------------------------------------------------------------

type mockFlightService struct {
	createFn       func(ctx context.Context, f domain.Flight) (domain.Flight, error)
	getFn          func(ctx context.Context, id uuid.UUID) (domain.FlightDetail, error)
	listFn         func(ctx context.Context, p domain.PageRequest) ([]domain.Flight, int64, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error)
	seatMapFn      func(ctx context.Context, id uuid.UUID) ([]domain.ClassSeats, error)
}

var _ handler.FlightServicer = (*mockFlightService)(nil)

func (m *mockFlightService) Create(ctx context.Context, f domain.Flight) (domain.Flight, error) {
	return m.createFn(ctx, f)
}

func (m *mockFlightService) Get(ctx context.Context, id uuid.UUID) (domain.FlightDetail, error) {
	return m.getFn(ctx, id)
}

func (m *mockFlightService) List(ctx context.Context, p domain.PageRequest) ([]domain.Flight, int64, error) {
	return m.listFn(ctx, p)
}

func (m *mockFlightService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error) {
	return m.updateStatusFn(ctx, id, status)
}

func (m *mockFlightService) SeatMap(ctx context.Context, id uuid.UUID) ([]domain.ClassSeats, error) {
	return m.seatMapFn(ctx, id)
}

type mockReservationService struct {
	createFn  func(ctx context.Context, req service.ReservationRequest) (domain.ReservationView, error)
	cancelFn  func(ctx context.Context, id, userID uuid.UUID) (bool, error)
	restoreFn func(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error)
	listFn    func(ctx context.Context, userID uuid.UUID, status *domain.ReservationStatus) ([]domain.ReservationView, error)
	getFn     func(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error)
}

var _ handler.ReservationServicer = (*mockReservationService)(nil)

func (m *mockReservationService) Create(ctx context.Context, req service.ReservationRequest) (domain.ReservationView, error) {
	return m.createFn(ctx, req)
}

func (m *mockReservationService) Cancel(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	return m.cancelFn(ctx, id, userID)
}

func (m *mockReservationService) Restore(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error) {
	return m.restoreFn(ctx, id, userID)
}

func (m *mockReservationService) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.ReservationStatus) ([]domain.ReservationView, error) {
	return m.listFn(ctx, userID, status)
}

func (m *mockReservationService) Get(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error) {
	return m.getFn(ctx, id, userID)
}

type mockAuditService struct {
	listFn func(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error)
}

var _ handler.AuditServicer = (*mockAuditService)(nil)

func (m *mockAuditService) List(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	return m.listFn(ctx, userID, p)
}

// mockStreamer records the flight it was asked to stream instead of
// upgrading the connection.
type mockStreamer struct {
	flightID uuid.UUID
	called   bool
}

var _ handler.SeatStreamer = (*mockStreamer)(nil)

func (m *mockStreamer) ServeFlight(w http.ResponseWriter, _ *http.Request, flightID uuid.UUID) {
	m.called = true
	m.flightID = flightID
	w.WriteHeader(http.StatusOK)
}

// --- Harness ----------------------------------------------------------------

type deps struct {
	flights      *mockFlightService
	reservations *mockReservationService
	audit        *mockAuditService
	seats        *mockStreamer
}

func newDeps() *deps {
	return &deps{
		flights:      &mockFlightService{},
		reservations: &mockReservationService{},
		audit:        &mockAuditService{},
		seats:        &mockStreamer{},
	}
}

func (d *deps) router(maxBody int64) http.Handler {
	srv := handler.NewServer(d.flights, d.reservations, d.audit, d.seats, nil)
	return handler.NewRouter(srv, handler.RouterOptions{
		JWTSecret:    testSecret,
		CORSOrigins:  []string{"http://localhost:5173"},
		MaxBodyBytes: maxBody,
	})
}

// token signs an HS256 token for userID; admin adds the admin role.
func token(t *testing.T, userID uuid.UUID, admin bool) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	if admin {
		claims.Role = middleware.RoleAdmin
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

// do sends a request through h. body is JSON-encoded unless it is already
// a string; an empty bearer sends no Authorization header.
func do(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error
}

// --- Fixtures ---------------------------------------------------------------

var (
	departure = time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)
	arrival   = departure.Add(5 * time.Hour)
)

func sampleFlight() domain.Flight {
	id := uuid.New()
	return domain.Flight{
		ID:            id,
		FlightNumber:  "PK101",
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureTime: departure,
		ArrivalTime:   arrival,
		Status:        domain.FlightScheduled,
		Fares: []domain.FarePrice{
			{ID: uuid.New(), FlightID: id, Class: "Economy", PriceCents: 19900, Currency: "USD", Capacity: 5, IsActive: true},
		},
	}
}

func sampleView(userID uuid.UUID) domain.ReservationView {
	return domain.ReservationView{
		ID:              uuid.New(),
		UserID:          userID,
		FlightID:        uuid.New(),
		FlightNumber:    "PK101",
		Origin:          "JFK",
		Destination:     "LAX",
		DepartureTime:   departure,
		ArrivalTime:     arrival,
		Status:          domain.StatusConfirmed,
		CreatedAt:       departure.Add(-48 * time.Hour),
		PassengerName:   "Ada Lovelace",
		PassengerEmail:  "ada@example.com",
		PassengerPhone:  "+1-555-0100",
		SeatNumber:      "E1A",
		Class:           "Economy",
		TotalPriceCents: 19905,
		Currency:        "USD",
	}
}
