package service_test

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/repo"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones your test needs.

type mockUserRepo struct {
	getByID func(ctx context.Context, id uuid.UUID) (domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}

type mockFlightRepo struct {
	create       func(ctx context.Context, f domain.Flight) (domain.Flight, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Flight, error)
	lockByID     func(ctx context.Context, id uuid.UUID) (domain.Flight, error)
	listUpcoming func(ctx context.Context, now time.Time, p domain.PageRequest) ([]domain.Flight, int64, error)
	updateStatus func(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error)
}

func (m *mockFlightRepo) Create(ctx context.Context, f domain.Flight) (domain.Flight, error) {
	return m.create(ctx, f)
}
func (m *mockFlightRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Flight, error) {
	return m.getByID(ctx, id)
}
func (m *mockFlightRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.Flight, error) {
	return m.lockByID(ctx, id)
}
func (m *mockFlightRepo) ListUpcoming(ctx context.Context, now time.Time, p domain.PageRequest) ([]domain.Flight, int64, error) {
	return m.listUpcoming(ctx, now, p)
}
func (m *mockFlightRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error) {
	return m.updateStatus(ctx, id, status)
}

type mockReservationRepo struct {
	create                func(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	getForUser            func(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error)
	lockForUser           func(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error)
	listConfirmedByFlight func(ctx context.Context, flightID uuid.UUID) ([]domain.Reservation, error)
	updateStatus          func(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	listViewsByUser       func(ctx context.Context, userID uuid.UUID) ([]domain.ReservationView, error)
	getViewForUser        func(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error)
}

func (m *mockReservationRepo) Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	return m.create(ctx, r)
}
func (m *mockReservationRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error) {
	return m.getForUser(ctx, id, userID)
}
func (m *mockReservationRepo) LockForUser(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error) {
	return m.lockForUser(ctx, id, userID)
}
func (m *mockReservationRepo) ListConfirmedByFlight(ctx context.Context, flightID uuid.UUID) ([]domain.Reservation, error) {
	return m.listConfirmedByFlight(ctx, flightID)
}
func (m *mockReservationRepo) UpdateStatus(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	return m.updateStatus(ctx, r)
}
func (m *mockReservationRepo) ListViewsByUser(ctx context.Context, userID uuid.UUID) ([]domain.ReservationView, error) {
	return m.listViewsByUser(ctx, userID)
}
func (m *mockReservationRepo) GetViewForUser(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error) {
	return m.getViewForUser(ctx, id, userID)
}

type mockAuditRepo struct {
	create    func(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
	listPaged func(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error)
}

func (m *mockAuditRepo) Create(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	return m.create(ctx, e)
}
func (m *mockAuditRepo) ListPaged(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	return m.listPaged(ctx, userID, p)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.UserRepo        = (*mockUserRepo)(nil)
	_ repo.FlightRepo      = (*mockFlightRepo)(nil)
	_ repo.ReservationRepo = (*mockReservationRepo)(nil)
	_ repo.AuditRepo       = (*mockAuditRepo)(nil)
)

// fakeTx runs fn directly against repos. Rollback is not simulated; the
// store below only mutates on success paths.
type fakeTx struct {
	repos repo.Repos
	calls int
}

func (f *fakeTx) InTx(_ context.Context, fn func(repo.Repos) error) error {
	f.calls++
	return fn(f.repos)
}

var _ repo.Transactor = (*fakeTx)(nil)

// ---- in-memory booking store ------------------------------------------------

// store backs the mocks with maps and enforces the same uniqueness rules as
// the partial unique indexes on reservations.
type store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]domain.User
	flights      map[uuid.UUID]domain.Flight
	reservations []domain.Reservation
	clock        time.Time
	writes       int
}

func newStore() *store {
	return &store{
		users:   map[uuid.UUID]domain.User{},
		flights: map[uuid.UUID]domain.Flight{},
		clock:   testNow,
	}
}

func (s *store) addUser(name string) domain.User {
	u := domain.User{
		ID:       uuid.New(),
		FullName: name,
		Email:    name + "@example.com",
		Phone:    "+1-555-0100",
		IsActive: true,
	}
	s.users[u.ID] = u
	return u
}

func (s *store) addFlight(f domain.Flight) domain.Flight {
	f.ID = uuid.New()
	for i := range f.Fares {
		f.Fares[i].ID = uuid.New()
		f.Fares[i].FlightID = f.ID
	}
	s.flights[f.ID] = f
	return f
}

func (s *store) userRepo() *mockUserRepo {
	return &mockUserRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.User, error) {
			u, ok := s.users[id]
			if !ok {
				return domain.User{}, domain.ErrUserNotFound
			}
			return u, nil
		},
	}
}

func (s *store) flightRepo() *mockFlightRepo {
	get := func(_ context.Context, id uuid.UUID) (domain.Flight, error) {
		f, ok := s.flights[id]
		if !ok {
			return domain.Flight{}, domain.ErrFlightNotFound
		}
		return f, nil
	}
	return &mockFlightRepo{getByID: get, lockByID: get}
}

// conflict returns the rejection the unique indexes would raise for r.
func (s *store) conflict(r domain.Reservation) error {
	for _, other := range s.reservations {
		if other.ID == r.ID || other.Status != domain.StatusConfirmed || other.FlightID != r.FlightID {
			continue
		}
		if other.SeatNumber == r.SeatNumber {
			return domain.Reject(domain.ErrSeatTaken, "seat %s is already taken", r.SeatNumber)
		}
		if other.UserID == r.UserID {
			return domain.Reject(domain.ErrDuplicateReservation, "you already have a confirmed reservation on this flight")
		}
	}
	return nil
}

func (s *store) find(id, userID uuid.UUID) (int, bool) {
	for i, r := range s.reservations {
		if r.ID == id && r.UserID == userID {
			return i, true
		}
	}
	return 0, false
}

func (s *store) reservationRepo() *mockReservationRepo {
	get := func(_ context.Context, id, userID uuid.UUID) (domain.Reservation, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		i, ok := s.find(id, userID)
		if !ok {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return s.reservations[i], nil
	}
	return &mockReservationRepo{
		create: func(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if err := s.conflict(r); err != nil {
				return domain.Reservation{}, err
			}
			s.clock = s.clock.Add(time.Minute)
			r.ID = uuid.New()
			r.CreatedAt = s.clock
			s.reservations = append(s.reservations, r)
			s.writes++
			return r, nil
		},
		getForUser:  get,
		lockForUser: get,
		listConfirmedByFlight: func(_ context.Context, flightID uuid.UUID) ([]domain.Reservation, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			out := []domain.Reservation{}
			for _, r := range s.reservations {
				if r.FlightID == flightID && r.Status == domain.StatusConfirmed {
					out = append(out, r)
				}
			}
			return out, nil
		},
		updateStatus: func(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			i, ok := s.find(r.ID, r.UserID)
			if !ok {
				return domain.Reservation{}, domain.ErrReservationNotFound
			}
			if r.Status == domain.StatusConfirmed {
				if err := s.conflict(r); err != nil {
					return domain.Reservation{}, err
				}
			}
			cur := s.reservations[i]
			cur.Status = r.Status
			cur.CancelledAt = r.CancelledAt
			cur.CancellationReason = r.CancellationReason
			s.reservations[i] = cur
			s.writes++
			return cur, nil
		},
		listViewsByUser: func(_ context.Context, userID uuid.UUID) ([]domain.ReservationView, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			out := []domain.ReservationView{}
			for _, r := range s.reservations {
				if r.UserID == userID {
					out = append(out, domain.NewReservationView(r, s.flights[r.FlightID]))
				}
			}
			slices.SortFunc(out, func(a, b domain.ReservationView) int {
				return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
			})
			return out, nil
		},
		getViewForUser: func(_ context.Context, id, userID uuid.UUID) (domain.ReservationView, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			i, ok := s.find(id, userID)
			if !ok {
				return domain.ReservationView{}, domain.ErrReservationNotFound
			}
			r := s.reservations[i]
			return domain.NewReservationView(r, s.flights[r.FlightID]), nil
		},
	}
}

func (s *store) repos() repo.Repos {
	return repo.Repos{
		Users:        s.userRepo(),
		Flights:      s.flightRepo(),
		Reservations: s.reservationRepo(),
	}
}

// ---- side-effect doubles ----------------------------------------------------

type recordingAudit struct {
	entries []domain.AuditEntry
	err     error
}

func (a *recordingAudit) Record(_ context.Context, e domain.AuditEntry) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *recordingAudit) events() []domain.AuditEvent {
	out := make([]domain.AuditEvent, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Event)
	}
	return out
}

type recordingNotifier struct {
	events []domain.SeatEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, ev domain.SeatEvent) error {
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

// mapCache is a ReservationCache that counts invalidations.
type mapCache struct {
	lists         map[uuid.UUID][]domain.ReservationView
	versions      map[uuid.UUID]uint64
	invalidations int
	err           error
}

func newMapCache() *mapCache {
	return &mapCache{
		lists:    map[uuid.UUID][]domain.ReservationView{},
		versions: map[uuid.UUID]uint64{},
	}
}

func (c *mapCache) Get(userID uuid.UUID) ([]domain.ReservationView, bool) {
	v, ok := c.lists[userID]
	return v, ok
}

func (c *mapCache) Version(userID uuid.UUID) uint64 {
	return c.versions[userID]
}

func (c *mapCache) Set(userID uuid.UUID, version uint64, views []domain.ReservationView) bool {
	if c.versions[userID] != version {
		return false
	}
	c.lists[userID] = views
	return true
}

func (c *mapCache) Invalidate(userID uuid.UUID) error {
	c.invalidations++
	c.versions[userID]++
	delete(c.lists, userID)
	return c.err
}

var errBoom = errors.New("boom")

// ---- fixtures ---------------------------------------------------------------

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// tomorrowFlight departs a day after testNow with Economy (5 seats) and
// Business (2 seats) fares.
func tomorrowFlight() domain.Flight {
	dep := testNow.Add(24 * time.Hour)
	return domain.Flight{
		FlightNumber:  "PK101",
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(6 * time.Hour),
		Status:        domain.FlightScheduled,
		Fares: []domain.FarePrice{
			{Class: "Economy", PriceCents: 19900, Currency: "USD", Capacity: 5, IsActive: true},
			{Class: "Business", PriceCents: 89900, Currency: "USD", Capacity: 2, IsActive: true},
		},
	}
}

func economy(f domain.Flight) uuid.UUID { return f.Fares[0].ID }
func business(f domain.Flight) uuid.UUID { return f.Fares[1].ID }
