package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/repo"
	"github.com/pkordes/flight-booking/internal/seat"
)

// FlightService implements the flight catalogue: listing, details with
// derived availability, seat maps, and admin writes.
type FlightService struct {
	tx           repo.Transactor
	flights      repo.FlightRepo
	reservations repo.ReservationRepo
	fx           Effects
	now          func() time.Time
}

// NewFlightService constructs a FlightService. A nil now uses time.Now.
func NewFlightService(tx repo.Transactor, flights repo.FlightRepo, reservations repo.ReservationRepo, fx Effects, now func() time.Time) *FlightService {
	if now == nil {
		now = time.Now
	}
	return &FlightService{tx: tx, flights: flights, reservations: reservations, fx: fx, now: now}
}

// Create validates and persists a flight together with its fares.
// Returns domain.ErrValidation if input violates business rules.
func (s *FlightService) Create(ctx context.Context, f domain.Flight) (domain.Flight, error) {
	f = normalizeFlight(f)
	if err := validateFlight(f); err != nil {
		return domain.Flight{}, err
	}
	f.Status = domain.FlightScheduled

	var created domain.Flight
	err := s.tx.InTx(ctx, func(rs repo.Repos) error {
		var err error
		created, err = rs.Flights.Create(ctx, f)
		return err
	})
	if err != nil {
		return domain.Flight{}, fmt.Errorf("service.FlightService.Create: %w", err)
	}

	s.fx.audit(ctx, domain.AuditEntry{
		Event:    domain.AuditFlightCreated,
		FlightID: &created.ID,
		Payload: map[string]any{
			"flightNumber": created.FlightNumber,
			"origin":       created.Origin,
			"destination":  created.Destination,
			"fares":        len(created.Fares),
		},
	})
	return created, nil
}

// Get returns a flight with each fare's remaining seats.
// Soft-deleted flights are reported as not found.
func (s *FlightService) Get(ctx context.Context, id uuid.UUID) (domain.FlightDetail, error) {
	ledger, flight, err := s.ledger(ctx, id)
	if err != nil {
		return domain.FlightDetail{}, fmt.Errorf("service.FlightService.Get: %w", err)
	}
	return domain.FlightDetail{Flight: flight, Availability: ledger.Availability()}, nil
}

// SeatMap returns the taken seats of every fare class on the flight.
func (s *FlightService) SeatMap(ctx context.Context, id uuid.UUID) ([]domain.ClassSeats, error) {
	ledger, _, err := s.ledger(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.FlightService.SeatMap: %w", err)
	}
	return ledger.SeatMap(), nil
}

func (s *FlightService) ledger(ctx context.Context, id uuid.UUID) (*FareLedger, domain.Flight, error) {
	flight, err := s.flights.GetByID(ctx, id)
	if err == nil && flight.IsDeleted {
		err = domain.ErrFlightNotFound
	}
	if errors.Is(err, domain.ErrFlightNotFound) {
		return nil, domain.Flight{}, domain.Reject(domain.ErrFlightNotFound, "flight %s not found", id)
	}
	if err != nil {
		return nil, domain.Flight{}, err
	}
	confirmed, err := s.reservations.ListConfirmedByFlight(ctx, id)
	if err != nil {
		return nil, domain.Flight{}, err
	}
	return NewFareLedger(flight, confirmed), flight, nil
}

// List returns one page of upcoming flights ordered by departure, and the
// total number of upcoming flights.
func (s *FlightService) List(ctx context.Context, p domain.PageRequest) ([]domain.Flight, int64, error) {
	flights, total, err := s.flights.ListUpcoming(ctx, s.now().UTC(), p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.FlightService.List: %w", err)
	}
	return flights, total, nil
}

// UpdateStatus moves a flight to status and notifies seat-map watchers.
// Cancelling a flight stops new bookings; existing reservations are kept.
func (s *FlightService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error) {
	status, err := domain.ParseFlightStatus(string(status))
	if err != nil {
		return domain.Flight{}, err
	}

	var before, after domain.Flight
	err = s.tx.InTx(ctx, func(rs repo.Repos) error {
		var err error
		if before, err = rs.Flights.LockByID(ctx, id); err != nil {
			return err
		}
		after, err = rs.Flights.UpdateStatus(ctx, id, status)
		return err
	})
	if errors.Is(err, domain.ErrFlightNotFound) {
		return domain.Flight{}, domain.Reject(domain.ErrFlightNotFound, "flight %s not found", id)
	}
	if err != nil {
		return domain.Flight{}, fmt.Errorf("service.FlightService.UpdateStatus: %w", err)
	}

	s.fx.audit(ctx, domain.AuditEntry{
		Event:    domain.AuditFlightStatusChanged,
		FlightID: &after.ID,
		Payload: map[string]any{
			"flightNumber": after.FlightNumber,
			"from":         string(before.Status),
			"to":           string(after.Status),
		},
	})
	s.fx.publish(ctx, domain.SeatEvent{
		Type:     domain.FlightStatusChanged,
		FlightID: after.ID,
		Status:   string(after.Status),
	})
	return after, nil
}

func normalizeFlight(f domain.Flight) domain.Flight {
	f.FlightNumber = strings.ToUpper(strings.TrimSpace(f.FlightNumber))
	f.Origin = strings.ToUpper(strings.TrimSpace(f.Origin))
	f.Destination = strings.ToUpper(strings.TrimSpace(f.Destination))
	f.DepartureTime = f.DepartureTime.UTC()
	f.ArrivalTime = f.ArrivalTime.UTC()
	fares := make([]domain.FarePrice, len(f.Fares))
	for i, fp := range f.Fares {
		fp.Class = strings.TrimSpace(fp.Class)
		fp.Currency = strings.ToUpper(strings.TrimSpace(fp.Currency))
		fares[i] = fp
	}
	f.Fares = fares
	return f
}

// validateFlight enforces the catalogue rules for a new flight:
//   - flight number, origin and destination are required
//   - origin and destination differ
//   - arrival is after departure
//   - at least one fare, each with a class, a non-negative price, a
//     three-letter currency and a capacity the seat allocator can serve
//   - fare classes are unique, ignoring case
func validateFlight(f domain.Flight) error {
	switch {
	case f.FlightNumber == "":
		return fmt.Errorf("%w: flightNumber is required", domain.ErrValidation)
	case f.Origin == "":
		return fmt.Errorf("%w: origin is required", domain.ErrValidation)
	case f.Destination == "":
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	case f.Origin == f.Destination:
		return fmt.Errorf("%w: origin and destination must differ", domain.ErrValidation)
	case f.DepartureTime.IsZero():
		return fmt.Errorf("%w: departureTime is required", domain.ErrValidation)
	case !f.ArrivalTime.After(f.DepartureTime):
		return fmt.Errorf("%w: arrivalTime must be after departureTime", domain.ErrValidation)
	case len(f.Fares) == 0:
		return fmt.Errorf("%w: at least one fare is required", domain.ErrValidation)
	}

	for i, fp := range f.Fares {
		switch {
		case fp.Class == "":
			return fmt.Errorf("%w: fares[%d].class is required", domain.ErrValidation, i)
		case fp.PriceCents < 0:
			return fmt.Errorf("%w: fares[%d].price must not be negative", domain.ErrValidation, i)
		case len(fp.Currency) != 3:
			return fmt.Errorf("%w: fares[%d].currency must be a 3-letter code", domain.ErrValidation, i)
		case fp.Capacity < 0 || fp.Capacity > seat.PerClass:
			return fmt.Errorf("%w: fares[%d].capacity must be between 0 and %d", domain.ErrValidation, i, seat.PerClass)
		}
		for _, prev := range f.Fares[:i] {
			if domain.SameClass(prev.Class, fp.Class) {
				return fmt.Errorf("%w: duplicate fare class %q", domain.ErrValidation, fp.Class)
			}
		}
	}
	return nil
}
