package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/repo"
	"github.com/pkordes/flight-booking/internal/seat"
)

// ReservationRequest is a booking attempt. SeatNumber is optional; when empty
// a seat is assigned.
type ReservationRequest struct {
	UserID     uuid.UUID
	FlightID   uuid.UUID
	FareID     uuid.UUID
	SeatNumber string
}

// Admission is everything the checker loaded while accepting a request.
type Admission struct {
	User   domain.User
	Flight domain.Flight
	Fare   domain.FarePrice
	Ledger *FareLedger
	// Seat is the normalized requested seat, or "" when one must be assigned.
	Seat string
}

// ReservationChecker decides whether a reservation request is admissible.
type ReservationChecker struct {
	now func() time.Time
}

// NewReservationChecker returns a checker using now as the clock.
// A nil now uses time.Now.
func NewReservationChecker(now func() time.Time) *ReservationChecker {
	if now == nil {
		now = time.Now
	}
	return &ReservationChecker{now: now}
}

// Check runs the admission rules in order and stops at the first failure:
//
//  1. the user exists and is not deleted
//  2. the flight exists
//  3. the flight is neither cancelled nor deleted
//  4. the flight departs strictly after now (UTC)
//  5. the fare exists on the flight and is active
//  6. the fare has seats left
//  7. the user has no confirmed reservation on the flight
//  8. a requested seat is not held by a confirmed reservation
//
// rs must be bound to the caller's transaction: the flight row is locked so
// the result stays valid until that transaction ends.
func (c *ReservationChecker) Check(ctx context.Context, rs repo.Repos, req ReservationRequest) (Admission, error) {
	user, err := rs.Users.GetByID(ctx, req.UserID)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && user.IsDeleted) {
		return Admission{}, domain.Reject(domain.ErrUserNotFound, "user %s not found", req.UserID)
	}
	if err != nil {
		return Admission{}, fmt.Errorf("load user: %w", err)
	}

	flight, err := rs.Flights.LockByID(ctx, req.FlightID)
	if errors.Is(err, domain.ErrFlightNotFound) {
		return Admission{}, domain.Reject(domain.ErrFlightNotFound, "flight %s not found", req.FlightID)
	}
	if err != nil {
		return Admission{}, fmt.Errorf("lock flight: %w", err)
	}

	if !flight.Bookable() {
		return Admission{}, domain.Reject(domain.ErrFlightUnavailable,
			"flight %s is not available for booking", flight.FlightNumber)
	}

	if !flight.DepartureTime.After(c.now().UTC()) {
		return Admission{}, domain.Reject(domain.ErrFlightDeparted,
			"flight %s has already departed", flight.FlightNumber)
	}

	confirmed, err := rs.Reservations.ListConfirmedByFlight(ctx, flight.ID)
	if err != nil {
		return Admission{}, fmt.Errorf("load reservations: %w", err)
	}
	ledger := NewFareLedger(flight, confirmed)

	fare, ok := ledger.Fare(req.FareID)
	if !ok {
		return Admission{}, domain.Reject(domain.ErrFareNotFound,
			"fare %s not found on flight %s", req.FareID, flight.FlightNumber)
	}

	if ledger.Available(fare) <= 0 {
		return Admission{}, domain.Reject(domain.ErrNoSeatsAvailable,
			"no %s seats available on flight %s", fare.Class, flight.FlightNumber)
	}

	if ledger.HasActive(req.UserID) {
		return Admission{}, domain.Reject(domain.ErrDuplicateReservation,
			"you already have a confirmed reservation on this flight")
	}

	requested := seat.Normalize(req.SeatNumber)
	if requested != "" && !seat.Valid(requested, fare.Class) {
		return Admission{}, fmt.Errorf("%w: seat %s is not valid for the %s fare", domain.ErrValidation, requested, fare.Class)
	}
	if requested != "" && ledger.SeatTaken(requested) {
		return Admission{}, domain.Reject(domain.ErrSeatTaken, "seat %s is already taken", requested)
	}

	return Admission{
		User:   user,
		Flight: flight,
		Fare:   fare,
		Ledger: ledger,
		Seat:   requested,
	}, nil
}
