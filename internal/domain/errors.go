package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, arrival before departure).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a request is well-formed but violates a booking
// rule or a storage uniqueness constraint.
// Handlers should map this to HTTP 409 Conflict.
var ErrConflict = errors.New("conflict")

// Failure is a distinguishable reason a booking operation was rejected.
// Code is stable and safe to expose to clients; Class is ErrNotFound or
// ErrConflict so callers can branch on the category with errors.Is.
type Failure struct {
	Code  string
	Class error
}

func (f *Failure) Error() string { return f.Code }

func (f *Failure) Unwrap() error { return f.Class }

// Reasons a reservation request can be refused.
var (
	ErrUserNotFound        = &Failure{Code: "user_not_found", Class: ErrNotFound}
	ErrFlightNotFound      = &Failure{Code: "flight_not_found", Class: ErrNotFound}
	ErrFareNotFound        = &Failure{Code: "fare_not_found", Class: ErrNotFound}
	ErrReservationNotFound = &Failure{Code: "reservation_not_found", Class: ErrNotFound}

	ErrFlightUnavailable    = &Failure{Code: "flight_unavailable", Class: ErrConflict}
	ErrFlightDeparted       = &Failure{Code: "flight_departed", Class: ErrConflict}
	ErrNoSeatsAvailable     = &Failure{Code: "no_seats_available", Class: ErrConflict}
	ErrDuplicateReservation = &Failure{Code: "duplicate_reservation", Class: ErrConflict}
	ErrSeatTaken            = &Failure{Code: "seat_taken", Class: ErrConflict}
	ErrNotCancelled         = &Failure{Code: "not_cancelled", Class: ErrConflict}
)

// Rejection pairs a Failure with a message meant for the end user,
// e.g. "seat E1A is already taken".
type Rejection struct {
	Failure *Failure
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.Failure }

// Reject builds a Rejection for f with a formatted message.
// errors.Is(err, f) and errors.Is(err, f.Class) both hold for the result.
func Reject(f *Failure, format string, args ...any) error {
	return &Rejection{Failure: f, Message: fmt.Sprintf(format, args...)}
}
