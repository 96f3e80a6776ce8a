// Package domain contains the core data types for the flight booking backend.
// It depends only on uuid and is imported by every other internal package
// (repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FlightStatus is the operational state of a flight.
type FlightStatus string

const (
	FlightScheduled FlightStatus = "scheduled"
	FlightBoarding  FlightStatus = "boarding"
	FlightDeparted  FlightStatus = "departed"
	FlightArrived   FlightStatus = "arrived"
	FlightCancelled FlightStatus = "cancelled"
)

// ParseFlightStatus accepts any letter casing of a known status.
func ParseFlightStatus(s string) (FlightStatus, error) {
	st := FlightStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case FlightScheduled, FlightBoarding, FlightDeparted, FlightArrived, FlightCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown flight status %q", ErrValidation, s)
}

// Flight is a single scheduled departure with its priced fare classes.
// IsDeleted is a soft-delete flag; deleted flights are never bookable.
type Flight struct {
	ID            uuid.UUID
	FlightNumber  string
	Origin        string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Status        FlightStatus
	IsDeleted     bool
	Fares         []FarePrice
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Bookable reports whether the flight accepts new reservations regardless of time.
func (f Flight) Bookable() bool {
	return !f.IsDeleted && f.Status != FlightCancelled
}

// FarePrice is one priced class on a flight.
// Class is an open label ("Economy", "Business", "First", ...).
// Capacity is the number of seats sold in this class; the remaining count is
// derived from confirmed reservations, never stored.
type FarePrice struct {
	ID         uuid.UUID
	FlightID   uuid.UUID
	Class      string
	PriceCents int64
	Currency   string
	Capacity   int
	IsActive   bool
}

// FareAvailability is a fare together with its derived remaining seats.
type FareAvailability struct {
	Fare           FarePrice
	AvailableSeats int
}

// FlightDetail is a flight plus per-fare availability.
type FlightDetail struct {
	Flight       Flight
	Availability []FareAvailability
}

// ClassSeats lists the seats already held in one fare class.
type ClassSeats struct {
	Class string
	Taken []string
}

// SameClass compares fare class labels case-insensitively.
func SameClass(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
