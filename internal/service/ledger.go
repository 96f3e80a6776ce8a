package service

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/seat"
)

// FareLedger is a point-in-time view of a flight's seat inventory derived
// from its fare rows and the confirmed reservations on it. Nothing in it is
// persisted: available seats are capacity minus confirmed bookings in the
// class, so cancelling frees a seat without any counter to maintain.
type FareLedger struct {
	flight  domain.Flight
	taken   map[string]struct{}
	byClass map[string][]string
	users   map[uuid.UUID]struct{}
}

// NewFareLedger builds the view. Reservations that are not confirmed are
// ignored, so callers may pass an unfiltered list.
func NewFareLedger(f domain.Flight, reservations []domain.Reservation) *FareLedger {
	l := &FareLedger{
		flight:  f,
		taken:   make(map[string]struct{}, len(reservations)),
		byClass: make(map[string][]string),
		users:   make(map[uuid.UUID]struct{}, len(reservations)),
	}
	for _, r := range reservations {
		if r.Status != domain.StatusConfirmed {
			continue
		}
		s := seat.Normalize(r.SeatNumber)
		l.taken[s] = struct{}{}
		k := classKey(r.Class)
		l.byClass[k] = append(l.byClass[k], s)
		l.users[r.UserID] = struct{}{}
	}
	return l
}

func classKey(class string) string {
	return strings.ToLower(strings.TrimSpace(class))
}

// Fare returns the active fare with the given id on this flight.
func (l *FareLedger) Fare(id uuid.UUID) (domain.FarePrice, bool) {
	for _, fp := range l.flight.Fares {
		if fp.ID == id && fp.IsActive {
			return fp, true
		}
	}
	return domain.FarePrice{}, false
}

// Available returns the seats left in fp's class, never below zero.
func (l *FareLedger) Available(fp domain.FarePrice) int {
	return max(0, fp.Capacity-len(l.byClass[classKey(fp.Class)]))
}

// Taken is the set of every confirmed seat on the flight. The map is shared;
// callers must not modify it.
func (l *FareLedger) Taken() map[string]struct{} {
	return l.taken
}

// SeatTaken reports whether a confirmed reservation holds seatNumber.
func (l *FareLedger) SeatTaken(seatNumber string) bool {
	_, ok := l.taken[seat.Normalize(seatNumber)]
	return ok
}

// HasActive reports whether userID holds a confirmed reservation on the flight.
func (l *FareLedger) HasActive(userID uuid.UUID) bool {
	_, ok := l.users[userID]
	return ok
}

// Availability lists every fare of the flight with its remaining seats,
// in the flight's fare order.
func (l *FareLedger) Availability() []domain.FareAvailability {
	out := make([]domain.FareAvailability, 0, len(l.flight.Fares))
	for _, fp := range l.flight.Fares {
		out = append(out, domain.FareAvailability{Fare: fp, AvailableSeats: l.Available(fp)})
	}
	return out
}

// SeatMap lists the taken seats of each fare class, sorted.
func (l *FareLedger) SeatMap() []domain.ClassSeats {
	out := make([]domain.ClassSeats, 0, len(l.flight.Fares))
	for _, fp := range l.flight.Fares {
		taken := slices.Clone(l.byClass[classKey(fp.Class)])
		if taken == nil {
			taken = []string{}
		}
		slices.Sort(taken)
		out = append(out, domain.ClassSeats{Class: fp.Class, Taken: taken})
	}
	return out
}
