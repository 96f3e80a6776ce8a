package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle state of a reservation.
// The numeric order matches legacy numeric encodings ("0".."3").
type ReservationStatus uint8

const (
	StatusPending ReservationStatus = iota
	StatusConfirmed
	StatusCancelled
	StatusCompleted
)

var statusNames = [...]string{"pending", "confirmed", "cancelled", "completed"}

func (s ReservationStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("ReservationStatus(%d)", uint8(s))
}

// ParseReservationStatus normalizes every known representation of a status:
// any letter casing of the name ("Cancelled", "CANCELLED") or its numeric
// code ("2"). Business logic only ever sees the enum.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range statusNames {
		if v == name || v == fmt.Sprint(i) {
			return ReservationStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown reservation status %q", ErrValidation, s)
}

func (s ReservationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ReservationStatus) UnmarshalText(b []byte) error {
	v, err := ParseReservationStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// CancelReasonUser is stored when the owner cancels their own reservation.
const CancelReasonUser = "User cancelled"

// Reservation is a booked seat on a flight.
// Passenger fields are a snapshot of the user at booking time and are not
// updated when the user record changes.
type Reservation struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	FlightID           uuid.UUID
	PassengerName      string
	PassengerEmail     string
	PassengerPhone     string
	SeatNumber         string
	Class              string
	TotalPriceCents    int64
	Currency           string
	Status             ReservationStatus
	CreatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

// ReservationView is the external projection of a reservation joined with
// its flight.
type ReservationView struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	FlightID        uuid.UUID
	FlightNumber    string
	Origin          string
	Destination     string
	DepartureTime   time.Time
	ArrivalTime     time.Time
	Status          ReservationStatus
	CreatedAt       time.Time
	CancelledAt     *time.Time
	PassengerName   string
	PassengerEmail  string
	PassengerPhone  string
	SeatNumber      string
	Class           string
	TotalPriceCents int64
	Currency        string
}

// NewReservationView projects r using the flight fields of f.
func NewReservationView(r Reservation, f Flight) ReservationView {
	return ReservationView{
		ID:              r.ID,
		UserID:          r.UserID,
		FlightID:        r.FlightID,
		FlightNumber:    f.FlightNumber,
		Origin:          f.Origin,
		Destination:     f.Destination,
		DepartureTime:   f.DepartureTime,
		ArrivalTime:     f.ArrivalTime,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		CancelledAt:     r.CancelledAt,
		PassengerName:   r.PassengerName,
		PassengerEmail:  r.PassengerEmail,
		PassengerPhone:  r.PassengerPhone,
		SeatNumber:      r.SeatNumber,
		Class:           r.Class,
		TotalPriceCents: r.TotalPriceCents,
		Currency:        r.Currency,
	}
}
