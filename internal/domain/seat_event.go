package domain

import (
	"time"

	"github.com/google/uuid"
)

// SeatEventType describes what happened to a seat or flight.
type SeatEventType string

const (
	SeatBooked          SeatEventType = "seat_booked"
	SeatReleased        SeatEventType = "seat_released"
	FlightStatusChanged SeatEventType = "flight_status"
)

// SeatEvent is pushed to clients watching a flight's seat map.
type SeatEvent struct {
	Type       SeatEventType `json:"type"`
	FlightID   uuid.UUID     `json:"flightId"`
	SeatNumber string        `json:"seatNumber,omitempty"`
	Class      string        `json:"class,omitempty"`
	Status     string        `json:"status,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
