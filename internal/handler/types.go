package handler

import (
	"fmt"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/flight-booking/internal/domain"
)

// Request and response bodies of the JSON API. Field names follow
// openapi.yaml; amounts travel as integer cents plus a display string.

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func paginationOf(p domain.PageRequest, total int64) Pagination {
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: p.Pages(total)}
}

type Fare struct {
	Id             openapi_types.UUID `json:"id"`
	Class          string             `json:"class"`
	PriceCents     int64              `json:"priceCents"`
	Price          string             `json:"price"`
	Currency       string             `json:"currency"`
	Capacity       int                `json:"capacity"`
	IsActive       bool               `json:"isActive"`
	AvailableSeats *int               `json:"availableSeats,omitempty"`
}

type Flight struct {
	Id            openapi_types.UUID `json:"id"`
	FlightNumber  string             `json:"flightNumber"`
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	DepartureTime time.Time          `json:"departureTime"`
	ArrivalTime   time.Time          `json:"arrivalTime"`
	Status        string             `json:"status"`
	Fares         []Fare             `json:"fares"`
}

type FlightList struct {
	Data       []Flight   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type ClassSeats struct {
	Class string   `json:"class"`
	Taken []string `json:"taken"`
}

type SeatMap struct {
	FlightId openapi_types.UUID `json:"flightId"`
	Classes  []ClassSeats       `json:"classes"`
}

type CreateFareRequest struct {
	Class      string `json:"class"`
	PriceCents int64  `json:"priceCents"`
	Currency   string `json:"currency"`
	Capacity   int    `json:"capacity"`
}

type CreateFlightRequest struct {
	FlightNumber  string              `json:"flightNumber"`
	Origin        string              `json:"origin"`
	Destination   string              `json:"destination"`
	DepartureTime time.Time           `json:"departureTime"`
	ArrivalTime   time.Time           `json:"arrivalTime"`
	Fares         []CreateFareRequest `json:"fares"`
}

type UpdateFlightStatusRequest struct {
	Status string `json:"status"`
}

type CreateReservationRequest struct {
	FlightId   openapi_types.UUID `json:"flightId"`
	FareId     openapi_types.UUID `json:"fareId"`
	SeatNumber *string            `json:"seatNumber,omitempty"`
}

type Reservation struct {
	Id              openapi_types.UUID `json:"id"`
	UserId          openapi_types.UUID `json:"userId"`
	FlightId        openapi_types.UUID `json:"flightId"`
	FlightNumber    string             `json:"flightNumber"`
	Origin          string             `json:"origin"`
	Destination     string             `json:"destination"`
	DepartureTime   time.Time          `json:"departureTime"`
	ArrivalTime     time.Time          `json:"arrivalTime"`
	Status          string             `json:"status"`
	CreatedAt       time.Time          `json:"createdAt"`
	CancelledAt     *time.Time         `json:"cancelledAt,omitempty"`
	PassengerName   string             `json:"passengerName"`
	PassengerEmail  string             `json:"passengerEmail"`
	PassengerPhone  string             `json:"passengerPhone"`
	SeatNumber      string             `json:"seatNumber"`
	Class           string             `json:"class"`
	TotalPriceCents int64              `json:"totalPriceCents"`
	TotalPrice      string             `json:"totalPrice"`
	Currency        string             `json:"currency"`
}

type ReservationList struct {
	Data []Reservation `json:"data"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type AuditEntry struct {
	Id        openapi_types.UUID  `json:"id"`
	Event     string              `json:"event"`
	UserId    *openapi_types.UUID `json:"userId,omitempty"`
	FlightId  *openapi_types.UUID `json:"flightId,omitempty"`
	Payload   map[string]any      `json:"payload"`
	CreatedAt time.Time           `json:"createdAt"`
}

type AuditList struct {
	Data       []AuditEntry `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// --- Mapping helpers --------------------------------------------------------

// formatCents renders an amount in minor units as "199.00".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func fareToResponse(f domain.FarePrice) Fare {
	return Fare{
		Id:         f.ID,
		Class:      f.Class,
		PriceCents: f.PriceCents,
		Price:      formatCents(f.PriceCents),
		Currency:   f.Currency,
		Capacity:   f.Capacity,
		IsActive:   f.IsActive,
	}
}

// flightToResponse converts a domain.Flight to the API response shape.
func flightToResponse(f domain.Flight) Flight {
	fares := make([]Fare, 0, len(f.Fares))
	for _, fp := range f.Fares {
		fares = append(fares, fareToResponse(fp))
	}
	return Flight{
		Id:            f.ID,
		FlightNumber:  f.FlightNumber,
		Origin:        f.Origin,
		Destination:   f.Destination,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		Status:        string(f.Status),
		Fares:         fares,
	}
}

// flightDetailToResponse lists only the active fares, each with its
// remaining seat count.
func flightDetailToResponse(d domain.FlightDetail) Flight {
	out := flightToResponse(d.Flight)
	out.Fares = make([]Fare, 0, len(d.Availability))
	for _, a := range d.Availability {
		fare := fareToResponse(a.Fare)
		available := a.AvailableSeats
		fare.AvailableSeats = &available
		out.Fares = append(out.Fares, fare)
	}
	return out
}

func reservationToResponse(v domain.ReservationView) Reservation {
	return Reservation{
		Id:              v.ID,
		UserId:          v.UserID,
		FlightId:        v.FlightID,
		FlightNumber:    v.FlightNumber,
		Origin:          v.Origin,
		Destination:     v.Destination,
		DepartureTime:   v.DepartureTime,
		ArrivalTime:     v.ArrivalTime,
		Status:          v.Status.String(),
		CreatedAt:       v.CreatedAt,
		CancelledAt:     v.CancelledAt,
		PassengerName:   v.PassengerName,
		PassengerEmail:  v.PassengerEmail,
		PassengerPhone:  v.PassengerPhone,
		SeatNumber:      v.SeatNumber,
		Class:           v.Class,
		TotalPriceCents: v.TotalPriceCents,
		TotalPrice:      formatCents(v.TotalPriceCents),
		Currency:        v.Currency,
	}
}

func auditToResponse(e domain.AuditEntry) AuditEntry {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return AuditEntry{
		Id:        e.ID,
		Event:     string(e.Event),
		UserId:    e.UserID,
		FlightId:  e.FlightID,
		Payload:   payload,
		CreatedAt: e.CreatedAt,
	}
}
