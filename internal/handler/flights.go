package handler

import (
	"net/http"

	"github.com/pkordes/flight-booking/internal/domain"
)

// ListFlights handles GET /flights.
// Returns upcoming flights ordered by departure, one page at a time.
func (s *Server) ListFlights(w http.ResponseWriter, r *http.Request) {
	p, err := pagination(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	flights, total, err := s.flights.List(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := make([]Flight, 0, len(flights))
	for _, f := range flights {
		data = append(data, flightToResponse(f))
	}
	writeJSON(w, http.StatusOK, FlightList{
		Data:       data,
		Pagination: paginationOf(p, total),
	})
}

// GetFlight handles GET /flights/{flightId}.
// Each active fare carries its remaining seats.
func (s *Server) GetFlight(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "flightId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	detail, err := s.flights.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flightDetailToResponse(detail))
}

// GetSeatMap handles GET /flights/{flightId}/seats.
func (s *Server) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "flightId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	classes, err := s.flights.SeatMap(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := SeatMap{FlightId: id, Classes: make([]ClassSeats, 0, len(classes))}
	for _, c := range classes {
		taken := c.Taken
		if taken == nil {
			taken = []string{}
		}
		out.Classes = append(out.Classes, ClassSeats{Class: c.Class, Taken: taken})
	}
	writeJSON(w, http.StatusOK, out)
}

// StreamFlight handles GET /flights/{flightId}/ws.
// The flight must exist before the connection is upgraded.
func (s *Server) StreamFlight(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "flightId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if _, err := s.flights.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.seats.ServeFlight(w, r, id)
}

// CreateFlight handles POST /flights (admin only).
// New fares are always active and the flight always starts as scheduled.
func (s *Server) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var body CreateFlightRequest
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	f := domain.Flight{
		FlightNumber:  body.FlightNumber,
		Origin:        body.Origin,
		Destination:   body.Destination,
		DepartureTime: body.DepartureTime,
		ArrivalTime:   body.ArrivalTime,
		Fares:         make([]domain.FarePrice, 0, len(body.Fares)),
	}
	for _, fr := range body.Fares {
		f.Fares = append(f.Fares, domain.FarePrice{
			Class:      fr.Class,
			PriceCents: fr.PriceCents,
			Currency:   fr.Currency,
			Capacity:   fr.Capacity,
			IsActive:   true,
		})
	}

	created, err := s.flights.Create(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, flightToResponse(created))
}

// UpdateFlightStatus handles PUT /flights/{flightId}/status (admin only).
func (s *Server) UpdateFlightStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "flightId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	var body UpdateFlightStatusRequest
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	status, err := domain.ParseFlightStatus(body.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.flights.UpdateStatus(r.Context(), id, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flightToResponse(updated))
}
