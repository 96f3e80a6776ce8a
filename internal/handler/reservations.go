package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/middleware"
	"github.com/pkordes/flight-booking/internal/service"
)

// principal returns the authenticated caller. The auth middleware guarantees
// one exists on every reservation route.
func principal(r *http.Request) middleware.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}

// CreateReservation handles POST /reservations.
// The passenger is always the authenticated user.
func (s *Server) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var body CreateReservationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	if body.FlightId == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, requestBody("flightId is required"))
		return
	}
	if body.FareId == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, requestBody("fareId is required"))
		return
	}

	req := service.ReservationRequest{
		UserID:   principal(r).UserID,
		FlightID: body.FlightId,
		FareID:   body.FareId,
	}
	if body.SeatNumber != nil {
		req.SeatNumber = *body.SeatNumber
	}

	view, err := s.reservations.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservationToResponse(view))
}

// ListReservations handles GET /reservations.
// The optional status filter accepts any casing of a status name or its
// numeric code.
func (s *Server) ListReservations(w http.ResponseWriter, r *http.Request) {
	raw, err := queryString(r, "status")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	var status *domain.ReservationStatus
	if raw != nil {
		st, err := domain.ParseReservationStatus(*raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		status = &st
	}

	views, err := s.reservations.ListByUser(r.Context(), principal(r).UserID, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := make([]Reservation, 0, len(views))
	for _, v := range views {
		data = append(data, reservationToResponse(v))
	}
	writeJSON(w, http.StatusOK, ReservationList{Data: data})
}

// GetReservation handles GET /reservations/{reservationId}.
func (s *Server) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "reservationId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	view, err := s.reservations.Get(r.Context(), id, principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(view))
}

// CancelReservation handles POST /reservations/{reservationId}/cancel.
// Cancelling a missing or already cancelled reservation is not an error;
// the body reports whether anything changed.
func (s *Server) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "reservationId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	cancelled, err := s.reservations.Cancel(r.Context(), id, principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CancelResponse{Cancelled: cancelled})
}

// RestoreReservation handles POST /reservations/{reservationId}/restore.
func (s *Server) RestoreReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "reservationId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	view, err := s.reservations.Restore(r.Context(), id, principal(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(view))
}
