// Package service contains the business logic for the flight booking API.
// Services validate inputs, enforce booking rules, and orchestrate repo calls
// inside transactions. No SQL lives here; services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/repo"
	"github.com/pkordes/flight-booking/internal/seat"
)

// maxCreateAttempts bounds retries when an auto-assigned seat loses a race.
const maxCreateAttempts = 3

// ReservationService manages the reservation lifecycle:
// Confirmed on creation, Cancelled on cancel, Confirmed again on restore.
type ReservationService struct {
	tx           repo.Transactor
	reservations repo.ReservationRepo
	checker      *ReservationChecker
	seats        *seat.Allocator
	fx           Effects
}

// NewReservationService wires the service. reservations is used for reads
// outside a transaction; every mutation goes through tx.
func NewReservationService(tx repo.Transactor, reservations repo.ReservationRepo, checker *ReservationChecker, seats *seat.Allocator, fx Effects) *ReservationService {
	if checker == nil {
		checker = NewReservationChecker(nil)
	}
	if seats == nil {
		seats = seat.NewAllocator(nil)
	}
	return &ReservationService{
		tx:           tx,
		reservations: reservations,
		checker:      checker,
		seats:        seats,
		fx:           fx,
	}
}

// Create books a seat. On success the reservation is Confirmed and the
// passenger fields are a snapshot of the user at this moment.
//
// A seat assigned by the allocator that is taken by a concurrent booking
// before commit is retried with a fresh assignment. A seat the caller chose
// is never retried.
func (s *ReservationService) Create(ctx context.Context, req ReservationRequest) (domain.ReservationView, error) {
	var (
		created domain.Reservation
		flight  domain.Flight
		err     error
	)
	for attempt := 1; ; attempt++ {
		created, flight, err = s.createOnce(ctx, req)
		if err == nil {
			break
		}
		if seat.Normalize(req.SeatNumber) == "" && errors.Is(err, domain.ErrSeatTaken) && attempt < maxCreateAttempts {
			s.fx.logger().WarnContext(ctx, "assigned seat lost a race, retrying",
				"flight_id", req.FlightID, "attempt", attempt)
			continue
		}
		return domain.ReservationView{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}

	s.fx.invalidate(ctx, created.UserID)
	s.fx.audit(ctx, domain.AuditEntry{
		Event:    domain.AuditReservationCreated,
		UserID:   &created.UserID,
		FlightID: &created.FlightID,
		Payload: map[string]any{
			"reservationId":   created.ID.String(),
			"flightNumber":    flight.FlightNumber,
			"seatNumber":      created.SeatNumber,
			"class":           created.Class,
			"totalPriceCents": created.TotalPriceCents,
			"currency":        created.Currency,
		},
	})
	s.fx.publish(ctx, domain.SeatEvent{
		Type:       domain.SeatBooked,
		FlightID:   created.FlightID,
		SeatNumber: created.SeatNumber,
		Class:      created.Class,
		Status:     created.Status.String(),
	})

	return domain.NewReservationView(created, flight), nil
}

func (s *ReservationService) createOnce(ctx context.Context, req ReservationRequest) (domain.Reservation, domain.Flight, error) {
	var (
		created domain.Reservation
		flight  domain.Flight
	)
	err := s.tx.InTx(ctx, func(rs repo.Repos) error {
		adm, err := s.checker.Check(ctx, rs, req)
		if err != nil {
			return err
		}

		seatNumber := adm.Seat
		if seatNumber == "" {
			seatNumber = s.seats.Next(adm.Fare.Class, adm.Ledger.Taken())
		}

		res, err := rs.Reservations.Create(ctx, domain.Reservation{
			UserID:          adm.User.ID,
			FlightID:        adm.Flight.ID,
			PassengerName:   adm.User.FullName,
			PassengerEmail:  adm.User.Email,
			PassengerPhone:  adm.User.Phone,
			SeatNumber:      seatNumber,
			Class:           adm.Fare.Class,
			TotalPriceCents: adm.Fare.PriceCents,
			Currency:        adm.Fare.Currency,
			Status:          domain.StatusConfirmed,
		})
		if err != nil {
			return err
		}
		created, flight = res, adm.Flight
		return nil
	})
	return created, flight, err
}

// Cancel cancels the caller's reservation. It reports false, and changes
// nothing, when the reservation does not exist for this user or is already
// cancelled.
func (s *ReservationService) Cancel(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	var (
		cancelled domain.Reservation
		changed   bool
	)
	err := s.tx.InTx(ctx, func(rs repo.Repos) error {
		res, err := rs.Reservations.LockForUser(ctx, id, userID)
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if res.Status == domain.StatusCancelled {
			return nil
		}

		now := s.checker.now().UTC()
		res.Status = domain.StatusCancelled
		res.CancelledAt = &now
		res.CancellationReason = domain.CancelReasonUser
		if cancelled, err = rs.Reservations.UpdateStatus(ctx, res); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("service.ReservationService.Cancel: %w", err)
	}
	if !changed {
		return false, nil
	}

	s.fx.invalidate(ctx, userID)
	s.fx.audit(ctx, domain.AuditEntry{
		Event:    domain.AuditReservationCancelled,
		UserID:   &cancelled.UserID,
		FlightID: &cancelled.FlightID,
		Payload: map[string]any{
			"reservationId": cancelled.ID.String(),
			"seatNumber":    cancelled.SeatNumber,
			"reason":        cancelled.CancellationReason,
		},
	})
	s.fx.publish(ctx, domain.SeatEvent{
		Type:       domain.SeatReleased,
		FlightID:   cancelled.FlightID,
		SeatNumber: cancelled.SeatNumber,
		Class:      cancelled.Class,
		Status:     cancelled.Status.String(),
	})
	return true, nil
}

// Restore brings a cancelled reservation back to Confirmed.
// Returns domain.ErrReservationNotFound if the user has no such reservation
// and domain.ErrNotCancelled if it is not cancelled. If the seat was re-booked
// or the user booked the flight again in the meantime, the write is refused
// with domain.ErrSeatTaken or domain.ErrDuplicateReservation.
func (s *ReservationService) Restore(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error) {
	var (
		restored domain.Reservation
		flight   domain.Flight
	)
	err := s.tx.InTx(ctx, func(rs repo.Repos) error {
		res, err := rs.Reservations.LockForUser(ctx, id, userID)
		if errors.Is(err, domain.ErrReservationNotFound) {
			return domain.Reject(domain.ErrReservationNotFound, "reservation %s not found", id)
		}
		if err != nil {
			return err
		}
		if res.Status != domain.StatusCancelled {
			return domain.Reject(domain.ErrNotCancelled,
				"reservation %s is %s; only cancelled reservations can be restored", id, res.Status)
		}

		res.Status = domain.StatusConfirmed
		res.CancelledAt = nil
		res.CancellationReason = ""
		if restored, err = rs.Reservations.UpdateStatus(ctx, res); err != nil {
			return err
		}
		flight, err = rs.Flights.GetByID(ctx, restored.FlightID)
		return err
	})
	if err != nil {
		return domain.ReservationView{}, fmt.Errorf("service.ReservationService.Restore: %w", err)
	}

	s.fx.invalidate(ctx, userID)
	s.fx.audit(ctx, domain.AuditEntry{
		Event:    domain.AuditReservationRestored,
		UserID:   &restored.UserID,
		FlightID: &restored.FlightID,
		Payload: map[string]any{
			"reservationId": restored.ID.String(),
			"seatNumber":    restored.SeatNumber,
		},
	})
	s.fx.publish(ctx, domain.SeatEvent{
		Type:       domain.SeatBooked,
		FlightID:   restored.FlightID,
		SeatNumber: restored.SeatNumber,
		Class:      restored.Class,
		Status:     restored.Status.String(),
	})
	return domain.NewReservationView(restored, flight), nil
}

// ListByUser returns the user's reservations, newest first. A non-nil status
// keeps only reservations in that state. The unfiltered list is cached per
// user until the next write by that user or expiry; a list loaded while a
// write commits is returned but not cached.
func (s *ReservationService) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.ReservationStatus) ([]domain.ReservationView, error) {
	views, err := s.loadList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.ListByUser: %w", err)
	}

	if status == nil {
		return views, nil
	}
	out := make([]domain.ReservationView, 0, len(views))
	for _, v := range views {
		if v.Status == *status {
			out = append(out, v)
		}
	}
	return out, nil
}

// loadList serves the user's list from the cache, or loads and caches it.
// The version is taken before the query so an invalidation racing the load
// keeps the result out of the cache.
func (s *ReservationService) loadList(ctx context.Context, userID uuid.UUID) ([]domain.ReservationView, error) {
	if s.fx.Cache == nil {
		return s.reservations.ListViewsByUser(ctx, userID)
	}
	if views, ok := s.fx.Cache.Get(userID); ok {
		return views, nil
	}

	version := s.fx.Cache.Version(userID)
	views, err := s.reservations.ListViewsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.fx.Cache.Set(userID, version, views) {
		s.fx.logger().DebugContext(ctx, "reservation list changed while loading, not cached",
			"user_id", userID)
	}
	return views, nil
}

// Get returns one of the caller's reservations.
// Returns domain.ErrReservationNotFound if it does not exist for this user.
func (s *ReservationService) Get(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error) {
	v, err := s.reservations.GetViewForUser(ctx, id, userID)
	if errors.Is(err, domain.ErrReservationNotFound) {
		return domain.ReservationView{}, domain.Reject(domain.ErrReservationNotFound, "reservation %s not found", id)
	}
	if err != nil {
		return domain.ReservationView{}, fmt.Errorf("service.ReservationService.Get: %w", err)
	}
	return v, nil
}

