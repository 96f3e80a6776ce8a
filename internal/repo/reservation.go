package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/flight-booking/internal/domain"
)

// ReservationRepo defines the persistence operations for Reservations.
// Single-row reads and writes are scoped by userID so one user can never
// see or change another user's booking.
type ReservationRepo interface {
	// Create inserts a reservation and returns the persisted record.
	// A clash with another confirmed reservation returns domain.ErrSeatTaken
	// or domain.ErrDuplicateReservation.
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// GetForUser retrieves a reservation by ID owned by userID.
	// Returns domain.ErrReservationNotFound otherwise.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error)

	// LockForUser is GetForUser with a row lock held until the surrounding
	// transaction ends.
	LockForUser(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error)

	// ListConfirmedByFlight returns every confirmed reservation on a flight.
	ListConfirmedByFlight(ctx context.Context, flightID uuid.UUID) ([]domain.Reservation, error)

	// UpdateStatus persists Status, CancelledAt and CancellationReason of r.
	// Restoring into an occupied seat returns the same conflicts as Create.
	UpdateStatus(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// ListViewsByUser returns all of a user's reservations joined with their
	// flights, newest first.
	ListViewsByUser(ctx context.Context, userID uuid.UUID) ([]domain.ReservationView, error)

	// GetViewForUser returns one reservation view owned by userID.
	GetViewForUser(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error)
}

// pgReservationRepo is the Postgres implementation of ReservationRepo.
type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `id, user_id, flight_id, passenger_name, passenger_email,
		       passenger_phone, seat_number, class, total_price_cents, currency,
		       status, created_at, cancelled_at, cancellation_reason`

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		INSERT INTO reservations (
			user_id, flight_id, passenger_name, passenger_email, passenger_phone,
			seat_number, class, total_price_cents, currency, status
		) VALUES (
			@user_id, @flight_id, @passenger_name, @passenger_email, @passenger_phone,
			@seat_number, @class, @total_price_cents, @currency, @status
		)
		RETURNING ` + reservationColumns

	args := pgx.NamedArgs{
		"user_id":           res.UserID,
		"flight_id":         res.FlightID,
		"passenger_name":    res.PassengerName,
		"passenger_email":   res.PassengerEmail,
		"passenger_phone":   res.PassengerPhone,
		"seat_number":       res.SeatNumber,
		"class":             res.Class,
		"total_price_cents": res.TotalPriceCents,
		"currency":          res.Currency,
		"status":            res.Status.String(),
	}

	created, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", mapReservationConflict(err, res))
	}
	return created, nil
}

func (r *pgReservationRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = @id AND user_id = @user_id`

	res, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetForUser: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepo) LockForUser(ctx context.Context, id, userID uuid.UUID) (domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = @id AND user_id = @user_id
		FOR UPDATE`

	res, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.LockForUser: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepo) ListConfirmedByFlight(ctx context.Context, flightID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE flight_id = @flight_id AND status = 'confirmed'
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"flight_id": flightID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListConfirmedByFlight: %w", err)
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ReservationRepo.ListConfirmedByFlight: scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListConfirmedByFlight: rows: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) UpdateStatus(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		UPDATE reservations
		SET status              = @status,
		    cancelled_at        = @cancelled_at,
		    cancellation_reason = @cancellation_reason
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + reservationColumns

	args := pgx.NamedArgs{
		"id":                  res.ID,
		"user_id":             res.UserID,
		"status":              res.Status.String(),
		"cancelled_at":        res.CancelledAt, // nil becomes NULL
		"cancellation_reason": res.CancellationReason,
	}

	updated, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", mapReservationConflict(err, res))
	}
	return updated, nil
}

const viewSelect = `
		SELECT r.id, r.user_id, r.flight_id, f.flight_number, f.origin, f.destination,
		       f.departure_time, f.arrival_time, r.status, r.created_at, r.cancelled_at,
		       r.passenger_name, r.passenger_email, r.passenger_phone, r.seat_number,
		       r.class, r.total_price_cents, r.currency
		FROM reservations r
		JOIN flights f ON f.id = r.flight_id`

func (r *pgReservationRepo) ListViewsByUser(ctx context.Context, userID uuid.UUID) ([]domain.ReservationView, error) {
	const q = viewSelect + `
		WHERE r.user_id = @user_id
		ORDER BY r.created_at DESC, r.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListViewsByUser: %w", err)
	}
	defer rows.Close()

	views := []domain.ReservationView{}
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ReservationRepo.ListViewsByUser: scan: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListViewsByUser: rows: %w", err)
	}
	return views, nil
}

func (r *pgReservationRepo) GetViewForUser(ctx context.Context, id, userID uuid.UUID) (domain.ReservationView, error) {
	const q = viewSelect + `
		WHERE r.id = @id AND r.user_id = @user_id`

	v, err := scanView(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return domain.ReservationView{}, fmt.Errorf("repo.ReservationRepo.GetViewForUser: %w", err)
	}
	return v, nil
}

// scanReservation maps a reservations row into a domain.Reservation,
// normalizing the stored status text into the enum.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res              domain.Reservation
		id, uid, fid     pgtype.UUID
		status, currency string
		cancelledAt      pgtype.Timestamptz
	)
	err := s.Scan(&id, &uid, &fid, &res.PassengerName, &res.PassengerEmail,
		&res.PassengerPhone, &res.SeatNumber, &res.Class, &res.TotalPriceCents, &currency,
		&status, &res.CreatedAt, &cancelledAt, &res.CancellationReason)
	if err != nil {
		return domain.Reservation{}, noRows(err, domain.ErrReservationNotFound)
	}

	res.Status, err = domain.ParseReservationStatus(status)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.ID = fromPgUUID(id)
	res.UserID = fromPgUUID(uid)
	res.FlightID = fromPgUUID(fid)
	res.Currency = currency
	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}
	return res, nil
}

func scanView(s scanner) (domain.ReservationView, error) {
	var (
		v                domain.ReservationView
		id, uid, fid     pgtype.UUID
		status, currency string
		cancelledAt      pgtype.Timestamptz
	)
	err := s.Scan(&id, &uid, &fid, &v.FlightNumber, &v.Origin, &v.Destination,
		&v.DepartureTime, &v.ArrivalTime, &status, &v.CreatedAt, &cancelledAt,
		&v.PassengerName, &v.PassengerEmail, &v.PassengerPhone, &v.SeatNumber,
		&v.Class, &v.TotalPriceCents, &currency)
	if err != nil {
		return domain.ReservationView{}, noRows(err, domain.ErrReservationNotFound)
	}

	v.Status, err = domain.ParseReservationStatus(status)
	if err != nil {
		return domain.ReservationView{}, err
	}
	v.ID = fromPgUUID(id)
	v.UserID = fromPgUUID(uid)
	v.FlightID = fromPgUUID(fid)
	v.Currency = currency
	if cancelledAt.Valid {
		t := cancelledAt.Time
		v.CancelledAt = &t
	}
	return v, nil
}
