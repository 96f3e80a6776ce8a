// Package repo contains all database access logic for the flight booking API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here: only SQL, type mapping, and translation of
// constraint violations into domain errors.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/flight-booking/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txDB is a db that can also open a transaction. On a pgx.Tx, Begin opens a
// savepoint, so tests can still wrap everything in an outer rollback.
type txDB interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Users        UserRepo
	Flights      FlightRepo
	Reservations ReservationRepo
	Audit        AuditRepo
}

// NewRepos binds all repositories to db.
func NewRepos(db db) Repos {
	return Repos{
		Users:        NewUserRepo(db),
		Flights:      NewFlightRepo(db),
		Reservations: NewReservationRepo(db),
		Audit:        NewAuditRepo(db),
	}
}

// Transactor runs a unit of work: every repo call made through the Repos
// passed to fn commits together, or not at all when fn returns an error.
type Transactor interface {
	InTx(ctx context.Context, fn func(Repos) error) error
}

type pgTransactor struct {
	db txDB
}

// NewTransactor constructs a Transactor on top of a pool (production) or an
// open transaction (tests).
func NewTransactor(db txDB) Transactor {
	return &pgTransactor{db: db}
}

// InTx begins a transaction, runs fn, and commits if fn returns nil.
// A commit failure is returned unwrapped for the caller to classify.
func (t *pgTransactor) InTx(ctx context.Context, fn func(Repos) error) error {
	return pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Names of the partial unique indexes on reservations (see migrations).
const (
	seatConstraint       = "reservations_flight_seat_confirmed_key"
	userFlightConstraint = "reservations_user_flight_confirmed_key"
	uniqueViolation      = "23505"
)

// mapReservationConflict translates a violation of one of the
// confirmed-reservation unique indexes into the matching domain rejection.
// Any other error is returned unchanged.
func mapReservationConflict(err error, r domain.Reservation) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case seatConstraint:
		return domain.Reject(domain.ErrSeatTaken, "seat %s is already taken", r.SeatNumber)
	case userFlightConstraint:
		return domain.Reject(domain.ErrDuplicateReservation, "you already have a confirmed reservation on this flight")
	}
	return err
}

func fromPgUUID(id pgtype.UUID) uuid.UUID {
	return uuid.UUID(id.Bytes)
}

// optionalUUID converts a nullable UUID column.
func optionalUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

// noRows maps pgx.ErrNoRows to notFound and leaves other errors alone.
func noRows(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}
