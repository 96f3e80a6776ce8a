package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/flight-booking/internal/domain"
)

// FlightRepo defines the persistence operations for Flights and their fares.
// Every returned flight has its Fares populated.
type FlightRepo interface {
	// Create inserts a flight and all of its fares. Call it inside a
	// Transactor so a failing fare insert does not leave an orphan flight.
	Create(ctx context.Context, f domain.Flight) (domain.Flight, error)

	// GetByID retrieves a flight by primary key.
	// Returns domain.ErrFlightNotFound if no flight with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Flight, error)

	// LockByID is GetByID with a row lock held until the surrounding
	// transaction ends. Reservation mutations on one flight serialize on it.
	LockByID(ctx context.Context, id uuid.UUID) (domain.Flight, error)

	// ListUpcoming returns one page of non-deleted flights departing after
	// now, ordered by departure ascending, plus the total matching count.
	ListUpcoming(ctx context.Context, now time.Time, p domain.PageRequest) ([]domain.Flight, int64, error)

	// UpdateStatus sets the status of a flight and returns the updated record.
	// Returns domain.ErrFlightNotFound if no flight with that ID exists.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error)
}

// pgFlightRepo is the Postgres implementation of FlightRepo.
type pgFlightRepo struct {
	db db
}

// NewFlightRepo constructs a FlightRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewFlightRepo(db db) FlightRepo {
	return &pgFlightRepo{db: db}
}

const flightColumns = `id, flight_number, origin, destination, departure_time,
		       arrival_time, status, is_deleted, created_at, updated_at`

// Create inserts the flight row, then one fare_prices row per fare.
func (r *pgFlightRepo) Create(ctx context.Context, f domain.Flight) (domain.Flight, error) {
	const q = `
		INSERT INTO flights (flight_number, origin, destination, departure_time, arrival_time, status)
		VALUES (@flight_number, @origin, @destination, @departure_time, @arrival_time, @status)
		RETURNING ` + flightColumns

	status := f.Status
	if status == "" {
		status = domain.FlightScheduled
	}
	args := pgx.NamedArgs{
		"flight_number":  f.FlightNumber,
		"origin":         f.Origin,
		"destination":    f.Destination,
		"departure_time": f.DepartureTime,
		"arrival_time":   f.ArrivalTime,
		"status":         string(status),
	}

	created, err := scanFlight(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Flight{}, fmt.Errorf("repo.FlightRepo.Create: %w", err)
	}

	const fq = `
		INSERT INTO fare_prices (flight_id, class, price_cents, currency, capacity, is_active)
		VALUES (@flight_id, @class, @price_cents, @currency, @capacity, @is_active)
		RETURNING id, flight_id, class, price_cents, currency, capacity, is_active`

	created.Fares = make([]domain.FarePrice, 0, len(f.Fares))
	for _, fare := range f.Fares {
		row := r.db.QueryRow(ctx, fq, pgx.NamedArgs{
			"flight_id":   created.ID,
			"class":       fare.Class,
			"price_cents": fare.PriceCents,
			"currency":    fare.Currency,
			"capacity":    fare.Capacity,
			"is_active":   fare.IsActive,
		})
		fp, err := scanFare(row)
		if err != nil {
			return domain.Flight{}, fmt.Errorf("repo.FlightRepo.Create: fare %q: %w", fare.Class, err)
		}
		created.Fares = append(created.Fares, fp)
	}
	return created, nil
}

func (r *pgFlightRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = @id`

	f, err := r.getWithFares(ctx, q, id)
	if err != nil {
		return domain.Flight{}, fmt.Errorf("repo.FlightRepo.GetByID: %w", err)
	}
	return f, nil
}

func (r *pgFlightRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = @id FOR UPDATE`

	f, err := r.getWithFares(ctx, q, id)
	if err != nil {
		return domain.Flight{}, fmt.Errorf("repo.FlightRepo.LockByID: %w", err)
	}
	return f, nil
}

func (r *pgFlightRepo) getWithFares(ctx context.Context, q string, id uuid.UUID) (domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Flight{}, err
	}
	fares, err := r.faresFor(ctx, []uuid.UUID{f.ID})
	if err != nil {
		return domain.Flight{}, err
	}
	f.Fares = fares[f.ID]
	return f, nil
}

// ListUpcoming returns one page of bookable-in-time flights.
func (r *pgFlightRepo) ListUpcoming(ctx context.Context, now time.Time, p domain.PageRequest) ([]domain.Flight, int64, error) {
	const countQ = `
		SELECT count(*) FROM flights
		WHERE NOT is_deleted AND departure_time > @now`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"now": now}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.FlightRepo.ListUpcoming: count: %w", err)
	}

	const q = `
		SELECT ` + flightColumns + `
		FROM flights
		WHERE NOT is_deleted AND departure_time > @now
		ORDER BY departure_time ASC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"now": now, "limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.FlightRepo.ListUpcoming: %w", err)
	}
	defer rows.Close()

	flights := []domain.Flight{}
	ids := []uuid.UUID{}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.FlightRepo.ListUpcoming: scan: %w", err)
		}
		flights = append(flights, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.FlightRepo.ListUpcoming: rows: %w", err)
	}

	fares, err := r.faresFor(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.FlightRepo.ListUpcoming: %w", err)
	}
	for i := range flights {
		flights[i].Fares = fares[flights[i].ID]
	}
	return flights, total, nil
}

func (r *pgFlightRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (domain.Flight, error) {
	const q = `
		UPDATE flights
		SET status = @status, updated_at = now()
		WHERE id = @id
		RETURNING ` + flightColumns

	f, err := scanFlight(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "status": string(status)}))
	if err != nil {
		return domain.Flight{}, fmt.Errorf("repo.FlightRepo.UpdateStatus: %w", err)
	}
	fares, err := r.faresFor(ctx, []uuid.UUID{f.ID})
	if err != nil {
		return domain.Flight{}, fmt.Errorf("repo.FlightRepo.UpdateStatus: %w", err)
	}
	f.Fares = fares[f.ID]
	return f, nil
}

// faresFor loads the fares of several flights in one query, keyed by flight.
// Flights without fares get a non-nil empty slice.
func (r *pgFlightRepo) faresFor(ctx context.Context, flightIDs []uuid.UUID) (map[uuid.UUID][]domain.FarePrice, error) {
	out := make(map[uuid.UUID][]domain.FarePrice, len(flightIDs))
	for _, id := range flightIDs {
		out[id] = []domain.FarePrice{}
	}
	if len(flightIDs) == 0 {
		return out, nil
	}

	const q = `
		SELECT id, flight_id, class, price_cents, currency, capacity, is_active
		FROM fare_prices
		WHERE flight_id = ANY(@ids)
		ORDER BY flight_id, price_cents, class`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": flightIDs})
	if err != nil {
		return nil, fmt.Errorf("fares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		fp, err := scanFare(rows)
		if err != nil {
			return nil, fmt.Errorf("fares: scan: %w", err)
		}
		out[fp.FlightID] = append(out[fp.FlightID], fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fares: rows: %w", err)
	}
	return out, nil
}

// scanFlight maps a flights row into a domain.Flight without fares.
func scanFlight(s scanner) (domain.Flight, error) {
	var (
		f      domain.Flight
		id     pgtype.UUID
		status string
	)
	err := s.Scan(&id, &f.FlightNumber, &f.Origin, &f.Destination, &f.DepartureTime,
		&f.ArrivalTime, &status, &f.IsDeleted, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return domain.Flight{}, noRows(err, domain.ErrFlightNotFound)
	}
	f.ID = fromPgUUID(id)
	f.Status = domain.FlightStatus(status)
	return f, nil
}

func scanFare(s scanner) (domain.FarePrice, error) {
	var (
		fp       domain.FarePrice
		id, fid  pgtype.UUID
		currency string
	)
	if err := s.Scan(&id, &fid, &fp.Class, &fp.PriceCents, &currency, &fp.Capacity, &fp.IsActive); err != nil {
		return domain.FarePrice{}, noRows(err, domain.ErrFareNotFound)
	}
	fp.ID = fromPgUUID(id)
	fp.FlightID = fromPgUUID(fid)
	fp.Currency = currency
	return fp, nil
}
