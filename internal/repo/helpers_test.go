package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/repo"
	"github.com/pkordes/flight-booking/testutil"
)

// newTestTx opens a transaction that is rolled back when the test finishes.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	return testutil.NewTx(t)
}

// insertUser writes a users row directly; the service never creates users.
func insertUser(t *testing.T, tx pgx.Tx, name string) domain.User {
	t.Helper()
	u := domain.User{
		ID:       uuid.New(),
		FullName: name,
		Email:    uuid.NewString() + "@example.com",
		Phone:    "+1-555-0100",
		IsActive: true,
	}
	_, err := tx.Exec(context.Background(), `
		INSERT INTO users (id, full_name, email, phone)
		VALUES (@id, @full_name, @email, @phone)`,
		pgx.NamedArgs{"id": u.ID, "full_name": u.FullName, "email": u.Email, "phone": u.Phone})
	require.NoError(t, err, "insert user")
	return u
}

// flightFixture returns a flight departing tomorrow with Economy and Business fares.
func flightFixture() domain.Flight {
	dep := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	return domain.Flight{
		FlightNumber:  "PK101",
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(6 * time.Hour),
		Fares: []domain.FarePrice{
			{Class: "Economy", PriceCents: 19900, Currency: "USD", Capacity: 5, IsActive: true},
			{Class: "Business", PriceCents: 89900, Currency: "USD", Capacity: 2, IsActive: true},
		},
	}
}

func createFlight(t *testing.T, tx pgx.Tx) domain.Flight {
	t.Helper()
	f, err := repo.NewFlightRepo(tx).Create(context.Background(), flightFixture())
	require.NoError(t, err, "create flight")
	return f
}

func reservationFixture(u domain.User, f domain.Flight, seat string) domain.Reservation {
	return domain.Reservation{
		UserID:          u.ID,
		FlightID:        f.ID,
		PassengerName:   u.FullName,
		PassengerEmail:  u.Email,
		PassengerPhone:  u.Phone,
		SeatNumber:      seat,
		Class:           "Economy",
		TotalPriceCents: 19900,
		Currency:        "USD",
		Status:          domain.StatusConfirmed,
	}
}
