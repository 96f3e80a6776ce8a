package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/flight-booking/internal/domain"
)

// TestParseReservationStatus_legacyForms verifies that every historical
// spelling of "cancelled" normalizes to the same enum value.
func TestParseReservationStatus_legacyForms(t *testing.T) {
	for _, in := range []string{"Cancelled", "cancelled", "CANCELLED", "2", " cancelled "} {
		got, err := domain.ParseReservationStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, domain.StatusCancelled, got, in)
	}
}

func TestParseReservationStatus_unknown(t *testing.T) {
	_, err := domain.ParseReservationStatus("refunded")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReservationStatus_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		S domain.ReservationStatus `json:"s"`
	}{domain.StatusConfirmed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"confirmed"}`, string(b))

	var out struct {
		S domain.ReservationStatus `json:"s"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"s":"Cancelled"}`), &out))
	assert.Equal(t, domain.StatusCancelled, out.S)
}

func TestParseFlightStatus(t *testing.T) {
	got, err := domain.ParseFlightStatus("Boarding")
	require.NoError(t, err)
	assert.Equal(t, domain.FlightBoarding, got)

	_, err = domain.ParseFlightStatus("delayed")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// TestReject_classification verifies that a wrapped rejection still matches
// both its specific reason and its broad class.
func TestReject_classification(t *testing.T) {
	err := fmt.Errorf("service.ReservationService.Create: %w",
		domain.Reject(domain.ErrSeatTaken, "seat %s is already taken", "E1A"))

	assert.ErrorIs(t, err, domain.ErrSeatTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	var rej *domain.Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "seat E1A is already taken", rej.Message)
	assert.Equal(t, "seat_taken", rej.Failure.Code)
}

func TestNewPageRequest(t *testing.T) {
	page, limit, zero := 3, 500, 0
	tests := []struct {
		name        string
		page, limit *int
		want        domain.PageRequest
		offset      int
	}{
		{"defaults", nil, nil, domain.PageRequest{Page: 1, Limit: domain.DefaultPageSize}, 0},
		{"limit clamped", &page, &limit, domain.PageRequest{Page: 3, Limit: domain.MaxPageSize}, 200},
		{"non-positive ignored", &zero, &zero, domain.PageRequest{Page: 1, Limit: domain.DefaultPageSize}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := domain.NewPageRequest(tc.page, tc.limit)
			assert.Equal(t, tc.want, p)
			assert.Equal(t, tc.offset, p.Offset())
		})
	}
}

func TestPageRequest_Pages(t *testing.T) {
	p := domain.PageRequest{Page: 1, Limit: 20}
	assert.Equal(t, 0, p.Pages(0))
	assert.Equal(t, 1, p.Pages(1))
	assert.Equal(t, 1, p.Pages(20))
	assert.Equal(t, 2, p.Pages(21))
	assert.Equal(t, 0, domain.PageRequest{}.Pages(5))
}
