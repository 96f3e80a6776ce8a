package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent names a recorded business event.
type AuditEvent string

const (
	AuditReservationCreated   AuditEvent = "reservation.created"
	AuditReservationCancelled AuditEvent = "reservation.cancelled"
	AuditReservationRestored  AuditEvent = "reservation.restored"
	AuditFlightCreated        AuditEvent = "flight.created"
	AuditFlightStatusChanged  AuditEvent = "flight.status_changed"
)

// AuditEntry is one row of the audit log.
// UserID and FlightID are nil for events not tied to either.
type AuditEntry struct {
	ID        uuid.UUID
	Event     AuditEvent
	UserID    *uuid.UUID
	FlightID  *uuid.UUID
	Payload   map[string]any
	CreatedAt time.Time
}
