package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
)

// ReservationCache holds each user's reservation list between writes.
// Set must refuse a list when Invalidate ran after the Version it was
// loaded at. *cache.ReservationCache satisfies it.
type ReservationCache interface {
	Get(userID uuid.UUID) ([]domain.ReservationView, bool)
	Version(userID uuid.UUID) uint64
	Set(userID uuid.UUID, version uint64, views []domain.ReservationView) bool
	Invalidate(userID uuid.UUID) error
}

// AuditRecorder persists audit entries. *AuditService satisfies it.
type AuditRecorder interface {
	Record(ctx context.Context, e domain.AuditEntry) error
}

// SeatNotifier pushes live events to seat-map watchers.
// *realtime.Hub satisfies it.
type SeatNotifier interface {
	Publish(ctx context.Context, ev domain.SeatEvent) error
}

// Effects are the collaborators a service notifies after a successful commit.
// Every field is optional. Failures are logged and never change the outcome
// of the operation that triggered them.
type Effects struct {
	Cache  ReservationCache
	Audit  AuditRecorder
	Notify SeatNotifier
	Log    *slog.Logger
}

func (fx Effects) logger() *slog.Logger {
	if fx.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return fx.Log
}

func (fx Effects) invalidate(ctx context.Context, userID uuid.UUID) {
	if fx.Cache == nil {
		return
	}
	if err := fx.Cache.Invalidate(userID); err != nil {
		fx.logger().WarnContext(ctx, "cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (fx Effects) audit(ctx context.Context, e domain.AuditEntry) {
	if fx.Audit == nil {
		return
	}
	if err := fx.Audit.Record(ctx, e); err != nil {
		fx.logger().WarnContext(ctx, "audit record failed", "event", e.Event, "error", err)
	}
}

func (fx Effects) publish(ctx context.Context, ev domain.SeatEvent) {
	if fx.Notify == nil {
		return
	}
	if err := fx.Notify.Publish(ctx, ev); err != nil {
		fx.logger().WarnContext(ctx, "seat event publish failed", "type", ev.Type, "flight_id", ev.FlightID, "error", err)
	}
}
