package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/flight-booking/internal/domain"
)

// AuditRepo persists and pages through the audit log.
type AuditRepo interface {
	// Create inserts an entry and returns it with id and created_at set.
	Create(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)

	// ListPaged returns one page of entries, newest first, and the total count.
	// A non-nil userID restricts the result to that user's entries.
	ListPaged(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error)
}

// pgAuditRepo is the Postgres implementation of AuditRepo.
type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) Create(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	const q = `
		INSERT INTO audit_logs (event, user_id, flight_id, payload)
		VALUES (@event, @user_id, @flight_id, @payload)
		RETURNING id, event, user_id, flight_id, payload, created_at`

	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	args := pgx.NamedArgs{
		"event":     string(e.Event),
		"user_id":   e.UserID, // nil becomes NULL
		"flight_id": e.FlightID,
		"payload":   payload,
	}

	created, err := scanAudit(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("repo.AuditRepo.Create: %w", err)
	}
	return created, nil
}

func (r *pgAuditRepo) ListPaged(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	const countQ = `
		SELECT count(*) FROM audit_logs
		WHERE @user_id::uuid IS NULL OR user_id = @user_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"user_id": userID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT id, event, user_id, flight_id, payload, created_at
		FROM audit_logs
		WHERE @user_id::uuid IS NULL OR user_id = @user_id
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: rows: %w", err)
	}
	return entries, total, nil
}

func scanAudit(s scanner) (domain.AuditEntry, error) {
	var (
		e            domain.AuditEntry
		id, uid, fid pgtype.UUID
		event        string
	)
	if err := s.Scan(&id, &event, &uid, &fid, &e.Payload, &e.CreatedAt); err != nil {
		return domain.AuditEntry{}, noRows(err, domain.ErrNotFound)
	}
	e.ID = fromPgUUID(id)
	e.Event = domain.AuditEvent(event)
	e.UserID = optionalUUID(uid)
	e.FlightID = optionalUUID(fid)
	return e, nil
}
