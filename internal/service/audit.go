package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/flight-booking/internal/domain"
	"github.com/pkordes/flight-booking/internal/repo"
)

// AuditService records and lists audit log entries.
type AuditService struct {
	repo repo.AuditRepo
}

// NewAuditService constructs an AuditService backed by the provided AuditRepo.
func NewAuditService(r repo.AuditRepo) *AuditService {
	return &AuditService{repo: r}
}

// Record persists e.
func (s *AuditService) Record(ctx context.Context, e domain.AuditEntry) error {
	if _, err := s.repo.Create(ctx, e); err != nil {
		return fmt.Errorf("service.AuditService.Record: %w", err)
	}
	return nil
}

// List returns one page of entries, newest first, optionally for one user.
func (s *AuditService) List(ctx context.Context, userID *uuid.UUID, p domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	entries, total, err := s.repo.ListPaged(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.AuditService.List: %w", err)
	}
	return entries, total, nil
}
