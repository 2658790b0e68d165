package repository

import (
	"context"

	"catalog-service/internal/domain"
)

// AuditRepository is the append-only store behind the audit trail.
type AuditRepository interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, entry *domain.AuditLogEntry) error
	GetByUserID(ctx context.Context, userID string, limit int) ([]domain.AuditLogEntry, error)
	GetRecent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
}
