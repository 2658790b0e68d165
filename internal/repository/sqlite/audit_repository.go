package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

// audit_log.user_id deliberately has no foreign key: entries outlive account changes.
const (
	createAuditLogTable = `
CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	user_id TEXT NULL,
	email TEXT NULL,
	ip_address TEXT NULL,
	user_agent TEXT NULL,
	success INTEGER NOT NULL,
	details TEXT NULL,
	created_at DATETIME NOT NULL
);
`
	createAuditLogUserIndex    = `CREATE INDEX IF NOT EXISTS idx_audit_log_user ON audit_log(user_id, created_at);`
	createAuditLogCreatedIndex = `CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);`

	selectAuditColumns = `SELECT id, event_type, user_id, email, ip_address, user_agent, success, details, created_at FROM audit_log`
)

type AuditRepository struct {
	db *sql.DB
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Init(ctx context.Context) error {
	if err := execAll(ctx, r.db, createAuditLogTable, createAuditLogUserIndex, createAuditLogCreatedIndex); err != nil {
		return fmt.Errorf("create audit_log table: %w", err)
	}
	return nil
}

func (r *AuditRepository) Save(ctx context.Context, entry *domain.AuditLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_log (id, event_type, user_id, email, ip_address, user_agent, success, details, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.EventType),
		nullString(entry.UserID),
		nullString(entry.Email),
		nullString(entry.IPAddress),
		nullString(entry.UserAgent),
		entry.Success,
		nullString(entry.Details),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]domain.AuditLogEntry, error) {
	return r.query(ctx, selectAuditColumns+` WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
}

func (r *AuditRepository) GetRecent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	return r.query(ctx, selectAuditColumns+` ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r *AuditRepository) query(ctx context.Context, query string, args ...any) ([]domain.AuditLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var (
			entry                                  domain.AuditLogEntry
			eventType                              string
			userID, email, ip, userAgent, details sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&eventType,
			&userID,
			&email,
			&ip,
			&userAgent,
			&entry.Success,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.EventType = domain.AuditEventType(eventType)
		entry.UserID = userID.String
		entry.Email = email.String
		entry.IPAddress = ip.String
		entry.UserAgent = userAgent.String
		entry.Details = details.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return entries, nil
}
