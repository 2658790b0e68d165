package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

const (
	createRefreshTokensTable = `
CREATE TABLE IF NOT EXISTS refresh_tokens (
	id TEXT PRIMARY KEY,
	token_hash TEXT NOT NULL,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	revoked INTEGER NOT NULL DEFAULT 0,
	revoked_at DATETIME NULL
);
`
	createRefreshTokensHashIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_refresh_tokens_hash ON refresh_tokens(token_hash);`
	createRefreshTokensUserIndex = `CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id);`

	selectRefreshTokenColumns = `SELECT id, token_hash, user_id, expires_at, created_at, revoked, revoked_at FROM refresh_tokens`
)

type RefreshTokenRepository struct {
	db *sql.DB
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)

func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Init(ctx context.Context) error {
	if err := execAll(ctx, r.db, createRefreshTokensTable, createRefreshTokensHashIndex, createRefreshTokensUserIndex); err != nil {
		return fmt.Errorf("create refresh_tokens table: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, created_at, revoked, revoked_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	revoked = excluded.revoked,
	revoked_at = excluded.revoked_at`,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt.UTC(),
		token.CreatedAt.UTC(),
		token.Revoked,
		nullTime(token.RevokedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save refresh token: %w", repository.ErrConflict)
		}
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, selectRefreshTokenColumns+` WHERE token_hash = ?`, tokenHash)
	return scanRefreshToken(row)
}

func (r *RefreshTokenRepository) GetByUserID(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx, selectRefreshTokenColumns+` WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.RefreshToken
	for rows.Next() {
		token, err := scanRefreshToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh tokens: %w", err)
	}
	return tokens, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE id = ? AND revoked = 0`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke refresh token rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("revoke refresh token %s: %w", id, repository.ErrConflict)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE user_id = ? AND revoked = 0`,
		at.UTC(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens rows affected: %w", err)
	}
	return affected, nil
}

func scanRefreshToken(row rowScanner) (*domain.RefreshToken, error) {
	var (
		token     domain.RefreshToken
		revokedAt sql.NullTime
	)
	if err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.Revoked,
		&revokedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	token.RevokedAt = timePtr(revokedAt)
	return &token, nil
}
