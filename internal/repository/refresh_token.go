package repository

import (
	"context"
	"time"

	"catalog-service/internal/domain"
)

// RefreshTokenRepository persists refresh-token records. Only hashes are stored.
type RefreshTokenRepository interface {
	Init(ctx context.Context) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.RefreshToken, error)
	Save(ctx context.Context, token *domain.RefreshToken) error
	// Revoke revokes a single token only if it is not revoked yet; a token
	// that was already revoked yields ErrConflict.
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)
}
