package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// RefreshTokenBytes is the amount of randomness behind every refresh token.
	RefreshTokenBytes = 64
	// DefaultRefreshTokenLifetime applies when a caller passes a non-positive lifetime.
	DefaultRefreshTokenLifetime = 7 * 24 * time.Hour
)

// RefreshToken is the persisted form of a refresh token. It never holds the
// plaintext value; only its SHA-256 hash.
type RefreshToken struct {
	ID        string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// IssuedRefreshToken is a freshly generated token. It is the only value that
// carries the plaintext, which is handed to the client once and never stored.
type IssuedRefreshToken struct {
	*RefreshToken
	plaintext string
}

// Plaintext returns the secret value to hand to the client.
func (t *IssuedRefreshToken) Plaintext() string {
	return t.plaintext
}

// NewRefreshToken generates a random token for userID valid for lifetime.
func NewRefreshToken(userID string, lifetime time.Duration, now time.Time) (*IssuedRefreshToken, error) {
	if userID == "" {
		return nil, errors.New("refresh token user id is required")
	}
	if lifetime <= 0 {
		lifetime = DefaultRefreshTokenLifetime
	}

	raw := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	plaintext := base64.StdEncoding.EncodeToString(raw)

	now = now.UTC()
	return &IssuedRefreshToken{
		RefreshToken: &RefreshToken{
			ID:        uuid.NewString(),
			TokenHash: HashRefreshToken(plaintext),
			UserID:    userID,
			ExpiresAt: now.Add(lifetime),
			CreatedAt: now,
		},
		plaintext: plaintext,
	}, nil
}

// HashRefreshToken computes the hex-encoded SHA-256 of a plaintext token.
func HashRefreshToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// IsValid reports whether the token can still be exchanged at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// Matches hashes candidate and compares it with the stored hash in constant time.
func (t *RefreshToken) Matches(candidate string) bool {
	computed := HashRefreshToken(candidate)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(t.TokenHash)) == 1
}

// Revoke marks the token revoked. Revoking twice keeps the first timestamp.
func (t *RefreshToken) Revoke(now time.Time) {
	if t.Revoked {
		return
	}
	at := now.UTC()
	t.Revoked = true
	t.RevokedAt = &at
}
