package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

type memoryUsers struct {
	mu    sync.Mutex
	byID  map[string]domain.User
	saves int
	err   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]domain.User{}}
}

func (m *memoryUsers) Init(context.Context) error { return nil }

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	return &user, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, user := range m.byID {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
}

func (m *memoryUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memoryUsers) Save(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for id, existing := range m.byID {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	m.byID[user.ID] = *user
	m.saves++
	return nil
}

func (m *memoryUsers) GetAll(_ context.Context, page, size int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.User, 0, len(m.byID))
	for _, user := range m.byID {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	start := repository.Offset(page, size)
	if start >= len(all) {
		return nil, nil
	}
	end := min(start+size, len(all))
	return all[start:end], nil
}

func (m *memoryUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

type memoryTokens struct {
	mu     sync.Mutex
	byHash map[string]domain.RefreshToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{byHash: map[string]domain.RefreshToken{}}
}

func (m *memoryTokens) Init(context.Context) error { return nil }

func (m *memoryTokens) GetByTokenHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.byHash[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (m *memoryTokens) GetByUserID(_ context.Context, userID string) ([]domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tokens []domain.RefreshToken
	for _, token := range m.byHash {
		if token.UserID == userID {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (m *memoryTokens) Save(_ context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[token.TokenHash] = *token
	return nil
}

func (m *memoryTokens) Revoke(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, token := range m.byHash {
		if token.ID != id {
			continue
		}
		if token.Revoked {
			return repository.ErrConflict
		}
		token.Revoke(at)
		m.byHash[hash] = token
		return nil
	}
	return repository.ErrNotFound
}

func (m *memoryTokens) RevokeAllForUser(_ context.Context, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, token := range m.byHash {
		if token.UserID == userID && !token.Revoked {
			token.Revoke(at)
			m.byHash[hash] = token
			n++
		}
	}
	return n, nil
}

func (m *memoryTokens) byPlaintext(plaintext string) (domain.RefreshToken, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.byHash[domain.HashRefreshToken(plaintext)]
	return token, ok
}

// plainHasher keeps tests fast; it is not a real hash.
type plainHasher struct {
	mu       sync.Mutex
	hashes   int
	verifies int
}

func (h *plainHasher) Hash(password string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return "hashed:" + password, nil
}

func (h *plainHasher) hashCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes
}

func (h *plainHasher) Verify(password, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return strings.TrimPrefix(hash, "hashed:") == password && strings.HasPrefix(hash, "hashed:")
}

func (h *plainHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type countingIssuer struct {
	mu     sync.Mutex
	issued int
	ttl    time.Duration
	now    func() time.Time
}

func (i *countingIssuer) Issue(user *domain.User) (string, time.Time, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.issued++
	return fmt.Sprintf("access-%s-%d", user.ID, i.issued), i.now().Add(i.ttl), nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
