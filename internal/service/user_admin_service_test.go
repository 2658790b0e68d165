package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

func seedUsers(t *testing.T, users *memoryUsers, n int) []*domain.User {
	t.Helper()
	seeded := make([]*domain.User, 0, n)
	for i := range n {
		user, err := domain.NewUser(fmt.Sprintf("user%02d@example.com", i), "hashed:x", "User", fmt.Sprint(i), time.Now())
		require.NoError(t, err)
		require.NoError(t, users.Save(context.Background(), user))
		seeded = append(seeded, user)
	}
	return seeded
}

func TestUserAdminServiceList(t *testing.T) {
	users := newMemoryUsers()
	seedUsers(t, users, 25)
	logger, _ := test.NewNullLogger()
	svc := NewUserAdminService(users, newMemoryTokens(), logger)

	page, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Equal(t, 25, page.Total)
	assert.Len(t, page.Items, DefaultPageSize)
	assert.Equal(t, "user00@example.com", page.Items[0].Email)

	page, err = svc.List(context.Background(), 2, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Size)
	assert.Empty(t, page.Items)
}

func TestUserAdminServiceRoleAndActivation(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	tokens := newMemoryTokens()
	user := seedUsers(t, users, 1)[0]
	logger, hook := test.NewNullLogger()
	svc := NewUserAdminService(users, tokens, logger)

	issued, err := domain.NewRefreshToken(user.ID, time.Hour, time.Now())
	require.NoError(t, err)
	require.NoError(t, tokens.Save(ctx, issued.RefreshToken))

	view, err := svc.ChangeRole(ctx, user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, view.Role)

	_, err = svc.ChangeRole(ctx, user.ID, domain.Role("Root"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	view, err = svc.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, view.IsActive)
	stored, ok := tokens.byPlaintext(issued.Plaintext())
	require.True(t, ok)
	assert.True(t, stored.Revoked)
	assert.Equal(t, int64(1), hook.LastEntry().Data["revoked_tokens"])

	view, err = svc.Activate(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, view.IsActive)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = svc.Deactivate(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
