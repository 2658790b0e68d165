package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	err = InitAll(context.Background(),
		NewUserRepository(db),
		NewRefreshTokenRepository(db),
		NewAuditRepository(db),
		NewCategoryRepository(db),
		NewProductRepository(db),
	)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()

	user, err := domain.NewUser(email, "$2a$10$hash", "Test", "User", time.Now())
	require.NoError(t, err)
	require.NoError(t, NewUserRepository(db).Save(context.Background(), user))
	return user
}
