package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'User',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	last_login_at DATETIME NULL
);
`

const createUsersEmailIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);`

const selectUserColumns = `SELECT id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at, last_login_at FROM users`

type UserRepository struct {
	db *sql.DB
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if err := execAll(ctx, r.db, createUsersTable, createUsersEmailIndex); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at, last_login_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	email = excluded.email,
	password_hash = excluded.password_hash,
	first_name = excluded.first_name,
	last_name = excluded.last_name,
	role = excluded.role,
	is_active = excluded.is_active,
	updated_at = excluded.updated_at,
	last_login_at = excluded.last_login_at`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.IsActive,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
		nullTime(user.LastLoginAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save user %s: %w", user.Email, repository.ErrConflict)
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user email: %w", err)
	}
	return exists == 1, nil
}

func (r *UserRepository) GetAll(ctx context.Context, page, size int) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUserColumns+` ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`,
		size, repository.Offset(page, size))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user      domain.User
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.Role(role)
	user.LastLoginAt = timePtr(lastLogin)
	return &user, nil
}
