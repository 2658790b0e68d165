package repository

import (
	"context"

	"catalog-service/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Emails are always passed in normalized form.
type UserRepository interface {
	Init(ctx context.Context) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts or updates the user. A second user with the same email
	// yields ErrConflict.
	Save(ctx context.Context, user *domain.User) error
	GetAll(ctx context.Context, page, size int) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}
