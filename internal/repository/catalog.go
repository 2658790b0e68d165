package repository

import (
	"context"

	"catalog-service/internal/domain"
)

// CategoryRepository exposes persistence operations for categories.
type CategoryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context, page, size int) ([]domain.Category, error)
	Count(ctx context.Context) (int, error)
}

// ProductRepository exposes persistence operations for products.
type ProductRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, page, size int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID string, page, size int) ([]domain.Product, error)
	Count(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}
