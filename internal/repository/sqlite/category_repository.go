package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

const createCategoriesTable = `
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type CategoryRepository struct {
	db *sql.DB
}

var _ repository.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCategoriesTable); err != nil {
		return fmt.Errorf("create categories table: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO categories (id, name, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Description,
		category.CreatedAt.UTC(),
		category.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", category.Name, repository.ErrConflict)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		category.Name,
		category.Description,
		category.UpdatedAt.UTC(),
		category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", category.Name, repository.ErrConflict)
		}
		return fmt.Errorf("update category: %w", err)
	}
	return expectAffected(res, "category")
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %s still has products: %w", id, repository.ErrConflict)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return expectAffected(res, "category")
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (r *CategoryRepository) List(ctx context.Context, page, size int) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, description, created_at, updated_at FROM categories
ORDER BY name ASC LIMIT ? OFFSET ?`, size, repository.Offset(page, size))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

func expectAffected(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}
