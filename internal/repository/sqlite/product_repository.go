package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

const (
	createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price_cents INTEGER NOT NULL DEFAULT 0,
	stock INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createProductsCategoryIndex = `CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);`

	selectProductColumns = `SELECT id, category_id, name, description, price_cents, stock, created_at, updated_at FROM products`
)

type ProductRepository struct {
	db *sql.DB
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Init(ctx context.Context) error {
	if err := execAll(ctx, r.db, createProductsTable, createProductsCategoryIndex); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO products (id, category_id, name, description, price_cents, stock, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.CategoryID,
		product.Name,
		product.Description,
		product.PriceCents,
		product.Stock,
		product.CreatedAt.UTC(),
		product.UpdatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("product category %s: %w", product.CategoryID, repository.ErrNotFound)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE products
SET category_id = ?, name = ?, description = ?, price_cents = ?, stock = ?, updated_at = ?
WHERE id = ?`,
		product.CategoryID,
		product.Name,
		product.Description,
		product.PriceCents,
		product.Stock,
		product.UpdatedAt.UTC(),
		product.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("product category %s: %w", product.CategoryID, repository.ErrNotFound)
		}
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res, "product")
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectAffected(res, "product")
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, selectProductColumns+` WHERE id = ?`, id)
	return scanProduct(row)
}

func (r *ProductRepository) List(ctx context.Context, page, size int) ([]domain.Product, error) {
	return r.list(ctx, selectProductColumns+` ORDER BY name ASC, id ASC LIMIT ? OFFSET ?`,
		size, repository.Offset(page, size))
}

func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID string, page, size int) ([]domain.Product, error) {
	return r.list(ctx, selectProductColumns+` WHERE category_id = ? ORDER BY name ASC, id ASC LIMIT ? OFFSET ?`,
		categoryID, size, repository.Offset(page, size))
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = ?`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}
