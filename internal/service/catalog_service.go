package service

import (
	"context"
	"strings"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

// CategoryInput carries the editable fields of a category.
type CategoryInput struct {
	Name        string
	Description string
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	CategoryID  string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
}

// CatalogService coordinates category and product operations backed by repositories.
type CatalogService interface {
	CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListCategories(ctx context.Context, page, size int) (Page[domain.Category], error)
	UpdateCategory(ctx context.Context, id string, in CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// ListProducts lists every product, or only those of categoryID when it is set.
	ListProducts(ctx context.Context, categoryID string, page, size int) (Page[domain.Product], error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type catalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	now        func() time.Time
}

func NewCatalogService(categories repository.CategoryRepository, products repository.ProductRepository) CatalogService {
	return &catalogService{
		categories: categories,
		products:   products,
		now:        time.Now,
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	category, err := domain.NewCategory(in.Name, in.Description, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.Get(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context, page, size int) (Page[domain.Category], error) {
	page, size = normalizePage(page, size)
	items, err := s.categories.List(ctx, page, size)
	if err != nil {
		return Page[domain.Category]{}, err
	}
	total, err := s.categories.Count(ctx)
	if err != nil {
		return Page[domain.Category]{}, err
	}
	return Page[domain.Category]{Items: nonNil(items), Page: page, Size: size, Total: total}, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*domain.Category, error) {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(in.Name, in.Description, s.now()); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	product, err := domain.NewProduct(in.CategoryID, in.Name, in.Description, in.PriceCents, in.Stock, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, categoryID string, page, size int) (Page[domain.Product], error) {
	page, size = normalizePage(page, size)
	categoryID = strings.TrimSpace(categoryID)

	var (
		items []domain.Product
		total int
		err   error
	)
	if categoryID == "" {
		items, err = s.products.List(ctx, page, size)
		if err == nil {
			total, err = s.products.Count(ctx)
		}
	} else {
		items, err = s.products.ListByCategory(ctx, categoryID, page, size)
		if err == nil {
			total, err = s.products.CountByCategory(ctx, categoryID)
		}
	}
	if err != nil {
		return Page[domain.Product]{}, err
	}
	return Page[domain.Product]{Items: nonNil(items), Page: page, Size: size, Total: total}, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Update(in.CategoryID, in.Name, in.Description, in.PriceCents, in.Stock, s.now()); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
