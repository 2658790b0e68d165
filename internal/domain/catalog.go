package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxCatalogNameLength = 200

var ErrInvalidCatalogItem = errors.New("invalid catalog item")

// Category groups products in the catalog.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product is a sellable catalog entry. Prices are kept in minor units.
type Product struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCategory(name, description string, now time.Time) (*Category, error) {
	c := &Category{ID: uuid.NewString(), CreatedAt: now.UTC()}
	if err := c.Update(name, description, now); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Category) Update(name, description string, now time.Time) error {
	name, err := catalogName(name)
	if err != nil {
		return err
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.UpdatedAt = now.UTC()
	return nil
}

func NewProduct(categoryID, name, description string, priceCents int64, stock int, now time.Time) (*Product, error) {
	p := &Product{ID: uuid.NewString(), CreatedAt: now.UTC()}
	if err := p.Update(categoryID, name, description, priceCents, stock, now); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) Update(categoryID, name, description string, priceCents int64, stock int, now time.Time) error {
	name, err := catalogName(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(categoryID) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidCatalogItem)
	}
	if priceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidCatalogItem)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidCatalogItem)
	}
	p.CategoryID = strings.TrimSpace(categoryID)
	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.PriceCents = priceCents
	p.Stock = stock
	p.UpdatedAt = now.UTC()
	return nil
}

func catalogName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidCatalogItem)
	}
	if len([]rune(name)) > maxCatalogNameLength {
		return "", fmt.Errorf("%w: name must not exceed %d characters", ErrInvalidCatalogItem, maxCatalogNameLength)
	}
	return name, nil
}
