package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	now := time.Now()

	p, err := NewProduct("cat-1", "  Kettle ", "steel", 2599, 4, now)
	require.NoError(t, err)
	assert.Equal(t, "Kettle", p.Name)
	assert.NotEmpty(t, p.ID)

	_, err = NewProduct("cat-1", "Kettle", "", -1, 0, now)
	assert.ErrorIs(t, err, ErrInvalidCatalogItem)

	_, err = NewProduct("", "Kettle", "", 1, 0, now)
	assert.ErrorIs(t, err, ErrInvalidCatalogItem)

	_, err = NewProduct("cat-1", "Kettle", "", 1, -3, now)
	assert.ErrorIs(t, err, ErrInvalidCatalogItem)
}

func TestCategoryUpdate(t *testing.T) {
	created := time.Now()
	c, err := NewCategory("Kitchen", "", created)
	require.NoError(t, err)

	later := created.Add(time.Minute)
	require.NoError(t, c.Update("Home & Kitchen", "all of it", later))
	assert.Equal(t, "Home & Kitchen", c.Name)
	assert.Equal(t, later.UTC(), c.UpdatedAt)
	assert.Equal(t, created.UTC(), c.CreatedAt)

	assert.ErrorIs(t, c.Update(" ", "", later), ErrInvalidCatalogItem)
}
