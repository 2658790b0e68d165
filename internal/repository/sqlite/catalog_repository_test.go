package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

func TestCatalogRepositories(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	products := NewProductRepository(db)
	ctx := context.Background()
	now := time.Now()

	kitchen, err := domain.NewCategory("Kitchen", "pots and pans", now)
	require.NoError(t, err)
	require.NoError(t, categories.Create(ctx, kitchen))

	dup, err := domain.NewCategory("Kitchen", "", now)
	require.NoError(t, err)
	assert.ErrorIs(t, categories.Create(ctx, dup), repository.ErrConflict)

	kettle, err := domain.NewProduct(kitchen.ID, "Kettle", "", 2599, 3, now)
	require.NoError(t, err)
	require.NoError(t, products.Create(ctx, kettle))

	orphan, err := domain.NewProduct("no-such-category", "Orphan", "", 1, 1, now)
	require.NoError(t, err)
	assert.ErrorIs(t, products.Create(ctx, orphan), repository.ErrNotFound)

	require.NoError(t, kettle.Update(kitchen.ID, "Electric Kettle", "1.7l", 2999, 2, now.Add(time.Minute)))
	require.NoError(t, products.Update(ctx, kettle))

	got, err := products.Get(ctx, kettle.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electric Kettle", got.Name)
	assert.EqualValues(t, 2999, got.PriceCents)

	list, err := products.ListByCategory(ctx, kitchen.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	inKitchen, err := products.CountByCategory(ctx, kitchen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inKitchen)

	assert.ErrorIs(t, categories.Delete(ctx, kitchen.ID), repository.ErrConflict, "category with products cannot be deleted")

	require.NoError(t, products.Delete(ctx, kettle.ID))
	assert.ErrorIs(t, products.Delete(ctx, kettle.ID), repository.ErrNotFound)
	require.NoError(t, categories.Delete(ctx, kitchen.ID))

	_, err = categories.Get(ctx, kitchen.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := categories.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
