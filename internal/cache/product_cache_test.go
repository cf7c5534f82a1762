package cache

import (
	"context"
	"testing"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRepo struct {
	repository.ProductRepo
	items map[uuid.UUID]*models.Product
	gets  int
}

func (r *countingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	r.gets++
	p, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *countingRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (bool, error) {
	p, ok := r.items[id]
	if !ok {
		return false, nil
	}
	p.Price = price
	return true, nil
}

func TestCachedProductRepo_HitsLocalCache(t *testing.T) {
	p := models.NewPizza("Margherita", decimal.RequireFromString("9.50"), nil)
	p.ID = uuid.New()
	inner := &countingRepo{items: map[uuid.UUID]*models.Product{p.ID: p}}
	c := NewCachedProductRepo(inner, nil, 16, 0, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Margherita", got.Name)
	}
	assert.Equal(t, 1, inner.gets)

	// копия из кэша не портит закэшированное значение
	got, _ := c.GetByID(ctx, p.ID)
	got.Name = "changed"
	again, _ := c.GetByID(ctx, p.ID)
	assert.Equal(t, "Margherita", again.Name)
}

func TestCachedProductRepo_MissIsNotCached(t *testing.T) {
	inner := &countingRepo{items: map[uuid.UUID]*models.Product{}}
	c := NewCachedProductRepo(inner, nil, 16, 0, zap.NewNop())
	ctx := context.Background()
	id := uuid.New()

	got, err := c.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, _ = c.GetByID(ctx, id)
	assert.Equal(t, 2, inner.gets)
	assert.Equal(t, 0, c.Len())
}

func TestCachedProductRepo_UpdatePriceInvalidates(t *testing.T) {
	p := models.NewPasta("Carbonara", decimal.RequireFromString("11.00"), nil)
	p.ID = uuid.New()
	inner := &countingRepo{items: map[uuid.UUID]*models.Product{p.ID: p}}
	c := NewCachedProductRepo(inner, nil, 16, 0, zap.NewNop())
	ctx := context.Background()

	_, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)

	ok, err := c.UpdatePrice(ctx, p.ID, decimal.RequireFromString("12.00"))
	require.NoError(t, err)
	require.True(t, ok)

	got, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.00").Equal(got.Price))
	assert.Equal(t, 2, inner.gets)

	c.Purge(ctx)
	assert.Equal(t, 0, c.Len())
}
