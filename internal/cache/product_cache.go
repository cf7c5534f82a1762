package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	productKeyPrefix = "pizzeria:product:"
	negativeTTL      = 30 * time.Second
)

// notFoundMarker лежит в Redis вместо товара, которого нет в базе.
var notFoundMarker = []byte("null")

// CachedProductRepo кэширует GetByID: сначала LRU в памяти, затем Redis (если есть), затем база.
// Остальные методы уходят в обёрнутый репозиторий; изменения сами сбрасывают кэш.
type CachedProductRepo struct {
	repository.ProductRepo

	local *lru.Cache[uuid.UUID, *models.Product]
	redis *RedisClient
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedProductRepo: redis может быть nil, тогда работает только локальный LRU.
func NewCachedProductRepo(inner repository.ProductRepo, redis *RedisClient, size int, ttl time.Duration, log *zap.Logger) *CachedProductRepo {
	local, err := lru.New[uuid.UUID, *models.Product](size)
	if err != nil {
		local, _ = lru.New[uuid.UUID, *models.Product](1024)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProductRepo{ProductRepo: inner, local: local, redis: redis, ttl: ttl, log: log}
}

func productKey(id uuid.UUID) string { return productKeyPrefix + id.String() }

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Ingredients = append([]models.Ingredient(nil), p.Ingredients...)
	return &cp
}

func (c *CachedProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := c.local.Get(id); ok {
		return cloneProduct(p), nil
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, productKey(id))
		switch {
		case err == nil && string(raw) == string(notFoundMarker):
			return nil, nil
		case err == nil:
			var p models.Product
			if err := json.Unmarshal(raw, &p); err == nil {
				c.local.Add(id, &p)
				return cloneProduct(&p), nil
			}
			c.log.Warn("corrupted product in redis", zap.String("product_id", id.String()))
		case !errors.Is(err, ErrMiss):
			c.log.Warn("redis get failed", zap.String("product_id", id.String()), zap.Error(err))
		}
	}

	p, err := c.ProductRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		c.storeMiss(ctx, id)
		return nil, nil
	}
	c.store(ctx, p)
	return cloneProduct(p), nil
}

func (c *CachedProductRepo) store(ctx context.Context, p *models.Product) {
	c.local.Add(p.ID, cloneProduct(p))
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, productKey(p.ID), raw, c.ttl); err != nil {
		c.log.Warn("redis set failed", zap.String("product_id", p.ID.String()), zap.Error(err))
	}
}

// storeMiss кэширует отсутствие товара только в Redis и ненадолго.
func (c *CachedProductRepo) storeMiss(ctx context.Context, id uuid.UUID) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, productKey(id), notFoundMarker, negativeTTL); err != nil {
		c.log.Warn("redis set failed", zap.String("product_id", id.String()), zap.Error(err))
	}
}

func (c *CachedProductRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (bool, error) {
	ok, err := c.ProductRepo.UpdatePrice(ctx, id, price)
	c.Invalidate(ctx, id)
	return ok, err
}

func (c *CachedProductRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := c.ProductRepo.Delete(ctx, id)
	if ok {
		c.Invalidate(ctx, id)
	}
	return ok, err
}

func (c *CachedProductRepo) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		c.local.Remove(id)
		keys = append(keys, productKey(id))
	}
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		c.log.Warn("redis del failed", zap.Int("keys", len(keys)), zap.Error(err))
	}
}

func (c *CachedProductRepo) Purge(ctx context.Context) {
	c.local.Purge()
	if c.redis == nil {
		return
	}
	n, err := c.redis.DelByPrefix(ctx, productKeyPrefix)
	if err != nil {
		c.log.Warn("redis purge failed", zap.Error(err))
		return
	}
	c.log.Debug("product cache purged", zap.Int64("redis_keys", n))
}

func (c *CachedProductRepo) Len() int { return c.local.Len() }
