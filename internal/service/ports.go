package service

import (
	"context"
	"time"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
)

type CustomerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type ProductLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type TokenProvider interface {
	SignAccess(ctx context.Context, sub uuid.UUID, isAdmin bool, ttl time.Duration) (token string, exp time.Time, err error)
	ParseAndValidateAccess(ctx context.Context, token string) (*Claims, error)
}

// CacheInvalidator сбрасывает кэш товаров после изменений каталога.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID)
	Purge(ctx context.Context)
}
