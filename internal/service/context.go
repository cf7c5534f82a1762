package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Claims struct {
	CustomerID uuid.UUID
	IsAdmin    bool
	Exp        time.Time
}

type ctxKey string

const ctxClaimsKey ctxKey = "claims"

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxClaimsKey).(*Claims)
	return c, ok && c != nil
}

// CanActFor: покупатель действует только от своего имени, админ от любого.
func (c *Claims) CanActFor(customerID uuid.UUID) bool {
	return c != nil && (c.IsAdmin || c.CustomerID == customerID)
}
