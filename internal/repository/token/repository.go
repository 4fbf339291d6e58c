package token

import (
	"context"
	"time"
)

// KindAccess is the only token kind the storefront issues.
const KindAccess = "access"

// Token maps an opaque bearer token to the customer it authenticates.
type Token struct {
	Token      string
	CustomerID string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
