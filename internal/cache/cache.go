package cache

import (
	"context"
	"errors"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// CartCache holds read-through copies of priced carts keyed by customer.
type CartCache interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	Set(ctx context.Context, customerID string, cart *domain.Cart) error
	Delete(ctx context.Context, customerID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no Redis address is configured. Every lookup misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, string, *domain.Cart) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
