package cart

import (
	"context"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Repository persists one cart per customer. Save writes lines, discount
// application and derived totals in a single transaction.
type Repository interface {
	Ensure(ctx context.Context, customerID string) (*domain.Cart, error)
	GetByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
}
