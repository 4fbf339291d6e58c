package discount

import (
	"context"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Repository is the discount catalog. Codes are stored upper-cased.
type Repository interface {
	Resolve(ctx context.Context, code string) (*domain.DiscountCode, error)
	Upsert(ctx context.Context, code domain.DiscountCode) error
}
