package product

import (
	"context"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Repository reads and writes sellable variants with their current stock.
type Repository interface {
	GetVariant(ctx context.Context, productID, variantID string) (*domain.Variant, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Variant, error)
	Upsert(ctx context.Context, v domain.Variant) (*domain.Variant, error)
}
