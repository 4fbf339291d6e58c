package catalog

import (
	"context"
	"errors"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Source reports the current snapshot of a variant, including the quantity
// available to sell.
type Source interface {
	Variant(ctx context.Context, productID, variantID string) (*domain.Variant, error)
}

type variantGetter interface {
	GetVariant(ctx context.Context, productID, variantID string) (*domain.Variant, error)
}

// Local serves stock from the variants table.
type Local struct {
	repo variantGetter
}

func NewLocal(repo variantGetter) *Local {
	return &Local{repo: repo}
}

func (l *Local) Variant(ctx context.Context, productID, variantID string) (*domain.Variant, error) {
	v, err := l.repo.GetVariant(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, domain.Upstream("get stock", err)
	}
	return v, nil
}
