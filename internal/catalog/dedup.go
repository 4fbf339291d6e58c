package catalog

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Dedup collapses concurrent lookups of the same variant into one call.
type Dedup struct {
	src   Source
	group singleflight.Group
}

func NewDedup(src Source) *Dedup {
	return &Dedup{src: src}
}

func (d *Dedup) Variant(ctx context.Context, productID, variantID string) (*domain.Variant, error) {
	v, err, _ := d.group.Do(dedupKey(productID, variantID), func() (any, error) {
		return d.src.Variant(ctx, productID, variantID)
	})
	if err != nil {
		return nil, err
	}
	out := *v.(*domain.Variant)
	return &out, nil
}

// dedupKey is length-prefixed so no pair of ids can collide.
func dedupKey(productID, variantID string) string {
	return strconv.Itoa(len(productID)) + ":" + productID + variantID
}
