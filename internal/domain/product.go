package domain

import "time"

// Variant is the catalog view of one sellable product variant, including its
// current available quantity.
type Variant struct {
	ProductID  string            `json:"productId"`
	VariantID  string            `json:"variantId"`
	ProductKey string            `json:"productKey,omitempty"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Brand      string            `json:"brand,omitempty"`
	Image      string            `json:"image,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	PriceList  int64             `json:"priceList"`
	PriceSale  *int64            `json:"priceSale,omitempty"`
	Stock      int               `json:"stock"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
