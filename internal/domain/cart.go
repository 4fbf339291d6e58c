package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-customer basket together with its derived price breakdown.
type Cart struct {
	ID         string               `json:"id"`
	CustomerID string               `json:"customerId"`
	Lines      []CartLine           `json:"lineItems"`
	Discount   *DiscountApplication `json:"discount,omitempty"`
	ItemCount  int                  `json:"itemCount"`
	Subtotal   int64                `json:"subtotal"`
	// DiscountAmount mirrors Discount.Amount, or 0 when no code is active.
	DiscountAmount int64     `json:"discountAmount"`
	Shipping       int64     `json:"shipping"`
	Total          int64     `json:"total"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CartLine is one product+variant pair in a cart. Display fields are
// denormalized from the catalog at the time the line was last synced.
type CartLine struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"productId"`
	VariantID  string            `json:"variantId"`
	Quantity   int               `json:"quantity"`
	Name       string            `json:"name"`
	Image      string            `json:"image,omitempty"`
	Brand      string            `json:"brand,omitempty"`
	SKU        string            `json:"sku,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	PriceList  int64             `json:"priceList"`
	PriceSale  *int64            `json:"priceSale,omitempty"`
	Stock      int               `json:"stock"`
	AddedAt    time.Time         `json:"addedAt"`
}

// UnitPrice is the sale price when present and lower than the list price.
func (l CartLine) UnitPrice() int64 {
	if l.PriceSale != nil && *l.PriceSale < l.PriceList {
		return *l.PriceSale
	}
	return l.PriceList
}

func (l CartLine) LineTotal() int64 {
	return l.UnitPrice() * int64(l.Quantity)
}

// FindLine returns the index of the line with the given id, or -1.
func (c *Cart) FindLine(id string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return i
		}
	}
	return -1
}

// FindVariant returns the index of the line holding productID+variantID, or -1.
func (c *Cart) FindVariant(productID, variantID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so a failed mutation never leaks into the caller's snapshot.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Lines = make([]CartLine, len(c.Lines))
	for i, l := range c.Lines {
		if l.PriceSale != nil {
			sale := *l.PriceSale
			l.PriceSale = &sale
		}
		if l.Attributes != nil {
			attrs := make(map[string]string, len(l.Attributes))
			for k, v := range l.Attributes {
				attrs[k] = v
			}
			l.Attributes = attrs
		}
		out.Lines[i] = l
	}
	if c.Discount != nil {
		d := *c.Discount
		out.Discount = &d
	}
	return &out
}

// DiscountCode is a catalog entry resolvable by code.
type DiscountCode struct {
	Code        string          `json:"code"`
	Percentage  decimal.Decimal `json:"percentage"`
	Cap         int64           `json:"cap"`
	MinSubtotal int64           `json:"minSubtotal,omitempty"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	Active      bool            `json:"active"`
}

// UsableAt reports whether the code can be applied at the given instant.
func (d DiscountCode) UsableAt(now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.ExpiresAt != nil && !now.Before(*d.ExpiresAt) {
		return false
	}
	return d.Percentage.IsPositive() && d.Percentage.LessThanOrEqual(decimal.NewFromInt(100))
}

// DiscountApplication is the code currently active on a cart and the amount
// it took off the last computed subtotal.
type DiscountApplication struct {
	Code        string          `json:"code"`
	Percentage  decimal.Decimal `json:"percentage"`
	Cap         int64           `json:"cap"`
	MinSubtotal int64           `json:"minSubtotal,omitempty"`
	Amount      int64           `json:"amount"`
}

// ApplicationFor turns a resolved code into a cart application.
func ApplicationFor(code DiscountCode) *DiscountApplication {
	return &DiscountApplication{
		Code:        code.Code,
		Percentage:  code.Percentage,
		Cap:         code.Cap,
		MinSubtotal: code.MinSubtotal,
	}
}
