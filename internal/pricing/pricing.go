// Package pricing derives a cart's price breakdown from its lines and the
// active discount application.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Policy holds the shipping rules. Both values are configuration, not constants.
type Policy struct {
	// FreeShippingThreshold is the subtotal that must be exceeded for free shipping.
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

// DefaultPolicy matches the storefront's published shipping terms.
func DefaultPolicy() Policy {
	return Policy{FreeShippingThreshold: 500000, FlatShippingFee: 30000}
}

var hundred = decimal.NewFromInt(100)

// Apply recomputes every derived field of cart in place:
//
//	subtotal = Σ unitPrice × quantity
//	discount = min(subtotal × pct / 100, cap), 0 when subtotal is 0
//	shipping = 0 if subtotal > threshold else flat fee
//	total    = max(0, subtotal − discount + shipping)
//
// An application whose minimum subtotal is no longer met is dropped.
func (p Policy) Apply(cart *domain.Cart) {
	var subtotal int64
	count := 0
	for _, l := range cart.Lines {
		subtotal += l.LineTotal()
		count += l.Quantity
	}
	cart.ItemCount = count
	cart.Subtotal = subtotal

	if cart.Discount != nil && cart.Discount.MinSubtotal > 0 && subtotal < cart.Discount.MinSubtotal {
		cart.Discount = nil
	}
	cart.DiscountAmount = 0
	if cart.Discount != nil {
		cart.Discount.Amount = DiscountAmount(subtotal, cart.Discount.Percentage, cart.Discount.Cap)
		cart.DiscountAmount = cart.Discount.Amount
	}

	cart.Shipping = p.Shipping(subtotal)

	total := subtotal - cart.DiscountAmount + cart.Shipping
	if total < 0 {
		total = 0
	}
	cart.Total = total
}

// Shipping returns the fee owed for a given subtotal.
func (p Policy) Shipping(subtotal int64) int64 {
	if subtotal > p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}

// DiscountAmount computes the capped percentage discount, floored to whole
// currency units and never above the subtotal. A cap of 0 means uncapped.
func DiscountAmount(subtotal int64, percentage decimal.Decimal, cap int64) int64 {
	if subtotal <= 0 || !percentage.IsPositive() {
		return 0
	}
	amount := decimal.NewFromInt(subtotal).Mul(percentage).Div(hundred).Floor().IntPart()
	if cap > 0 && amount > cap {
		amount = cap
	}
	if amount > subtotal {
		amount = subtotal
	}
	return amount
}
