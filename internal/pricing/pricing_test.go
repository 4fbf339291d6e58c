package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func TestApply_SaleItemWithCappedCode(t *testing.T) {
	cart := &domain.Cart{
		Lines: []domain.CartLine{
			{ID: "l1", PriceList: 1000000, PriceSale: int64Ptr(900000), Quantity: 2, Stock: 10},
		},
		Discount: &domain.DiscountApplication{Code: "SALE10", Percentage: decimal.NewFromInt(10), Cap: 100000},
	}

	DefaultPolicy().Apply(cart)

	assert.Equal(t, int64(1800000), cart.Subtotal)
	assert.Equal(t, int64(100000), cart.DiscountAmount)
	require.NotNil(t, cart.Discount)
	assert.Equal(t, int64(100000), cart.Discount.Amount)
	assert.Equal(t, int64(0), cart.Shipping)
	assert.Equal(t, int64(1700000), cart.Total)
	assert.Equal(t, 2, cart.ItemCount)
}

func TestApply_SalePriceIgnoredWhenNotLower(t *testing.T) {
	cart := &domain.Cart{
		Lines: []domain.CartLine{
			{PriceList: 100000, PriceSale: int64Ptr(120000), Quantity: 1, Stock: 1},
		},
	}
	DefaultPolicy().Apply(cart)
	assert.Equal(t, int64(100000), cart.Subtotal)
}

func TestApply_ShippingThresholdIsStrict(t *testing.T) {
	policy := Policy{FreeShippingThreshold: 500000, FlatShippingFee: 30000}
	cases := []struct {
		name     string
		price    int64
		shipping int64
	}{
		{"below", 499999, 30000},
		{"equal", 500000, 30000},
		{"above", 500001, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cart := &domain.Cart{Lines: []domain.CartLine{{PriceList: tc.price, Quantity: 1, Stock: 1}}}
			policy.Apply(cart)
			assert.Equal(t, tc.shipping, cart.Shipping)
			assert.Equal(t, cart.Subtotal-cart.DiscountAmount+cart.Shipping, cart.Total)
		})
	}
}

func TestApply_DiscountFollowsCurrentSubtotal(t *testing.T) {
	cart := &domain.Cart{
		Lines: []domain.CartLine{
			{ID: "a", PriceList: 800000, Quantity: 1, Stock: 3},
			{ID: "b", PriceList: 200000, Quantity: 1, Stock: 3},
		},
		Discount: &domain.DiscountApplication{Code: "BIG", Percentage: decimal.NewFromInt(20), Cap: 150000},
	}
	policy := DefaultPolicy()
	policy.Apply(cart)
	assert.Equal(t, int64(150000), cart.DiscountAmount)

	cart.Lines = cart.Lines[1:]
	policy.Apply(cart)
	assert.Equal(t, int64(40000), cart.DiscountAmount)
	assert.LessOrEqual(t, cart.DiscountAmount, cart.Subtotal)
	assert.Equal(t, int64(200000-40000+30000), cart.Total)
}

func TestApply_EmptyCartForcesZeroDiscount(t *testing.T) {
	cart := &domain.Cart{
		Discount: &domain.DiscountApplication{Code: "ALL", Percentage: decimal.NewFromInt(100)},
	}
	policy := Policy{FreeShippingThreshold: 0, FlatShippingFee: 0}
	policy.Apply(cart)
	assert.Equal(t, int64(0), cart.Subtotal)
	assert.Equal(t, int64(0), cart.DiscountAmount)
	assert.Equal(t, int64(0), cart.Total)
}

func TestApply_DropsApplicationBelowMinimum(t *testing.T) {
	cart := &domain.Cart{
		Lines:    []domain.CartLine{{PriceList: 100000, Quantity: 1, Stock: 1}},
		Discount: &domain.DiscountApplication{Code: "MIN300", Percentage: decimal.NewFromInt(5), MinSubtotal: 300000},
	}
	DefaultPolicy().Apply(cart)
	assert.Nil(t, cart.Discount)
	assert.Equal(t, int64(0), cart.DiscountAmount)
}

func TestDiscountAmount(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int64
		pct      string
		cap      int64
		want     int64
	}{
		{"capped", 1800000, "10", 100000, 100000},
		{"under cap", 500000, "10", 100000, 50000},
		{"uncapped", 500000, "10", 0, 50000},
		{"fractional floors", 99999, "12.5", 0, 12499},
		{"never above subtotal", 1000, "100", 0, 1000},
		{"zero subtotal", 0, "50", 0, 0},
		{"zero pct", 1000, "0", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DiscountAmount(tc.subtotal, decimal.RequireFromString(tc.pct), tc.cap)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApply_TotalNeverNegative(t *testing.T) {
	for _, qty := range []int{1, 2, 5} {
		for _, price := range []int64{1, 1000, 250000, 750000} {
			cart := &domain.Cart{
				Lines:    []domain.CartLine{{PriceList: price, Quantity: qty, Stock: qty}},
				Discount: &domain.DiscountApplication{Code: "X", Percentage: decimal.NewFromInt(100)},
			}
			DefaultPolicy().Apply(cart)
			want := cart.Subtotal - cart.DiscountAmount + cart.Shipping
			if want < 0 {
				want = 0
			}
			assert.Equal(t, want, cart.Total)
			assert.GreaterOrEqual(t, cart.Total, int64(0))
			assert.LessOrEqual(t, cart.DiscountAmount, cart.Subtotal)
		}
	}
}
