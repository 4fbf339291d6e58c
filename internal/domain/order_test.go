package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder(now time.Time) Order {
	return NewOrder(NewOrderRequest{
		CustomerID:    "cust-1",
		Items:         []OrderItem{{ProductID: "p1", VariantID: "v1", Name: "Shirt", UnitPrice: 900000, Quantity: 2, Subtotal: 1800000}},
		PaymentMethod: PaymentCOD,
		Subtotal:      1800000,
		Discount:      100000,
		Total:         1700000,
	}, "ORD-20260115-001", now)
}

func TestNewOrder_SeedsPendingTimeline(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	o := sampleOrder(now)

	assert.Equal(t, StatusPending, o.Status)
	require.Len(t, o.Timeline, 1)
	assert.Equal(t, StatusPending, o.Timeline[0].Status)
	assert.Equal(t, "Order created", o.Timeline[0].Label)
	assert.True(t, o.Timeline[0].At.Equal(now))
	assert.True(t, o.CreatedAt.Equal(now))
}

func TestOrderCancel_AllowedOnlyBeforeProcessing(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	statuses := []OrderStatus{
		StatusPending, StatusConfirmed, StatusProcessing, StatusShipping,
		StatusDelivered, StatusCancelled, StatusReturned,
	}
	for _, st := range statuses {
		t.Run(string(st), func(t *testing.T) {
			o := sampleOrder(now)
			o.Status = st
			before := len(o.Timeline)

			err := o.Cancel("changed my mind", now.Add(time.Hour))
			if st == StatusPending || st == StatusConfirmed {
				require.NoError(t, err)
				assert.Equal(t, StatusCancelled, o.Status)
				require.NotNil(t, o.CancelledAt)
				assert.Len(t, o.Timeline, before+1)
				assert.Equal(t, "changed my mind", o.Timeline[len(o.Timeline)-1].Description)
				return
			}
			assert.True(t, errors.Is(err, ErrOrderNotCancellable))
			assert.Equal(t, st, o.Status)
			assert.Len(t, o.Timeline, before)
			assert.Nil(t, o.CancelledAt)
		})
	}
}

func TestOrderCancel_DefaultReason(t *testing.T) {
	now := time.Now()
	o := sampleOrder(now)
	require.NoError(t, o.Cancel("   ", now))
	assert.Equal(t, DefaultCancelReason, o.CancelReason)
	assert.Equal(t, DefaultCancelReason, o.Timeline[1].Description)
}

func TestOrderTimeline_StrictlyIncreasing(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	o := sampleOrder(now)

	// same clock reading for every step
	require.NoError(t, o.Advance(StatusConfirmed, "", now))
	require.NoError(t, o.Advance(StatusProcessing, "", now))
	require.NoError(t, o.Advance(StatusShipping, "GHN 12345", now.Add(-time.Minute)))

	for i := 1; i < len(o.Timeline); i++ {
		assert.True(t, o.Timeline[i].At.After(o.Timeline[i-1].At), "entry %d not after %d", i, i-1)
	}
	assert.Equal(t, StatusShipping, o.Status)
}

func TestOrderAdvance_RejectsSkipsAndBackwards(t *testing.T) {
	now := time.Now()
	o := sampleOrder(now)

	err := o.Advance(StatusShipping, "", now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, StatusPending, o.Status)
	assert.Len(t, o.Timeline, 1)

	err = o.Advance(StatusCancelled, "", now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	o.Status = StatusDelivered
	require.NoError(t, o.Advance(StatusReturned, "damaged", now))
	err = o.Advance(StatusDelivered, "", now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestFormatOrderCode(t *testing.T) {
	day := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20260307-001", FormatOrderCode(day, 1))
	assert.Equal(t, "ORD-20260307-042", FormatOrderCode(day, 42))
	assert.Equal(t, "ORD-20260307-1234", FormatOrderCode(day, 1234))
}

func TestOrderRequestFromCart_FreezesPrices(t *testing.T) {
	sale := int64(900000)
	cart := &Cart{
		CustomerID: "cust-1",
		Lines: []CartLine{
			{ProductID: "p1", VariantID: "v1", Name: "Shirt", PriceList: 1000000, PriceSale: &sale, Quantity: 2, Stock: 5},
		},
		Discount:       &DiscountApplication{Code: "SALE10", Amount: 100000},
		Subtotal:       1800000,
		DiscountAmount: 100000,
		Total:          1700000,
	}
	addr := Address{ID: "a1", RecipientName: "Lan", Phone: "0901", Street: "1 Le Loi", Province: "HCM"}

	req := OrderRequestFromCart(cart, addr, PaymentMoMo, "  leave at door ")

	require.Len(t, req.Items, 1)
	assert.Equal(t, int64(900000), req.Items[0].UnitPrice)
	assert.Equal(t, int64(1800000), req.Items[0].Subtotal)
	assert.Equal(t, "SALE10", req.DiscountCode)
	assert.Equal(t, "leave at door", req.Note)
	assert.Equal(t, "Lan", req.ShippingAddress.RecipientName)

	// later price edits on the cart do not reach the request
	*cart.Lines[0].PriceSale = 1
	assert.Equal(t, int64(900000), req.Items[0].UnitPrice)
}

func TestErrorMatching(t *testing.T) {
	err := InsufficientStock(3)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrOutOfStock))
	assert.Equal(t, KindStock, KindOf(err))

	var typed *Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, 3, typed.Available)

	up := Upstream("load cart", errors.New("conn reset"))
	assert.True(t, errors.Is(up, ErrUpstream))
	assert.Equal(t, KindUpstream, KindOf(up))
	assert.Equal(t, ErrItemNotFound, Upstream("x", ErrItemNotFound))
}
