package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type stubCarts struct {
	cart       *domain.Cart
	cleared    int
	clearErr   error
	reconciled int
}

func (c *stubCarts) Get(context.Context, string) (*domain.Cart, error) {
	return c.cart.Clone(), nil
}

// Consume mirrors the cart service: the cart is emptied only when place
// succeeds, and a failed clear is swallowed.
func (c *stubCarts) Consume(_ context.Context, _ string, place func(*domain.Cart) error) error {
	if err := place(c.cart.Clone()); err != nil {
		return err
	}
	if c.clearErr != nil {
		return nil
	}
	c.cleared++
	c.cart.Lines = nil
	c.cart.Discount = nil
	return nil
}

func (c *stubCarts) Reconcile(context.Context, string) (*domain.Cart, error) {
	c.reconciled++
	return c.cart.Clone(), nil
}

type stubAddresses []domain.Address

func (a *stubAddresses) List(context.Context, string) ([]domain.Address, error) {
	return append([]domain.Address(nil), (*a)...), nil
}

type stubOrders struct {
	created []domain.NewOrderRequest
	err     error
}

func (o *stubOrders) Create(_ context.Context, req domain.NewOrderRequest) (*domain.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.created = append(o.created, req)
	order := domain.NewOrder(req, "ORD-20240501-001", time.Now())
	order.ID = "o-1"
	return &order, nil
}

type fixture struct {
	svc       *Service
	carts     *stubCarts
	addresses *stubAddresses
	orders    *stubOrders
}

func newFixture() fixture {
	sale := int64(900000)
	carts := &stubCarts{cart: &domain.Cart{
		ID:         "cart-1",
		CustomerID: "c1",
		Lines: []domain.CartLine{{
			ID: "l1", ProductID: "p1", VariantID: "v1", Name: "Linen Shirt",
			Quantity: 2, PriceList: 1000000, PriceSale: &sale, Stock: 5,
		}},
		ItemCount: 2,
		Subtotal:  1800000,
		Total:     1800000,
	}}
	addresses := &stubAddresses{
		{ID: "a1", RecipientName: "Lan", Phone: "0900000000", Street: "1 Trang Tien", Province: "Ha Noi", IsDefault: true},
		{ID: "a2", RecipientName: "Minh", Phone: "0911111111", Street: "2 Le Loi", Province: "Ho Chi Minh"},
	}
	orders := &stubOrders{}
	svc := New(Deps{Carts: carts, Addresses: addresses, Orders: orders, IdleTimeout: time.Minute})
	return fixture{svc: svc, carts: carts, addresses: addresses, orders: orders}
}

func walkToReview(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, "c1")
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, "c1")
	require.NoError(t, err)
	_, err = f.svc.SelectPaymentMethod(ctx, "c1", "COD")
	require.NoError(t, err)
	v, err := f.svc.Advance(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "REVIEW", v.Step)
}

func TestBeginPreselectsDefaultAndReconciles(t *testing.T) {
	f := newFixture()

	v, err := f.svc.Begin(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "ADDRESS", v.Step)
	assert.Equal(t, "a1", v.AddressID)
	assert.NotNil(t, v.Cart)
	assert.Equal(t, 1, f.carts.reconciled)
}

func TestConfirmPlacesOrderAndClearsCart(t *testing.T) {
	f := newFixture()
	walkToReview(t, f)
	ctx := context.Background()

	o, err := f.svc.Confirm(ctx, "c1", "  leave at the door ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)
	require.Len(t, f.orders.created, 1)
	req := f.orders.created[0]
	assert.Equal(t, int64(900000), req.Items[0].UnitPrice)
	assert.Equal(t, "Ha Noi", req.ShippingAddress.Province)
	assert.Equal(t, "leave at the door", req.Note)
	assert.Equal(t, 1, f.carts.cleared)

	_, err = f.svc.Confirm(ctx, "c1", "")
	assert.ErrorIs(t, err, domain.ErrCheckoutCompleted)
	_, err = f.svc.SelectPaymentMethod(ctx, "c1", "MOMO")
	assert.ErrorIs(t, err, domain.ErrCheckoutCompleted)

	v, err := f.svc.State(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "PLACED", v.Step)
	assert.Equal(t, o.Code, v.Order.Code)
}

func TestConfirmUsesCurrentAddressValues(t *testing.T) {
	f := newFixture()
	walkToReview(t, f)
	(*f.addresses)[0].Street = "99 Hang Bac"

	_, err := f.svc.Confirm(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, "99 Hang Bac", f.orders.created[0].ShippingAddress.Street)
}

func TestConfirmFailureLeavesCartPopulated(t *testing.T) {
	f := newFixture()
	walkToReview(t, f)
	f.orders.err = domain.Upstream("create order", errors.New("timeout"))

	_, err := f.svc.Confirm(context.Background(), "c1", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.Zero(t, f.carts.cleared)
	assert.Len(t, f.carts.cart.Lines, 1)
	assert.Empty(t, f.orders.created)

	f.orders.err = nil
	_, err = f.svc.Confirm(context.Background(), "c1", "")
	require.NoError(t, err, "the actor may retry explicitly")
}

func TestConfirmGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, "c1")
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, "c1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStep, "confirm only from review")

	walkToReview(t, f)
	f.carts.cart.Lines = nil
	_, err = f.svc.Confirm(ctx, "c1", "")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, f.orders.created)
}

func TestClearFailureAfterOrderIsNotSurfaced(t *testing.T) {
	f := newFixture()
	walkToReview(t, f)
	f.carts.clearErr = errors.New("redis down")

	o, err := f.svc.Confirm(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestSelectAddressMustBelongToCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, "c1")
	require.NoError(t, err)

	_, err = f.svc.SelectAddress(ctx, "c1", "a9")
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)

	v, err := f.svc.SelectAddress(ctx, "c1", "a2")
	require.NoError(t, err)
	assert.Equal(t, "a2", v.AddressID)
}

func TestGoToStepOnlyBackwards(t *testing.T) {
	f := newFixture()
	walkToReview(t, f)
	ctx := context.Background()

	v, err := f.svc.GoToStep(ctx, "c1", int(StepPayment))
	require.NoError(t, err)
	assert.Equal(t, "PAYMENT", v.Step)
	assert.Equal(t, domain.PaymentCOD, v.PaymentMethod)

	_, err = f.svc.GoToStep(ctx, "c1", int(StepReview))
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
}

func TestIdleSessionRestartsAtAddress(t *testing.T) {
	f := newFixture()
	walkToReview(t, f)
	now := time.Now()
	f.svc.now = func() time.Time { return now.Add(2 * time.Minute) }

	v, err := f.svc.State(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "ADDRESS", v.Step)
	assert.Equal(t, "a1", v.AddressID)
	assert.Empty(t, v.PaymentMethod)
}

func TestSweepDropsIdleSessions(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Begin(context.Background(), "c1")
	require.NoError(t, err)

	assert.Zero(t, f.svc.Sweep())
	now := time.Now()
	f.svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.Equal(t, 1, f.svc.Sweep())
}
