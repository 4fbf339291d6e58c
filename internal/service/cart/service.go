package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/cache"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/metrics"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/pricing"
	discountrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/discount"
)

// StockOracle reports a variant's current price and available quantity.
type StockOracle interface {
	Variant(ctx context.Context, productID, variantID string) (*domain.Variant, error)
}

type DiscountCatalog interface {
	Resolve(ctx context.Context, code string) (*domain.DiscountCode, error)
}

type cartRepo interface {
	Ensure(ctx context.Context, customerID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
}

type Service struct {
	repo      cartRepo
	stock     StockOracle
	discounts DiscountCatalog
	cache     cache.CartCache
	policy    pricing.Policy
	metrics   *metrics.Metrics
	logger    *log.Logger

	locks keyedMutex
	reads singleflight.Group

	now   func() time.Time
	newID func() string
}

type Deps struct {
	Repo      cartRepo
	Stock     StockOracle
	Discounts DiscountCatalog
	Cache     cache.CartCache
	Policy    pricing.Policy
	Metrics   *metrics.Metrics
	Logger    *log.Logger
}

func New(d Deps) *Service {
	c := d.Cache
	if c == nil {
		c = cache.Noop{}
	}
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:      d.Repo,
		stock:     d.Stock,
		discounts: d.Discounts,
		cache:     c,
		policy:    d.Policy,
		metrics:   d.Metrics,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Get returns the customer's priced cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	v, err, _ := s.reads.Do(customerID, func() (any, error) {
		cached, err := s.cache.Get(ctx, customerID)
		if err == nil {
			s.metrics.CacheLookup(true)
			return cached, nil
		}
		s.metrics.CacheLookup(false)
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Printf("cart: cache get customer=%s err=%v", customerID, err)
		}

		unlock := s.locks.Lock(customerID)
		defer unlock()
		current, err := s.repo.Ensure(ctx, customerID)
		if err != nil {
			return nil, domain.Upstream("load cart", err)
		}
		s.policy.Apply(current)
		if err := s.cache.Set(ctx, customerID, current); err != nil {
			s.logger.Printf("cart: cache set customer=%s err=%v", customerID, err)
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart).Clone(), nil
}

// AddItem adds quantity of a variant. An existing line for the same variant
// grows up to the available stock; a new line must fit in stock.
func (s *Service) AddItem(ctx context.Context, customerID, productID, variantID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, s.refuse("add_item", domain.ErrInvalidQuantity)
	}
	v, err := s.stock.Variant(ctx, productID, variantID)
	if err != nil {
		return nil, s.refuse("add_item", domain.Upstream("get stock", err))
	}
	if v.Stock <= 0 {
		return nil, s.refuse("add_item", domain.OutOfStock())
	}

	return s.mutate(ctx, customerID, "add_item", func(c *domain.Cart) error {
		if i := c.FindVariant(productID, variantID); i >= 0 {
			line := &c.Lines[i]
			syncLine(line, v)
			line.Quantity = min(line.Quantity+quantity, v.Stock)
			return nil
		}
		if quantity > v.Stock {
			return domain.InsufficientStock(v.Stock)
		}
		line := domain.CartLine{
			ID:        s.newID(),
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			AddedAt:   s.now().UTC(),
		}
		syncLine(&line, v)
		c.Lines = append(c.Lines, line)
		return nil
	})
}

// UpdateQuantity sets a line's quantity, checked against the stock recorded
// on the line.
func (s *Service) UpdateQuantity(ctx context.Context, customerID, itemID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, customerID, "update_quantity", func(c *domain.Cart) error {
		i := c.FindLine(itemID)
		if i < 0 {
			return domain.ErrItemNotFound
		}
		if quantity < 1 {
			return domain.ErrInvalidQuantity
		}
		if quantity > c.Lines[i].Stock {
			return domain.InsufficientStock(c.Lines[i].Stock)
		}
		c.Lines[i].Quantity = quantity
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, customerID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, customerID, "remove_item", func(c *domain.Cart) error {
		i := c.FindLine(itemID)
		if i < 0 {
			return domain.ErrItemNotFound
		}
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	})
}

// Clear empties the cart and drops any discount. Clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, customerID string) (*domain.Cart, error) {
	return s.mutate(ctx, customerID, "clear", func(c *domain.Cart) error {
		c.Lines = nil
		c.Discount = nil
		return nil
	})
}

// ApplyDiscountCode activates code on the cart, replacing any other code.
// Re-applying the active code changes nothing.
func (s *Service) ApplyDiscountCode(ctx context.Context, customerID, code string) (*domain.Cart, error) {
	code = discountrepo.Normalize(code)
	if code == "" {
		return nil, s.refuse("apply_discount", domain.ErrInvalidDiscountCode)
	}
	dc, err := s.discounts.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.refuse("apply_discount", domain.ErrInvalidDiscountCode)
		}
		return nil, s.refuse("apply_discount", domain.Upstream("resolve discount", err))
	}
	if !dc.UsableAt(s.now()) {
		return nil, s.refuse("apply_discount", domain.ErrInvalidDiscountCode)
	}

	return s.mutate(ctx, customerID, "apply_discount", func(c *domain.Cart) error {
		if c.Discount != nil && c.Discount.Code == dc.Code {
			return nil
		}
		s.policy.Apply(c)
		if dc.MinSubtotal > 0 && c.Subtotal < dc.MinSubtotal {
			return domain.ErrInvalidDiscountCode
		}
		c.Discount = domain.ApplicationFor(*dc)
		return nil
	})
}

func (s *Service) RemoveDiscountCode(ctx context.Context, customerID string) (*domain.Cart, error) {
	return s.mutate(ctx, customerID, "remove_discount", func(c *domain.Cart) error {
		c.Discount = nil
		return nil
	})
}

// Reconcile refreshes every line from the stock oracle. Lines whose variant
// vanished or sold out are dropped; the rest are clamped to current stock.
// Like every mutation it also drops a discount code that is no longer usable.
func (s *Service) Reconcile(ctx context.Context, customerID string) (*domain.Cart, error) {
	return s.mutate(ctx, customerID, "reconcile", func(c *domain.Cart) error {
		kept := c.Lines[:0]
		for _, line := range c.Lines {
			v, err := s.stock.Variant(ctx, line.ProductID, line.VariantID)
			switch {
			case errors.Is(err, domain.ErrVariantNotFound):
				s.logger.Printf("cart: reconcile dropped missing variant customer=%s product=%s variant=%s", customerID, line.ProductID, line.VariantID)
				continue
			case err != nil:
				return domain.Upstream("get stock", err)
			case v.Stock <= 0:
				continue
			}
			syncLine(&line, v)
			line.Quantity = min(line.Quantity, v.Stock)
			kept = append(kept, line)
		}
		c.Lines = kept
		return nil
	})
}

// Consume hands place the current priced cart while holding the customer's
// lock, then empties the cart. Nothing is cleared when place fails. Failing
// to persist the emptied cart afterwards is logged, not returned.
func (s *Service) Consume(ctx context.Context, customerID string, place func(*domain.Cart) error) error {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	current, err := s.repo.Ensure(ctx, customerID)
	if err != nil {
		return s.refuse("consume", domain.Upstream("load cart", err))
	}
	snapshot := current.Clone()
	s.dropLapsedDiscount(ctx, snapshot)
	s.policy.Apply(snapshot)
	if err := place(snapshot); err != nil {
		return s.refuse("consume", err)
	}

	emptied := current.Clone()
	emptied.Lines = nil
	emptied.Discount = nil
	s.policy.Apply(emptied)
	if err := s.repo.Save(ctx, emptied); err != nil {
		s.logger.Printf("cart: clear after consume customer=%s err=%v", customerID, err)
	}
	s.invalidate(customerID)
	s.metrics.CartOp("consume", nil)
	return nil
}

// mutate applies fn to a copy of the stored cart, reprices it and persists
// lines, discount and totals together. On any failure the stored cart is
// left as it was.
func (s *Service) mutate(ctx context.Context, customerID, op string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	current, err := s.repo.Ensure(ctx, customerID)
	if err != nil {
		return nil, s.refuse(op, domain.Upstream("load cart", err))
	}
	next := current.Clone()
	s.dropLapsedDiscount(ctx, next)
	if err := fn(next); err != nil {
		return nil, s.refuse(op, err)
	}
	s.policy.Apply(next)
	if err := s.repo.Save(ctx, next); err != nil {
		return nil, s.refuse(op, domain.Upstream("save cart", err))
	}
	s.invalidate(customerID)
	s.metrics.CartOp(op, nil)
	return next, nil
}

// dropLapsedDiscount removes an applied code that has since expired, been
// deactivated or been deleted. A failed lookup keeps the application.
func (s *Service) dropLapsedDiscount(ctx context.Context, c *domain.Cart) {
	if c.Discount == nil {
		return
	}
	dc, err := s.discounts.Resolve(ctx, c.Discount.Code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		s.logger.Printf("cart: recheck discount customer=%s code=%s err=%v", c.CustomerID, c.Discount.Code, err)
		return
	case dc.UsableAt(s.now()):
		return
	}
	s.logger.Printf("cart: dropped lapsed discount customer=%s code=%s", c.CustomerID, c.Discount.Code)
	c.Discount = nil
}

func (s *Service) refuse(op string, err error) error {
	s.metrics.CartOp(op, err)
	return err
}

func (s *Service) invalidate(customerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, customerID); err != nil {
		s.logger.Printf("cart: cache invalidate customer=%s err=%v", customerID, err)
	}
}

// syncLine copies the oracle's display fields, prices and stock onto line.
func syncLine(line *domain.CartLine, v *domain.Variant) {
	line.Name = v.Name
	line.Image = v.Image
	line.Brand = v.Brand
	line.SKU = v.SKU
	line.PriceList = v.PriceList
	line.PriceSale = nil
	if v.PriceSale != nil {
		sale := *v.PriceSale
		line.PriceSale = &sale
	}
	line.Stock = v.Stock
	if len(v.Attributes) > 0 {
		attrs := make(map[string]string, len(v.Attributes))
		for k, val := range v.Attributes {
			attrs[k] = val
		}
		line.Attributes = attrs
	}
}
