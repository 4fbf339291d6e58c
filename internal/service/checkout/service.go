package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/metrics"
)

type cartService interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	Reconcile(ctx context.Context, customerID string) (*domain.Cart, error)
	Consume(ctx context.Context, customerID string, place func(*domain.Cart) error) error
}

type addressLister interface {
	List(ctx context.Context, customerID string) ([]domain.Address, error)
}

type orderCreator interface {
	Create(ctx context.Context, req domain.NewOrderRequest) (*domain.Order, error)
}

// View is what callers see of a checkout in progress.
type View struct {
	Step          string               `json:"step"`
	StepIndex     int                  `json:"stepIndex"`
	AddressID     string               `json:"addressId,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod,omitempty"`
	Cart          *domain.Cart         `json:"cart,omitempty"`
	Order         *domain.Order        `json:"order,omitempty"`
}

type session struct {
	mu       sync.Mutex
	seq      *Sequencer
	lastSeen time.Time
}

// Service keeps one in-memory sequencer per customer. Sequencers are not
// persisted and restart at the address step after IdleTimeout.
type Service struct {
	carts     cartService
	addresses addressLister
	orders    orderCreator
	metrics   *metrics.Metrics
	logger    *log.Logger
	idle      time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type Deps struct {
	Carts       cartService
	Addresses   addressLister
	Orders      orderCreator
	Metrics     *metrics.Metrics
	Logger      *log.Logger
	IdleTimeout time.Duration
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	idle := d.IdleTimeout
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Service{
		carts:     d.Carts,
		addresses: d.Addresses,
		orders:    d.Orders,
		metrics:   d.Metrics,
		logger:    logger,
		idle:      idle,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Begin starts a fresh checkout at the address step with the default
// address preselected, after syncing the cart with current stock.
func (s *Service) Begin(ctx context.Context, customerID string) (*View, error) {
	cart, err := s.carts.Reconcile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	seq := NewSequencer()
	if err := s.preselect(ctx, customerID, seq); err != nil {
		return nil, err
	}

	sess := &session{seq: seq, lastSeen: s.now()}
	s.mu.Lock()
	s.sessions[customerID] = sess
	s.mu.Unlock()

	s.metrics.CheckoutStep(StepAddress.String())
	v := viewOf(seq)
	v.Cart = cart
	return v, nil
}

// State returns the current checkout together with the priced cart.
func (s *Service) State(ctx context.Context, customerID string) (*View, error) {
	var v *View
	err := s.with(ctx, customerID, func(seq *Sequencer) error {
		v = viewOf(seq)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if v.Order == nil {
		cart, err := s.carts.Get(ctx, customerID)
		if err != nil {
			return nil, err
		}
		v.Cart = cart
	}
	return v, nil
}

func (s *Service) SelectAddress(ctx context.Context, customerID, addressID string) (*View, error) {
	return s.apply(ctx, customerID, func(seq *Sequencer) error {
		if seq.Step() == StepPlaced {
			return domain.ErrCheckoutCompleted
		}
		if _, err := s.resolveAddress(ctx, customerID, addressID); err != nil {
			return err
		}
		return seq.SelectAddress(addressID)
	})
}

func (s *Service) SelectPaymentMethod(ctx context.Context, customerID, method string) (*View, error) {
	return s.apply(ctx, customerID, func(seq *Sequencer) error {
		return seq.SelectPaymentMethod(method)
	})
}

func (s *Service) Advance(ctx context.Context, customerID string) (*View, error) {
	return s.apply(ctx, customerID, func(seq *Sequencer) error {
		if err := seq.Advance(); err != nil {
			return err
		}
		s.metrics.CheckoutStep(seq.Step().String())
		return nil
	})
}

func (s *Service) GoToStep(ctx context.Context, customerID string, step int) (*View, error) {
	return s.apply(ctx, customerID, func(seq *Sequencer) error {
		if err := seq.GoToStep(Step(step)); err != nil {
			return err
		}
		s.metrics.CheckoutStep(seq.Step().String())
		return nil
	})
}

// Confirm places the order from the review step. The cart stays locked from
// the snapshot until it is emptied, and is emptied only after the order
// exists; if creation fails the cart and the sequencer are left as they were.
func (s *Service) Confirm(ctx context.Context, customerID, note string) (*domain.Order, error) {
	var placed *domain.Order
	err := s.with(ctx, customerID, func(seq *Sequencer) error {
		if err := seq.ready(); err != nil {
			return err
		}
		addr, err := s.resolveAddress(ctx, customerID, seq.AddressID())
		if err != nil {
			return err
		}

		var o *domain.Order
		err = s.carts.Consume(ctx, customerID, func(cart *domain.Cart) error {
			if len(cart.Lines) == 0 {
				return domain.ErrEmptyCart
			}
			req := domain.OrderRequestFromCart(cart, *addr, seq.PaymentMethod(), note)
			req.CustomerID = customerID
			created, err := s.orders.Create(ctx, req)
			if err != nil {
				return err
			}
			o = created
			return nil
		})
		if err != nil {
			return err
		}
		seq.placed(o)
		placed = o
		return nil
	})
	if err != nil {
		s.refused(err)
		return nil, err
	}
	s.logger.Printf("checkout: placed order code=%s customer=%s", placed.Code, customerID)
	s.metrics.CheckoutStep(StepPlaced.String())
	return placed, nil
}

// Sweep drops sequencers idle for longer than the timeout.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.mu.TryLock() {
			if sess.lastSeen.Before(cutoff) {
				delete(s.sessions, id)
				n++
			}
			sess.mu.Unlock()
		}
	}
	return n
}

// Run sweeps idle sequencers until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	t := time.NewTicker(s.idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Printf("checkout: expired %d idle sessions", n)
			}
		}
	}
}

func (s *Service) apply(ctx context.Context, customerID string, fn func(*Sequencer) error) (*View, error) {
	var v *View
	err := s.with(ctx, customerID, func(seq *Sequencer) error {
		if err := fn(seq); err != nil {
			return err
		}
		v = viewOf(seq)
		return nil
	})
	if err != nil {
		s.refused(err)
		return nil, err
	}
	return v, nil
}

// with runs fn against the customer's sequencer under its lock, starting a
// fresh one when none exists or the previous one went idle.
func (s *Service) with(ctx context.Context, customerID string, fn func(*Sequencer) error) error {
	sess, err := s.session(ctx, customerID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return fn(sess.seq)
}

func (s *Service) session(ctx context.Context, customerID string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[customerID]
	s.mu.Unlock()
	if ok {
		sess.mu.Lock()
		fresh := s.now().Sub(sess.lastSeen) <= s.idle
		sess.mu.Unlock()
		if fresh {
			return sess, nil
		}
	}

	seq := NewSequencer()
	if err := s.preselect(ctx, customerID, seq); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[customerID]; ok && cur != sess {
		return cur, nil
	}
	sess = &session{seq: seq, lastSeen: s.now()}
	s.sessions[customerID] = sess
	return sess, nil
}

func (s *Service) preselect(ctx context.Context, customerID string, seq *Sequencer) error {
	list, err := s.addresses.List(ctx, customerID)
	if err != nil {
		return domain.Upstream("list addresses", err)
	}
	for _, a := range list {
		if a.IsDefault {
			return seq.SelectAddress(a.ID)
		}
	}
	return nil
}

// resolveAddress returns the address's current field values.
func (s *Service) resolveAddress(ctx context.Context, customerID, addressID string) (*domain.Address, error) {
	list, err := s.addresses.List(ctx, customerID)
	if err != nil {
		return nil, domain.Upstream("list addresses", err)
	}
	for i := range list {
		if list[i].ID == addressID {
			return &list[i], nil
		}
	}
	return nil, domain.ErrAddressNotFound
}

func (s *Service) refused(err error) {
	var typed *domain.Error
	if errors.As(err, &typed) {
		s.metrics.CheckoutRefused(typed.Code)
	}
}

func viewOf(seq *Sequencer) *View {
	return &View{
		Step:          seq.Step().String(),
		StepIndex:     int(seq.Step()),
		AddressID:     seq.AddressID(),
		PaymentMethod: seq.PaymentMethod(),
		Order:         seq.Order(),
	}
}
