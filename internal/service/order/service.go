package order

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type orderRepo interface {
	Create(ctx context.Context, req domain.NewOrderRequest, now time.Time) (*domain.Order, error)
	Mutate(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error)
}

// Service exposes order lookups scoped to the owning customer, customer
// cancellation, and fulfillment-driven status changes.
type Service struct {
	repo    orderRepo
	metrics *metrics.Metrics
	logger  *log.Logger
	now     func() time.Time
}

func New(repo orderRepo, m *metrics.Metrics, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, metrics: m, logger: logger, now: time.Now}
}

// Page is one slice of a customer's order history.
type Page struct {
	Orders []domain.Order `json:"results"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Create stores a PENDING order. Callers validate the request beforehand.
func (s *Service) Create(ctx context.Context, req domain.NewOrderRequest) (*domain.Order, error) {
	o, err := s.repo.Create(ctx, req, s.now())
	if err != nil {
		return nil, domain.Upstream("create order", err)
	}
	s.metrics.OrderCreated()
	s.metrics.OrderStatusChanged(string(o.Status))
	s.logger.Printf("order: created code=%s customer=%s total=%d", o.Code, o.CustomerID, o.Total)
	return o, nil
}

func (s *Service) Get(ctx context.Context, customerID, id string) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	return owned(o, err, customerID)
}

func (s *Service) GetByCode(ctx context.Context, customerID, code string) (*domain.Order, error) {
	o, err := s.repo.GetByCode(ctx, code)
	return owned(o, err, customerID)
}

func (s *Service) List(ctx context.Context, customerID string, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	orders, total, err := s.repo.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, domain.Upstream("list orders", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &Page{Orders: orders, Total: total, Limit: limit, Offset: offset}, nil
}

// Cancel moves the customer's own order to CANCELLED. An empty reason
// records the default one.
func (s *Service) Cancel(ctx context.Context, customerID, id, reason string) (*domain.Order, error) {
	o, err := s.repo.Mutate(ctx, id, func(o *domain.Order) error {
		if o.CustomerID != customerID {
			return domain.ErrOrderNotFound
		}
		return o.Cancel(reason, s.now())
	})
	if err != nil {
		return nil, mapErr("cancel order", err)
	}
	s.metrics.OrderStatusChanged(string(o.Status))
	s.logger.Printf("order: cancelled code=%s reason=%q", o.Code, o.CancelReason)
	return o, nil
}

// Advance applies a status change reported by fulfillment.
func (s *Service) Advance(ctx context.Context, id string, to domain.OrderStatus, description string) (*domain.Order, error) {
	o, err := s.repo.Mutate(ctx, id, func(o *domain.Order) error {
		return o.Advance(to, description, s.now())
	})
	if err != nil {
		return nil, mapErr("advance order", err)
	}
	s.metrics.OrderStatusChanged(string(o.Status))
	s.logger.Printf("order: code=%s status=%s", o.Code, o.Status)
	return o, nil
}

func owned(o *domain.Order, err error, customerID string) (*domain.Order, error) {
	if err != nil {
		return nil, mapErr("get order", err)
	}
	if o.CustomerID != customerID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrOrderNotFound
	}
	return domain.Upstream(op, err)
}
