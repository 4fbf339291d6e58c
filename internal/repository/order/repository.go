package order

import (
	"context"
	"time"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

const (
	EventCreated       = "order.created"
	EventCancelled     = "order.cancelled"
	EventStatusChanged = "order.status_changed"
)

// Repository persists orders. Every write also records an outbox event in
// the same transaction.
type Repository interface {
	// Create allocates the next code for now's UTC day and stores a PENDING order.
	Create(ctx context.Context, req domain.NewOrderRequest, now time.Time) (*domain.Order, error)
	// Mutate loads the order under a row lock, applies fn and persists the
	// result. Nothing is written when fn fails.
	Mutate(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	// ListByCustomer returns one page, newest first, and the total count.
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error)
}

// Event is the payload published for order changes.
type Event struct {
	OrderID    string             `json:"orderId"`
	Code       string             `json:"code"`
	CustomerID string             `json:"customerId"`
	Status     domain.OrderStatus `json:"status"`
	Total      int64              `json:"total"`
	Reason     string             `json:"reason,omitempty"`
	At         time.Time          `json:"at"`
}

func eventTypeFor(o *domain.Order) string {
	if o.Status == domain.StatusCancelled {
		return EventCancelled
	}
	return EventStatusChanged
}

func eventFor(o *domain.Order) Event {
	ev := Event{
		OrderID:    o.ID,
		Code:       o.Code,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		Total:      o.Total,
		At:         o.UpdatedAt,
	}
	if n := len(o.Timeline); n > 0 {
		ev.Reason = o.Timeline[n-1].Description
	}
	return ev
}
