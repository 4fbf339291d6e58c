package address

import (
	"context"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Repository is the slice of the address book the engine needs. At most one
// address per customer is default; writes that set a default clear the others.
type Repository interface {
	List(ctx context.Context, customerID string) ([]domain.Address, error)
	Get(ctx context.Context, customerID, id string) (*domain.Address, error)
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	SetDefault(ctx context.Context, customerID, id string) (*domain.Address, error)
}
