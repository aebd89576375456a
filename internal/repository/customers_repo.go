package repository

import (
	"context"

	"kimoncrm/internal/domain"
)

type CustomersRepository interface {
	ListCustomers(ctx context.Context, search string, page, size int) ([]*domain.Customer, int, error)
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) (string, error)
	UpdateCustomer(ctx context.Context, customerID string, c *domain.Customer) error
}
