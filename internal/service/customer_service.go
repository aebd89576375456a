package service

import (
	"context"
	"fmt"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"

	"go.uber.org/zap"
)

type CustomerService interface {
	ListCustomers(ctx context.Context, search string, page, size int) (*ListCustomersResponse, error)
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (string, error)
	UpdateCustomer(ctx context.Context, req UpdateCustomerRequest) error
}

type customerService struct {
	customersRepo repository.CustomersRepository
	logger        *zap.Logger
}

func NewCustomerService(customersRepo repository.CustomersRepository, logger *zap.Logger) CustomerService {
	return &customerService{customersRepo: customersRepo, logger: logger}
}

type ListCustomersResponse struct {
	Items []*domain.Customer `json:"items"`
	Total int                `json:"total"`
}

type CreateCustomerRequest struct {
	Name      string
	VATNumber string
	Email     string
	Phone     string
	Address   string
}

type UpdateCustomerRequest struct {
	CustomerID string
	Name       string
	VATNumber  string
	Email      string
	Phone      string
	Address    string
}

func (s *customerService) ListCustomers(ctx context.Context, search string, page, size int) (*ListCustomersResponse, error) {
	items, total, err := s.customersRepo.ListCustomers(ctx, search, page, size)
	if err != nil {
		return nil, err
	}
	return &ListCustomersResponse{Items: items, Total: total}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.customersRepo.GetCustomer(ctx, customerID)
}

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (string, error) {
	if req.Name == "" {
		return "", fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	return s.customersRepo.CreateCustomer(ctx, &domain.Customer{
		CustomerName: req.Name,
		VATNumber:    nullStr(req.VATNumber),
		Email:        nullStr(req.Email),
		Phone:        nullStr(req.Phone),
		Address:      nullStr(req.Address),
	})
}

func (s *customerService) UpdateCustomer(ctx context.Context, req UpdateCustomerRequest) error {
	return s.customersRepo.UpdateCustomer(ctx, req.CustomerID, &domain.Customer{
		CustomerName: req.Name,
		VATNumber:    nullStr(req.VATNumber),
		Email:        nullStr(req.Email),
		Phone:        nullStr(req.Phone),
		Address:      nullStr(req.Address),
	})
}
