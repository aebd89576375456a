package service

import (
	"context"
	"fmt"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProductService interface {
	ListProducts(ctx context.Context, req ListProductsRequest) (*ListProductsResponse, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (string, error)
	UpdateProduct(ctx context.Context, req UpdateProductRequest) error

	// SyncFromERP pulls the ERP catalog and upserts products by ERP code.
	// Item-level failures are collected, not fatal.
	SyncFromERP(ctx context.Context) (*BatchResult, error)

	// FetchMissingImages searches and downloads images for products that
	// have none, with per-item error isolation.
	FetchMissingImages(ctx context.Context, limit int) (*BatchResult, error)
}

// BatchResult is the partial-success report batch operations return.
type BatchResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

type productService struct {
	productsRepo repository.ProductsRepository
	erp          ERPClient
	images       ImageClient
	logger       *zap.Logger
}

func NewProductService(productsRepo repository.ProductsRepository, erp ERPClient, images ImageClient, logger *zap.Logger) ProductService {
	return &productService{
		productsRepo: productsRepo,
		erp:          erp,
		images:       images,
		logger:       logger,
	}
}

type ListProductsRequest struct {
	Category string
	Brand    string
	Search   string
	Page     int
	Size     int
}

type ListProductsResponse struct {
	Items []*domain.Product `json:"items"`
	Total int               `json:"total"`
}

type CreateProductRequest struct {
	SKU      string
	Name     string
	Brand    string
	Category string
	Unit     string
	Price    float64
}

type UpdateProductRequest struct {
	ProductID string
	SKU       string
	Name      string
	Brand     string
	Category  string
	Unit      string
	Price     float64
}

func (s *productService) ListProducts(ctx context.Context, req ListProductsRequest) (*ListProductsResponse, error) {
	items, total, err := s.productsRepo.ListProducts(ctx, repository.ProductFilters{
		Category: req.Category,
		Brand:    req.Brand,
		Search:   req.Search,
	}, req.Page, req.Size)
	if err != nil {
		return nil, err
	}
	return &ListProductsResponse{Items: items, Total: total}, nil
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.productsRepo.GetProduct(ctx, productID)
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (string, error) {
	if req.SKU == "" || req.Name == "" {
		return "", fmt.Errorf("%w: sku and name are required", ErrValidation)
	}
	if req.Price < 0 {
		return "", fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return s.productsRepo.CreateProduct(ctx, &domain.Product{
		SKU:         req.SKU,
		ProductName: req.Name,
		Brand:       nullStr(req.Brand),
		Category:    nullStr(req.Category),
		Unit:        nullStr(req.Unit),
		ListPrice:   req.Price,
	})
}

func (s *productService) UpdateProduct(ctx context.Context, req UpdateProductRequest) error {
	if req.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return s.productsRepo.UpdateProduct(ctx, req.ProductID, &domain.Product{
		SKU:         req.SKU,
		ProductName: req.Name,
		Brand:       nullStr(req.Brand),
		Category:    nullStr(req.Category),
		Unit:        nullStr(req.Unit),
		ListPrice:   req.Price,
	})
}

func (s *productService) SyncFromERP(ctx context.Context) (*BatchResult, error) {
	items, err := s.erp.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Errors: []string{}}
	for _, item := range items {
		if item.Code == "" {
			result.Failed++
			result.Errors = append(result.Errors, "item without ERP code skipped")
			continue
		}
		sku := item.SKU
		if sku == "" {
			sku = item.Code
		}
		_, err := s.productsRepo.UpsertByERPCode(ctx, &domain.Product{
			SKU:         sku,
			ProductName: item.Name,
			Brand:       nullStr(item.Brand),
			Category:    nullStr(item.Category),
			Unit:        nullStr(item.Unit),
			ListPrice:   item.Price,
			ERPCode:     nullStr(item.Code),
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Code, err))
			s.logger.Warn("product upsert failed", zap.String("erp_code", item.Code), zap.Error(err))
			continue
		}
		result.Processed++
	}

	s.logger.Info("ERP catalog sync finished",
		zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
	return result, nil
}

func (s *productService) FetchMissingImages(ctx context.Context, limit int) (*BatchResult, error) {
	products, err := s.productsRepo.ListProductsMissingImage(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Errors: []string{}}
	for _, p := range products {
		url, err := s.images.SearchImage(ctx, p.ProductName)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.SKU, err))
			continue
		}
		if url == "" {
			continue
		}
		path, err := s.images.Download(ctx, url, uuid.NewString()+".jpg")
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.SKU, err))
			continue
		}
		if err := s.productsRepo.SetProductImageURL(ctx, p.ProductID, path); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.SKU, err))
			continue
		}
		result.Processed++
	}

	s.logger.Info("product image fetch finished",
		zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
	return result, nil
}
