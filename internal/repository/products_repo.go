package repository

import (
	"context"

	"kimoncrm/internal/domain"
)

type ProductsRepository interface {
	ListProducts(ctx context.Context, filter ProductFilters, page, size int) ([]*domain.Product, int, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (string, error)
	UpdateProduct(ctx context.Context, productID string, p *domain.Product) error
	// UpsertByERPCode inserts or updates a product keyed on its ERP code;
	// used by the catalog sync. Returns the product id.
	UpsertByERPCode(ctx context.Context, p *domain.Product) (string, error)
	// ListProductsMissingImage returns products that have no stored image,
	// capped at limit; used by the image fetch batch.
	ListProductsMissingImage(ctx context.Context, limit int) ([]*domain.Product, error)
	SetProductImageURL(ctx context.Context, productID, imageURL string) error
}

type ProductFilters struct {
	Category string
	Brand    string
	Search   string // matches sku and product_name
}
