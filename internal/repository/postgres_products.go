package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kimoncrm/internal/domain"
)

type PostgresProductsRepository struct {
	db *sql.DB
}

func NewPostgresProductsRepository(db *sql.DB) *PostgresProductsRepository {
	return &PostgresProductsRepository{db: db}
}

const productColumns = `product_id::text, sku, product_name, brand, category, unit, list_price, erp_code, image_url, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ProductID, &p.SKU, &p.ProductName, &p.Brand, &p.Category, &p.Unit, &p.ListPrice, &p.ERPCode, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProductsRepository) ListProducts(ctx context.Context, filter ProductFilters, page, size int) ([]*domain.Product, int, error) {
	where := "1=1"
	args := []any{}
	argIdx := 1
	if filter.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.Brand != "" {
		where += fmt.Sprintf(" AND brand = $%d", argIdx)
		args = append(args, filter.Brand)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (sku ILIKE $%d OR product_name ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE ` + where +
		fmt.Sprintf(` ORDER BY product_name LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	out := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PostgresProductsRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id = $1`, productID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *PostgresProductsRepository) CreateProduct(ctx context.Context, p *domain.Product) (string, error) {
	var productID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (sku, product_name, brand, category, unit, list_price, erp_code, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING product_id::text`,
		p.SKU, p.ProductName, p.Brand, p.Category, p.Unit, p.ListPrice, p.ERPCode, p.ImageURL,
	).Scan(&productID)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return productID, nil
}

func (r *PostgresProductsRepository) UpdateProduct(ctx context.Context, productID string, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET sku = COALESCE(NULLIF($1, ''), sku),
		     product_name = COALESCE(NULLIF($2, ''), product_name),
		     brand = COALESCE($3, brand),
		     category = COALESCE($4, category),
		     unit = COALESCE($5, unit),
		     list_price = $6,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE product_id = $7`,
		p.SKU, p.ProductName, p.Brand, p.Category, p.Unit, p.ListPrice, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresProductsRepository) UpsertByERPCode(ctx context.Context, p *domain.Product) (string, error) {
	if !p.ERPCode.Valid || p.ERPCode.String == "" {
		return "", fmt.Errorf("erp_code is required for upsert")
	}
	var productID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (sku, product_name, brand, category, unit, list_price, erp_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (erp_code)
		 DO UPDATE SET sku = EXCLUDED.sku,
		               product_name = EXCLUDED.product_name,
		               brand = EXCLUDED.brand,
		               category = EXCLUDED.category,
		               unit = EXCLUDED.unit,
		               list_price = EXCLUDED.list_price,
		               updated_at = CURRENT_TIMESTAMP
		 RETURNING product_id::text`,
		p.SKU, p.ProductName, p.Brand, p.Category, p.Unit, p.ListPrice, p.ERPCode,
	).Scan(&productID)
	if err != nil {
		return "", fmt.Errorf("failed to upsert product %s: %w", p.ERPCode.String, err)
	}
	return productID, nil
}

func (r *PostgresProductsRepository) ListProductsMissingImage(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE image_url IS NULL OR image_url = ''
		 ORDER BY product_name
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products missing image: %w", err)
	}
	defer rows.Close()

	out := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresProductsRepository) SetProductImageURL(ctx context.Context, productID, imageURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_url = $1, updated_at = CURRENT_TIMESTAMP WHERE product_id = $2`,
		imageURL, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to set product image: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
