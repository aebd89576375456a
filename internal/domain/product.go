package domain

import (
	"database/sql"
)

// Product (products table)
// ERPCode links the row to the upstream ERP catalog; sync upserts on it.
type Product struct {
	ProductID   string         `db:"product_id"`
	SKU         string         `db:"sku"`
	ProductName string         `db:"product_name"`
	Brand       sql.NullString `db:"brand"`
	Category    sql.NullString `db:"category"`
	Unit        sql.NullString `db:"unit"`
	ListPrice   float64        `db:"list_price"`
	ERPCode     sql.NullString `db:"erp_code"`
	ImageURL    sql.NullString `db:"image_url"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}
