package domain

import (
	"database/sql"
)

// Customer (customers table)
type Customer struct {
	CustomerID   string         `db:"customer_id"`
	CustomerName string         `db:"customer_name"`
	VATNumber    sql.NullString `db:"vat_number"`
	Email        sql.NullString `db:"email"`
	Phone        sql.NullString `db:"phone"`
	Address      sql.NullString `db:"address"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}
