package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kimoncrm/internal/domain"
)

type PostgresCustomersRepository struct {
	db *sql.DB
}

func NewPostgresCustomersRepository(db *sql.DB) *PostgresCustomersRepository {
	return &PostgresCustomersRepository{db: db}
}

const customerColumns = `customer_id::text, customer_name, vat_number, email, phone, address, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.CustomerID, &c.CustomerName, &c.VATNumber, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCustomersRepository) ListCustomers(ctx context.Context, search string, page, size int) ([]*domain.Customer, int, error) {
	where := "1=1"
	args := []any{}
	argIdx := 1
	if search != "" {
		where += fmt.Sprintf(" AND (customer_name ILIKE $%d OR vat_number ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	q := `SELECT ` + customerColumns + ` FROM customers WHERE ` + where +
		fmt.Sprintf(` ORDER BY customer_name LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	out := []*domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PostgresCustomersRepository) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, customerID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (r *PostgresCustomersRepository) CreateCustomer(ctx context.Context, c *domain.Customer) (string, error) {
	var customerID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO customers (customer_name, vat_number, email, phone, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING customer_id::text`,
		c.CustomerName, c.VATNumber, c.Email, c.Phone, c.Address,
	).Scan(&customerID)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return customerID, nil
}

func (r *PostgresCustomersRepository) UpdateCustomer(ctx context.Context, customerID string, c *domain.Customer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers
		 SET customer_name = COALESCE(NULLIF($1, ''), customer_name),
		     vat_number = COALESCE($2, vat_number),
		     email = COALESCE($3, email),
		     phone = COALESCE($4, phone),
		     address = COALESCE($5, address),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE customer_id = $6`,
		c.CustomerName, c.VATNumber, c.Email, c.Phone, c.Address, customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
