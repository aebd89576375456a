package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kimoncrm/internal/domain"
)

type PostgresLeadsRepository struct {
	db *sql.DB
}

func NewPostgresLeadsRepository(db *sql.DB) *PostgresLeadsRepository {
	return &PostgresLeadsRepository{db: db}
}

const leadColumns = `lead_id::text, lead_number, customer_id::text, title, status, assigned_to, notes, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (*domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(&l.LeadID, &l.LeadNumber, &l.CustomerID, &l.Title, &l.Status, &l.AssignedTo, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PostgresLeadsRepository) ListLeads(ctx context.Context, filter LeadFilters, page, size int) ([]*domain.Lead, int, error) {
	where := "1=1"
	args := []any{}
	argIdx := 1
	if filter.CustomerID != "" {
		where += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR lead_number ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	q := `SELECT ` + leadColumns + ` FROM leads WHERE ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	out := []*domain.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *PostgresLeadsRepository) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	l, err := scanLead(r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE lead_id = $1`, leadID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

func (r *PostgresLeadsRepository) GetLeadByNumber(ctx context.Context, leadNumber string) (*domain.Lead, error) {
	l, err := scanLead(r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE lead_number = $1`, leadNumber))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead by number: %w", err)
	}
	return l, nil
}

// NextLeadNumber derives the next sequence from the highest number already
// issued for the year. Collisions under concurrent creates are caught by
// the unique index on lead_number and surface as an insert error.
func (r *PostgresLeadsRepository) NextLeadNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("LD-%d-", year)
	var maxSeq sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(SUBSTRING(lead_number FROM $1)::int)
		 FROM leads
		 WHERE lead_number LIKE $2`,
		fmt.Sprintf(`^LD-%d-(\d+)$`, year), prefix+"%",
	).Scan(&maxSeq)
	if err != nil {
		return "", fmt.Errorf("failed to compute next lead number: %w", err)
	}
	next := int64(1)
	if maxSeq.Valid {
		next = maxSeq.Int64 + 1
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

func (r *PostgresLeadsRepository) CreateLead(ctx context.Context, lead *domain.Lead) (string, error) {
	status := lead.Status
	if status == "" {
		status = "open"
	}
	var leadID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO leads (lead_number, customer_id, title, status, assigned_to, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING lead_id::text`,
		lead.LeadNumber, lead.CustomerID, lead.Title, status, lead.AssignedTo, lead.Notes,
	).Scan(&leadID)
	if err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}
	return leadID, nil
}

func (r *PostgresLeadsRepository) UpdateLead(ctx context.Context, leadID string, lead *domain.Lead) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE leads
		 SET title = COALESCE(NULLIF($1, ''), title),
		     status = COALESCE(NULLIF($2, ''), status),
		     assigned_to = COALESCE($3, assigned_to),
		     notes = COALESCE($4, notes),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE lead_id = $5`,
		lead.Title, lead.Status, lead.AssignedTo, lead.Notes, leadID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresLeadsRepository) DeleteLead(ctx context.Context, leadID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE lead_id = $1`, leadID)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
