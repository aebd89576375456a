package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kimoncrm/internal/domain"
)

type PostgresSiteSurveysRepository struct {
	db *sql.DB
}

func NewPostgresSiteSurveysRepository(db *sql.DB) *PostgresSiteSurveysRepository {
	return &PostgresSiteSurveysRepository{db: db}
}

const siteSurveyColumns = `site_survey_id::text, customer_id::text, lead_id::text, status, arranged_date, created_at, updated_at`

func scanSiteSurvey(row interface{ Scan(...any) error }) (*domain.SiteSurvey, error) {
	var s domain.SiteSurvey
	err := row.Scan(&s.SiteSurveyID, &s.CustomerID, &s.LeadID, &s.Status, &s.ArrangedDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSiteSurveysRepository) ListSiteSurveys(ctx context.Context, filter SiteSurveyFilters, page, size int) ([]*domain.SiteSurvey, int, error) {
	where := "1=1"
	args := []any{}
	argIdx := 1
	if filter.CustomerID != "" {
		where += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}
	if filter.LeadID != "" {
		where += fmt.Sprintf(" AND lead_id = $%d", argIdx)
		args = append(args, filter.LeadID)
		argIdx++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM site_surveys WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count site surveys: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	q := `SELECT ` + siteSurveyColumns + ` FROM site_surveys WHERE ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list site surveys: %w", err)
	}
	defer rows.Close()

	out := []*domain.SiteSurvey{}
	for rows.Next() {
		s, err := scanSiteSurvey(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *PostgresSiteSurveysRepository) GetSiteSurvey(ctx context.Context, siteSurveyID string) (*domain.SiteSurvey, error) {
	s, err := scanSiteSurvey(r.db.QueryRowContext(ctx,
		`SELECT `+siteSurveyColumns+` FROM site_surveys WHERE site_survey_id = $1`,
		siteSurveyID,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site survey: %w", err)
	}
	return s, nil
}

func (r *PostgresSiteSurveysRepository) CreateSiteSurvey(ctx context.Context, s *domain.SiteSurvey) (string, error) {
	status := s.Status
	if status == "" {
		status = "scheduled"
	}
	var siteSurveyID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO site_surveys (customer_id, lead_id, status, arranged_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING site_survey_id::text`,
		s.CustomerID, s.LeadID, status, s.ArrangedDate,
	).Scan(&siteSurveyID)
	if err != nil {
		return "", fmt.Errorf("failed to create site survey: %w", err)
	}
	return siteSurveyID, nil
}

func (r *PostgresSiteSurveysRepository) UpdateSiteSurvey(ctx context.Context, siteSurveyID string, s *domain.SiteSurvey) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE site_surveys
		 SET status = COALESCE(NULLIF($1, ''), status),
		     arranged_date = COALESCE($2, arranged_date),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE site_survey_id = $3`,
		s.Status, s.ArrangedDate, siteSurveyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update site survey: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
