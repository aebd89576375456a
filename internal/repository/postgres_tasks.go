package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kimoncrm/internal/domain"
)

type PostgresTasksRepository struct {
	db *sql.DB
}

func NewPostgresTasksRepository(db *sql.DB) *PostgresTasksRepository {
	return &PostgresTasksRepository{db: db}
}

const taskColumns = `task_id::text, lead_id::text, title, description, status, due_date, assignee_email, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.TaskID, &t.LeadID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.AssigneeEmail, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTasksRepository) ListTasks(ctx context.Context, filter TaskFilters, page, size int) ([]*domain.Task, int, error) {
	where := "1=1"
	args := []any{}
	argIdx := 1
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where +
		fmt.Sprintf(` ORDER BY due_date NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	out := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *PostgresTasksRepository) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE task_id = $1`, taskID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

func (r *PostgresTasksRepository) CreateTask(ctx context.Context, task *domain.Task) (string, error) {
	status := task.Status
	if status == "" {
		status = "pending"
	}
	var taskID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (lead_id, title, description, status, due_date, assignee_email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING task_id::text`,
		task.LeadID, task.Title, task.Description, status, task.DueDate, task.AssigneeEmail,
	).Scan(&taskID)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return taskID, nil
}

func (r *PostgresTasksRepository) UpdateTask(ctx context.Context, taskID string, task *domain.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = COALESCE(NULLIF($1, ''), title),
		     description = COALESCE($2, description),
		     status = COALESCE(NULLIF($3, ''), status),
		     due_date = COALESCE($4, due_date),
		     assignee_email = COALESCE($5, assignee_email),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE task_id = $6`,
		task.Title, task.Description, task.Status, task.DueDate, task.AssigneeEmail, taskID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
