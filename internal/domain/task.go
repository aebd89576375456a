package domain

import (
	"database/sql"
)

// Task (tasks table)
type Task struct {
	TaskID        string         `db:"task_id"`
	LeadID        sql.NullString `db:"lead_id"`
	Title         string         `db:"title"`
	Description   sql.NullString `db:"description"`
	Status        string         `db:"status"` // pending | in_progress | done
	DueDate       sql.NullTime   `db:"due_date"`
	AssigneeEmail sql.NullString `db:"assignee_email"`
	CreatedAt     sql.NullTime   `db:"created_at"`
	UpdatedAt     sql.NullTime   `db:"updated_at"`
}
