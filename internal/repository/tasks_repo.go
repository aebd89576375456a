package repository

import (
	"context"

	"kimoncrm/internal/domain"
)

type TasksRepository interface {
	ListTasks(ctx context.Context, filter TaskFilters, page, size int) ([]*domain.Task, int, error)
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	CreateTask(ctx context.Context, task *domain.Task) (string, error)
	UpdateTask(ctx context.Context, taskID string, task *domain.Task) error
}

type TaskFilters struct {
	LeadID string
	Status string
}
