package service

import (
	"context"
	"fmt"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"

	"go.uber.org/zap"
)

type TaskService interface {
	ListTasks(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) error
}

type taskService struct {
	tasksRepo repository.TasksRepository
	mailer    Mailer
	logger    *zap.Logger
}

func NewTaskService(tasksRepo repository.TasksRepository, mailer Mailer, logger *zap.Logger) TaskService {
	return &taskService{tasksRepo: tasksRepo, mailer: mailer, logger: logger}
}

type ListTasksRequest struct {
	LeadID string
	Status string
	Page   int
	Size   int
}

type ListTasksResponse struct {
	Items []*domain.Task `json:"items"`
	Total int            `json:"total"`
}

type CreateTaskRequest struct {
	LeadID        string
	Title         string
	Description   string
	DueDate       *time.Time
	AssigneeEmail string
}

type CreateTaskResponse struct {
	TaskID string `json:"taskId"`
}

type UpdateTaskRequest struct {
	TaskID        string
	Title         string
	Description   string
	Status        string
	DueDate       *time.Time
	AssigneeEmail string
}

func (s *taskService) ListTasks(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error) {
	items, total, err := s.tasksRepo.ListTasks(ctx, repository.TaskFilters{
		LeadID: req.LeadID,
		Status: req.Status,
	}, req.Page, req.Size)
	if err != nil {
		return nil, err
	}
	return &ListTasksResponse{Items: items, Total: total}, nil
}

func (s *taskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	task := &domain.Task{
		LeadID:        nullStr(req.LeadID),
		Title:         req.Title,
		Description:   nullStr(req.Description),
		AssigneeEmail: nullStr(req.AssigneeEmail),
	}
	if req.DueDate != nil {
		task.DueDate.Valid = true
		task.DueDate.Time = *req.DueDate
	}

	id, err := s.tasksRepo.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	// Notification is a side effect: a failed send must not fail the create.
	if req.AssigneeEmail != "" && s.mailer != nil {
		subject := "New task: " + req.Title
		body := req.Description
		if err := s.mailer.Send(ctx, req.AssigneeEmail, subject, body); err != nil {
			s.logger.Warn("task notification mail failed",
				zap.String("task_id", id),
				zap.String("assignee", req.AssigneeEmail),
				zap.Error(err))
		}
	}

	return &CreateTaskResponse{TaskID: id}, nil
}

func (s *taskService) UpdateTask(ctx context.Context, req UpdateTaskRequest) error {
	task := &domain.Task{
		Title:         req.Title,
		Description:   nullStr(req.Description),
		Status:        req.Status,
		AssigneeEmail: nullStr(req.AssigneeEmail),
	}
	if req.DueDate != nil {
		task.DueDate.Valid = true
		task.DueDate.Time = *req.DueDate
	}
	return s.tasksRepo.UpdateTask(ctx, req.TaskID, task)
}
