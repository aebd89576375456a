package service

import (
	"context"
	"errors"
	"testing"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTasksRepo struct {
	repository.TasksRepository
	created *domain.Task
}

func (f *fakeTasksRepo) CreateTask(_ context.Context, task *domain.Task) (string, error) {
	f.created = task
	return "task-1", nil
}

type fakeMailer struct {
	sent    []string
	sendErr error
}

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	f.sent = append(f.sent, to)
	return f.sendErr
}

func TestCreateTask_SendsAssigneeNotification(t *testing.T) {
	repo := &fakeTasksRepo{}
	mailer := &fakeMailer{}
	svc := NewTaskService(repo, mailer, zap.NewNop())

	resp, err := svc.CreateTask(context.Background(), CreateTaskRequest{
		Title:         "Order fiber patch cords",
		AssigneeEmail: "tech@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, []string{"tech@example.com"}, mailer.sent)
}

func TestCreateTask_MailFailureDoesNotFailCreate(t *testing.T) {
	repo := &fakeTasksRepo{}
	mailer := &fakeMailer{sendErr: errors.New("smtp relay down")}
	svc := NewTaskService(repo, mailer, zap.NewNop())

	resp, err := svc.CreateTask(context.Background(), CreateTaskRequest{
		Title:         "Schedule site visit",
		AssigneeEmail: "tech@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", resp.TaskID)
	require.NotNil(t, repo.created)
}

func TestCreateTask_NoAssigneeNoMail(t *testing.T) {
	repo := &fakeTasksRepo{}
	mailer := &fakeMailer{}
	svc := NewTaskService(repo, mailer, zap.NewNop())

	_, err := svc.CreateTask(context.Background(), CreateTaskRequest{Title: "Untracked chore"})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestCreateTask_TitleRequired(t *testing.T) {
	svc := NewTaskService(&fakeTasksRepo{}, &fakeMailer{}, zap.NewNop())

	_, err := svc.CreateTask(context.Background(), CreateTaskRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}
