package httpapi

import (
	"net/http"
	"strings"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/service"

	"go.uber.org/zap"
)

type TaskHandler struct {
	tasks  service.TaskService
	logger *zap.Logger
}

func NewTaskHandler(tasks service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/crm/api/v1/tasks" && r.Method == http.MethodGet:
		h.ListTasks(w, r)
	case r.URL.Path == "/crm/api/v1/tasks" && r.Method == http.MethodPost:
		h.CreateTask(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/tasks/") && r.Method == http.MethodPut:
		h.UpdateTask(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type taskView struct {
	TaskID        string     `json:"taskId"`
	LeadID        string     `json:"leadId,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	AssigneeEmail string     `json:"assigneeEmail,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

func toTaskView(t *domain.Task) taskView {
	return taskView{
		TaskID:        t.TaskID,
		LeadID:        strOf(t.LeadID),
		Title:         t.Title,
		Description:   strOf(t.Description),
		Status:        t.Status,
		DueDate:       timeOf(t.DueDate),
		AssigneeEmail: strOf(t.AssigneeEmail),
		CreatedAt:     timeOf(t.CreatedAt),
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.tasks.ListTasks(r.Context(), service.ListTasksRequest{
		LeadID: q.Get("leadId"),
		Status: q.Get("status"),
		Page:   parseInt(q.Get("page"), 1),
		Size:   parseInt(q.Get("size"), 50),
	})
	if err != nil {
		h.logger.Error("list tasks failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	items := make([]taskView, 0, len(resp.Items))
	for _, t := range resp.Items {
		items = append(items, toTaskView(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": resp.Total})
}

type taskRequest struct {
	LeadID        string     `json:"leadId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"dueDate"`
	AssigneeEmail string     `json:"assigneeEmail"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	resp, err := h.tasks.CreateTask(r.Context(), service.CreateTaskRequest{
		LeadID:        req.LeadID,
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       req.DueDate,
		AssigneeEmail: req.AssigneeEmail,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/tasks/")
	var req taskRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	err := h.tasks.UpdateTask(r.Context(), service.UpdateTaskRequest{
		TaskID:        id,
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		DueDate:       req.DueDate,
		AssigneeEmail: req.AssigneeEmail,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w)
}
