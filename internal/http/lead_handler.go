package httpapi

import (
	"net/http"
	"strings"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/service"

	"go.uber.org/zap"
)

type LeadHandler struct {
	leads  service.LeadService
	logger *zap.Logger
}

func NewLeadHandler(leads service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, logger: logger}
}

func (h *LeadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/crm/api/v1/leads" && r.Method == http.MethodGet:
		h.ListLeads(w, r)
	case r.URL.Path == "/crm/api/v1/leads" && r.Method == http.MethodPost:
		h.CreateLead(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/leads/") && r.Method == http.MethodGet:
		h.GetLead(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/leads/") && r.Method == http.MethodPut:
		h.UpdateLead(w, r)
	case strings.HasPrefix(r.URL.Path, "/crm/api/v1/leads/") && r.Method == http.MethodDelete:
		h.DeleteLead(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type leadView struct {
	LeadID     string     `json:"leadId"`
	LeadNumber string     `json:"leadNumber"`
	CustomerID string     `json:"customerId,omitempty"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	AssignedTo string     `json:"assignedTo,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

func toLeadView(l *domain.Lead) leadView {
	return leadView{
		LeadID:     l.LeadID,
		LeadNumber: l.LeadNumber,
		CustomerID: strOf(l.CustomerID),
		Title:      l.Title,
		Status:     l.Status,
		AssignedTo: strOf(l.AssignedTo),
		Notes:      strOf(l.Notes),
		CreatedAt:  timeOf(l.CreatedAt),
	}
}

func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.leads.ListLeads(r.Context(), service.ListLeadsRequest{
		CustomerID: q.Get("customerId"),
		Status:     q.Get("status"),
		Search:     q.Get("search"),
		Page:       parseInt(q.Get("page"), 1),
		Size:       parseInt(q.Get("size"), 50),
	})
	if err != nil {
		h.logger.Error("list leads failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	items := make([]leadView, 0, len(resp.Items))
	for _, l := range resp.Items {
		items = append(items, toLeadView(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": resp.Total})
}

func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/leads/")
	lead, err := h.leads.GetLead(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeadView(lead))
}

type leadRequest struct {
	CustomerID string `json:"customerId"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	AssignedTo string `json:"assignedTo"`
	Notes      string `json:"notes"`
}

func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	if req.Status == "" {
		req.Status = "open"
	}
	resp, err := h.leads.CreateLead(r.Context(), service.CreateLeadRequest{
		CustomerID: req.CustomerID,
		Title:      req.Title,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Notes:      req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/leads/")
	var req leadRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	err := h.leads.UpdateLead(r.Context(), service.UpdateLeadRequest{
		LeadID:     id,
		Title:      req.Title,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Notes:      req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *LeadHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/leads/")
	if err := h.leads.DeleteLead(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w)
}
