package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/service"

	"go.uber.org/zap"
)

// SiteSurveyHandler survey CRUD plus the equipment save/read/export routes
// nested under one survey.
type SiteSurveyHandler struct {
	surveys        service.SurveyService
	infrastructure service.InfrastructureService
	logger         *zap.Logger
}

func NewSiteSurveyHandler(surveys service.SurveyService, infrastructure service.InfrastructureService, logger *zap.Logger) *SiteSurveyHandler {
	return &SiteSurveyHandler{
		surveys:        surveys,
		infrastructure: infrastructure,
		logger:         logger,
	}
}

const surveyPathPrefix = "/crm/api/v1/site-surveys"

func (h *SiteSurveyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == surveyPathPrefix && r.Method == http.MethodGet:
		h.ListSurveys(w, r)
	case path == surveyPathPrefix && r.Method == http.MethodPost:
		h.CreateSurvey(w, r)
	case strings.HasSuffix(path, "/save-equipment") && r.Method == http.MethodPost:
		h.SaveEquipment(w, r, surveyID(path, "/save-equipment"))
	case strings.HasSuffix(path, "/save-equipment") && r.Method == http.MethodGet:
		h.GetEquipment(w, r, surveyID(path, "/save-equipment"))
	case strings.HasSuffix(path, "/boq") && r.Method == http.MethodGet:
		h.ExportBoQ(w, r, surveyID(path, "/boq"))
	case strings.HasPrefix(path, surveyPathPrefix+"/") && r.Method == http.MethodGet:
		h.GetSurvey(w, r)
	case strings.HasPrefix(path, surveyPathPrefix+"/") && r.Method == http.MethodPut:
		h.UpdateSurvey(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// surveyID pulls the survey id out of /site-surveys/{id}<suffix>.
func surveyID(path, suffix string) string {
	id := strings.TrimPrefix(path, surveyPathPrefix+"/")
	return strings.TrimSuffix(id, suffix)
}

type surveyView struct {
	SiteSurveyID string     `json:"siteSurveyId"`
	CustomerID   string     `json:"customerId,omitempty"`
	LeadID       string     `json:"leadId,omitempty"`
	Status       string     `json:"status"`
	ArrangedDate *time.Time `json:"arrangedDate,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func toSurveyView(s *domain.SiteSurvey) surveyView {
	return surveyView{
		SiteSurveyID: s.SiteSurveyID,
		CustomerID:   strOf(s.CustomerID),
		LeadID:       strOf(s.LeadID),
		Status:       s.Status,
		ArrangedDate: timeOf(s.ArrangedDate),
		CreatedAt:    timeOf(s.CreatedAt),
	}
}

func (h *SiteSurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.surveys.ListSurveys(r.Context(), service.ListSurveysRequest{
		CustomerID: q.Get("customerId"),
		LeadID:     q.Get("leadId"),
		Status:     q.Get("status"),
		Page:       parseInt(q.Get("page"), 1),
		Size:       parseInt(q.Get("size"), 50),
	})
	if err != nil {
		h.logger.Error("list surveys failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	items := make([]surveyView, 0, len(resp.Items))
	for _, s := range resp.Items {
		items = append(items, toSurveyView(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": resp.Total})
}

func (h *SiteSurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, surveyPathPrefix+"/")
	survey, err := h.surveys.GetSurvey(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSurveyView(survey))
}

type surveyRequest struct {
	CustomerID   string     `json:"customerId"`
	LeadID       string     `json:"leadId"`
	Status       string     `json:"status"`
	ArrangedDate *time.Time `json:"arrangedDate"`
}

func (h *SiteSurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	if req.Status == "" {
		req.Status = "scheduled"
	}
	resp, err := h.surveys.CreateSurvey(r.Context(), service.CreateSurveyRequest{
		CustomerID:   req.CustomerID,
		LeadID:       req.LeadID,
		Status:       req.Status,
		ArrangedDate: req.ArrangedDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SiteSurveyHandler) UpdateSurvey(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, surveyPathPrefix+"/")
	var req surveyRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	err := h.surveys.UpdateSurvey(r.Context(), service.UpdateSurveyRequest{
		SiteSurveyID: id,
		Status:       req.Status,
		ArrangedDate: req.ArrangedDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w)
}

// SaveEquipment replaces the whole proposed infrastructure of one survey.
// Payload limit is generous: surveys of large buildings carry hundreds of
// rooms and product lines.
func (h *SiteSurveyHandler) SaveEquipment(w http.ResponseWriter, r *http.Request, id string) {
	var req service.SaveEquipmentRequest
	if err := readBodyJSON(r, 16<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}
	req.SiteSurveyID = id

	if _, err := h.infrastructure.SaveEquipment(r.Context(), req); err != nil {
		h.logger.Error("save equipment failed",
			zap.String("site_survey_id", id), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *SiteSurveyHandler) GetEquipment(w http.ResponseWriter, r *http.Request, id string) {
	resp, err := h.infrastructure.GetEquipment(r.Context(), service.GetEquipmentRequest{SiteSurveyID: id})
	if err != nil {
		h.logger.Error("get equipment failed",
			zap.String("site_survey_id", id), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SiteSurveyHandler) ExportBoQ(w http.ResponseWriter, r *http.Request, id string) {
	resp, err := h.infrastructure.GetEquipment(r.Context(), service.GetEquipmentRequest{SiteSurveyID: id})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := GenerateBoQExport(resp)
	if err != nil {
		h.logger.Error("BoQ export failed",
			zap.String("site_survey_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	filename := fmt.Sprintf("boq-%s.xlsx", id)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
