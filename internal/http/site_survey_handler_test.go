package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"
	"kimoncrm/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInfraService struct {
	saved   *service.SaveEquipmentRequest
	saveErr error
	getResp *service.GetEquipmentResponse
	getErr  error
}

func (f *fakeInfraService) SaveEquipment(_ context.Context, req service.SaveEquipmentRequest) (*service.SaveEquipmentResponse, error) {
	f.saved = &req
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &service.SaveEquipmentResponse{Success: true}, nil
}

func (f *fakeInfraService) GetEquipment(_ context.Context, _ service.GetEquipmentRequest) (*service.GetEquipmentResponse, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getResp != nil {
		return f.getResp, nil
	}
	return &service.GetEquipmentResponse{
		Equipment: []service.EquipmentView{},
		ProposedInfrastructure: service.InfrastructureView{
			ProposedCentralRacks: []service.RackView{},
			ProposedFloorRacks:   []service.RackView{},
			ProposedRooms:        []service.RoomView{},
			ProposedConnections:  []service.ConnectionView{},
		},
	}, nil
}

type fakeSurveyService struct {
	survey *domain.SiteSurvey
	getErr error
}

func (f *fakeSurveyService) ListSurveys(_ context.Context, _ service.ListSurveysRequest) (*service.ListSurveysResponse, error) {
	return &service.ListSurveysResponse{Items: []*domain.SiteSurvey{}, Total: 0}, nil
}

func (f *fakeSurveyService) GetSurvey(_ context.Context, _ string) (*domain.SiteSurvey, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.survey, nil
}

func (f *fakeSurveyService) CreateSurvey(_ context.Context, _ service.CreateSurveyRequest) (*service.CreateSurveyResponse, error) {
	return &service.CreateSurveyResponse{SiteSurveyID: "survey-new"}, nil
}

func (f *fakeSurveyService) UpdateSurvey(_ context.Context, _ service.UpdateSurveyRequest) error {
	return nil
}

func newSurveyTestHandler(infra *fakeInfraService, surveys *fakeSurveyService) *SiteSurveyHandler {
	if surveys == nil {
		surveys = &fakeSurveyService{}
	}
	return NewSiteSurveyHandler(surveys, infra, zap.NewNop())
}

func TestSaveEquipment_RoutesBodyAndPathID(t *testing.T) {
	infra := &fakeInfraService{}
	h := newSurveyTestHandler(infra, nil)

	body := `{
		"proposedInfrastructure": {
			"proposedCentralRacks": [{"name": "MDF", "units": 42}]
		},
		"equipment": [{"type": "product", "itemId": "prod-1", "quantity": 2, "price": 10}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/crm/api/v1/site-surveys/survey-1/save-equipment", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, infra.saved)
	assert.Equal(t, "survey-1", infra.saved.SiteSurveyID)
	require.Len(t, infra.saved.ProposedInfrastructure.ProposedCentralRacks, 1)
	assert.Equal(t, "MDF", infra.saved.ProposedInfrastructure.ProposedCentralRacks[0].Name)
	require.Len(t, infra.saved.Equipment, 1)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
}

func TestSaveEquipment_ValidationMapsTo400(t *testing.T) {
	infra := &fakeInfraService{
		saveErr: fmt.Errorf("%w: central rack 0: name is required", service.ErrValidation),
	}
	h := newSurveyTestHandler(infra, nil)

	req := httptest.NewRequest(http.MethodPost, "/crm/api/v1/site-surveys/survey-1/save-equipment", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid request", resp.Error)
	assert.Contains(t, resp.Details, "name is required")
}

func TestSaveEquipment_MissingSurveyMapsTo404(t *testing.T) {
	infra := &fakeInfraService{saveErr: repository.ErrNotFound}
	h := newSurveyTestHandler(infra, nil)

	req := httptest.NewRequest(http.MethodPost, "/crm/api/v1/site-surveys/ghost/save-equipment", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveEquipment_MalformedBodyMapsTo400(t *testing.T) {
	infra := &fakeInfraService{}
	h := newSurveyTestHandler(infra, nil)

	req := httptest.NewRequest(http.MethodPost, "/crm/api/v1/site-surveys/survey-1/save-equipment", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, infra.saved)
}

func TestGetEquipment_EmptyProjection(t *testing.T) {
	h := newSurveyTestHandler(&fakeInfraService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/crm/api/v1/site-surveys/survey-1/save-equipment", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []any{}, resp["equipment"])

	pi, ok := resp["proposedInfrastructure"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{}, pi["proposedCentralRacks"])
	assert.Equal(t, []any{}, pi["proposedRooms"])
}

func TestExportBoQ_ReturnsWorkbook(t *testing.T) {
	infra := &fakeInfraService{
		getResp: &service.GetEquipmentResponse{
			Equipment: []service.EquipmentView{{
				ItemID: "prod-1", SKU: "SKU-1", Name: "Switch", Quantity: 2, Price: 100, Margin: 10, TotalPrice: 220,
			}},
		},
	}
	h := newSurveyTestHandler(infra, nil)

	req := httptest.NewRequest(http.MethodGet, "/crm/api/v1/site-surveys/survey-1/boq", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "boq-survey-1.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestGetSurvey_NotFound(t *testing.T) {
	h := newSurveyTestHandler(&fakeInfraService{}, &fakeSurveyService{getErr: repository.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/crm/api/v1/site-surveys/ghost", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
