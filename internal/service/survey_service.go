package service

import (
	"context"
	"fmt"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"

	"go.uber.org/zap"
)

// SurveyService site survey CRUD (scheduling); the infrastructure tree is
// handled by InfrastructureService.
type SurveyService interface {
	ListSurveys(ctx context.Context, req ListSurveysRequest) (*ListSurveysResponse, error)
	GetSurvey(ctx context.Context, siteSurveyID string) (*domain.SiteSurvey, error)
	CreateSurvey(ctx context.Context, req CreateSurveyRequest) (*CreateSurveyResponse, error)
	UpdateSurvey(ctx context.Context, req UpdateSurveyRequest) error
}

type surveyService struct {
	surveysRepo repository.SiteSurveysRepository
	logger      *zap.Logger
}

func NewSurveyService(surveysRepo repository.SiteSurveysRepository, logger *zap.Logger) SurveyService {
	return &surveyService{surveysRepo: surveysRepo, logger: logger}
}

type ListSurveysRequest struct {
	CustomerID string
	LeadID     string
	Status     string
	Page       int
	Size       int
}

type ListSurveysResponse struct {
	Items []*domain.SiteSurvey `json:"items"`
	Total int                  `json:"total"`
}

type CreateSurveyRequest struct {
	CustomerID   string
	LeadID       string
	Status       string
	ArrangedDate *time.Time
}

type CreateSurveyResponse struct {
	SiteSurveyID string `json:"siteSurveyId"`
}

type UpdateSurveyRequest struct {
	SiteSurveyID string
	Status       string
	ArrangedDate *time.Time
}

func (s *surveyService) ListSurveys(ctx context.Context, req ListSurveysRequest) (*ListSurveysResponse, error) {
	items, total, err := s.surveysRepo.ListSiteSurveys(ctx, repository.SiteSurveyFilters{
		CustomerID: req.CustomerID,
		LeadID:     req.LeadID,
		Status:     req.Status,
	}, req.Page, req.Size)
	if err != nil {
		return nil, err
	}
	return &ListSurveysResponse{Items: items, Total: total}, nil
}

func (s *surveyService) GetSurvey(ctx context.Context, siteSurveyID string) (*domain.SiteSurvey, error) {
	return s.surveysRepo.GetSiteSurvey(ctx, siteSurveyID)
}

func (s *surveyService) CreateSurvey(ctx context.Context, req CreateSurveyRequest) (*CreateSurveyResponse, error) {
	survey := &domain.SiteSurvey{
		CustomerID: nullStr(req.CustomerID),
		LeadID:     nullStr(req.LeadID),
		Status:     req.Status,
	}
	if req.ArrangedDate != nil {
		survey.ArrangedDate.Valid = true
		survey.ArrangedDate.Time = *req.ArrangedDate
	}
	id, err := s.surveysRepo.CreateSiteSurvey(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}
	s.logger.Info("created site survey", zap.String("site_survey_id", id))
	return &CreateSurveyResponse{SiteSurveyID: id}, nil
}

func (s *surveyService) UpdateSurvey(ctx context.Context, req UpdateSurveyRequest) error {
	survey := &domain.SiteSurvey{Status: req.Status}
	if req.ArrangedDate != nil {
		survey.ArrangedDate.Valid = true
		survey.ArrangedDate.Time = *req.ArrangedDate
	}
	return s.surveysRepo.UpdateSiteSurvey(ctx, req.SiteSurveyID, survey)
}
