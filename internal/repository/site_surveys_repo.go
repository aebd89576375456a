package repository

import (
	"context"

	"kimoncrm/internal/domain"
)

// SiteSurveysRepository survey CRUD; the infrastructure tree itself lives
// behind InfrastructureRepository.
type SiteSurveysRepository interface {
	ListSiteSurveys(ctx context.Context, filter SiteSurveyFilters, page, size int) ([]*domain.SiteSurvey, int, error)
	GetSiteSurvey(ctx context.Context, siteSurveyID string) (*domain.SiteSurvey, error)
	CreateSiteSurvey(ctx context.Context, s *domain.SiteSurvey) (string, error)
	UpdateSiteSurvey(ctx context.Context, siteSurveyID string, s *domain.SiteSurvey) error
}

type SiteSurveyFilters struct {
	CustomerID string
	LeadID     string
	Status     string
}
