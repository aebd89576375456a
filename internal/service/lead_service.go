package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"

	"go.uber.org/zap"
)

// leadNumberPattern matches the token the mailbox scanner looks for in
// message subjects, e.g. "LD-2026-0042".
var leadNumberPattern = regexp.MustCompile(`LD-\d{4}-\d{1,6}`)

// ExtractLeadNumber returns the first lead-number token in s, or "".
func ExtractLeadNumber(s string) string {
	return leadNumberPattern.FindString(s)
}

type LeadService interface {
	ListLeads(ctx context.Context, req ListLeadsRequest) (*ListLeadsResponse, error)
	GetLead(ctx context.Context, leadID string) (*domain.Lead, error)
	CreateLead(ctx context.Context, req CreateLeadRequest) (*CreateLeadResponse, error)
	UpdateLead(ctx context.Context, req UpdateLeadRequest) error
	DeleteLead(ctx context.Context, leadID string) error
}

type leadService struct {
	leadsRepo repository.LeadsRepository
	logger    *zap.Logger
}

func NewLeadService(leadsRepo repository.LeadsRepository, logger *zap.Logger) LeadService {
	return &leadService{leadsRepo: leadsRepo, logger: logger}
}

type ListLeadsRequest struct {
	CustomerID string
	Status     string
	Search     string
	Page       int
	Size       int
}

type ListLeadsResponse struct {
	Items []*domain.Lead `json:"items"`
	Total int            `json:"total"`
}

type CreateLeadRequest struct {
	CustomerID string
	Title      string
	Status     string
	AssignedTo string
	Notes      string
}

type CreateLeadResponse struct {
	LeadID     string `json:"leadId"`
	LeadNumber string `json:"leadNumber"`
}

type UpdateLeadRequest struct {
	LeadID     string
	Title      string
	Status     string
	AssignedTo string
	Notes      string
}

func (s *leadService) ListLeads(ctx context.Context, req ListLeadsRequest) (*ListLeadsResponse, error) {
	items, total, err := s.leadsRepo.ListLeads(ctx, repository.LeadFilters{
		CustomerID: req.CustomerID,
		Status:     req.Status,
		Search:     req.Search,
	}, req.Page, req.Size)
	if err != nil {
		return nil, err
	}
	return &ListLeadsResponse{Items: items, Total: total}, nil
}

func (s *leadService) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	return s.leadsRepo.GetLead(ctx, leadID)
}

func (s *leadService) CreateLead(ctx context.Context, req CreateLeadRequest) (*CreateLeadResponse, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	number, err := s.leadsRepo.NextLeadNumber(ctx, time.Now().Year())
	if err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		LeadNumber: number,
		CustomerID: nullStr(req.CustomerID),
		Title:      req.Title,
		Status:     req.Status,
		AssignedTo: nullStr(req.AssignedTo),
		Notes:      nullStr(req.Notes),
	}
	id, err := s.leadsRepo.CreateLead(ctx, lead)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created lead", zap.String("lead_id", id), zap.String("lead_number", number))
	return &CreateLeadResponse{LeadID: id, LeadNumber: number}, nil
}

func (s *leadService) UpdateLead(ctx context.Context, req UpdateLeadRequest) error {
	lead := &domain.Lead{
		Title:      req.Title,
		Status:     req.Status,
		AssignedTo: nullStr(req.AssignedTo),
		Notes:      nullStr(req.Notes),
	}
	return s.leadsRepo.UpdateLead(ctx, req.LeadID, lead)
}

func (s *leadService) DeleteLead(ctx context.Context, leadID string) error {
	return s.leadsRepo.DeleteLead(ctx, leadID)
}
