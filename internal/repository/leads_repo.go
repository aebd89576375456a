package repository

import (
	"context"

	"kimoncrm/internal/domain"
)

// LeadsRepository lead CRUD plus the lookups the mailbox scanner needs.
type LeadsRepository interface {
	ListLeads(ctx context.Context, filter LeadFilters, page, size int) ([]*domain.Lead, int, error)
	GetLead(ctx context.Context, leadID string) (*domain.Lead, error)
	// GetLeadByNumber resolves a lead-number token (LD-YYYY-NNNN) found in
	// an email subject. Returns ErrNotFound when no lead carries it.
	GetLeadByNumber(ctx context.Context, leadNumber string) (*domain.Lead, error)
	// NextLeadNumber allocates the next LD-<year>-NNNN for the given year.
	NextLeadNumber(ctx context.Context, year int) (string, error)
	CreateLead(ctx context.Context, lead *domain.Lead) (string, error)
	UpdateLead(ctx context.Context, leadID string, lead *domain.Lead) error
	DeleteLead(ctx context.Context, leadID string) error
}

type LeadFilters struct {
	CustomerID string
	Status     string
	Search     string // matches title and lead_number
}
