package repository

import (
	"context"
	"time"

	"kimoncrm/internal/domain"
)

// EmailsRepository mailbox accounts, threads and imported messages.
type EmailsRepository interface {
	ListAccounts(ctx context.Context) ([]*domain.EmailAccount, error)
	UpdateAccountToken(ctx context.Context, accountID, accessToken string, expiresAt time.Time) error

	// GetOrCreateThread returns the thread for (lead, subject), creating it
	// on first use.
	GetOrCreateThread(ctx context.Context, leadID, subject string) (*domain.EmailThread, error)

	// MessageExists is the dedupe check: exact (subject, receivedAt) match.
	MessageExists(ctx context.Context, subject string, receivedAt time.Time) (bool, error)
	InsertMessage(ctx context.Context, m *domain.EmailMessage) (string, error)
}
