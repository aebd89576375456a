package service

import (
	"context"
	"fmt"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"

	"go.uber.org/zap"
)

// ScanResult reports one mailbox scan pass. A message counts as processed
// when it carries a lead number, as imported when it was actually stored.
type ScanResult struct {
	Processed int      `json:"processed"`
	Imported  int      `json:"imported"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// MailboxService imports lead-numbered emails from connected mailboxes.
type MailboxService interface {
	ScanMailboxes(ctx context.Context) (*ScanResult, error)
}

type mailboxService struct {
	emailsRepo repository.EmailsRepository
	leadsRepo  repository.LeadsRepository
	providers  map[string]MailProvider // keyed by account provider name
	logger     *zap.Logger
	now        func() time.Time
}

func NewMailboxService(emailsRepo repository.EmailsRepository, leadsRepo repository.LeadsRepository, microsoft, google MailProvider, logger *zap.Logger) MailboxService {
	return &mailboxService{
		emailsRepo: emailsRepo,
		leadsRepo:  leadsRepo,
		providers: map[string]MailProvider{
			"microsoft": microsoft,
			"google":    google,
		},
		logger: logger,
		now:    time.Now,
	}
}

func (s *mailboxService) ScanMailboxes(ctx context.Context) (*ScanResult, error) {
	accounts, err := s.emailsRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Errors: []string{}}
	for _, account := range accounts {
		if err := s.scanAccount(ctx, account, result); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", account.Address, err))
			s.logger.Warn("mailbox scan failed for account",
				zap.String("address", account.Address), zap.Error(err))
		}
	}

	s.logger.Info("mailbox scan finished",
		zap.Int("accounts", len(accounts)),
		zap.Int("processed", result.Processed),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *mailboxService) scanAccount(ctx context.Context, account *domain.EmailAccount, result *ScanResult) error {
	provider, ok := s.providers[account.Provider]
	if !ok {
		return fmt.Errorf("unknown provider %q", account.Provider)
	}

	token := account.AccessToken
	if account.TokenNeedsRefresh(s.now()) {
		refreshed, err := provider.RefreshToken(ctx, account.RefreshToken)
		if err != nil {
			return fmt.Errorf("token refresh: %w", err)
		}
		token = refreshed.AccessToken
		if err := s.emailsRepo.UpdateAccountToken(ctx, account.AccountID, refreshed.AccessToken, refreshed.ExpiresAt); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}

	// Providers can only filter on a literal, so search for the number
	// prefix and let the pattern match pick out real lead numbers.
	messages, err := provider.SearchMessages(ctx, token, "LD-")
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	for _, msg := range messages {
		leadNumber := ExtractLeadNumber(msg.Subject)
		if leadNumber == "" {
			continue
		}
		result.Processed++

		if err := s.importMessage(ctx, leadNumber, msg, result); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s %q: %v", account.Address, msg.Subject, err))
			s.logger.Warn("message import failed",
				zap.String("subject", msg.Subject), zap.Error(err))
		}
	}
	return nil
}

func (s *mailboxService) importMessage(ctx context.Context, leadNumber string, msg MailMessage, result *ScanResult) error {
	exists, err := s.emailsRepo.MessageExists(ctx, msg.Subject, msg.ReceivedAt)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	lead, err := s.leadsRepo.GetLeadByNumber(ctx, leadNumber)
	if err != nil {
		if err == repository.ErrNotFound {
			return fmt.Errorf("no lead %s", leadNumber)
		}
		return err
	}

	thread, err := s.emailsRepo.GetOrCreateThread(ctx, lead.LeadID, msg.Subject)
	if err != nil {
		return err
	}
	_, err = s.emailsRepo.InsertMessage(ctx, &domain.EmailMessage{
		ThreadID:   thread.ThreadID,
		Subject:    msg.Subject,
		Sender:     msg.Sender,
		ReceivedAt: msg.ReceivedAt,
		Body:       msg.Body,
	})
	if err != nil {
		return err
	}

	result.Imported++
	s.logger.Info("imported lead email",
		zap.String("lead_number", leadNumber),
		zap.String("subject", msg.Subject))
	return nil
}
