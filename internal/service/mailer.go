package service

import (
	"context"
	"fmt"
	"time"

	"kimoncrm/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Mailer sends task/assignment notification emails. Sends are best-effort:
// callers log failures and never fail the primary mutation over them.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// HTTPMailer posts to a transactional mail HTTP endpoint.
type HTTPMailer struct {
	client *resty.Client
	from   string
	logger *zap.Logger
}

func NewHTTPMailer(cfg config.MailConfig, logger *zap.Logger) *HTTPMailer {
	client := resty.New().
		SetBaseURL(cfg.NotifyEndpoint).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+cfg.NotifyAPIKey)
	return &HTTPMailer{client: client, from: cfg.NotifyFrom, logger: logger}
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"from":    m.from,
			"to":      to,
			"subject": subject,
			"body":    body,
		}).
		Post("")
	if err != nil {
		return fmt.Errorf("failed to send notification mail: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification mail endpoint returned %d", resp.StatusCode())
	}
	return nil
}
