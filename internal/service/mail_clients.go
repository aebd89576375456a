package service

import (
	"context"
	"fmt"
	"time"

	"kimoncrm/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// MailMessage is a provider-neutral view of one mailbox message.
type MailMessage struct {
	Subject    string
	Sender     string
	ReceivedAt time.Time
	Body       string
}

// TokenResult is the outcome of an OAuth refresh.
type TokenResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

// MailProvider talks to one mailbox backend (Microsoft Graph or Gmail).
type MailProvider interface {
	// RefreshToken exchanges the refresh token for a new access token.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error)
	// SearchMessages returns messages whose subject contains the query.
	SearchMessages(ctx context.Context, accessToken, query string) ([]MailMessage, error)
}

// ---- Microsoft Graph ----

type microsoftMailProvider struct {
	tokenClient *resty.Client
	apiClient   *resty.Client
	cfg         config.MailConfig
	logger      *zap.Logger
}

func NewMicrosoftMailProvider(cfg config.MailConfig, logger *zap.Logger) MailProvider {
	tokenClient := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)
	apiClient := resty.New().
		SetBaseURL("https://graph.microsoft.com/v1.0").
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1*time.Second).
		SetHeader("Accept", "application/json")
	return &microsoftMailProvider{
		tokenClient: tokenClient,
		apiClient:   apiClient,
		cfg:         cfg,
		logger:      logger,
	}
}

type oauthTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

func (p *microsoftMailProvider) RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	var response oauthTokenResponse
	resp, err := p.tokenClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
			"client_id":     p.cfg.MicrosoftClientID,
			"client_secret": p.cfg.MicrosoftClientSecret,
			"scope":         "https://graph.microsoft.com/Mail.Read offline_access",
		}).
		SetResult(&response).
		SetError(&response).
		Post(p.cfg.MicrosoftTokenURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	if resp.IsError() || response.AccessToken == "" {
		return nil, fmt.Errorf("token refresh rejected: %s %s", response.Error, response.ErrorDesc)
	}
	return &TokenResult{
		AccessToken: response.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(response.ExpiresIn) * time.Second),
	}, nil
}

type graphMessagesResponse struct {
	Value []struct {
		Subject          string    `json:"subject"`
		ReceivedDateTime time.Time `json:"receivedDateTime"`
		From             struct {
			EmailAddress struct {
				Address string `json:"address"`
			} `json:"emailAddress"`
		} `json:"from"`
		Body struct {
			Content string `json:"content"`
		} `json:"body"`
	} `json:"value"`
}

func (p *microsoftMailProvider) SearchMessages(ctx context.Context, accessToken, query string) ([]MailMessage, error) {
	var response graphMessagesResponse
	resp, err := p.apiClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("$filter", fmt.Sprintf("contains(subject,'%s')", query)).
		SetQueryParam("$top", "50").
		SetQueryParam("$select", "subject,from,receivedDateTime,body").
		SetResult(&response).
		Get("/me/messages")
	if err != nil {
		return nil, fmt.Errorf("failed to call graph: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("graph returned %d", resp.StatusCode())
	}

	messages := make([]MailMessage, 0, len(response.Value))
	for _, m := range response.Value {
		messages = append(messages, MailMessage{
			Subject:    m.Subject,
			Sender:     m.From.EmailAddress.Address,
			ReceivedAt: m.ReceivedDateTime,
			Body:       m.Body.Content,
		})
	}
	return messages, nil
}

// ---- Gmail ----

type googleMailProvider struct {
	tokenClient *resty.Client
	apiClient   *resty.Client
	cfg         config.MailConfig
	logger      *zap.Logger
}

func NewGoogleMailProvider(cfg config.MailConfig, logger *zap.Logger) MailProvider {
	tokenClient := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)
	apiClient := resty.New().
		SetBaseURL("https://gmail.googleapis.com/gmail/v1").
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1*time.Second).
		SetHeader("Accept", "application/json")
	return &googleMailProvider{
		tokenClient: tokenClient,
		apiClient:   apiClient,
		cfg:         cfg,
		logger:      logger,
	}
}

func (p *googleMailProvider) RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	var response oauthTokenResponse
	resp, err := p.tokenClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
			"client_id":     p.cfg.GoogleClientID,
			"client_secret": p.cfg.GoogleClientSecret,
		}).
		SetResult(&response).
		SetError(&response).
		Post(p.cfg.GoogleTokenURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	if resp.IsError() || response.AccessToken == "" {
		return nil, fmt.Errorf("token refresh rejected: %s %s", response.Error, response.ErrorDesc)
	}
	return &TokenResult{
		AccessToken: response.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(response.ExpiresIn) * time.Second),
	}, nil
}

type gmailListResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type gmailMessageResponse struct {
	InternalDate string `json:"internalDate"`
	Snippet      string `json:"snippet"`
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

func (p *googleMailProvider) SearchMessages(ctx context.Context, accessToken, query string) ([]MailMessage, error) {
	var list gmailListResponse
	resp, err := p.apiClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("q", fmt.Sprintf("subject:%s", query)).
		SetQueryParam("maxResults", "50").
		SetResult(&list).
		Get("/users/me/messages")
	if err != nil {
		return nil, fmt.Errorf("failed to call gmail: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gmail returned %d", resp.StatusCode())
	}

	messages := make([]MailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		var msg gmailMessageResponse
		resp, err := p.apiClient.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetQueryParam("format", "metadata").
			SetResult(&msg).
			Get("/users/me/messages/" + ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ref.ID, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("gmail returned %d for message %s", resp.StatusCode(), ref.ID)
		}

		out := MailMessage{Body: msg.Snippet}
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				out.Subject = h.Value
			case "From":
				out.Sender = h.Value
			}
		}
		if millis, err := parseMillis(msg.InternalDate); err == nil {
			out.ReceivedAt = time.UnixMilli(millis).UTC()
		}
		messages = append(messages, out)
	}
	return messages, nil
}

func parseMillis(s string) (int64, error) {
	var millis int64
	_, err := fmt.Sscanf(s, "%d", &millis)
	return millis, err
}
