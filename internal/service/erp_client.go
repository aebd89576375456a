package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kimoncrm/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ERPItem is one catalog row as the ERP returns it.
type ERPItem struct {
	Code     string  `json:"code"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
}

type erpResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Items   json.RawMessage `json:"items"`
}

// ERPClient pulls the product catalog from the upstream ERP.
type ERPClient interface {
	FetchCatalog(ctx context.Context) ([]ERPItem, error)
}

type erpClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewERPClient(cfg config.ERPConfig, logger *zap.Logger) ERPClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetBasicAuth(cfg.Username, cfg.Password).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &erpClient{httpClient: client, logger: logger}
}

func (c *erpClient) FetchCatalog(ctx context.Context) ([]ERPItem, error) {
	c.logger.Info("Fetching ERP catalog")

	var response erpResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get("/api/catalog/items")
	if err != nil {
		return nil, fmt.Errorf("failed to call ERP: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ERP returned %d", resp.StatusCode())
	}
	if !response.Success {
		return nil, fmt.Errorf("ERP error: %s", response.Message)
	}

	var items []ERPItem
	if err := json.Unmarshal(response.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ERP items: %w", err)
	}

	c.logger.Info("Fetched ERP catalog", zap.Int("item_count", len(items)))
	return items, nil
}
