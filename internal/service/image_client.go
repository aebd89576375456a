package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kimoncrm/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ImageClient finds and downloads product images. Downloads are capped at
// 30 seconds each so one hung provider cannot stall a whole batch.
type ImageClient interface {
	// SearchImage returns the URL of the best image match for the query,
	// or "" when the provider has nothing.
	SearchImage(ctx context.Context, query string) (string, error)
	// Download fetches the image and stores it under the image directory,
	// returning the stored file path.
	Download(ctx context.Context, imageURL, baseName string) (string, error)
}

type imageClient struct {
	searchClient   *resty.Client
	downloadClient *resty.Client
	storeDir       string
	logger         *zap.Logger
}

func NewImageClient(cfg config.ImagesConfig, logger *zap.Logger) ImageClient {
	search := resty.New().
		SetBaseURL(cfg.SearchURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Accept", "application/json")
	download := resty.New().
		SetTimeout(30 * time.Second)
	return &imageClient{
		searchClient:   search,
		downloadClient: download,
		storeDir:       cfg.StoreDir,
		logger:         logger,
	}
}

type imageSearchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

func (c *imageClient) SearchImage(ctx context.Context, query string) (string, error) {
	var response imageSearchResponse
	resp, err := c.searchClient.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("count", "1").
		SetResult(&response).
		Get("")
	if err != nil {
		return "", fmt.Errorf("image search failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("image search returned %d", resp.StatusCode())
	}
	if len(response.Results) == 0 {
		return "", nil
	}
	return response.Results[0].URL, nil
}

func (c *imageClient) Download(ctx context.Context, imageURL, baseName string) (string, error) {
	if err := os.MkdirAll(c.storeDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}
	path := filepath.Join(c.storeDir, baseName)
	resp, err := c.downloadClient.R().
		SetContext(ctx).
		SetOutput(path).
		Get(imageURL)
	if err != nil {
		return "", fmt.Errorf("image download failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("image download returned %d", resp.StatusCode())
	}
	return path, nil
}
