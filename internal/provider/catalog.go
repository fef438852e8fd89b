package provider

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tkao/creatorlens/internal/domain"
)

// CatalogConfig holds configuration for the platform catalog client.
type CatalogConfig struct {
	BaseURL string
	APIKey  string
}

// HTTPCatalog implements Catalog against the platform data API.
type HTTPCatalog struct {
	client *resty.Client
}

// NewHTTPCatalog creates a catalog client.
func NewHTTPCatalog(cfg *CatalogConfig) *HTTPCatalog {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetTimeout(30 * time.Second)
	return &HTTPCatalog{client: client}
}

type catalogListResponse struct {
	Videos []CatalogVideo `json:"videos"`
	Error  string         `json:"error,omitempty"`
}

// ListVideos fetches the channel's video metadata, newest first.
func (c *HTTPCatalog) ListVideos(ctx context.Context, channelID string) ([]CatalogVideo, error) {
	var resp catalogListResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("channel_id", channelID).
		SetQueryParam("order", "published_desc").
		SetResult(&resp).
		Get("/videos")

	if err != nil {
		return nil, domain.Transient("catalog API unreachable", err)
	}

	if httpResp.StatusCode() == 404 {
		return nil, domain.NotFoundf("channel %s not found in catalog", channelID)
	}
	if httpResp.StatusCode() != 200 {
		return nil, classifyStatus("catalog API", httpResp.StatusCode(), resp.Error, nil)
	}

	return resp.Videos, nil
}
