package provider

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tkao/creatorlens/internal/domain"
)

// EmbeddingConfig holds configuration for the embedding client.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// RemoteEmbedder implements Embedder against a Jina-style embeddings API.
type RemoteEmbedder struct {
	client     *resty.Client
	provider   string
	model      string
	endpoint   string
	dimensions int
}

// NewRemoteEmbedder creates an embedding client.
func NewRemoteEmbedder(cfg *EmbeddingConfig) *RemoteEmbedder {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1"
	}

	providerName := cfg.Provider
	if providerName == "" {
		providerName = "jina"
	}

	return &RemoteEmbedder{
		client:     client,
		provider:   providerName,
		model:      cfg.Model,
		endpoint:   baseURL + "/embeddings",
		dimensions: cfg.Dimensions,
	}
}

// Provider returns the provider name used for index compatibility checks.
func (e *RemoteEmbedder) Provider() string {
	return e.provider
}

// Model returns the model identifier used for index compatibility checks.
func (e *RemoteEmbedder) Model() string {
	return e.model
}

// Dimension returns the configured vector dimension.
func (e *RemoteEmbedder) Dimension() int {
	return e.dimensions
}

type embeddingRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
}

// Embed generates an embedding for a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, domain.Transient("no embedding returned", nil)
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving input order.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := embeddingRequest{
		Model:         e.model,
		Task:          "retrieval.passage",
		Dimensions:    e.dimensions,
		Input:         texts,
		EmbeddingType: "float",
	}

	var resp embeddingResponse
	httpResp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(e.endpoint)

	if err != nil {
		return nil, domain.Transient("embedding API unreachable", err)
	}

	if httpResp.StatusCode() != 200 {
		return nil, classifyStatus("embedding API", httpResp.StatusCode(), resp.Detail, nil)
	}

	if len(resp.Data) != len(texts) {
		return nil, domain.Transient(
			fmt.Sprintf("unexpected number of embeddings: got %d, expected %d", len(resp.Data), len(texts)), nil)
	}

	// Sort by index to ensure correct order
	embeddings := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < len(embeddings) {
			embeddings[item.Index] = item.Embedding
		}
	}

	return embeddings, nil
}
