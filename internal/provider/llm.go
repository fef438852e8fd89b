package provider

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tkao/creatorlens/internal/domain"
)

// LLMConfig holds configuration for the generation client.
type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// ChatGenerator implements Generator against an OpenAI-compatible chat
// completions endpoint.
type ChatGenerator struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewChatGenerator creates a generation client.
func NewChatGenerator(cfg *LLMConfig) *ChatGenerator {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &ChatGenerator{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// Model returns the model identifier.
func (g *ChatGenerator) Model() string {
	return g.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends a system+user prompt pair and returns the completion text.
func (g *ChatGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	req := chatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: 0.7,
	}

	var resp chatResponse
	httpResp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(g.endpoint)

	if err != nil {
		return "", domain.Transient("generation API unreachable", err)
	}

	if httpResp.StatusCode() != 200 {
		msg := ""
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return "", classifyStatus("generation API", httpResp.StatusCode(), msg, nil)
	}

	if len(resp.Choices) == 0 {
		return "", domain.Transient("generation API returned no choices", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

// ExtractJSON strips markdown code fences and surrounding prose from an LLM
// response, returning the outermost JSON object or array. Models routinely
// wrap JSON output despite instructions not to.
func ExtractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	objStart := strings.Index(cleaned, "{")
	arrStart := strings.Index(cleaned, "[")

	start := objStart
	endCh := "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start = arrStart
		endCh = "]"
	}
	if start == -1 {
		return cleaned
	}

	end := strings.LastIndex(cleaned, endCh)
	if end <= start {
		return cleaned
	}
	return cleaned[start : end+1]
}
