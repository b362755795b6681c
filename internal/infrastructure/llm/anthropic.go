package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ExclusiveScanner/internal/config"
	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

const defaultAPIVersion = "2023-06-01"

// AnthropicClient implements ports.TextModel over the Messages API.
type AnthropicClient struct {
	endpoint   string
	apiKey     string
	version    string
	model      string
	httpClient *http.Client
}

var _ ports.TextModel = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.AnthropicConfig) *AnthropicClient {
	version := cfg.Version
	if version == "" {
		version = defaultAPIVersion
	}
	return &AnthropicClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		version:  version,
		model:    cfg.DiscoveryModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a single user prompt and returns the response blocks.
func (c *AnthropicClient) Complete(ctx context.Context, req ports.CompletionRequest) ([]domain.ContentBlock, error) {
	if c == nil {
		return nil, fmt.Errorf("anthropic client is nil")
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	if c.apiKey == "" || c.endpoint == "" || model == "" {
		return nil, fmt.Errorf("anthropic client misconfigured")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	body, err := json.Marshal(messageRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("anthropic error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	blocks := make([]domain.ContentBlock, 0, len(decoded.Content))
	for _, block := range decoded.Content {
		if block.Type == "text" {
			blocks = append(blocks, domain.TextBlock{Text: block.Text})
			continue
		}
		blocks = append(blocks, domain.OtherBlock{Type: block.Type})
	}

	return blocks, nil
}
