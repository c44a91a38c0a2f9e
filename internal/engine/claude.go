package engine

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ClaudeClient implements ModelClient using the Anthropic Messages API.
type ClaudeClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// ClaudeOption configures the Claude client.
type ClaudeOption func(*ClaudeClient)

// WithClaudeModel sets the model name.
func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) { c.model = model }
}

// WithClaudeBaseURL overrides the API endpoint.
func WithClaudeBaseURL(url string) ClaudeOption {
	return func(c *ClaudeClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithClaudeHTTPClient replaces the HTTP client.
func WithClaudeHTTPClient(hc *http.Client) ClaudeOption {
	return func(c *ClaudeClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClaudeClient creates a new Anthropic model client.
func NewClaudeClient(apiKey string, opts ...ClaudeOption) *ClaudeClient {
	c := &ClaudeClient{
		apiKey:     apiKey,
		baseURL:    "https://api.anthropic.com/v1",
		model:      "claude-sonnet-4-20250514",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type claudeRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt to the Messages API and returns the first text block.
func (c *ClaudeClient) Complete(ctx context.Context, cr CompletionRequest) (string, error) {
	reqBody := claudeRequest{
		Model:       c.model,
		MaxTokens:   maxTokensOr(cr.MaxTokens),
		Temperature: cr.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: cr.Prompt}},
	}
	header := http.Header{
		"X-Api-Key":         {c.apiKey},
		"Anthropic-Version": {"2023-06-01"},
	}

	return completeWithRetry(ctx, "claude", func(ctx context.Context) (string, error) {
		var resp claudeResponse
		if err := postJSON(ctx, c.httpClient, c.baseURL+"/messages", header, reqBody, &resp); err != nil {
			return "", err
		}
		if resp.Error != nil {
			return "", errors.New("api error: " + resp.Error.Message)
		}
		for _, block := range resp.Content {
			if block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", errors.New("no text content in response")
	})
}
