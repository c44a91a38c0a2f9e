package engine

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// OllamaClient implements ModelClient using a local Ollama server.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// OllamaOption configures the Ollama client.
type OllamaOption func(*OllamaClient)

// WithOllamaModel sets the model name.
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) { c.model = model }
}

// WithOllamaHTTPClient replaces the HTTP client.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(c *OllamaClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewOllamaClient creates a new Ollama model client.
func NewOllamaClient(baseURL string, opts ...OllamaOption) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	c := &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      "llama3",
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Complete sends a non-streaming generate request.
func (c *OllamaClient) Complete(ctx context.Context, cr CompletionRequest) (string, error) {
	reqBody := ollamaRequest{Model: c.model, Prompt: cr.Prompt}
	reqBody.Options.Temperature = cr.Temperature
	reqBody.Options.NumPredict = maxTokensOr(cr.MaxTokens)

	return completeWithRetry(ctx, "ollama", func(ctx context.Context) (string, error) {
		var resp ollamaResponse
		if err := postJSON(ctx, c.httpClient, c.baseURL+"/api/generate", nil, reqBody, &resp); err != nil {
			return "", err
		}
		if resp.Error != "" {
			return "", errors.New("ollama error: " + resp.Error)
		}
		if resp.Response == "" {
			return "", errors.New("empty response")
		}
		return resp.Response, nil
	})
}
