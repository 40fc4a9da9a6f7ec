// Package llm provides the model clients injected into extraction steps.
// The Client speaks the OpenAI-compatible chat completions protocol, which
// most hosted and self-hosted providers expose.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is an OpenAI-compatible chat completions client. It implements
// ports.ChatModel. Transport-level retries and backoff live in the engine's
// retry policy, not here, so the client performs exactly one request per
// Complete call.
type Client struct {
	model       string
	apiKey      string
	baseURL     string
	temperature float64
	maxTokens   int
	http        *resty.Client
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL points the client at an OpenAI-compatible endpoint. Empty
// falls back to OPENAI_BASE_URL, then the public OpenAI API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) { c.maxTokens = n }
}

// WithHTTPTimeout bounds the underlying HTTP request.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// NewClient creates a chat client for the given model.
func NewClient(model, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		model:       model,
		apiKey:      apiKey,
		temperature: 0,
		maxTokens:   1024,
		http:        resty.New().SetTimeout(60 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			c.baseURL = envURL
		}
	}
	return c
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a single-turn chat completion request. Transport failures
// and 5xx/429 responses are classified Transient so the engine can retry
// them; other non-200s are Fatal.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	response, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(request).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", domain.Transientf("chat completion request: %v", err)
	}

	switch code := response.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusTooManyRequests || code >= 500:
		return "", domain.Transientf("chat completion: HTTP %d: %s", code, response.String())
	default:
		return "", domain.Fatalf("chat completion: HTTP %d: %s", code, response.String())
	}

	var result chatResponse
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", domain.Transientf("chat completion returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
