// Package llm provides the text-generation client used for name normalization
// and match disambiguation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "x-ai/grok-4.1-fast:free"
)

// Generator produces a text completion for a prompt. The response is prose
// that may contain a single JSON object; callers extract it with
// ExtractJSONObject.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options controls a single generation call.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client handles communication with an OpenRouter-compatible chat API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
}

// Config holds generation client configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a new generation client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// message represents a chat message.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// Generate sends a single-turn prompt and returns the raw completion text.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return "", fmt.Errorf("API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return "", fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// doWithRetry sends the request, retrying on 429 and 5xx with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("API returned status %d", resp.StatusCode)
			resp.Body.Close()
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("send request after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

var _ Generator = (*Client)(nil)
