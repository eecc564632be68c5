// Package completion provides a client for an OpenAI-compatible
// chat-completion service.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vulnscout/vulnscout/internal/config"
	"github.com/vulnscout/vulnscout/internal/pkg/errors"
)

// Client generates free-text completions for a system/user prompt pair.
type Client interface {
	// Complete sends one chat completion request and returns the first
	// choice's message content.
	Complete(ctx context.Context, system, user string) (string, error)
}

// HTTPClient is an HTTP implementation of Client against the
// /chat/completions endpoint.
type HTTPClient struct {
	cfg        config.CompletionConfig
	httpClient *http.Client
}

// NewHTTPClient creates a completion client from configuration.
func NewHTTPClient(cfg config.CompletionConfig) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.ValidationError("completion api_key must not be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &HTTPClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    100,
				MaxConnsPerHost: 100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements Client.
func (c *HTTPClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", errors.InternalError("encoding completion request", err)
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.InternalError("building completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.CompletionError("completion request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.CompletionError("reading completion response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var parsed chatResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != nil {
			return "", errors.CompletionError(
				fmt.Sprintf("completion service returned %d: %s", resp.StatusCode, parsed.Error.Message), nil)
		}
		return "", errors.CompletionError(
			fmt.Sprintf("completion service returned %d", resp.StatusCode), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errors.CompletionError("decoding completion response", err)
	}

	if len(parsed.Choices) == 0 {
		return "", errors.CompletionError("completion response contained no choices", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}
