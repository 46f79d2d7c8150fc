// internal/adapter/ai/client.go

// Package ai implements the language-model collaborator ports over an
// OpenAI-compatible chat completions API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"trendscout/internal/config"
)

// message is one turn of a chat completion request. Content is either
// a plain string or a slice of parts for multimodal requests.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Client is a thin chat completions client shared by the classifier
// implementations in this package
type Client struct {
	cfg        config.AIConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an AI API client
func NewClient(cfg config.AIConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Configured reports whether an API key is present. Without one the
// classifiers short-circuit to their deterministic fallbacks.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// chat performs one completion call and returns the first choice's
// message content
func (c *Client) chat(ctx context.Context, model string, messages []message, maxTokens int) (string, error) {
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": c.cfg.Temperature,
		"max_tokens":  maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// stripFences removes a surrounding markdown code fence, which models
// add around JSON output despite instructions not to
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
