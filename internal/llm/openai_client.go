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

	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/models"
)

// OpenAIConfig holds configuration for OpenAI-compatible endpoints (Groq, OpenAI)
type OpenAIConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// OpenAIClient talks to any /chat/completions endpoint
type OpenAIClient struct {
	provider   string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenAIMessage represents a message
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIRequest represents the chat completions request
type OpenAIRequest struct {
	Model    string          `json:"model"`
	Messages []OpenAIMessage `json:"messages"`
}

// OpenAIResponse represents the chat completions response
type OpenAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a new client. Requests are not retried.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIClient{
		provider: cfg.Provider,
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *OpenAIClient) Name() string {
	return c.provider
}

// Complete sends the conversation and returns the first choice's content
func (c *OpenAIClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	reqBody := OpenAIRequest{
		Model:    c.model,
		Messages: make([]OpenAIMessage, 0, len(messages)),
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, OpenAIMessage{Role: string(m.Role), Content: m.Content})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", modelError(constants.ErrCodeNetworkError, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", modelError(constants.ErrCodeNetworkError, 0, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", modelError(constants.ErrCodeInvalidAPIKey, resp.StatusCode, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", modelError(constants.ErrCodeRateLimited, resp.StatusCode, nil)
	case resp.StatusCode != http.StatusOK:
		return "", modelError(constants.ErrCodeModelUnavailable, resp.StatusCode, fmt.Errorf("%s", truncate(string(body), 200)))
	}

	var openaiResp OpenAIResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		return "", modelError(constants.ErrCodeInvalidDataFormat, 0, err)
	}
	if openaiResp.Error != nil {
		return "", modelError(constants.ErrCodeModelUnavailable, 0, fmt.Errorf("%s", openaiResp.Error.Message))
	}
	if len(openaiResp.Choices) == 0 {
		return "", modelError(constants.ErrCodeModelEmpty, 0, nil)
	}

	content := strings.TrimSpace(openaiResp.Choices[0].Message.Content)
	if content == "" {
		return "", modelError(constants.ErrCodeModelEmpty, 0, nil)
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
