package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skylark/opscommand/internal/config"
	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/metrics"
	"skylark/opscommand/internal/models"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// Client sends an ordered message list to a hosted model and returns one completion
type Client interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
	Name() string
}

// ErrModelUnavailable matches every ModelError via errors.Is
var ErrModelUnavailable = errors.New("model unavailable")

// ModelError describes a failed model call
type ModelError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func (e *ModelError) Is(target error) bool {
	return target == ErrModelUnavailable
}

func modelError(code string, status int, err error) error {
	return &ModelError{
		Code:       code,
		Message:    constants.GetErrorMessage(code),
		StatusCode: status,
		Err:        err,
	}
}

// NewFromConfig builds the configured model client wrapped with metrics
func NewFromConfig(ctx context.Context, cfg config.ModelConfig, m *metrics.MetricsRegistry) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for model provider %q", cfg.Provider)
	}

	var client Client
	switch cfg.Provider {
	case "groq", "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
			if cfg.Provider == "openai" {
				baseURL = OpenAIBaseURL
			}
		}
		client = NewOpenAIClient(OpenAIConfig{
			Provider: cfg.Provider,
			APIKey:   cfg.APIKey,
			BaseURL:  baseURL,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		})
	case "gemini":
		g, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		client = g
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}

	logging.Info("Model client initialized", "provider", client.Name(), "model", cfg.Model)
	return NewInstrumentedClient(client, m), nil
}

// InstrumentedClient records latency and failures of every completion
type InstrumentedClient struct {
	inner   Client
	metrics *metrics.MetricsRegistry
}

// NewInstrumentedClient wraps inner; m may be nil
func NewInstrumentedClient(inner Client, m *metrics.MetricsRegistry) *InstrumentedClient {
	return &InstrumentedClient{inner: inner, metrics: m}
}

func (c *InstrumentedClient) Name() string {
	return c.inner.Name()
}

func (c *InstrumentedClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	start := time.Now()
	out, err := c.inner.Complete(ctx, messages)
	elapsed := time.Since(start)
	c.metrics.ObserveModelCall(c.inner.Name(), err, elapsed)

	if err != nil {
		logging.Warn("Model call failed",
			"provider", c.inner.Name(),
			"messages", len(messages),
			"duration_ms", elapsed.Milliseconds(),
			"error", err.Error(),
		)
		return "", err
	}
	logging.Debug("Model call completed",
		"provider", c.inner.Name(),
		"messages", len(messages),
		"duration_ms", elapsed.Milliseconds(),
		"response_len", len(out),
	)
	return out, nil
}
