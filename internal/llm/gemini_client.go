package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/models"
)

// GeminiClient completes conversations through the Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client. baseURL is optional.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" || strings.HasPrefix(model, "llama") {
		model = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Name() string {
	return "gemini"
}

func (g *GeminiClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	system, contents := toGeminiContents(messages)

	var gc *genai.GenerateContentConfig
	if system != "" {
		gc = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, gc)
	if err != nil {
		return "", modelError(constants.ErrCodeModelUnavailable, 0, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", modelError(constants.ErrCodeModelEmpty, 0, nil)
	}
	return text, nil
}

// toGeminiContents splits out the system instruction and maps assistant turns
// to the model role. Multiple system messages are joined.
func toGeminiContents(messages []models.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
