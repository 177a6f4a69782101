package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"sqlsentry/internal/logging"
)

// GenAILLM is the default LLMInterface backend, backed by
// google.golang.org/genai, the same SDK internal/embedding uses for
// embeddings.
type GenAILLM struct {
	client *genai.Client
	model  string
}

// NewGenAILLM creates a GenAI-backed LLMInterface for model (e.g.
// "gemini-2.0-flash" for the Architect, a reasoning model for the
// Critic).
func NewGenAILLM(apiKey, model string) (*GenAILLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("agent: GenAI API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("agent: model name is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("agent: creating GenAI client: %w", err)
	}
	return &GenAILLM{client: client, model: model}, nil
}

// Complete sends one system+user turn to the configured model and
// returns its text response.
func (g *GenAILLM) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("agent: GenAI completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("agent: GenAI returned no content")
	}

	text := resp.Text()
	logging.AgentDebug("GenAI completion: model=%s chars=%d", g.model, len(text))
	return text, nil
}
