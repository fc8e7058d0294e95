package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	chatTimeout  = 60 * time.Second
	embedTimeout = 30 * time.Second

	// Embedding inputs are capped before hitting the provider.
	maxEmbedChars = 8000
)

// GeminiConfig carries the provider knobs the client needs.
type GeminiConfig struct {
	APIKey      string
	Model       string
	EmbedModels []string // candidates, tried in order on 404

	// SimulateFailureProb injects a synthetic failure before the real chat
	// call with the given probability. Used to chaos-test the retry path.
	SimulateFailureProb float64
}

type geminiClient struct {
	client      *genai.Client
	model       string
	embedModels []string
	failureProb float64
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (LLMClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	embedModels := cfg.EmbedModels
	if len(embedModels) == 0 {
		embedModels = []string{"text-embedding-004", "gemini-embedding-001"}
	}

	return &geminiClient{
		client:      client,
		model:       model,
		embedModels: embedModels,
		failureProb: cfg.SimulateFailureProb,
	}, nil
}

// Chat implements LLMClient. System messages become the system instruction;
// user/assistant messages map onto Gemini user/model turns. JSON output is
// requested from the provider directly.
func (g *geminiClient) Chat(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	if g.failureProb > 0 && rand.Float64() < g.failureProb {
		return "", errors.New("simulated llm failure")
	}

	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	system, contents := convertMessages(messages)

	temp := float32(temperature)
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		// Empty candidates degrade to an empty object; the pipeline's
		// JSON-call protocol takes it from there.
		return "{}", nil
	}

	return text, nil
}

// Embed implements LLMClient. Overly long input is truncated first. Candidate
// embedding models are tried in order; a 404 means "try the next one", any
// other provider error is a hard failure.
func (g *geminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	if runes := []rune(text); len(runes) > maxEmbedChars {
		text = string(runes[:maxEmbedChars])
	}

	var lastErr error
	for _, model := range g.embedModels {
		result, err := g.client.Models.EmbedContent(ctx, model, genai.Text(text), nil)
		if err != nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if result == nil || len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("empty embedding result")
		}

		values := result.Embeddings[0].Values
		vector := make([]float64, len(values))
		for i, v := range values {
			vector[i] = float64(v)
		}
		return vector, nil
	}

	return nil, fmt.Errorf("no embedding model available: %w", lastErr)
}

// convertMessages maps provider-agnostic messages to Gemini format. System
// messages are collected into a single instruction.
func convertMessages(messages []ChatMessage) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content

	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}

		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	return strings.TrimSpace(strings.Join(system, "\n")), contents
}
