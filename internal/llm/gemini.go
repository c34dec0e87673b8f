package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiSummarizer prompts a Google Gemini model.
type GeminiSummarizer struct {
	Model     string
	MaxTokens int
	client    *genai.Client
}

// NewGeminiSummarizer creates a Gemini summarizer backed by the Gemini API.
func NewGeminiSummarizer(ctx context.Context, model, apiKey string, maxTokens int) (*GeminiSummarizer, error) {
	return newGeminiSummarizer(ctx, model, apiKey, maxTokens, genai.HTTPOptions{})
}

func newGeminiSummarizer(ctx context.Context, model, apiKey string, maxTokens int, httpOpts genai.HTTPOptions) (*GeminiSummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiSummarizer{Model: model, MaxTokens: maxTokens, client: client}, nil
}

func (g *GeminiSummarizer) Name() string {
	return "gemini"
}

// Summarize sends the summary prompt to Gemini.
func (g *GeminiSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.Model, genai.Text(SummaryPrompt(text)), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	out := resp.Text()
	if out == "" {
		return "", fmt.Errorf("no text in gemini response")
	}
	return StripCodeFence(out), nil
}
