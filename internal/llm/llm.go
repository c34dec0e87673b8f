package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/TobiSchelling/marketbrief/internal/config"
)

// Summarizer turns a chunk of article text into a shorter abstract.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Name() string
}

// HuggingFaceSummarizer calls a hosted summarization model through the
// Hugging Face inference API.
type HuggingFaceSummarizer struct {
	Endpoint  string
	APIKey    string
	MaxLength int
	MinLength int
	client    *http.Client
}

// NewHuggingFaceSummarizer creates a Hugging Face summarizer. The API key is
// read from the environment variable apiKeyEnv.
func NewHuggingFaceSummarizer(endpoint, apiKeyEnv string, maxLength, minLength int) *HuggingFaceSummarizer {
	return &HuggingFaceSummarizer{
		Endpoint:  endpoint,
		APIKey:    os.Getenv(apiKeyEnv),
		MaxLength: maxLength,
		MinLength: minLength,
		client:    &http.Client{},
	}
}

func (h *HuggingFaceSummarizer) Name() string {
	return "huggingface"
}

// IsConfigured checks if the API key is set.
func (h *HuggingFaceSummarizer) IsConfigured() bool {
	return h.APIKey != ""
}

// Summarize posts text to the model endpoint. The response must be a JSON
// array whose first element carries a string summary_text.
func (h *HuggingFaceSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	body := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"max_length": h.MaxLength,
			"min_length": h.MinLength,
			"do_sample":  false,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface API returned %d: %s", resp.StatusCode, string(respBody))
	}

	return parseSummaryText(respBody)
}

func parseSummaryText(body []byte) (string, error) {
	var results []map[string]any
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("empty response array")
	}
	summary, ok := results[0]["summary_text"].(string)
	if !ok {
		return "", fmt.Errorf("response has no summary_text string")
	}
	return summary, nil
}

// OllamaSummarizer prompts a local Ollama chat model.
type OllamaSummarizer struct {
	Model     string
	BaseURL   string
	MaxTokens int
	client    *http.Client
}

// NewOllamaSummarizer creates a new Ollama summarizer.
func NewOllamaSummarizer(model, baseURL string, maxTokens int) *OllamaSummarizer {
	return &OllamaSummarizer{
		Model:     model,
		BaseURL:   baseURL,
		MaxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaSummarizer) Name() string {
	return "ollama"
}

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaSummarizer) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	log.Printf("Ollama model %q not found", o.Model)
	return false
}

// Summarize sends the summary prompt to Ollama's chat endpoint.
func (o *OllamaSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": SummaryPrompt(text)},
		},
		"stream": false,
		"options": map[string]any{
			"num_predict": o.MaxTokens,
			"temperature": 0.3,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return StripCodeFence(result.Message.Content), nil
}

// OpenAISummarizer prompts an OpenAI chat-completions model.
type OpenAISummarizer struct {
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	client    *http.Client
}

// NewOpenAISummarizer creates a new OpenAI summarizer.
func NewOpenAISummarizer(model, apiKeyEnv string, maxTokens int) *OpenAISummarizer {
	return &OpenAISummarizer{
		Model:     model,
		APIKey:    os.Getenv(apiKeyEnv),
		BaseURL:   "https://api.openai.com/v1",
		MaxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAISummarizer) Name() string {
	return "openai"
}

// IsConfigured checks if the API key is set.
func (o *OpenAISummarizer) IsConfigured() bool {
	return o.APIKey != ""
}

// Summarize sends the summary prompt to OpenAI.
func (o *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": SummaryPrompt(text)},
		},
		"max_tokens":  o.MaxTokens,
		"temperature": 0.3,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return StripCodeFence(result.Choices[0].Message.Content), nil
}

// CreateSummarizer builds the summarization backend named in cfg.Provider.
func CreateSummarizer(cfg config.Summarization) (Summarizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "huggingface", "hf":
		s := NewHuggingFaceSummarizer(cfg.Endpoint, cfg.APIKeyEnv, cfg.MaxLength, cfg.MinLength)
		if !s.IsConfigured() {
			log.Printf("%s is not set; summarization requests will be unauthenticated", cfg.APIKeyEnv)
		}
		return s, nil

	case "ollama":
		s := NewOllamaSummarizer(cfg.Model, cfg.OllamaURL, cfg.MaxLength)
		if s.IsConfigured() {
			log.Printf("Using Ollama with model: %s", cfg.Model)
			return s, nil
		}
		log.Println("Ollama not available, trying OpenAI fallback...")
		o := NewOpenAISummarizer(cfg.OpenAIModel, cfg.APIKeyEnv, cfg.MaxLength)
		if o.IsConfigured() {
			log.Printf("Using OpenAI with model: %s", cfg.OpenAIModel)
			return o, nil
		}
		return nil, fmt.Errorf("no summarizer available: Ollama is not running and %s is not set", cfg.APIKeyEnv)

	case "openai":
		s := NewOpenAISummarizer(cfg.OpenAIModel, cfg.APIKeyEnv, cfg.MaxLength)
		if !s.IsConfigured() {
			return nil, fmt.Errorf("OpenAI API key not configured: set %s", cfg.APIKeyEnv)
		}
		return s, nil

	case "gemini":
		s, err := NewGeminiSummarizer(context.Background(), cfg.GeminiModel, os.Getenv(cfg.APIKeyEnv), cfg.MaxLength)
		if err != nil {
			return nil, err
		}
		log.Printf("Using Gemini with model: %s", cfg.GeminiModel)
		return s, nil

	case "anthropic":
		s, err := NewAnthropicSummarizer(cfg.AnthropicModel, os.Getenv(cfg.APIKeyEnv), cfg.MaxLength)
		if err != nil {
			return nil, err
		}
		log.Printf("Using Anthropic with model: %s", cfg.AnthropicModel)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown summarization provider %q", cfg.Provider)
	}
}
