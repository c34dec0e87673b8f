package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/TobiSchelling/marketbrief/internal/config"
)

func TestStripCodeFencePlain(t *testing.T) {
	if got := StripCodeFence("  Stocks rose.  "); got != "Stocks rose." {
		t.Errorf("unexpected %q", got)
	}
}

func TestStripCodeFenceWithLanguage(t *testing.T) {
	text := "```text\nStocks rose.\nBonds fell.\n```"
	if got := StripCodeFence(text); got != "Stocks rose.\nBonds fell." {
		t.Errorf("unexpected %q", got)
	}
}

func TestStripCodeFenceUnclosed(t *testing.T) {
	if got := StripCodeFence("```\nStocks rose."); got != "Stocks rose." {
		t.Errorf("unexpected %q", got)
	}
}

func TestStripCodeFenceSingleLine(t *testing.T) {
	if got := StripCodeFence("```Stocks rose.```"); got != "Stocks rose." {
		t.Errorf("unexpected %q", got)
	}
}

func TestSummaryPromptContainsText(t *testing.T) {
	p := SummaryPrompt("Apple shares rose 3%.")
	if !strings.Contains(p, "Apple shares rose 3%.") {
		t.Error("prompt should embed the article text")
	}
}

func TestHuggingFaceSummarize(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`[{"summary_text": "Stocks rose ."}]`))
	}))
	defer srv.Close()

	t.Setenv("TEST_HF_KEY", "hf_secret")
	s := NewHuggingFaceSummarizer(srv.URL, "TEST_HF_KEY", 500, 50)

	out, err := s.Summarize(context.Background(), "Markets had a good day.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Stocks rose ." {
		t.Errorf("expected raw summary text, got %q", out)
	}
	if gotAuth != "Bearer hf_secret" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
	if gotBody["inputs"] != "Markets had a good day." {
		t.Errorf("unexpected inputs %v", gotBody["inputs"])
	}
	params, ok := gotBody["parameters"].(map[string]any)
	if !ok {
		t.Fatalf("missing parameters in %v", gotBody)
	}
	if params["max_length"] != float64(500) || params["min_length"] != float64(50) || params["do_sample"] != false {
		t.Errorf("unexpected parameters %v", params)
	}
}

func TestHuggingFaceSummarizeBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"object instead of array", 200, `{"summary_text": "x"}`},
		{"empty array", 200, `[]`},
		{"missing field", 200, `[{"generated_text": "x"}]`},
		{"non-string field", 200, `[{"summary_text": 42}]`},
		{"model loading", 503, `{"error": "Model is currently loading"}`},
		{"not json", 200, `<html>busy</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewHuggingFaceSummarizer(srv.URL, "UNSET_TEST_KEY", 100, 10)
			if _, err := s.Summarize(context.Background(), "text"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestOllamaSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
		case "/api/chat":
			w.Write([]byte(`{"message":{"content":"Chipmakers rallied."}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewOllamaSummarizer("qwen2.5:7b", srv.URL, 200)
	if !s.IsConfigured() {
		t.Fatal("expected Ollama to be configured")
	}
	out, err := s.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Chipmakers rallied." {
		t.Errorf("unexpected %q", out)
	}
}

func TestOllamaNotConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3:8b"}]}`))
	}))
	defer srv.Close()

	if NewOllamaSummarizer("qwen2.5:7b", srv.URL, 200).IsConfigured() {
		t.Error("expected missing model to be reported")
	}
}

func TestOpenAISummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("{\"choices\":[{\"message\":{\"content\":\"```\\nBanks gained.\\n```\"}}]}"))
	}))
	defer srv.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	s := NewOpenAISummarizer("gpt-4o-mini", "TEST_OPENAI_KEY", 200)
	s.BaseURL = srv.URL

	out, err := s.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Banks gained." {
		t.Errorf("unexpected %q", out)
	}
}

func TestOpenAINoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	s := NewOpenAISummarizer("gpt-4o-mini", "TEST_OPENAI_KEY", 200)
	s.BaseURL = srv.URL
	if _, err := s.Summarize(context.Background(), "text"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestAnthropicSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_test",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "Oil prices slipped."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	s, err := NewAnthropicSummarizer("claude-haiku-4-5", "test-key", 200,
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Oil prices slipped." {
		t.Errorf("unexpected %q", out)
	}
}

func TestSDKSummarizersRequireKey(t *testing.T) {
	if _, err := NewAnthropicSummarizer("claude-haiku-4-5", "", 100); err == nil {
		t.Error("expected anthropic to require a key")
	}
	if _, err := NewGeminiSummarizer(context.Background(), "gemini-2.5-flash", "", 100); err == nil {
		t.Error("expected gemini to require a key")
	}
}

func TestCreateSummarizer(t *testing.T) {
	cfg := config.Default().Summarization

	s, err := CreateSummarizer(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "huggingface" {
		t.Errorf("expected huggingface by default, got %s", s.Name())
	}

	cfg.Provider = "openai"
	cfg.APIKeyEnv = "UNSET_OPENAI_TEST_KEY"
	if _, err := CreateSummarizer(cfg); err == nil {
		t.Error("expected error without an OpenAI key")
	}

	t.Setenv("SET_OPENAI_TEST_KEY", "sk-test")
	cfg.APIKeyEnv = "SET_OPENAI_TEST_KEY"
	s, err = CreateSummarizer(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "openai" {
		t.Errorf("expected openai, got %s", s.Name())
	}

	cfg.Provider = "watson"
	if _, err := CreateSummarizer(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
