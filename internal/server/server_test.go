package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TobiSchelling/marketbrief/internal/pipeline"
)

// mockAnalyzer returns a fixed result and records requested URLs.
type mockAnalyzer struct {
	result *pipeline.Result
	urls   []string
}

func (m *mockAnalyzer) Run(_ context.Context, pageURL string) *pipeline.Result {
	m.urls = append(m.urls, pageURL)
	return m.result
}

func successResult() *pipeline.Result {
	return &pipeline.Result{
		State: pipeline.Assembled,
		Record: pipeline.Record{
			URL:       "https://news.example.com/a",
			Domain:    "news.example.com",
			Title:     "Nvidia hits record",
			Content:   "Nvidia (NVDA) shares rose.",
			Summary:   "Nvidia rose.",
			Tickers:   []string{"NVDA"},
			Indexes:   []string{},
			Companies: []string{"nvidia"},
		},
		Steps: []pipeline.StepResult{{Name: "Fetch", Summary: "Downloaded 120 bytes"}},
	}
}

func failedResult() *pipeline.Result {
	return &pipeline.Result{
		State:    pipeline.Failed,
		FailedAt: pipeline.Fetching,
		Err:      errors.New("Fetch: GET https://news.example.com/gone: status 404"),
		Record:   pipeline.EmptyRecord(),
	}
}

func newTestServer(t *testing.T, a Analyzer) *Server {
	t.Helper()
	srv, err := New(a)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func TestIndexRoute(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{result: successResult()})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Analyze an article") {
		t.Error("expected form heading in response body")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{result: successResult()})

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAnalyzeRoute(t *testing.T) {
	a := &mockAnalyzer{result: successResult()}
	srv := newTestServer(t, a)

	req := httptest.NewRequest("GET", "/analyze?url=https://news.example.com/a", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Nvidia hits record</h1>") {
		t.Error("expected rendered title in response")
	}
	if !strings.Contains(body, "<code>NVDA</code>") {
		t.Error("expected ticker in response")
	}
	if len(a.urls) != 1 || a.urls[0] != "https://news.example.com/a" {
		t.Errorf("unexpected analyzed URLs %v", a.urls)
	}
}

func TestAnalyzeRouteFailure(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{result: failedResult()})

	req := httptest.NewRequest("GET", "/analyze?url=https://news.example.com/gone", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "Couldn't fetch article content") {
		t.Error("expected failure warning in response")
	}
}

func TestAnalyzeRouteWithoutURLRedirects(t *testing.T) {
	a := &mockAnalyzer{result: successResult()}
	srv := newTestServer(t, a)

	req := httptest.NewRequest("GET", "/analyze", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	if len(a.urls) != 0 {
		t.Error("pipeline should not run without a URL")
	}
}

func TestAPIAnalyzeGet(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{result: successResult()})

	req := httptest.NewRequest("GET", "/api/analyze?url=https://news.example.com/a", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		OK     bool           `json:"ok"`
		State  string         `json:"state"`
		Record map[string]any `json:"record"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !resp.OK || resp.State != "assembled" {
		t.Errorf("unexpected status %v/%s", resp.OK, resp.State)
	}
	if resp.Record["title"] != "Nvidia hits record" {
		t.Errorf("unexpected record %v", resp.Record)
	}
}

func TestAPIAnalyzePostFailureKeepsShape(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{result: failedResult()})

	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(`{"url": "https://news.example.com/gone"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["ok"] != false || resp["state"] != "failed" {
		t.Errorf("unexpected response %v", resp)
	}
	record, ok := resp["record"].(map[string]any)
	if !ok {
		t.Fatalf("missing record in %v", resp)
	}
	for _, key := range []string{"url", "domain", "title", "published_at", "content", "summary", "tickers", "indexes", "companies"} {
		if _, ok := record[key]; !ok {
			t.Errorf("missing key %q in failed record", key)
		}
	}
}

func TestAPIAnalyzeBadRequests(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{result: successResult()})

	tests := []struct {
		name   string
		method string
		body   string
		code   int
	}{
		{"missing url", "GET", "", http.StatusBadRequest},
		{"bad json", "POST", "{", http.StatusBadRequest},
		{"wrong method", "DELETE", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestStaticCSS(t *testing.T) {
	srv := newTestServer(t, &mockAnalyzer{result: successResult()})

	req := httptest.NewRequest("GET", "/static/style.css", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
