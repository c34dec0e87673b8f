package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/TobiSchelling/marketbrief/internal/pipeline"
	"github.com/TobiSchelling/marketbrief/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Analyzer runs the article pipeline for one URL.
type Analyzer interface {
	Run(ctx context.Context, pageURL string) *pipeline.Result
}

// Server is the HTTP server for analyzing articles from a browser.
type Server struct {
	analyzer Analyzer
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server.
func New(analyzer Analyzer) (*Server, error) {
	funcMap := template.FuncMap{
		"brief": renderBrief,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so {{define "content"}} does not collide.
	pageNames := []string{"index.html", "record.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{analyzer: analyzer, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/analyze", s.handleAPIAnalyze)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, "index.html", map[string]any{})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	pageURL := strings.TrimSpace(r.FormValue("url"))
	if pageURL == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	result := s.analyzer.Run(r.Context(), pageURL)
	data := map[string]any{
		"URL":    pageURL,
		"Result": result,
		"Record": result.Record,
	}
	if result.Err != nil {
		data["Error"] = result.Err.Error()
	}
	s.render(w, http.StatusOK, "record.html", data)
}

type apiRequest struct {
	URL string `json:"url"`
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	State  string          `json:"state"`
	Error  string          `json:"error,omitempty"`
	Record pipeline.Record `json:"record"`
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	var pageURL string
	switch r.Method {
	case http.MethodGet:
		pageURL = r.URL.Query().Get("url")
	case http.MethodPost:
		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{
				State:  pipeline.Failed.String(),
				Error:  "invalid JSON body",
				Record: pipeline.EmptyRecord(),
			})
			return
		}
		pageURL = req.URL
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{
			State:  pipeline.Failed.String(),
			Error:  "url is required",
			Record: pipeline.EmptyRecord(),
		})
		return
	}

	result := s.analyzer.Run(r.Context(), pageURL)
	resp := apiResponse{
		OK:     result.OK(),
		State:  result.State.String(),
		Record: result.Record,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	// A failed pipeline is still a well-formed answer; clients branch on ok.
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderBrief(rec pipeline.Record) template.HTML {
	out, err := report.RenderHTML(rec)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(report.RenderText(rec)))
	}
	return template.HTML(out) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(analyzer Analyzer, port int) error {
	srv, err := New(analyzer)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
