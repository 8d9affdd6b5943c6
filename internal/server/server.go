// Package server serves stored reports over HTTP for local browsing.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/trendwatch/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for browsing reports.
type Server struct {
	st    *store.Store
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(st *store.Store) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":  renderMarkdown,
		"formatDay": formatDayKey,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page clones the base so it gets its own {{define "content"}}
	// and {{define "title"}}.
	pageNames := []string{"index.html", "report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{st: st, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/report/", s.handleReport)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reports, err := s.st.GetRecentReports(50)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	stats, err := s.st.GetStats()
	if err != nil {
		log.Printf("Error reading stats: %v", err)
	}

	s.render(w, "index.html", map[string]any{
		"Reports": reports,
		"Stats":   stats,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/report/")
	if idStr == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rep, err := s.st.GetReport(id)
	if err != nil || rep == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, "report.html", map[string]any{
		"Report": rep,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

// Serve starts the HTTP server on the given port, localhost only.
func Serve(st *store.Store, port int) error {
	srv, err := New(st)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}

// formatDayKey turns "20260830" into "2026-08-30" for display.
func formatDayKey(key string) string {
	t, err := store.ParseDayKey(key)
	if err != nil {
		return key
	}
	return t.Format("2006-01-02")
}
