package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/umputun/deadlines/pkg/domain"
	"github.com/umputun/deadlines/pkg/table"
)

// pageData is passed to the page and rows templates
type pageData struct {
	Rows        []domain.Row
	Status      table.Status
	Poll        string // htmx interval, e.g. "1000ms"
	Placeholder string
	LinkLabel   string
	Version     string
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"isOpen": func(c domain.Cell) bool { return c.State == domain.CellOpen },
		"tier": func(c domain.Cell) string {
			if c.Urgency == domain.UrgencyNone {
				return "none"
			}
			return string(c.Urgency)
		},
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.Format("2006-01-02 15:04:05")
		},
	}
}

// indexHandler renders the full page with the current table
func (s *Server) indexHandler(w http.ResponseWriter, _ *http.Request) {
	s.renderTemplate(w, "index.html", s.pageData())
}

// rowsHandler renders the table body, polled by the page on every countdown tick
func (s *Server) rowsHandler(w http.ResponseWriter, _ *http.Request) {
	s.renderTemplate(w, "rows.html", s.pageData())
}

// refreshHandler re-renders the whole table and returns the fresh table body
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.refreshContext(r)
	defer cancel()

	if err := s.renderer.RenderAll(ctx); err != nil {
		s.respondWithError(w, http.StatusServiceUnavailable, "Failed to refresh deadlines", err)
		return
	}
	s.renderTemplate(w, "rows.html", s.pageData())
}

// refreshContext is detached from the request cancellation and limited by the refresh timeout
func (s *Server) refreshContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.RefreshTimeout)
}

func (s *Server) pageData() pageData {
	return pageData{
		Rows:        s.board.Rows(),
		Status:      s.board.Status(),
		Poll:        fmt.Sprintf("%dms", s.cfg.Poll.Milliseconds()),
		Placeholder: s.cfg.Placeholder,
		LinkLabel:   s.cfg.LinkLabel,
		Version:     s.cfg.Version,
	}
}

// renderTemplate executes the named template into a buffer and writes it as html
func (s *Server) renderTemplate(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write %s: %v", name, err)
	}
}

// respondWithError logs the error and sends a plain error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, msg string, err error) {
	log.Printf("[ERROR] %s: %v", msg, err)
	http.Error(w, msg, code)
}
