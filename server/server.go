package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/deadlines/pkg/domain"
	"github.com/umputun/deadlines/pkg/feed"
	"github.com/umputun/deadlines/pkg/table"
)

//go:generate moq -out mocks/board.go -pkg mocks -skip-ensure -fmt goimports . Board
//go:generate moq -out mocks/renderer.go -pkg mocks -skip-ensure -fmt goimports . Renderer

//go:embed templates/*.html
var templatesFS embed.FS

// Server represents HTTP server instance
type Server struct {
	cfg       Config
	board     Board
	renderer  Renderer
	generator *feed.Generator
	templates *template.Template

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Board provides the rendered rows and their status
type Board interface {
	Rows() []domain.Row
	Status() table.Status
}

// Renderer rebuilds the board on demand
type Renderer interface {
	RenderAll(ctx context.Context) error
}

// Config is a set of server parameters
type Config struct {
	Listen         string
	Timeout        time.Duration
	BaseURL        string // public URL used in exported links
	Version        string
	Debug          bool
	Poll           time.Duration  // how often the page re-fetches the rows fragment
	RefreshTimeout time.Duration  // limit for an on-demand render
	Location       *time.Location // zone of deadlines without offset, for calendar export
	Placeholder    string
	LinkLabel      string
}

// New initializes a new server instance
func New(cfg Config, board Board, renderer Renderer) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Poll <= 0 {
		cfg.Poll = time.Second
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = time.Minute
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = "-"
	}

	s := &Server{
		cfg:       cfg,
		board:     board,
		renderer:  renderer,
		generator: feed.NewGenerator(cfg.BaseURL),
		templates: template.Must(template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/*.html")),
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Timeout,
		ReadTimeout:       s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout + s.cfg.RefreshTimeout,
	}
	httpServer := s.httpServer
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("deadlines", "umputun", s.cfg.Version))
	s.router.Use(rest.Ping)

	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024)) // 64KB, no request carries a body
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	// web UI
	s.router.HandleFunc("GET /{$}", s.indexHandler)
	s.router.HandleFunc("GET /rows", s.rowsHandler)
	s.router.HandleFunc("POST /refresh", s.refreshHandler)

	// API routes
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /deadlines", s.deadlinesHandler)
		r.HandleFunc("POST /refresh", s.refreshAPIHandler)
	})

	// exports
	s.router.HandleFunc("GET /rss", s.rssHandler)
	s.router.HandleFunc("GET /calendar.ics", s.calendarHandler)
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
