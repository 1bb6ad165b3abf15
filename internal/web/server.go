// Package web provides the HTTP server for incident bulk uploads.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/JonMunkholm/IncidentUpload/internal/config"
	"github.com/JonMunkholm/IncidentUpload/internal/core"
	mw "github.com/JonMunkholm/IncidentUpload/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var staticFiles embed.FS

// BatchRunner runs one uploaded workbook. Satisfied by *core.Pipeline.
type BatchRunner interface {
	Run(ctx context.Context, data []byte) (*core.BatchResponse, error)
}

// ReportSource gives read access to the failure report. Satisfied by
// *report.Store.
type ReportSource interface {
	Open() (*os.File, error)
	FileName() string
	Exists() bool
}

// Server is the HTTP server for the upload page and API.
type Server struct {
	cfg     *config.Config
	runner  BatchRunner
	reports ReportSource
	limiter *core.BatchLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with its routes registered.
func NewServer(cfg *config.Config, runner BatchRunner, reports ReportSource, limiter *core.BatchLimiter) *Server {
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		reports: reports,
		limiter: limiter,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Server.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.CORS(s.cfg.CORS.AllowedOrigins))
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/bulk-upload", s.handleBulkUpload)
	s.router.Get("/failures", s.handleDownloadFailures)
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds browser hardening headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
