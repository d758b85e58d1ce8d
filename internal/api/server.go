package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/fumo/internal/audit"
	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/events"
)

// LogReader reads recent execution records.
type LogReader interface {
	Recent(ctx context.Context, q audit.Query) ([]audit.Record, error)
}

// Config holds website configuration.
type Config struct {
	Listen string
	// APIKey protects /logs. Empty leaves /logs unmounted.
	APIKey string
	// ServiceName is shown on the commands page.
	ServiceName string
}

// Server is the bot's website: command listing, health, logs and a live
// event stream.
type Server struct {
	config    Config
	registry  *command.Registry
	logs      LogReader
	events    *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a Server. A nil hub gets a private one.
func New(config Config, registry *command.Registry, logs LogReader, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = events.NewHub(0)
	}
	if config.ServiceName == "" {
		config.ServiceName = "fumo"
	}
	return &Server{
		config:    config,
		registry:  registry,
		logs:      logs,
		events:    hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("website starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("website shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", s.handleOpenAPI)
	r.Get("/commands", s.handleCommands)
	r.Get("/commands/index.html", s.handleCommandsPage)
	r.Get("/events", s.handleEvents)
	r.Get("/events/ws", s.handleEventsWS)

	if s.config.APIKey != "" && s.logs != nil {
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/logs", s.handleLogs)
		})
	}
	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
