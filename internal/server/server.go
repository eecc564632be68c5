// Package server provides the HTTP server that wires all services
// together.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/vulnscout/vulnscout/internal/advisor"
	"github.com/vulnscout/vulnscout/internal/bus"
	"github.com/vulnscout/vulnscout/internal/completion"
	"github.com/vulnscout/vulnscout/internal/config"
	"github.com/vulnscout/vulnscout/internal/metrics"
	"github.com/vulnscout/vulnscout/internal/pipeline"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
	"github.com/vulnscout/vulnscout/internal/pkg/middleware"
	"github.com/vulnscout/vulnscout/internal/shodan"
	"github.com/vulnscout/vulnscout/internal/translate"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *http.Server

	eventBus bus.Bus
	metrics  *metrics.Metrics
	history  *metrics.RedisStorage
	pipeline *pipeline.Orchestrator
	handler  *Handler

	version string
}

// New creates a server with all dependencies constructed from config.
// Collaborator clients are built once here and injected down the
// stack; nothing reads the environment after this point.
func New(cfg *config.Config, version string, log *logger.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		version: version,
	}

	completionClient, err := completion.NewHTTPClient(cfg.Completion)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	searchClient, err := shodan.NewClient(cfg.Shodan)
	if err != nil {
		return nil, fmt.Errorf("creating shodan client: %w", err)
	}

	s.pipeline = pipeline.New(
		translate.New(completionClient, log),
		searchClient,
		advisor.New(completionClient, log),
		log,
	)

	s.eventBus, err = bus.NewBus(cfg.Bus, log)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	if cfg.History.Enabled {
		s.history, err = metrics.NewRedisStorage(cfg.History.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("creating history storage: %w", err)
		}
	}

	subscriber := metrics.NewEventSubscriber(s.metrics, s.eventBus, s.history)
	if err := subscriber.Subscribe(context.Background()); err != nil {
		return nil, fmt.Errorf("subscribing to events: %w", err)
	}

	s.handler = NewHandler(s.pipeline, s.eventBus, log)

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // pipeline invocations are slow upstream calls
	}

	return s, nil
}

// routes assembles the HTTP mux with optional rate limiting.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/query", s.handler.HandleQuery)
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/version", s.handleVersion)
	mux.Handle("/v1/metrics", metrics.Handler(s.metrics))

	var handler http.Handler = mux
	if s.cfg.Security.RateLimit > 0 {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.cfg.Security.RateLimit),
			Burst:             s.cfg.Security.RateLimit * 2,
			CleanupInterval:   time.Minute,
		})
		handler = rl.Middleware(mux)
	}

	return handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Start runs the HTTP server until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, the bus, and history storage.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	if err := s.eventBus.Close(); err != nil {
		s.log.Warn("bus close failed", "error", err)
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.log.Warn("history close failed", "error", err)
		}
	}

	return nil
}

// generateEventID returns a random 16-hex-char identifier.
func generateEventID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
