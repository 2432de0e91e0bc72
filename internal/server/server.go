// Package server provides the HTTP server for the reactcam live view.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/live"
	"github.com/ayusman/reactcam/internal/metrics"
	"github.com/ayusman/reactcam/internal/server/api"
	"github.com/ayusman/reactcam/internal/store"
)

// ShutdownTimeout bounds how long Run waits for open requests on shutdown.
const ShutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Hub       *live.Hub
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
}

// Server represents the HTTP server for the reactcam application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger
}

// New creates a new Server with the given configuration. A nil Hub is
// replaced by an empty one so every route stays answerable.
func New(config Config) *Server {
	if config.Hub == nil {
		config.Hub = live.NewHub()
	}
	if config.Log == nil {
		config.Log = logrus.StandardLogger()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    config.Log.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/reaction", api.NewCurrentHandler(s.config.Hub))

	// History endpoints need the store
	if s.config.Store != nil {
		reactions := api.NewReactionsHandler(s.config.Store)
		s.mux.Handle("/api/reactions", reactions)
		s.mux.Handle("/api/reactions/", reactions)
	}

	s.mux.Handle("/api/stream", NewStreamHandler(s.config.Hub, s.config.Metrics, s.log))
	s.mux.Handle("/api/ws", NewUpdatesHandler(s.config.Hub, s.log))

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest := s.config.Hub.Latest()
	response := map[string]interface{}{
		"status":      "ok",
		"uptime":      time.Since(s.start).Round(time.Second).String(),
		"label":       latest.Label.String(),
		"subscribers": s.config.Hub.Subscribers(),
		"store":       s.config.Store != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}
