package rendersim

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cutroom/internal/logging"
	"cutroom/internal/renderapi"
)

// Options configures a simulator instance.
type Options struct {
	// Name is advertised in the agent card.
	Name string
	// Version is advertised in the agent card and health document.
	Version string
	// BaseURL is the externally reachable URL advertised in the agent card.
	// Leave empty to advertise the bind address.
	BaseURL string
	// Bind is the listen address, host:port.
	Bind string
	// Tick is the cadence at which simulated jobs advance.
	Tick time.Duration
}

// Server is the simulated render service. It owns the composition registry,
// the job engine, and the progress hub, and serves them over HTTP.
type Server struct {
	opts     Options
	logger   *slog.Logger
	registry *registry
	engine   *engine
	hub      *progressHub
	router   chi.Router
}

// NewServer builds a simulator ready to serve. Call Run to bind the
// listener, or Handler to mount it on an existing server.
func NewServer(opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "cutroom-rendersim"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.Bind == "" {
		opts.Bind = "127.0.0.1:7801"
	}

	hub := newProgressHub()
	s := &Server{
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "rendersim"),
		registry: newRegistry(),
		engine:   newEngine(hub, opts.Tick, logger),
		hub:      hub,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(recoveryMiddleware(s.logger))
	r.Use(loggingMiddleware(s.logger))

	r.Post(renderapi.RPCPath, s.handleRPC)
	r.Get(renderapi.AgentCardPath, s.handleAgentCard)
	r.Get(renderapi.HealthPath, s.handleHealth)
	r.Get(renderapi.ProgressPath, s.handleProgressStream)
	s.router = r

	return s
}

// Handler exposes the simulator's HTTP surface for embedding in tests.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops all running simulated jobs.
func (s *Server) Close() { s.engine.close() }

// Run serves until ctx is cancelled, then shuts down gracefully. The write
// timeout stays zero so the progress stream can outlive ordinary requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Bind,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("render simulator listening", logging.String("bind", s.opts.Bind))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("render simulator stopped")
	return nil
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	url := s.opts.BaseURL
	if url == "" {
		url = "http://" + s.opts.Bind
	}
	writeJSON(w, renderapi.AgentCard{
		Name:    s.opts.Name,
		URL:     url,
		Version: s.opts.Version,
		Capabilities: []string{
			"composition.create", "composition.get", "composition.update",
			"composition.delete", "composition.list",
			"render.start", "render.status", "render.cancel", "render.preview",
			"intent.parse", "progress.stream",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, renderapi.HealthStatus{Status: "ok", Version: s.opts.Version})
}

// handleProgressStream serves newline-delimited JSON progress events for
// all jobs on one long-lived response. Clients route events by jobId.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, events := s.hub.subscribe()
	defer s.hub.unsubscribe(id)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			// Keeps intermediaries from timing out an idle stream.
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		case event := <-events:
			if err := enc.Encode(event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(data)
}
