package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/leofalp/chatgate/core/gateway"
	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
)

// toolsRoute is the tool-enabled OpenAI route kept for existing clients.
const toolsRoute = "tools"

// Runner executes chat requests. *gateway.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, request gateway.Request, sink gateway.Sink) (*gateway.Outcome, error)
}

// Server routes HTTP requests to a Runner.
type Server struct {
	runner         Runner
	observer       observability.Provider
	metrics        func() any
	requestTimeout time.Duration
	maxBodyBytes   int64
	mux            *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithObserver logs request outcomes.
func WithObserver(observer observability.Provider) Option {
	return func(s *Server) { s.observer = observer }
}

// WithMetrics serves the value returned by snapshot on GET /metrics.
func WithMetrics(snapshot func() any) Option {
	return func(s *Server) { s.metrics = snapshot }
}

// WithRequestTimeout bounds a whole chat request, streaming included.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.requestTimeout = timeout }
}

// WithMaxBodyBytes limits the size of a chat request body.
func WithMaxBodyBytes(limit int64) Option {
	return func(s *Server) { s.maxBodyBytes = limit }
}

// New returns a server over runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:       runner,
		maxBodyBytes: 10 << 20,
		mux:          http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Chat responses stream and are not compressed.
	s.mux.HandleFunc("POST /chat/{provider}", s.handleChat)
	s.mux.Handle("GET /healthz", gzhttp.GzipHandler(http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("GET /models", gzhttp.GzipHandler(http.HandlerFunc(s.handleModels)))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", gzhttp.GzipHandler(http.HandlerFunc(s.handleMetrics)))
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": ai.Models()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes err as {"message": ...} with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, ai.HTTPStatus(err), map[string]string{"message": ai.UserMessage(err)})
}
