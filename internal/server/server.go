// Package server exposes the layout pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/layout   diagram JSON in, layout result out (?mode=tidy, ?refresh=true)
//	POST /v1/route    diagram JSON in, {edgeId: {sourceHandle, targetHandle}} out
//	GET  /healthz     liveness and build information
//
// Every response carries an X-Request-ID header, echoed from the request or
// generated. Errors are returned as {"error", "code"} with 400 for invalid
// input, 502 for solver failures and 504 for solver timeouts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aklos/scryer-sub000/pkg/buildinfo"
	"github.com/aklos/scryer-sub000/pkg/config"
	"github.com/aklos/scryer-sub000/pkg/diagram"
	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/observability"
	"github.com/aklos/scryer-sub000/pkg/pipeline"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 8 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server serves the layout API.
type Server struct {
	runner *pipeline.Runner
	tuning config.Tuning
	logger *log.Logger
	router chi.Router
}

// New returns a server that runs every request through runner with tuning.
func New(runner *pipeline.Runner, tuning config.Tuning, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		tuning: tuning,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/route", s.handleRoute)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	d, ok := s.decode(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := pipeline.Options{
		Mode:    q.Get("mode"),
		Tuning:  s.tuning,
		Refresh: q.Get("refresh") == "true",
		Logger:  s.logger.With("request_id", w.Header().Get(RequestIDHeader)),
	}

	res, err := s.runner.Layout(r.Context(), d, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	d, ok := s.decode(w, r)
	if !ok {
		return
	}
	opts := pipeline.Options{
		Tuning: s.tuning,
		Logger: s.logger.With("request_id", w.Header().Get(RequestIDHeader)),
	}

	handles, err := s.runner.Route(r.Context(), d.Nodes, d.Edges, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, handles)
}

// decode reads and validates a diagram body. It writes the error response
// itself and reports false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (diagram.Diagram, bool) {
	d, err := diagram.Read(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "read diagram"))
		return d, false
	}
	if err := errs.ValidateDiagram(d); err != nil {
		s.writeError(w, err)
		return d, false
	}
	return d, true
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code"`
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidModel, errs.ErrCodeInvalidConfig, errs.ErrCodeInvalidMode:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeSolverFailed, errs.ErrCodeSolverUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", w.Header().Get(RequestIDHeader), "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errs.UserMessage(err), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Middleware
// =============================================================================

// requestID echoes X-Request-ID or assigns a fresh UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// instrument reports every request to the HTTP hooks.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
	})
}
