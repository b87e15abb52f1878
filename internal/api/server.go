// Package api exposes the URL generator over HTTP for non-Go callers.
//
// Routes:
//
//	GET  /healthz        liveness and the configured base URL
//	GET  /v1/parameters  parameter reference
//	POST /v1/generate    generate a comparison URL (200 success, 422 failure)
//	POST /v1/inspect     report provided and missing parameters
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/obslog"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

const (
	bodyLimit       = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// Generator is satisfied by urlgen.Generator and cache.Generator.
type Generator interface {
	GenerateRaw(raw params.Raw) urlgen.Result
	BaseURL() string
}

// HistoryRecorder persists generation attempts; *store.Store satisfies it.
type HistoryRecorder interface {
	AppendHistory(e model.HistoryEntry) (model.HistoryEntry, error)
}

// Options configures a Server. Generator is required.
type Options struct {
	Generator Generator
	Logger    *slog.Logger
	Sink      obslog.Sink     // nil disables the interaction log
	History   HistoryRecorder // nil disables history
	Rate      float64         // per-client requests per second; <= 0 disables limiting
	Burst     int
	Version   string
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	gen     Generator
	log     *slog.Logger
	sink    obslog.Sink
	history HistoryRecorder
	limiter *RateLimiter
	version string
}

// New builds a Server from opts.
func New(opts Options) *Server {
	s := &Server{
		gen:     opts.Generator,
		log:     opts.Logger,
		sink:    opts.Sink,
		history: opts.History,
		version: opts.Version,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.sink == nil {
		s.sink = obslog.Nop{}
	}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = NewRateLimiter(opts.Rate, burst)
	}
	return s
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Handler)
		}
		r.Get("/parameters", s.handleParameters)
		r.Post("/generate", s.handleGenerate)
		r.Post("/inspect", s.handleInspect)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.limiter != nil {
		stop := s.limiter.StartCleanup(time.Minute, 10*time.Minute)
		defer stop()
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr, "base_url", s.gen.BaseURL())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("api shutting down")
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func obslogCall(tool string, in, out any, ok bool, d time.Duration) obslog.ToolCall {
	return obslog.ToolCall{Tool: tool, Input: in, Output: out, Success: ok, Duration: d}
}
