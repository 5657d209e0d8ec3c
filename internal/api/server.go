// Package api serves the catalog, the matcher and recent assignments over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/database"
	"csl_trmnl/internal/matcher"
)

// Matcher is the query side of the catalog. *matcher.Live satisfies it.
type Matcher interface {
	Match(q matcher.Query) (matcher.Result, bool)
	Catalog() *csl.Catalog
}

// Options configures a Server
type Options struct {
	Addr        string
	Matcher     Matcher
	Assignments database.AssignmentRepository // optional
	Gatherer    prometheus.Gatherer           // serves /metrics when set
	// MatchRate and MatchBurst bound /api/match per client address.
	MatchRate  float64
	MatchBurst int
	Logger     *slog.Logger
}

// Server wraps the chi router and the http.Server.
type Server struct {
	httpServer  *http.Server
	router      *chi.Mux
	matcher     Matcher
	assignments database.AssignmentRepository
	logger      *slog.Logger
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MatchRate <= 0 {
		opts.MatchRate = 10
	}
	if opts.MatchBurst <= 0 {
		opts.MatchBurst = 20
	}

	s := &Server{
		matcher:     opts.Matcher,
		assignments: opts.Assignments,
		logger:      opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.With(newClientLimiter(opts.MatchRate, opts.MatchBurst).middleware).Get("/match", s.handleMatch)
		api.Get("/packages", s.handlePackages)
		api.Get("/packages/{name}", s.handlePackage)
		api.Get("/assignments", s.handleAssignments)
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until the server is shut down. It returns nil after
// a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelDebug
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "HTTP request",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"elapsed", time.Since(start),
		)
	})
}
