package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/scheduler"
	"github.com/ustunfatih/oktan/internal/tracker"
)

// RecordStore is the record storage used by the API.
type RecordStore interface {
	ListRecords(ctx context.Context) ([]models.FuelRecord, error)
	GetRecord(ctx context.Context, id uuid.UUID) (models.FuelRecord, error)
	InsertRecord(ctx context.Context, r models.FuelRecord) error
	UpdateRecord(ctx context.Context, r models.FuelRecord) error
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	CountRecords(ctx context.Context) (int64, error)
	Ping() error
}

// Options holds the report defaults of the API and the metrics source.
type Options struct {
	RecentWindow  int
	RollingWindow int
	// Gatherer is served on /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server represents the HTTP server for the API, metrics and status endpoints.
type Server struct {
	server  *http.Server
	logger  zerolog.Logger
	metrics *Metrics
}

// NewServer creates a new HTTP server. The scheduler may be nil.
func NewServer(addr string, store RecordStore, t *tracker.Tracker, sched *scheduler.Scheduler, metrics *Metrics, opts Options, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "http").Logger()

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(store, t, sched, metrics, opts, logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// NewRouter builds the route tree shared by the server and tests.
func NewRouter(store RecordStore, t *tracker.Tracker, sched *scheduler.Scheduler, metrics *Metrics, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Handle("/status", NewStatusHandler(t, sched, store))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			panic(err)
		}
	})

	api := &API{
		store:   store,
		tracker: t,
		metrics: metrics,
		opts:    opts,
		logger:  logger,
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(instrument(metrics, logger))
		api.RegisterRoutes(r)
	})

	return r
}

// instrument records request metrics under the matched route pattern.
func instrument(metrics *Metrics, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			duration := time.Since(start)
			if metrics != nil {
				metrics.RecordHTTPRequest(route, ww.Status(), duration.Seconds())
			}

			logger.Debug().
				Str("method", r.Method).
				Str("route", route).
				Int("status", ww.Status()).
				Dur("duration", duration).
				Msg("handled request")
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Metrics returns the Prometheus metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
