// Package web is the HTTP surface: session configuration, the chat turn
// endpoint (streamed over SSE), transcript access and operational endpoints.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/config"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/limiter"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/metrics"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/session"
)

type Server struct {
	sessions *session.Manager
	limiter  *limiter.TurnLimiter
	metrics  *metrics.Metrics
	log      zerolog.Logger

	groq        config.GroqConfig
	defaultDB   config.DBConfig
	healthPath  string
	metricsPath string
	maxBodySize int64
}

type Options struct {
	Sessions    *session.Manager
	Limiter     *limiter.TurnLimiter
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	Groq        config.GroqConfig
	DefaultDB   config.DBConfig
	HealthPath  string
	MetricsPath string
}

func NewServer(opts Options) *Server {
	if opts.HealthPath == "" {
		opts.HealthPath = "/healthz"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Server{
		sessions:    opts.Sessions,
		limiter:     opts.Limiter,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		groq:        opts.Groq,
		defaultDB:   opts.DefaultDB,
		healthPath:  opts.HealthPath,
		metricsPath: opts.MetricsPath,
		maxBodySize: 1 << 20,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get(s.healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, s.metricsPath, promhttp.Handler())

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Post("/ask", s.handleAsk)
			r.Get("/history", s.handleGetHistory)
			r.Delete("/history", s.handleClearHistory)
		})
	})

	return r
}

// requestLogger logs method, path, status and latency. Bodies are never
// logged; they can carry database credentials and API keys.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
