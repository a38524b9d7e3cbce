// Package api exposes the analysis core over HTTP. Handlers translate JSON
// payloads into calls on the pure engines; degenerate data comes back as
// data with its sample sizes intact, never as an HTTP error.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medinsight/app"
	"medinsight/internal"
	"medinsight/internal/metrics"
)

// Server wires the insight service into a chi router
type Server struct {
	router  *chi.Mux
	service *app.InsightService
	logger  *internal.Logger
}

// NewServer builds the HTTP surface around the given service. A nil logger
// falls back to the process default.
func NewServer(service *app.InsightService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger.Named("api"),
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		s.logger.Warn("metrics registration failed: %v", err)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/reports", s.handleGenerateReport)
		r.Post("/concentration/series", s.handleConcentrationSeries)
		r.Post("/concentration/profile", s.handleConcentrationProfile)
		r.Post("/stats/correlate", s.handleCorrelate)
		r.Post("/stats/cross-correlate", s.handleCrossCorrelate)
	})
}

// Router returns the composed handler, for mounting and for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the given address
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
