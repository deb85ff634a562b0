// Package server exposes the analysis engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ppiankov/cliniprov/internal/extract/adapters"
	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/pipeline"
	"github.com/ppiankov/cliniprov/internal/taxonomy"
	"github.com/ppiankov/cliniprov/internal/worker"
)

const limiterIdleTTL = 10 * time.Minute

// Server provides HTTP endpoints for cliniprov
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	registry *adapters.Registry
	limiter  *worker.Limiter
	metrics  *Metrics
	logger   zerolog.Logger
	config   model.ServerConfig

	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new HTTP server. A nil cfg uses the default server settings.
func NewServer(p *pipeline.Pipeline, logger zerolog.Logger, cfg *model.ServerConfig) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if cfg == nil {
		cfg = &model.DefaultConfig().Server
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		pipeline: p,
		registry: adapters.NewRegistry(),
		limiter:  worker.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		metrics:  NewMetrics(),
		logger:   logger,
		config:   *cfg,
		stop:     make(chan struct{}),
	}

	for _, cl := range cfg.ClientLimits {
		s.limiter.SetClientRate(cl.Client, cl.RateLimitRPS, cl.RateLimitBurst)
	}

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(recovery(logger))
	e.Use(s.metrics.Middleware())
	if cfg.MaxBodyBytes > 0 {
		e.Use(bodyLimit(cfg.MaxBodyBytes))
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1", rateLimit(s.limiter, s.config.RateLimitRPS, s.metrics.rateLimited.Inc))
	v1.GET("/taxonomy", s.handleTaxonomy)
	v1.POST("/analyze", s.handleAnalyze)
	v1.POST("/measurements", s.handleMeasurements)
	v1.POST("/concepts", s.handleConcepts)
	v1.POST("/verification", s.handleVerification)
}

// Echo returns the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// HealthResponse is the response body for GET /health
type HealthResponse struct {
	Status          string `json:"status"`
	TaxonomyVersion string `json:"taxonomy_version"`
}

// TaxonomyResponse is the response body for GET /api/v1/taxonomy
type TaxonomyResponse struct {
	Version   string           `json:"version"`
	RuleCount int              `json:"rule_count"`
	Tables    []taxonomy.Table `json:"tables"`
}

// TextRequest is the request body for text-only endpoints
type TextRequest struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

// MeasurementsResponse is the response body for POST /api/v1/measurements
type MeasurementsResponse struct {
	Values []model.ClinicalValue `json:"values"`
}

// VerificationRequest is the request body for POST /api/v1/verification
type VerificationRequest struct {
	Values []model.ClinicalValue `json:"values"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:          "ok",
		TaxonomyVersion: s.pipeline.Taxonomy().Version(),
	})
}

func (s *Server) handleTaxonomy(c echo.Context) error {
	tax := s.pipeline.Taxonomy()
	return c.JSON(http.StatusOK, TaxonomyResponse{
		Version:   tax.Version(),
		RuleCount: tax.RuleCount(),
		Tables:    tax.Tables(),
	})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var letter model.Letter
	if err := c.Bind(&letter); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID(c)).Msg("invalid analyze request")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	analysis, err := s.pipeline.Analyze(c.Request().Context(), letter)
	if err != nil {
		return s.analysisError(err)
	}

	s.metrics.ObserveAnalysis(analysis)
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleMeasurements(c echo.Context) error {
	text, err := s.bindText(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MeasurementsResponse{
		Values: s.pipeline.Extractor().Values().ExtractMeasurements(text),
	})
}

func (s *Server) handleConcepts(c echo.Context) error {
	text, err := s.bindText(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, s.pipeline.AnalyzeConcepts(text))
}

func (s *Server) handleVerification(c echo.Context) error {
	var req VerificationRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID(c)).Msg("invalid verification request")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	return c.JSON(http.StatusOK, pipeline.Verify(req.Values))
}

// bindText decodes a TextRequest and normalizes its body
func (s *Server) bindText(c echo.Context) (string, error) {
	var req TextRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID(c)).Msg("invalid text request")
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	text, err := s.registry.Normalize(req.Format, req.Text)
	if err != nil {
		return "", s.analysisError(err)
	}
	return text, nil
}

func (s *Server) analysisError(err error) error {
	switch {
	case errors.Is(err, adapters.ErrUnsupportedFormat):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request canceled")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "analysis failed").SetInternal(err)
	}
}

// Start starts the HTTP server and the idle-client pruner
func (s *Server) Start() error {
	go s.pruneLimiter()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info().Str("addr", addr).Msg("starting http server")
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down http server")
	s.stopOnce.Do(func() { close(s.stop) })
	return s.echo.Shutdown(ctx)
}

func (s *Server) pruneLimiter() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.limiter.Prune(limiterIdleTTL); n > 0 {
				s.logger.Debug().Int("clients", n).Msg("pruned idle rate limit entries")
			}
		}
	}
}
