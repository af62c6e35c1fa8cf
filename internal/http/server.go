// Package http provides the HTTP API for the knowledge engine.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/praktiklabs/kurator/internal/knowledge"
)

// Server exposes the knowledge engine to the chat-handling layer and the
// moderation tooling.
type Server struct {
	echo    *echo.Echo
	service *knowledge.Service
	metrics *Metrics
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server. A nil metrics falls back to a
// registry-local instance.
func NewServer(service *knowledge.Service, metrics *Metrics, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8780,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/exchanges", s.handleProcessExchange)
	v1.GET("/knowledge/match", s.handleMatch)
	v1.GET("/knowledge/pending", s.handleListPending)
	v1.GET("/knowledge/stats", s.handleStats)
	v1.POST("/knowledge/:id/approve", s.handleApprove)
	v1.POST("/knowledge/:id/reject", s.handleReject)
	v1.POST("/knowledge/:id/feedback", s.handleFeedback)
	v1.PATCH("/knowledge/:id", s.handleUpdate)
	v1.DELETE("/knowledge/:id", s.handleDelete)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleProcessExchange runs one exchange through the curation pipeline.
func (s *Server) handleProcessExchange(c echo.Context) error {
	var req ExchangeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid exchange request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	mode, err := knowledge.ParseDomain(req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be a coaching domain")
	}

	result, err := s.service.ProcessExchange(c.Request().Context(), knowledge.Exchange{
		Question:  req.Question,
		Response:  req.Response,
		Mode:      mode,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.logger.Error("exchange processing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process exchange")
	}

	s.metrics.ObserveExchange(result)

	return c.JSON(http.StatusOK, result)
}

// handleMatch answers a question from the approved catalog.
func (s *Server) handleMatch(c echo.Context) error {
	question := c.QueryParam("q")
	if question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}
	domain, err := knowledge.ParseDomain(c.QueryParam("domain"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'domain' must be a coaching domain")
	}

	result, err := s.service.FindMatch(c.Request().Context(), question, domain)
	if err != nil {
		// Lookup failure is never reported as "no match".
		s.logger.Error("knowledge lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "knowledge lookup failed")
	}

	s.metrics.ObserveMatch(result.Found)

	return c.JSON(http.StatusOK, result)
}

// handleListPending returns records awaiting moderation.
func (s *Server) handleListPending(c echo.Context) error {
	records, err := s.service.ListPending(c.Request().Context())
	if err != nil {
		s.logger.Error("listing pending records failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list pending records")
	}
	if records == nil {
		records = []*knowledge.Record{}
	}
	return c.JSON(http.StatusOK, records)
}

// handleStats returns catalog counts by status.
func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.service.Stats(c.Request().Context())
	if err != nil {
		s.logger.Error("stats query failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute stats")
	}
	return c.JSON(http.StatusOK, stats)
}

// handleApprove transitions a pending record to approved.
func (s *Server) handleApprove(c echo.Context) error {
	var req ApproveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ApprovedBy == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "approved_by field is required")
	}

	err := s.service.Approve(c.Request().Context(), c.Param("id"), req.ApprovedBy, req.Narrative)
	if err != nil {
		return s.moderationError(c, err, "approve")
	}

	s.metrics.ObserveModeration("approve")
	return c.NoContent(http.StatusNoContent)
}

// handleReject transitions a pending record to rejected.
func (s *Server) handleReject(c echo.Context) error {
	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := s.service.Reject(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return s.moderationError(c, err, "reject")
	}

	s.metrics.ObserveModeration("reject")
	return c.NoContent(http.StatusNoContent)
}

// handleFeedback records a helpful/not-helpful rating.
func (s *Server) handleFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Helpful == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "helpful field is required")
	}

	err := s.service.Rate(c.Request().Context(), c.Param("id"), *req.Helpful)
	if err != nil {
		return s.moderationError(c, err, "feedback")
	}

	s.metrics.ObserveFeedback(*req.Helpful)
	return c.NoContent(http.StatusNoContent)
}

// handleUpdate edits curated record content.
func (s *Server) handleUpdate(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	update := knowledge.ContentUpdate{
		Topic:       req.Topic,
		Narrative:   req.Narrative,
		Keywords:    req.Keywords,
		Subcategory: req.Subcategory,
	}

	err := s.service.Update(c.Request().Context(), c.Param("id"), update)
	if err != nil {
		return s.moderationError(c, err, "update")
	}

	s.metrics.ObserveModeration("update")
	return c.NoContent(http.StatusNoContent)
}

// handleDelete removes a record.
func (s *Server) handleDelete(c echo.Context) error {
	err := s.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.moderationError(c, err, "delete")
	}

	s.metrics.ObserveModeration("delete")
	return c.NoContent(http.StatusNoContent)
}

// moderationError maps service errors onto HTTP statuses.
func (s *Server) moderationError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, knowledge.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	case errors.Is(err, knowledge.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "record status is terminal")
	default:
		s.logger.Error("moderation action failed",
			zap.String("action", action),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "moderation action failed")
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
