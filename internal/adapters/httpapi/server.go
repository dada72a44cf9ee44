// Package httpapi exposes the triage service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP frontend of the triage service
type Server struct {
	service    *core.TriageService
	logger     *zap.Logger
	listenAddr string
	echo       *echo.Echo
}

type triageResponse struct {
	Messages []core.ScoredMessage `json:"messages"`
	Skipped  []string             `json:"skipped"`
}

type overrideRequest struct {
	Priority string `json:"priority"`
}

type overrideResponse struct {
	ID       string        `json:"id"`
	Priority core.Priority `json:"priority"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a new HTTP server
func NewServer(service *core.TriageService, logger *zap.Logger, listenAddr string) *Server {
	s := &Server{
		service:    service,
		logger:     logger,
		listenAddr: listenAddr,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("30M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	e.GET("/healthz", s.health)
	e.POST("/v1/triage", s.triage)
	e.POST("/v1/disconnect", s.disconnect)
	e.GET("/v1/overrides", s.listOverrides)
	e.GET("/v1/overrides/:id", s.getOverride)
	e.PUT("/v1/overrides/:id", s.setOverride)
	e.DELETE("/v1/overrides/:id", s.deleteOverride)

	s.echo = e
	return s
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts listening in the background
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.echo.Start(s.listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) triage(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
	}

	results, skipped, err := s.service.TriageBatch(c.Request().Context(), data)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	resp := triageResponse{Messages: results, Skipped: []string{}}
	for _, skip := range skipped {
		resp.Skipped = append(resp.Skipped, skip.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listOverrides(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Overrides())
}

func (s *Server) getOverride(c echo.Context) error {
	id := c.Param("id")
	p, err := s.service.GetPriority(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, overrideResponse{ID: id, Priority: p})
}

func (s *Server) setOverride(c echo.Context) error {
	id := c.Param("id")
	var req overrideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := s.service.SetPriority(c.Request().Context(), id, req.Priority); err != nil {
		if core.IsKind(err, core.KindInvalidPriority) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		s.logger.Error("Failed to store override", zap.String("message_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to store override"})
	}
	return c.JSON(http.StatusOK, overrideResponse{ID: id, Priority: core.Priority(req.Priority)})
}

func (s *Server) deleteOverride(c echo.Context) error {
	id := c.Param("id")
	if err := s.service.ClearPriority(c.Request().Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to remove override"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) disconnect(c echo.Context) error {
	if err := s.service.Disconnect(c.Request().Context()); err != nil {
		s.logger.Error("Failed to disconnect", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to clear overrides"})
	}
	return c.NoContent(http.StatusNoContent)
}
