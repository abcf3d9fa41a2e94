// Package server exposes the span intake over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liamcoop/spanecho/internal/config"
	apperrors "github.com/liamcoop/spanecho/internal/errors"
	"github.com/liamcoop/spanecho/internal/intake"
	"github.com/liamcoop/spanecho/internal/render"
)

const TracesPath = "/v1/traces"

// ProbePaths are hit by the test harness before and after exporting spans;
// requests to them are only announced on the sink.
var ProbePaths = []string{
	"/before_fix_without_traceparent",
	"/before_fix_with_traceparent",
	"/after_fix_without_traceparent",
	"/after_fix_with_traceparent",
}

type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	endpoint     *intake.Endpoint
	renderer     *render.Renderer
	logger       *slog.Logger
	maxBodyBytes int64
}

func New(cfg config.HTTPConfig, endpoint *intake.Endpoint, renderer *render.Renderer, logger *slog.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	s := &Server{
		engine:       engine,
		endpoint:     endpoint,
		renderer:     renderer,
		logger:       logger,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	for _, path := range ProbePaths {
		s.engine.GET(path, s.handleProbe)
	}
	s.engine.POST(TracesPath, s.handleTraces)
}

// Handler returns the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP intake listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleProbe(c *gin.Context) {
	if err := s.renderer.Announce(c.Request.RequestURI); err != nil {
		s.logger.Error("Failed to write probe line", slog.String("error", err.Error()))
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleTraces(c *gin.Context) {
	if err := s.renderer.Announce(TracesPath); err != nil {
		s.logger.Error("Failed to write intake line", slog.String("error", err.Error()))
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		s.reject(c, http.StatusBadRequest, err)
		return
	}

	n, err := s.endpoint.Handle(c.Request.Header, body)
	if err != nil {
		s.reject(c, apperrors.HTTPStatus(err), err)
		return
	}

	s.logger.Debug("Accepted export request", slog.Int("spans", n), slog.Int("bytes", len(body)))
	c.Status(http.StatusAccepted)
}

func (s *Server) reject(c *gin.Context, status int, err error) {
	s.logger.Warn("Rejected export request",
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	c.String(status, err.Error())
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("target", c.Request.RequestURI),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
