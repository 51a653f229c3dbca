// Package server exposes document sessions over an HTTP JSON API.
package server

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

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/service"
)

// Server provides HTTP endpoints for document question answering.
type Server struct {
	echo     *echo.Echo
	registry *service.Registry
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
// BodyLimit caps request bodies in echo's size notation ("2M", "512K").
type Config struct {
	Host      string
	Port      int
	BodyLimit string
}

// DefaultBodyLimit bounds uploaded document text.
const DefaultBodyLimit = "2M"

// NewServer creates a new HTTP server backed by registry.
func NewServer(registry *service.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = DefaultBodyLimit
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		registry: registry,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/documents", s.handleCreateDocument)
	v1.POST("/documents/:id/ask", s.handleAsk)
	v1.POST("/documents/:id/evaluate", s.handleEvaluate)
	v1.DELETE("/documents/:id", s.handleDeleteDocument)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// CreateDocumentRequest is the request body for POST /api/v1/documents.
type CreateDocumentRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// CreateDocumentResponse is the response body for POST /api/v1/documents.
type CreateDocumentResponse struct {
	SessionID  string `json:"session_id"`
	Name       string `json:"name"`
	Chunks     int    `json:"chunks"`
	Characters int    `json:"characters"`
	Overview   string `json:"overview"`
}

// AskRequest is the request body for POST /api/v1/documents/:id/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// ResultResponse is one retrieved passage.
type ResultResponse struct {
	ChunkIndex int     `json:"chunk_index"`
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// AskResponse is the response body for POST /api/v1/documents/:id/ask.
type AskResponse struct {
	Answer  string           `json:"answer"`
	Results []ResultResponse `json:"results"`
}

// EvaluateRequest is the request body for POST /api/v1/documents/:id/evaluate.
type EvaluateRequest struct {
	Answer string `json:"answer"`
	Topic  string `json:"topic"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Sessions: s.registry.Len()})
}

func (s *Server) handleCreateDocument(c echo.Context) error {
	var req CreateDocumentRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid document request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		req.Name = "document"
	}

	id, summary, err := s.registry.Create(c.Request().Context(), req.Name, req.Text)
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, CreateDocumentResponse{
		SessionID:  id,
		Name:       summary.Name,
		Chunks:     summary.Chunks,
		Characters: summary.Characters,
		Overview:   summary.Overview,
	})
}

func (s *Server) handleAsk(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return s.toHTTPError(err)
	}

	ans, err := sess.Ask(c.Request().Context(), req.Question)
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, AskResponse{Answer: ans.Text, Results: toResults(ans.Results)})
}

func (s *Server) handleEvaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic field is required")
	}
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return s.toHTTPError(err)
	}

	result, err := sess.Evaluate(c.Request().Context(), req.Answer, req.Topic)
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	if err := s.registry.Delete(c.Param("id")); err != nil {
		return s.toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// toHTTPError maps service and provider errors onto status codes.
func (s *Server) toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrNoDocument):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyDocument), errors.Is(err, service.ErrUnsupportedFile),
		errors.Is(err, embedding.ErrEmptyInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, embedding.ErrNotReady), errors.Is(err, embedding.ErrEmbeddingFailed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func toResults(results []domain.SearchResult) []ResultResponse {
	out := make([]ResultResponse, len(results))
	for i, r := range results {
		out[i] = ResultResponse{
			ChunkIndex: r.Chunk.Index,
			PageNumber: r.Chunk.PageNumber,
			Text:       r.Chunk.Text,
			Score:      r.Score,
		}
	}
	return out
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
