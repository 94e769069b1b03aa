// Package api exposes stored analysis runs over a JSON HTTP API.
//
// The server is read-mostly: runs are produced by the batch pipeline, and
// the API lists them, returns full records, and optionally triggers a new
// analysis of the server-side dataset when a pipeline is wired in. Storage
// arrives through ports.RunReader, so the same server runs against Postgres
// or the in-memory testkit.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gocompare/app"
	"gocompare/domain/core"
	"gocompare/domain/run"
	"gocompare/domain/study"
	"gocompare/internal"
	"gocompare/internal/config"
	apperrors "gocompare/internal/errors"
	"gocompare/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// AnalysisRunner starts one analysis run. Satisfied by app.AnalysisService.
type AnalysisRunner interface {
	Run(ctx context.Context, req app.AnalysisRequest) (*app.AnalysisResult, error)
}

// Server wraps a gin router around a run store and an optional pipeline.
type Server struct {
	router   *gin.Engine
	runs     ports.RunReader
	pipeline AnalysisRunner
	design   *study.Design
	logger   *internal.Logger
}

// NewServer creates the API server and registers its routes. pipeline and
// design may be nil; the trigger endpoint then reports the pipeline as
// unavailable while the read endpoints keep working.
func NewServer(runs ports.RunReader, pipeline AnalysisRunner, design *study.Design, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	s := &Server{
		router:   gin.Default(),
		runs:     runs,
		pipeline: pipeline,
		design:   design,
		logger:   logger.WithPrefix("APIServer"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/api/health", s.handleHealth)
	s.router.GET("/api/runs", s.handleListRuns)
	s.router.GET("/api/runs/:id", s.handleGetRun)
	s.router.GET("/api/runs/:id/results", s.handleRunResults)
	s.router.GET("/api/runs/:id/summary", s.handleRunSummary)
	s.router.POST("/api/analyses", s.handleTriggerAnalysis)
}

// Router exposes the underlying handler so tests can drive it with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting analysis API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
	})
}

// handleListRuns returns stored run summaries, newest first.
func (s *Server) handleListRuns(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok || limit < 1 || limit > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 200"})
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	summaries, err := s.runs.ListRuns(c.Request.Context(), ports.RunFilters{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("Failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if summaries == nil {
		summaries = []ports.RunSummary{}
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":   summaries,
		"count":  len(summaries),
		"limit":  limit,
		"offset": offset,
	})
}

// handleGetRun returns the full stored record, report payload included.
func (s *Server) handleGetRun(c *gin.Context) {
	record, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleRunResults returns just the report payload of a run.
func (s *Server) handleRunResults(c *gin.Context) {
	record, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id": record.ID,
		"report": record.Report,
	})
}

// handleRunSummary serves the Markdown digest as plain text so it can be
// piped straight into a pager or renderer.
func (s *Server) handleRunSummary(c *gin.Context) {
	record, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.String(http.StatusOK, record.Summary)
}

// handleTriggerAnalysis runs the configured pipeline against the server-side
// dataset and returns the stored run's summary row.
func (s *Server) handleTriggerAnalysis(c *gin.Context) {
	if s.pipeline == nil || s.design == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis pipeline not configured"})
		return
	}

	var req struct {
		RunID string `json:"run_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	result, err := s.pipeline.Run(c.Request.Context(), app.AnalysisRequest{
		Design: s.design,
		RunID:  core.RunID(req.RunID),
	})
	if err != nil {
		if apperrors.GetCode(err) == apperrors.CodeConfigInvalid {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("Analysis trigger failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"run":         ports.Summarize(result.Record),
		"report_path": result.ReportPath,
	})
}

// loadRun resolves the :id path parameter, writing the error response
// itself when the run cannot be returned.
func (s *Server) loadRun(c *gin.Context) (*run.Record, bool) {
	id := core.RunID(c.Param("id"))
	record, err := s.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return nil, false
		}
		s.logger.Error("Failed to load run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return nil, false
	}
	return record, true
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
