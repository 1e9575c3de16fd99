// Package api exposes scans, verification and stored items over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/infrastructure/storage"
	"GoreScanner/internal/metrics"
	"GoreScanner/internal/ports"
	"GoreScanner/internal/usecase"
)

// Deps wires the server to the application.
type Deps struct {
	Jobs       *usecase.Jobs
	Repository ports.ItemRepository
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Server owns the gin engine.
type Server struct {
	jobs       *usecase.Jobs
	repository ports.ItemRepository
	metrics    *metrics.Metrics
	logger     *slog.Logger
	engine     *gin.Engine
}

// NewServer builds the router.
func NewServer(deps Deps) *Server {
	s := &Server{
		jobs:       deps.Jobs,
		repository: deps.Repository,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.observe)
	s.RegisterRoutes(engine)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// RegisterRoutes mounts all endpoints on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", s.Health)
		api.POST("/scans", s.SubmitScan)
		api.GET("/scans/:id", s.GetJob)
		api.POST("/verify", s.SubmitVerify)
		api.GET("/verify/:id", s.GetJob)
		api.GET("/items", s.GetItems)
		api.GET("/stats", s.GetStats)
		api.GET("/export", s.Export)
	}
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Health reports liveness.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SubmitScan starts a background scan.
func (s *Server) SubmitScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "jobs are not configured"})
		return
	}

	job := s.jobs.SubmitScan(usecase.ScanRequest{
		Query:      req.Query,
		Providers:  req.Providers,
		MaxResults: req.MaxResults,
	})
	c.JSON(http.StatusAccepted, toJob(job.Snapshot()))
}

// SubmitVerify starts a background verify pass.
func (s *Server) SubmitVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "jobs are not configured"})
		return
	}

	job := s.jobs.SubmitVerify(req.URLs)
	c.JSON(http.StatusAccepted, toJob(job.Snapshot()))
}

// GetJob returns the state of a scan or verify job.
func (s *Server) GetJob(c *gin.Context) {
	if s.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "jobs are not configured"})
		return
	}
	job, err := s.jobs.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toJob(job.Snapshot()))
}

// GetItems lists stored items.
func (s *Server) GetItems(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := s.repository.Query(c.Request.Context(), filter)
	if err != nil {
		s.warn("query items failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": toItems(items, false),
		"count": len(items),
	})
}

// GetStats summarises the store.
func (s *Server) GetStats(c *gin.Context) {
	stats, err := s.repository.Stats(c.Request.Context())
	if err != nil {
		s.warn("stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       stats.Total,
		"bySource":    stats.BySource,
		"byMediaType": stats.ByMediaType,
		"avgSeverity": stats.AvgSeverity,
	})
}

// Export streams matching items as CSV.
func (s *Server) Export(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := s.repository.Query(c.Request.Context(), filter)
	if err != nil {
		s.warn("export query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="gore_export.csv"`)
	c.Status(http.StatusOK)
	if _, err := storage.WriteCSV(c.Writer, items); err != nil {
		s.warn("write export failed", "error", err)
	}
}

func parseFilter(c *gin.Context) (domain.ItemFilter, error) {
	var filter domain.ItemFilter
	var err error

	if v := c.Query("min"); v != "" {
		if filter.ScoreMin, err = strconv.ParseFloat(v, 64); err != nil {
			return filter, fmt.Errorf("invalid min: %q", v)
		}
	}
	if v := c.Query("max"); v != "" {
		scoreMax, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid max: %q", v)
		}
		filter.ScoreMax = domain.MaxScore(scoreMax)
	}
	if v := c.Query("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			return filter, fmt.Errorf("invalid limit: %q", v)
		}
	}
	filter.SourceName = c.Query("source")
	if v := c.Query("media_type"); v != "" {
		filter.MediaType = domain.MediaType(v)
		if !filter.MediaType.Valid() {
			return filter, fmt.Errorf("invalid media_type: %q", v)
		}
	}
	return filter, nil
}

// observe logs and counts every request.
func (s *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	elapsed := time.Since(start)
	s.metrics.ObserveRequest(c.Request.Method, path, c.Writer.Status(), elapsed.Seconds())
	if s.logger != nil {
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", elapsed)
	}
}

func (s *Server) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
