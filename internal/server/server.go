// Package server exposes the tracker over HTTP. Every state change is
// an explicit command endpoint: upload+process, save, edit, delete.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dray-ops/ratecon-tracker/internal/common"
	"github.com/dray-ops/ratecon-tracker/internal/export"
	"github.com/dray-ops/ratecon-tracker/internal/ingest"
	"github.com/dray-ops/ratecon-tracker/internal/reconcile"
	"github.com/dray-ops/ratecon-tracker/internal/report"
	"github.com/dray-ops/ratecon-tracker/internal/repository"
)

// Server wires the core pipeline to the HTTP surface.
type Server struct {
	store    repository.RecordStore
	health   repository.HealthChecker
	pipeline ingest.Pipeline
	pricing  reconcile.Pricing
	exporter *export.Service
	metrics  *report.Metrics
	cfg      *common.Config
	logger   *slog.Logger
}

func New(
	store repository.RecordStore,
	health repository.HealthChecker,
	pipeline ingest.Pipeline,
	exporter *export.Service,
	metrics *report.Metrics,
	cfg *common.Config,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    store,
		health:   health,
		pipeline: pipeline,
		pricing:  reconcile.Pricing{BaseRate: cfg.Pricing.BaseRate, UnitRate: cfg.Pricing.UnitRate},
		exporter: exporter,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.POST("/loads/process", s.processUploads)
		api.POST("/loads", s.saveRecords)
		api.GET("/loads", s.listRecords)
		api.GET("/loads/summary", s.summary)
		api.PATCH("/loads/:reference", s.updateRecord)
		api.DELETE("/loads/:reference", s.deleteRecord)
		api.DELETE("/loads", s.deleteRecords)
		api.GET("/export/csv", s.exportCSV)
		api.GET("/export/xlsx", s.exportXLSX)
	}

	r.GET("/healthz", s.healthz)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// storeError renders a backend failure as a user-visible message; the
// operation aborts and in-memory state stays unchanged.
func (s *Server) storeError(c *gin.Context, op string, err error) {
	s.logger.Error("store operation failed", "op", op, "error", err)
	status := http.StatusServiceUnavailable
	if errors.Is(err, common.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": "record store unavailable: " + err.Error()})
}
