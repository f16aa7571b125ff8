// Package http exposes stored results, on-demand analysis and graph queries
// over a gin router.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/handlers"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/middleware"
)

// RouterConfig holds everything the router wires.  Nil handlers leave their
// routes unregistered.
type RouterConfig struct {
	ResultHandler   *handlers.ResultHandler
	AnalysisHandler *handlers.AnalysisHandler
	GraphHandler    *handlers.GraphHandler
	HealthHandler   *handlers.HealthHandler

	Logger         logging.Logger
	Logging        middleware.LoggingConfig
	Recorder       middleware.RequestRecorder
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine.
//
//	GET  /healthz                          liveness
//	GET  /readyz                           readiness
//	GET  /metrics                          prometheus exposition
//	GET  /api/v1/results                   list results
//	GET  /api/v1/results/:id               one result by document id
//	POST /api/v1/analyze                   analyze a posted document
//	POST /api/v1/centrality                rank a posted document's entities
//	GET  /api/v1/graphs/:id                archived adjacency graph
//	GET  /api/v1/entities/:name/neighbors  stored neighborhood
//	GET  /api/v1/sections/search           full-text section search
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Logging.SkipPaths == nil && cfg.Logging.SlowThreshold == 0 {
		cfg.Logging = middleware.DefaultLoggingConfig()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogging(cfg.Logger, cfg.Logging))
	if cfg.Recorder != nil {
		r.Use(middleware.Metrics(cfg.Recorder))
	}

	if h := cfg.HealthHandler; h != nil {
		r.GET("/healthz", h.Liveness)
		r.GET("/readyz", h.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	v1 := r.Group("/api/v1")
	if h := cfg.ResultHandler; h != nil {
		v1.GET("/results", h.ListResults)
		v1.GET("/results/:id", h.GetResult)
	}
	if h := cfg.AnalysisHandler; h != nil {
		v1.POST("/analyze", h.Analyze)
		v1.POST("/centrality", h.Centrality)
	}
	if h := cfg.GraphHandler; h != nil {
		v1.GET("/graphs/:id", h.GetGraph)
		v1.GET("/entities/:name/neighbors", h.Neighbors)
		v1.GET("/sections/search", h.SearchSections)
	}
	return r
}

//Personal.AI order the ending
