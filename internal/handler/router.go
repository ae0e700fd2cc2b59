package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/whalekb/whalekb/internal/middleware"
)

type RouterDeps struct {
	Documents       *DocumentHandler
	Query           *QueryHandler
	Evaluation      *EvaluationHandler
	Stats           *StatsHandler
	JWTSecret       []byte
	IngestRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	ingestGroup := authGroup.Group("")
	ingestGroup.Use(middleware.RateLimit(deps.IngestRateLimit))
	ingestGroup.POST("/documents", deps.Documents.Create)
	ingestGroup.POST("/documents/upload", deps.Documents.Upload)
	ingestGroup.POST("/documents/:id/reingest", deps.Documents.Reingest)

	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.GET("/documents/:id/chunks", deps.Documents.Chunks)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)

	authGroup.POST("/query", deps.Query.Query)

	authGroup.POST("/evaluation", deps.Evaluation.Evaluate)
	authGroup.POST("/evaluation/feedback", deps.Evaluation.Feedback)
	authGroup.GET("/evaluation/metrics", deps.Evaluation.Metrics)
	authGroup.GET("/evaluation/history", deps.Evaluation.History)

	authGroup.GET("/stats", deps.Stats.Stats)
}
