package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/handler"
	"github.com/noah-isme/sma-report-batch/internal/middleware"
	"github.com/noah-isme/sma-report-batch/internal/models"
	"github.com/noah-isme/sma-report-batch/internal/service"
)

// Handlers groups everything the API routes dispatch to.
type Handlers struct {
	Auth      *service.AuthService
	Metrics   *handler.MetricsHandler
	Selection *handler.SelectionHandler
	Batch     *handler.BatchHandler
	Ranking   *handler.RankingHandler
	Export    *handler.ExportHandler
	// Logger receives audit entries for batch starts.
	Logger *zap.Logger
}

// Register mounts the ops endpoints on r and the API under prefix.
func Register(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.GET("/export/:token", h.Export.Download)

	staff := api.Group("")
	staff.Use(middleware.JWT(h.Auth), middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))

	selection := staff.Group("/selection")
	selection.GET("", h.Selection.Get)
	selection.DELETE("", h.Selection.Clear)
	selection.PUT("/class", h.Selection.SetClass)
	selection.POST("/select", h.Selection.Select)
	selection.POST("/deselect", h.Selection.Deselect)
	selection.POST("/select-all", h.Selection.SelectAll)

	batch := staff.Group("/batch")
	batch.GET("", h.Batch.Status)
	batch.POST("/print", middleware.Audit(h.Logger, "batch.print"), h.Batch.Print)
	batch.POST("/save", middleware.Audit(h.Logger, "batch.save"), h.Batch.Save)
	batch.DELETE("/errors", h.Batch.ClearErrors)

	rankings := staff.Group("/rankings")
	rankings.GET("/classes/:classId", h.Ranking.ClassRanking)
	rankings.GET("/classes/:classId/export", h.Ranking.Export)
}
