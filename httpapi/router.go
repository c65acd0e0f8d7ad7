package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))

	r.GET("/healthcheck", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/variants", h.ListVariants)
		api.GET("/variants/:name", h.GetVariant)
		api.PUT("/variants/:name", h.ReplaceVariant)
		api.GET("/variants/:name/template.csv", h.DownloadTemplate)

		api.POST("/checklist", h.Compose)

		api.GET("/inspections", h.ListInspections)
		api.POST("/inspections", h.SaveInspection)
		api.POST("/inspections/import", h.Import)
		api.GET("/inspections/export.csv", h.ExportCSV)
		api.GET("/inspections/export.xlsx", h.ExportXLSX)
		api.GET("/inspections/:id/export.csv", h.DownloadInspection)
	}
	return r
}
