package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/reportstack/report-file-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/reports", r.handlers.ReportFile.Upload)
	group.GET("/reports", r.handlers.ReportFile.List)
	group.GET("/reports/:id", r.handlers.ReportFile.GetInfo)
	group.GET("/reports/:id/preview-url", r.handlers.ReportFile.PreviewURL)
	group.GET("/reports/:id/download-url", r.handlers.ReportFile.DownloadURL)
	group.DELETE("/reports/:id", r.handlers.ReportFile.Delete)
}
