package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the printer endpoints
func (h *PrinterHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/printers", h.ListPrinters)
	rg.POST("/print", h.Print)
	rg.POST("/preview", h.Preview)
}

// RegisterRoutes registers the job history endpoints
func (h *JobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	jobs := rg.Group("/jobs")
	jobs.GET("", h.ListJobs)
	jobs.GET("/export", h.ExportJobs)
	jobs.GET("/stats", h.Stats)
	jobs.GET("/:id", h.GetJob)
	jobs.GET("/:id/image", h.GetJobImage)
}

// RegisterRoutes registers the health endpoint
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}
