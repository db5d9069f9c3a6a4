package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/application/printserver"
	"github.com/labelprint/labelprint/internal/interfaces/http/dto"
	"github.com/labelprint/labelprint/internal/interfaces/http/middleware"
)

const defaultJobLimit = 50

// JobHandler handles the print job history
type JobHandler struct {
	BaseHandler
	service PrintServer
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(service PrintServer) *JobHandler {
	return &JobHandler{service: service}
}

// ListJobs godoc
// @Summary      List print jobs
// @Tags         jobs
// @Produce      json
// @Param        printer query string false "Printer name"
// @Param        limit   query int    false "Maximum number of jobs" minimum(1) maximum(1000)
// @Success      200 {object} dto.Response
// @Router       /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	req, ok := h.bindList(c)
	if !ok {
		return
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, jobs, len(jobs), req.Limit)
}

// GetJob godoc
// @Summary      Get a print job
// @Tags         jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// GetJobImage godoc
// @Summary      Get the archived label image of a job
// @Tags         jobs
// @Produce      png
// @Param        id path string true "Job ID"
// @Router       /jobs/{id}/image [get]
func (h *JobHandler) GetJobImage(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	rc, err := h.service.OpenJobImage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		h.HandleError(c, fmt.Errorf("failed to read label image: %w", err))
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// ExportJobs godoc
// @Summary      Export the print job history
// @Tags         jobs
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router       /jobs/export [get]
func (h *JobHandler) ExportJobs(c *gin.Context) {
	req, ok := h.bindList(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportJobs(c.Request.Context(), req, &buf); err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("print-jobs-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Stats godoc
// @Summary      Count print jobs per status
// @Tags         jobs
// @Produce      json
// @Router       /jobs/stats [get]
func (h *JobHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

func (h *JobHandler) bindList(c *gin.Context) (printserver.ListJobsRequest, bool) {
	var req printserver.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return req, false
	}
	if req.Limit == 0 {
		req.Limit = defaultJobLimit
	}
	return req, true
}

func (h *JobHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid job ID")
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}
