package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/application/printserver"
	"github.com/labelprint/labelprint/internal/domain/printing"
)

// PrintServer is the print backend as seen by the HTTP layer
type PrintServer interface {
	ListPrinters(ctx context.Context) []printing.PrinterDescriptor
	Print(ctx context.Context, cmd printserver.PrintCommand) (*printserver.JobResponse, error)
	Preview(ctx context.Context, cmd printserver.PrintCommand) ([]byte, error)
	ListJobs(ctx context.Context, req printserver.ListJobsRequest) ([]printserver.JobResponse, error)
	GetJob(ctx context.Context, id uuid.UUID) (*printserver.JobResponse, error)
	OpenJobImage(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
	ExportJobs(ctx context.Context, req printserver.ListJobsRequest, w io.Writer) error
	Stats(ctx context.Context) (*printserver.JobStatsResponse, error)
}

// PrinterHandler handles the printer catalog and label printing
type PrinterHandler struct {
	BaseHandler
	service PrintServer
}

// NewPrinterHandler creates a new PrinterHandler
func NewPrinterHandler(service PrintServer) *PrinterHandler {
	return &PrinterHandler{service: service}
}

// ListPrinters godoc
// @Summary      List printers
// @Description  Returns the configured printers and their paper as a bare array
// @Tags         printers
// @Produce      json
// @Success      200 {array} printing.PrinterDescriptor
// @Router       /printers [get]
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers := h.service.ListPrinters(c.Request.Context())
	if printers == nil {
		printers = []printing.PrinterDescriptor{}
	}
	c.JSON(http.StatusOK, printers)
}

// Print godoc
// @Summary      Print a label
// @Description  Accepts a label image and its pixel size as multipart form and prints it
// @Tags         printers
// @Accept       multipart/form-data
// @Produce      json
// @Param        printer query    string false "Printer name, the first printer when empty"
// @Param        image   formData file   true  "Label image (PNG)"
// @Param        width   formData number false "Width in pixels"
// @Param        height  formData number false "Height in pixels"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Router       /print [post]
func (h *PrinterHandler) Print(c *gin.Context) {
	cmd, ok := h.bindCommand(c)
	if !ok {
		return
	}

	job, err := h.service.Print(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// Preview godoc
// @Summary      Preview a label
// @Description  Returns the label as the printer would print it, as 1-bit PNG
// @Tags         printers
// @Accept       multipart/form-data
// @Produce      png
// @Router       /preview [post]
func (h *PrinterHandler) Preview(c *gin.Context) {
	cmd, ok := h.bindCommand(c)
	if !ok {
		return
	}

	png, err := h.service.Preview(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// bindCommand reads the multipart label form; it answers the request itself
// when the form is invalid
func (h *PrinterHandler) bindCommand(c *gin.Context) (printserver.PrintCommand, bool) {
	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleError(c, err)
		} else {
			h.BadRequest(c, "image file is required")
		}
		return printserver.PrintCommand{}, false
	}

	src, err := file.Open()
	if err != nil {
		h.HandleError(c, fmt.Errorf("failed to open upload: %w", err))
		return printserver.PrintCommand{}, false
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		h.HandleError(c, fmt.Errorf("failed to read upload: %w", err))
		return printserver.PrintCommand{}, false
	}

	width, err := parsePixels(c.PostForm("width"))
	if err != nil {
		h.BadRequest(c, "width must be a number")
		return printserver.PrintCommand{}, false
	}
	height, err := parsePixels(c.PostForm("height"))
	if err != nil {
		h.BadRequest(c, "height must be a number")
		return printserver.PrintCommand{}, false
	}

	printer := c.Query("printer")
	if printer == "" {
		printer = c.PostForm("printer")
	}

	return printserver.PrintCommand{
		Printer: printer,
		Image:   image,
		Width:   width,
		Height:  height,
	}, true
}

// parsePixels parses a pixel length; empty means unspecified
func parsePixels(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
