package printserver

import (
	"time"

	"github.com/labelprint/labelprint/internal/domain/printing"
)

// PrintCommand is one label received from a client
type PrintCommand struct {
	Printer string  // empty selects the first configured printer
	Image   []byte  // PNG, JPEG or GIF
	Width   float64 // requested width in pixels, 0 keeps the image width
	Height  float64 // requested height in pixels, 0 keeps the image height
}

// ListJobsRequest represents a request to list print jobs
type ListJobsRequest struct {
	Printer string `form:"printer" binding:"omitempty,max=100"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// JobResponse represents a print job response
type JobResponse struct {
	ID           string     `json:"id"`
	Printer      string     `json:"printer"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	ImageBytes   int64      `json:"image_bytes"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Archived     bool       `json:"archived"`
	PrintedAt    *time.Time `json:"printed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// JobStatsResponse counts jobs per status
type JobStatsResponse struct {
	Received  int64 `json:"received"`
	Printing  int64 `json:"printing"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

func toJobResponse(job *printing.PrintJob) *JobResponse {
	return &JobResponse{
		ID:           job.ID.String(),
		Printer:      job.PrinterName,
		Width:        job.WidthPx,
		Height:       job.HeightPx,
		ImageBytes:   job.ImageBytes,
		Status:       job.Status.String(),
		ErrorMessage: job.ErrorMessage,
		Archived:     job.HasArchive(),
		PrintedAt:    job.PrintedAt,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}
