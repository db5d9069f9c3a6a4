package printing

import (
	"time"

	"github.com/labelprint/labelprint/internal/domain/shared"
)

// PrintJob records one label received by the print backend
type PrintJob struct {
	shared.BaseEntity
	PrinterName  string     // Printer the label was sent to
	WidthPx      float64    // Requested width in pixels, as submitted
	HeightPx     float64    // Requested height in pixels, as submitted
	ImageBytes   int64      // Size of the uploaded image
	ArchiveKey   string     // Key of the archived label image, if archived
	Status       JobStatus  // Current job status
	ErrorMessage string     // Error message if job failed
	PrintedAt    *time.Time // When the label was written to the device
}

// NewPrintJob creates a new print job in RECEIVED status
func NewPrintJob(printerName string, dims PixelSize, imageBytes int64) (*PrintJob, error) {
	if printerName == "" {
		return nil, shared.NewDomainError(CodeInvalidPrinter, "Printer name cannot be empty")
	}
	if imageBytes <= 0 {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image cannot be empty")
	}
	if dims.Width < 0 || dims.Height < 0 {
		return nil, shared.NewDomainError("INVALID_DIMENSIONS", "Dimensions cannot be negative")
	}

	return &PrintJob{
		BaseEntity:  shared.NewBaseEntity(),
		PrinterName: printerName,
		WidthPx:     dims.Width,
		HeightPx:    dims.Height,
		ImageBytes:  imageBytes,
		Status:      JobStatusReceived,
	}, nil
}

// Dimensions returns the requested pixel size
func (j *PrintJob) Dimensions() PixelSize {
	return PixelSize{Width: j.WidthPx, Height: j.HeightPx}
}

// SetArchiveKey records where the label image was archived
func (j *PrintJob) SetArchiveKey(key string) {
	j.ArchiveKey = key
	j.Touch()
}

// StartPrinting marks the job as being written to the device
func (j *PrintJob) StartPrinting() error {
	if !j.Status.CanTransitionTo(JobStatusPrinting) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start printing from status: "+j.Status.String())
	}

	j.Status = JobStatusPrinting
	j.Touch()
	return nil
}

// Complete marks the job as printed
func (j *PrintJob) Complete() error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}

	j.Status = JobStatusCompleted
	now := j.Touch()
	j.PrintedAt = &now
	return nil
}

// Fail marks the job as failed with an error message
func (j *PrintJob) Fail(errorMessage string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}

	j.Status = JobStatusFailed
	j.ErrorMessage = errorMessage
	j.Touch()
	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// HasArchive returns true if the label image was archived
func (j *PrintJob) HasArchive() bool {
	return j.ArchiveKey != ""
}
