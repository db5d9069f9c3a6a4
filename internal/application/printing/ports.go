package printing

import (
	"context"

	"github.com/labelprint/labelprint/internal/domain/printing"
)

// RasterSource produces a PNG snapshot of the label being edited.
// ToBlob is single-shot: it returns either non-empty bytes or an error.
// A nil or empty result with a nil error is treated as a capture failure.
type RasterSource interface {
	ToBlob(ctx context.Context) ([]byte, error)
}

// SurfaceSizer is the sizing side of a drawing surface
type SurfaceSizer interface {
	SetSize(width, height float64)
}

// Surface is the drawing surface the label is composed on
type Surface interface {
	RasterSource
	SurfaceSizer
	Clear()
}

// PrinterSource lists the printers known to the print backend
type PrinterSource interface {
	ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error)
}

// Receipt is the backend acknowledgement of a submitted label
type Receipt struct {
	JobID  string `json:"id"`
	Status string `json:"status"`
}

// PrintTransport submits an assembled payload to the print backend
type PrintTransport interface {
	Submit(ctx context.Context, payload *printing.PrintJobPayload) (*Receipt, error)
}

// Severity is the level of a user-visible notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

// Notifier shows a message to the user
type Notifier interface {
	Notify(severity Severity, summary, detail string)
}

// SelectionReader exposes the current printer selection
type SelectionReader interface {
	Current() printing.PrintSelection
}
