package printing

import "bytes"

// PrintJobPayload is the data sent to the print backend for one attempt.
// It is immutable; build a new one for every attempt.
type PrintJobPayload struct {
	image       []byte
	contentType string
	dims        PixelSize
	printer     string
}

// NewPrintJobPayload assembles a payload from a captured PNG image, the
// resolved pixel dimensions and the target printer. An empty image is a
// capture failure.
func NewPrintJobPayload(image []byte, dims PixelSize, printer PrinterDescriptor) (*PrintJobPayload, error) {
	if len(image) == 0 {
		return nil, ErrCaptureFailed
	}
	if err := printer.Validate(); err != nil {
		return nil, err
	}
	return &PrintJobPayload{
		image:       bytes.Clone(image),
		contentType: "image/png",
		dims:        dims,
		printer:     printer.Name,
	}, nil
}

// Image returns a copy of the captured image bytes
func (p *PrintJobPayload) Image() []byte {
	return bytes.Clone(p.image)
}

// ImageSize returns the length of the captured image in bytes
func (p *PrintJobPayload) ImageSize() int {
	return len(p.image)
}

// ContentType returns the MIME type of the image
func (p *PrintJobPayload) ContentType() string {
	return p.contentType
}

// Dimensions returns the target pixel dimensions
func (p *PrintJobPayload) Dimensions() PixelSize {
	return p.dims
}

// PrinterName returns the identity of the target printer
func (p *PrintJobPayload) PrinterName() string {
	return p.printer
}
