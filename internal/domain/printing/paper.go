package printing

import (
	"math"

	"github.com/labelprint/labelprint/internal/domain/shared"
)

// PhysicalSize describes a label stock in physical units
type PhysicalSize struct {
	Name     string     `json:"name,omitempty"`
	WidthMm  float64    `json:"width"`
	HeightMm float64    `json:"height"`
	DPI      float64    `json:"dpi"`
	Shape    PaperShape `json:"shape"`
}

// NewPhysicalSize creates a validated PhysicalSize
func NewPhysicalSize(widthMm, heightMm, dpi float64, shape PaperShape) (PhysicalSize, error) {
	p := PhysicalSize{
		WidthMm:  widthMm,
		HeightMm: heightMm,
		DPI:      dpi,
		Shape:    shape,
	}
	if err := p.Validate(); err != nil {
		return PhysicalSize{}, err
	}
	return p, nil
}

// Validate checks that all dimensions are positive finite numbers and the
// shape is known. Decoded values must be validated before use.
func (p PhysicalSize) Validate() error {
	if !positive(p.WidthMm) {
		return shared.NewDomainError(CodeInvalidPaper, "Paper width must be greater than 0")
	}
	if !positive(p.HeightMm) {
		return shared.NewDomainError(CodeInvalidPaper, "Paper height must be greater than 0")
	}
	if !positive(p.DPI) {
		return shared.NewDomainError(CodeInvalidPaper, "Paper dpi must be greater than 0")
	}
	if !p.Shape.IsValid() {
		return ErrInvalidPaperShape
	}
	return nil
}

// Pixels returns the pixel size of the paper at its own resolution
func (p PhysicalSize) Pixels() PixelSize {
	return PixelSize{
		Width:  ToPixels(p.WidthMm, p.DPI),
		Height: ToPixels(p.HeightMm, p.DPI),
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// PrinterDescriptor pairs a named printer with the paper it holds
type PrinterDescriptor struct {
	Name  string       `json:"name"`
	Paper PhysicalSize `json:"paper"`
}

// NewPrinterDescriptor creates a validated PrinterDescriptor
func NewPrinterDescriptor(name string, paper PhysicalSize) (*PrinterDescriptor, error) {
	d := &PrinterDescriptor{Name: name, Paper: paper}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the printer name and its paper
func (d *PrinterDescriptor) Validate() error {
	if d.Name == "" {
		return shared.NewDomainError(CodeInvalidPrinter, "Printer name cannot be empty")
	}
	return d.Paper.Validate()
}
