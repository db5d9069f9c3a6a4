package printing

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
)

// DefaultDevice is used for printers configured without a device
const DefaultDevice = "/dev/phomemo"

// PrinterConfig is one entry of printers.json
type PrinterConfig struct {
	Name   string `json:"name" validate:"required,max=100"`
	Device string `json:"device"`
	Paper  string `json:"paper" validate:"required"`
}

// PaperConfig is one entry of papers.json, keyed by paper name
type PaperConfig struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	DPI    float64 `json:"dpi" validate:"gt=0"`
	Shape  string  `json:"shape" validate:"required"`
}

// Printer is a configured printer with its device target
type Printer struct {
	printing.PrinterDescriptor
	Device string
}

// Registry holds the printers the server can print to, in configured order
type Registry struct {
	printers []Printer
	byName   map[string]int
}

// LoadRegistry reads printers.json and papers.json
func LoadRegistry(printersPath, papersPath string) (*Registry, error) {
	var printers []PrinterConfig
	if err := readJSON(printersPath, &printers); err != nil {
		return nil, err
	}
	var papers map[string]PaperConfig
	if err := readJSON(papersPath, &papers); err != nil {
		return nil, err
	}
	return NewRegistry(printers, papers)
}

// NewRegistry joins every printer with its paper and validates the result
func NewRegistry(printers []PrinterConfig, papers map[string]PaperConfig) (*Registry, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	r := &Registry{
		printers: make([]Printer, 0, len(printers)),
		byName:   make(map[string]int, len(printers)),
	}
	for i, pc := range printers {
		if err := validate.Struct(pc); err != nil {
			return nil, fmt.Errorf("printer #%d: %w", i+1, err)
		}
		if _, dup := r.byName[pc.Name]; dup {
			return nil, fmt.Errorf("printer %q is configured twice", pc.Name)
		}

		paperCfg, ok := papers[pc.Paper]
		if !ok {
			return nil, fmt.Errorf("printer %q uses unknown paper %q", pc.Name, pc.Paper)
		}
		if err := validate.Struct(paperCfg); err != nil {
			return nil, fmt.Errorf("paper %q: %w", pc.Paper, err)
		}
		shape, err := printing.ParsePaperShape(paperCfg.Shape)
		if err != nil {
			return nil, fmt.Errorf("paper %q: %w", pc.Paper, err)
		}
		paper, err := printing.NewPhysicalSize(paperCfg.Width, paperCfg.Height, paperCfg.DPI, shape)
		if err != nil {
			return nil, fmt.Errorf("paper %q: %w", pc.Paper, err)
		}
		paper.Name = pc.Paper

		desc, err := printing.NewPrinterDescriptor(pc.Name, paper)
		if err != nil {
			return nil, err
		}
		device := pc.Device
		if device == "" {
			device = DefaultDevice
		}

		r.byName[pc.Name] = len(r.printers)
		r.printers = append(r.printers, Printer{PrinterDescriptor: *desc, Device: device})
	}
	return r, nil
}

// Descriptors returns the printer descriptors in configured order
func (r *Registry) Descriptors() []printing.PrinterDescriptor {
	out := make([]printing.PrinterDescriptor, len(r.printers))
	for i, p := range r.printers {
		out[i] = p.PrinterDescriptor
	}
	return out
}

// Lookup finds a printer by name. An empty name selects the first printer.
func (r *Registry) Lookup(name string) (Printer, error) {
	if len(r.printers) == 0 {
		return Printer{}, shared.NewDomainError("NOT_FOUND", "No printers configured")
	}
	if name == "" {
		return r.printers[0], nil
	}
	i, ok := r.byName[name]
	if !ok {
		return Printer{}, shared.NewDomainError("NOT_FOUND", "Printer not found: "+name)
	}
	return r.printers[i], nil
}

// Len returns the number of configured printers
func (r *Registry) Len() int {
	return len(r.printers)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
