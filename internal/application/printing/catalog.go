package printing

import (
	"context"
	"sync"

	"github.com/labelprint/labelprint/internal/domain/printing"
	"go.uber.org/zap"
)

// Catalog is the session's list of printers and their paper.
// The list is fetched once; failures degrade to an empty list.
type Catalog struct {
	source PrinterSource
	logger *zap.Logger

	mu       sync.Mutex
	loaded   bool
	printers []printing.PrinterDescriptor
}

// NewCatalog creates a new Catalog
func NewCatalog(source PrinterSource, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		source: source,
		logger: logger,
	}
}

// ListPrinters returns the printers of this session, fetching them on the
// first call. It never returns an error: a failed fetch yields an empty list.
func (c *Catalog) ListPrinters(ctx context.Context) []printing.PrinterDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.printers = c.fetch(ctx)
		c.loaded = true
	}
	return clonePrinters(c.printers)
}

// Refresh discards the cached list and fetches it again
func (c *Catalog) Refresh(ctx context.Context) []printing.PrinterDescriptor {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
	return c.ListPrinters(ctx)
}

// Load lists the printers and selects the first one if nothing is selected
func (c *Catalog) Load(ctx context.Context, store *SelectionStore) []printing.PrinterDescriptor {
	printers := c.ListPrinters(ctx)
	if store.SelectDefault(printers) {
		c.logger.Debug("default printer selected", zap.String("printer", printers[0].Name))
	}
	return printers
}

// Find returns the printer with the given name
func (c *Catalog) Find(ctx context.Context, name string) (*printing.PrinterDescriptor, bool) {
	for _, p := range c.ListPrinters(ctx) {
		if p.Name == name {
			return &p, true
		}
	}
	return nil, false
}

func (c *Catalog) fetch(ctx context.Context) []printing.PrinterDescriptor {
	printers, err := c.source.ListPrinters(ctx)
	if err != nil {
		c.logger.Warn("printer catalog unavailable, continuing without printers",
			zap.Error(err))
		return []printing.PrinterDescriptor{}
	}

	valid := make([]printing.PrinterDescriptor, 0, len(printers))
	for _, p := range printers {
		if err := p.Validate(); err != nil {
			c.logger.Warn("skipping invalid printer",
				zap.String("printer", p.Name),
				zap.Error(err))
			continue
		}
		valid = append(valid, p)
	}

	c.logger.Info("printer catalog loaded", zap.Int("count", len(valid)))
	return valid
}

func clonePrinters(in []printing.PrinterDescriptor) []printing.PrinterDescriptor {
	out := make([]printing.PrinterDescriptor, len(in))
	copy(out, in)
	return out
}
