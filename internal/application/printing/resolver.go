package printing

import (
	"errors"
	"sync"

	"github.com/labelprint/labelprint/internal/domain/printing"
	"go.uber.org/zap"
)

// DimensionBinder keeps a drawing surface sized to the selected paper.
// The surface is resized inside the selection change, before Select returns.
type DimensionBinder struct {
	surface SurfaceSizer
	logger  *zap.Logger
	sub     *Subscription

	mu   sync.Mutex
	last printing.PixelSize
}

// BindDimensions subscribes the surface to selection changes and applies
// the current selection immediately.
func BindDimensions(store *SelectionStore, surface SurfaceSizer, logger *zap.Logger) *DimensionBinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &DimensionBinder{
		surface: surface,
		logger:  logger,
	}
	b.apply(store.Current())
	b.sub = store.Subscribe(b.apply)
	return b
}

// Size returns the last size pushed to the surface
func (b *DimensionBinder) Size() printing.PixelSize {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Close stops following selection changes
func (b *DimensionBinder) Close() {
	b.sub.Unsubscribe()
}

func (b *DimensionBinder) apply(sel printing.PrintSelection) {
	dims, err := printing.Resolve(sel)
	if err != nil {
		if !errors.Is(err, printing.ErrNoPaperSelected) {
			b.logger.Warn("could not resolve label size", zap.Error(err))
		}
		return
	}

	b.mu.Lock()
	b.last = dims
	b.mu.Unlock()

	b.surface.SetSize(dims.Width, dims.Height)
	b.logger.Debug("surface resized",
		zap.String("printer", sel.Current.Name),
		zap.Float64("width", dims.Width),
		zap.Float64("height", dims.Height))
}
