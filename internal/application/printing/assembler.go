package printing

import (
	"context"

	"github.com/labelprint/labelprint/internal/domain/printing"
	"go.uber.org/zap"
)

// PayloadAssembler captures the surface and builds the payload of one attempt
type PayloadAssembler struct {
	logger *zap.Logger
}

// NewPayloadAssembler creates a new PayloadAssembler
func NewPayloadAssembler(logger *zap.Logger) *PayloadAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayloadAssembler{logger: logger}
}

type captureResult struct {
	blob []byte
	err  error
}

// Assemble captures src exactly once and returns a fresh payload.
// Any capture problem, including an empty image, is ErrCaptureFailed.
func (a *PayloadAssembler) Assemble(
	ctx context.Context,
	src RasterSource,
	dims printing.PixelSize,
	printer printing.PrinterDescriptor,
) (*printing.PrintJobPayload, error) {
	blob, err := capture(ctx, src)
	if err != nil {
		a.logger.Warn("label capture failed",
			zap.String("printer", printer.Name),
			zap.Error(err))
		return nil, printing.NewCaptureError(err)
	}
	if len(blob) == 0 {
		a.logger.Warn("label capture returned no image", zap.String("printer", printer.Name))
		return nil, printing.ErrCaptureFailed
	}

	payload, err := printing.NewPrintJobPayload(blob, dims, printer)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("payload assembled",
		zap.String("printer", payload.PrinterName()),
		zap.Int("bytes", payload.ImageSize()),
		zap.Float64("width", dims.Width),
		zap.Float64("height", dims.Height))
	return payload, nil
}

// capture resolves the snapshot exactly once: either the source answers or
// the context ends, whichever comes first.
func capture(ctx context.Context, src RasterSource) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan captureResult, 1)
	go func() {
		blob, err := src.ToBlob(ctx)
		done <- captureResult{blob: blob, err: err}
	}()

	select {
	case r := <-done:
		return r.blob, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
