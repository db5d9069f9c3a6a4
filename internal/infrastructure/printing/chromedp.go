package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const defaultChromeTimeout = 30 * time.Second

// ErrEmptyHTML is returned when capturing a rasterizer without content
var ErrEmptyHTML = errors.New("label HTML is empty")

// HTMLRasterizerConfig contains configuration for the HTML rasterizer
type HTMLRasterizerConfig struct {
	// ExecPath of the Chrome binary, empty to let chromedp find one
	ExecPath string
	// Timeout for a single capture
	Timeout time.Duration
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	Logger    *zap.Logger
}

// HTMLRasterizer renders label HTML in headless Chrome at exactly the
// label's pixel size and captures it as PNG
type HTMLRasterizer struct {
	config      HTMLRasterizerConfig
	logger      *zap.Logger
	policy      *bluemonday.Policy
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu     sync.Mutex
	width  int
	height int
	html   string
}

// NewHTMLRasterizer creates a rasterizer backed by a local Chrome instance.
// Chrome is started lazily on the first capture.
func NewHTMLRasterizer(config HTMLRasterizerConfig) *HTMLRasterizer {
	if config.Timeout == 0 {
		config.Timeout = defaultChromeTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	policy := bluemonday.UGCPolicy()
	policy.AllowStyling()
	policy.AllowAttrs("style").Globally()
	policy.AllowDataURIImages()

	return &HTMLRasterizer{
		config:      config,
		logger:      logger,
		policy:      policy,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// SetSize sets the viewport size. Pixel sizes are rounded half up.
func (r *HTMLRasterizer) SetSize(width, height float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = max(printing.RoundHalfUp(width), 0)
	r.height = max(printing.RoundHalfUp(height), 0)
}

// Size returns the viewport size in whole pixels
func (r *HTMLRasterizer) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Clear removes the label content
func (r *HTMLRasterizer) Clear() {
	r.SetHTML("")
}

// SetHTML sets the label content. Scripts, event handlers and other
// unsafe markup are removed.
func (r *HTMLRasterizer) SetHTML(html string) {
	clean := r.policy.Sanitize(html)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.html = clean
}

// HTML returns the sanitized label content
func (r *HTMLRasterizer) HTML() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.html
}

// ToBlob renders the label and returns a PNG screenshot of the viewport
func (r *HTMLRasterizer) ToBlob(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	width, height, body := r.width, r.height, r.html
	r.mu.Unlock()

	if width == 0 || height == 0 {
		return nil, ErrSurfaceNotSized
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyHTML
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// Stop the browser tab when the caller gives up
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	document := labelDocument(body)
	start := time.Now()

	var shot []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, document).Do(ctx)
		}),
		chromedp.CaptureScreenshot(&shot),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("label rendering aborted after %v: %w", time.Since(start), ctxErr)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}

	r.logger.Debug("label rendered",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bytes", len(shot)),
		zap.Duration("duration", time.Since(start)))
	return shot, nil
}

// Close stops the Chrome instance
func (r *HTMLRasterizer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

func labelDocument(body string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>`)
	b.WriteString(`html,body{margin:0;padding:0;background:#fff;color:#000;overflow:hidden;}`)
	b.WriteString(`</style></head><body>`)
	b.WriteString(body)
	b.WriteString(`</body></html>`)
	return b.String()
}
