// Package main provides the command line label composer. It lays out text
// or an image at the selected paper size and sends it to the print server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	appprinting "github.com/labelprint/labelprint/internal/application/printing"
	"github.com/labelprint/labelprint/internal/infrastructure/config"
	"github.com/labelprint/labelprint/internal/infrastructure/logger"
	"github.com/labelprint/labelprint/internal/infrastructure/notification"
	infra "github.com/labelprint/labelprint/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// options are the parsed command line flags
type options struct {
	configPath string
	server     string
	printer    string
	list       bool
	text       string
	fontSize   float64
	x, y       float64
	imagePath  string
	htmlPath   string
	outPath    string
	verbose    bool
}

const usage = `labelprint - compose a label and send it to the print server

USAGE:
    labelprint [options] -text "Hello"
    labelprint [options] -image logo.png
    labelprint [options] -html label.html
    labelprint -list

OPTIONS:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("labelprint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to a TOML configuration file")
	fs.StringVar(&opts.server, "server", "", "Print server URL (overrides client.server_url)")
	fs.StringVar(&opts.printer, "printer", "", "Printer name, the first printer when empty")
	fs.BoolVar(&opts.list, "list", false, "List printers and their paper, then exit")
	fs.StringVar(&opts.text, "text", "", `Label text, "\n" starts a new line`)
	fs.Float64Var(&opts.fontSize, "font-size", 0, "Font size in pixels (overrides client.font_size)")
	fs.Float64Var(&opts.x, "x", 4, "Left offset of the content in pixels")
	fs.Float64Var(&opts.y, "y", 4, "Top offset of the content in pixels")
	fs.StringVar(&opts.imagePath, "image", "", "Image file placed on the label")
	fs.StringVar(&opts.htmlPath, "html", "", "HTML file rendered as the label in headless Chrome")
	fs.StringVar(&opts.outPath, "out", "", "Write the captured PNG to this file instead of printing")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&opts.verbose, "v", false, "Enable debug logging (shorthand)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.htmlPath != "" && (opts.text != "" || opts.imagePath != "") {
		return nil, errors.New("-html cannot be combined with -text or -image")
	}
	if !opts.list && opts.text == "" && opts.imagePath == "" && opts.htmlPath == "" {
		return nil, errors.New("nothing to print: use -text, -image or -html")
	}
	return opts, nil
}

// run executes the command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}
	if opts.server != "" {
		cfg.Client.ServerURL = opts.server
	}
	if opts.printer == "" {
		opts.printer = cfg.Client.Printer
	}
	if opts.fontSize == 0 {
		opts.fontSize = cfg.Client.FontSize
	}

	log := logger.NewCLI(stderr, opts.verbose)
	defer func() {
		_ = logger.Sync(log)
	}()

	client, err := infra.NewClient(infra.ClientConfig{
		BaseURL:   cfg.Client.ServerURL,
		Timeout:   cfg.Client.Timeout,
		UserAgent: cfg.Client.UserAgent,
		Logger:    log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	catalog := appprinting.NewCatalog(client, log)
	if opts.list {
		return listPrinters(ctx, catalog, stdout, stderr)
	}

	store := appprinting.NewSelectionStore()
	printers := catalog.Load(ctx, store)
	if len(printers) == 0 {
		fmt.Fprintln(stderr, "Error: the print server has no printers")
		return 1
	}
	if opts.printer != "" {
		printer, ok := catalog.Find(ctx, opts.printer)
		if !ok {
			fmt.Fprintf(stderr, "Error: unknown printer %q\n", opts.printer)
			return 1
		}
		store.Select(printer)
	}

	surface, cleanup, err := newSurface(opts, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	binder := appprinting.BindDimensions(store, surface, log)
	defer binder.Close()

	if opts.outPath != "" {
		return writeCapture(ctx, surface, opts.outPath, stderr)
	}

	orchestrator := appprinting.NewOrchestrator(
		store,
		surface,
		appprinting.NewPayloadAssembler(log),
		client,
		notification.NewLogNotifier(log),
		log,
	)
	defer orchestrator.Close()

	receipt, err := orchestrator.Print(ctx)
	if err != nil {
		return 1
	}
	fmt.Fprintf(stdout, "%s\t%s\n", receipt.JobID, receipt.Status)
	return 0
}

// newSurface builds the drawing surface for the requested content.
// The content is laid out before the surface receives its size.
func newSurface(opts *options, cfg *config.Config, log *zap.Logger) (appprinting.Surface, func(), error) {
	if opts.htmlPath != "" {
		html, err := os.ReadFile(opts.htmlPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read HTML: %w", err)
		}
		r := infra.NewHTMLRasterizer(infra.HTMLRasterizerConfig{
			ExecPath:  cfg.Chrome.ExecPath,
			Timeout:   cfg.Chrome.Timeout,
			NoSandbox: cfg.Chrome.NoSandbox,
			Logger:    log,
		})
		r.SetHTML(string(html))
		return r, r.Close, nil
	}

	s, err := infra.NewSurface()
	if err != nil {
		return nil, nil, err
	}
	y := opts.y
	if opts.imagePath != "" {
		f, err := os.Open(opts.imagePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open image: %w", err)
		}
		img, _, err := infra.DecodeImage(f)
		_ = f.Close()
		if err != nil {
			return nil, nil, err
		}
		s.AddImage(img, opts.x, y)
	}
	if opts.text != "" {
		text := strings.ReplaceAll(opts.text, `\n`, "\n")
		if err := s.AddText(text, opts.x, y, opts.fontSize); err != nil {
			return nil, nil, err
		}
	}
	return s, func() {}, nil
}

func listPrinters(ctx context.Context, catalog *appprinting.Catalog, stdout, stderr io.Writer) int {
	printers := catalog.ListPrinters(ctx)
	if len(printers) == 0 {
		fmt.Fprintln(stderr, "No printers available")
		return 1
	}
	for _, p := range printers {
		width, height := p.Paper.Pixels().Ints()
		fmt.Fprintf(stdout, "%s\t%gx%g mm\t%s\t%dx%d px\n",
			p.Name, p.Paper.WidthMm, p.Paper.HeightMm, p.Paper.Shape, width, height)
	}
	return 0
}

func writeCapture(ctx context.Context, src appprinting.RasterSource, path string, stderr io.Writer) int {
	png, err := src.ToBlob(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
