package printserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
	"github.com/labelprint/labelprint/internal/infrastructure/cache"
	infra "github.com/labelprint/labelprint/internal/infrastructure/printing"
	"github.com/labelprint/labelprint/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// Errors returned by the print service
var (
	ErrImageRequired    = shared.NewDomainError("INVALID_INPUT", "Image is required")
	ErrInvalidSize      = shared.NewDomainError("INVALID_INPUT", "Width and height must be between 0 and 4096 dots")
	ErrInvalidImage     = shared.NewDomainError("INVALID_IMAGE", "Image could not be decoded")
	ErrPrintFailed      = shared.NewDomainError("PRINT_FAILED", "Printer did not accept the label")
	ErrJobNotFound      = shared.NewDomainError("NOT_FOUND", "Print job not found")
	ErrImageNotArchived = shared.NewDomainError("NOT_FOUND", "Label image is not archived")
)

// PrinterRegistry resolves printers by name
type PrinterRegistry interface {
	Descriptors() []printing.PrinterDescriptor
	Lookup(name string) (infra.Printer, error)
}

// Options controls how labels are prepared for the print head
type Options struct {
	HeadWidth    int
	CenterOnHead bool
	Threshold    uint8
}

// PrintService receives labels, prints them and records the history
type PrintService struct {
	registry PrinterRegistry
	jobRepo  printing.PrintJobRepository
	archive  storage.Archive
	locker   cache.DeviceLocker
	devices  infra.DeviceOpener
	encoder  *infra.Encoder
	opts     Options
	logger   *zap.Logger
}

// NewPrintService creates a new PrintService
func NewPrintService(
	registry PrinterRegistry,
	jobRepo printing.PrintJobRepository,
	archive storage.Archive,
	locker cache.DeviceLocker,
	devices infra.DeviceOpener,
	encoder *infra.Encoder,
	opts Options,
	logger *zap.Logger,
) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if archive == nil {
		archive = storage.NopArchive{}
	}
	if encoder == nil {
		encoder = infra.NewEncoder(infra.EncoderOptions{})
	}
	return &PrintService{
		registry: registry,
		jobRepo:  jobRepo,
		archive:  archive,
		locker:   locker,
		devices:  devices,
		encoder:  encoder,
		opts:     opts,
		logger:   logger,
	}
}

// ListPrinters returns the configured printers in order
func (s *PrintService) ListPrinters(ctx context.Context) []printing.PrinterDescriptor {
	return s.registry.Descriptors()
}

// Print records the label, writes it to the printer device and returns the
// finished job. A job that fails after it was recorded is kept as FAILED.
func (s *PrintService) Print(ctx context.Context, cmd PrintCommand) (*JobResponse, error) {
	if len(cmd.Image) == 0 {
		return nil, ErrImageRequired
	}
	if !validSize(cmd.Width) || !validSize(cmd.Height) {
		return nil, ErrInvalidSize
	}

	printer, err := s.registry.Lookup(cmd.Printer)
	if err != nil {
		return nil, err
	}

	dims := printing.PixelSize{Width: cmd.Width, Height: cmd.Height}
	job, err := printing.NewPrintJob(printer.Name, dims, int64(len(cmd.Image)))
	if err != nil {
		return nil, err
	}
	log := s.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("printer", printer.Name),
	)

	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save print job: %w", err)
	}

	s.archiveImage(ctx, log, job, cmd.Image)

	bitmap, err := s.prepare(cmd.Image, dims)
	if err != nil {
		s.fail(ctx, log, job, err)
		return nil, withDetail(ErrInvalidImage, err)
	}

	if err := s.write(ctx, log, job, printer, bitmap); err != nil {
		s.fail(ctx, log, job, err)
		if errors.Is(err, cache.ErrDeviceBusy) {
			return nil, cache.ErrDeviceBusy
		}
		return nil, withDetail(ErrPrintFailed, err)
	}

	if err := job.Complete(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save print job: %w", err)
	}

	log.Info("label printed",
		zap.Int("width", bitmap.Width),
		zap.Int("height", bitmap.Height))
	return toJobResponse(job), nil
}

// Preview returns the 1-bit image exactly as it would be printed
func (s *PrintService) Preview(ctx context.Context, cmd PrintCommand) ([]byte, error) {
	if len(cmd.Image) == 0 {
		return nil, ErrImageRequired
	}
	if !validSize(cmd.Width) || !validSize(cmd.Height) {
		return nil, ErrInvalidSize
	}

	bitmap, err := s.prepare(cmd.Image, printing.PixelSize{Width: cmd.Width, Height: cmd.Height})
	if err != nil {
		return nil, withDetail(ErrInvalidImage, err)
	}

	var buf bytes.Buffer
	if err := infra.EncodePNG(&buf, bitmap.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// ListJobs returns the most recent jobs, newest first
func (s *PrintService) ListJobs(ctx context.Context, req ListJobsRequest) ([]JobResponse, error) {
	jobs, err := s.jobRepo.FindRecent(ctx, req.Printer, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}

	items := make([]JobResponse, len(jobs))
	for i := range jobs {
		items[i] = *toJobResponse(&jobs[i])
	}
	return items, nil
}

// GetJob retrieves a job by ID
func (s *PrintService) GetJob(ctx context.Context, id uuid.UUID) (*JobResponse, error) {
	job, err := s.findJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return toJobResponse(job), nil
}

// OpenJobImage opens the archived label image of a job
func (s *PrintService) OpenJobImage(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	job, err := s.findJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.HasArchive() {
		return nil, ErrImageNotArchived
	}

	rc, err := s.archive.Open(ctx, job.ArchiveKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrImageNotArchived
		}
		return nil, fmt.Errorf("failed to open label image: %w", err)
	}
	return rc, nil
}

// Stats counts jobs per status
func (s *PrintService) Stats(ctx context.Context) (*JobStatsResponse, error) {
	stats := &JobStatsResponse{}
	counters := []struct {
		status printing.JobStatus
		dst    *int64
	}{
		{printing.JobStatusReceived, &stats.Received},
		{printing.JobStatusPrinting, &stats.Printing},
		{printing.JobStatusCompleted, &stats.Completed},
		{printing.JobStatusFailed, &stats.Failed},
	}
	for _, c := range counters {
		n, err := s.jobRepo.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s jobs: %w", c.status, err)
		}
		*c.dst = n
	}
	return stats, nil
}

func (s *PrintService) findJob(ctx context.Context, id uuid.UUID) (*printing.PrintJob, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}
	return job, nil
}

// archiveImage keeps a copy of the label. Archive failures do not stop the print.
func (s *PrintService) archiveImage(ctx context.Context, log *zap.Logger, job *printing.PrintJob, image []byte) {
	if !s.archive.Enabled() {
		return
	}
	key := storage.Key(job.ID, job.CreatedAt)
	if err := s.archive.Store(ctx, key, image); err != nil {
		log.Warn("failed to archive label image", zap.Error(err))
		return
	}
	job.SetArchiveKey(key)
}

func (s *PrintService) prepare(image []byte, dims printing.PixelSize) (*infra.Bitmap, error) {
	img, _, err := infra.DecodeImage(bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	width, height := dims.Ints()
	return infra.PrepareLabel(img, infra.PrepareOptions{
		Width:        width,
		Height:       height,
		HeadWidth:    s.opts.HeadWidth,
		CenterOnHead: s.opts.CenterOnHead,
		Threshold:    s.opts.Threshold,
	}), nil
}

// write holds the device lock while the stream is sent
func (s *PrintService) write(ctx context.Context, log *zap.Logger, job *printing.PrintJob, printer infra.Printer, bitmap *infra.Bitmap) error {
	release, err := s.locker.Lock(ctx, printer.Device)
	if err != nil {
		return err
	}
	defer release()

	if err := job.StartPrinting(); err != nil {
		return err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save print job: %w", err)
	}

	start := time.Now()
	device, err := s.devices.Open(ctx, printer.Device)
	if err != nil {
		return err
	}
	if err := s.encoder.Encode(device, bitmap); err != nil {
		_ = device.Close()
		return err
	}
	if err := device.Close(); err != nil {
		return fmt.Errorf("failed to close printer device: %w", err)
	}

	log.Debug("label written to device",
		zap.String("device", printer.Device),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// fail records the cause on the job
func (s *PrintService) fail(ctx context.Context, log *zap.Logger, job *printing.PrintJob, cause error) {
	log.Error("print job failed", zap.Error(cause))

	if err := job.Fail(cause.Error()); err != nil {
		log.Warn("failed to mark job as failed", zap.Error(err))
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		log.Error("failed to save failed print job", zap.Error(err))
	}
}

// withDetail copies base and appends the cause to its message
func withDetail(base *shared.DomainError, cause error) error {
	return shared.NewDomainError(base.Code, base.Message+": "+cause.Error())
}

// maxLabelDots bounds either side of a requested label, in dots
const maxLabelDots = 4096

func validSize(v float64) bool {
	return v >= 0 && v <= maxLabelDots && !math.IsNaN(v)
}
