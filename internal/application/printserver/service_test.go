package printserver_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/application/printserver"
	domain "github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
	"github.com/labelprint/labelprint/internal/infrastructure/cache"
	infra "github.com/labelprint/labelprint/internal/infrastructure/printing"
	"github.com/labelprint/labelprint/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PrintJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJob), args.Error(1)
}

func (m *MockJobRepository) FindRecent(ctx context.Context, printerName string, limit int) ([]domain.PrintJob, error) {
	args := m.Called(ctx, printerName, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrintJob), args.Error(1)
}

func (m *MockJobRepository) Save(ctx context.Context, job *domain.PrintJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) CountByStatus(ctx context.Context, status domain.JobStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// writeCloser collects everything written to a device
type writeCloser struct {
	bytes.Buffer
	closed bool
}

func (w *writeCloser) Close() error {
	w.closed = true
	return nil
}

type fakeDevices struct {
	opened []string
	device *writeCloser
	err    error
}

func (f *fakeDevices) Open(ctx context.Context, target string) (io.WriteCloser, error) {
	f.opened = append(f.opened, target)
	if f.err != nil {
		return nil, f.err
	}
	f.device = &writeCloser{}
	return f.device, nil
}

// =============================================================================
// Fixtures
// =============================================================================

type fixture struct {
	svc     *printserver.PrintService
	repo    *MockJobRepository
	devices *fakeDevices
	locker  *cache.InMemoryDeviceLocker
	archive *storage.FileSystemArchive
	encoder *infra.Encoder
	saved   []domain.JobStatus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry, err := infra.NewRegistry([]infra.PrinterConfig{
		{Name: "M110", Device: "/dev/m110", Paper: "40x30"},
		{Name: "M120", Device: "/dev/m120", Paper: "40x30"},
	}, map[string]infra.PaperConfig{
		"40x30": {Width: 40, Height: 30, DPI: 203, Shape: "rectangular"},
	})
	require.NoError(t, err)

	archive, err := storage.NewFileSystemArchive(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		repo:    new(MockJobRepository),
		devices: &fakeDevices{},
		locker:  cache.NewInMemoryDeviceLocker(20 * time.Millisecond),
		archive: archive,
		encoder: infra.NewEncoder(infra.EncoderOptions{}),
	}
	f.svc = printserver.NewPrintService(registry, f.repo, archive, f.locker, f.devices, f.encoder,
		printserver.Options{HeadWidth: 384}, zap.NewNop())
	return f
}

// expectSaves records the status of every saved job
func (f *fixture) expectSaves() {
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("*printing.PrintJob")).
		Run(func(args mock.Arguments) {
			f.saved = append(f.saved, args.Get(1).(*domain.PrintJob).Status)
		}).
		Return(nil)
}

func labelPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, w/2, h), image.Black, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// =============================================================================
// Print
// =============================================================================

func TestPrintService_Print(t *testing.T) {
	f := newFixture(t)
	f.expectSaves()
	ctx := context.Background()

	job, err := f.svc.Print(ctx, printserver.PrintCommand{
		Printer: "M120",
		Image:   labelPNG(t, 320, 240),
		Width:   320,
		Height:  240,
	})
	require.NoError(t, err)

	assert.Equal(t, "M120", job.Printer)
	assert.Equal(t, "COMPLETED", job.Status)
	assert.Equal(t, 320.0, job.Width)
	assert.True(t, job.Archived)
	assert.NotNil(t, job.PrintedAt)
	assert.Equal(t, []domain.JobStatus{
		domain.JobStatusReceived, domain.JobStatusPrinting, domain.JobStatusCompleted,
	}, f.saved)

	assert.Equal(t, []string{"/dev/m120"}, f.devices.opened)
	require.NotNil(t, f.devices.device)
	assert.True(t, f.devices.device.closed)
	stream := f.devices.device.Bytes()
	assert.True(t, bytes.HasPrefix(stream, f.encoder.Header()))
	assert.True(t, bytes.HasSuffix(stream, f.encoder.Footer()))
	// 320 dots wide is 40 bytes per row
	assert.Contains(t, string(stream), string([]byte{0x1D, 0x76, 0x30, 0x00, 40, 0, 128, 0}))

	id := uuid.MustParse(job.ID)
	rc, err := f.archive.Open(ctx, storage.Key(id, job.CreatedAt))
	require.NoError(t, err)
	defer rc.Close()
	archived, _ := io.ReadAll(rc)
	assert.Equal(t, labelPNG(t, 320, 240), archived)

	release, err := f.locker.Lock(ctx, "/dev/m120")
	require.NoError(t, err, "device lock is released after printing")
	release()
}

func TestPrintService_PrintDefaultPrinter(t *testing.T) {
	f := newFixture(t)
	f.expectSaves()

	job, err := f.svc.Print(context.Background(), printserver.PrintCommand{Image: labelPNG(t, 16, 16)})
	require.NoError(t, err)
	assert.Equal(t, "M110", job.Printer)
	assert.Equal(t, []string{"/dev/m110"}, f.devices.opened)
}

func TestPrintService_PrintRejectsInput(t *testing.T) {
	tests := []struct {
		name string
		cmd  printserver.PrintCommand
		want error
	}{
		{"missing image", printserver.PrintCommand{Width: 10, Height: 10}, printserver.ErrImageRequired},
		{"negative width", printserver.PrintCommand{Image: []byte{1}, Width: -1}, printserver.ErrInvalidSize},
		{"NaN height", printserver.PrintCommand{Image: []byte{1}, Height: math.NaN()}, printserver.ErrInvalidSize},
		{"unknown printer", printserver.PrintCommand{Printer: "nope", Image: []byte{1}}, shared.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Print(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			assert.Empty(t, f.devices.opened)
		})
	}
}

func TestPrintService_RejectsOversizedLabel(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
	}{
		{"huge square", 1e9, 1e9},
		{"gigabytes of pixels", 40000, 40000},
		{"wide strip", 4097, 10},
		{"tall strip", 10, 4097},
		{"infinite height", 10, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cmd := printserver.PrintCommand{Image: labelPNG(t, 4, 4), Width: tt.width, Height: tt.height}

			_, err := f.svc.Print(context.Background(), cmd)
			assert.True(t, errors.Is(err, printserver.ErrInvalidSize))

			_, err = f.svc.Preview(context.Background(), cmd)
			assert.True(t, errors.Is(err, printserver.ErrInvalidSize))

			f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			assert.Empty(t, f.devices.opened)
		})
	}
}

func TestPrintService_PrintUndecodableImage(t *testing.T) {
	f := newFixture(t)
	f.expectSaves()

	_, err := f.svc.Print(context.Background(), printserver.PrintCommand{Image: []byte("not a png")})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_IMAGE", domainErr.Code)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusReceived, domain.JobStatusFailed}, f.saved)
	assert.Empty(t, f.devices.opened)
}

func TestPrintService_PrintDeviceFailure(t *testing.T) {
	f := newFixture(t)
	f.devices.err = errors.New("no such device")

	var last *domain.PrintJob
	f.repo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { last = args.Get(1).(*domain.PrintJob) }).
		Return(nil)

	_, err := f.svc.Print(context.Background(), printserver.PrintCommand{Image: labelPNG(t, 16, 16)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, printserver.ErrPrintFailed))
	assert.Contains(t, err.Error(), "no such device")

	require.NotNil(t, last)
	assert.Equal(t, domain.JobStatusFailed, last.Status)
	assert.Equal(t, "no such device", last.ErrorMessage)
}

func TestPrintService_PrintDeviceBusy(t *testing.T) {
	f := newFixture(t)
	f.expectSaves()

	release, err := f.locker.Lock(context.Background(), "/dev/m110")
	require.NoError(t, err)
	defer release()

	_, err = f.svc.Print(context.Background(), printserver.PrintCommand{Image: labelPNG(t, 16, 16)})
	assert.True(t, errors.Is(err, cache.ErrDeviceBusy))
	assert.Empty(t, f.devices.opened)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusReceived, domain.JobStatusFailed}, f.saved)
}

func TestPrintService_Preview(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Preview(context.Background(), printserver.PrintCommand{
		Image: labelPNG(t, 100, 50), Width: 50, Height: 25,
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 25), img.Bounds())
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	_, err = f.svc.Preview(context.Background(), printserver.PrintCommand{Image: []byte("x")})
	assert.True(t, errors.Is(err, printserver.ErrInvalidImage))
}

// =============================================================================
// History
// =============================================================================

func sampleJob(t *testing.T, printer string) *domain.PrintJob {
	t.Helper()
	job, err := domain.NewPrintJob(printer, domain.PixelSize{Width: 320, Height: 240}, 1024)
	require.NoError(t, err)
	return job
}

func TestPrintService_ListJobs(t *testing.T) {
	f := newFixture(t)
	done := sampleJob(t, "M110")
	require.NoError(t, done.StartPrinting())
	require.NoError(t, done.Complete())

	f.repo.On("FindRecent", mock.Anything, "M110", 10).
		Return([]domain.PrintJob{*done, *sampleJob(t, "M110")}, nil).Once()

	jobs, err := f.svc.ListJobs(context.Background(), printserver.ListJobsRequest{Printer: "M110", Limit: 10})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, done.ID.String(), jobs[0].ID)
	assert.Equal(t, "COMPLETED", jobs[0].Status)
	assert.Equal(t, "RECEIVED", jobs[1].Status)

	f.repo.On("FindRecent", mock.Anything, "", 0).Return(nil, errors.New("db down")).Once()
	_, err = f.svc.ListJobs(context.Background(), printserver.ListJobsRequest{})
	assert.ErrorContains(t, err, "db down")
}

func TestPrintService_GetJob(t *testing.T) {
	f := newFixture(t)
	job := sampleJob(t, "M110")
	missing := uuid.New()

	f.repo.On("FindByID", mock.Anything, job.ID).Return(job, nil)
	f.repo.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)

	got, err := f.svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID.String(), got.ID)

	_, err = f.svc.GetJob(context.Background(), missing)
	assert.True(t, errors.Is(err, printserver.ErrJobNotFound))
}

func TestPrintService_OpenJobImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	archived := sampleJob(t, "M110")
	key := storage.Key(archived.ID, archived.CreatedAt)
	require.NoError(t, f.archive.Store(ctx, key, []byte("png")))
	archived.SetArchiveKey(key)

	notArchived := sampleJob(t, "M110")
	lost := sampleJob(t, "M110")
	lost.SetArchiveKey("2020/01/lost.png")

	f.repo.On("FindByID", mock.Anything, archived.ID).Return(archived, nil)
	f.repo.On("FindByID", mock.Anything, notArchived.ID).Return(notArchived, nil)
	f.repo.On("FindByID", mock.Anything, lost.ID).Return(lost, nil)

	rc, err := f.svc.OpenJobImage(ctx, archived.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, []byte("png"), data)

	_, err = f.svc.OpenJobImage(ctx, notArchived.ID)
	assert.True(t, errors.Is(err, printserver.ErrImageNotArchived))

	_, err = f.svc.OpenJobImage(ctx, lost.ID)
	assert.True(t, errors.Is(err, printserver.ErrImageNotArchived))
}

func TestPrintService_Stats(t *testing.T) {
	f := newFixture(t)
	f.repo.On("CountByStatus", mock.Anything, domain.JobStatusReceived).Return(int64(1), nil)
	f.repo.On("CountByStatus", mock.Anything, domain.JobStatusPrinting).Return(int64(0), nil)
	f.repo.On("CountByStatus", mock.Anything, domain.JobStatusCompleted).Return(int64(7), nil)
	f.repo.On("CountByStatus", mock.Anything, domain.JobStatusFailed).Return(int64(2), nil)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &printserver.JobStatsResponse{Received: 1, Completed: 7, Failed: 2}, stats)
}

func TestPrintService_ExportJobs(t *testing.T) {
	f := newFixture(t)
	job := sampleJob(t, "M110")
	require.NoError(t, job.Fail("paper jam"))
	f.repo.On("FindRecent", mock.Anything, "", 100).Return([]domain.PrintJob{*job}, nil)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportJobs(context.Background(), printserver.ListJobsRequest{Limit: 100}, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Print jobs")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Status", rows[0][5])
	assert.Equal(t, job.ID.String(), rows[1][0])
	assert.Equal(t, "M110", rows[1][1])
	assert.Equal(t, "FAILED", rows[1][5])
	assert.Equal(t, "paper jam", rows[1][6])
}
