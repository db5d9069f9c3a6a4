package printing_test

import (
	"context"
	"sync"
	"testing"

	app "github.com/labelprint/labelprint/internal/application/printing"
	domain "github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockPrinterSource struct {
	mock.Mock
}

func (m *MockPrinterSource) ListPrinters(ctx context.Context) ([]domain.PrinterDescriptor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrinterDescriptor), args.Error(1)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Submit(ctx context.Context, payload *domain.PrintJobPayload) (*app.Receipt, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.Receipt), args.Error(1)
}

// fakeSurface records sizing calls and returns a fixed blob
type fakeSurface struct {
	mu       sync.Mutex
	sizes    [][2]float64
	blob     []byte
	err      error
	captures int
	gate     chan struct{}
	entered  chan struct{}
}

func newFakeSurface(blob []byte) *fakeSurface {
	return &fakeSurface{blob: blob}
}

func (s *fakeSurface) SetSize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes = append(s.sizes, [2]float64{width, height})
}

func (s *fakeSurface) Clear() {}

func (s *fakeSurface) ToBlob(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	s.captures++
	gate, entered := s.gate, s.entered
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return s.blob, s.err
}

func (s *fakeSurface) Sizes() [][2]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]float64, len(s.sizes))
	copy(out, s.sizes)
	return out
}

func (s *fakeSurface) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

func testPrinter(t *testing.T, name string, widthMm, heightMm float64) domain.PrinterDescriptor {
	t.Helper()
	paper, err := domain.NewPhysicalSize(widthMm, heightMm, 204, domain.PaperShapeRectangular)
	require.NoError(t, err)
	d, err := domain.NewPrinterDescriptor(name, paper)
	require.NoError(t, err)
	return *d
}

var pngBlob = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
