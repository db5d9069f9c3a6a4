package printing_test

import (
	"context"
	"testing"

	app "github.com/labelprint/labelprint/internal/application/printing"
	domain "github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSelectionStore_SubscribeUnsubscribe(t *testing.T) {
	store := app.NewSelectionStore()
	p1 := testPrinter(t, "P1", 40, 30)

	var seen []string
	sub := store.Subscribe(func(sel domain.PrintSelection) {
		if sel.HasPrinter() {
			seen = append(seen, sel.Current.Name)
		} else {
			seen = append(seen, "")
		}
	})
	assert.Equal(t, 1, store.ListenerCount())

	store.Select(&p1)
	store.Select(nil)
	assert.Equal(t, []string{"P1", ""}, seen)

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, store.ListenerCount())

	store.Select(&p1)
	assert.Len(t, seen, 2)
}

func TestSelectionStore_SelectDefault(t *testing.T) {
	store := app.NewSelectionStore()
	assert.False(t, store.SelectDefault(nil))

	printers := []domain.PrinterDescriptor{testPrinter(t, "P1", 40, 30), testPrinter(t, "P2", 50, 20)}
	assert.True(t, store.SelectDefault(printers))
	assert.False(t, store.SelectDefault(printers[1:]))
	assert.Equal(t, "P1", store.Current().Current.Name)
}

// selecting a 40x30 mm printer pushes 40/25.4*204 x 30/25.4*204 to the surface
func TestDimensionBinder_PushesResolvedSize(t *testing.T) {
	source := new(MockPrinterSource)
	source.On("ListPrinters", mock.Anything).Return([]domain.PrinterDescriptor{
		{
			Name: "P1",
			Paper: domain.PhysicalSize{
				WidthMm: 40, HeightMm: 30, DPI: 204, Shape: domain.PaperShapeRectangular,
			},
		},
	}, nil)

	store := app.NewSelectionStore()
	surface := newFakeSurface(pngBlob)
	binder := app.BindDimensions(store, surface, nil)
	defer binder.Close()

	// Nothing selected yet, nothing pushed
	assert.Empty(t, surface.Sizes())

	app.NewCatalog(source, nil).Load(context.Background(), store)

	sizes := surface.Sizes()
	require.Len(t, sizes, 1)
	assert.Equal(t, 40/25.4*204, sizes[0][0])
	assert.Equal(t, 30/25.4*204, sizes[0][1])
	assert.InDelta(t, 321.26, sizes[0][0], 0.01)
	assert.InDelta(t, 240.94, sizes[0][1], 0.01)
	assert.Equal(t, domain.PixelSize{Width: sizes[0][0], Height: sizes[0][1]}, binder.Size())
}

func TestDimensionBinder_FollowsSelection(t *testing.T) {
	store := app.NewSelectionStore()
	p1 := testPrinter(t, "P1", 40, 30)
	p2 := testPrinter(t, "P2", 50, 20)
	store.Select(&p1)

	surface := newFakeSurface(pngBlob)
	binder := app.BindDimensions(store, surface, nil)

	// Current selection applied on bind
	require.Len(t, surface.Sizes(), 1)

	store.Select(&p2)
	sizes := surface.Sizes()
	require.Len(t, sizes, 2)
	assert.Equal(t, domain.ToPixels(50, 204), sizes[1][0])
	assert.Equal(t, domain.ToPixels(20, 204), sizes[1][1])

	// Clearing the selection leaves the surface as is
	store.Select(nil)
	assert.Len(t, surface.Sizes(), 2)

	binder.Close()
	store.Select(&p1)
	assert.Len(t, surface.Sizes(), 2)
	assert.Equal(t, 0, store.ListenerCount())
}
