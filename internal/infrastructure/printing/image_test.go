package printing_test

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	infra "github.com/labelprint/labelprint/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halfBlack returns an image whose left half is black and right half white
func halfBlack(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, w/2, h), image.Black, image.Point{}, draw.Src)
	return img
}

func TestBitmap(t *testing.T) {
	bm := infra.NewBitmap(10, 3)
	assert.Equal(t, 2, bm.Stride)
	assert.Len(t, bm.Bits, 6)

	bm.Set(0, 0)
	bm.Set(9, 2)
	bm.Set(10, 0) // outside, ignored
	assert.True(t, bm.Black(0, 0))
	assert.True(t, bm.Black(9, 2))
	assert.False(t, bm.Black(1, 0))
	assert.Equal(t, []byte{0x80, 0x00}, bm.Row(0))
	assert.Equal(t, []byte{0x00, 0x40}, bm.Row(2))

	gray := bm.Image()
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0xff), gray.GrayAt(1, 0).Y)
}

func TestPrepareLabel_KeepsMatchingSize(t *testing.T) {
	bm := infra.PrepareLabel(halfBlack(40, 10), infra.PrepareOptions{Width: 40, Height: 10})

	assert.Equal(t, 40, bm.Width)
	assert.Equal(t, 10, bm.Height)
	assert.True(t, bm.Black(0, 0))
	assert.True(t, bm.Black(19, 9))
	assert.False(t, bm.Black(20, 0))
	assert.False(t, bm.Black(39, 9))
}

func TestPrepareLabel_FitsRequestedSize(t *testing.T) {
	// 20x20 into 40x20 keeps the aspect ratio and centres on white
	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	draw.Draw(src, src.Bounds(), image.Black, image.Point{}, draw.Src)

	bm := infra.PrepareLabel(src, infra.PrepareOptions{Width: 40, Height: 20})

	assert.Equal(t, 40, bm.Width)
	assert.Equal(t, 20, bm.Height)
	assert.False(t, bm.Black(2, 10))
	assert.True(t, bm.Black(20, 10))
	assert.False(t, bm.Black(37, 10))
}

func TestPrepareLabel_HeadWidth(t *testing.T) {
	t.Run("wider than head is scaled down", func(t *testing.T) {
		bm := infra.PrepareLabel(halfBlack(800, 200), infra.PrepareOptions{HeadWidth: 384})
		assert.Equal(t, 384, bm.Width)
		assert.Equal(t, 96, bm.Height)
	})

	t.Run("narrow label is centred when requested", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 100, 10))
		draw.Draw(src, src.Bounds(), image.Black, image.Point{}, draw.Src)

		bm := infra.PrepareLabel(src, infra.PrepareOptions{HeadWidth: 384, CenterOnHead: true})
		assert.Equal(t, 384, bm.Width)
		assert.False(t, bm.Black(141, 5))
		assert.True(t, bm.Black(142, 5))
		assert.True(t, bm.Black(241, 5))
		assert.False(t, bm.Black(242, 5))
	})

	t.Run("narrow label is kept without centring", func(t *testing.T) {
		bm := infra.PrepareLabel(halfBlack(100, 10), infra.PrepareOptions{HeadWidth: 384})
		assert.Equal(t, 100, bm.Width)
	})
}

func TestPrepareLabel_TransparentIsWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	src.SetNRGBA(3, 3, color.NRGBA{A: 0xff})

	bm := infra.PrepareLabel(src, infra.PrepareOptions{})
	assert.True(t, bm.Black(3, 3))
	assert.False(t, bm.Black(0, 0))
}

func TestPrepareLabel_Threshold(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(0, 0, color.Gray{Y: 100})
	src.SetGray(1, 0, color.Gray{Y: 200})

	assert.True(t, infra.PrepareLabel(src, infra.PrepareOptions{}).Black(0, 0))
	assert.False(t, infra.PrepareLabel(src, infra.PrepareOptions{}).Black(1, 0))
	assert.False(t, infra.PrepareLabel(src, infra.PrepareOptions{Threshold: 50}).Black(0, 0))
	assert.True(t, infra.PrepareLabel(src, infra.PrepareOptions{Threshold: 250}).Black(1, 0))
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, infra.EncodePNG(&buf, halfBlack(16, 4)))

	img, format, err := infra.DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 16, 4), img.Bounds())

	_, _, err = infra.DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.ErrorContains(t, err, "failed to decode image")
}
