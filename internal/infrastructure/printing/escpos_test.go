package printing_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	infra "github.com/labelprint/labelprint/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_Header(t *testing.T) {
	enc := infra.NewEncoder(infra.EncoderOptions{})

	want := []byte{
		0x1B, 0x40,
		0x1B, 0x37,
		0x1B, 0x4E, 0x0D, 0x07,
		0x1B, 0x4E, 0x04, 0x0F,
		0x1F, 0x11, 0x0A,
		0x1D, 0x50, 0x00,
		0x1D, 0x4C, 0x00, 0x00,
		0x1B, 0x33, 0x00,
		0x1D, 0x56, 0x00,
	}
	if diff := cmp.Diff(want, enc.Header()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	cutting := infra.NewEncoder(infra.EncoderOptions{Speed: 3, Density: 8, Cutter: true}).Header()
	assert.Equal(t, byte(3), cutting[7])
	assert.Equal(t, byte(8), cutting[11])
	assert.Equal(t, byte(1), cutting[len(cutting)-1])
}

func TestEncoder_EncodeSingleBlock(t *testing.T) {
	bm := infra.NewBitmap(12, 2)
	bm.Set(0, 0)
	bm.Set(11, 1)

	enc := infra.NewEncoder(infra.EncoderOptions{})
	out, err := enc.EncodeBytes(bm)
	require.NoError(t, err)

	header := enc.Header()
	require.True(t, bytes.HasPrefix(out, header))

	block := out[len(header) : len(out)-3]
	want := []byte{
		0x1D, 0x76, 0x30, 0x00,
		0x02, 0x00, // width8 = (12+7)/8
		0x02, 0x00, // two lines
		0x80, 0x00,
		0x00, 0x10,
	}
	if diff := cmp.Diff(want, block); diff != "" {
		t.Errorf("raster block mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []byte{0x1B, 0x4A, 0x10}, out[len(out)-3:])
}

// chunkWriter records every write separately
type chunkWriter struct {
	writes [][]byte
	failAt int
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if w.failAt > 0 && len(w.writes)+1 == w.failAt {
		return 0, errors.New("device unplugged")
	}
	w.writes = append(w.writes, bytes.Clone(p))
	return len(p), nil
}

func TestEncoder_EncodeChunks(t *testing.T) {
	bm := infra.NewBitmap(384, 130)
	enc := infra.NewEncoder(infra.EncoderOptions{})

	w := &chunkWriter{}
	require.NoError(t, enc.Encode(w, bm))

	// header, 128 lines, separator, 2 lines, footer
	require.Len(t, w.writes, 5)
	assert.Equal(t, enc.Header(), w.writes[0])

	first := w.writes[1]
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 48, 0, 128, 0}, first[:8])
	assert.Len(t, first, 8+48*128)

	assert.Equal(t, []byte{0x1B, 0x4A, 0x00}, w.writes[2])

	second := w.writes[3]
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 48, 0, 2, 0}, second[:8])
	assert.Len(t, second, 8+48*2)

	assert.Equal(t, enc.Footer(), w.writes[4])
}

func TestEncoder_EncodeErrors(t *testing.T) {
	enc := infra.NewEncoder(infra.EncoderOptions{})

	_, err := enc.EncodeBytes(infra.NewBitmap(0, 10))
	assert.ErrorContains(t, err, "empty bitmap")

	err = enc.Encode(&chunkWriter{failAt: 2}, infra.NewBitmap(8, 8))
	assert.ErrorContains(t, err, "write raster at line 0")
	assert.ErrorContains(t, err, "device unplugged")
}
