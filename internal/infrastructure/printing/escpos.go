package printing

import (
	"bytes"
	"fmt"
	"io"
)

// DefaultChunkLines is the number of raster lines sent per GS v 0 block
const DefaultChunkLines = 128

// EncoderOptions configures the Phomemo ESC/POS stream
type EncoderOptions struct {
	Speed      byte // 0 uses 7
	Density    byte // 0 uses 15
	Cutter     bool // cut after the label
	ChunkLines int  // 0 uses DefaultChunkLines
}

// Encoder turns bitmaps into Phomemo ESC/POS raster streams
type Encoder struct {
	opts EncoderOptions
}

// NewEncoder creates a new Encoder
func NewEncoder(opts EncoderOptions) *Encoder {
	if opts.Speed == 0 {
		opts.Speed = 7
	}
	if opts.Density == 0 {
		opts.Density = 15
	}
	if opts.ChunkLines <= 0 {
		opts.ChunkLines = DefaultChunkLines
	}
	return &Encoder{opts: opts}
}

// Header returns the printer setup sequence
func (e *Encoder) Header() []byte {
	cutter := byte(0x00)
	if e.opts.Cutter {
		cutter = 0x01
	}
	return []byte{
		0x1B, 0x40, // ESC @ initialize
		0x1B, 0x37, // ESC 7 no automatic line feed
		0x1B, 0x4E, 0x0D, e.opts.Speed, // print speed
		0x1B, 0x4E, 0x04, e.opts.Density, // print density
		0x1F, 0x11, 0x0A, // media type: gap labels
		0x1D, 0x50, 0x00, // no automatic feed per line
		0x1D, 0x4C, 0x00, 0x00, // left margin 0
		0x1B, 0x33, 0x00, // line spacing 0
		0x1D, 0x56, cutter, // cutter
	}
}

// Footer returns the trailing feed
func (e *Encoder) Footer() []byte {
	return []byte{0x1B, 0x4A, 0x10} // ESC J feed 16 dots
}

// Encode writes the complete stream for bm to w, one write per block
func (e *Encoder) Encode(w io.Writer, bm *Bitmap) error {
	if bm.Width <= 0 || bm.Height <= 0 {
		return fmt.Errorf("cannot print an empty bitmap (%dx%d)", bm.Width, bm.Height)
	}
	if bm.Stride > 0xFFFF {
		return fmt.Errorf("bitmap too wide: %d bytes per row", bm.Stride)
	}

	if _, err := w.Write(e.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for line := 0; line < bm.Height; line += e.opts.ChunkLines {
		lines := min(e.opts.ChunkLines, bm.Height-line)
		if _, err := w.Write(e.raster(bm, line, lines)); err != nil {
			return fmt.Errorf("write raster at line %d: %w", line, err)
		}
		if line+lines < bm.Height {
			if _, err := w.Write([]byte{0x1B, 0x4A, 0x00}); err != nil {
				return fmt.Errorf("write raster separator: %w", err)
			}
		}
	}

	if _, err := w.Write(e.Footer()); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

// EncodeBytes returns the complete stream for bm
func (e *Encoder) EncodeBytes(bm *Bitmap) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, bm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// raster builds a GS v 0 block of lines rows starting at line
func (e *Encoder) raster(bm *Bitmap, line, lines int) []byte {
	buf := make([]byte, 0, 8+bm.Stride*lines)
	buf = append(buf,
		0x1D, 0x76, 0x30, 0x00,
		byte(bm.Stride&0xFF), byte(bm.Stride>>8),
		byte(lines&0xFF), byte(lines>>8),
	)
	for y := line; y < line+lines; y++ {
		buf = append(buf, bm.Row(y)...)
	}
	return buf
}
