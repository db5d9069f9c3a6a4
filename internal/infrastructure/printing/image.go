package printing

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// Bitmap is a 1-bit image, packed MSB first, one bit per dot, 1 = black
type Bitmap struct {
	Width  int
	Height int
	Stride int // bytes per row, (Width+7)/8
	Bits   []byte
}

// NewBitmap creates a white bitmap
func NewBitmap(width, height int) *Bitmap {
	stride := (width + 7) / 8
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Bits:   make([]byte, stride*height),
	}
}

// Set marks the dot at x, y black
func (b *Bitmap) Set(x, y int) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.Bits[y*b.Stride+x/8] |= 1 << (7 - uint(x&7))
}

// Black reports whether the dot at x, y is black
func (b *Bitmap) Black(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Bits[y*b.Stride+x/8]&(1<<(7-uint(x&7))) != 0
}

// Row returns the packed bytes of row y
func (b *Bitmap) Row(y int) []byte {
	return b.Bits[y*b.Stride : (y+1)*b.Stride]
}

// Image returns the bitmap as a gray image, for previews
func (b *Bitmap) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Black(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	return img
}

// PrepareOptions controls how an uploaded label becomes a printable bitmap
type PrepareOptions struct {
	Width        int   // requested width in dots, 0 keeps the image width
	Height       int   // requested height in dots, 0 keeps the image height
	HeadWidth    int   // printable dots of the head, 0 means unlimited
	CenterOnHead bool  // pad narrow labels to HeadWidth, centred
	Threshold    uint8 // luminance below which a dot is black, 0 means 128
}

// DecodeImage decodes a PNG, JPEG or GIF label image
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// PrepareLabel flattens src onto white, fits it into the requested size,
// limits it to the print head and converts it to a bitmap
func PrepareLabel(src image.Image, opts PrepareOptions) *Bitmap {
	img := flatten(src)

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if opts.Width > 0 && opts.Height > 0 && (opts.Width != w || opts.Height != h) {
		img = fit(img, opts.Width, opts.Height)
	}

	if opts.HeadWidth > 0 {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
		if w > opts.HeadWidth {
			img = fit(img, opts.HeadWidth, max(1, h*opts.HeadWidth/w))
		} else if opts.CenterOnHead && w < opts.HeadWidth {
			img = pad(img, opts.HeadWidth)
		}
	}

	threshold := opts.Threshold
	if threshold == 0 {
		threshold = 128
	}
	return threshold1(img, threshold)
}

// flatten draws src over a white background so transparency prints white
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// fit scales img to fit inside width x height keeping its aspect ratio,
// centred on a white background of exactly width x height
func fit(img *image.RGBA, width, height int) *image.RGBA {
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	imgRatio := float64(iw) / float64(ih)
	targetRatio := float64(width) / float64(height)

	newW, newH := width, height
	if imgRatio > targetRatio {
		newH = int(float64(width) / imgRatio)
	} else {
		newW = int(float64(height) * imgRatio)
	}
	newW, newH = max(newW, 1), max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	offX, offY := (width-newW)/2, (height-newH)/2
	xdraw.CatmullRom.Scale(dst, image.Rect(offX, offY, offX+newW, offY+newH), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// pad centres img horizontally on a white canvas of the given width
func pad(img *image.RGBA, width int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, width, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	off := (width - w) / 2
	draw.Draw(dst, image.Rect(off, 0, off+w, h), img, image.Point{}, draw.Src)
	return dst
}

func threshold1(img *image.RGBA, threshold uint8) *Bitmap {
	b := img.Bounds()
	bm := NewBitmap(b.Dx(), b.Dy())
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			gray := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if gray.Y < threshold {
				bm.Set(x, y)
			}
		}
	}
	return bm
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
