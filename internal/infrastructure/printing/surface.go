package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"sync"

	"github.com/labelprint/labelprint/internal/domain/printing"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrSurfaceNotSized is returned when capturing a surface without a size
var ErrSurfaceNotSized = errors.New("surface has no size, select a printer first")

// Point is a position on the surface in pixels
type Point struct {
	X, Y float64
}

type surfaceObject interface {
	draw(dst *image.RGBA)
}

// Surface is an in-process drawing surface for composing labels.
// Objects are kept and redrawn on every capture, so resizing the
// surface does not lose them.
type Surface struct {
	mu      sync.Mutex
	width   int
	height  int
	objects []surfaceObject

	font  *opentype.Font
	faces map[float64]font.Face
}

// NewSurface creates an empty surface using the Go Regular font
func NewSurface() (*Surface, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Surface{
		font:  f,
		faces: make(map[float64]font.Face),
	}, nil
}

// SetSize resizes the surface. Pixel sizes are rounded half up.
func (s *Surface) SetSize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(printing.RoundHalfUp(width), 0)
	s.height = max(printing.RoundHalfUp(height), 0)
}

// Size returns the surface size in whole pixels
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Clear removes every object
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = nil
}

// Len returns the number of objects on the surface
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// AddText places text with its top left corner at x, y. Lines are split
// on newlines.
func (s *Surface) AddText(text string, x, y, size float64) error {
	if size <= 0 {
		return fmt.Errorf("font size must be greater than 0, got %v", size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	face, err := s.face(size)
	if err != nil {
		return err
	}
	s.objects = append(s.objects, &textObject{
		lines: strings.Split(text, "\n"),
		at:    Point{X: x, Y: y},
		face:  face,
	})
	return nil
}

// AddImage places img with its top left corner at x, y. At render time it is
// scaled down to fit the surface size in effect then, never up.
func (s *Surface) AddImage(img image.Image, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects = append(s.objects, &imageObject{img: img, at: Point{X: x, Y: y}})
}

// Stroke draws a freehand black line through points
func (s *Surface) Stroke(points []Point, width float64) {
	if len(points) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pts := make([]Point, len(points))
	copy(pts, points)
	s.objects = append(s.objects, &strokeObject{points: pts, width: math.Max(width, 1)})
}

// Render draws the surface onto a new white image
func (s *Surface) Render() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.width == 0 || s.height == 0 {
		return nil, ErrSurfaceNotSized
	}

	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	for _, obj := range s.objects {
		obj.draw(dst)
	}
	return dst, nil
}

// ToBlob renders the surface and encodes it as PNG
func (s *Surface) ToBlob(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := s.Render()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode label: %w", err)
	}
	return buf.Bytes(), nil
}

// face returns a cached face of the given size; callers hold s.mu
func (s *Surface) face(size float64) (font.Face, error) {
	if f, ok := s.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	s.faces[size] = f
	return f, nil
}

type textObject struct {
	lines []string
	at    Point
	face  font.Face
}

func (o *textObject) draw(dst *image.RGBA) {
	metrics := o.face.Metrics()
	lineHeight := metrics.Height
	dot := fixed.Point26_6{
		X: fixed.Int26_6(o.at.X * 64),
		Y: fixed.Int26_6(o.at.Y*64) + metrics.Ascent,
	}
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: o.face}
	for _, line := range o.lines {
		d.Dot = dot
		d.DrawString(line)
		dot.Y += lineHeight
	}
}

type imageObject struct {
	img image.Image
	at  Point
}

func (o *imageObject) draw(dst *image.RGBA) {
	b := o.img.Bounds()
	if b.Empty() {
		return
	}
	size := dst.Bounds()
	scale := math.Min(1, math.Min(float64(size.Dx())/float64(b.Dx()), float64(size.Dy())/float64(b.Dy())))
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	x, y := int(math.Round(o.at.X)), int(math.Round(o.at.Y))
	xdraw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), o.img, b, xdraw.Over, nil)
}

type strokeObject struct {
	points []Point
	width  float64
}

func (o *strokeObject) draw(dst *image.RGBA) {
	r := o.width / 2
	dab(dst, o.points[0], r)
	for i := 1; i < len(o.points); i++ {
		a, b := o.points[i-1], o.points[i]
		dist := math.Hypot(b.X-a.X, b.Y-a.Y)
		steps := int(math.Ceil(dist))
		for step := 1; step <= steps; step++ {
			t := float64(step) / float64(steps)
			dab(dst, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}, r)
		}
	}
}

// dab paints a filled black disc of radius r centred on p
func dab(dst *image.RGBA, p Point, r float64) {
	bounds := dst.Bounds()
	minX, maxX := int(math.Floor(p.X-r)), int(math.Ceil(p.X+r))
	minY, maxY := int(math.Floor(p.Y-r)), int(math.Ceil(p.Y+r))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !image.Pt(x, y).In(bounds) {
				continue
			}
			dx, dy := float64(x)+0.5-p.X, float64(y)+0.5-p.Y
			if dx*dx+dy*dy <= r*r {
				dst.SetRGBA(x, y, color.RGBA{A: 0xff})
			}
		}
	}
}
