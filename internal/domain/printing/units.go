package printing

import "math"

// MillimetersPerInch is the length of one inch in millimeters
const MillimetersPerInch = 25.4

// ToPixels converts a physical length in millimeters to device pixels at the
// given resolution. It is the single conversion used for every width and
// height in the system, so what is drawn matches what is printed.
// Invalid inputs are not rejected; NaN propagates to the caller.
func ToPixels(lengthMm, dpi float64) float64 {
	return (lengthMm / MillimetersPerInch) * dpi
}

// RoundHalfUp rounds a pixel length to the nearest integer, halves away
// from zero for positive values. Used only where a surface needs integers.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// PixelSize is a surface size in device pixels. Values are kept unrounded.
type PixelSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ints returns the size rounded half-up to whole pixels
func (p PixelSize) Ints() (width, height int) {
	return RoundHalfUp(p.Width), RoundHalfUp(p.Height)
}

// IsZero returns true if both dimensions are zero
func (p PixelSize) IsZero() bool {
	return p.Width == 0 && p.Height == 0
}
