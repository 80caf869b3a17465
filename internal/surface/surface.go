// Package surface defines the 2D drawing contract used by the renderer and
// provides a software raster and a recording implementation of it.
package surface

import "image/color"

// Font describes the text style for FillText.
type Font struct {
	Size   float64
	Family string
}

// Surface is a canvas-like 2D drawing target. Coordinates are in pixels
// with the origin at the top-left corner; text y is the baseline.
type Surface interface {
	Size() (width, height int)
	Resize(width, height int)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke(c color.Color, width float64)

	FillRect(x, y, w, h float64, c color.Color)
	FillText(text string, x, y float64, font Font, c color.Color)
	Clear(c color.Color)
}

// RGBA is a shorthand for a non-premultiplied colour with a float alpha in
// [0, 1], the way CSS rgba() values are written.
func RGBA(r, g, b uint8, alpha float64) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}
