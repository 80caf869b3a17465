package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

type point struct {
	x, y float64
}

// Raster is a Surface backed by an in-memory RGBA image. Strokes are
// rasterised with anti-aliasing; rectangles and text are composited over
// the existing pixels, so translucent fills leave trails behind.
type Raster struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	path [][]point
}

// NewRaster allocates a width x height raster cleared to transparent black.
func NewRaster(width, height int) *Raster {
	r := &Raster{}
	r.allocate(width, height)
	return r
}

func (r *Raster) allocate(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	r.z = vector.NewRasterizer(width, height)
	r.path = r.path[:0]
}

// Size implements Surface.
func (r *Raster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize implements Surface. Like an HTML canvas, a size change discards
// the current pixels; resizing to the current size keeps them.
func (r *Raster) Resize(width, height int) {
	w, h := r.Size()
	if width == w && height == h {
		return
	}
	r.allocate(width, height)
}

// Image exposes the backing image. It is reused across frames.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// Snapshot returns a copy of the current pixels.
func (r *Raster) Snapshot() *image.RGBA {
	cp := image.NewRGBA(r.img.Bounds())
	copy(cp.Pix, r.img.Pix)
	return cp
}

// BeginPath implements Surface.
func (r *Raster) BeginPath() {
	r.path = r.path[:0]
}

// MoveTo implements Surface.
func (r *Raster) MoveTo(x, y float64) {
	r.path = append(r.path, []point{{x, y}})
}

// LineTo implements Surface.
func (r *Raster) LineTo(x, y float64) {
	if len(r.path) == 0 {
		r.MoveTo(x, y)
		return
	}
	last := len(r.path) - 1
	r.path[last] = append(r.path[last], point{x, y})
}

// Stroke implements Surface.
func (r *Raster) Stroke(c color.Color, width float64) {
	half := width / 2
	if half < 0.5 {
		half = 0.5
	}
	w, h := r.Size()
	fw, fh := float64(w), float64(h)
	r.z.Reset(w, h)

	drew := false
	for _, sub := range r.path {
		for i := 1; i < len(sub); i++ {
			a, b, ok := clipSegment(sub[i-1], sub[i], -half, -half, fw+half, fh+half)
			if !ok {
				continue
			}
			dx, dy := b.x-a.x, b.y-a.y
			length := math.Hypot(dx, dy)
			if length == 0 {
				continue
			}
			nx, ny := -dy/length*half, dx/length*half
			r.quad(
				point{a.x + nx, a.y + ny},
				point{b.x + nx, b.y + ny},
				point{b.x - nx, b.y - ny},
				point{a.x - nx, a.y - ny},
				fw, fh,
			)
			drew = true
		}
	}
	if drew {
		r.z.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{})
	}
}

func (r *Raster) quad(p0, p1, p2, p3 point, w, h float64) {
	r.z.MoveTo(clampPoint(p0, w, h))
	r.z.LineTo(clampPoint(p1, w, h))
	r.z.LineTo(clampPoint(p2, w, h))
	r.z.LineTo(clampPoint(p3, w, h))
	r.z.ClosePath()
}

// FillRect implements Surface.
func (r *Raster) FillRect(x, y, w, h float64, c color.Color) {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	rect := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	).Intersect(r.img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// FillText implements Surface.
func (r *Raster) FillText(text string, x, y float64, f Font, c color.Color) {
	d := font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: faceFor(f),
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(text)
}

// Clear implements Surface.
func (r *Raster) Clear(c color.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func faceFor(f Font) font.Face {
	if f.Size >= 16 {
		return inconsolata.Regular8x16
	}
	return basicfont.Face7x13
}

func clampPoint(p point, w, h float64) (float32, float32) {
	return float32(clampFloat(p.x, 0, w)), float32(clampFloat(p.y, 0, h))
}

func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clipSegment clips a-b to the given box (Liang-Barsky).
func clipSegment(a, b point, minX, minY, maxX, maxY float64) (point, point, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := b.x-a.x, b.y-a.y
	edges := [4][2]float64{
		{-dx, a.x - minX},
		{dx, maxX - a.x},
		{-dy, a.y - minY},
		{dy, maxY - a.y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return a, b, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return point{a.x + t0*dx, a.y + t0*dy}, point{a.x + t1*dx, a.y + t1*dy}, true
}
