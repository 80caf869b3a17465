package surface

import "image/color"

// OpKind identifies a recorded drawing call.
type OpKind int

const (
	OpStroke OpKind = iota
	OpFillRect
	OpFillText
	OpClear
)

// Point is a path vertex.
type Point struct {
	X, Y float64
}

// Op is one recorded drawing call.
type Op struct {
	Kind  OpKind
	Color color.Color
	Width float64 // stroke width
	Path  [][]Point
	X, Y  float64
	W, H  float64
	Text  string
	Font  Font
}

// Recorder is a Surface that records every call instead of drawing. It is
// meant for inspecting geometry.
type Recorder struct {
	width, height int
	resizes       int
	path          [][]Point
	ops           []Op
}

// NewRecorder returns an empty Recorder of the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Size() (int, int) { return r.width, r.height }

func (r *Recorder) Resize(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.resizes++
}

// Resizes reports how many size changes were applied.
func (r *Recorder) Resizes() int { return r.resizes }

func (r *Recorder) BeginPath() { r.path = nil }

func (r *Recorder) MoveTo(x, y float64) {
	r.path = append(r.path, []Point{{x, y}})
}

func (r *Recorder) LineTo(x, y float64) {
	if len(r.path) == 0 {
		r.MoveTo(x, y)
		return
	}
	last := len(r.path) - 1
	r.path[last] = append(r.path[last], Point{x, y})
}

func (r *Recorder) Stroke(c color.Color, width float64) {
	path := make([][]Point, len(r.path))
	for i, sub := range r.path {
		path[i] = append([]Point(nil), sub...)
	}
	r.ops = append(r.ops, Op{Kind: OpStroke, Color: c, Width: width, Path: path})
}

func (r *Recorder) FillRect(x, y, w, h float64, c color.Color) {
	r.ops = append(r.ops, Op{Kind: OpFillRect, Color: c, X: x, Y: y, W: w, H: h})
}

func (r *Recorder) FillText(text string, x, y float64, f Font, c color.Color) {
	r.ops = append(r.ops, Op{Kind: OpFillText, Color: c, X: x, Y: y, Text: text, Font: f})
}

func (r *Recorder) Clear(c color.Color) {
	r.ops = append(r.ops, Op{Kind: OpClear, Color: c})
}

// Ops returns the recorded calls.
func (r *Recorder) Ops() []Op { return r.ops }

// Reset forgets recorded calls.
func (r *Recorder) Reset() { r.ops = nil }

// Filter returns the recorded calls of one kind.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}
