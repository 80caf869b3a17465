package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/guidoenr/brainwave/internal/params"
	"github.com/guidoenr/brainwave/internal/source"
	"github.com/guidoenr/brainwave/internal/surface"
)

var (
	alphaColor      = surface.RGBA(0, 255, 255, 0.8)
	betaColor       = surface.RGBA(255, 0, 0, 0.8)
	gammaColor      = surface.RGBA(255, 0, 255, 0.8)
	excitementColor = surface.RGBA(255, 255, 0, 0.8)
	relaxationColor = surface.RGBA(0, 255, 0, 0.8)
	stressColor     = surface.RGBA(255, 140, 0, 0.8)
	focusColor      = surface.RGBA(0, 200, 255, 0.8)
	barColor        = surface.RGBA(255, 255, 255, 0.8)
	trackColor      = surface.RGBA(255, 255, 255, 0.15)
)

// Snapshot is the externally observable state after a frame.
type Snapshot struct {
	Mode           string         `json:"mode"`
	Frame          uint64         `json:"frame"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Phase          float64        `json:"phase"`
	Bands          source.Bands   `json:"bands"`
	Metrics        source.Metrics `json:"metrics"`
	SpectrumLength int            `json:"spectrumLength"`
	ElementCount   int            `json:"elementCount"`
}

// Renderer draws the visual scene onto a surface. It is not safe for
// concurrent use; a Loop owns it while mounted.
type Renderer struct {
	surface surface.Surface
	source  source.Source
	params  params.Parameters

	mode     modeFunc
	modeName string

	width  int
	height int

	phase       float64
	rotation    float64
	bands       source.Bands
	metrics     source.Metrics
	spectrumLen int
	frames      uint64

	font       surface.Font
	background color.NRGBA
}

// frame carries the geometry and data of one DrawFrame call.
type frame struct {
	w, h     float64
	spectrum []float64
}

// New creates a Renderer drawing on s with data from src.
func New(s surface.Surface, src source.Source, p params.Parameters) (*Renderer, error) {
	if s == nil {
		return nil, fmt.Errorf("render: nil surface")
	}
	if src == nil {
		return nil, fmt.Errorf("render: nil source")
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", w, h)
	}
	r := &Renderer{
		surface: s,
		source:  src,
		width:   w,
		height:  h,
	}
	if err := r.Configure(p); err != nil {
		return nil, err
	}
	return r, nil
}

// Configure replaces the visual parameters. Animation state is kept.
func (r *Renderer) Configure(p params.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.params = p
	r.SetMode(p.Mode)
	r.font = surface.Font{Size: p.FontSize, Family: "sans-serif"}
	r.background = color.NRGBA{R: p.Background[0], G: p.Background[1], B: p.Background[2], A: 255}
	return nil
}

// Params returns the active parameters.
func (r *Renderer) Params() params.Parameters { return r.params }

// SetMode switches the presentation mode, falling back to linear for
// unknown names. It returns the mode in effect.
func (r *Renderer) SetMode(name string) string {
	key, fn := lookupMode(name)
	r.mode = fn
	r.modeName = key
	r.params.Mode = key
	return key
}

func (r *Renderer) ModeName() string { return r.modeName }
func (r *Renderer) Phase() float64   { return r.phase }

// Size returns the dimensions the next frame will be drawn with.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Resize updates the surface dimensions. It reports whether anything
// changed; non-positive sizes are ignored.
func (r *Renderer) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if width == r.width && height == r.height {
		return false
	}
	r.width = width
	r.height = height
	r.surface.Resize(width, height)
	return true
}

// RefreshBands replaces the current bands with fresh values from the source.
func (r *Renderer) RefreshBands() {
	r.bands = r.source.RefreshBands()
	r.metrics = source.Derive(r.bands)
}

// DrawFrame renders one frame and returns the resulting snapshot.
func (r *Renderer) DrawFrame() Snapshot {
	f := frame{w: float64(r.width), h: float64(r.height)}

	trail := r.background
	trail.A = uint8(r.params.TrailAlpha*255 + 0.5)
	if r.params.TrailAlpha >= 1 {
		r.surface.Clear(r.background)
	} else {
		r.surface.FillRect(0, 0, f.w, f.h, trail)
	}

	r.phase += r.params.PhaseStep

	f.spectrum = r.source.NextSpectrum(r.params.ElementCount)
	r.spectrumLen = len(f.spectrum)

	r.mode(r, f)
	r.frames++
	return r.Snapshot()
}

// Snapshot reports the current observable state.
func (r *Renderer) Snapshot() Snapshot {
	return Snapshot{
		Mode:           r.modeName,
		Frame:          r.frames,
		Width:          r.width,
		Height:         r.height,
		Phase:          r.phase,
		Bands:          r.bands,
		Metrics:        r.metrics,
		SpectrumLength: r.spectrumLen,
		ElementCount:   r.params.ElementCount,
	}
}

// drawWave strokes baseline + amplitude*sin((x+offset)*frequency) across
// every pixel column.
func (r *Renderer) drawWave(baseline, amplitude float64, c color.Color, offset float64) {
	freq := r.params.WaveFrequency
	s := r.surface
	s.BeginPath()
	s.MoveTo(0, baseline)
	for x := 0; x < r.width; x++ {
		fx := float64(x)
		s.LineTo(fx, baseline+math.Sin((fx+offset)*freq)*amplitude)
	}
	s.Stroke(c, r.params.LineWidth)
}

// drawBars draws the spectrum as bottom-anchored bars.
func (r *Renderer) drawBars(f frame) {
	n := len(f.spectrum)
	if n == 0 {
		return
	}
	barWidth := f.w / float64(n) * r.params.BarWidthFactor
	for i, v := range f.spectrum {
		barHeight := v / source.SpectrumMax * f.h * r.params.BarHeightRatio
		r.surface.FillRect(float64(i)*barWidth, f.h-barHeight, barWidth-1, barHeight, barColor)
	}
}

type overlayLine struct {
	label string
	value float64
	prec  int
	color color.Color
}

// drawOverlay writes lines top-down starting at x.
func (r *Renderer) drawOverlay(x float64, lines []overlayLine) {
	if !r.params.ShowOverlays {
		return
	}
	for i, line := range lines {
		text := line.label + ": " + strconv.FormatFloat(line.value, 'f', line.prec, 64)
		y := r.params.LineSpacing * float64(i+1)
		r.surface.FillText(text, x, y, r.font, line.color)
	}
}
