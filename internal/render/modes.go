package render

import (
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/guidoenr/brainwave/internal/source"
)

type modeFunc func(r *Renderer, f frame)

var modeRegistry = map[string]modeFunc{
	"linear": drawLinear,
	"radial": drawRadial,
}

const defaultMode = "linear"

// ModeNames returns the available mode identifiers.
func ModeNames() []string {
	names := make([]string, 0, len(modeRegistry))
	for name := range modeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextMode returns the mode following current in ModeNames order.
func NextMode(current string) string {
	names := ModeNames()
	for i, name := range names {
		if strings.EqualFold(name, current) {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func lookupMode(name string) (string, modeFunc) {
	key := strings.ToLower(name)
	switch key {
	case "bars", "dual", "wave":
		key = "linear"
	case "circle", "circular":
		key = "radial"
	}
	if fn, ok := modeRegistry[key]; ok {
		return key, fn
	}
	return defaultMode, modeRegistry[defaultMode]
}

// drawLinear is the dual-wave layout: two counter-moving waves driven by
// alpha and beta, bottom bars and corner read-outs.
func drawLinear(r *Renderer, f frame) {
	p := r.params
	base := f.h / 2
	r.drawWave(base, r.bands.Alpha, alphaColor, r.phase)
	r.drawWave(base+p.WaveSpacing, r.bands.Beta, betaColor, -r.phase)

	r.drawBars(f)

	r.drawOverlay(p.TextInset, []overlayLine{
		{"Alpha", r.bands.Alpha, 2, alphaColor},
		{"Beta", r.bands.Beta, 2, betaColor},
	})
	r.drawOverlay(f.w-p.RightColumn, []overlayLine{
		{"Excitement", r.metrics.Excitement, 0, excitementColor},
		{"Relaxation", r.metrics.Relaxation, 0, relaxationColor},
	})
}

// drawRadial emits the spectrum from the centre with per-index hue and
// shows stress and focus as progress bars.
func drawRadial(r *Renderer, f frame) {
	p := r.params
	base := f.h / 2
	r.drawWave(base, p.RadialWaveAmplitude, alphaColor, r.phase)
	r.drawWave(base+p.WaveSpacing, p.RadialWaveAmplitude, betaColor, -r.phase)

	r.rotation += p.RotationStep
	n := len(f.spectrum)
	if n > 0 {
		cx, cy := f.w/2, f.h/2
		extent := math.Min(f.w, f.h)
		inner := extent * p.RadialInnerRatio
		maxLen := extent * p.RadialLengthRatio
		width := math.Max(1, 2*math.Pi*inner/float64(n)*0.6)
		for i, v := range f.spectrum {
			t := float64(i) / float64(n)
			angle := t*2*math.Pi + r.rotation
			sin, cos := math.Sincos(angle)
			length := v / source.SpectrumMax * maxLen
			r.surface.BeginPath()
			r.surface.MoveTo(cx+cos*inner, cy+sin*inner)
			r.surface.LineTo(cx+cos*(inner+length), cy+sin*(inner+length))
			r.surface.Stroke(hueColor(t, 0.85), width)
		}
	}

	r.drawProgress(f, 0, r.metrics.Stress, stressColor)
	r.drawProgress(f, 1, r.metrics.Focus, focusColor)

	r.drawOverlay(p.TextInset, []overlayLine{
		{"Alpha", r.bands.Alpha, 2, alphaColor},
		{"Beta", r.bands.Beta, 2, betaColor},
		{"Gamma", r.bands.Gamma, 2, gammaColor},
	})
	r.drawOverlay(f.w-p.RightColumn, []overlayLine{
		{"Stress", r.metrics.Stress, 0, stressColor},
		{"Focus", r.metrics.Focus, 0, focusColor},
	})
}

const (
	progressHeight = 10
	progressGap    = 8
)

// drawProgress draws a bottom-left bar filled to value/BandMax. slot 0 is
// the lowest bar.
func (r *Renderer) drawProgress(f frame, slot int, value float64, c color.Color) {
	inset := r.params.TextInset
	trackW := math.Max(0, math.Min(f.w-2*inset, f.w*0.3))
	if trackW == 0 {
		return
	}
	y := f.h - inset - progressHeight - float64(slot)*(progressHeight+progressGap)
	r.surface.FillRect(inset, y, trackW, progressHeight, trackColor)
	fill := clampFloat(value/source.BandMax, 0, 1) * trackW
	if fill > 0 {
		r.surface.FillRect(inset, y, fill, progressHeight, c)
	}
}
