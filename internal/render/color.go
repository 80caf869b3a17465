package render

import (
	"image/color"
	"math"

	"github.com/guidoenr/brainwave/internal/surface"
)

// hueColor maps t in [0,1) around the colour wheel at full saturation.
func hueColor(t, alpha float64) color.NRGBA {
	r, g, b := hsvToRGB(t-math.Floor(t), 1, 1)
	return surface.RGBA(uint8(r*255+0.5), uint8(g*255+0.5), uint8(b*255+0.5), alpha)
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = clamp01(h)
	s = clamp01(s)
	v = clamp01(v)

	if s == 0 {
		return v, v, v
	}

	hv := h * 6.0
	i := math.Floor(hv)
	f := hv - i
	p := v * (1.0 - s)
	q := v * (1.0 - s*f)
	t := v * (1.0 - s*(1.0-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
