package display

import (
	"math"
	"strconv"
)

const (
	resetANSI      = "\x1b[0m"
	homeANSI       = "\x1b[H"
	clearANSI      = "\x1b[2J"
	hideCursorANSI = "\x1b[?25l"
	showCursorANSI = "\x1b[?25h"
	enterAltANSI   = "\x1b[?1049h"
	exitAltANSI    = "\x1b[?1049l"
)

var (
	fgANSI [256]string
	bgANSI [256]string
)

func init() {
	for i := range fgANSI {
		fgANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
		bgANSI[i] = "\x1b[48;5;" + strconv.Itoa(i) + "m"
	}
}

// rgbToANSI maps 8-bit RGB onto the xterm 256-colour cube or grey ramp.
func rgbToANSI(r, g, b uint8) int {
	if r == 0 && g == 0 && b == 0 {
		return 16
	}
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	if math.Abs(rf-gf) < 0.02 && math.Abs(gf-bf) < 0.02 {
		gray := int(clampFloat(math.Round(rf*23), 0, 23))
		return 232 + gray
	}
	ri := int(clampFloat(rf*5+0.5, 0, 5))
	gi := int(clampFloat(gf*5+0.5, 0, 5))
	bi := int(clampFloat(bf*5+0.5, 0, 5))
	return 16 + 36*ri + 6*gi + bi
}

var (
	defaultPalette = []rune(" .,:-;+=*%#@")
	boxPalette     = []rune(" ░▒▓█")
	linesPalette   = []rune(" `.-=+*/\\|")
	sparkPalette   = []rune(" ´`^\"~:;*+×•¤°oO@#█")
)

// Palette returns the glyph ramp used when colour is off, darkest first.
func Palette(name string) []rune {
	switch name {
	case "box":
		return boxPalette
	case "lines":
		return linesPalette
	case "spark":
		return sparkPalette
	default:
		return defaultPalette
	}
}

// PaletteNames returns all palette identifiers.
func PaletteNames() []string {
	return []string{"box", "default", "lines", "spark"}
}

// statusBar pads or cuts text to exactly width runes.
func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) >= width {
		return string(runes[:width])
	}
	out := make([]rune, width)
	copy(out, runes)
	for i := len(runes); i < width; i++ {
		out[i] = ' '
	}
	return string(out)
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
