package display

import (
	"bytes"
	"image/color"
	"strconv"

	"github.com/guidoenr/brainwave/internal/surface"
)

// Virtual pixels per terminal cell. Each cell shows two of these pixel
// blocks stacked, as the upper and lower half of a block glyph.
const (
	CellWidth  = 8
	CellHeight = 16
)

type glyph struct {
	r rune
	c color.NRGBA
}

// Cells is a raster sized to a character grid. Strokes and fills land on
// the pixels; text is kept as characters so it stays readable.
type Cells struct {
	*surface.Raster
	cols, rows int
	text       []glyph
}

// NewCells returns a surface for a cols x rows terminal.
func NewCells(cols, rows int) *Cells {
	c := &Cells{Raster: surface.NewRaster(1, 1)}
	c.Resize(cols*CellWidth, rows*CellHeight)
	return c
}

// Grid returns the character grid size.
func (c *Cells) Grid() (cols, rows int) { return c.cols, c.rows }

// Resize rounds the pixel size down to whole cells.
func (c *Cells) Resize(width, height int) {
	cols := max(1, width/CellWidth)
	rows := max(1, height/CellHeight)
	if cols == c.cols && rows == c.rows {
		return
	}
	c.cols, c.rows = cols, rows
	c.Raster.Resize(cols*CellWidth, rows*CellHeight)
	c.text = make([]glyph, cols*rows)
}

// FillText places text in the cell row holding the baseline.
func (c *Cells) FillText(text string, x, y float64, _ surface.Font, col color.Color) {
	row := int((y - 1) / CellHeight)
	if y < 1 || row >= c.rows {
		return
	}
	nc := color.NRGBAModel.Convert(col).(color.NRGBA)
	start := int(x / CellWidth)
	i := 0
	for _, r := range text {
		cx := start + i
		i++
		if cx < 0 {
			continue
		}
		if cx >= c.cols {
			break
		}
		c.text[row*c.cols+cx] = glyph{r: r, c: nc}
	}
}

// Text returns the characters of one row, spaces where there is none.
func (c *Cells) Text(row int) string {
	if row < 0 || row >= c.rows {
		return ""
	}
	out := make([]rune, c.cols)
	for i, g := range c.text[row*c.cols : (row+1)*c.cols] {
		out[i] = ' '
		if g.r != 0 {
			out[i] = g.r
		}
	}
	return string(out)
}

func (c *Cells) clearText() {
	for i := range c.text {
		c.text[i] = glyph{}
	}
}

// brightest returns the brightest pixel of a CellWidth x CellHeight/2 block.
func (c *Cells) brightest(col, half, row int) color.RGBA {
	img := c.Image()
	x0 := col * CellWidth
	y0 := row*CellHeight + half*CellHeight/2
	var best color.RGBA
	bestLuma := -1
	for y := y0; y < y0+CellHeight/2; y++ {
		off := img.PixOffset(x0, y)
		for x := 0; x < CellWidth; x++ {
			i := off + x*4
			r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			luma := 2*int(r) + 3*int(g) + int(b)
			if luma > bestLuma {
				bestLuma = luma
				best = color.RGBA{r, g, b, 255}
			}
		}
	}
	return best
}

// render writes the grid as positioned ANSI rows. With colour each cell is
// an upper half block; without it brightness picks a glyph from palette.
func (c *Cells) render(buf *bytes.Buffer, useColor bool, palette []rune) {
	for row := 0; row < c.rows; row++ {
		buf.WriteString("\x1b[")
		buf.WriteString(strconv.Itoa(row + 1))
		buf.WriteString(";1H")
		lastFg, lastBg := -1, -1
		for col := 0; col < c.cols; col++ {
			top := c.brightest(col, 0, row)
			bottom := c.brightest(col, 1, row)
			g := c.text[row*c.cols+col]

			if !useColor {
				if g.r != 0 {
					buf.WriteRune(g.r)
					continue
				}
				buf.WriteRune(shade(palette, top, bottom))
				continue
			}

			fg := rgbToANSI(top.R, top.G, top.B)
			bg := rgbToANSI(bottom.R, bottom.G, bottom.B)
			r := '▀'
			if g.r != 0 {
				fg = rgbToANSI(g.c.R, g.c.G, g.c.B)
				bg = rgbToANSI(top.R/2+bottom.R/2, top.G/2+bottom.G/2, top.B/2+bottom.B/2)
				r = g.r
			}
			if fg != lastFg {
				buf.WriteString(fgANSI[fg])
				lastFg = fg
			}
			if bg != lastBg {
				buf.WriteString(bgANSI[bg])
				lastBg = bg
			}
			buf.WriteRune(r)
		}
		if useColor {
			buf.WriteString(resetANSI)
		}
	}
}

func shade(palette []rune, top, bottom color.RGBA) rune {
	if len(palette) == 0 {
		return ' '
	}
	luma := func(p color.RGBA) float64 {
		return (0.299*float64(p.R) + 0.587*float64(p.G) + 0.114*float64(p.B)) / 255
	}
	v := max(luma(top), luma(bottom))
	idx := int(clampFloat(v*float64(len(palette)-1)+0.5, 0, float64(len(palette)-1)))
	return palette[idx]
}
