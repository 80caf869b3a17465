package display

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guidoenr/brainwave/internal/surface"
)

func TestStatusBar(t *testing.T) {
	if got := statusBar("abc", 5); got != "abc  " {
		t.Fatalf("pad=%q", got)
	}
	if got := statusBar("abcdef", 4); got != "abcd" {
		t.Fatalf("cut=%q", got)
	}
	if got := statusBar("αβγ", 2); got != "αβ" {
		t.Fatalf("runes=%q", got)
	}
}

func TestRGBToANSI(t *testing.T) {
	cases := map[[3]uint8]int{
		{0, 0, 0}:       16,
		{255, 0, 0}:     196,
		{0, 255, 255}:   51,
		{255, 255, 255}: 255,
		{128, 128, 128}: 244,
	}
	for in, want := range cases {
		if got := rgbToANSI(in[0], in[1], in[2]); got != want {
			t.Fatalf("rgbToANSI(%v)=%d want=%d", in, got, want)
		}
	}
}

func TestCellsTextLayer(t *testing.T) {
	c := NewCells(20, 4)
	if w, h := c.Size(); w != 160 || h != 64 {
		t.Fatalf("pixel size=%dx%d", w, h)
	}
	c.FillText("Alpha: 1", 10, 30, surface.Font{Size: 20}, color.White)
	c.FillText("Beta", 10, 60, surface.Font{}, color.White)
	c.FillText("clipped text", 140, 30, surface.Font{}, color.White)
	c.FillText("gone", 0, 500, surface.Font{}, color.White)

	if row := c.Text(1); !strings.HasPrefix(row, " Alpha: 1") {
		t.Fatalf("row 1=%q", row)
	}
	if row := c.Text(3); !strings.HasPrefix(row, " Beta") {
		t.Fatalf("row 3=%q", row)
	}
	if row := c.Text(1); !strings.HasSuffix(row, "  cli") {
		t.Fatalf("clipping row 1=%q", row)
	}

	c.Resize(160, 64)
	if c.Text(1) == strings.Repeat(" ", 20) {
		t.Fatalf("same-size resize dropped text")
	}
	c.Resize(100, 40)
	if cols, rows := c.Grid(); cols != 12 || rows != 2 {
		t.Fatalf("grid=%dx%d want 12x2", cols, rows)
	}
}

func TestCellsRenderHalfBlocks(t *testing.T) {
	c := NewCells(2, 1)
	c.Clear(color.Black)
	// top half of the first cell red, bottom half blue
	c.FillRect(0, 0, 8, 8, color.RGBA{255, 0, 0, 255})
	c.FillRect(0, 8, 8, 8, color.RGBA{0, 0, 255, 255})

	var buf bytes.Buffer
	c.render(&buf, true, nil)
	out := buf.String()
	if !strings.Contains(out, fgANSI[196]+bgANSI[21]+"▀") {
		t.Fatalf("missing red-over-blue cell in %q", out)
	}
	if strings.Count(out, "▀") != 2 {
		t.Fatalf("expected 2 cells in %q", out)
	}

	buf.Reset()
	c.render(&buf, false, Palette("default"))
	// red reads brighter than blue and picks ':' from the ramp
	if got := buf.String(); !strings.HasSuffix(got, ": ") {
		t.Fatalf("unexpected glyph row %q", got)
	}
}

func TestCellsRenderMono(t *testing.T) {
	c := NewCells(3, 1)
	c.Clear(color.Black)
	c.FillRect(0, 0, 8, 16, color.White)
	c.FillText("x", 16, 10, surface.Font{}, color.White)

	var buf bytes.Buffer
	c.render(&buf, false, []rune(" .#"))
	if got := buf.String(); !strings.HasSuffix(got, "# x") {
		t.Fatalf("mono row=%q", got)
	}
}

func TestTerminalPresent(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(TerminalConfig{
		Out:       &out,
		Cols:      10,
		Rows:      3,
		Color:     true,
		StatusBar: true,
		Size:      func() (int, int, error) { return 30, 6, nil },
	})
	if cols, rows := term.Cells().Grid(); cols != 10 || rows != 2 {
		t.Fatalf("grid=%dx%d want 10x2", cols, rows)
	}
	if err := term.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	term.Surface().FillText("hi", 0, 10, surface.Font{}, color.White)
	if err := term.Present("status line"); err != nil {
		t.Fatalf("present: %v", err)
	}
	s := out.String()
	if !strings.HasPrefix(s, enterAltANSI) {
		t.Fatalf("open did not enter alt screen")
	}
	if !strings.Contains(s, "\x1b[3;1H"+resetANSI+"status lin") {
		t.Fatalf("status bar missing in %q", s)
	}
	if !strings.Contains(s, "h") {
		t.Fatalf("text missing")
	}
	if term.Cells().Text(0) != strings.Repeat(" ", 10) {
		t.Fatalf("text layer not cleared after present")
	}

	w, h, ok := term.HostSize()
	if !ok || w != 30*CellWidth || h != 5*CellHeight {
		t.Fatalf("host size=%dx%d ok=%v", w, h, ok)
	}

	out.Reset()
	if err := term.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(out.String(), showCursorANSI) {
		t.Fatalf("close did not restore cursor")
	}
	out.Reset()
	_ = term.Close()
	if out.Len() != 0 {
		t.Fatalf("second close wrote %q", out.String())
	}
}

func TestTerminalHostSizeUnknown(t *testing.T) {
	term := NewTerminal(TerminalConfig{
		Out:  &bytes.Buffer{},
		Size: func() (int, int, error) { return 0, 0, errors.New("not a terminal") },
	})
	if _, _, ok := term.HostSize(); ok {
		t.Fatalf("expected unknown host size")
	}
}

func TestHeadlessWritesFramesAndStops(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	h, err := NewHeadless(HeadlessConfig{Width: 16, Height: 8, Dir: dir, Every: 2, Frames: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	h.Surface().Clear(color.White)
	for i := 0; i < 2; i++ {
		if err := h.Present(""); err != nil {
			t.Fatalf("present %d: %v", i, err)
		}
	}
	if err := h.Present(""); !errors.Is(err, ErrClosed) {
		t.Fatalf("third present: expected ErrClosed, got %v", err)
	}
	if err := h.Present(""); !errors.Is(err, ErrClosed) {
		t.Fatalf("after budget: expected ErrClosed, got %v", err)
	}
	n, last := h.Written()
	if n != 2 || filepath.Base(last) != "frame-00003.png" {
		t.Fatalf("written=%d last=%s", n, last)
	}
	f, err := os.Open(filepath.Join(dir, "frame-00001.png"))
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("bounds=%v", b)
	}
	if _, err := NewHeadless(HeadlessConfig{}); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
