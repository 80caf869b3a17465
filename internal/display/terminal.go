package display

import (
	"bytes"
	"image"
	"io"
	"os"
	"strconv"

	"github.com/guidoenr/brainwave/internal/surface"
	"golang.org/x/term"
)

// TerminalConfig controls a Terminal presenter.
type TerminalConfig struct {
	Out        io.Writer
	Cols, Rows int
	// Color selects 256-colour half blocks; otherwise glyphs from Palette.
	Color     bool
	Palette   string
	StatusBar bool
	// Size reports the terminal size in characters. Defaults to stdout.
	Size func() (cols, rows int, err error)
}

// Terminal draws frames into a text terminal using ANSI escapes.
type Terminal struct {
	cfg     TerminalConfig
	cells   *Cells
	palette []rune
	buf     bytes.Buffer
	opened  bool
}

// NewTerminal sizes the drawing grid to the terminal, less the status row.
func NewTerminal(cfg TerminalConfig) *Terminal {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Size == nil {
		cfg.Size = stdoutSize
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 80
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 24
	}
	rows := cfg.Rows
	if cfg.StatusBar && rows > 1 {
		rows--
	}
	return &Terminal{
		cfg:     cfg,
		cells:   NewCells(cfg.Cols, rows),
		palette: Palette(cfg.Palette),
	}
}

func stdoutSize() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

func (t *Terminal) Surface() surface.Surface { return t.cells }

// Cells exposes the grid surface.
func (t *Terminal) Cells() *Cells { return t.cells }

func (t *Terminal) Snapshot() *image.RGBA { return t.cells.Snapshot() }

// Open switches to the alternate screen and hides the cursor.
func (t *Terminal) Open() error {
	if t.opened {
		return nil
	}
	t.opened = true
	_, err := io.WriteString(t.cfg.Out, enterAltANSI+clearANSI+homeANSI+hideCursorANSI)
	return err
}

func (t *Terminal) Present(status string) error {
	t.buf.Reset()
	t.buf.WriteString(homeANSI)
	t.cells.render(&t.buf, t.cfg.Color, t.palette)
	if t.cfg.StatusBar {
		cols, rows := t.cells.Grid()
		t.buf.WriteString("\x1b[")
		t.buf.WriteString(strconv.Itoa(rows + 1))
		t.buf.WriteString(";1H")
		t.buf.WriteString(resetANSI)
		t.buf.WriteString(statusBar(status, cols))
	}
	t.cells.clearText()
	_, err := t.cfg.Out.Write(t.buf.Bytes())
	return err
}

// HostSize returns the pixel size matching the current terminal.
func (t *Terminal) HostSize() (int, int, bool) {
	cols, rows, err := t.cfg.Size()
	if err != nil || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	if t.cfg.StatusBar && rows > 1 {
		rows--
	}
	return cols * CellWidth, rows * CellHeight, true
}

// Close restores the screen if Open was called.
func (t *Terminal) Close() error {
	if !t.opened {
		return nil
	}
	t.opened = false
	_, err := io.WriteString(t.cfg.Out, resetANSI+showCursorANSI+exitAltANSI)
	return err
}
