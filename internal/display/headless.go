package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/guidoenr/brainwave/internal/surface"
)

// HeadlessConfig controls a Headless presenter.
type HeadlessConfig struct {
	Width, Height int
	// Dir receives frame-NNNNN.png files; empty writes nothing.
	Dir string
	// Every saves one frame out of Every; values below 1 mean every frame.
	Every int
	// Frames stops the presenter after that many frames; 0 runs forever.
	Frames int
}

// Headless renders off screen and optionally dumps frames as PNG.
type Headless struct {
	cfg      HeadlessConfig
	raster   *surface.Raster
	frames   int
	written  int
	lastPath string
}

// NewHeadless creates the output directory if needed.
func NewHeadless(cfg HeadlessConfig) (*Headless, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", cfg.Width, cfg.Height)
	}
	if cfg.Every < 1 {
		cfg.Every = 1
	}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create frame dir: %w", err)
		}
	}
	return &Headless{cfg: cfg, raster: surface.NewRaster(cfg.Width, cfg.Height)}, nil
}

func (h *Headless) Surface() surface.Surface { return h.raster }

func (h *Headless) Snapshot() *image.RGBA { return h.raster.Snapshot() }

func (h *Headless) Present(string) error {
	if h.cfg.Frames > 0 && h.frames >= h.cfg.Frames {
		return ErrClosed
	}
	h.frames++
	if h.cfg.Dir != "" && (h.frames-1)%h.cfg.Every == 0 {
		path := filepath.Join(h.cfg.Dir, fmt.Sprintf("frame-%05d.png", h.frames))
		if err := writePNG(path, h.raster.Image()); err != nil {
			return err
		}
		h.written++
		h.lastPath = path
	}
	if h.cfg.Frames > 0 && h.frames >= h.cfg.Frames {
		return ErrClosed
	}
	return nil
}

// Frames returns how many frames were presented.
func (h *Headless) Frames() int { return h.frames }

// Written returns how many PNG files were saved and the latest path.
func (h *Headless) Written() (int, string) { return h.written, h.lastPath }

// HostSize is unknown off screen; the size never changes on its own.
func (h *Headless) HostSize() (int, int, bool) { return 0, 0, false }

func (h *Headless) Close() error { return nil }

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
