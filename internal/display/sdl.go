//go:build sdl

package display

import (
	"fmt"
	"image"
	"runtime"

	"github.com/guidoenr/brainwave/internal/surface"
	"github.com/veandco/go-sdl2/sdl"
)

// SDLConfig controls an SDL window presenter.
type SDLConfig struct {
	Width, Height int
	Title         string
}

// SDL shows frames in a resizable window. SDL wants all its calls on one
// OS thread: the first Present opens the window and pins the calling
// goroutine (the render loop) to its thread, and Close releases the window
// and the pin. Every method except HostSize must run on that goroutine, so
// Close belongs in the loop's stop hook.
type SDL struct {
	windowTitle string

	raster *surface.Raster

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	width    int
	height   int
	title    string

	inited bool
	locked bool

	host chan [2]int
	last [2]int
}

// NewSDL prepares the presenter; the window opens on the first Present.
func NewSDL(cfg SDLConfig) (*SDL, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", cfg.Width, cfg.Height)
	}
	if cfg.Title == "" {
		cfg.Title = "brainwave"
	}
	return &SDL{
		windowTitle: cfg.Title,
		raster:      surface.NewRaster(cfg.Width, cfg.Height),
		host:        make(chan [2]int, 1),
		last:        [2]int{cfg.Width, cfg.Height},
	}, nil
}

func (s *SDL) open() error {
	if s.renderer != nil {
		return nil
	}
	if !s.locked {
		runtime.LockOSThread()
		s.locked = true
	}
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return err
	}
	s.inited = true
	w, h := s.raster.Size()
	window, err := sdl.CreateWindow(
		s.windowTitle,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(w), int32(h),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		return err
	}
	s.window = window
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return err
	}
	s.renderer = renderer
	return nil
}

func SupportsSDL() bool { return true }

func (s *SDL) Surface() surface.Surface { return s.raster }

func (s *SDL) Snapshot() *image.RGBA { return s.raster.Snapshot() }

func (s *SDL) ensureTexture() error {
	w, h := s.raster.Size()
	if s.texture != nil && s.width == w && s.height == h {
		return nil
	}
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	tex, err := s.renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		int32(w), int32(h),
	)
	if err != nil {
		return err
	}
	s.texture = tex
	s.width, s.height = w, h
	return nil
}

func (s *SDL) Present(status string) error {
	if err := s.open(); err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	if err := s.ensureTexture(); err != nil {
		return err
	}
	if status != "" && status != s.title {
		s.window.SetTitle(status)
		s.title = status
	}
	img := s.raster.Image()
	if err := s.texture.Update(nil, img.Pix, img.Stride); err != nil {
		return err
	}
	if err := s.renderer.Clear(); err != nil {
		return err
	}
	if err := s.renderer.Copy(s.texture, nil, nil); err != nil {
		return err
	}
	s.renderer.Present()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return ErrClosed
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && (e.Keysym.Sym == sdl.K_ESCAPE || e.Keysym.Sym == sdl.K_q) {
				return ErrClosed
			}
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				s.publish(int(e.Data1), int(e.Data2))
			}
		}
	}
	return nil
}

// publish keeps only the newest window size for HostSize.
func (s *SDL) publish(w, h int) {
	select {
	case <-s.host:
	default:
	}
	s.host <- [2]int{w, h}
}

func (s *SDL) HostSize() (int, int, bool) {
	select {
	case size := <-s.host:
		s.last = size
	default:
	}
	return s.last[0], s.last[1], true
}

func (s *SDL) Close() error {
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	if s.inited {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		s.inited = false
	}
	if s.locked {
		runtime.UnlockOSThread()
		s.locked = false
	}
	return nil
}
