package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guidoenr/brainwave/internal/audio"
	"github.com/guidoenr/brainwave/internal/display"
	"github.com/guidoenr/brainwave/internal/params"
	"github.com/guidoenr/brainwave/internal/render"
	"github.com/guidoenr/brainwave/internal/score"
	"github.com/guidoenr/brainwave/internal/source"
	"github.com/guidoenr/brainwave/internal/web"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	BackendTerminal = "terminal"
	BackendSDL      = "sdl"
	BackendHeadless = "headless"

	SourceSimulated = "sim"
	SourceScore     = "score"

	scoreSampleRate    = 44100
	resizePollInterval = 250 * time.Millisecond
)

// Config configures the application runtime.
type Config struct {
	Backend string
	// Width and Height size the headless and SDL surfaces in pixels.
	Width, Height int
	// Cols and Rows size the terminal grid in characters.
	Cols, Rows int
	FPS        int

	Source string
	Seed   int64
	// Music plays the score on an output device; otherwise the score is
	// followed silently against the wall clock.
	Music       bool
	AudioDevice string

	Params params.Parameters

	// Headless output.
	Frames int
	OutDir string
	Every  int

	// Terminal output.
	ShowStatusBar bool
	Color         bool
	Palette       string
	Keyboard      bool

	// WebAddr starts the control server when set, e.g. ":8080".
	WebAddr     string
	SavePath    string
	ProfilePath string

	// Presenter replaces the one Backend would build.
	Presenter display.Presenter
	// Clock drives the loop tickers and frame timing. Defaults to the wall
	// clock.
	Clock render.Clock

	Log *zap.Logger
}

// App ties a signal source, a presenter and the render loop together.
type App struct {
	cfg       Config
	log       *zap.Logger
	presenter display.Presenter
	source    *smoothingSource
	renderer  *render.Renderer
	loop      *render.Loop
	player    *audio.Player
	web       *web.Server
	prof      *profiler
	clock     render.Clock

	sourceLabel string

	mu     sync.Mutex
	params params.Parameters

	smoothing atomic.Bool
	fps       atomic.Uint64

	// touched only by the frame hook
	lastFrame time.Time
}

var _ web.Controller = (*App)(nil)

// New constructs the application using the provided configuration.
func New(cfg Config) (*App, error) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendTerminal
	}
	if cfg.Source == "" {
		cfg.Source = SourceSimulated
	}
	if cfg.Clock == nil {
		cfg.Clock = render.SystemClock{}
	}
	if cfg.Params == (params.Parameters{}) {
		cfg.Params = params.Defaults()
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: cfg.Log, params: cfg.Params, clock: cfg.Clock}

	presenter, err := newPresenter(cfg)
	if err != nil {
		return nil, err
	}
	a.presenter = presenter

	raw, err := a.newSource()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.source = newSmoothingSource(raw, cfg.FPS, cfg.Params.SpringFrequency, cfg.Params.SpringDamping)
	a.smoothing.Store(a.source.on)

	renderer, err := render.New(presenter.Surface(), a.source, cfg.Params)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.renderer = renderer
	a.params = renderer.Params()

	a.prof = newProfiler(cfg.ProfilePath, a.log)
	a.loop = render.NewLoop(renderer, render.LoopConfig{
		FrameInterval: time.Second / time.Duration(cfg.FPS),
		Clock:         cfg.Clock,
		OnFrame:       a.onFrame,
		OnStop:        a.onStop,
		Log:           a.log,
	})

	if cfg.WebAddr != "" {
		a.web = web.NewServer(a, web.Config{SavePath: cfg.SavePath, Log: a.log})
	}

	a.log.Info("visualizer ready",
		zap.String("backend", cfg.Backend),
		zap.String("source", a.sourceLabel),
		zap.String("mode", renderer.ModeName()),
		zap.Int("fps", cfg.FPS),
	)
	return a, nil
}

func newPresenter(cfg Config) (display.Presenter, error) {
	if cfg.Presenter != nil {
		return cfg.Presenter, nil
	}
	switch strings.ToLower(cfg.Backend) {
	case BackendTerminal:
		return display.NewTerminal(display.TerminalConfig{
			Cols:      cfg.Cols,
			Rows:      cfg.Rows,
			Color:     cfg.Color,
			Palette:   cfg.Palette,
			StatusBar: cfg.ShowStatusBar,
		}), nil
	case BackendHeadless:
		return display.NewHeadless(display.HeadlessConfig{
			Width:  cfg.Width,
			Height: cfg.Height,
			Dir:    cfg.OutDir,
			Every:  cfg.Every,
			Frames: cfg.Frames,
		})
	case BackendSDL:
		return display.NewSDL(display.SDLConfig{Width: cfg.Width, Height: cfg.Height, Title: "brainwave"})
	default:
		return nil, fmt.Errorf("unknown backend %q (want one of %s)", cfg.Backend, strings.Join(display.Names(), ", "))
	}
}

func (a *App) newSource() (source.Source, error) {
	switch strings.ToLower(a.cfg.Source) {
	case SourceSimulated:
		sim := source.NewSimulated(source.Config{
			Seed:    a.cfg.Seed,
			Variant: source.ParseVariant(a.cfg.Params.BandVariant),
		})
		a.sourceLabel = "sim/" + string(sim.Variant())
		return sim, nil
	case SourceScore:
		samples, err := score.Render(score.Default(), scoreSampleRate)
		if err != nil {
			return nil, fmt.Errorf("render score: %w", err)
		}
		if !a.cfg.Music {
			a.sourceLabel = "score"
			return score.NewSource(score.NewCursor(samples, scoreSampleRate, nil), scoreSampleRate), nil
		}
		if err := audio.Initialize(); err != nil {
			return nil, fmt.Errorf("initialize audio: %w", err)
		}
		player, err := audio.NewPlayer(samples, audio.Config{
			DeviceName: a.cfg.AudioDevice,
			SampleRate: scoreSampleRate,
			Log:        a.log,
		})
		if err != nil {
			audio.Terminate()
			return nil, fmt.Errorf("audio output: %w", err)
		}
		a.player = player
		a.sourceLabel = "score@" + player.DeviceName()
		return score.NewSource(player, player.SampleRate()), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", a.cfg.Source, SourceSimulated, SourceScore)
	}
}

// Run mounts the render loop and serves input until ctx ends, the user
// quits or the presenter closes.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if t, ok := a.presenter.(*display.Terminal); ok {
		if err := t.Open(); err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
	}
	if w, h, ok := a.presenter.HostSize(); ok {
		a.loop.Resize(w, h)
	}
	if err := a.loop.Mount(ctx); err != nil {
		return err
	}
	defer a.loop.Unmount()

	var events <-chan inputEvent
	if a.cfg.Keyboard {
		events = startInputListener(ctx, a.log)
	}

	var webErr chan error
	if a.web != nil {
		webErr = make(chan error, 1)
		go func() { webErr <- a.web.Run(ctx, a.cfg.WebAddr) }()
	}

	resize := time.NewTicker(resizePollInterval)
	defer resize.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.loop.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := a.loop.Err(); err != nil && !errors.Is(err, display.ErrClosed) {
				return err
			}
			return nil
		case err := <-webErr:
			if err != nil {
				return fmt.Errorf("web server: %w", err)
			}
			webErr = nil
		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if evt == inputQuit {
				return nil
			}
			a.handleInput(evt)
		case <-resize.C:
			if w, h, ok := a.presenter.HostSize(); ok {
				a.loop.Resize(w, h)
			}
		}
	}
}

func (a *App) handleInput(evt inputEvent) {
	var err error
	switch evt {
	case inputNextMode:
		err = a.adjust(func(p *params.Parameters) { p.Mode = render.NextMode(p.Mode) })
	case inputMoreElements:
		err = a.adjust(func(p *params.Parameters) { p.ElementCount = min(p.ElementCount*2, params.MaxElements) })
	case inputFewerElements:
		err = a.adjust(func(p *params.Parameters) { p.ElementCount = max(p.ElementCount/2, params.MinElements) })
	case inputToggleOverlays:
		err = a.adjust(func(p *params.Parameters) { p.ShowOverlays = !p.ShowOverlays })
	case inputToggleSmoothing:
		err = a.ToggleSmoothing()
	}
	if err != nil && !errors.Is(err, render.ErrStopped) {
		a.log.Warn("input ignored", zap.Error(err))
	}
}

// adjust edits the active parameters in place.
func (a *App) adjust(edit func(*params.Parameters)) error {
	applied, err := a.Modify(func(p params.Parameters) params.Parameters {
		edit(&p)
		return p
	})
	if err != nil {
		return err
	}
	a.log.Debug("parameters changed",
		zap.String("mode", applied.Mode),
		zap.Int("elements", applied.ElementCount),
		zap.Bool("overlays", applied.ShowOverlays),
	)
	return nil
}

// ToggleSmoothing switches spectrum smoothing and reports the new state
// through Status.
func (a *App) ToggleSmoothing() error {
	var on bool
	if err := a.loop.Do(func(r *render.Renderer) {
		p := r.Params()
		on = a.source.toggle(a.cfg.FPS, p.SpringFrequency, p.SpringDamping)
	}); err != nil {
		return err
	}
	a.smoothing.Store(on)
	a.log.Debug("smoothing toggled", zap.Bool("on", on))
	return nil
}

// onFrame presents each drawn frame. It runs on the loop goroutine.
func (a *App) onFrame(snap render.Snapshot) error {
	now := a.clock.Now()
	var interval time.Duration
	if !a.lastFrame.IsZero() {
		interval = now.Sub(a.lastFrame)
		a.storeFPS(interval)
	}
	a.lastFrame = now

	err := a.presenter.Present(statusLine(snap, a.FPS(), a.sourceLabel, a.smoothing.Load()))
	a.prof.record(snap.Frame, interval, a.clock.Now().Sub(now))
	return err
}

// onStop closes the presenter on the loop goroutine, where thread-bound
// hosts such as SDL must be torn down. Close calls it again harmlessly.
func (a *App) onStop() {
	if err := a.presenter.Close(); err != nil {
		a.log.Warn("close display", zap.Error(err))
	}
}

// storeFPS folds one frame interval into a moving average.
func (a *App) storeFPS(interval time.Duration) {
	if interval <= 0 {
		return
	}
	inst := 1 / interval.Seconds()
	prev := math.Float64frombits(a.fps.Load())
	if prev > 0 {
		inst = prev*0.9 + inst*0.1
	}
	a.fps.Store(math.Float64bits(inst))
}

// FPS returns the measured frame rate.
func (a *App) FPS() float64 { return math.Float64frombits(a.fps.Load()) }

func statusLine(snap render.Snapshot, fps float64, src string, smoothing bool) string {
	smooth := "off"
	if smoothing {
		smooth = "on"
	}
	return fmt.Sprintf("%s | alpha=%.1f beta=%.1f gamma=%.1f | exc=%.0f rel=%.0f | bins=%d smooth=%s | src=%s | fps=%.1f | m:mode +/-:bins s:smooth q:quit",
		strings.ToUpper(snap.Mode),
		snap.Bands.Alpha, snap.Bands.Beta, snap.Bands.Gamma,
		snap.Metrics.Excitement, snap.Metrics.Relaxation,
		snap.SpectrumLength, smooth, src, fps)
}

// Status implements web.Controller.
func (a *App) Status() web.Status {
	return web.Status{
		Snapshot:  a.loop.Snapshot(),
		FPS:       a.FPS(),
		Source:    a.sourceLabel,
		Backend:   a.cfg.Backend,
		Smoothing: a.smoothing.Load(),
	}
}

// Params implements web.Controller.
func (a *App) Params() params.Parameters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.params
}

// Modify implements web.Controller. The edit runs on the loop goroutine
// against the parameters in effect, so concurrent edits from the keyboard
// and the web never overwrite each other. A result that fails validation
// leaves the running visuals alone.
func (a *App) Modify(edit func(params.Parameters) params.Parameters) (params.Parameters, error) {
	var (
		applied params.Parameters
		cfgErr  error
	)
	if err := a.loop.Do(func(r *render.Renderer) {
		cfgErr = r.Configure(edit(r.Params()))
		applied = r.Params()
		a.mu.Lock()
		a.params = applied
		a.mu.Unlock()
	}); err != nil {
		return a.Params(), err
	}
	return applied, cfgErr
}

// Frame implements web.Controller.
func (a *App) Frame() (*image.RGBA, bool, error) {
	imager, ok := a.presenter.(display.Imager)
	if !ok {
		return nil, false, nil
	}
	var img *image.RGBA
	if err := a.loop.Do(func(*render.Renderer) { img = imager.Snapshot() }); err != nil {
		return nil, false, err
	}
	return img, true, nil
}

// Snapshot returns the state after the latest frame.
func (a *App) Snapshot() render.Snapshot { return a.loop.Snapshot() }

// Close releases held resources. Run must have returned.
func (a *App) Close() error {
	var err error
	if a.presenter != nil {
		if cerr := a.presenter.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close display: %w", cerr))
		}
	}
	if a.player != nil {
		if cerr := a.player.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close audio: %w", cerr))
		}
		audio.Terminate()
		a.player = nil
	}
	if cerr := a.prof.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close profile: %w", cerr))
	}
	return err
}
