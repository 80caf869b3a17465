package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guidoenr/brainwave/internal/app"
	"github.com/guidoenr/brainwave/internal/audio"
	"github.com/guidoenr/brainwave/internal/display"
	"github.com/guidoenr/brainwave/internal/params"
	"github.com/guidoenr/brainwave/internal/render"
	"github.com/guidoenr/brainwave/internal/source"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

func main() {
	var (
		backend    = flag.String("backend", app.BackendTerminal, "Output backend ("+strings.Join(display.Names(), "|")+")")
		width      = flag.Int("width", 960, "Surface width in pixels (headless, sdl)")
		height     = flag.Int("height", 540, "Surface height in pixels (headless, sdl)")
		fps        = flag.Int("fps", 60, "Target frames per second")
		mode       = flag.String("mode", "", "Presentation mode ("+strings.Join(render.ModeNames(), "|")+")")
		elements   = flag.Int("elements", 0, "Spectrum bins per frame")
		bands      = flag.String("bands", "", "Simulated band variant ("+strings.Join(source.VariantNames(), "|")+")")
		smoothing  = flag.Float64("smoothing", -1, "Spring frequency for spectrum smoothing (0 disables)")
		seed       = flag.Int64("seed", 0, "Seed for the simulated source (0 = time based)")
		src        = flag.String("source", app.SourceSimulated, "Signal source (sim|score)")
		music      = flag.Bool("music", false, "Play the score on an audio device (with -source score)")
		deviceName = flag.String("audio-device", "", "Optional PortAudio output device name (substring match)")
		listDevs   = flag.Bool("list-audio-devices", false, "List available audio output devices and exit")
		frames     = flag.Int("frames", 0, "Stop after this many frames (headless)")
		outDir     = flag.String("out", "", "Directory for PNG frames (headless)")
		every      = flag.Int("every", 1, "Save one frame out of N (headless)")
		configPath = flag.String("config", "", "YAML parameter file")
		savePath   = flag.String("save", "brainwave.yaml", "Where the web UI saves parameters")
		webAddr    = flag.String("web", "", "Serve the control UI on this address, e.g. :8080")
		profile    = flag.String("profile", "", "Append per-frame timings to this CSV file")
		debug      = flag.Bool("debug", false, "Enable verbose logging")
		showStatus = flag.Bool("status", true, "Display status bar (terminal)")
		palette    = flag.String("palette", "default", "Glyph palette for -no-color ("+strings.Join(display.PaletteNames(), "|")+")")
		noColor    = flag.Bool("no-color", false, "Disable ANSI color output (terminal)")
		noKeys     = flag.Bool("no-keyboard", false, "Ignore keyboard input (terminal)")
	)

	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *fps <= 0 {
		logger.Fatal("fps must be positive", zap.Int("fps", *fps))
	}

	if *listDevs {
		if err := listDevices(); err != nil {
			logger.Fatal("list devices", zap.Error(err))
		}
		return
	}

	p := params.Defaults()
	if *configPath != "" {
		loaded, err := params.Load(*configPath)
		if err != nil {
			logger.Fatal("load parameters", zap.String("path", *configPath), zap.Error(err))
		}
		p = loaded
	}
	if *mode != "" {
		p.Mode = *mode
	}
	if *elements > 0 {
		p.ElementCount = *elements
	}
	if *bands != "" {
		p.BandVariant = *bands
	}
	if *smoothing >= 0 {
		p.SpringFrequency = *smoothing
	}

	cols, rows := 80, 24
	if fd := int(os.Stdout.Fd()); fd >= 0 {
		if w, h, err := term.GetSize(fd); err == nil {
			if w > 0 {
				cols = w
			}
			if h > 0 {
				rows = h
			}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Config{
		Backend:       *backend,
		Width:         *width,
		Height:        *height,
		Cols:          cols,
		Rows:          rows,
		FPS:           *fps,
		Source:        *src,
		Seed:          *seed,
		Music:         *music,
		AudioDevice:   *deviceName,
		Params:        p,
		Frames:        *frames,
		OutDir:        *outDir,
		Every:         *every,
		ShowStatusBar: *showStatus,
		Color:         !*noColor,
		Palette:       *palette,
		Keyboard:      *backend == app.BackendTerminal && !*noKeys,
		WebAddr:       *webAddr,
		SavePath:      *savePath,
		ProfilePath:   *profile,
		Log:           logger,
	})
	if err != nil {
		logger.Fatal("failed to create app", zap.Error(err))
	}

	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		logger.Warn("cleanup error", zap.Error(err))
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Fatal("runtime error", zap.Error(runErr))
	}
	if ctx.Err() != nil {
		fmt.Println("\nExiting...")
	}

	time.Sleep(50 * time.Millisecond)
}

// newLogger writes to stderr so the terminal frames on stdout stay intact.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func listDevices() error {
	if err := audio.Initialize(); err != nil {
		return fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer audio.Terminate()

	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}
	fmt.Printf("\n=== Audio Output Devices ===\n\n")
	return audio.WriteDevices(os.Stdout, devices)
}
