package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

const (
	defaultHistory         = 8192
	defaultFramesPerBuffer = 512
)

// Config controls how a Player is opened.
type Config struct {
	DeviceName string
	// SampleRate of the samples handed to the player; zero uses the device
	// default.
	SampleRate      float64
	FramesPerBuffer int
	History         int
	Log             *zap.Logger
}

// Player loops a mono buffer on an output device and remembers what it
// played so the visuals can follow the sound.
type Player struct {
	stream     *portaudio.Stream
	device     *portaudio.DeviceInfo
	sampleRate float64
	log        *zap.Logger

	mu      sync.Mutex
	samples []float32
	pos     int

	played *Ring
}

// NewPlayer opens and starts an output stream looping samples. Initialize
// must have been called.
func NewPlayer(samples []float32, cfg Config) (*Player, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("nothing to play")
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = defaultFramesPerBuffer
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	device, err := findOutputDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = device.DefaultSampleRate
	}

	p := &Player{
		device:     device,
		sampleRate: rate,
		log:        cfg.Log,
		samples:    samples,
		played:     NewRing(cfg.History),
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowOutputLatency,
		},
		SampleRate:      rate,
		FramesPerBuffer: cfg.FramesPerBuffer,
	}, p.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	p.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	p.log.Info("audio playback started",
		zap.String("device", device.Name),
		zap.Float64("sample_rate", rate),
		zap.Int("loop_samples", len(samples)),
	)
	return p, nil
}

// Close stops and closes the stream.
func (p *Player) Close() error {
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil && !isInvalidStreamState(err) {
		return err
	}
	return p.stream.Close()
}

func (p *Player) SampleRate() float64 { return p.sampleRate }

// DeviceName returns the name of the output device.
func (p *Player) DeviceName() string {
	if p.device == nil {
		return ""
	}
	return p.device.Name
}

// Samples returns the last n samples sent to the device.
func (p *Player) Samples(n int) []float32 {
	return p.played.Samples(n)
}

func (p *Player) process(out []float32) {
	p.mu.Lock()
	p.pos = fillLooped(out, p.samples, p.pos)
	p.mu.Unlock()
	p.played.Write(out)
}

// fillLooped copies from src starting at pos into out, wrapping around, and
// returns the next position.
func fillLooped(out, src []float32, pos int) int {
	if len(src) == 0 {
		for i := range out {
			out[i] = 0
		}
		return 0
	}
	for i := range out {
		out[i] = src[pos]
		pos++
		if pos == len(src) {
			pos = 0
		}
	}
	return pos
}

// isInvalidStreamState reports whether err comes from stopping a stream
// that is not running.
func isInvalidStreamState(err error) bool {
	return err != nil && strings.Contains(err.Error(), "PaErrorCode -9986")
}
