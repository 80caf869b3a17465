package score

import (
	"github.com/guidoenr/brainwave/internal/analyzer"
	"github.com/guidoenr/brainwave/internal/source"
)

const (
	blockSize = 2048
	noiseGate = 0.02
)

// Source derives bands and spectra from the audio a Tap is playing. Low,
// mid and high energy become alpha, beta and gamma.
type Source struct {
	tap      Tap
	analyzer *analyzer.Analyzer
}

var _ source.Source = (*Source)(nil)

// NewSource reads from tap with an analyzer set to sampleRate.
func NewSource(tap Tap, sampleRate float64) *Source {
	return &Source{
		tap:      tap,
		analyzer: analyzer.New(analyzer.Config{SampleRate: sampleRate}),
	}
}

func (s *Source) RefreshBands() source.Bands {
	l := analyzer.Gate(s.analyzer.Analyze(s.tap.Samples(blockSize)), noiseGate)
	return source.Bands{
		Alpha: clampBand(l.Low * source.BandMax),
		Beta:  clampBand(l.Mid * source.BandMax),
		Gamma: clampBand(l.High * source.BandMax),
	}
}

func (s *Source) NextSpectrum(n int) []float64 {
	return s.analyzer.Spectrum(s.tap.Samples(blockSize), n)
}

func clampBand(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > source.BandMax {
		return source.BandMax
	}
	return v
}
