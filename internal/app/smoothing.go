package app

import (
	"github.com/guidoenr/brainwave/internal/source"
)

const defaultSpringFrequency = 6.0

// smoothingSource lets the spectrum smoother be switched on and off while
// the loop runs. It is only touched from the render loop goroutine.
type smoothingSource struct {
	raw      source.Source
	smoothed source.Source
	on       bool
}

func newSmoothingSource(raw source.Source, fps int, frequency, damping float64) *smoothingSource {
	s := &smoothingSource{raw: raw, on: frequency > 0}
	s.rewrap(fps, frequency, damping)
	return s
}

// rewrap puts a fresh smoother in front of raw so old spring state does not
// leak into the next run.
func (s *smoothingSource) rewrap(fps int, frequency, damping float64) {
	if frequency <= 0 {
		frequency = defaultSpringFrequency
	}
	s.smoothed = source.NewSmoother(fps, frequency, damping).Wrap(s.raw)
}

func (s *smoothingSource) RefreshBands() source.Bands { return s.raw.RefreshBands() }

func (s *smoothingSource) NextSpectrum(n int) []float64 {
	if !s.on {
		return s.raw.NextSpectrum(n)
	}
	return s.smoothed.NextSpectrum(n)
}

// toggle flips smoothing and reports the new state.
func (s *smoothingSource) toggle(fps int, frequency, damping float64) bool {
	s.on = !s.on
	if s.on {
		s.rewrap(fps, frequency, damping)
	}
	return s.on
}
