package source

import "github.com/charmbracelet/harmonica"

// Smoother eases spectrum frames towards their targets with one damped
// spring per bin. It keeps per-bin state, so it resets when the frame
// length changes.
type Smoother struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

// NewSmoother returns a Smoother stepping at fps with the given spring
// frequency and damping ratio, or nil when frequency is not positive.
func NewSmoother(fps int, frequency, damping float64) *Smoother {
	if frequency <= 0 {
		return nil
	}
	if fps <= 0 {
		fps = 60
	}
	if damping <= 0 {
		damping = 1
	}
	return &Smoother{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *Smoother) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

// Smooth returns a new frame moved towards target. A nil Smoother copies
// target unchanged.
func (s *Smoother) Smooth(target []float64) []float64 {
	out := make([]float64, len(target))
	if s == nil {
		copy(out, target)
		return out
	}
	s.resize(len(target))
	for i, v := range target {
		p, vel := s.spring.Update(s.pos[i], s.vel[i], v)
		s.pos[i] = p
		s.vel[i] = vel
		out[i] = clamp(p, 0, SpectrumMax)
	}
	return out
}

// Wrap returns a Source whose spectrum frames pass through s.
func (s *Smoother) Wrap(src Source) Source {
	if s == nil {
		return src
	}
	return smoothed{Source: src, smoother: s}
}

type smoothed struct {
	Source
	smoother *Smoother
}

func (s smoothed) NextSpectrum(n int) []float64 {
	return s.smoother.Smooth(s.Source.NextSpectrum(n))
}
