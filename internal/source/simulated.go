package source

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Variant selects how simulated bands evolve.
type Variant string

const (
	// VariantSine moves bands along slow sinusoids.
	VariantSine Variant = "sine"
	// VariantNoise draws every band uniformly at random.
	VariantNoise Variant = "noise"
)

// VariantNames returns the supported band variants.
func VariantNames() []string {
	names := []string{string(VariantSine), string(VariantNoise)}
	sort.Strings(names)
	return names
}

// ParseVariant maps a name to a Variant, defaulting to VariantSine.
func ParseVariant(name string) Variant {
	switch strings.ToLower(name) {
	case "noise", "random", "uniform":
		return VariantNoise
	default:
		return VariantSine
	}
}

// Config controls a Simulated source.
type Config struct {
	// Seed feeds the generator; zero picks a time based seed.
	Seed    int64
	Variant Variant
	// PhaseStep is how far the sine variant moves per refresh.
	PhaseStep float64
}

// Simulated generates plausible signals from a seeded generator.
type Simulated struct {
	rng       *rand.Rand
	variant   Variant
	phase     float64
	phaseStep float64
}

// NewSimulated creates a Simulated source.
func NewSimulated(cfg Config) *Simulated {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.PhaseStep <= 0 {
		cfg.PhaseStep = 12
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantSine
	}
	return &Simulated{
		rng:       rand.New(rand.NewSource(seed)),
		variant:   cfg.Variant,
		phaseStep: cfg.PhaseStep,
	}
}

// Variant reports the active band variant.
func (s *Simulated) Variant() Variant { return s.variant }

// RefreshBands implements Source.
func (s *Simulated) RefreshBands() Bands {
	if s.variant == VariantNoise {
		return Bands{
			Alpha: s.rng.Float64() * BandMax,
			Beta:  s.rng.Float64() * BandMax,
			Gamma: s.rng.Float64() * BandMax,
		}
	}

	s.phase += s.phaseStep
	t := s.phase * 0.1
	return Bands{
		Alpha: clampBand(50 + math.Sin(t)*20),
		Beta:  clampBand(30 + math.Cos(t)*15),
		Gamma: clampBand(40 + math.Sin(t*0.7+1.0)*25),
	}
}

// NextSpectrum implements Source.
func (s *Simulated) NextSpectrum(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.rng.Float64() * SpectrumMax
	}
	return out
}
