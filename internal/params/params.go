package params

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a Parameters value that fails validation.
var ErrInvalid = errors.New("invalid parameters")

// Spectrum length bounds accepted by Validate.
const (
	MinElements = 8
	MaxElements = 1024
)

// Parameters holds the visual constants of the renderer. Geometry values are
// in surface pixels.
type Parameters struct {
	Mode         string `yaml:"mode" json:"mode"`
	ElementCount int    `yaml:"element_count" json:"elementCount"`
	BandVariant  string `yaml:"band_variant" json:"bandVariant"`

	TrailAlpha    float64 `yaml:"trail_alpha" json:"trailAlpha"`
	PhaseStep     float64 `yaml:"phase_step" json:"phaseStep"`
	WaveFrequency float64 `yaml:"wave_frequency" json:"waveFrequency"`
	WaveSpacing   float64 `yaml:"wave_spacing" json:"waveSpacing"`
	LineWidth     float64 `yaml:"line_width" json:"lineWidth"`

	BarWidthFactor float64 `yaml:"bar_width_factor" json:"barWidthFactor"`
	BarHeightRatio float64 `yaml:"bar_height_ratio" json:"barHeightRatio"`

	RadialInnerRatio    float64 `yaml:"radial_inner_ratio" json:"radialInnerRatio"`
	RadialLengthRatio   float64 `yaml:"radial_length_ratio" json:"radialLengthRatio"`
	RadialWaveAmplitude float64 `yaml:"radial_wave_amplitude" json:"radialWaveAmplitude"`
	RotationStep        float64 `yaml:"rotation_step" json:"rotationStep"`

	FontSize     float64  `yaml:"font_size" json:"fontSize"`
	TextInset    float64  `yaml:"text_inset" json:"textInset"`
	RightColumn  float64  `yaml:"right_column" json:"rightColumn"`
	LineSpacing  float64  `yaml:"line_spacing" json:"lineSpacing"`
	ShowOverlays bool     `yaml:"show_overlays" json:"showOverlays"`
	Background   [3]uint8 `yaml:"background,flow" json:"background"`

	// SpringFrequency enables spectrum smoothing when positive.
	SpringFrequency float64 `yaml:"spring_frequency" json:"springFrequency"`
	SpringDamping   float64 `yaml:"spring_damping" json:"springDamping"`
}

// Defaults returns the look of the original dual-wave visualizer.
func Defaults() Parameters {
	return Parameters{
		Mode:                "linear",
		ElementCount:        128,
		BandVariant:         "sine",
		TrailAlpha:          0.1,
		PhaseStep:           0.2,
		WaveFrequency:       0.02,
		WaveSpacing:         50,
		LineWidth:           3,
		BarWidthFactor:      4,
		BarHeightRatio:      0.4,
		RadialInnerRatio:    0.15,
		RadialLengthRatio:   0.3,
		RadialWaveAmplitude: 20,
		RotationStep:        0.005,
		FontSize:            20,
		TextInset:           10,
		RightColumn:         150,
		LineSpacing:         30,
		ShowOverlays:        true,
		SpringDamping:       1.0,
	}
}

// Validate reports the first out-of-range field.
func (p Parameters) Validate() error {
	switch {
	case p.ElementCount < MinElements || p.ElementCount > MaxElements:
		return fmt.Errorf("%w: element_count must be in [%d, %d] (got %d)", ErrInvalid, MinElements, MaxElements, p.ElementCount)
	case p.TrailAlpha <= 0 || p.TrailAlpha > 1:
		return fmt.Errorf("%w: trail_alpha must be in (0, 1] (got %.3f)", ErrInvalid, p.TrailAlpha)
	case p.PhaseStep == 0:
		return fmt.Errorf("%w: phase_step must not be zero", ErrInvalid)
	case p.WaveFrequency <= 0:
		return fmt.Errorf("%w: wave_frequency must be positive (got %.3f)", ErrInvalid, p.WaveFrequency)
	case p.LineWidth <= 0:
		return fmt.Errorf("%w: line_width must be positive (got %.3f)", ErrInvalid, p.LineWidth)
	case p.BarWidthFactor <= 0:
		return fmt.Errorf("%w: bar_width_factor must be positive (got %.3f)", ErrInvalid, p.BarWidthFactor)
	case p.BarHeightRatio <= 0 || p.BarHeightRatio > 1:
		return fmt.Errorf("%w: bar_height_ratio must be in (0, 1] (got %.3f)", ErrInvalid, p.BarHeightRatio)
	case p.RadialInnerRatio < 0 || p.RadialLengthRatio <= 0 || p.RadialInnerRatio+p.RadialLengthRatio > 0.5:
		return fmt.Errorf("%w: radial ratios must fit inside half the surface", ErrInvalid)
	case p.SpringFrequency < 0:
		return fmt.Errorf("%w: spring_frequency must not be negative", ErrInvalid)
	}
	return nil
}

// Load reads parameters from a YAML file on top of Defaults.
func Load(path string) (Parameters, error) {
	p := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Save writes p as YAML.
func Save(path string, p Parameters) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
