package source

const (
	// BandMax is the upper bound of every band value.
	BandMax = 100.0
	// SpectrumMax is the upper bound of every spectrum magnitude.
	SpectrumMax = 255.0
)

// Bands holds the named scalar signals shown by the visualizer.
type Bands struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Source produces band values and spectrum frames. Implementations are
// owned by a single renderer and need not be safe for concurrent use.
type Source interface {
	// RefreshBands returns a fresh set of bands that replaces the previous one.
	RefreshBands() Bands
	// NextSpectrum returns n magnitudes in [0, SpectrumMax].
	NextSpectrum(n int) []float64
}

// Metrics are indicators derived from the current bands.
type Metrics struct {
	Excitement float64 `json:"excitement"`
	Relaxation float64 `json:"relaxation"`
	Stress     float64 `json:"stress"`
	Focus      float64 `json:"focus"`
}

// Derive computes the auxiliary indicators for b.
func Derive(b Bands) Metrics {
	return Metrics{
		Excitement: clampBand(b.Beta*0.6 + b.Gamma*0.4),
		Relaxation: clampBand(b.Alpha),
		Stress:     clampBand(b.Beta*0.7 + b.Gamma*0.5 - b.Alpha*0.2),
		Focus:      clampBand((b.Beta + (BandMax - b.Alpha)) / 2),
	}
}

func clampBand(v float64) float64 {
	return clamp(v, 0, BandMax)
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
