package analyzer

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// SpectrumMax is the top of the Spectrum output scale.
const SpectrumMax = 255

const (
	minFFTSize = 256
	maxFFTSize = 2048

	// spectrum bins span this range on a log axis
	spectrumLowHz  = 40.0
	spectrumHighHz = 12000.0
	// dynamic range mapped onto [0, SpectrumMax]
	floorDB = -60.0
)

// Analyzer turns blocks of mono samples into band levels and display
// spectra. It keeps envelope state between calls and is not safe for
// concurrent use.
type Analyzer struct {
	sampleRate float64

	lowPeak   float64
	midPeak   float64
	highPeak  float64
	beatPulse float64
	lastLow   float64
	energy    []float64

	historySize int

	buffer []complex128
	window []float64
	mags   []float64
}

// Config controls Analyzer behavior.
type Config struct {
	SampleRate  float64
	HistorySize int
}

// New creates an Analyzer. Zero values pick 44.1 kHz and a 60 block history.
func New(cfg Config) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 60
	}
	return &Analyzer{
		sampleRate:  cfg.SampleRate,
		energy:      make([]float64, 0, cfg.HistorySize),
		historySize: cfg.HistorySize,
	}
}

// SampleRate returns the rate the analyzer assumes for its input.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// Analyze returns low/mid/high levels for the block. Levels follow a peak
// envelope so quiet passages still move.
func (a *Analyzer) Analyze(samples []float32) Levels {
	mags, resolution := a.transform(samples)
	if mags == nil {
		return Levels{}
	}

	low := bandLevel(mags, resolution, 20, 250)
	mid := bandLevel(mags, resolution, 250, 2000)
	high := bandLevel(mags, resolution, 2000, 8000)

	a.lowPeak = envelope(a.lowPeak, low, 0.94, 0.75)
	a.midPeak = envelope(a.midPeak, mid, 0.94, 0.78)
	a.highPeak = envelope(a.highPeak, high, 0.94, 0.8)

	lowOut := dynamics(low, a.lowPeak)
	midOut := dynamics(mid, a.midPeak)
	highOut := dynamics(high, a.highPeak)

	overall := (lowOut + midOut + highOut) / 3.0
	a.pushEnergy(overall)
	boost := 1.0 + a.energyVariance()*0.65

	onset := clamp((low-a.lastLow)*14.0, 0, 1)
	if onset > 0.12 {
		a.beatPulse = 1.0
	}
	a.beatPulse *= 0.88
	a.lastLow = low

	return Levels{
		Low:     math.Min(1.0, lowOut*boost),
		Mid:     math.Min(1.0, midOut*boost),
		High:    math.Min(1.0, highOut*boost),
		Overall: math.Min(1.0, overall*boost),
		Beat:    math.Min(1.0, onset+a.beatPulse*0.7),
	}
}

// Spectrum returns bins magnitudes in [0, SpectrumMax] on a log frequency
// axis. bins <= 0 yields an empty slice; silence yields zeros.
func (a *Analyzer) Spectrum(samples []float32, bins int) []float64 {
	if bins <= 0 {
		return []float64{}
	}
	out := make([]float64, bins)
	mags, resolution := a.transform(samples)
	if mags == nil {
		return out
	}

	high := math.Min(spectrumHighHz, a.sampleRate/2)
	ratio := math.Log(high / spectrumLowHz)
	for i := range out {
		lo := spectrumLowHz * math.Exp(ratio*float64(i)/float64(bins))
		hi := spectrumLowHz * math.Exp(ratio*float64(i+1)/float64(bins))
		first := int(lo / resolution)
		last := int(math.Ceil(hi / resolution))
		if last <= first {
			last = first + 1
		}
		peak := 0.0
		for k := first; k < last && k < len(mags); k++ {
			peak = math.Max(peak, mags[k])
		}
		out[i] = toScale(peak)
	}
	return out
}

// transform windows and FFTs the block. It returns normalised magnitudes
// for the positive frequencies (a full-scale sine peaks near 1) and the
// width of one bin in Hz.
func (a *Analyzer) transform(samples []float32) ([]float64, float64) {
	if len(samples) == 0 {
		return nil, 0
	}
	size := nextPow2(min(len(samples), maxFFTSize))
	if size < minFFTSize {
		size = minFFTSize
	}
	a.ensureWorkspace(size)

	// newest samples are at the end of the block
	if len(samples) > size {
		samples = samples[len(samples)-size:]
	}
	buffer := a.buffer[:size]
	for i := range buffer {
		if i < len(samples) {
			buffer[i] = complex(float64(samples[i])*a.window[i], 0)
			continue
		}
		buffer[i] = 0
	}

	res := fft.FFT(buffer)
	scale := 4.0 / float64(size)
	mags := a.mags[:size/2]
	for i := range mags {
		mags[i] = cmag(res[i]) * scale
	}
	return mags, a.sampleRate / float64(size)
}

func bandLevel(mags []float64, resolution, minHz, maxHz float64) float64 {
	lo := int(math.Floor(minHz / resolution))
	hi := int(math.Ceil(maxHz/resolution)) + 1
	if hi > len(mags) {
		hi = len(mags)
	}
	if lo >= hi {
		return 0
	}
	sum := 0.0
	for _, m := range mags[lo:hi] {
		sum += m * m
	}
	return math.Min(1.0, math.Sqrt(sum))
}

func toScale(mag float64) float64 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	return clamp((db-floorDB)/-floorDB, 0, 1) * SpectrumMax
}

func (a *Analyzer) pushEnergy(value float64) {
	a.energy = append(a.energy, value)
	if len(a.energy) > a.historySize {
		copy(a.energy, a.energy[1:])
		a.energy = a.energy[:len(a.energy)-1]
	}
}

func (a *Analyzer) energyVariance() float64 {
	if len(a.energy) < 10 {
		return 0
	}
	mean := average(a.energy)
	sumSq := 0.0
	for _, v := range a.energy {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Min(1.0, math.Sqrt(sumSq/float64(len(a.energy))))
}

func hann(i, size float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*i/size))
}

func (a *Analyzer) ensureWorkspace(size int) {
	if len(a.buffer) != size {
		a.buffer = make([]complex128, size)
		a.mags = make([]float64, size/2)
	}
	if len(a.window) != size {
		a.window = make([]float64, size)
		sizeF := float64(size)
		for i := range a.window {
			a.window[i] = hann(float64(i), sizeF)
		}
	}
}

func cmag(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func envelope(current, input, attack, release float64) float64 {
	if input > current {
		return current*attack + input*(1-attack)
	}
	return current * release
}

func dynamics(value, peak float64) float64 {
	if peak < 0.01 {
		return value
	}
	ratio := value / peak
	if ratio < 0 {
		ratio = 0
	}
	expanded := math.Pow(ratio, 0.7) * peak
	if ratio > 0.85 {
		expanded *= 1.0 + (ratio-0.85)*2.0
	}
	return math.Min(1.0, expanded)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
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
