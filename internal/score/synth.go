package score

import (
	"math"
	"time"
)

const attack = 5 * time.Millisecond

// Render synthesises s to mono samples at sampleRate. Release tails that run
// past the end wrap to the start so the buffer loops without a click.
func Render(s Score, sampleRate int) ([]float32, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		sampleRate = 44_100
	}
	total := samplesFor(s.Length, sampleRate)
	mix := make([]float64, total)
	for _, ev := range s.Events {
		midi, _ := ParseNote(ev.Note)
		freq := Frequency(midi)
		start := samplesFor(ev.At, sampleRate)
		n := samplesFor(attack+ev.Release, sampleRate)
		osc := oscillator(ev.Voice)
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			mix[(start+i)%total] += ev.Amp * envelope(t, ev.Release.Seconds()) * osc(freq, t)
		}
	}
	out := make([]float32, total)
	for i, v := range mix {
		out[i] = float32(math.Tanh(v))
	}
	return out, nil
}

func samplesFor(d time.Duration, sampleRate int) int {
	return int(d.Seconds()*float64(sampleRate) + 0.5)
}

// envelope is a short linear attack followed by a linear release to zero.
func envelope(t, release float64) float64 {
	a := attack.Seconds()
	if t < a {
		return t / a
	}
	if release <= 0 {
		return 0
	}
	return math.Max(0, 1-(t-a)/release)
}

type osc func(freq, t float64) float64

func oscillator(v Voice) osc {
	switch v {
	case Piano:
		return piano
	case Pluck:
		return pluck
	default:
		return sine
	}
}

func sine(freq, t float64) float64 {
	return math.Sin(2 * math.Pi * freq * t)
}

// piano stacks decaying partials over the fundamental.
func piano(freq, t float64) float64 {
	v := 0.0
	norm := 0.0
	for k := 1; k <= 4; k++ {
		w := math.Exp(-float64(k-1)*(1+6*t)) / float64(k)
		v += w * math.Sin(2*math.Pi*freq*float64(k)*t)
		norm += 1 / float64(k)
	}
	return v / norm
}

// pluck is a band-limited sawtooth whose upper partials die out quickly.
func pluck(freq, t float64) float64 {
	v := 0.0
	for k := 1; k <= 8; k++ {
		if freq*float64(k) > 10_000 {
			break
		}
		v += math.Exp(-float64(k)*12*t) * math.Sin(2*math.Pi*freq*float64(k)*t) / float64(k)
	}
	return v * 2 / math.Pi
}
