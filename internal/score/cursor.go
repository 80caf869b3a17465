package score

import (
	"sync"
	"time"
)

// Tap exposes the most recent n samples of whatever is playing.
type Tap interface {
	Samples(n int) []float32
}

// Cursor walks a looped buffer by wall-clock time. It stands in for an
// audio device when nothing is actually played.
type Cursor struct {
	mu      sync.Mutex
	samples []float32
	rate    int
	start   time.Time
	now     func() time.Time
}

// NewCursor starts a cursor over samples at sampleRate. now may be nil.
func NewCursor(samples []float32, sampleRate int, now func() time.Time) *Cursor {
	if now == nil {
		now = time.Now
	}
	return &Cursor{samples: samples, rate: sampleRate, now: now, start: now()}
}

// Position returns the index of the next sample to be "played".
func (c *Cursor) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *Cursor) position() int {
	if len(c.samples) == 0 || c.rate <= 0 {
		return 0
	}
	elapsed := c.now().Sub(c.start)
	if elapsed < 0 {
		elapsed = 0
	}
	return int(elapsed.Seconds()*float64(c.rate)) % len(c.samples)
}

// Samples returns the n samples preceding the current position, wrapping
// around the loop.
func (c *Cursor) Samples(n int) []float32 {
	if n <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float32, n)
	total := len(c.samples)
	if total == 0 {
		return out
	}
	pos := c.position()
	for i := range out {
		idx := (pos - n + i) % total
		if idx < 0 {
			idx += total
		}
		out[i] = c.samples[idx]
	}
	return out
}
