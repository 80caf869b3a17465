package audio

import "sync"

// Ring keeps the most recent samples written to it.
type Ring struct {
	mu   sync.RWMutex
	buf  []float32
	next int
	full bool
}

// NewRing returns a Ring holding up to size samples.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = defaultHistory
	}
	return &Ring{buf: make([]float32, size)}
}

// Write appends in, overwriting the oldest samples.
func (r *Ring) Write(in []float32) {
	if len(in) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(in) >= len(r.buf) {
		copy(r.buf, in[len(in)-len(r.buf):])
		r.next = 0
		r.full = true
		return
	}
	n := copy(r.buf[r.next:], in)
	if n < len(in) {
		copy(r.buf, in[n:])
	}
	r.next += len(in)
	if r.next >= len(r.buf) {
		r.next -= len(r.buf)
		r.full = true
	}
}

// Samples returns the last n samples, oldest first. Missing history reads
// as silence.
func (r *Ring) Samples(n int) []float32 {
	if n <= 0 {
		return nil
	}
	out := make([]float32, n)
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := len(r.buf)
	avail := r.next
	if r.full {
		avail = size
	}
	if n > avail {
		n = avail
	}
	dst := out[len(out)-n:]
	start := r.next - n
	if start < 0 {
		start += size
	}
	c := copy(dst, r.buf[start:])
	if c < n {
		copy(dst[c:], r.buf[:n-c])
	}
	return out
}
