package score

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/guidoenr/brainwave/internal/source"
)

func TestParseNote(t *testing.T) {
	cases := map[string]int{
		"C5":  72,
		"A4":  69,
		":E4": 64,
		"Cs4": 61,
		"C#4": 61,
		"Eb4": 63,
		"bb3": 58,
		"C-1": 0,
	}
	for in, want := range cases {
		got, err := ParseNote(in)
		if err != nil {
			t.Fatalf("ParseNote(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseNote(%q)=%d want=%d", in, got, want)
		}
	}
	for _, bad := range []string{"", "C", "H2", "C10", "Cx4", "Cb-1"} {
		if _, err := ParseNote(bad); !errors.Is(err, ErrBadNote) {
			t.Fatalf("ParseNote(%q): expected ErrBadNote, got %v", bad, err)
		}
	}
}

func TestFrequency(t *testing.T) {
	if f := Frequency(69); f != 440 {
		t.Fatalf("A4=%f", f)
	}
	if f := Frequency(81); math.Abs(f-880) > 1e-9 {
		t.Fatalf("A5=%f", f)
	}
}

func TestDefaultScore(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if s.Length != 4*time.Second {
		t.Fatalf("length=%s want=4s", s.Length)
	}
	if len(s.Events) != 16 {
		t.Fatalf("events=%d want=16", len(s.Events))
	}
	voices := map[Voice]int{}
	for _, ev := range s.Events {
		voices[ev.Voice]++
	}
	if voices[Piano] != 8 || voices[Pluck] != 4 || voices[Sine] != 4 {
		t.Fatalf("voices=%v", voices)
	}
	last := s.Events[len(s.Events)-1]
	if last.Note != "C5" || last.At != 3500*time.Millisecond {
		t.Fatalf("last event=%+v", last)
	}
}

func TestValidateRejectsBadScores(t *testing.T) {
	s := Default()
	s.Events = append(s.Events, Event{At: 0, Voice: Sine, Note: "Q1", Amp: 1})
	if err := s.Validate(); !errors.Is(err, ErrBadNote) {
		t.Fatalf("expected ErrBadNote, got %v", err)
	}
	s = Default()
	s.Events[0].Voice = "organ"
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for unknown voice")
	}
	if _, err := Render(Score{}, 8000); err == nil {
		t.Fatalf("expected error for empty score")
	}
}

func TestRender(t *testing.T) {
	samples, err := Render(Default(), 8000)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(samples) != 4*8000 {
		t.Fatalf("samples=%d want=%d", len(samples), 4*8000)
	}
	peak := 0.0
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak == 0 || peak > 1 {
		t.Fatalf("peak=%f", peak)
	}
	if v := math.Abs(float64(samples[int(0.1*8000)])); v == 0 {
		t.Fatalf("expected sound 100ms in")
	}
}

func TestCursor(t *testing.T) {
	now := time.Unix(100, 0)
	clock := func() time.Time { return now }
	samples := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	c := NewCursor(samples, 10, clock)

	now = now.Add(300 * time.Millisecond)
	if p := c.Position(); p != 3 {
		t.Fatalf("position=%d want=3", p)
	}
	got := c.Samples(5)
	want := []float32{8, 9, 0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("samples=%v want=%v", got, want)
		}
	}

	now = now.Add(time.Second)
	if p := c.Position(); p != 3 {
		t.Fatalf("looped position=%d want=3", p)
	}
	if c.Samples(0) != nil {
		t.Fatalf("expected nil for n=0")
	}
	if got := NewCursor(nil, 10, clock).Samples(4); len(got) != 4 {
		t.Fatalf("empty cursor len=%d", len(got))
	}
}

type constTap struct{ block []float32 }

func (c constTap) Samples(n int) []float32 {
	out := make([]float32, n)
	copy(out, c.block)
	return out
}

func TestSourceFromScore(t *testing.T) {
	samples, err := Render(Default(), 44_100)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	at := 0
	tap := NewCursor(samples, 44_100, func() time.Time {
		return time.Unix(0, int64(at)*int64(time.Millisecond))
	})
	src := NewSource(tap, 44_100)

	moved := false
	for _, ms := range []int{50, 600, 1100, 2100, 3050} {
		at = ms
		b := src.RefreshBands()
		for _, v := range []float64{b.Alpha, b.Beta, b.Gamma} {
			if v < 0 || v > source.BandMax {
				t.Fatalf("band out of range at %dms: %+v", ms, b)
			}
		}
		if b.Alpha > 0 || b.Beta > 0 {
			moved = true
		}
		spec := src.NextSpectrum(64)
		if len(spec) != 64 {
			t.Fatalf("spectrum len=%d", len(spec))
		}
		for _, v := range spec {
			if v < 0 || v > source.SpectrumMax {
				t.Fatalf("spectrum value %f out of range", v)
			}
		}
	}
	if !moved {
		t.Fatalf("bands never moved while the score played")
	}

	silent := NewSource(constTap{}, 44_100)
	if b := silent.RefreshBands(); b != (source.Bands{}) {
		t.Fatalf("silence gave %+v", b)
	}
	if got := silent.NextSpectrum(0); len(got) != 0 {
		t.Fatalf("n=0 gave %d values", len(got))
	}
}
