// Package score holds the short generative piece the visualizer can play
// and a source that drives the renderer from it.
package score

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrBadNote is returned for note names ParseNote cannot read.
var ErrBadNote = errors.New("bad note")

// Voice is the timbre of an event.
type Voice string

const (
	Piano Voice = "piano"
	Pluck Voice = "pluck"
	Sine  Voice = "sine"
)

// Event triggers one note At an offset from the start of the score.
type Event struct {
	At      time.Duration
	Voice   Voice
	Note    string
	Release time.Duration
	Amp     float64
}

// Score is a looped sequence of events.
type Score struct {
	Events []Event
	Length time.Duration
}

const step = 500 * time.Millisecond

// Default returns the four measure piece: a piano melody, a plucked
// countermelody and a sine bass, one trigger every half second.
func Default() Score {
	type measure struct {
		first, second string // melody
		counter, bass string
	}
	measures := []measure{
		{"C5", "G5", "E4", "C3"},
		{"G5", "D5", "B4", "G3"},
		{"A5", "E5", "C5", "A3"},
		{"F5", "C5", "A4", "F3"},
	}
	var events []Event
	at := time.Duration(0)
	for _, m := range measures {
		events = append(events,
			Event{At: at, Voice: Piano, Note: m.first, Release: 400 * time.Millisecond, Amp: 0.3},
			Event{At: at, Voice: Pluck, Note: m.counter, Release: 300 * time.Millisecond, Amp: 0.25},
			Event{At: at, Voice: Sine, Note: m.bass, Release: 500 * time.Millisecond, Amp: 0.2},
		)
		at += step
		events = append(events, Event{At: at, Voice: Piano, Note: m.second, Release: 400 * time.Millisecond, Amp: 0.3})
		at += step
	}
	return Score{Events: events, Length: at}
}

// Validate checks every note name and timing.
func (s Score) Validate() error {
	if s.Length <= 0 {
		return fmt.Errorf("score length must be positive")
	}
	for i, ev := range s.Events {
		if _, err := ParseNote(ev.Note); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if ev.At < 0 || ev.At >= s.Length {
			return fmt.Errorf("event %d: start %s outside score", i, ev.At)
		}
		switch ev.Voice {
		case Piano, Pluck, Sine:
		default:
			return fmt.Errorf("event %d: unknown voice %q", i, ev.Voice)
		}
	}
	return nil
}

var noteOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote converts a name like "C5", "Eb4" or "Fs3" into a MIDI number.
// Sharps are written '#' or 's', flats 'b'. The octave is required.
func ParseNote(name string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(name), ":")
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, name)
	}
	base, ok := noteOffsets[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, name)
	}
	rest := s[1:]
	switch rest[0] {
	case '#', 's':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil || octave < -1 || octave > 9 {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, name)
	}
	midi := base + (octave+1)*12
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("%w: %q out of range", ErrBadNote, name)
	}
	return midi, nil
}

// Frequency returns the equal-tempered pitch of a MIDI note, A4 = 440 Hz.
func Frequency(midi int) float64 {
	return 440 * math.Pow(2, float64(midi-69)/12)
}
