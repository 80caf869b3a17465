// Package display shows frames drawn on a surface: in a terminal, as PNG
// files or in an SDL window.
package display

import (
	"errors"
	"image"

	"github.com/guidoenr/brainwave/internal/surface"
)

// ErrClosed is returned by Present once the host is gone (window closed,
// frame budget spent). Callers treat it as a clean exit.
var ErrClosed = errors.New("presenter closed")

// Presenter owns a drawing surface and shows its contents. Surface drawing
// and Present happen on the render loop goroutine; HostSize may be called
// from anywhere.
type Presenter interface {
	Surface() surface.Surface
	// Present shows the current surface contents with a one-line status.
	Present(status string) error
	// HostSize reports the surface size the host wants, if known.
	HostSize() (width, height int, ok bool)
	Close() error
}

// Imager is implemented by presenters that can copy their pixels. Like
// drawing, Snapshot must run on the render loop goroutine.
type Imager interface {
	Snapshot() *image.RGBA
}

// Names lists the backend identifiers.
func Names() []string {
	return []string{"headless", "sdl", "terminal"}
}
