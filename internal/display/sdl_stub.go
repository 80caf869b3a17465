//go:build !sdl

package display

import "errors"

// SDLConfig controls an SDL window presenter.
type SDLConfig struct {
	Width, Height int
	Title         string
}

// SDL is unavailable in this build.
type SDL struct{ Presenter }

// NewSDL always fails without the sdl build tag.
func NewSDL(SDLConfig) (*SDL, error) {
	return nil, errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

func SupportsSDL() bool { return false }
