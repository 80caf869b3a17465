package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	mu    sync.Mutex
	users int
)

// Initialize starts PortAudio for one more user. Every successful call
// must be matched by Terminate.
func Initialize() error {
	mu.Lock()
	defer mu.Unlock()
	if users == 0 {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
	}
	users++
	return nil
}

// Terminate releases one user and shuts PortAudio down after the last.
func Terminate() {
	mu.Lock()
	defer mu.Unlock()
	if users == 0 {
		return
	}
	users--
	if users == 0 {
		_ = portaudio.Terminate()
	}
}
