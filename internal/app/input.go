package app

import (
	"context"
	"sync"

	"github.com/eiannone/keyboard"
	"go.uber.org/zap"
)

type inputEvent int

const (
	inputQuit inputEvent = iota
	inputNextMode
	inputMoreElements
	inputFewerElements
	inputToggleSmoothing
	inputToggleOverlays
)

// keyEvent maps a key press to an event.
func keyEvent(char rune, key keyboard.Key) (inputEvent, bool) {
	switch {
	case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC:
		return inputQuit, true
	case key == keyboard.KeySpace:
		return inputNextMode, true
	}
	switch char {
	case 'q', 'Q':
		return inputQuit, true
	case 'm', 'M':
		return inputNextMode, true
	case '+', '=':
		return inputMoreElements, true
	case '-', '_':
		return inputFewerElements, true
	case 's', 'S':
		return inputToggleSmoothing, true
	case 'o', 'O':
		return inputToggleOverlays, true
	}
	return 0, false
}

// startInputListener reads raw key presses until ctx ends. It returns nil
// when the keyboard cannot be opened.
func startInputListener(ctx context.Context, log *zap.Logger) <-chan inputEvent {
	if err := keyboard.Open(); err != nil {
		log.Warn("keyboard input disabled", zap.Error(err))
		return nil
	}

	events := make(chan inputEvent, 16)

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			evt, ok := keyEvent(char, key)
			if !ok {
				continue
			}
			if evt == inputQuit {
				events <- inputQuit
				return
			}
			select {
			case events <- evt:
			default:
			}
		}
	}()
	return events
}
