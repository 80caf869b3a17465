package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyMounted is returned by Mount on a loop that is running.
	ErrAlreadyMounted = errors.New("render loop already mounted")
	// ErrStopped is returned by Do when the loop exited before running fn.
	ErrStopped = errors.New("render loop stopped")
)

const (
	DefaultFrameInterval   = time.Second / 60
	DefaultRefreshInterval = time.Second
)

// FrameHook runs on the loop goroutine after every drawn frame. A non-nil
// error stops the loop and is reported by Err.
type FrameHook func(Snapshot) error

// LoopConfig configures a Loop.
type LoopConfig struct {
	FrameInterval   time.Duration
	RefreshInterval time.Duration
	Clock           Clock
	OnFrame         FrameHook
	// OnStop runs on the loop goroutine just before it exits, after the
	// last frame. Resources bound to the loop's OS thread are released here.
	OnStop func()
	Log    *zap.Logger
}

type size struct{ w, h int }

type command struct {
	fn   func(*Renderer)
	done chan struct{}
}

// Loop drives a Renderer from a frame ticker and a band refresh ticker on a
// single goroutine. All renderer access while mounted goes through that
// goroutine.
type Loop struct {
	cfg LoopConfig
	r   *Renderer
	log *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	resize  chan size
	cmds    chan command
	err     error

	snap atomic.Pointer[Snapshot]
}

// NewLoop wraps r. The loop starts unmounted.
func NewLoop(r *Renderer, cfg LoopConfig) *Loop {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	l := &Loop{cfg: cfg, r: r, log: cfg.Log}
	snap := r.Snapshot()
	l.snap.Store(&snap)
	return l
}

// Mount starts the tickers and the loop goroutine. Bands are refreshed and
// the first frame is drawn without waiting for a tick.
func (l *Loop) Mount(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrAlreadyMounted
	}

	ctx, cancel := context.WithCancel(ctx)
	refresh := l.cfg.Clock.NewTicker(l.cfg.RefreshInterval)
	frames := l.cfg.Clock.NewTicker(l.cfg.FrameInterval)

	l.running = true
	l.cancel = cancel
	l.err = nil
	l.done = make(chan struct{})
	l.resize = make(chan size)
	l.cmds = make(chan command)

	w, h := l.r.Size()
	l.log.Debug("render loop mounted",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.String("mode", l.r.ModeName()),
		zap.Duration("frame_interval", l.cfg.FrameInterval),
	)
	go l.run(ctx, frames, refresh, l.resize, l.cmds, l.done)
	return nil
}

// Unmount stops the loop and returns once the goroutine has exited. It is
// safe to call more than once.
func (l *Loop) Unmount() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done

	l.mu.Lock()
	l.running = false
	l.cancel = nil
	l.mu.Unlock()
	l.log.Debug("render loop unmounted", zap.Uint64("frames", l.Snapshot().Frame))
}

// Resize forwards new surface dimensions. While mounted it returns after the
// loop has applied them; otherwise the renderer is resized directly.
func (l *Loop) Resize(width, height int) {
	l.mu.Lock()
	if !l.running {
		l.r.Resize(width, height)
		l.mu.Unlock()
		return
	}
	resize, done := l.resize, l.done
	l.mu.Unlock()

	select {
	case resize <- size{width, height}:
	case <-done:
		// loop exited on its own; nobody else owns the renderer now
		l.mu.Lock()
		l.r.Resize(width, height)
		l.mu.Unlock()
	}
}

// Do runs fn against the renderer on the loop goroutine and waits for it.
// While unmounted fn runs on the caller's goroutine. Do must not be called
// from a FrameHook.
func (l *Loop) Do(fn func(*Renderer)) error {
	l.mu.Lock()
	if !l.running {
		fn(l.r)
		snap := l.r.Snapshot()
		l.snap.Store(&snap)
		l.mu.Unlock()
		return nil
	}
	cmds, done := l.cmds, l.done
	l.mu.Unlock()

	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case cmds <- cmd:
	case <-done:
		return ErrStopped
	}
	<-cmd.done
	return nil
}

// Snapshot returns the state published after the latest frame.
func (l *Loop) Snapshot() Snapshot {
	return *l.snap.Load()
}

// Mounted reports whether the loop is between Mount and Unmount.
func (l *Loop) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Done is closed when the current loop goroutine exits, either through
// Unmount or because a frame hook failed.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return l.done
}

// Err returns the frame hook error that stopped the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Loop) run(ctx context.Context, frames, refresh Ticker, resize <-chan size, cmds <-chan command, done chan struct{}) {
	defer close(done)
	if l.cfg.OnStop != nil {
		defer l.cfg.OnStop()
	}
	defer refresh.Stop()
	defer frames.Stop()

	l.r.RefreshBands()
	if err := l.draw(ctx); err != nil {
		l.fail(err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-resize:
			if l.r.Resize(s.w, s.h) {
				l.log.Debug("surface resized", zap.Int("width", s.w), zap.Int("height", s.h))
			}
		case cmd := <-cmds:
			cmd.fn(l.r)
			snap := l.r.Snapshot()
			l.snap.Store(&snap)
			close(cmd.done)
		case <-refresh.C():
			if ctx.Err() != nil {
				return
			}
			l.r.RefreshBands()
		case <-frames.C():
			if err := l.draw(ctx); err != nil {
				l.fail(err)
				return
			}
		}
	}
}

func (l *Loop) draw(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	snap := l.r.DrawFrame()
	l.snap.Store(&snap)
	if l.cfg.OnFrame != nil {
		return l.cfg.OnFrame(snap)
	}
	return nil
}

func (l *Loop) fail(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	l.log.Warn("render loop stopped", zap.Error(err))
}
