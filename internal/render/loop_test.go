package render

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guidoenr/brainwave/internal/params"
	"github.com/guidoenr/brainwave/internal/source"
	"github.com/guidoenr/brainwave/internal/surface"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type manualTicker struct {
	d       time.Duration
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (c *manualClock) Now() time.Time { return time.Unix(0, 0) }

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{d: d, ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// latest returns the most recent ticker created with interval d.
func (c *manualClock) latest(d time.Duration) *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.tickers) - 1; i >= 0; i-- {
		if c.tickers[i].d == d {
			return c.tickers[i]
		}
	}
	return nil
}

func tick(t *testing.T, tk *manualTicker) {
	t.Helper()
	select {
	case tk.ch <- time.Unix(0, 0):
	case <-time.After(2 * time.Second):
		t.Fatalf("tick was not consumed")
	}
}

type fixedSource struct {
	bands     source.Bands
	value     float64
	refreshes atomic.Int32
}

func (s *fixedSource) RefreshBands() source.Bands {
	s.refreshes.Add(1)
	return s.bands
}

func (s *fixedSource) NextSpectrum(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.value
	}
	return out
}

type loopFixture struct {
	rec   *surface.Recorder
	src   *fixedSource
	r     *Renderer
	loop  *Loop
	clock *manualClock
}

func newLoopFixture(t *testing.T, w, h int, mutate func(*params.Parameters)) *loopFixture {
	t.Helper()
	p := params.Defaults()
	if mutate != nil {
		mutate(&p)
	}
	rec := surface.NewRecorder(w, h)
	src := &fixedSource{bands: source.Bands{Alpha: 50, Beta: 30, Gamma: 40}, value: source.SpectrumMax}
	r, err := New(rec, src, p)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	clock := &manualClock{}
	loop := NewLoop(r, LoopConfig{Clock: clock, Log: zaptest.NewLogger(t)})
	t.Cleanup(loop.Unmount)
	return &loopFixture{rec: rec, src: src, r: r, loop: loop, clock: clock}
}

func (f *loopFixture) frames() *manualTicker  { return f.clock.latest(DefaultFrameInterval) }
func (f *loopFixture) refresh() *manualTicker { return f.clock.latest(DefaultRefreshInterval) }

// ops copies the recorded calls on the loop goroutine and clears them.
func (f *loopFixture) ops(t *testing.T) []surface.Op {
	t.Helper()
	var out []surface.Op
	if err := f.loop.Do(func(*Renderer) {
		out = append(out, f.rec.Ops()...)
		f.rec.Reset()
	}); err != nil {
		t.Fatalf("do: %v", err)
	}
	return out
}

func barRects(ops []surface.Op) []surface.Op {
	var bars []surface.Op
	for _, op := range ops {
		if op.Kind == surface.OpFillRect && op.Color == barColor {
			bars = append(bars, op)
		}
	}
	return bars
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLoopResizeRecomputesBarGeometry(t *testing.T) {
	f := newLoopFixture(t, 100, 100, func(p *params.Parameters) { p.ElementCount = 60 })
	if err := f.loop.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}

	bars := barRects(f.ops(t))
	if len(bars) != 60 {
		t.Fatalf("bars=%d want=60", len(bars))
	}
	want := 100.0/60*4 - 1
	if !near(bars[0].W, want) {
		t.Fatalf("bar width=%f want=%f", bars[0].W, want)
	}
	if !near(bars[0].H, 40) || !near(bars[0].Y, 60) {
		t.Fatalf("bar height=%f y=%f want 40 at y=60", bars[0].H, bars[0].Y)
	}
	phase := f.loop.Snapshot().Phase

	f.loop.Resize(200, 100)
	tick(t, f.frames())

	bars = barRects(f.ops(t))
	want = 200.0/60*4 - 1
	if len(bars) != 60 || !near(bars[0].W, want) {
		t.Fatalf("after resize bars=%d width=%f want=%f", len(bars), bars[0].W, want)
	}
	snap := f.loop.Snapshot()
	if snap.Width != 200 || snap.Height != 100 {
		t.Fatalf("snapshot size=%dx%d", snap.Width, snap.Height)
	}
	if !near(snap.Phase, phase+0.2) {
		t.Fatalf("phase reset on resize: before=%f after=%f", phase, snap.Phase)
	}
}

func TestLoopPhaseAdvancesOnlyWhileMounted(t *testing.T) {
	f := newLoopFixture(t, 80, 60, nil)
	if err := f.loop.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	last := -1.0
	for i := 0; i < 5; i++ {
		tick(t, f.frames())
		f.ops(t)
		phase := f.loop.Snapshot().Phase
		if phase <= last {
			t.Fatalf("phase not increasing: %f after %f", phase, last)
		}
		last = phase
	}
	if !near(last, 6*0.2) {
		t.Fatalf("phase=%f want=%f", last, 6*0.2)
	}

	f.loop.Unmount()
	time.Sleep(10 * time.Millisecond)
	if got := f.loop.Snapshot().Phase; got != last {
		t.Fatalf("phase moved while unmounted: %f", got)
	}
	if p := f.r.Phase(); p != last {
		t.Fatalf("renderer phase moved while unmounted: %f", p)
	}
}

func TestUnmountStopsEverything(t *testing.T) {
	f := newLoopFixture(t, 50, 50, nil)
	if err := f.loop.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	frames, refresh := f.frames(), f.refresh()
	tick(t, refresh)
	tick(t, frames)
	f.ops(t)

	f.loop.Unmount()
	f.loop.Unmount()

	if !frames.stopped.Load() || !refresh.stopped.Load() {
		t.Fatalf("tickers not stopped: frame=%v refresh=%v", frames.stopped.Load(), refresh.stopped.Load())
	}
	select {
	case <-f.loop.Done():
	default:
		t.Fatalf("done not closed after unmount")
	}

	refreshes := f.src.refreshes.Load()
	drawn := f.loop.Snapshot().Frame
	for _, tk := range []*manualTicker{frames, refresh} {
		select {
		case tk.ch <- time.Now():
			t.Fatalf("tick consumed after unmount")
		default:
		}
	}
	if len(f.rec.Ops()) != 0 {
		t.Fatalf("draw calls after unmount: %d", len(f.rec.Ops()))
	}
	if f.src.refreshes.Load() != refreshes || f.loop.Snapshot().Frame != drawn {
		t.Fatalf("work done after unmount")
	}
	if f.loop.Mounted() {
		t.Fatalf("loop still reports mounted")
	}
}

func TestMountTwice(t *testing.T) {
	f := newLoopFixture(t, 50, 50, nil)
	ctx := context.Background()
	if err := f.loop.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := f.loop.Mount(ctx); !errors.Is(err, ErrAlreadyMounted) {
		t.Fatalf("expected ErrAlreadyMounted, got %v", err)
	}
	f.loop.Unmount()
	if err := f.loop.Mount(ctx); err != nil {
		t.Fatalf("remount: %v", err)
	}
	f.ops(t)
	if got := f.loop.Snapshot().Frame; got != 2 {
		t.Fatalf("frames=%d want=2 (one per mount)", got)
	}
}

func TestResizeIsIdempotent(t *testing.T) {
	f := newLoopFixture(t, 50, 50, nil)
	f.loop.Resize(50, 50)
	f.loop.Resize(70, 40)
	f.loop.Resize(70, 40)
	if f.rec.Resizes() != 1 {
		t.Fatalf("unmounted resizes=%d want=1", f.rec.Resizes())
	}
	if err := f.loop.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	f.loop.Resize(70, 40)
	f.loop.Resize(90, 40)
	f.loop.Resize(90, 40)
	f.loop.Resize(0, 10)
	f.ops(t)
	f.loop.Unmount()
	if f.rec.Resizes() != 2 {
		t.Fatalf("resizes=%d want=2", f.rec.Resizes())
	}
	if w, h := f.r.Size(); w != 90 || h != 40 {
		t.Fatalf("size=%dx%d want 90x40", w, h)
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	f := newLoopFixture(t, 50, 50, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := f.loop.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	cancel()
	select {
	case <-f.loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not exit on cancel")
	}
	if err := f.loop.Do(func(*Renderer) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestFrameHookErrorStopsLoop(t *testing.T) {
	boom := errors.New("presenter gone")
	rec := surface.NewRecorder(40, 40)
	r, err := New(rec, &fixedSource{}, params.Defaults())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	clock := &manualClock{}
	calls := 0
	core, logs := observer.New(zap.WarnLevel)
	loop := NewLoop(r, LoopConfig{
		Clock: clock,
		Log:   zap.New(core),
		OnFrame: func(s Snapshot) error {
			calls++
			if s.Frame == 2 {
				return boom
			}
			return nil
		},
	})
	defer loop.Unmount()
	if err := loop.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	tick(t, clock.latest(DefaultFrameInterval))
	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
	}
	if !errors.Is(loop.Err(), boom) {
		t.Fatalf("err=%v want=%v", loop.Err(), boom)
	}
	if calls != 2 {
		t.Fatalf("hook calls=%d want=2", calls)
	}
	if n := logs.FilterMessage("render loop stopped").Len(); n != 1 {
		t.Fatalf("expected one stop warning, got %d", n)
	}
}

func TestStopHookRunsOnLoopBeforeDone(t *testing.T) {
	rec := surface.NewRecorder(40, 40)
	r, err := New(rec, &fixedSource{}, params.Defaults())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var stops atomic.Int32
	var loop *Loop
	loop = NewLoop(r, LoopConfig{
		Clock: &manualClock{},
		Log:   zaptest.NewLogger(t),
		OnStop: func() {
			select {
			case <-loop.Done():
				t.Errorf("done closed before stop hook ran")
			default:
			}
			stops.Add(1)
		},
	})

	for round := 1; round <= 2; round++ {
		if err := loop.Mount(context.Background()); err != nil {
			t.Fatalf("mount %d: %v", round, err)
		}
		loop.Unmount()
		if got := stops.Load(); got != int32(round) {
			t.Fatalf("after unmount %d stop hook ran %d times", round, got)
		}
	}
	loop.Unmount()
	if got := stops.Load(); got != 2 {
		t.Fatalf("idempotent unmount reran stop hook: %d", got)
	}
}
