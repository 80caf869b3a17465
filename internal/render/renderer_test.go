package render

import (
	"image/color"
	"strings"
	"testing"

	"github.com/guidoenr/brainwave/internal/params"
	"github.com/guidoenr/brainwave/internal/source"
	"github.com/guidoenr/brainwave/internal/surface"
)

func newTestRenderer(t *testing.T, w, h int, src source.Source, mutate func(*params.Parameters)) (*Renderer, *surface.Recorder) {
	t.Helper()
	p := params.Defaults()
	if mutate != nil {
		mutate(&p)
	}
	rec := surface.NewRecorder(w, h)
	r, err := New(rec, src, p)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return r, rec
}

func TestNewRejectsBadInput(t *testing.T) {
	src := &fixedSource{}
	if _, err := New(nil, src, params.Defaults()); err == nil {
		t.Fatalf("expected error for nil surface")
	}
	if _, err := New(surface.NewRecorder(0, 10), src, params.Defaults()); err == nil {
		t.Fatalf("expected error for empty surface")
	}
	p := params.Defaults()
	p.ElementCount = 0
	if _, err := New(surface.NewRecorder(10, 10), src, p); err == nil {
		t.Fatalf("expected error for invalid params")
	}
}

func TestLinearFrameLayout(t *testing.T) {
	src := &fixedSource{bands: source.Bands{Alpha: 50, Beta: 30, Gamma: 40}, value: 255}
	r, rec := newTestRenderer(t, 400, 300, src, nil)
	r.RefreshBands()
	snap := r.DrawFrame()

	ops := rec.Ops()
	if ops[0].Kind != surface.OpFillRect || ops[0].W != 400 || ops[0].H != 300 {
		t.Fatalf("first op should be the trail fill, got %+v", ops[0])
	}
	if c, ok := ops[0].Color.(color.NRGBA); !ok || c.A != 26 {
		t.Fatalf("trail colour=%+v want alpha 26", ops[0].Color)
	}

	strokes := rec.Filter(surface.OpStroke)
	if len(strokes) != 2 {
		t.Fatalf("strokes=%d want=2", len(strokes))
	}
	alpha := strokes[0]
	if alpha.Color != alphaColor || alpha.Width != 3 {
		t.Fatalf("alpha wave style: %+v", alpha)
	}
	// MoveTo plus one vertex per pixel column.
	if got := len(alpha.Path[0]); got != 401 {
		t.Fatalf("alpha vertices=%d want=401", got)
	}
	for _, pt := range alpha.Path[0] {
		if pt.Y < 150-50-1e-9 || pt.Y > 150+50+1e-9 {
			t.Fatalf("alpha wave leaves its amplitude: %+v", pt)
		}
	}
	if strokes[1].Color != betaColor || strokes[1].Path[0][0].Y != 200 {
		t.Fatalf("beta wave baseline: %+v", strokes[1].Path[0][0])
	}

	texts := rec.Filter(surface.OpFillText)
	want := map[string][2]float64{
		"Alpha: 50.00":   {10, 30},
		"Beta: 30.00":    {10, 60},
		"Excitement: 34": {250, 30},
		"Relaxation: 50": {250, 60},
	}
	if len(texts) != len(want) {
		t.Fatalf("texts=%d want=%d: %+v", len(texts), len(want), texts)
	}
	for _, op := range texts {
		pos, ok := want[op.Text]
		if !ok {
			t.Fatalf("unexpected text %q", op.Text)
		}
		if op.X != pos[0] || op.Y != pos[1] {
			t.Fatalf("%q at (%f,%f) want (%f,%f)", op.Text, op.X, op.Y, pos[0], pos[1])
		}
		if op.Font.Size != 20 {
			t.Fatalf("font size=%f", op.Font.Size)
		}
	}

	if snap.SpectrumLength != 128 || snap.Frame != 1 || snap.Mode != "linear" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestEmptySpectrumDrawsNoBars(t *testing.T) {
	src := &fixedSource{value: 100}
	r, rec := newTestRenderer(t, 100, 100, src, nil)
	r.params.ElementCount = 0
	snap := r.DrawFrame()
	if bars := barRects(rec.Ops()); len(bars) != 0 {
		t.Fatalf("bars=%d want=0", len(bars))
	}
	if snap.SpectrumLength != 0 {
		t.Fatalf("spectrum length=%d", snap.SpectrumLength)
	}
}

func TestHardClearWhenTrailOpaque(t *testing.T) {
	r, rec := newTestRenderer(t, 20, 20, &fixedSource{}, func(p *params.Parameters) { p.TrailAlpha = 1 })
	r.DrawFrame()
	if rec.Ops()[0].Kind != surface.OpClear {
		t.Fatalf("expected clear, got %+v", rec.Ops()[0])
	}
}

func TestOverlaysCanBeHidden(t *testing.T) {
	r, rec := newTestRenderer(t, 50, 50, &fixedSource{}, func(p *params.Parameters) { p.ShowOverlays = false })
	r.DrawFrame()
	if texts := rec.Filter(surface.OpFillText); len(texts) != 0 {
		t.Fatalf("texts=%d want=0", len(texts))
	}
}

func TestRadialFrame(t *testing.T) {
	src := &fixedSource{bands: source.Bands{Alpha: 20, Beta: 80, Gamma: 60}, value: 255}
	r, rec := newTestRenderer(t, 300, 200, src, func(p *params.Parameters) {
		p.Mode = "radial"
		p.ElementCount = 16
	})
	r.RefreshBands()
	r.DrawFrame()

	strokes := rec.Filter(surface.OpStroke)
	if len(strokes) != 2+16 {
		t.Fatalf("strokes=%d want=18", len(strokes))
	}
	for _, pt := range strokes[0].Path[0] {
		if pt.Y < 100-20-1e-9 || pt.Y > 100+20+1e-9 {
			t.Fatalf("radial wave uses fixed amplitude, got y=%f", pt.Y)
		}
	}
	first, second := strokes[2], strokes[3]
	if first.Color == second.Color {
		t.Fatalf("expected hue to vary between bars")
	}
	// full-scale bar reaches inner + length from the centre
	end := first.Path[0][1]
	dx, dy := end.X-150, end.Y-100
	if d := dx*dx + dy*dy; d < 89.9*89.9 || d > 90.1*90.1 {
		t.Fatalf("bar end distance^2=%f want 90^2", d)
	}

	var labels []string
	for _, op := range rec.Filter(surface.OpFillText) {
		labels = append(labels, op.Text)
	}
	joined := strings.Join(labels, "|")
	for _, want := range []string{"Gamma: 60.00", "Stress:", "Focus:"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %s", want, joined)
		}
	}
	tracks := 0
	for _, op := range rec.Filter(surface.OpFillRect) {
		if op.Color == trackColor {
			tracks++
		}
	}
	if tracks != 2 {
		t.Fatalf("progress tracks=%d want=2", tracks)
	}

	before := r.rotation
	r.DrawFrame()
	if !near(r.rotation, before+0.005) {
		t.Fatalf("rotation=%f want=%f", r.rotation, before+0.005)
	}
}

func TestModeSelection(t *testing.T) {
	r, _ := newTestRenderer(t, 10, 10, &fixedSource{}, func(p *params.Parameters) { p.Mode = "spiral" })
	if r.ModeName() != "linear" {
		t.Fatalf("fallback mode=%s", r.ModeName())
	}
	if got := r.SetMode("Circular"); got != "radial" {
		t.Fatalf("alias resolved to %s", got)
	}
	if got := NextMode("radial"); got != "linear" {
		t.Fatalf("next after radial=%s", got)
	}
	if got := NextMode("linear"); got != "radial" {
		t.Fatalf("next after linear=%s", got)
	}
	if names := ModeNames(); len(names) != 2 || names[0] != "linear" {
		t.Fatalf("mode names=%v", names)
	}
}

func TestConsecutiveSimulatedFramesDiffer(t *testing.T) {
	src := source.NewSimulated(source.Config{Seed: 7})
	r, rec := newTestRenderer(t, 120, 80, src, nil)
	r.RefreshBands()
	r.DrawFrame()
	first := barRects(rec.Ops())
	rec.Reset()
	r.DrawFrame()
	second := barRects(rec.Ops())
	if len(first) != len(second) {
		t.Fatalf("bar counts differ: %d vs %d", len(first), len(second))
	}
	same := true
	for i := range first {
		if first[i].H != second[i].H {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("consecutive spectra were identical")
	}
}

func TestHueColor(t *testing.T) {
	c := hueColor(0, 1)
	if c.R != 255 || c.G != 0 || c.B != 0 {
		t.Fatalf("hue 0=%+v want red", c)
	}
	c = hueColor(1.0/3, 1)
	if c.G != 255 || c.R != 0 {
		t.Fatalf("hue 1/3=%+v want green", c)
	}
}
