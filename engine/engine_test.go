package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-chart/engine/bundle"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer"
	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
	"github.com/Carmen-Shannon/oxy-chart/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// scriptedWindow runs the update callback a fixed number of times.
type scriptedWindow struct {
	frames   int
	running  bool
	closed   int
	onUpdate func()
	onResize func(width, height int)
}

var _ window.Window = &scriptedWindow{}

func (w *scriptedWindow) SetUpdateCallback(cb func())                         { w.onUpdate = cb }
func (w *scriptedWindow) SetResizeCallback(cb func(width, height int))        { w.onResize = cb }
func (w *scriptedWindow) SetScrollCallback(func(delta float32, x, y float64)) {}
func (w *scriptedWindow) SetDragCallback(func(dx, dy float64))                {}
func (w *scriptedWindow) SetKeyDownCallback(func(keyCode uint32))             {}
func (w *scriptedWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor          { return nil }
func (w *scriptedWindow) IsRunning() bool                                     { return w.running }
func (w *scriptedWindow) RequestClose()                                       { w.running = false }
func (w *scriptedWindow) Width() int                                          { return 640 }
func (w *scriptedWindow) Height() int                                         { return 480 }

func (w *scriptedWindow) Close() error {
	w.closed++
	w.running = false
	return nil
}

func (w *scriptedWindow) ProcessMessages() {
	for i := 0; i < w.frames && w.running; i++ {
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

// stubRenderer records the calls made by the engine.
type stubRenderer struct {
	renders   int
	presents  int
	closes    int
	resizes   [][2]int
	renderErr error
	result    renderer.Result
	store     tracestore.Store
}

var _ renderer.Renderer = &stubRenderer{}

func (r *stubRenderer) Render(store tracestore.Store, job *renderer.RenderJob) (renderer.Result, error) {
	r.renders++
	r.store = store
	return r.result, r.renderErr
}

func (r *stubRenderer) Resize(width, height int) error {
	r.resizes = append(r.resizes, [2]int{width, height})
	return nil
}

func (r *stubRenderer) CreateBundle(tracestore.Store, float64, float64, []bundle.Descriptor) (bundle.Handle, error) {
	return 0, nil
}

func (r *stubRenderer) UpdateBundle(tracestore.Store, bundle.Handle, []bundle.Descriptor, []tracestore.Handle, []bundle.Descriptor) error {
	return nil
}

func (r *stubRenderer) DisposeBundle(bundle.Handle) {}

func (r *stubRenderer) Present() error {
	r.presents++
	return nil
}

func (r *stubRenderer) Close() { r.closes++ }

func newTestEngine(t *testing.T, frames int, opts ...EngineBuilderOption) (*engine, *scriptedWindow, *stubRenderer) {
	t.Helper()
	w := &scriptedWindow{frames: frames, running: true}
	r := &stubRenderer{}
	e, err := NewEngine(append([]EngineBuilderOption{WithWindow(w), WithRenderer(r)}, opts...)...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e.(*engine), w, r
}

func TestRunRendersAndPresentsEachFrame(t *testing.T) {
	store := tracestore.NewMemoryStore()
	e, w, r := newTestEngine(t, 3, WithStore(store))
	r.result = renderer.Result{Skipped: []renderer.SkippedTrace{{Trace: 7}}}

	var results int
	e.SetFrameCallback(func(float32) *renderer.RenderJob { return &renderer.RenderJob{} })
	e.SetResultCallback(func(_ *renderer.RenderJob, res renderer.Result) {
		results++
		if len(res.Skipped) != 1 {
			t.Errorf("result skipped = %v", res.Skipped)
		}
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.renders != 3 || r.presents != 3 || results != 3 {
		t.Errorf("renders=%d presents=%d results=%d, want 3 each", r.renders, r.presents, results)
	}
	if r.store != store {
		t.Error("Render did not receive the configured store")
	}
	if r.closes != 1 || w.closed != 1 {
		t.Errorf("closes renderer=%d window=%d, want 1 each", r.closes, w.closed)
	}
}

func TestNilJobSkipsFrame(t *testing.T) {
	e, _, r := newTestEngine(t, 4)
	n := 0
	e.SetFrameCallback(func(float32) *renderer.RenderJob {
		n++
		if n%2 == 0 {
			return nil
		}
		return &renderer.RenderJob{}
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.renders != 2 || r.presents != 2 {
		t.Errorf("renders=%d presents=%d, want 2 each", r.renders, r.presents)
	}
}

func TestRenderErrors(t *testing.T) {
	failure := errors.New("device lost")
	tests := []struct {
		name         string
		err          error
		wantRenders  int
		wantPresents int
		wantErr      error
	}{
		{name: "invalid job keeps running", err: renderer.ErrInvalidJob, wantRenders: 3, wantPresents: 0},
		{name: "backend failure stops the loop", err: failure, wantRenders: 1, wantPresents: 0, wantErr: failure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, w, r := newTestEngine(t, 3)
			r.renderErr = tt.err
			e.SetFrameCallback(func(float32) *renderer.RenderJob { return &renderer.RenderJob{} })

			err := e.Run()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Run: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run error = %v, want %v", err, tt.wantErr)
			}
			if r.renders != tt.wantRenders || r.presents != tt.wantPresents {
				t.Errorf("renders=%d presents=%d, want %d and %d", r.renders, r.presents, tt.wantRenders, tt.wantPresents)
			}
			if w.closed != 1 {
				t.Errorf("window closed %d times, want 1", w.closed)
			}
		})
	}
}

func TestQuitStopsAfterCurrentFrame(t *testing.T) {
	e, _, r := newTestEngine(t, 10)
	e.SetFrameCallback(func(float32) *renderer.RenderJob {
		if r.renders == 1 {
			e.Quit()
		}
		return &renderer.RenderJob{}
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.renders != 2 {
		t.Errorf("renders = %d, want 2", r.renders)
	}
}

func TestResizeForwardsToRenderer(t *testing.T) {
	_, w, r := newTestEngine(t, 0)
	w.onResize(800, 600)
	w.onResize(1024, 768)

	want := [][2]int{{800, 600}, {1024, 768}}
	if len(r.resizes) != len(want) {
		t.Fatalf("resizes = %v, want %v", r.resizes, want)
	}
	for i := range want {
		if r.resizes[i] != want[i] {
			t.Errorf("resize %d = %v, want %v", i, r.resizes[i], want[i])
		}
	}
}

func TestFrameDuration(t *testing.T) {
	tests := []struct {
		fps  float64
		want string
	}{
		{fps: 0, want: "0s"},
		{fps: -5, want: "0s"},
		{fps: 50, want: "20ms"},
		{fps: 0.5, want: "2s"},
	}
	for _, tt := range tests {
		if got := frameDuration(tt.fps).String(); got != tt.want {
			t.Errorf("frameDuration(%v) = %s, want %s", tt.fps, got, tt.want)
		}
	}
}
