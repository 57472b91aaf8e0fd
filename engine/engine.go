package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/profiler"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer"
	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
	"github.com/Carmen-Shannon/oxy-chart/engine/window"
)

// FrameFunc builds the job for the next frame. Returning nil skips rendering and keeps the
// previously presented image on screen.
type FrameFunc func(deltaTime float32) *renderer.RenderJob

// ResultFunc receives the outcome of each rendered frame, typically to lay out tick labels.
type ResultFunc func(job *renderer.RenderJob, result renderer.Result)

// engine implements the Engine interface.
// Every renderer call happens on the thread running the window message loop.
type engine struct {
	window   window.Window
	renderer renderer.Renderer
	store    tracestore.Store

	windowOptions   []window.WindowBuilderOption
	rendererOptions []renderer.RendererBuilderOption

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameCallback  FrameFunc
	resultCallback ResultFunc

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time
	quit             bool
	runErr           error
}

// Engine drives a chart: it owns the window and the renderer, asks the application for a
// RenderJob each frame, renders it and presents it.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer used to draw frames. Use it to create and dispose bundles.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Store returns the trace store passed to every Render call.
	//
	// Returns:
	//   - tracestore.Store: the trace store
	Store() tracestore.Store

	// EnableProfiler enables frame statistics logging.
	EnableProfiler()

	// DisableProfiler disables frame statistics logging.
	DisableProfiler()

	// SetFrameCallback registers the function that builds each frame's job.
	//
	// Parameters:
	//   - callback: function called once per frame with the delta time in seconds
	SetFrameCallback(callback FrameFunc)

	// SetResultCallback registers the function that receives each frame's ticks and skipped references.
	//
	// Parameters:
	//   - callback: function called after every successful Render
	SetResultCallback(callback ResultFunc)

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run runs the message loop until the window closes or Quit is called, then closes the
	// renderer and the window.
	//
	// Returns:
	//   - error: the first error that stopped the loop, if any
	Run() error

	// Quit stops the loop after the current frame. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine. Without WithWindow a window is created from the window options,
// and without WithRenderer a renderer is created for that window from the renderer options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if the window or the renderer cannot be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		profiler: profiler.NewProfiler(time.Second),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		w, err := window.NewWindow(e.windowOptions...)
		if err != nil {
			return nil, err
		}
		e.window = w
	}
	if e.renderer == nil {
		r, err := renderer.NewRenderer(e.window, e.rendererOptions...)
		if err != nil {
			return nil, errors.Join(err, e.window.Close())
		}
		e.renderer = r
	}
	if e.store == nil {
		e.store = tracestore.NewMemoryStore()
	}

	e.window.SetResizeCallback(func(width, height int) {
		if err := e.renderer.Resize(width, height); err != nil {
			common.Logger().Error("resize failed", "width", width, "height", height, "error", err)
		}
	})

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Store() tracestore.Store {
	return e.store
}

func (e *engine) Run() error {
	e.lastFrame = time.Now()
	e.window.SetUpdateCallback(e.frame)
	e.window.ProcessMessages()

	e.renderer.Close()
	if err := e.window.Close(); err != nil {
		e.runErr = errors.Join(e.runErr, err)
	}
	return e.runErr
}

func (e *engine) Quit() {
	e.quit = true
	e.window.RequestClose()
}

// frame renders and presents one frame. Invalid jobs are logged and skipped; any other render
// or present failure stops the loop.
func (e *engine) frame() {
	if e.quit {
		return
	}

	now := time.Now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	if e.frameCallback == nil {
		return
	}
	job := e.frameCallback(dt)
	if job == nil {
		e.limit(now)
		return
	}

	result, err := e.renderer.Render(e.store, job)
	switch {
	case errors.Is(err, renderer.ErrInvalidJob):
		common.Logger().Debug("frame skipped", "error", err)
		e.limit(now)
		return
	case err != nil:
		e.stop(fmt.Errorf("render: %w", err))
		return
	}
	if e.resultCallback != nil {
		e.resultCallback(job, result)
	}
	if err := e.renderer.Present(); err != nil {
		e.stop(fmt.Errorf("present: %w", err))
		return
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(time.Since(now), len(result.Skipped))
	}
	e.limit(now)
}

// stop records err and asks the window to close.
func (e *engine) stop(err error) {
	common.Logger().Error("chart loop stopped", "error", err)
	e.runErr = err
	e.Quit()
}

// limit sleeps out the remainder of the frame budget when a frame limit is set.
func (e *engine) limit(start time.Time) {
	if e.renderFrameLimit <= 0 {
		return
	}
	if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
		time.Sleep(remaining)
	}
}

// EnableProfiler enables frame statistics logging.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables frame statistics logging.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetFrameCallback(callback FrameFunc) {
	e.frameCallback = callback
}

func (e *engine) SetResultCallback(callback ResultFunc) {
	e.resultCallback = callback
}

// SetRenderFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

// frameDuration converts a frame rate to the minimum frame duration, 0 meaning uncapped.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
