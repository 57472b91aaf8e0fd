package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/axis"
	"github.com/Carmen-Shannon/oxy-chart/engine/bundle"
	"github.com/Carmen-Shannon/oxy-chart/engine/linewidth"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-chart/engine/ticks"
	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
	"github.com/Carmen-Shannon/oxy-chart/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// areaShade dims the fill color and sets its opacity.
const areaShade = 0.5

// markerSize is the edge length of a point marker in pixels.
const markerSize = 8

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend  RendererBackend
	programs pipeline.Manager
	bundles  bundle.Store
	emulator linewidth.Emulator

	linePipeline   pipeline.Pipeline
	areaPipeline   pipeline.Pipeline
	markerPipeline pipeline.Pipeline
	axisPipeline   pipeline.Pipeline

	width, height int

	// frame state, valid while Render runs
	surface common.Rect

	rendered bool
	closed   bool

	// Pre-creation config collected from builder options
	areaChart            bool
	prepWorkers          int
	prepPool             worker.DynamicWorkerPool
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// Renderer draws time-series charts onto an off-screen target and presents them.
//
// Traces that change rarely live in bundles: their samples are shifted by the bundle's origin and
// uploaded once, and every later frame only supplies the offset between that origin and the view.
// Traces that change every frame are listed in the job and fetched directly.
//
// A Renderer is owned by the goroutine that created it. None of its methods may be called
// concurrently.
type Renderer interface {
	// Render draws one frame: background, axes, grid, bundled traces, then ephemeral traces.
	// Unknown bundles and traces are left out and reported in Result.Skipped.
	//
	// Parameters:
	//   - store: resolves ephemeral trace handles
	//   - job: the frame description
	//
	// Returns:
	//   - Result: the tick sets used for the frame and any skipped references
	//   - error: ErrInvalidJob, ErrClosed, or a backend error
	Render(store tracestore.Store, job *RenderJob) (Result, error)

	// Resize reconfigures the presentation surface and the off-screen target.
	// Bundles are not touched.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the target cannot be recreated
	Resize(width, height int) error

	// CreateBundle uploads a group of traces sharing the origin from.
	//
	// Parameters:
	//   - store: resolves trace handles
	//   - from: the bundle origin and first x fetched
	//   - to: the last x fetched
	//   - entries: the traces to include, in stacking order
	//
	// Returns:
	//   - bundle.Handle: the new bundle
	//   - error: a *UnknownTraceError, ErrDuplicateTrace, ErrResourceExhausted or ErrClosed
	CreateBundle(store tracestore.Store, from, to float64, entries []bundle.Descriptor) (bundle.Handle, error)

	// UpdateBundle adds, removes and restyles traces of a bundle. Only added traces are uploaded.
	//
	// Parameters:
	//   - store: resolves handles in add
	//   - h: the bundle
	//   - add: traces to upload and append
	//   - del: traces to remove
	//   - modify: new width, color and points mode for existing traces
	//
	// Returns:
	//   - error: ErrUnknownBundle, a *UnknownTraceError, ErrDuplicateTrace, ErrResourceExhausted or ErrClosed
	UpdateBundle(store tracestore.Store, h bundle.Handle, add []bundle.Descriptor, del []tracestore.Handle, modify []bundle.Descriptor) error

	// DisposeBundle releases a bundle's buffers. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the bundle
	DisposeBundle(h bundle.Handle)

	// Present shows the last rendered frame. It does nothing before the first frame.
	//
	// Returns:
	//   - error: an error if the surface cannot be presented
	Present() error

	// Close disposes every bundle, stops the preparation workers and releases the GPU device.
	// Further calls are no-ops.
	Close()
}

var (
	_ Renderer    = &renderer{}
	_ axis.Target = &renderer{}
)

// NewRenderer creates a Renderer drawing into the given window.
//
// Parameters:
//   - win: the window providing the presentation surface and its initial size
//   - options: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: an error wrapping ErrInitialization
func NewRenderer(win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(options...)

	backend, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, r.presentMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if err := r.init(backend, win.Width(), win.Height()); err != nil {
		backend.Release()
		return nil, err
	}
	return r, nil
}

// newRenderer applies options to a renderer that has no backend yet.
func newRenderer(options ...RendererBuilderOption) *renderer {
	r := &renderer{
		presentMode: PresentModeVSync,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// init loads the programs, creates their pipelines on the backend and sizes the target.
func (r *renderer) init(backend RendererBackend, width, height int) error {
	programs, err := pipeline.NewManager()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if err := backend.RegisterPipelines(programs.Pipelines()...); err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	for _, want := range []struct {
		dst      *pipeline.Pipeline
		program  pipeline.Program
		topology wgpu.PrimitiveTopology
	}{
		{&r.linePipeline, pipeline.ProgramTrace, wgpu.PrimitiveTopologyLineStrip},
		{&r.areaPipeline, pipeline.ProgramTrace, wgpu.PrimitiveTopologyTriangleStrip},
		{&r.markerPipeline, pipeline.ProgramMarker, wgpu.PrimitiveTopologyTriangleList},
		{&r.axisPipeline, pipeline.ProgramAxis, wgpu.PrimitiveTopologyLineList},
	} {
		pl, ok := programs.Pipeline(want.program, want.topology)
		if !ok {
			return fmt.Errorf("%w: no %s pipeline for topology %d", ErrInitialization, want.program, want.topology)
		}
		*want.dst = pl
	}

	if err := backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	opts := []bundle.StoreBuilderOption{bundle.WithAreaChart(r.areaChart)}
	if r.prepWorkers > 0 {
		opts = append(opts, bundle.WithPrepWorkers(r.prepWorkers))
	}
	if r.prepPool != nil {
		opts = append(opts, bundle.WithWorkerPool(r.prepPool))
	}

	r.backend = backend
	r.programs = programs
	r.bundles = bundle.NewStore(backend, opts...)
	r.emulator = linewidth.NewEmulator(backend.LineWidthCeiling())
	r.width, r.height = width, height
	return nil
}

func (r *renderer) Render(store tracestore.Store, job *RenderJob) (Result, error) {
	if r.closed {
		return Result{}, ErrClosed
	}
	if err := job.validate(); err != nil {
		return Result{}, err
	}

	palette := axis.PaletteFor(job.DarkMode)
	if err := r.backend.BeginFrame(job.Clear, palette.Background); err != nil {
		return Result{}, err
	}

	res := Result{
		XTicks: ticks.Calculate(job.XFrom, job.XTo-job.XFrom),
		YTicks: ticks.Calculate(job.YFrom, job.YTo-job.YFrom),
	}
	plot := job.PlotRect()

	r.surface = common.Rect{Width: float32(job.Width), Height: float32(job.Height)}
	r.backend.SetViewport(r.surface)
	layout := axis.Layout{Plot: plot, XTicks: res.XTicks, YTicks: res.YTicks}
	if job.RenderAxes {
		axis.DrawAxes(r, layout, palette)
	}
	if job.RenderGrid {
		axis.DrawGrid(r, layout, palette)
	}

	if plot.Empty() {
		common.Logger().Debug("plot interior is empty, traces not drawn", "plot", plot)
	} else {
		r.backend.SetViewport(plot)
		res.Skipped = append(res.Skipped, r.drawBundles(job, plot)...)
		res.Skipped = append(res.Skipped, r.drawEphemeral(store, job, plot)...)
	}

	if err := r.backend.EndFrame(); err != nil {
		return Result{}, err
	}
	r.rendered = true
	return res, nil
}

// traceUniforms returns the uniform values shared by every trace draw of a frame, for vertex
// data shifted by originX.
func traceUniforms(job *RenderJob, originX float64) pipeline.TraceUniforms {
	return pipeline.TraceUniforms{
		Size:      [2]float32{float32(job.XTo - job.XFrom), float32(job.YTo - job.YFrom)},
		Origin:    [2]float32{float32(job.XFrom - originX), float32(job.YFrom)},
		Transform: pipeline.DefaultTransform,
	}
}

// drawBundles draws every non-blacklisted entry of the job's bundles.
func (r *renderer) drawBundles(job *RenderJob, plot common.Rect) []SkippedTrace {
	var skipped []SkippedTrace
	for _, h := range job.Bundles() {
		b, ok := r.bundles.Get(h)
		if !ok {
			common.Logger().Warn("skipping unknown bundle", "bundle", h.Serial())
			skipped = append(skipped, SkippedTrace{Bundle: h, Err: fmt.Errorf("%w: %s", ErrUnknownBundle, h)})
			continue
		}

		// The difference is taken in float64 so it stays exact for large origins.
		u := traceUniforms(job, b.OriginFrom)
		for _, e := range b.Entries {
			if job.IsBlacklisted(e.Trace) {
				continue
			}

			if r.bundles.AreaChart() && e.Area != nil && e.AreaVertexCount > 0 {
				fill := u
				fill.Color = e.Color.Scale(areaShade).RGBA(areaShade)
				r.backend.Draw(r.areaPipeline, r.encodeTrace(fill), e.Area, e.AreaVertexCount)
			}

			if e.VertexCount == 0 {
				continue
			}
			line := u
			line.Color = e.Color.RGBA(1)
			for _, offset := range r.emulator.Plan(e.Width, plot.Height).Offsets {
				line.ClipOffset = [2]float32{0, offset}
				r.backend.Draw(r.linePipeline, r.encodeTrace(line), e.Primary, e.VertexCount)
			}

			if e.PointsMode {
				marker := u
				marker.Color = line.Color
				marker.Marker = markerExtent(plot)
				r.backend.Draw(r.markerPipeline, r.encodeMarker(marker), e.Primary, e.VertexCount)
			}
		}
	}
	return skipped
}

// markerExtent returns the clip-space half extent of a markerSize pixel square drawn in plot.
func markerExtent(plot common.Rect) [2]float32 {
	return [2]float32{markerSize / plot.Width, markerSize / plot.Height}
}

// drawEphemeral fetches and draws the job's un-bundled traces through the scratch buffer.
func (r *renderer) drawEphemeral(store tracestore.Store, job *RenderJob, plot common.Rect) []SkippedTrace {
	var skipped []SkippedTrace
	u := traceUniforms(job, job.XFrom)
	vertices := make([]float32, 0, 256)
	for _, td := range job.EphemeralTraces() {
		if job.IsBlacklisted(td.Trace) {
			continue
		}
		t, ok := store.Trace(td.Trace)
		if !ok {
			common.Logger().Warn("skipping unknown trace", "trace", td.Trace)
			skipped = append(skipped, SkippedTrace{Trace: td.Trace, Err: &UnknownTraceError{Trace: td.Trace}})
			continue
		}

		points := tracestore.Collect(t, job.XFrom, job.XTo, job.XFrom, 0)
		if len(points) == 0 {
			continue
		}
		vertices = common.FlattenPoints(vertices[:0], points)

		line := u
		line.Color = td.Color.RGBA(1)
		for _, offset := range r.emulator.Plan(td.Width, plot.Height).Offsets {
			line.ClipOffset = [2]float32{0, offset}
			r.backend.DrawScratch(r.linePipeline, r.encodeTrace(line), vertices)
		}
	}
	return skipped
}

// DrawScreenLines draws pixel-space line segments over the whole surface with the axis program.
func (r *renderer) DrawScreenLines(vertices []float32, color common.Color) {
	u := pipeline.AxisUniforms{
		Resolution: [2]float32{r.surface.Width, r.surface.Height},
		Color:      color.RGBA(1),
	}
	loc := r.programs.AxisUniforms()
	block := make([]byte, loc.BlockSize)
	u.Encode(loc, block)
	r.backend.DrawScratch(r.axisPipeline, block, vertices)
}

func (r *renderer) encodeTrace(u pipeline.TraceUniforms) []byte {
	loc := r.programs.TraceUniforms()
	block := make([]byte, loc.BlockSize)
	u.Encode(loc, block)
	return block
}

func (r *renderer) encodeMarker(u pipeline.TraceUniforms) []byte {
	loc := r.programs.MarkerUniforms()
	block := make([]byte, loc.BlockSize)
	u.Encode(loc, block)
	return block
}

func (r *renderer) Resize(width, height int) error {
	if r.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		common.Logger().Debug("ignoring resize to an empty surface", "width", width, "height", height)
		return nil
	}
	if width == r.width && height == r.height {
		return nil
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return err
	}
	r.width, r.height = width, height
	r.rendered = false
	return nil
}

func (r *renderer) CreateBundle(store tracestore.Store, from, to float64, entries []bundle.Descriptor) (bundle.Handle, error) {
	return r.bundles.Create(store, from, to, entries)
}

func (r *renderer) UpdateBundle(store tracestore.Store, h bundle.Handle, add []bundle.Descriptor, del []tracestore.Handle, modify []bundle.Descriptor) error {
	return r.bundles.Update(store, h, add, del, modify)
}

func (r *renderer) DisposeBundle(h bundle.Handle) {
	r.bundles.Dispose(h)
}

func (r *renderer) Present() error {
	if r.closed || !r.rendered {
		return nil
	}
	return r.backend.Present()
}

func (r *renderer) Close() {
	if r.closed {
		return
	}
	r.bundles.Close()
	r.backend.Release()
	r.closed = true
}

