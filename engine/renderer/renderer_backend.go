package renderer

import (
	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/bundle"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/pipeline"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return "unknown"
	}
}

// RendererBackend is the GPU side of the renderer. It owns the device, the off-screen render
// target and the presentation surface.
//
// Draw calls are recorded between BeginFrame and EndFrame and submitted together by EndFrame.
// Uniform blocks and scratch vertices passed to a draw are copied, so callers may reuse their
// slices immediately.
type RendererBackend interface {
	bundle.Allocator

	// LineWidthCeiling returns the widest line the backend draws natively, in pixels.
	LineWidthCeiling() float32

	// RegisterPipelines creates the GPU pipeline object for each pipeline and stores it on the
	// pipeline via SetRenderPipeline.
	//
	// Parameters:
	//   - pipelines: the pipelines to create
	//
	// Returns:
	//   - error: an error if a shader module, layout or pipeline cannot be created
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// ConfigureSurface sizes the presentation surface and recreates the off-screen target.
	// Vertex buffers are not touched.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the off-screen target cannot be created
	ConfigureSurface(width, height int) error

	// BeginFrame starts recording a frame.
	//
	// Parameters:
	//   - clear: true to clear the target before drawing, false to draw over the previous frame
	//   - color: the clear color
	//
	// Returns:
	//   - error: an error if a frame is already in progress
	BeginFrame(clear bool, color common.Color) error

	// SetViewport restricts the following draws to a rectangle of the target, in pixels with a
	// top-left origin. The rectangle is clamped to the target.
	//
	// Parameters:
	//   - rect: the viewport
	SetViewport(rect common.Rect)

	// Draw records a draw of count vertices from a resident vertex buffer. Instanced pipelines
	// draw one instance per vertex instead.
	//
	// Parameters:
	//   - p: the pipeline to draw with
	//   - uniforms: the encoded uniform block for p's program
	//   - vb: the vertex buffer
	//   - count: the number of vertices to draw
	Draw(p pipeline.Pipeline, uniforms []byte, vb buffer.VertexBuffer, count int)

	// DrawScratch records a draw of vertices copied into the frame's scratch buffer.
	//
	// Parameters:
	//   - p: the pipeline to draw with
	//   - uniforms: the encoded uniform block for p's program
	//   - vertices: flattened x, y pairs
	DrawScratch(p pipeline.Pipeline, uniforms []byte, vertices []float32)

	// EndFrame uploads the frame's uniforms and scratch vertices, replays every recorded command
	// in one render pass and submits it.
	//
	// Returns:
	//   - error: ErrNoFrame without a frame in progress, or a submission error
	EndFrame() error

	// Present copies the off-screen target to the surface and presents it. It is a no-op until a
	// frame has been submitted.
	//
	// Returns:
	//   - error: an error if the surface texture cannot be acquired
	Present() error

	// Release frees every GPU object owned by the backend. Vertex buffers handed out by
	// CreateVertexBuffer must be released first.
	Release()
}
