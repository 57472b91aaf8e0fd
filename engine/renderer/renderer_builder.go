package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-chart/common"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithAreaChart turns on stacked area fills. Bundles created afterwards get an area buffer per
// trace and Render fills beneath every line.
//
// Parameters:
//   - enabled: true to build and draw area fills
//
// Returns:
//   - RendererBuilderOption: a function that applies the area chart option to a renderer
func WithAreaChart(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.areaChart = enabled
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithPrepWorkers sets how many workers prepare bundle vertex data in parallel.
// Defaults to one less than the number of CPUs.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count to a renderer
func WithPrepWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.prepWorkers = max(n, 1)
	}
}

// WithWorkerPool makes bundle preparation run on an existing pool instead of one the renderer
// starts itself. Close leaves the pool running.
//
// Parameters:
//   - pool: the pool to submit preparation tasks to
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker pool to a renderer
func WithWorkerPool(pool worker.DynamicWorkerPool) RendererBuilderOption {
	return func(r *renderer) {
		r.prepPool = pool
	}
}

// WithLogger installs l as the logger for every package of the module.
// A nil logger restores the silent default.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - RendererBuilderOption: a function that installs the logger
func WithLogger(l *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		common.SetLogger(l)
	}
}
