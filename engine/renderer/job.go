package renderer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/bundle"
	"github.com/Carmen-Shannon/oxy-chart/engine/ticks"
	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
)

// TraceDescriptor asks for one trace to be fetched and drawn directly, outside any bundle.
type TraceDescriptor struct {
	Trace tracestore.Handle
	Width float32
	Color common.Color
}

// RenderJob describes one frame. It is owned by the caller and only read by the renderer.
type RenderJob struct {
	// Width and Height are the viewport size in pixels.
	Width, Height int

	// Margins is the empty space around the plot.
	Margins common.Margins

	// XLabelSpace is reserved below the plot and YLabelSpace left of it, for tick labels.
	XLabelSpace, YLabelSpace float32

	// XFrom, XTo, YFrom and YTo are the visible domain.
	XFrom, XTo float64
	YFrom, YTo float64

	Clear      bool
	RenderAxes bool
	RenderGrid bool
	DarkMode   bool

	BundleHandles []bundle.Handle
	Traces        []TraceDescriptor

	// Blacklist hides traces wherever they appear.
	Blacklist map[tracestore.Handle]struct{}
}

// IsBlacklisted reports whether a trace is hidden for this frame.
//
// Parameters:
//   - h: the trace handle
//
// Returns:
//   - bool: true if the trace must not be drawn
func (j *RenderJob) IsBlacklisted(h tracestore.Handle) bool {
	_, ok := j.Blacklist[h]
	return ok
}

// Bundles returns the bundles to draw, in order.
func (j *RenderJob) Bundles() []bundle.Handle {
	return j.BundleHandles
}

// EphemeralTraces returns the traces to fetch and draw directly.
func (j *RenderJob) EphemeralTraces() []TraceDescriptor {
	return j.Traces
}

// PlotRect returns the plot interior in pixels, top-left origin: the viewport minus the margins
// and the label reservations.
//
// Returns:
//   - common.Rect: the plot interior, possibly empty
func (j *RenderJob) PlotRect() common.Rect {
	m := j.Margins
	return common.Rect{
		X:      m.Left + j.YLabelSpace,
		Y:      m.Top,
		Width:  float32(j.Width) - m.Left - m.Right - j.YLabelSpace,
		Height: float32(j.Height) - m.Top - m.Bottom - j.XLabelSpace,
	}
}

// validate checks the viewport and both ranges.
func (j *RenderJob) validate() error {
	if j.Width <= 0 || j.Height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidJob, j.Width, j.Height)
	}
	if !(j.XTo > j.XFrom) || math.IsInf(j.XTo-j.XFrom, 0) {
		return fmt.Errorf("%w: x range [%v, %v]", ErrInvalidJob, j.XFrom, j.XTo)
	}
	if !(j.YTo > j.YFrom) || math.IsInf(j.YTo-j.YFrom, 0) {
		return fmt.Errorf("%w: y range [%v, %v]", ErrInvalidJob, j.YFrom, j.YTo)
	}
	return nil
}

// SkippedTrace is a reference the renderer could not resolve and left out of the frame.
type SkippedTrace struct {
	// Bundle is set when a whole bundle was skipped.
	Bundle bundle.Handle
	// Trace is set when an ephemeral trace was skipped.
	Trace tracestore.Handle
	Err   error
}

// Result is what Render hands back to the caller's label layout.
type Result struct {
	XTicks  []ticks.Tick
	YTicks  []ticks.Tick
	Skipped []SkippedTrace
}
