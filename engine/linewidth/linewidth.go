// Package linewidth plans how to draw a line of a requested width on a backend whose native
// line width is capped.
package linewidth

import "math"

// Tolerance is how far a requested width may exceed the native ceiling and still be drawn natively.
const Tolerance = 0.1

// Plan is the set of passes used to draw one line.
type Plan struct {
	// Native is true when a single native-width draw is enough.
	Native bool
	// Offsets holds one clip-space vertical offset per pass.
	Offsets []float32
}

// Passes returns the number of draws the plan issues.
func (p Plan) Passes() int {
	return len(p.Offsets)
}

// Emulator decides between native and multi-pass line drawing.
type Emulator struct {
	ceiling float32
}

// NewEmulator creates an Emulator for a backend whose native line width cannot exceed ceiling.
//
// Parameters:
//   - ceiling: the maximum native line width, queried once at startup
//
// Returns:
//   - Emulator: the emulator
func NewEmulator(ceiling float32) Emulator {
	return Emulator{ceiling: ceiling}
}

// Ceiling returns the native line width limit.
func (e Emulator) Ceiling() float32 {
	return e.ceiling
}

// Plan returns the passes needed to draw a line of the given width.
//
// Widths up to the ceiling plus Tolerance get one native pass with no offset. Wider lines are
// drawn round(width) times, each pass shifted vertically by 2*(i - width/2 + 0.5)/viewportHeight
// in clip space, stacking 1-pixel lines into a band centred on the original line.
//
// Parameters:
//   - width: the requested line width in pixels
//   - viewportHeight: the height in pixels of the viewport the line is drawn into
//
// Returns:
//   - Plan: the passes to issue
func (e Emulator) Plan(width, viewportHeight float32) Plan {
	if width <= e.ceiling+Tolerance || viewportHeight <= 0 {
		return Plan{Native: true, Offsets: []float32{0}}
	}

	n := int(math.Round(float64(width)))
	offsets := make([]float32, n)
	for i := range offsets {
		offsets[i] = 2 * (float32(i) - width/2 + 0.5) / viewportHeight
	}
	return Plan{Offsets: offsets}
}
