package pipeline

import "github.com/Carmen-Shannon/oxy-chart/engine/renderer/shader"

// Program identifies one of the fixed shader programs.
type Program int

const (
	// ProgramTrace draws origin-shifted series data.
	ProgramTrace Program = iota

	// ProgramAxis draws screen-space axis frames, tick marks and grid lines.
	ProgramAxis

	// ProgramMarker draws a fixed-size square around every sample of a trace.
	ProgramMarker
)

// String returns the program's name.
func (p Program) String() string {
	switch p {
	case ProgramTrace:
		return "trace"
	case ProgramAxis:
		return "axis"
	case ProgramMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// Source returns the embedded WGSL file backing the program.
//
// Returns:
//   - string: the file name passed to shader.Load
func (p Program) Source() string {
	switch p {
	case ProgramAxis:
		return shader.AxisSource
	case ProgramMarker:
		return shader.MarkerSource
	default:
		return shader.TraceSource
	}
}
