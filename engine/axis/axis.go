// Package axis builds the screen-space geometry for a chart's axis frame, tick marks and
// background grid. All coordinates are in pixels with the origin at the top-left corner of the
// surface, and every position is snapped to the nearest half pixel so 1-pixel lines stay crisp.
package axis

import (
	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/ticks"
)

// DefaultTickLength is the length in pixels of a tick mark.
const DefaultTickLength = 4

// Palette holds the colors used for one color scheme.
type Palette struct {
	Background common.Color
	Axis       common.Color
	Grid       common.Color
}

// The axis frame and tick marks are the same gray in both schemes; only the grid and the
// background change.
var (
	axisGray = common.Color{R: 0.3, G: 0.3, B: 0.3}

	darkPalette = Palette{
		Background: common.Color{R: 0.1, G: 0.1, B: 0.1},
		Axis:       axisGray,
		Grid:       common.Color{R: 0.3, G: 0.3, B: 0.3},
	}
	lightPalette = Palette{
		Background: common.Color{R: 1, G: 1, B: 1},
		Axis:       axisGray,
		Grid:       common.Color{R: 0.85, G: 0.85, B: 0.85},
	}
)

// PaletteFor returns the dark or light palette.
//
// Parameters:
//   - dark: true for the dark scheme
//
// Returns:
//   - Palette: the colors for the scheme
func PaletteFor(dark bool) Palette {
	if dark {
		return darkPalette
	}
	return lightPalette
}

// Target receives screen-space line lists.
type Target interface {
	// DrawScreenLines draws pairs of pixel-space vertices as independent line segments.
	//
	// Parameters:
	//   - vertices: flattened x, y pairs, two vertices per segment
	//   - color: the line color
	DrawScreenLines(vertices []float32, color common.Color)
}

// Layout is the plot interior and the ticks placed along it.
type Layout struct {
	// Plot is the plot interior in pixels.
	Plot common.Rect
	// XTicks are placed left to right along the bottom edge.
	XTicks []ticks.Tick
	// YTicks are placed bottom to top along the left edge.
	YTicks []ticks.Tick
	// TickLength is the tick mark length in pixels, DefaultTickLength when zero.
	TickLength float32
}

func (l Layout) left() float32   { return common.RoundHalfPixel(float64(l.Plot.X)) }
func (l Layout) right() float32  { return common.RoundHalfPixel(float64(l.Plot.X + l.Plot.Width)) }
func (l Layout) top() float32    { return common.RoundHalfPixel(float64(l.Plot.Y)) }
func (l Layout) bottom() float32 { return common.RoundHalfPixel(float64(l.Plot.Y + l.Plot.Height)) }

// xAt returns the snapped pixel column of a fractional x position.
func (l Layout) xAt(pos float64) float32 {
	return common.RoundHalfPixel(common.Lerp(float64(l.Plot.X), float64(l.Plot.X+l.Plot.Width), pos))
}

// yAt returns the snapped pixel row of a fractional y position. Position 0 is the bottom edge.
func (l Layout) yAt(pos float64) float32 {
	return common.RoundHalfPixel(common.Lerp(float64(l.Plot.Y+l.Plot.Height), float64(l.Plot.Y), pos))
}

func (l Layout) tickLength() float32 {
	if l.TickLength > 0 {
		return l.TickLength
	}
	return DefaultTickLength
}

// Frame returns the L-shaped axis frame as a line list: the left edge from the top-left to the
// bottom-left corner, then the bottom edge to the bottom-right corner.
//
// Returns:
//   - []float32: two segments, eight floats
func (l Layout) Frame() []float32 {
	left, right, top, bottom := l.left(), l.right(), l.top(), l.bottom()
	return []float32{
		left, top, left, bottom,
		left, bottom, right, bottom,
	}
}

// TickMarks returns short marks outside the plot: downward from the bottom edge at every x tick
// and leftward from the left edge at every y tick.
//
// Returns:
//   - []float32: one segment per tick
func (l Layout) TickMarks() []float32 {
	length := l.tickLength()
	left, bottom := l.left(), l.bottom()

	out := make([]float32, 0, (len(l.XTicks)+len(l.YTicks))*4)
	for _, t := range l.XTicks {
		x := l.xAt(t.Position)
		out = append(out, x, bottom, x, bottom+length)
	}
	for _, t := range l.YTicks {
		y := l.yAt(t.Position)
		out = append(out, left-length, y, left, y)
	}
	return out
}

// GridLines returns lines spanning the plot interior: vertical at every x tick and horizontal
// at every y tick.
//
// Returns:
//   - []float32: one segment per tick
func (l Layout) GridLines() []float32 {
	left, right, top, bottom := l.left(), l.right(), l.top(), l.bottom()

	out := make([]float32, 0, (len(l.XTicks)+len(l.YTicks))*4)
	for _, t := range l.XTicks {
		x := l.xAt(t.Position)
		out = append(out, x, top, x, bottom)
	}
	for _, t := range l.YTicks {
		y := l.yAt(t.Position)
		out = append(out, left, y, right, y)
	}
	return out
}

// DrawAxes draws the frame and tick marks in the palette's axis color.
//
// Parameters:
//   - target: receives the line lists
//   - l: the plot layout
//   - p: the palette
func DrawAxes(target Target, l Layout, p Palette) {
	if l.Plot.Empty() {
		return
	}
	target.DrawScreenLines(l.Frame(), p.Axis)
	if marks := l.TickMarks(); len(marks) > 0 {
		target.DrawScreenLines(marks, p.Axis)
	}
}

// DrawGrid draws the grid lines in the palette's grid color.
//
// Parameters:
//   - target: receives the line list
//   - l: the plot layout
//   - p: the palette
func DrawGrid(target Target, l Layout, p Palette) {
	if l.Plot.Empty() {
		return
	}
	if lines := l.GridLines(); len(lines) > 0 {
		target.DrawScreenLines(lines, p.Grid)
	}
}
