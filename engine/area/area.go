// Package area builds triangle-strip geometry for stacked area fills.
package area

import "github.com/Carmen-Shannon/oxy-chart/common"

// Baseline holds, for each sample index, the top of the area stacked so far.
// The zero value is a flat baseline at y = 0.
type Baseline []float32

// At returns the baseline height at index i, or 0 if the baseline is shorter than i.
//
// Parameters:
//   - i: the sample index
//
// Returns:
//   - float32: the stacked height at i
func (b Baseline) At(i int) float32 {
	if i < len(b) {
		return b[i]
	}
	return 0
}

// VertexCount returns the number of strip vertices Build produces for n curve points.
//
// Parameters:
//   - n: the number of curve points
//
// Returns:
//   - int: (n-1)*4 + 1, or 0 when n < 2
func VertexCount(n int) int {
	if n < 2 {
		return 0
	}
	return (n-1)*4 + 1
}

// Build stacks points on baseline and produces the triangle strip filling the region between
// the two, plus the baseline the next series is built on.
//
// Each curve point is lifted by the baseline height at its index, so the top edge of the strip
// is the running total of every series stacked so far. The strip starts at the first baseline
// point. Each adjacent pair i, i+1 then contributes top(i), base(i+1), top(i+1), base(i+1), so
// consecutive triangles cover the quad between the two edges and the joints between pairs are
// degenerate.
//
// The input baseline is not modified. The returned baseline holds the lifted heights for the
// first len(points) indices and keeps any longer tail of the input. Callers drawing the series'
// line on top of its fill use those lifted heights as the line's y values.
//
// Parameters:
//   - points: the origin-shifted curve points
//   - baseline: the accumulated heights of the series stacked below this one
//
// Returns:
//   - []float32: flattened x, y strip vertices, nil when fewer than two points are given
//   - Baseline: the accumulated heights including this series
func Build(points []common.Point, baseline Baseline) ([]float32, Baseline) {
	next := make(Baseline, max(len(baseline), len(points)))
	copy(next, baseline)
	for i, p := range points {
		next[i] = baseline.At(i) + p.Y
	}

	if len(points) < 2 {
		return nil, next
	}

	out := make([]float32, 0, VertexCount(len(points))*2)
	out = append(out, points[0].X, baseline.At(0))
	for i := 0; i < len(points)-1; i++ {
		x0, x1 := points[i].X, points[i+1].X
		base := baseline.At(i + 1)
		out = append(out,
			x0, next[i],
			x1, base,
			x1, next[i+1],
			x1, base,
		)
	}
	return out, next
}
