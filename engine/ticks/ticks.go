// Package ticks computes "nice" axis tick positions for a numeric range.
//
// Ticks land on round multiples of {1, 2, 5} x 10^k and there are always fewer than ten
// of them, regardless of the magnitude of the range.
package ticks

import "math"

// maxTicks is the exclusive upper bound on the number of ticks produced for a range.
const maxTicks = 10

// multipliers are tried in order; the first one yielding fewer than maxTicks steps wins.
var multipliers = [...]float64{1, 2, 5, 10}

// Tick is a single reference point on an axis.
type Tick struct {
	// Value is the domain value of the tick.
	Value float64
	// Position is the fractional position of the tick within [start, start+width].
	Position float64
}

// Step returns the tick spacing chosen for the range [start, start+width].
// Returns 0 when width is not a positive finite number.
//
// Parameters:
//   - start: the first value of the range
//   - width: the span of the range
//
// Returns:
//   - float64: the distance between consecutive ticks
func Step(start, width float64) float64 {
	step, _ := choose(start, width)
	return step
}

// Calculate produces ticks ascending by value for the range [start, start+width].
// Returns nil when width is not a positive finite number.
//
// Parameters:
//   - start: the first value of the range
//   - width: the span of the range
//
// Returns:
//   - []Tick: the ticks, each with a position in [0, 1]
func Calculate(start, width float64) []Tick {
	step, y0 := choose(start, width)
	if step == 0 {
		return nil
	}

	count := int(math.Floor((width + start - y0) / step))
	out := make([]Tick, 0, count)
	for i := 1; i <= count; i++ {
		v := y0 + step*float64(i)
		out = append(out, Tick{Value: v, Position: (v - start) / width})
	}
	return out
}

// choose picks the step and the snapped first value for a range.
func choose(start, width float64) (step, y0 float64) {
	if !(width > 0) || math.IsInf(width, 0) || math.IsNaN(start) || math.IsInf(start, 0) {
		return 0, 0
	}

	order := int(math.Floor(math.Log10(width))) - 1
	base := math.Pow10(order)
	for _, m := range multipliers {
		step = base * m
		y0 = math.Floor(start/step) * step
		if math.Floor((width+start-y0)/step) < maxTicks {
			return step, y0
		}
	}
	return step, y0
}
