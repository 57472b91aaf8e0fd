package ticks

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Decimals returns the number of fraction digits needed to tell ticks spaced by step apart.
//
// Parameters:
//   - step: the tick spacing, as returned by Step
//
// Returns:
//   - int: the number of fraction digits, never negative
func Decimals(step float64) int {
	if !(step > 0) {
		return 0
	}
	d := -int(math.Floor(math.Log10(step) + 1e-9))
	return max(d, 0)
}

// Labels formats tick values for display using the number conventions of tag.
// All labels share the same number of fraction digits, derived from step.
//
// Parameters:
//   - ticks: the ticks to label
//   - step: the spacing the ticks were generated with
//   - tag: the language whose digit grouping and decimal separator are used
//
// Returns:
//   - []string: one label per tick
func Labels(ticks []Tick, step float64, tag language.Tag) []string {
	d := Decimals(step)
	p := message.NewPrinter(tag)
	out := make([]string, len(ticks))
	for i, t := range ticks {
		out[i] = p.Sprint(number.Decimal(t.Value, number.MinFractionDigits(d), number.MaxFractionDigits(d)))
	}
	return out
}
