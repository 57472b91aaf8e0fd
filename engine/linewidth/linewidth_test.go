package linewidth

import (
	"math"
	"testing"
)

func TestPlanNative(t *testing.T) {
	e := NewEmulator(1)
	for _, w := range []float32{0.5, 1, 1.05} {
		p := e.Plan(w, 600)
		if !p.Native || p.Passes() != 1 || p.Offsets[0] != 0 {
			t.Errorf("width %v: plan = %+v, want one native pass", w, p)
		}
	}
}

func TestPlanEmulated(t *testing.T) {
	e := NewEmulator(1)
	tests := []struct {
		width  float32
		passes int
	}{
		{1.2, 1},
		{2, 2},
		{3, 3},
		{6, 6},
		{6.4, 6},
		{6.5, 7},
	}
	for _, tt := range tests {
		p := e.Plan(tt.width, 400)
		if p.Native {
			t.Errorf("width %v: expected emulation", tt.width)
		}
		if p.Passes() != tt.passes {
			t.Errorf("width %v: %d passes, want %d", tt.width, p.Passes(), tt.passes)
		}
	}
}

func TestPlanSymmetric(t *testing.T) {
	e := NewEmulator(1)
	const height = 500
	for _, w := range []float32{2, 3, 6} {
		p := e.Plan(w, height)
		n := p.Passes()
		for i := 0; i < n/2; i++ {
			lo, hi := p.Offsets[i], p.Offsets[n-1-i]
			if math.Abs(float64(lo+hi)) > 1e-6 {
				t.Errorf("width %v: offsets %v and %v are not mirrored", w, lo, hi)
			}
		}
		// Adjacent passes are one pixel apart in clip space.
		step := p.Offsets[1] - p.Offsets[0]
		if math.Abs(float64(step-2.0/height)) > 1e-6 {
			t.Errorf("width %v: step = %v, want %v", w, step, 2.0/height)
		}
	}
}

func TestPlanOffsetsCentered(t *testing.T) {
	e := NewEmulator(1)
	const height = 100
	tests := []struct {
		width float32
		want  []float32
	}{
		{2, []float32{-0.01, 0.01}},
		{3, []float32{-0.02, 0, 0.02}},
		{4, []float32{-0.03, -0.01, 0.01, 0.03}},
	}
	for _, tt := range tests {
		p := e.Plan(tt.width, height)
		if len(p.Offsets) != len(tt.want) {
			t.Fatalf("width %v: offsets %v, want %v", tt.width, p.Offsets, tt.want)
		}
		for i, want := range tt.want {
			if math.Abs(float64(p.Offsets[i]-want)) > 1e-6 {
				t.Errorf("width %v: offset %d = %v, want %v", tt.width, i, p.Offsets[i], want)
			}
		}
	}
}

func TestPlanCeilingPlusFive(t *testing.T) {
	e := NewEmulator(1)
	if e.Ceiling() != 1 {
		t.Fatalf("Ceiling() = %v", e.Ceiling())
	}
	if p := e.Plan(e.Ceiling()+0.05, 300); !p.Native || p.Passes() != 1 {
		t.Errorf("ceiling+0.05: %+v", p)
	}
	if p := e.Plan(e.Ceiling()+5, 300); p.Native || p.Passes() != 6 {
		t.Errorf("ceiling+5: %+v", p)
	}
}
