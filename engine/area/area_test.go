package area

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-chart/common"
)

func TestBuildVertexCount(t *testing.T) {
	for n := 2; n <= 50; n++ {
		pts := make([]common.Point, n)
		for i := range pts {
			pts[i] = common.Point{X: float32(i), Y: float32(i % 3)}
		}
		verts, _ := Build(pts, nil)
		if got, want := len(verts)/2, (n-1)*4+1; got != want {
			t.Errorf("n=%d: %d vertices, want %d", n, got, want)
		}
		if got := VertexCount(n); got != len(verts)/2 {
			t.Errorf("VertexCount(%d) = %d, want %d", n, got, len(verts)/2)
		}
	}
}

func TestBuildTooFewPoints(t *testing.T) {
	verts, next := Build([]common.Point{{X: 1, Y: 4}}, nil)
	if verts != nil {
		t.Errorf("Build with one point returned %d floats, want nil", len(verts))
	}
	if len(next) != 1 || next[0] != 4 {
		t.Errorf("baseline = %v, want [4]", next)
	}
	if VertexCount(1) != 0 || VertexCount(0) != 0 {
		t.Error("VertexCount for n < 2 should be 0")
	}
}

func TestBuildZigzag(t *testing.T) {
	pts := []common.Point{{X: 0, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 3}}
	base := Baseline{0.5, 0.5, 0.5}
	verts, _ := Build(pts, base)

	// Curve points are lifted by the 0.5 baseline.
	want := []float32{
		0, 0.5, // first baseline point
		0, 1.5, 1, 0.5, 1, 2.5, 1, 0.5,
		1, 2.5, 2, 0.5, 2, 3.5, 2, 0.5,
	}
	if len(verts) != len(want) {
		t.Fatalf("len = %d, want %d", len(verts), len(want))
	}
	for i := range want {
		if verts[i] != want[i] {
			t.Errorf("verts[%d] = %v, want %v", i, verts[i], want[i])
		}
	}
}

func TestBuildStacksBaseline(t *testing.T) {
	first := []common.Point{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}}
	second := []common.Point{{X: 0, Y: 3}, {X: 1, Y: 4}}

	_, b1 := Build(first, nil)
	if len(b1) != 3 || b1[0] != 1 || b1[2] != 1 {
		t.Fatalf("baseline after first series = %v", b1)
	}

	verts, b2 := Build(second, b1)
	// The second series sits on the first one's curve and its top is the running total.
	if verts[1] != 1 || verts[3] != 4 {
		t.Errorf("second strip starts at y=%v with top %v, want 1 and 4", verts[1], verts[3])
	}
	if len(b2) != 3 || b2[0] != 4 || b2[1] != 5 || b2[2] != 1 {
		t.Errorf("baseline after second series = %v, want [4 5 1]", b2)
	}

	// The caller's baseline is untouched.
	if b1[0] != 1 || b1[1] != 1 {
		t.Errorf("input baseline mutated: %v", b1)
	}
}

func TestBuildEqualSeriesAccumulate(t *testing.T) {
	flat := []common.Point{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}}

	var base Baseline
	for k := 1; k <= 3; k++ {
		var verts []float32
		verts, base = Build(flat, base)

		// Every strip spans one unit: from k-1 to k.
		for i := 1; i < len(verts); i += 2 {
			y := verts[i]
			if y != float32(k-1) && y != float32(k) {
				t.Fatalf("series %d: vertex y=%v outside [%d, %d]", k, y, k-1, k)
			}
		}
		if verts[3] != float32(k) {
			t.Errorf("series %d: top starts at %v, want %d", k, verts[3], k)
		}
		for i, h := range base {
			if h != float32(k) {
				t.Errorf("series %d: baseline[%d] = %v, want %d", k, i, h, k)
			}
		}
	}
}
