package pipeline

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewManager(t *testing.T) {
	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	tu := m.TraceUniforms()
	if tu.Size.Offset != 0 || tu.Origin.Offset != 8 || tu.Transform.Offset != 16 ||
		tu.ClipOffset.Offset != 32 || tu.Marker.Offset != 40 || tu.Color.Offset != 48 || tu.BlockSize != 64 {
		t.Errorf("trace uniforms = %+v", tu)
	}
	if mu := m.MarkerUniforms(); mu != tu {
		t.Errorf("marker uniforms = %+v, want the trace layout %+v", mu, tu)
	}
	au := m.AxisUniforms()
	if au.Resolution.Offset != 0 || au.Color.Offset != 16 || au.BlockSize != 32 {
		t.Errorf("axis uniforms = %+v", au)
	}

	if got := len(m.Pipelines()); got != 4 {
		t.Fatalf("got %d pipelines, want 4", got)
	}

	tests := []struct {
		program  Program
		topology wgpu.PrimitiveTopology
		blend    bool
		instance uint32
	}{
		{ProgramTrace, wgpu.PrimitiveTopologyLineStrip, false, 0},
		{ProgramTrace, wgpu.PrimitiveTopologyTriangleStrip, true, 0},
		{ProgramMarker, wgpu.PrimitiveTopologyTriangleList, false, MarkerCorners},
		{ProgramAxis, wgpu.PrimitiveTopologyLineList, false, 0},
	}
	for _, tt := range tests {
		p, ok := m.Pipeline(tt.program, tt.topology)
		if !ok {
			t.Errorf("%s/%v missing", tt.program, tt.topology)
			continue
		}
		if p.Topology() != tt.topology || p.BlendEnabled() != tt.blend || p.Program() != tt.program {
			t.Errorf("%s: topology %v blend %v program %v", p.PipelineKey(), p.Topology(), p.BlendEnabled(), p.Program())
		}
		if p.Shader() != m.Shader(tt.program) {
			t.Errorf("%s: shader mismatch", p.PipelineKey())
		}
		if p.InstanceVertices() != tt.instance {
			t.Errorf("%s: %d vertices per instance, want %d", p.PipelineKey(), p.InstanceVertices(), tt.instance)
		}
	}
	if _, ok := m.Pipeline(ProgramTrace, wgpu.PrimitiveTopologyPointList); ok {
		t.Error("markers must not use a point list, it rasterizes at 1px")
	}

	if _, ok := m.Pipeline(ProgramAxis, wgpu.PrimitiveTopologyLineStrip); ok {
		t.Error("axis line strip should not exist")
	}
}

func TestDynamicOffsetLayouts(t *testing.T) {
	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	p, _ := m.Pipeline(ProgramTrace, wgpu.PrimitiveTopologyLineStrip)

	layouts := p.BindGroupLayoutDescriptors()
	entries := layouts[0].Entries
	if len(entries) != 1 || !entries[0].Buffer.HasDynamicOffset {
		t.Fatalf("group 0 entries = %+v", entries)
	}
	// The shader's own descriptors are left untouched.
	if p.Shader().BindGroupLayoutDescriptors()[0].Entries[0].Buffer.HasDynamicOffset {
		t.Error("shader descriptor was mutated")
	}
}

func TestInstancedVertexLayouts(t *testing.T) {
	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	tests := []struct {
		name     string
		program  Program
		topology wgpu.PrimitiveTopology
		want     wgpu.VertexStepMode
	}{
		{"line", ProgramTrace, wgpu.PrimitiveTopologyLineStrip, wgpu.VertexStepModeVertex},
		{"marker", ProgramMarker, wgpu.PrimitiveTopologyTriangleList, wgpu.VertexStepModeInstance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := m.Pipeline(tt.program, tt.topology)
			layouts := p.VertexLayouts()
			if len(layouts) != 1 {
				t.Fatalf("got %d layouts, want 1", len(layouts))
			}
			if layouts[0].StepMode != tt.want || layouts[0].ArrayStride != 8 {
				t.Errorf("layout = %+v, want step mode %v with stride 8", layouts[0], tt.want)
			}
		})
	}

	// Stepping per instance must not leak into the shared shader layouts.
	if m.Shader(ProgramMarker).VertexLayouts()[0].StepMode != wgpu.VertexStepModeVertex {
		t.Error("shader layout was mutated")
	}
}

func TestTraceUniformsEncode(t *testing.T) {
	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	loc := m.TraceUniforms()
	u := TraceUniforms{
		Size:       [2]float32{10, 20},
		Origin:     [2]float32{1, 2},
		Transform:  DefaultTransform,
		ClipOffset: [2]float32{0, 0.5},
		Marker:     [2]float32{0.25, 0.125},
		Color:      [4]float32{0.1, 0.2, 0.3, 1},
	}
	buf := make([]byte, loc.BlockSize)
	u.Encode(loc, buf)

	read := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	checks := map[int]float32{0: 10, 4: 20, 8: 1, 12: 2, 16: 2, 24: -1, 36: 0.5, 40: 0.25, 44: 0.125, 48: 0.1, 60: 1}
	for off, want := range checks {
		if got := read(off); got != want {
			t.Errorf("float at %d = %v, want %v", off, got, want)
		}
	}
}

func TestProgramSource(t *testing.T) {
	if ProgramTrace.String() != "trace" || ProgramAxis.String() != "axis" || ProgramMarker.String() != "marker" || Program(9).String() != "unknown" {
		t.Error("unexpected program names")
	}
	if ProgramAxis.Source() == ProgramTrace.Source() || ProgramMarker.Source() == ProgramTrace.Source() {
		t.Error("programs share a source")
	}
}
