package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipelineID keys a pipeline by the program it runs and the topology it draws.
type pipelineID struct {
	program  Program
	topology wgpu.PrimitiveTopology
}

// manager is the implementation of the Manager interface.
type manager struct {
	shaders   map[Program]shader.Shader
	trace     TraceUniformLocations
	marker    TraceUniformLocations
	axis      AxisUniformLocations
	pipelines map[pipelineID]Pipeline
	ordered   []Pipeline
}

// MarkerCorners is the number of vertices the marker program draws per sample: two triangles.
const MarkerCorners = 6

// Manager owns the fixed shader programs, their uniform locations resolved once at load time,
// and one Pipeline per program and topology the renderer draws with.
type Manager interface {
	// Shader returns the parsed source of a program.
	Shader(p Program) shader.Shader

	// TraceUniforms returns the resolved trace program uniform locations.
	TraceUniforms() TraceUniformLocations

	// MarkerUniforms returns the resolved marker program uniform locations.
	MarkerUniforms() TraceUniformLocations

	// AxisUniforms returns the resolved axis program uniform locations.
	AxisUniforms() AxisUniformLocations

	// Pipeline looks up the pipeline for a program and topology.
	//
	// Parameters:
	//   - p: the program
	//   - topology: the primitive topology
	//
	// Returns:
	//   - Pipeline: the pipeline
	//   - bool: false if the combination is not part of the fixed set
	Pipeline(p Program, topology wgpu.PrimitiveTopology) (Pipeline, bool)

	// Pipelines returns every pipeline in registration order.
	Pipelines() []Pipeline
}

var _ Manager = &manager{}

// NewManager loads and parses the embedded programs, resolves their uniform locations and
// declares the fixed pipeline set: trace line strips, blended trace triangle strips for area
// fills, instanced marker triangle lists, and axis line lists.
//
// Returns:
//   - Manager: the program manager
//   - error: an error if a program fails to parse or lacks a required uniform
func NewManager() (Manager, error) {
	m := &manager{
		shaders:   make(map[Program]shader.Shader, 3),
		pipelines: make(map[pipelineID]Pipeline, 4),
	}

	for _, p := range []Program{ProgramTrace, ProgramAxis, ProgramMarker} {
		s, err := shader.Load(p.Source())
		if err != nil {
			return nil, fmt.Errorf("pipeline: load %s program: %w", p, err)
		}
		m.shaders[p] = s
	}

	var err error
	if m.trace, err = ResolveTraceUniforms(m.shaders[ProgramTrace]); err != nil {
		return nil, err
	}
	if m.marker, err = ResolveTraceUniforms(m.shaders[ProgramMarker]); err != nil {
		return nil, err
	}
	if m.axis, err = ResolveAxisUniforms(m.shaders[ProgramAxis]); err != nil {
		return nil, err
	}

	m.add(ProgramTrace, wgpu.PrimitiveTopologyLineStrip)
	m.add(ProgramTrace, wgpu.PrimitiveTopologyTriangleStrip, WithBlendEnabled(true))
	m.add(ProgramMarker, wgpu.PrimitiveTopologyTriangleList, WithInstanceVertices(MarkerCorners))
	m.add(ProgramAxis, wgpu.PrimitiveTopologyLineList)

	return m, nil
}

func (m *manager) add(p Program, topology wgpu.PrimitiveTopology, opts ...PipelineBuilderOption) {
	key := fmt.Sprintf("%s/%s", p, topologyName(topology))
	opts = append([]PipelineBuilderOption{WithTopology(topology)}, opts...)
	pl := NewPipeline(key, p, m.shaders[p], opts...)
	m.pipelines[pipelineID{p, topology}] = pl
	m.ordered = append(m.ordered, pl)
}

func (m *manager) Shader(p Program) shader.Shader {
	return m.shaders[p]
}

func (m *manager) TraceUniforms() TraceUniformLocations {
	return m.trace
}

func (m *manager) MarkerUniforms() TraceUniformLocations {
	return m.marker
}

func (m *manager) AxisUniforms() AxisUniformLocations {
	return m.axis
}

func (m *manager) Pipeline(p Program, topology wgpu.PrimitiveTopology) (Pipeline, bool) {
	pl, ok := m.pipelines[pipelineID{p, topology}]
	return pl, ok
}

func (m *manager) Pipelines() []Pipeline {
	return m.ordered
}

// topologyName returns a short label for a topology.
func topologyName(t wgpu.PrimitiveTopology) string {
	switch t {
	case wgpu.PrimitiveTopologyPointList:
		return "points"
	case wgpu.PrimitiveTopologyLineList:
		return "lines"
	case wgpu.PrimitiveTopologyLineStrip:
		return "line-strip"
	case wgpu.PrimitiveTopologyTriangleList:
		return "triangles"
	case wgpu.PrimitiveTopologyTriangleStrip:
		return "triangle-strip"
	default:
		return fmt.Sprintf("topology-%d", t)
	}
}
