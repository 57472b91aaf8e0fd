package pipeline

import (
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the render pipeline object and the state used to create it.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string
	program     Program
	shader      shader.Shader

	// renderPipeline is set by the backend once the pipeline has been created on the device
	renderPipeline *wgpu.RenderPipeline

	// The following properties configure the pipeline during creation and can be set with the builder options.

	blendEnabled bool
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
	blendState   *wgpu.BlendState

	// instanceVertices is the vertex count drawn per instance, 0 for non-instanced pipelines
	instanceVertices uint32
}

// Pipeline defines the interface for a render pipeline of one of the fixed programs drawn with
// one primitive topology. It holds all configuration state required for pipeline creation.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Program returns the shader program this pipeline runs.
	Program() Program

	// Shader returns the parsed program source.
	//
	// Returns:
	//   - shader.Shader: the program's vertex and fragment stages
	Shader() shader.Shader

	// BindGroupLayoutDescriptors returns the program's bind group layouts with every uniform
	// buffer binding switched to dynamic offsets, so one arena buffer serves all draws of a frame.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts returns the program's vertex buffer layouts. Instanced pipelines step every
	// layout per instance instead of per vertex.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts to create the pipeline with
	VertexLayouts() []wgpu.VertexBufferLayout

	// InstanceVertices returns the number of vertices drawn for each instance.
	//
	// Returns:
	//   - uint32: the per-instance vertex count, 0 when the pipeline is not instanced
	InstanceVertices() uint32

	// RenderPipeline returns the created GPU pipeline, or nil before the backend registered it.
	RenderPipeline() *wgpu.RenderPipeline

	// BlendEnabled returns whether blending is enabled for this pipeline.
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology, e.g. wgpu.PrimitiveTopologyLineStrip
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, used only when BlendEnabled is true
	BlendState() *wgpu.BlendState

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline for the given program. Blending defaults to standard
// source-over alpha but is disabled until WithBlendEnabled is applied.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - program: the program this pipeline runs
//   - s: the parsed program source
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, program Program, s shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		program:      program,
		shader:       s,
		blendEnabled: false,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyLineStrip,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() Program {
	return p.program
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	src := p.shader.BindGroupLayoutDescriptors()
	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(src))
	for g, desc := range src {
		entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
		copy(entries, desc.Entries)
		for i := range entries {
			if entries[i].Buffer.Type == wgpu.BufferBindingTypeUniform {
				entries[i].Buffer.HasDynamicOffset = true
			}
		}
		out[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries}
	}
	return out
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	layouts := p.shader.VertexLayouts()
	if p.instanceVertices == 0 {
		return layouts
	}
	stepped := make([]wgpu.VertexBufferLayout, len(layouts))
	for i, l := range layouts {
		l.StepMode = wgpu.VertexStepModeInstance
		stepped[i] = l
	}
	return stepped
}

func (p *pipeline) InstanceVertices() uint32 {
	return p.instanceVertices
}
