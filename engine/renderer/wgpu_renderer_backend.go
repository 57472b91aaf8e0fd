package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexStride is the size of one packed vec2<f32> vertex.
const vertexStride = 8

// minBufferSize keeps empty uploads valid: WebGPU rejects zero-sized buffers.
const minBufferSize = vertexStride

// commandKind discriminates recorded frame commands.
type commandKind int

const (
	commandViewport commandKind = iota
	commandDraw
)

// command is one recorded viewport change or draw, replayed by EndFrame.
type command struct {
	kind     commandKind
	viewport common.Rect

	pipeline      pipeline.Pipeline
	uniformOffset uint32
	// vertexBuffer is nil for draws sourced from the scratch buffer.
	vertexBuffer *wgpu.Buffer
	firstVertex  uint32
	vertexCount  uint32
}

// frame holds everything recorded between BeginFrame and EndFrame.
type frame struct {
	clear    bool
	color    common.Color
	commands []command
}

// programResources is the bind group layout shared by every pipeline of one program and the
// bind group pointing it at the uniform arena buffer.
type programResources struct {
	layout      *wgpu.BindGroupLayout
	bindingSize uint64
	bindGroup   *wgpu.BindGroup
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	width, height uint32

	// target is the off-screen texture every frame renders into. Present copies it to the surface.
	target     *wgpu.Texture
	targetView *wgpu.TextureView

	programs map[pipeline.Program]*programResources
	created  []*wgpu.RenderPipeline

	// Per-frame staging. Both arenas are uploaded by EndFrame with one write each.
	uniforms       *buffer.Arena
	scratch        *buffer.Arena
	uniformBuffer  *wgpu.Buffer
	uniformSize    uint64
	scratchBuffer  *wgpu.Buffer
	scratchSize    uint64
	frame          *frame
	frameSubmitted bool
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, surface, adapter and device. The calling
// goroutine is locked to its OS thread, as the surface belongs to the window's thread.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, mode PresentMode) (*wgpuRendererBackendImpl, error) {
	if surfaceDescriptor == nil {
		return nil, fmt.Errorf("window has no surface descriptor")
	}
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		programs:    make(map[pipeline.Program]*programResources),
		uniforms:    buffer.NewArena(pipeline.UniformAlignment),
		scratch:     buffer.NewArena(vertexStride),
	}
	if mode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a
	common.Logger().Info("adapter selected", "fallback", forceFallbackAdapter, "present_mode", mode.String())

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Chart Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		b.Release()
		return nil, fmt.Errorf("surface is not compatible with the adapter")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]

	return b, nil
}

// LineWidthCeiling is 1: WebGPU only rasterizes 1-pixel lines.
func (b *wgpuRendererBackendImpl) LineWidthCeiling() float32 {
	return 1
}

func (b *wgpuRendererBackendImpl) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range pipelines {
		if err := b.registerRenderPipeline(p); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.PipelineKey(), err)
		}
	}
	return nil
}

// registerRenderPipeline creates the shader module, pipeline layout and render pipeline for p.
// Pipelines of the same program share one bind group layout.
func (b *wgpuRendererBackendImpl) registerRenderPipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	res, err := b.programResources(p)
	if err != nil {
		return err
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return err
	}
	defer module.Release()

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{res.layout},
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: s.VertexEntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: s.FragmentEntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	b.created = append(b.created, created)
	common.Logger().Debug("render pipeline created", "pipeline", p.PipelineKey())
	return nil
}

// programResources returns the bind group layout of p's program, creating it on first use.
// Only group 0 with a single uniform buffer is supported.
func (b *wgpuRendererBackendImpl) programResources(p pipeline.Pipeline) (*programResources, error) {
	if res, ok := b.programs[p.Program()]; ok {
		return res, nil
	}

	descriptors := p.BindGroupLayoutDescriptors()
	desc, ok := descriptors[0]
	if len(descriptors) != 1 || !ok || len(desc.Entries) != 1 || desc.Entries[0].Buffer.Type != wgpu.BufferBindingTypeUniform {
		return nil, fmt.Errorf("program %s must declare exactly one uniform buffer in group 0", p.Program())
	}

	layout, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("bind group layout: %w", err)
	}
	res := &programResources{
		layout:      layout,
		bindingSize: desc.Entries[0].Buffer.MinBindingSize,
	}
	b.programs[p.Program()] = res
	return res, nil
}

func (b *wgpuRendererBackendImpl) CreateVertexBuffer(label string, vertices []float32) (buffer.VertexBuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := common.Float32sToBytes(vertices)
	size := common.AlignUp(4, max(uint64(len(data)), minBufferSize))
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(buf, 0, data)
	}

	common.Logger().Debug("vertex buffer uploaded", "label", label, "vertices", len(vertices)/2, "bytes", len(data))
	return buffer.NewVertexBuffer(label,
		buffer.WithBuffer(buf),
		buffer.WithVertexCount(len(vertices)/2),
		buffer.WithSize(uint64(len(data))),
	), nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = uint32(max(width, 1)), uint32(max(height, 1))

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      b.surfaceFormat,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})

	b.releaseTarget()
	target, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Chart Target",
		Size: wgpu.Extent3D{
			Width:              b.width,
			Height:             b.height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.surfaceFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create render target: %w", err)
	}
	view, err := target.CreateView(nil)
	if err != nil {
		target.Release()
		return fmt.Errorf("create render target view: %w", err)
	}
	b.target, b.targetView = target, view
	b.frameSubmitted = false

	common.Logger().Info("surface configured", "width", b.width, "height", b.height, "format", b.surfaceFormat)
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame(clear bool, color common.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		return fmt.Errorf("previous frame not yet ended")
	}
	b.frame = &frame{clear: clear, color: color}
	b.uniforms.Reset()
	b.scratch.Reset()
	return nil
}

func (b *wgpuRendererBackendImpl) SetViewport(rect common.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return
	}
	b.frame.commands = append(b.frame.commands, command{kind: commandViewport, viewport: rect})
}

func (b *wgpuRendererBackendImpl) Draw(p pipeline.Pipeline, uniforms []byte, vb buffer.VertexBuffer, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	gpu := vb.Buffer()
	if b.frame == nil || gpu == nil || count <= 0 {
		return
	}
	b.frame.commands = append(b.frame.commands, command{
		kind:          commandDraw,
		pipeline:      p,
		uniformOffset: b.stageUniforms(uniforms),
		vertexBuffer:  gpu,
		vertexCount:   uint32(count),
	})
}

func (b *wgpuRendererBackendImpl) DrawScratch(p pipeline.Pipeline, uniforms []byte, vertices []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := len(vertices) / 2
	if b.frame == nil || count == 0 {
		return
	}
	offset := b.scratch.AppendFloat32s(vertices[:count*2])
	b.frame.commands = append(b.frame.commands, command{
		kind:          commandDraw,
		pipeline:      p,
		uniformOffset: b.stageUniforms(uniforms),
		firstVertex:   uint32(offset / vertexStride),
		vertexCount:   uint32(count),
	})
}

// stageUniforms copies one uniform block into the arena and returns its dynamic offset.
func (b *wgpuRendererBackendImpl) stageUniforms(uniforms []byte) uint32 {
	offset, dst := b.uniforms.Alloc(pipeline.UniformAlignment)
	copy(dst, uniforms)
	return uint32(offset)
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.frame
	if f == nil {
		return ErrNoFrame
	}
	b.frame = nil

	if err := b.uploadArenas(); err != nil {
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	loadOp := wgpu.LoadOpLoad
	if f.clear {
		loadOp = wgpu.LoadOpClear
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Chart Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    b.targetView,
				LoadOp:  loadOp,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(f.color.R), G: float64(f.color.G), B: float64(f.color.B), A: 1.0,
				},
			},
		},
	})

	var bound *wgpu.RenderPipeline
	for _, c := range f.commands {
		switch c.kind {
		case commandViewport:
			x, y, w, h := b.clampViewport(c.viewport)
			if w > 0 && h > 0 {
				pass.SetViewport(x, y, w, h, 0, 1)
			}
		case commandDraw:
			rp := c.pipeline.RenderPipeline()
			if rp == nil {
				continue
			}
			if rp != bound {
				pass.SetPipeline(rp)
				bound = rp
			}
			res := b.programs[c.pipeline.Program()]
			pass.SetBindGroup(0, res.bindGroup, []uint32{c.uniformOffset})
			vertices := c.vertexBuffer
			if vertices == nil {
				vertices = b.scratchBuffer
			}
			pass.SetVertexBuffer(0, vertices, 0, wgpu.WholeSize)
			if corners := c.pipeline.InstanceVertices(); corners > 0 {
				// One instance per stored vertex.
				pass.Draw(corners, c.vertexCount, 0, c.firstVertex)
			} else {
				pass.Draw(c.vertexCount, 1, c.firstVertex, 0)
			}
		}
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.frameSubmitted = true
	return nil
}

// clampViewport intersects a viewport with the render target.
func (b *wgpuRendererBackendImpl) clampViewport(r common.Rect) (x, y, w, h float32) {
	x, y = max(r.X, 0), max(r.Y, 0)
	right := min(r.X+r.Width, float32(b.width))
	bottom := min(r.Y+r.Height, float32(b.height))
	return x, y, right - x, bottom - y
}

// uploadArenas grows the uniform and scratch buffers to fit the frame and writes both arenas.
// Growing the uniform buffer rebuilds every program's bind group.
func (b *wgpuRendererBackendImpl) uploadArenas() error {
	if need := b.uniforms.Len(); need > b.uniformSize || b.uniformBuffer == nil {
		size := growSize(b.uniformSize, max(need, pipeline.UniformAlignment))
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Frame Uniforms",
			Size:  size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%w: uniform buffer of %d bytes: %w", ErrResourceExhausted, size, err)
		}
		if b.uniformBuffer != nil {
			b.uniformBuffer.Release()
		}
		b.uniformBuffer, b.uniformSize = buf, size
		if err := b.rebuildBindGroups(); err != nil {
			return err
		}
	}
	if need := b.scratch.Len(); need > b.scratchSize || b.scratchBuffer == nil {
		size := growSize(b.scratchSize, max(need, minBufferSize))
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Frame Scratch Vertices",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%w: scratch buffer of %d bytes: %w", ErrResourceExhausted, size, err)
		}
		if b.scratchBuffer != nil {
			b.scratchBuffer.Release()
		}
		b.scratchBuffer, b.scratchSize = buf, size
		common.Logger().Debug("scratch buffer grown", "bytes", size)
	}

	if data := b.uniforms.Bytes(); len(data) > 0 {
		b.queue.WriteBuffer(b.uniformBuffer, 0, data)
	}
	if data := b.scratch.Bytes(); len(data) > 0 {
		b.queue.WriteBuffer(b.scratchBuffer, 0, data)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) rebuildBindGroups() error {
	for program, res := range b.programs {
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  program.String() + " Uniforms",
			Layout: res.layout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding: 0,
					Buffer:  b.uniformBuffer,
					Offset:  0,
					Size:    res.bindingSize,
				},
			},
		})
		if err != nil {
			return fmt.Errorf("bind group for %s: %w", program, err)
		}
		if res.bindGroup != nil {
			res.bindGroup.Release()
		}
		res.bindGroup = bg
	}
	return nil
}

// growSize doubles current until it holds need, rounded to 256 bytes.
func growSize(current, need uint64) uint64 {
	size := max(current, 256)
	for size < need {
		size *= 2
	}
	return common.AlignUp(256, size)
}

func (b *wgpuRendererBackendImpl) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.frameSubmitted || b.target == nil {
		return nil
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{
			Texture:  b.target,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyTexture{
			Texture:  surfaceTexture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.Extent3D{
			Width:              b.width,
			Height:             b.height,
			DepthOrArrayLayers: 1,
		},
	)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackendImpl) releaseTarget() {
	if b.targetView != nil {
		b.targetView.Release()
		b.targetView = nil
	}
	if b.target != nil {
		b.target.Release()
		b.target = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frame = nil
	b.releaseTarget()
	for _, res := range b.programs {
		if res.bindGroup != nil {
			res.bindGroup.Release()
		}
		res.layout.Release()
	}
	clear(b.programs)
	for _, rp := range b.created {
		rp.Release()
	}
	b.created = nil
	if b.uniformBuffer != nil {
		b.uniformBuffer.Release()
		b.uniformBuffer = nil
	}
	if b.scratchBuffer != nil {
		b.scratchBuffer.Release()
		b.scratchBuffer = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
