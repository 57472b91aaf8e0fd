package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/shader"
)

// recordedDraw is one draw captured by fakeBackend.
type recordedDraw struct {
	pipeline pipeline.Pipeline
	uniforms []byte
	// buffer is nil for scratch draws.
	buffer   buffer.VertexBuffer
	vertices []float32
	count    int
	viewport common.Rect
}

// fakeBackend records every call instead of talking to a GPU.
type fakeBackend struct {
	ceiling float32

	uploads   map[buffer.VertexBuffer][]float32
	allocated int
	released  int

	registered []pipeline.Pipeline
	configured [][2]int

	inFrame  bool
	frames   int
	clears   []bool
	viewport common.Rect
	draws    []recordedDraw

	submitted       bool
	presents        int
	backendReleased bool
}

var _ RendererBackend = &fakeBackend{}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		ceiling: 1,
		uploads: make(map[buffer.VertexBuffer][]float32),
	}
}

func (f *fakeBackend) CreateVertexBuffer(label string, vertices []float32) (buffer.VertexBuffer, error) {
	f.allocated++
	vb := buffer.NewVertexBuffer(label,
		buffer.WithVertexCount(len(vertices)/2),
		buffer.WithSize(uint64(len(vertices)*4)),
		buffer.WithReleaseHook(func() { f.released++ }),
	)
	f.uploads[vb] = append([]float32(nil), vertices...)
	return vb, nil
}

func (f *fakeBackend) LineWidthCeiling() float32 { return f.ceiling }

func (f *fakeBackend) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	f.registered = append(f.registered, pipelines...)
	return nil
}

func (f *fakeBackend) ConfigureSurface(width, height int) error {
	f.configured = append(f.configured, [2]int{width, height})
	f.submitted = false
	return nil
}

func (f *fakeBackend) BeginFrame(clear bool, _ common.Color) error {
	if f.inFrame {
		return ErrNoFrame
	}
	f.inFrame = true
	f.frames++
	f.clears = append(f.clears, clear)
	return nil
}

func (f *fakeBackend) SetViewport(rect common.Rect) {
	f.viewport = rect
}

func (f *fakeBackend) Draw(p pipeline.Pipeline, uniforms []byte, vb buffer.VertexBuffer, count int) {
	f.draws = append(f.draws, recordedDraw{
		pipeline: p,
		uniforms: append([]byte(nil), uniforms...),
		buffer:   vb,
		vertices: f.uploads[vb],
		count:    count,
		viewport: f.viewport,
	})
}

func (f *fakeBackend) DrawScratch(p pipeline.Pipeline, uniforms []byte, vertices []float32) {
	f.draws = append(f.draws, recordedDraw{
		pipeline: p,
		uniforms: append([]byte(nil), uniforms...),
		vertices: append([]float32(nil), vertices...),
		count:    len(vertices) / 2,
		viewport: f.viewport,
	})
}

func (f *fakeBackend) EndFrame() error {
	if !f.inFrame {
		return ErrNoFrame
	}
	f.inFrame = false
	f.submitted = true
	return nil
}

func (f *fakeBackend) Present() error {
	if f.submitted {
		f.presents++
	}
	return nil
}

func (f *fakeBackend) Release() {
	f.backendReleased = true
}

// drawsWith returns the recorded draws that used p, in order.
func (f *fakeBackend) drawsWith(p pipeline.Pipeline) []recordedDraw {
	var out []recordedDraw
	for _, d := range f.draws {
		if d.pipeline == p {
			out = append(out, d)
		}
	}
	return out
}

// uniform decodes one uniform member from an encoded block.
func uniform(block []byte, f shader.Field) []float32 {
	out := make([]float32, f.Size/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(block[f.Offset+uint64(i)*4:]))
	}
	return out
}
