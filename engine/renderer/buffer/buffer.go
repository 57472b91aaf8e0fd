package buffer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexBuffer is the unexported implementation of VertexBuffer.
type vertexBuffer struct {
	// label is a debug label added for convenience.
	label string

	// buffer is the GPU vertex buffer, or nil for CPU-only buffers used in tests.
	buffer *wgpu.Buffer
	// vertexCount is the number of 2-float vertices stored in buffer.
	vertexCount int
	// size is the byte size of the uploaded data.
	size uint64

	// onRelease is invoked once after the GPU buffer has been released.
	onRelease func()
	released  bool
}

// VertexBuffer owns a single GPU buffer of tightly packed vec2<f32> vertices.
// The buffer is created and filled by the renderer backend and released exactly once.
type VertexBuffer interface {
	// Label returns the debug label for this buffer.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the underlying GPU buffer, or nil once released.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	Buffer() *wgpu.Buffer

	// VertexCount returns the number of vertices held by the buffer.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Size returns the byte size of the buffer contents.
	//
	// Returns:
	//   - uint64: the size in bytes
	Size() uint64

	// Release releases the GPU buffer. Calling Release more than once is a no-op.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once the buffer has been released
	Released() bool
}

// Compile-time check that vertexBuffer implements VertexBuffer
var _ VertexBuffer = &vertexBuffer{}

// NewVertexBuffer creates a new VertexBuffer with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the buffer
//
// Returns:
//   - VertexBuffer: a new instance of VertexBuffer configured with the provided options
func NewVertexBuffer(label string, options ...VertexBufferOption) VertexBuffer {
	b := &vertexBuffer{label: label}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *vertexBuffer) Label() string {
	return b.label
}

func (b *vertexBuffer) Buffer() *wgpu.Buffer {
	if b.released {
		return nil
	}
	return b.buffer
}

func (b *vertexBuffer) VertexCount() int {
	return b.vertexCount
}

func (b *vertexBuffer) Size() uint64 {
	return b.size
}

func (b *vertexBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	if b.onRelease != nil {
		b.onRelease()
	}
}

func (b *vertexBuffer) Released() bool {
	return b.released
}
