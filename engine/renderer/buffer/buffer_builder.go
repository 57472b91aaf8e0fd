package buffer

import "github.com/cogentcore/webgpu/wgpu"

// VertexBufferOption is a functional option used to configure a VertexBuffer during construction.
type VertexBufferOption func(*vertexBuffer)

// WithBuffer sets the GPU buffer owned by this VertexBuffer.
//
// Parameters:
//   - buf: the GPU buffer holding the vertex data
//
// Returns:
//   - VertexBufferOption: a function that sets the GPU buffer
func WithBuffer(buf *wgpu.Buffer) VertexBufferOption {
	return func(b *vertexBuffer) {
		b.buffer = buf
	}
}

// WithVertexCount sets the number of vertices held by the buffer.
//
// Parameters:
//   - n: the vertex count
//
// Returns:
//   - VertexBufferOption: a function that sets the vertex count
func WithVertexCount(n int) VertexBufferOption {
	return func(b *vertexBuffer) {
		b.vertexCount = n
	}
}

// WithSize sets the byte size of the buffer contents.
//
// Parameters:
//   - size: the size in bytes
//
// Returns:
//   - VertexBufferOption: a function that sets the size
func WithSize(size uint64) VertexBufferOption {
	return func(b *vertexBuffer) {
		b.size = size
	}
}

// WithReleaseHook registers a function invoked once when the buffer is released.
//
// Parameters:
//   - fn: the hook
//
// Returns:
//   - VertexBufferOption: a function that sets the release hook
func WithReleaseHook(fn func()) VertexBufferOption {
	return func(b *vertexBuffer) {
		b.onRelease = fn
	}
}
