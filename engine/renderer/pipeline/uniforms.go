package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/shader"
)

// UniformAlignment is the byte alignment of every uniform block written to the per-frame
// uniform arena. It matches the WebGPU default minUniformBufferOffsetAlignment so blocks can
// be bound with dynamic offsets.
const UniformAlignment = 256

// DefaultTransform maps normalized [0, 1] view coordinates to [-1, 1] clip space.
var DefaultTransform = [4]float32{2, 2, -1, -1}

// TraceUniformLocations holds the resolved byte offsets of the trace program's uniforms.
type TraceUniformLocations struct {
	Size       shader.Field
	Origin     shader.Field
	Transform  shader.Field
	ClipOffset shader.Field
	Marker     shader.Field
	Color      shader.Field
	BlockSize  uint64
}

// AxisUniformLocations holds the resolved byte offsets of the axis program's uniforms.
type AxisUniformLocations struct {
	Resolution shader.Field
	Color      shader.Field
	BlockSize  uint64
}

// TraceUniforms is the CPU-side value of one trace draw's uniform block.
type TraceUniforms struct {
	// Size is the visible domain span (x_to - x_from, y_to - y_from).
	Size [2]float32
	// Origin is the view origin expressed in the vertex data's shifted coordinate space.
	Origin [2]float32
	// Transform scales and biases normalized coordinates into clip space.
	Transform [4]float32
	// ClipOffset is an extra clip-space translation applied after Transform.
	ClipOffset [2]float32
	// Marker is the clip-space half extent of a point marker. Only the marker program reads it.
	Marker [2]float32
	// Color is the RGBA draw color.
	Color [4]float32
}

// AxisUniforms is the CPU-side value of one axis draw's uniform block.
type AxisUniforms struct {
	// Resolution is the surface size in pixels.
	Resolution [2]float32
	// Color is the RGBA draw color.
	Color [4]float32
}

// Encode writes the uniform values into dst at the resolved offsets.
// dst must be at least loc.BlockSize bytes long.
//
// Parameters:
//   - loc: the resolved trace uniform locations
//   - dst: the destination block
func (u TraceUniforms) Encode(loc TraceUniformLocations, dst []byte) {
	common.PutFloat32s(dst, loc.Size.Offset, u.Size[:]...)
	common.PutFloat32s(dst, loc.Origin.Offset, u.Origin[:]...)
	common.PutFloat32s(dst, loc.Transform.Offset, u.Transform[:]...)
	common.PutFloat32s(dst, loc.ClipOffset.Offset, u.ClipOffset[:]...)
	common.PutFloat32s(dst, loc.Marker.Offset, u.Marker[:]...)
	common.PutFloat32s(dst, loc.Color.Offset, u.Color[:]...)
}

// Encode writes the uniform values into dst at the resolved offsets.
// dst must be at least loc.BlockSize bytes long.
//
// Parameters:
//   - loc: the resolved axis uniform locations
//   - dst: the destination block
func (u AxisUniforms) Encode(loc AxisUniformLocations, dst []byte) {
	common.PutFloat32s(dst, loc.Resolution.Offset, u.Resolution[:]...)
	common.PutFloat32s(dst, loc.Color.Offset, u.Color[:]...)
}

// ResolveTraceUniforms looks up the trace uniform block and the offset of each member the
// renderer writes. The trace and marker programs share this block.
//
// Parameters:
//   - s: the parsed trace or marker program
//
// Returns:
//   - TraceUniformLocations: the resolved locations
//   - error: an error naming the first missing binding or field
func ResolveTraceUniforms(s shader.Shader) (TraceUniformLocations, error) {
	layout, err := uniformBlock(s)
	if err != nil {
		return TraceUniformLocations{}, err
	}
	var loc TraceUniformLocations
	fields := []struct {
		name string
		dst  *shader.Field
	}{
		{"size", &loc.Size},
		{"origin", &loc.Origin},
		{"transform", &loc.Transform},
		{"clip_offset", &loc.ClipOffset},
		{"marker", &loc.Marker},
		{"color", &loc.Color},
	}
	for _, f := range fields {
		field, ok := layout.Field(f.name)
		if !ok {
			return TraceUniformLocations{}, fmt.Errorf("pipeline: %s: uniform %q not found", s.Key(), f.name)
		}
		*f.dst = field
	}
	loc.BlockSize = layout.Size
	return loc, nil
}

// ResolveAxisUniforms looks up the axis program's uniform block and the offset of each
// member the renderer writes.
//
// Parameters:
//   - s: the parsed axis program
//
// Returns:
//   - AxisUniformLocations: the resolved locations
//   - error: an error naming the first missing binding or field
func ResolveAxisUniforms(s shader.Shader) (AxisUniformLocations, error) {
	layout, err := uniformBlock(s)
	if err != nil {
		return AxisUniformLocations{}, err
	}
	res, ok := layout.Field("resolution")
	if !ok {
		return AxisUniformLocations{}, fmt.Errorf("pipeline: %s: uniform %q not found", s.Key(), "resolution")
	}
	col, ok := layout.Field("color")
	if !ok {
		return AxisUniformLocations{}, fmt.Errorf("pipeline: %s: uniform %q not found", s.Key(), "color")
	}
	return AxisUniformLocations{Resolution: res, Color: col, BlockSize: layout.Size}, nil
}

// uniformBlock resolves the struct bound to the program's "uniforms" variable.
func uniformBlock(s shader.Shader) (shader.StructLayout, error) {
	b, ok := s.BindingFromVarName("uniforms")
	if !ok {
		return shader.StructLayout{}, fmt.Errorf("pipeline: %s: no uniforms binding", s.Key())
	}
	layout, ok := s.Struct(b.Type)
	if !ok {
		return shader.StructLayout{}, fmt.Errorf("pipeline: %s: struct %q has no resolvable layout", s.Key(), b.Type)
	}
	if layout.Size > UniformAlignment {
		return shader.StructLayout{}, fmt.Errorf("pipeline: %s: uniform block of %d bytes exceeds %d", s.Key(), layout.Size, UniformAlignment)
	}
	return layout, nil
}
