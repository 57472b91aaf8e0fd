package common

import (
	"encoding/binary"
	"math"
)

// Lerp linearly interpolates between a and b by the fraction t.
//
// Parameters:
//   - a: the value at t = 0
//   - b: the value at t = 1
//   - t: the interpolation fraction
//
// Returns:
//   - float64: the interpolated value
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// RoundHalfPixel snaps a pixel coordinate to the nearest pixel center (n + 0.5).
// One pixel wide lines drawn through pixel centers cover exactly one row or column.
//
// Parameters:
//   - v: the coordinate in pixels
//
// Returns:
//   - float32: the coordinate snapped to the nearest half pixel
func RoundHalfPixel(v float64) float32 {
	return float32(math.Floor(v) + 0.5)
}

// FlattenPoints copies a sequence of points into a flat x, y, x, y, ... slice.
// The result is appended to dst, which may be nil.
//
// Parameters:
//   - dst: the slice to append to
//   - points: the points to flatten
//
// Returns:
//   - []float32: dst extended by two values per point
func FlattenPoints(dst []float32, points []Point) []float32 {
	for _, p := range points {
		dst = append(dst, p.X, p.Y)
	}
	return dst
}

// Float32sToBytes encodes a float32 slice into a little-endian byte slice for GPU upload.
// Each value is written explicitly so the result does not depend on the host memory layout.
//
// Parameters:
//   - values: the values to encode
//
// Returns:
//   - []byte: 4 bytes per value, or nil if values is empty
func Float32sToBytes(values []float32) []byte {
	if len(values) == 0 {
		return nil
	}
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// PutFloat32s writes values as little-endian float32s into dst starting at offset.
//
// Parameters:
//   - dst: the destination buffer, must hold offset + 4*len(values) bytes
//   - offset: the byte offset of the first value
//   - values: the values to write
func PutFloat32s(dst []byte, offset uint64, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[offset+uint64(i)*4:], math.Float32bits(v))
	}
}

// AlignUp rounds value up to the next multiple of alignment. Alignment must be a power of two.
//
// Parameters:
//   - alignment: the required alignment
//   - value: the value to align
//
// Returns:
//   - uint64: value rounded up to a multiple of alignment
func AlignUp(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}
