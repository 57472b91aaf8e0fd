// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Point is a single origin-shifted sample in the 32-bit coordinate space that is uploaded to the GPU.
// Values are expected to already be small in magnitude; see the bundle package for how the origin is chosen.
type Point struct {
	X float32
	Y float32
}

// Color is an RGB color with components in the [0, 1] range.
type Color struct {
	R, G, B float32
}

// RGBA returns the color as a 4-component array with the given alpha, ready for a vec4<f32> uniform.
//
// Parameters:
//   - alpha: the alpha component in the [0, 1] range
//
// Returns:
//   - [4]float32: the color components followed by alpha
func (c Color) RGBA(alpha float32) [4]float32 {
	return [4]float32{c.R, c.G, c.B, alpha}
}

// Scale multiplies each color component by the given factor.
//
// Parameters:
//   - f: the multiplier applied to R, G and B
//
// Returns:
//   - Color: the scaled color
func (c Color) Scale(f float32) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f}
}

// Margins describes the space reserved around the plot interior, in pixels.
type Margins struct {
	Top, Right, Bottom, Left float32
}

// Rect is an axis-aligned rectangle in pixel space with the origin at the top-left corner of the surface.
type Rect struct {
	X, Y, Width, Height float32
}

// Empty reports whether the rectangle has no drawable area.
//
// Returns:
//   - bool: true if width or height is not positive
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
