package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyD     = 68  // D key (ASCII), toggles dark mode in the chart demo
	KeyG     = 71  // G key (ASCII), toggles the grid in the chart demo
	KeyP     = 80  // P key (ASCII), toggles point markers in the chart demo
	KeyW     = 87  // W key (ASCII), cycles line width in the chart demo
	KeyLeft  = 263 // Left arrow (GLFW), pans the view
	KeyRight = 262 // Right arrow (GLFW), pans the view
	KeyEsc   = 256 // Escape key (GLFW)
)
