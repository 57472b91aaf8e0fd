package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides the presentation surface for a chart and the input events used to pan and zoom it.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the wheel delta (positive = up) and the cursor position
	SetScrollCallback(callback func(delta float32, x, y float64))

	// SetDragCallback sets the callback for cursor movement while the left button is held.
	//
	// Parameters:
	//   - callback: function receiving the cursor movement since the last event in pixels
	SetDragCallback(callback func(dx, dy float64))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the key code (see common.Key*)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still open.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the message loop to stop after the current iteration.
	RequestClose()

	// Close destroys the window and releases platform resources. Closing twice is a no-op.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// chartWindow is the implementation of the Window interface.
type chartWindow struct {
	title string

	minWidth, minHeight int
	maxWidth, maxHeight int

	// width and height are framebuffer pixels, which differ from screen coordinates on high-DPI displays.
	width  int
	height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32, x, y float64)
	onDrag    func(dx, dy float64)
	onKeyDown func(keyCode uint32)
}

var _ Window = &chartWindow{}

// NewWindow creates and shows a window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &chartWindow{
		title:     "oxy-chart",
		minWidth:  320,
		minHeight: 200,
		maxWidth:  3840,
		maxHeight: 2160,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := w.clampSize(); err != nil {
		return nil, err
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

// clampSize fits the initial size inside the configured limits.
func (w *chartWindow) clampSize() error {
	if w.minWidth > w.maxWidth || w.minHeight > w.maxHeight {
		return fmt.Errorf("window size limits are inverted: min %dx%d, max %dx%d", w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	}
	w.width = min(max(w.width, w.minWidth), w.maxWidth)
	w.height = min(max(w.height, w.minHeight), w.maxHeight)
	return nil
}

func (w *chartWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *chartWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *chartWindow) SetScrollCallback(callback func(delta float32, x, y float64)) {
	w.onScroll = callback
}

func (w *chartWindow) SetDragCallback(callback func(dx, dy float64)) {
	w.onDrag = callback
}

func (w *chartWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *chartWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *chartWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *chartWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *chartWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *chartWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *chartWindow) Width() int {
	return w.width
}

func (w *chartWindow) Height() int {
	return w.height
}
