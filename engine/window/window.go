package window

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrWindowUnavailable is returned when the platform window cannot be created.
var ErrWindowUnavailable = errors.New("window: platform window unavailable")

// Window is the desktop surface the map is presented into. It owns the platform
// event loop and forwards input as plain callbacks so the frame loop never touches GLFW.
type Window interface {
	// SetUpdateCallback sets the function called once per event loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta (positive = away from the user)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and key repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code, see the common package constants
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDragCallback sets the callback fired while the cursor moves with a mouse button held.
	//
	// Parameters:
	//   - callback: function receiving the dragging button and the cursor delta in screen pixels
	SetDragCallback(callback func(button MouseButton, dx, dy float64))

	// SetTitle replaces the title bar text.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// Title returns the current title bar text.
	//
	// Returns:
	//   - string: the title
	Title() string

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for creating the WebGPU surface.
	// The descriptor is built by the wgpuglfw bridge for the current platform.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: true until the window is closed
	IsRunning() bool

	// RequestClose asks the event loop to stop after the current iteration. Unlike Close it
	// may be called from any goroutine.
	RequestClose()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: an error if the window was already closed
	Close() error

	// ProcessMessages runs the event loop on the calling goroutine until the window closes,
	// calling the update callback after each batch of events.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// quakeWindow is the implementation of the Window interface.
type quakeWindow struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	resizable bool

	// idleWait bounds how long the loop blocks waiting for input; 0 polls without blocking.
	idleWait time.Duration

	log *slog.Logger

	// platform is nil until the GLFW window exists and again after Close.
	platform *glfwWindow
	drag     dragTracker

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
	onDrag    func(button MouseButton, dx, dy float64)
}

var _ Window = &quakeWindow{}

// NewWindow creates and shows a window. GLFW requires every call on the window to happen on
// the goroutine that created it, so the calling goroutine is locked to its OS thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error wrapping ErrWindowUnavailable when GLFW or the window cannot be initialized
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &quakeWindow{
		title:     DefaultTitle,
		width:     DefaultWidth,
		height:    DefaultHeight,
		minWidth:  320,
		minHeight: 240,
		resizable: true,
		idleWait:  DefaultIdleWait,
		log:       defaultLogger(),
	}
	for _, opt := range options {
		opt(w)
	}

	runtime.LockOSThread()
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	w.log.Info("window opened", "title", w.title, "width", w.width, "height", w.height)
	return w, nil
}

func (w *quakeWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *quakeWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *quakeWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *quakeWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *quakeWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *quakeWindow) SetDragCallback(callback func(button MouseButton, dx, dy float64)) {
	w.onDrag = callback
}

func (w *quakeWindow) SetTitle(title string) {
	w.title = title
	if w.platform != nil {
		w.platform.window.SetTitle(title)
	}
}

func (w *quakeWindow) Title() string {
	return w.title
}

func (w *quakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *quakeWindow) IsRunning() bool {
	return w.platform != nil && w.platform.running()
}

func (w *quakeWindow) RequestClose() {
	if p := w.platform; p != nil {
		p.window.SetShouldClose(true)
	}
}

func (w *quakeWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window: already closed")
	}
	w.platform.destroy()
	w.platform = nil
	w.log.Info("window closed")
	return nil
}

func (w *quakeWindow) ProcessMessages() {
	for w.IsRunning() {
		w.platform.waitEvents(w.idleWait)
		if !w.IsRunning() {
			return
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func (w *quakeWindow) Width() int {
	return w.width
}

func (w *quakeWindow) Height() int {
	return w.height
}

// handleCursor feeds a cursor position through the drag tracker and forwards any resulting delta.
func (w *quakeWindow) handleCursor(x, y float64) {
	button, dx, dy, ok := w.drag.move(x, y)
	if ok && w.onDrag != nil {
		w.onDrag(button, dx, dy)
	}
}

func (w *quakeWindow) handleResize(width, height int) {
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	w.log.Debug("framebuffer resized", "width", width, "height", height)
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
