package window

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrPointerLockUnfocused is reported when pointer lock is requested while the window has no focus.
var ErrPointerLockUnfocused = errors.New("window: pointer lock requires focus")

// Window provides platform windowing and input event handling.
// Wraps platform-specific window implementations with a common interface.
// Pointer coordinates are reported in framebuffer pixels, matching Width and Height.
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

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical delta in pixels; positive scrolls forward (wheel toward the user)
	SetScrollCallback(callback func(deltaY float64))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetPointerDownCallback sets the callback for primary button presses.
	//
	// Parameters:
	//   - callback: function receiving the cursor position
	SetPointerDownCallback(callback func(x, y float64))

	// SetPointerUpCallback sets the callback for primary button releases.
	//
	// Parameters:
	//   - callback: function receiving the cursor position
	SetPointerUpCallback(callback func(x, y float64))

	// SetPointerMoveCallback sets the callback for cursor movement while the pointer is free.
	//
	// Parameters:
	//   - callback: function receiving the cursor position
	SetPointerMoveCallback(callback func(x, y float64))

	// SetPointerLeaveCallback sets the callback fired when the cursor leaves the window.
	//
	// Parameters:
	//   - callback: function to call
	SetPointerLeaveCallback(callback func())

	// SetLookCallback sets the callback for relative motion while the pointer is locked.
	//
	// Parameters:
	//   - callback: function receiving the motion since the previous event
	SetLookCallback(callback func(dx, dy float64))

	// SetPointerLockCallback sets the callback fired when pointer lock is engaged, released or refused.
	//
	// Parameters:
	//   - callback: function receiving the new lock state and a non-nil error on refusal
	SetPointerLockCallback(callback func(locked bool, err error))

	// RequestPointerLock asks for the cursor to be hidden and captured.
	// Safe to call from any goroutine; applied on the next message loop iteration.
	RequestPointerLock()

	// ExitPointerLock releases a captured cursor.
	// Safe to call from any goroutine; applied on the next message loop iteration.
	ExitPointerLock()

	// PointerLocked reports whether the cursor is currently captured.
	//
	// Returns:
	//   - bool: true while locked
	PointerLocked() bool

	// ToggleFullscreen switches between windowed and fullscreen on the primary monitor.
	// Safe to call from any goroutine; applied on the next message loop iteration.
	ToggleFullscreen()

	// RequestClose asks the message loop to stop, which makes ProcessMessages return.
	// Safe to call from any goroutine.
	RequestClose()

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
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

// request flags consumed by the message loop
const (
	requestLock uint32 = 1 << iota
	requestUnlock
	requestFullscreen
	requestClose
)

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// minWidth and minHeight bound resizes from below.
	minWidth  int
	minHeight int

	// width and height are the current framebuffer size in pixels.
	width  int
	height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// requests holds lock/fullscreen requests raised from other goroutines.
	requests atomic.Uint32
	locked   atomic.Bool

	onUpdate       func()
	onResize       func(width, height int)
	onScroll       func(deltaY float64)
	onKeyDown      func(keyCode uint32)
	onKeyUp        func(keyCode uint32)
	onPointerDown  func(x, y float64)
	onPointerUp    func(x, y float64)
	onPointerMove  func(x, y float64)
	onPointerLeave func()
	onLook         func(dx, dy float64)
	onPointerLock  func(locked bool, err error)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
// Panics if the platform window cannot be created; use Open for an error instead.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w, err := Open(options...)
	if err != nil {
		panic(err)
	}
	return w
}

// Open creates a new Window with the specified options.
// Must be called from the main goroutine; the OS thread is locked for the lifetime of the window.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
//   - error: error if the platform window cannot be created
func Open(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "Gallery",
		minWidth:  600,
		minHeight: 200,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(deltaY float64)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetPointerDownCallback(callback func(x, y float64)) {
	w.onPointerDown = callback
}

func (w *engineWindow) SetPointerUpCallback(callback func(x, y float64)) {
	w.onPointerUp = callback
}

func (w *engineWindow) SetPointerMoveCallback(callback func(x, y float64)) {
	w.onPointerMove = callback
}

func (w *engineWindow) SetPointerLeaveCallback(callback func()) {
	w.onPointerLeave = callback
}

func (w *engineWindow) SetLookCallback(callback func(dx, dy float64)) {
	w.onLook = callback
}

func (w *engineWindow) SetPointerLockCallback(callback func(locked bool, err error)) {
	w.onPointerLock = callback
}

func (w *engineWindow) RequestPointerLock() {
	w.raise(requestLock)
}

func (w *engineWindow) ExitPointerLock() {
	w.raise(requestUnlock)
}

func (w *engineWindow) PointerLocked() bool {
	return w.locked.Load()
}

func (w *engineWindow) ToggleFullscreen() {
	w.raise(requestFullscreen)
}

func (w *engineWindow) RequestClose() {
	w.raise(requestClose)
}

// raise records a request bit for the message loop.
func (w *engineWindow) raise(bit uint32) {
	for {
		old := w.requests.Load()
		if w.requests.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}
		if req := w.requests.Swap(0); req != 0 {
			platformApplyRequests(w, req)
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// setLocked records a lock change and notifies the callback when the state flipped or failed.
func (w *engineWindow) setLocked(locked bool, err error) {
	changed := w.locked.Swap(locked) != locked
	if (changed || err != nil) && w.onPointerLock != nil {
		w.onPointerLock(locked, err)
	}
}
