package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// scrollPixels converts one GLFW scroll step into browser-style wheel pixels.
const scrollPixels = 100

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool

	// lastX and lastY track the virtual cursor while locked.
	lastX, lastY float64
	haveLast     bool

	// windowed geometry restored when leaving fullscreen.
	restoreX, restoreY, restoreW, restoreH int
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)

	gw := &glfwWindow{
		parent:  w,
		window:  win,
		running: true,
	}
	w.internalWindow = gw

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetScrollCallback
	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(-yoff * scrollPixels)
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetMouseButtonCallback
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := gw.cursor()
		switch action {
		case glfw.Press:
			if w.onPointerDown != nil {
				w.onPointerDown(x, y)
			}
		case glfw.Release:
			if w.onPointerUp != nil {
				w.onPointerUp(x, y)
			}
		}
	})

	// While locked the cursor is virtual and unbounded, so only deltas are meaningful.
	// Reference: https://www.glfw.org/docs/latest/input_guide.html#cursor_mode
	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if w.locked.Load() {
			if gw.haveLast && w.onLook != nil {
				w.onLook(xpos-gw.lastX, ypos-gw.lastY)
			}
			gw.lastX, gw.lastY, gw.haveLast = xpos, ypos, true
			return
		}
		if w.onPointerMove != nil {
			x, y := gw.scale(xpos, ypos)
			w.onPointerMove(x, y)
		}
	})

	win.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if !entered && !w.locked.Load() && w.onPointerLeave != nil {
			w.onPointerLeave()
		}
	})

	// Losing focus drops the capture, as a browser does.
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused && w.locked.Load() {
			gw.unlock()
		}
	})

	// Use framebuffer size callback for pixel-accurate resize events.
	// On high-DPI displays (e.g., macOS Retina), framebuffer size differs from window size.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// scale maps screen coordinates to framebuffer pixels.
func (gw *glfwWindow) scale(x, y float64) (float64, float64) {
	ww, wh := gw.window.GetSize()
	if ww <= 0 || wh <= 0 {
		return x, y
	}
	return x * float64(gw.parent.width) / float64(ww), y * float64(gw.parent.height) / float64(wh)
}

// cursor returns the pointer position in framebuffer pixels.
func (gw *glfwWindow) cursor() (float64, float64) {
	return gw.scale(gw.window.GetCursorPos())
}

// lock hides and captures the cursor, enabling raw motion where the platform supports it.
func (gw *glfwWindow) lock() {
	if gw.window.GetAttrib(glfw.Focused) != glfw.True {
		gw.parent.setLocked(false, ErrPointerLockUnfocused)
		return
	}
	gw.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		gw.window.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}
	gw.haveLast = false
	gw.parent.setLocked(true, nil)
}

// unlock restores the normal cursor.
func (gw *glfwWindow) unlock() {
	if glfw.RawMouseMotionSupported() {
		gw.window.SetInputMode(glfw.RawMouseMotion, glfw.False)
	}
	gw.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	gw.haveLast = false
	gw.parent.setLocked(false, nil)
}

// toggleFullscreen moves the window onto the primary monitor, or back to its windowed geometry.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetMonitor
func (gw *glfwWindow) toggleFullscreen() {
	if gw.window.GetMonitor() != nil {
		gw.window.SetMonitor(nil, gw.restoreX, gw.restoreY, gw.restoreW, gw.restoreH, glfw.DontCare)
		return
	}
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return
	}
	gw.restoreX, gw.restoreY = gw.window.GetPos()
	gw.restoreW, gw.restoreH = gw.window.GetSize()
	mode := monitor.GetVideoMode()
	gw.window.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
}

// platformApplyRequests runs requests raised from other goroutines on the main thread.
func platformApplyRequests(w *engineWindow, req uint32) {
	if w.internalWindow == nil {
		return
	}
	gw := w.internalWindow.(*glfwWindow)
	switch {
	case req&requestUnlock != 0 && w.locked.Load():
		gw.unlock()
	case req&requestLock != 0 && !w.locked.Load():
		gw.lock()
	}
	if req&requestFullscreen != 0 {
		gw.toggleFullscreen()
	}
	if req&requestClose != 0 {
		gw.window.SetShouldClose(true)
	}
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
// Uses the wgpuglfw bridge package which has per-platform implementations (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	gw := w.internalWindow.(*glfwWindow)
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

// platformIsRunningCheck returns whether the GLFW window is still active.
// Returns false if the internal window is nil, the running flag is cleared, or GLFW reports ShouldClose.
func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return gw.running && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	w.internalWindow = nil
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
