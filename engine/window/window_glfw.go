package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// glfwWindow is a Window backed by GLFW.
type glfwWindow struct {
	window  *glfw.Window
	handler Handler
	drag    dragTracker

	width, height int
}

var _ Window = &glfwWindow{}

// New opens a GLFW window without a client API, ready for a wgpu surface. The calling goroutine is locked to its
// OS thread; PollEvents must be called from it.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: error if GLFW cannot initialise or create the window
func New(options ...WindowBuilderOption) (Window, error) {
	s := defaultSettings()
	for _, option := range options {
		option(&s)
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: initializing GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, boolHint(s.resizable))

	win, err := glfw.CreateWindow(s.width, s.height, s.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: creating window: %w", err)
	}
	maxW, maxH := glfw.DontCare, glfw.DontCare
	if s.maxWidth > 0 {
		maxW = s.maxWidth
	}
	if s.maxHeight > 0 {
		maxH = s.maxHeight
	}
	win.SetSizeLimits(s.minWidth, s.minHeight, maxW, maxH)

	w := &glfwWindow{window: win}
	w.install()

	// On high-DPI displays the framebuffer is larger than the window.
	w.width, w.height = win.GetFramebufferSize()
	logger.Named("window").Info("window opened",
		zap.String("title", s.title),
		zap.Int("width", w.width),
		zap.Int("height", w.height))
	return w, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func glfwButton(b glfw.MouseButton) (MouseButton, bool) {
	switch b {
	case glfw.MouseButtonLeft:
		return MouseLeft, true
	case glfw.MouseButtonRight:
		return MouseRight, true
	case glfw.MouseButtonMiddle:
		return MouseMiddle, true
	}
	return 0, false
}

// install registers the GLFW callbacks. Escape closes the window.
func (w *glfwWindow) install() {
	w.window.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
			return
		}
		if w.handler.Key != nil {
			w.handler.Key(uint32(key), action != glfw.Release)
		}
	})

	w.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.handler.Scroll != nil {
			w.handler.Scroll(float32(yoff))
		}
	})

	w.window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if b, ok := glfwButton(button); ok {
			w.drag.press(b, action == glfw.Press)
		}
	})

	w.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.drag.move(x, y, w.handler.Drag)
	})

	// The surface needs pixels, so resizes follow the framebuffer rather than the window.
	w.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.handler.Resize != nil && width > 0 && height > 0 {
			w.handler.Resize(width, height)
		}
	})
}

func (w *glfwWindow) SetHandler(h Handler) { w.handler = h }

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.window == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.window)
}

func (w *glfwWindow) PollEvents() bool {
	if w.window == nil {
		return false
	}
	glfw.PollEvents()
	return !w.window.ShouldClose()
}

func (w *glfwWindow) Size() (int, int) { return w.width, w.height }

func (w *glfwWindow) SetTitle(title string) {
	if w.window != nil {
		w.window.SetTitle(title)
	}
}

func (w *glfwWindow) Close() error {
	if w.window == nil {
		return errors.New("window: already closed")
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
	return nil
}
