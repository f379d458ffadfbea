// Package window opens a native window for the wgpu surface and turns its input into camera friendly events.
package window

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// MouseButton identifies the button held during a drag.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Handler receives window events. Nil fields are ignored. All callbacks run on the goroutine calling PollEvents.
type Handler struct {
	// Resize receives the new framebuffer size in pixels.
	Resize func(width, height int)
	// Scroll receives the vertical wheel delta, positive away from the user.
	Scroll func(delta float32)
	// Key receives a key code and whether it went down or up. Repeats count as down.
	Key func(code uint32, down bool)
	// Drag receives the cursor movement in pixels while a mouse button is held.
	Drag func(button MouseButton, dx, dy float32)
}

// Window provides platform windowing and input event handling.
type Window interface {
	// SetHandler replaces the event handler.
	//
	// Parameters:
	//   - h: the callbacks to invoke
	SetHandler(h Handler)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil once closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// PollEvents dispatches pending events without blocking.
	//
	// Returns:
	//   - bool: false once the window was asked to close
	PollEvents() bool

	// Size returns the current framebuffer size in pixels.
	Size() (width, height int)

	// SetTitle changes the title bar text.
	SetTitle(title string)

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error
}

// settings is the configuration applied when the window opens.
type settings struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	maxWidth  int
	maxHeight int
	resizable bool
}

func defaultSettings() settings {
	return settings{
		title:     "oxy-scene",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 200,
		resizable: true,
	}
}

// dragTracker turns absolute cursor positions into drag deltas for the held buttons.
type dragTracker struct {
	held       [3]bool
	x, y       float64
	positioned bool
}

func (d *dragTracker) press(b MouseButton, down bool) {
	if b < 0 || int(b) >= len(d.held) {
		return
	}
	d.held[b] = down
}

// move records a cursor position and calls emit for every held button with the delta since the last position.
func (d *dragTracker) move(x, y float64, emit func(MouseButton, float32, float32)) {
	dx, dy := x-d.x, y-d.y
	wasPositioned := d.positioned
	d.x, d.y, d.positioned = x, y, true
	if !wasPositioned || emit == nil || (dx == 0 && dy == 0) {
		return
	}
	for b, held := range d.held {
		if held {
			emit(MouseButton(b), float32(dx), float32(dy))
		}
	}
}
