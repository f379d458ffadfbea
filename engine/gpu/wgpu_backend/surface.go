package wgpu_backend

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrFrameInFlight is returned when a view is requested before the previous one was presented.
var ErrFrameInFlight = errors.New("wgpu_backend: previous frame surface not yet presented")

// Surface is a gpu.Surface backed by a wgpu surface.
type Surface struct {
	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device  *wgpu.Device

	format        wgpu.TextureFormat
	width, height uint32
	presentMode   PresentMode

	frame *textureView
}

var _ gpu.Surface = &Surface{}

func (s *Surface) Configure(width, height uint32) {
	capabilities := s.surface.GetCapabilities(s.adapter)
	s.format = capabilities.Formats[0]
	s.width, s.height = width, height

	mode := wgpu.PresentModeImmediate
	if s.presentMode == PresentModeVSync {
		mode = wgpu.PresentModeFifo
	}
	s.surface.Configure(s.adapter, s.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.format,
		Width:       width,
		Height:      height,
		PresentMode: mode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (s *Surface) Format() gpu.TextureFormat { return fromTextureFormat(s.format) }

func (s *Surface) Size() (uint32, uint32) { return s.width, s.height }

// CurrentView acquires the next swapchain image. Acquiring twice without presenting is refused, since wgpu-native
// rejects a second acquire of the same surface.
func (s *Surface) CurrentView() (gpu.TextureView, error) {
	if s.frame != nil {
		return nil, ErrFrameInFlight
	}
	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	s.frame = &textureView{v: view, owned: tex}
	return s.frame, nil
}

func (s *Surface) Present() {
	if s.frame == nil {
		return
	}
	s.surface.Present()
	s.frame.Release()
	s.frame = nil
}

// Release frees the surface.
func (s *Surface) Release() {
	s.surface.Release()
}
