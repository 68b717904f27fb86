package render

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

const undefinedExtent = 0xFFFFFFFF

//ChooseSurfaceFormat prefers BGRA8 SRGB with the sRGB nonlinear color space, else the first format
func ChooseSurfaceFormat(formats []SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, errors.New("surface reports no formats")
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

//ChoosePresentMode prefers mailbox and falls back to FIFO which is always available
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

//ChooseExtent uses the fixed surface extent when reported, otherwise the window size clamped to the surface limits
func ChooseExtent(caps SurfaceCapabilities, width, height int) Extent {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}
	clamp := func(v int, lo, hi uint32) uint32 {
		if v < 0 {
			v = 0
		}
		u := uint32(v)
		if u < lo {
			return lo
		}
		if u > hi {
			return hi
		}
		return u
	}
	return Extent{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

//ChooseImageCount asks for one image over the minimum, bounded by the maximum when there is one
func ChooseImageCount(caps SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

//Swapchain owns the presentable images, their views, one render finished semaphore per image
//and an optional depth image sized to the chain.
type Swapchain struct {
	drv     Driver
	factory *Factory
	window  Window
	log     *Logger

	handle      SwapchainHandle
	format      SurfaceFormat
	extent      Extent
	presentMode vk.PresentMode
	images      []ImageHandle
	views       []ImageView

	//indexed by acquired image index, never by frame slot
	renderFinished []Semaphore

	wantDepth   bool
	depthFormat vk.Format
	depth       *Image
}

func NewSwapchain(drv Driver, factory *Factory, window Window, logger *Logger) *Swapchain {
	if logger == nil {
		logger = Discard
	}
	return &Swapchain{drv: drv, factory: factory, window: window, log: logger}
}

func (s *Swapchain) Handle() SwapchainHandle      { return s.handle }
func (s *Swapchain) Format() vk.Format            { return s.format.Format }
func (s *Swapchain) Extent() Extent               { return s.extent }
func (s *Swapchain) ImageCount() int              { return len(s.images) }
func (s *Swapchain) Image(i uint32) ImageHandle   { return s.images[i] }
func (s *Swapchain) View(i uint32) ImageView      { return s.views[i] }
func (s *Swapchain) RenderFinished(i uint32) Semaphore {
	return s.renderFinished[i]
}
func (s *Swapchain) Depth() *Image { return s.depth }

//Create negotiates format, present mode, extent and image count with the surface and builds the chain.
//Every image is moved to PRESENT layout before Create returns.
func (s *Swapchain) Create(wantDepth bool) (err error) {
	s.wantDepth = wantDepth
	defer func() {
		if err != nil {
			s.Destroy()
		}
	}()

	support, err := s.drv.SurfaceSupport()
	if err != nil {
		return fatal("query surface support", err)
	}
	if s.format, err = ChooseSurfaceFormat(support.Formats); err != nil {
		return fatal("create swapchain", err)
	}
	s.presentMode = ChoosePresentMode(support.PresentModes)
	width, height := s.window.FramebufferSize()
	s.extent = ChooseExtent(support.Capabilities, width, height)

	s.handle, s.images, err = s.drv.CreateSwapchain(SwapchainConfig{
		ImageCount:  ChooseImageCount(support.Capabilities),
		Format:      s.format,
		Extent:      s.extent,
		PresentMode: s.presentMode,
	})
	if err != nil {
		return fatal("create swapchain", err)
	}
	if len(s.images) < 2 {
		return fatal("create swapchain", errors.Errorf("surface gave %d images, need at least 2", len(s.images)))
	}

	err = s.factory.OneShot(func(cmd CommandBuffer) error {
		for _, img := range s.images {
			if err := s.factory.TransitionLayout(cmd, img, s.format.Format, vk.ImageLayoutUndefined, vk.ImageLayoutPresentSrc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, img := range s.images {
		view, err := s.drv.CreateImageView(img, s.format.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return fatal("create swapchain view", err)
		}
		s.views = append(s.views, view)

		sem, err := s.drv.CreateSemaphore()
		if err != nil {
			return fatal("create render finished semaphore", err)
		}
		s.renderFinished = append(s.renderFinished, sem)
	}

	if wantDepth {
		if s.depthFormat, err = FindDepthFormat(s.drv); err != nil {
			return err
		}
		s.depth, err = s.factory.CreateAttachment(s.extent.Width, s.extent.Height, s.depthFormat,
			vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), vk.ImageAspectFlags(vk.ImageAspectDepthBit))
		if err != nil {
			return err
		}
		if err := s.factory.TransitionNow(s.depth, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal); err != nil {
			return err
		}
	}

	s.log.Infof("swapchain: %d images %dx%d format %d present mode %d",
		len(s.images), s.extent.Width, s.extent.Height, s.format.Format, s.presentMode)
	return nil
}

//Destroy releases everything Create made. Safe on a partially created chain.
func (s *Swapchain) Destroy() {
	if s.depth != nil {
		s.depth.Destroy()
		s.depth = nil
	}
	for _, sem := range s.renderFinished {
		s.drv.DestroySemaphore(sem)
	}
	s.renderFinished = nil
	for _, view := range s.views {
		s.drv.DestroyImageView(view)
	}
	s.views = nil
	s.images = nil
	if s.handle != 0 {
		s.drv.DestroySwapchain(s.handle)
		s.handle = 0
	}
}

//Recreate waits for the device, tears the chain down and builds it again with the same depth policy
func (s *Swapchain) Recreate() error {
	if err := s.drv.WaitIdle(); err != nil {
		return fatal("recreate swapchain", err)
	}
	s.Destroy()
	return s.Create(s.wantDepth)
}
