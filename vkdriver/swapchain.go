package vkdriver

import (
	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//swapchain keeps the driver handles of the presentable images so they can be forgotten with it
type swapchain struct {
	handle vk.Swapchain
	images []render.ImageHandle
}

func (d *Driver) SurfaceSupport() (render.SurfaceSupport, error) {
	var caps vk.SurfaceCapabilities
	if err := check("surface capabilities", vk.GetPhysicalDeviceSurfaceCapabilities(d.gpu, d.surface, &caps)); err != nil {
		return render.SurfaceSupport{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var count uint32
	vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &count, nil)
	formats := make([]vk.SurfaceFormat, count)
	vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &count, formats)

	var mode_count uint32
	vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &mode_count, nil)
	modes := make([]vk.PresentMode, mode_count)
	vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &mode_count, modes)

	support := render.SurfaceSupport{
		Capabilities: render.SurfaceCapabilities{
			MinImageCount:  caps.MinImageCount,
			MaxImageCount:  caps.MaxImageCount,
			CurrentExtent:  render.Extent{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
			MinImageExtent: render.Extent{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
			MaxImageExtent: render.Extent{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		},
		PresentModes: modes,
	}
	for i := range formats {
		formats[i].Deref()
		support.Formats = append(support.Formats, render.SurfaceFormat{
			Format:     formats[i].Format,
			ColorSpace: formats[i].ColorSpace,
		})
	}
	return support, nil
}

//surfaceTransform prefers identity and otherwise keeps whatever the surface currently uses
func surfaceTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return caps.CurrentTransform
}

//compositeAlpha picks the first supported mode, one of these is always set
func compositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	for _, mode := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(mode) != 0 {
			return mode
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func (d *Driver) CreateSwapchain(cfg render.SwapchainConfig) (render.SwapchainHandle, []render.ImageHandle, error) {
	var caps vk.SurfaceCapabilities
	if err := check("surface capabilities", vk.GetPhysicalDeviceSurfaceCapabilities(d.gpu, d.surface, &caps)); err != nil {
		return 0, nil, err
	}
	caps.Deref()

	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    cfg.ImageCount,
		ImageFormat:      cfg.Format.Format,
		ImageColorSpace:  cfg.Format.ColorSpace,
		ImageExtent:      vk.Extent2D{Width: cfg.Extent.Width, Height: cfg.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     surfaceTransform(caps),
		CompositeAlpha:   compositeAlpha(caps),
		PresentMode:      cfg.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if d.info.GraphicsFamily != d.info.PresentFamily {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = 2
		info.PQueueFamilyIndices = []uint32{d.info.GraphicsFamily, d.info.PresentFamily}
	}

	var handle vk.Swapchain
	if err := check("create swapchain", vk.CreateSwapchain(d.device, &info, nil, &handle)); err != nil {
		return 0, nil, err
	}

	var count uint32
	if err := check("swapchain images", vk.GetSwapchainImages(d.device, handle, &count, nil)); err != nil {
		vk.DestroySwapchain(d.device, handle, nil)
		return 0, nil, err
	}
	images := make([]vk.Image, count)
	if err := check("swapchain images", vk.GetSwapchainImages(d.device, handle, &count, images)); err != nil {
		vk.DestroySwapchain(d.device, handle, nil)
		return 0, nil, err
	}

	sc := &swapchain{handle: handle, images: make([]render.ImageHandle, count)}
	for i, img := range images {
		sc.images[i] = render.ImageHandle(d.images.put(img))
	}
	return render.SwapchainHandle(d.swapchains.put(sc)), sc.images, nil
}

//DestroySwapchain forgets the presentable images, they are owned by the swapchain
func (d *Driver) DestroySwapchain(h render.SwapchainHandle) {
	sc, ok := d.swapchains.take(uint64(h))
	if !ok {
		return
	}
	for _, img := range sc.images {
		d.images.take(uint64(img))
	}
	vk.DestroySwapchain(d.device, sc.handle, nil)
}

func (d *Driver) AcquireNextImage(h render.SwapchainHandle, signal render.Semaphore) (uint32, vk.Result) {
	sc, ok := d.swapchains.get(uint64(h))
	if !ok {
		d.log.Errorf("vulkan: acquire on unknown swapchain %d", h)
		return 0, vk.ErrorInitializationFailed
	}
	var index uint32
	ret := vk.AcquireNextImage(d.device, sc.handle, vk.MaxUint64, d.semaphore(signal), vk.NullFence, &index)
	return index, ret
}

func (d *Driver) Present(h render.SwapchainHandle, image uint32, wait render.Semaphore) vk.Result {
	sc, ok := d.swapchains.get(uint64(h))
	if !ok {
		d.log.Errorf("vulkan: present on unknown swapchain %d", h)
		return vk.ErrorInitializationFailed
	}
	return vk.QueuePresent(d.present_queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.semaphore(wait)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.handle},
		PImageIndices:      []uint32{image},
	})
}

func (d *Driver) semaphore(h render.Semaphore) vk.Semaphore {
	if s, ok := d.semaphores.get(uint64(h)); ok {
		return s
	}
	return vk.NullSemaphore
}

//lookup errors are programming errors in the renderer and are always fatal
func unknown(kind string, h uint64) error {
	return fail("lookup", errors.Errorf("unknown %s handle %d", kind, h))
}
