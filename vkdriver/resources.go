package vkdriver

import (
	"unsafe"

	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
)

func (d *Driver) CreateBuffer(size uint64, usage vk.BufferUsageFlags) (render.BufferHandle, render.MemoryRequirements, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := check("create buffer", ret); err != nil {
		return 0, render.MemoryRequirements{}, err
	}
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, buffer, &reqs)
	reqs.Deref()
	return render.BufferHandle(d.buffers.put(buffer)), render.MemoryRequirements{
		Size:           uint64(reqs.Size),
		MemoryTypeBits: reqs.MemoryTypeBits,
	}, nil
}

func (d *Driver) DestroyBuffer(h render.BufferHandle) {
	if b, ok := d.buffers.take(uint64(h)); ok {
		vk.DestroyBuffer(d.device, b, nil)
	}
}

func (d *Driver) CreateImage(cfg render.ImageConfig) (render.ImageHandle, render.MemoryRequirements, error) {
	var image vk.Image
	ret := vk.CreateImage(d.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    cfg.Format,
		Extent: vk.Extent3D{
			Width:  cfg.Width,
			Height: cfg.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        cfg.Tiling,
		Usage:         cfg.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image)
	if err := check("create image", ret); err != nil {
		return 0, render.MemoryRequirements{}, err
	}
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &reqs)
	reqs.Deref()
	return render.ImageHandle(d.images.put(image)), render.MemoryRequirements{
		Size:           uint64(reqs.Size),
		MemoryTypeBits: reqs.MemoryTypeBits,
	}, nil
}

func (d *Driver) DestroyImage(h render.ImageHandle) {
	if img, ok := d.images.take(uint64(h)); ok {
		vk.DestroyImage(d.device, img, nil)
	}
}

func (d *Driver) AllocateMemory(size uint64, typeIndex uint32) (render.Memory, error) {
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if err := check("allocate memory", ret); err != nil {
		return 0, err
	}
	return render.Memory(d.memories.put(memory)), nil
}

func (d *Driver) FreeMemory(h render.Memory) {
	if m, ok := d.memories.take(uint64(h)); ok {
		vk.FreeMemory(d.device, m, nil)
	}
}

func (d *Driver) BindBufferMemory(b render.BufferHandle, m render.Memory) error {
	buffer, ok := d.buffers.get(uint64(b))
	if !ok {
		return unknown("buffer", uint64(b))
	}
	memory, ok := d.memories.get(uint64(m))
	if !ok {
		return unknown("memory", uint64(m))
	}
	return check("bind buffer memory", vk.BindBufferMemory(d.device, buffer, memory, 0))
}

func (d *Driver) BindImageMemory(i render.ImageHandle, m render.Memory) error {
	image, ok := d.images.get(uint64(i))
	if !ok {
		return unknown("image", uint64(i))
	}
	memory, ok := d.memories.get(uint64(m))
	if !ok {
		return unknown("memory", uint64(m))
	}
	return check("bind image memory", vk.BindImageMemory(d.device, image, memory, 0))
}

//MapMemory maps the first size bytes and returns them as a slice over the mapping
func (d *Driver) MapMemory(h render.Memory, size uint64) ([]byte, error) {
	memory, ok := d.memories.get(uint64(h))
	if !ok {
		return nil, unknown("memory", uint64(h))
	}
	var data unsafe.Pointer
	if err := check("map memory", vk.MapMemory(d.device, memory, 0, vk.DeviceSize(size), 0, &data)); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(data), size), nil
}

func (d *Driver) UnmapMemory(h render.Memory) {
	if memory, ok := d.memories.get(uint64(h)); ok {
		vk.UnmapMemory(d.device, memory)
	}
}

func (d *Driver) CreateImageView(h render.ImageHandle, format vk.Format, aspect vk.ImageAspectFlags) (render.ImageView, error) {
	image, ok := d.images.get(uint64(h))
	if !ok {
		return 0, unknown("image", uint64(h))
	}
	var view vk.ImageView
	ret := vk.CreateImageView(d.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if err := check("create image view", ret); err != nil {
		return 0, err
	}
	return render.ImageView(d.views.put(view)), nil
}

func (d *Driver) DestroyImageView(h render.ImageView) {
	if v, ok := d.views.take(uint64(h)); ok {
		vk.DestroyImageView(d.device, v, nil)
	}
}

//CreateSampler builds the texture sampler: nearest magnification, linear minification, clamped
//edges and anisotropic filtering up to cfg.MaxAnisotropy
func (d *Driver) CreateSampler(cfg render.SamplerConfig) (render.Sampler, error) {
	var sampler vk.Sampler
	ret := vk.CreateSampler(d.device, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           cfg.MaxAnisotropy,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}, nil, &sampler)
	if err := check("create sampler", ret); err != nil {
		return 0, err
	}
	return render.Sampler(d.samplers.put(sampler)), nil
}

func (d *Driver) DestroySampler(h render.Sampler) {
	if s, ok := d.samplers.take(uint64(h)); ok {
		vk.DestroySampler(d.device, s, nil)
	}
}
