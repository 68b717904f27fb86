package render

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//Buffer pairs a GPU buffer with the memory backing it. Destroy releases both.
type Buffer struct {
	Handle BufferHandle
	Memory Memory
	Size   uint64
	mapped []byte
	drv    Driver
}

//Mapped is the persistently mapped view, nil unless Map was called
func (b *Buffer) Mapped() []byte {
	return b.mapped
}

//Map keeps the buffer mapped until Destroy. Only host visible buffers can be mapped.
func (b *Buffer) Map() ([]byte, error) {
	if b.mapped != nil {
		return b.mapped, nil
	}
	data, err := b.drv.MapMemory(b.Memory, b.Size)
	if err != nil {
		return nil, fatal("map buffer", err)
	}
	b.mapped = data
	return data, nil
}

func (b *Buffer) Destroy() {
	if b == nil || b.drv == nil {
		return
	}
	if b.mapped != nil {
		b.drv.UnmapMemory(b.Memory)
		b.mapped = nil
	}
	b.drv.DestroyBuffer(b.Handle)
	b.drv.FreeMemory(b.Memory)
	b.drv = nil
}

//Image pairs a GPU image with its memory and, once created, its view
type Image struct {
	Handle ImageHandle
	Memory Memory
	View   ImageView
	Format vk.Format
	Width  uint32
	Height uint32
	drv    Driver
}

func (img *Image) Destroy() {
	if img == nil || img.drv == nil {
		return
	}
	if img.View != 0 {
		img.drv.DestroyImageView(img.View)
	}
	img.drv.DestroyImage(img.Handle)
	img.drv.FreeMemory(img.Memory)
	img.drv = nil
}

//Factory creates buffers and images and moves data into device local memory
type Factory struct {
	drv   Driver
	types []vk.MemoryPropertyFlags
}

func NewFactory(drv Driver) *Factory {
	return &Factory{drv: drv, types: drv.Info().MemoryTypes}
}

func (f *Factory) allocate(req MemoryRequirements, props vk.MemoryPropertyFlags) (Memory, error) {
	index, err := FindMemoryType(f.types, req.MemoryTypeBits, props)
	if err != nil {
		return 0, err
	}
	mem, err := f.drv.AllocateMemory(req.Size, index)
	if err != nil {
		return 0, fatal("allocate memory", err)
	}
	return mem, nil
}

func (f *Factory) CreateBuffer(size uint64, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*Buffer, error) {
	handle, req, err := f.drv.CreateBuffer(size, usage)
	if err != nil {
		return nil, fatal("create buffer", err)
	}
	mem, err := f.allocate(req, props)
	if err != nil {
		f.drv.DestroyBuffer(handle)
		return nil, err
	}
	if err := f.drv.BindBufferMemory(handle, mem); err != nil {
		f.drv.DestroyBuffer(handle)
		f.drv.FreeMemory(mem)
		return nil, fatal("bind buffer memory", err)
	}
	return &Buffer{Handle: handle, Memory: mem, Size: size, drv: f.drv}, nil
}

func (f *Factory) CreateImage(width, height uint32, format vk.Format, tiling vk.ImageTiling,
	usage vk.ImageUsageFlags, props vk.MemoryPropertyFlags) (*Image, error) {

	handle, req, err := f.drv.CreateImage(ImageConfig{
		Width:  width,
		Height: height,
		Format: format,
		Tiling: tiling,
		Usage:  usage,
	})
	if err != nil {
		return nil, fatal("create image", err)
	}
	mem, err := f.allocate(req, props)
	if err != nil {
		f.drv.DestroyImage(handle)
		return nil, err
	}
	if err := f.drv.BindImageMemory(handle, mem); err != nil {
		f.drv.DestroyImage(handle)
		f.drv.FreeMemory(mem)
		return nil, fatal("bind image memory", err)
	}
	return &Image{Handle: handle, Memory: mem, Format: format, Width: width, Height: height, drv: f.drv}, nil
}

//CreateView attaches a view covering the single mip level and layer of img
func (f *Factory) CreateView(img *Image, aspect vk.ImageAspectFlags) error {
	view, err := f.drv.CreateImageView(img.Handle, img.Format, aspect)
	if err != nil {
		return fatal("create image view", err)
	}
	img.View = view
	return nil
}

//CreateAttachment creates a device local image with a view, or nothing at all on failure
func (f *Factory) CreateAttachment(width, height uint32, format vk.Format, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (*Image, error) {
	img, err := f.CreateImage(width, height, format, vk.ImageTilingOptimal, usage, deviceLocal)
	if err != nil {
		return nil, err
	}
	if err := f.CreateView(img, aspect); err != nil {
		img.Destroy()
		return nil, err
	}
	return img, nil
}

//OneShot records fn into a temporary command buffer, submits it and waits for the queue to drain
func (f *Factory) OneShot(fn func(cmd CommandBuffer) error) error {
	cmds, err := f.drv.AllocateCommandBuffers(1)
	if err != nil {
		return fatal("allocate one shot commands", err)
	}
	defer f.drv.FreeCommandBuffers(cmds)
	cmd := cmds[0]

	if err := f.drv.BeginCommandBuffer(cmd, true); err != nil {
		return fatal("begin one shot commands", err)
	}
	if err := fn(cmd); err != nil {
		return err
	}
	if err := f.drv.EndCommandBuffer(cmd); err != nil {
		return fatal("end one shot commands", err)
	}
	if err := f.drv.Submit(SubmitInfo{Commands: cmd}); err != nil {
		return fatal("submit one shot commands", err)
	}
	if err := f.drv.QueueWaitIdle(); err != nil {
		return fatal("wait one shot commands", err)
	}
	return nil
}

//TransitionLayout records the table barrier for img moving from one layout to another
func (f *Factory) TransitionLayout(cmd CommandBuffer, img ImageHandle, format vk.Format, from, to vk.ImageLayout) error {
	b, err := LookupTransition(format, from, to)
	if err != nil {
		return err
	}
	f.drv.CmdImageBarrier(cmd, img, b)
	return nil
}

//TransitionNow performs a single transition through a one shot submission
func (f *Factory) TransitionNow(img *Image, from, to vk.ImageLayout) error {
	return f.OneShot(func(cmd CommandBuffer) error {
		return f.TransitionLayout(cmd, img.Handle, img.Format, from, to)
	})
}

func (f *Factory) Copy(src, dst *Buffer) error {
	if dst.Size < src.Size {
		return fatal("copy buffer", errors.Errorf("destination holds %d bytes, source has %d", dst.Size, src.Size))
	}
	return f.OneShot(func(cmd CommandBuffer) error {
		f.drv.CmdCopyBuffer(cmd, src.Handle, dst.Handle, src.Size)
		return nil
	})
}

func (f *Factory) staging(data []byte) (*Buffer, error) {
	staging, err := f.CreateBuffer(uint64(len(data)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostCoherent)
	if err != nil {
		return nil, err
	}
	mapped, err := f.drv.MapMemory(staging.Memory, staging.Size)
	if err != nil {
		staging.Destroy()
		return nil, fatal("map staging buffer", err)
	}
	copy(mapped, data)
	f.drv.UnmapMemory(staging.Memory)
	return staging, nil
}

//UploadBuffer creates a device local buffer holding data. TRANSFER_DST is added to usage.
func (f *Factory) UploadBuffer(data []byte, usage vk.BufferUsageFlags) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fatal("upload buffer", errors.New("empty buffer"))
	}
	staging, err := f.staging(data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	dst, err := f.CreateBuffer(staging.Size, usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), deviceLocal)
	if err != nil {
		return nil, err
	}
	if err := f.Copy(staging, dst); err != nil {
		dst.Destroy()
		return nil, err
	}
	return dst, nil
}

//UploadTexture creates a sampled SRGB image from tightly packed RGBA pixels, left in SHADER_READ layout
func (f *Factory) UploadTexture(tex Texture) (*Image, error) {
	if len(tex.Pixels) != tex.Width*tex.Height*4 || tex.Width <= 0 || tex.Height <= 0 {
		return nil, fatal("upload texture", errors.Errorf("%dx%d texture with %d bytes", tex.Width, tex.Height, len(tex.Pixels)))
	}
	staging, err := f.staging(tex.Pixels)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	img, err := f.CreateImage(uint32(tex.Width), uint32(tex.Height), TextureFormat, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit), deviceLocal)
	if err != nil {
		return nil, err
	}
	err = f.OneShot(func(cmd CommandBuffer) error {
		if err := f.TransitionLayout(cmd, img.Handle, img.Format, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		f.drv.CmdCopyBufferToImage(cmd, staging.Handle, img.Handle, img.Width, img.Height)
		return f.TransitionLayout(cmd, img.Handle, img.Format, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err == nil {
		err = f.CreateView(img, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	}
	if err != nil {
		img.Destroy()
		return nil, err
	}
	return img, nil
}

//Texture is a decoded image as tightly packed RGBA rows
type Texture struct {
	Name   string
	Width  int
	Height int
	Pixels []byte
}

const TextureFormat = vk.FormatR8g8b8a8Srgb
