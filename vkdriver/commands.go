package vkdriver

import (
	"unsafe"

	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
)

//CmdImageBarrier records one image memory barrier covering the whole single level image
func (d *Driver) CmdImageBarrier(cmd render.CommandBuffer, img render.ImageHandle, b render.Barrier) {
	image, _ := d.images.get(uint64(img))
	vk.CmdPipelineBarrier(d.command(cmd), b.SrcStage, b.DstStage, 0, 0, nil, 0, nil,
		1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       b.SrcAccess,
			DstAccessMask:       b.DstAccess,
			OldLayout:           b.OldLayout,
			NewLayout:           b.NewLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: b.Aspect,
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
}

func (d *Driver) CmdCopyBuffer(cmd render.CommandBuffer, src, dst render.BufferHandle, size uint64) {
	from, _ := d.buffers.get(uint64(src))
	to, _ := d.buffers.get(uint64(dst))
	vk.CmdCopyBuffer(d.command(cmd), from, to, 1, []vk.BufferCopy{{Size: vk.DeviceSize(size)}})
}

func (d *Driver) CmdCopyBufferToImage(cmd render.CommandBuffer, src render.BufferHandle, dst render.ImageHandle, width, height uint32) {
	from, _ := d.buffers.get(uint64(src))
	to, _ := d.images.get(uint64(dst))
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(d.command(cmd), from, to, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

func (d *Driver) attachment(a render.Attachment, clear vk.ClearValue) vk.RenderingAttachmentInfo {
	view, _ := d.views.get(uint64(a.View))
	store := vk.AttachmentStoreOpDontCare
	if a.Store {
		store = vk.AttachmentStoreOpStore
	}
	return vk.RenderingAttachmentInfo{
		SType:       vk.StructureTypeRenderingAttachmentInfo,
		ImageView:   view,
		ImageLayout: a.Layout,
		ResolveMode: vk.ResolveModeNone,
		LoadOp:      vk.AttachmentLoadOpClear,
		StoreOp:     store,
		ClearValue:  clear,
	}
}

//CmdBeginRendering opens a dynamic rendering scope that clears its attachments
func (d *Driver) CmdBeginRendering(cmd render.CommandBuffer, info render.RenderingInfo) {
	color := []vk.RenderingAttachmentInfo{
		d.attachment(info.Color, vk.NewClearValue(info.Color.ClearColor[:])),
	}
	rendering := vk.RenderingInfo{
		SType: vk.StructureTypeRenderingInfo,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: info.Area.Width, Height: info.Area.Height},
		},
		LayerCount:           1,
		ColorAttachmentCount: 1,
		PColorAttachments:    color,
	}
	if info.Depth != nil {
		rendering.PDepthAttachment = []vk.RenderingAttachmentInfo{
			d.attachment(*info.Depth, vk.NewClearDepthStencil(info.Depth.ClearDepth, 0)),
		}
	}
	vk.CmdBeginRendering(d.command(cmd), &rendering)
}

func (d *Driver) CmdEndRendering(cmd render.CommandBuffer) {
	vk.CmdEndRendering(d.command(cmd))
}

func (d *Driver) CmdBindPipeline(cmd render.CommandBuffer, p render.PipelineHandle) {
	pipeline, _ := d.pipelines.get(uint64(p))
	vk.CmdBindPipeline(d.command(cmd), vk.PipelineBindPointGraphics, pipeline)
}

//CmdSetViewportScissor covers the whole area with depth range 0..1
func (d *Driver) CmdSetViewportScissor(cmd render.CommandBuffer, area render.Extent) {
	c := d.command(cmd)
	vk.CmdSetViewport(c, 0, 1, []vk.Viewport{{
		Width:    float32(area.Width),
		Height:   float32(area.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(c, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: area.Width, Height: area.Height},
	}})
}

func (d *Driver) CmdBindDescriptorSet(cmd render.CommandBuffer, layout render.PipelineLayout, set render.DescriptorSet) {
	l, _ := d.pipeline_layouts.get(uint64(layout))
	s, _ := d.sets.get(uint64(set))
	vk.CmdBindDescriptorSets(d.command(cmd), vk.PipelineBindPointGraphics, l, 0, 1, []vk.DescriptorSet{s.handle}, 0, nil)
}

func (d *Driver) CmdBindVertexBuffer(cmd render.CommandBuffer, b render.BufferHandle) {
	buffer, _ := d.buffers.get(uint64(b))
	vk.CmdBindVertexBuffers(d.command(cmd), 0, 1, []vk.Buffer{buffer}, []vk.DeviceSize{0})
}

//CmdBindIndexBuffer binds 16 bit indices
func (d *Driver) CmdBindIndexBuffer(cmd render.CommandBuffer, b render.BufferHandle) {
	buffer, _ := d.buffers.get(uint64(b))
	vk.CmdBindIndexBuffer(d.command(cmd), buffer, 0, vk.IndexTypeUint16)
}

func (d *Driver) CmdPushConstants(cmd render.CommandBuffer, layout render.PipelineLayout, stages vk.ShaderStageFlags, data []byte) {
	if len(data) == 0 {
		return
	}
	l, _ := d.pipeline_layouts.get(uint64(layout))
	vk.CmdPushConstants(d.command(cmd), l, stages, 0, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (d *Driver) CmdDraw(cmd render.CommandBuffer, vertexCount uint32) {
	vk.CmdDraw(d.command(cmd), vertexCount, 1, 0, 0)
}

func (d *Driver) CmdDrawIndexed(cmd render.CommandBuffer, indexCount uint32) {
	vk.CmdDrawIndexed(d.command(cmd), indexCount, 1, 0, 0, 0)
}
