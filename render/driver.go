package render

import (
	vk "github.com/goki/vulkan"
)

//Opaque handles handed out by a Driver. Zero is never a live handle.
type (
	Fence               uint64
	Semaphore           uint64
	CommandBuffer       uint64
	BufferHandle        uint64
	ImageHandle         uint64
	ImageView           uint64
	Memory              uint64
	SwapchainHandle     uint64
	Sampler             uint64
	ShaderModule        uint64
	DescriptorSetLayout uint64
	PipelineLayout      uint64
	PipelineHandle      uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
)

type Extent struct {
	Width  uint32
	Height uint32
}

//DeviceInfo is what the renderer needs to know about the selected GPU
type DeviceInfo struct {
	Name                  string
	GraphicsFamily        uint32
	PresentFamily         uint32
	MemoryTypes           []vk.MemoryPropertyFlags
	MaxUniformBufferRange uint32
	MaxSamplerAnisotropy  float32
}

type SurfaceFormat struct {
	Format     vk.Format
	ColorSpace vk.ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent
	MinImageExtent Extent
	MaxImageExtent Extent
}

//SurfaceSupport is queried fresh at every swapchain creation
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []vk.PresentMode
}

type SwapchainConfig struct {
	ImageCount  uint32
	Format      SurfaceFormat
	Extent      Extent
	PresentMode vk.PresentMode
}

type MemoryRequirements struct {
	Size           uint64
	MemoryTypeBits uint32
}

type ImageConfig struct {
	Width  uint32
	Height uint32
	Format vk.Format
	Tiling vk.ImageTiling
	Usage  vk.ImageUsageFlags
}

type SamplerConfig struct {
	MaxAnisotropy float32
}

//Barrier is one fully resolved image memory barrier
type Barrier struct {
	OldLayout vk.ImageLayout
	NewLayout vk.ImageLayout
	SrcStage  vk.PipelineStageFlags
	SrcAccess vk.AccessFlags
	DstStage  vk.PipelineStageFlags
	DstAccess vk.AccessFlags
	Aspect    vk.ImageAspectFlags
}

type SubmitInfo struct {
	Commands  CommandBuffer
	Wait      Semaphore
	WaitStage vk.PipelineStageFlags
	Signal    Semaphore
	Fence     Fence
}

type Attachment struct {
	View       ImageView
	Layout     vk.ImageLayout
	Store      bool
	ClearColor [4]float32
	ClearDepth float32
}

//RenderingInfo describes one dynamic rendering scope. Depth is optional.
type RenderingInfo struct {
	Area  Extent
	Color Attachment
	Depth *Attachment
}

type DescriptorBinding struct {
	Binding uint32
	Type    vk.DescriptorType
	Count   uint32
	Stages  vk.ShaderStageFlags
}

type DescriptorPoolSize struct {
	Type  vk.DescriptorType
	Count uint32
}

//DescriptorWrite fills binding 0 with a uniform buffer and binding 1 with sampled images
type DescriptorWrite struct {
	Uniform      BufferHandle
	UniformRange uint64
	Sampler      Sampler
	Images       []ImageView
}

type VertexAttribute struct {
	Location uint32
	Format   vk.Format
	Offset   uint32
}

type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

type PushConstantRange struct {
	Stages vk.ShaderStageFlags
	Offset uint32
	Size   uint32
}

type PipelineConfig struct {
	Vertex      ShaderModule
	Fragment    ShaderModule
	Layout      PipelineLayout
	Input       *VertexLayout
	CullMode    vk.CullModeFlags
	FrontFace   vk.FrontFace
	DepthTest   bool
	ColorFormat vk.Format
	DepthFormat vk.Format
}

//Driver is the GPU seam used by every renderer component. A Vulkan implementation lives in
//package vkdriver, tests provide a scripted stub.
type Driver interface {
	Info() DeviceInfo
	FormatFeatures(format vk.Format, tiling vk.ImageTiling) vk.FormatFeatureFlags
	WaitIdle() error
	QueueWaitIdle() error
	Destroy()

	SurfaceSupport() (SurfaceSupport, error)
	CreateSwapchain(cfg SwapchainConfig) (SwapchainHandle, []ImageHandle, error)
	DestroySwapchain(sc SwapchainHandle)
	AcquireNextImage(sc SwapchainHandle, signal Semaphore) (uint32, vk.Result)
	Present(sc SwapchainHandle, image uint32, wait Semaphore) vk.Result

	CreateFence(signaled bool) (Fence, error)
	DestroyFence(f Fence)
	WaitFence(f Fence) error
	ResetFence(f Fence) error
	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(s Semaphore)

	AllocateCommandBuffers(n int) ([]CommandBuffer, error)
	FreeCommandBuffers(cmds []CommandBuffer)
	BeginCommandBuffer(cmd CommandBuffer, oneShot bool) error
	EndCommandBuffer(cmd CommandBuffer) error
	ResetCommandBuffer(cmd CommandBuffer) error
	Submit(info SubmitInfo) error

	CreateBuffer(size uint64, usage vk.BufferUsageFlags) (BufferHandle, MemoryRequirements, error)
	DestroyBuffer(b BufferHandle)
	CreateImage(cfg ImageConfig) (ImageHandle, MemoryRequirements, error)
	DestroyImage(img ImageHandle)
	AllocateMemory(size uint64, typeIndex uint32) (Memory, error)
	FreeMemory(mem Memory)
	BindBufferMemory(b BufferHandle, mem Memory) error
	BindImageMemory(img ImageHandle, mem Memory) error
	MapMemory(mem Memory, size uint64) ([]byte, error)
	UnmapMemory(mem Memory)
	CreateImageView(img ImageHandle, format vk.Format, aspect vk.ImageAspectFlags) (ImageView, error)
	DestroyImageView(view ImageView)
	CreateSampler(cfg SamplerConfig) (Sampler, error)
	DestroySampler(s Sampler)

	CreateShaderModule(code []uint32) (ShaderModule, error)
	DestroyShaderModule(m ShaderModule)
	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(l DescriptorSetLayout)
	CreatePipelineLayout(set DescriptorSetLayout, push []PushConstantRange) (PipelineLayout, error)
	DestroyPipelineLayout(l PipelineLayout)
	CreateGraphicsPipeline(cfg PipelineConfig) (PipelineHandle, error)
	DestroyPipeline(p PipelineHandle)
	CreateDescriptorPool(maxSets uint32, sizes []DescriptorPoolSize) (DescriptorPool, error)
	DestroyDescriptorPool(p DescriptorPool)
	AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error)
	WriteDescriptorSet(set DescriptorSet, w DescriptorWrite)

	CmdImageBarrier(cmd CommandBuffer, img ImageHandle, b Barrier)
	CmdCopyBuffer(cmd CommandBuffer, src, dst BufferHandle, size uint64)
	CmdCopyBufferToImage(cmd CommandBuffer, src BufferHandle, dst ImageHandle, width, height uint32)
	CmdBeginRendering(cmd CommandBuffer, info RenderingInfo)
	CmdEndRendering(cmd CommandBuffer)
	CmdBindPipeline(cmd CommandBuffer, p PipelineHandle)
	CmdSetViewportScissor(cmd CommandBuffer, area Extent)
	CmdBindDescriptorSet(cmd CommandBuffer, layout PipelineLayout, set DescriptorSet)
	CmdBindVertexBuffer(cmd CommandBuffer, b BufferHandle)
	CmdBindIndexBuffer(cmd CommandBuffer, b BufferHandle)
	CmdPushConstants(cmd CommandBuffer, layout PipelineLayout, stages vk.ShaderStageFlags, data []byte)
	CmdDraw(cmd CommandBuffer, vertexCount uint32)
	CmdDrawIndexed(cmd CommandBuffer, indexCount uint32)
}

//Window is the part of the window collaborator the swapchain needs
type Window interface {
	FramebufferSize() (int, int)
}
