package vkdriver

import (
	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
)

func (d *Driver) CreateFence(signaled bool) (render.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := check("create fence", vk.CreateFence(d.device, &info, nil, &fence)); err != nil {
		return 0, err
	}
	return render.Fence(d.fences.put(fence)), nil
}

func (d *Driver) DestroyFence(h render.Fence) {
	if f, ok := d.fences.take(uint64(h)); ok {
		vk.DestroyFence(d.device, f, nil)
	}
}

func (d *Driver) WaitFence(h render.Fence) error {
	f, ok := d.fences.get(uint64(h))
	if !ok {
		return unknown("fence", uint64(h))
	}
	return check("wait fence", vk.WaitForFences(d.device, 1, []vk.Fence{f}, vk.True, vk.MaxUint64))
}

func (d *Driver) ResetFence(h render.Fence) error {
	f, ok := d.fences.get(uint64(h))
	if !ok {
		return unknown("fence", uint64(h))
	}
	return check("reset fence", vk.ResetFences(d.device, 1, []vk.Fence{f}))
}

func (d *Driver) CreateSemaphore() (render.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if err := check("create semaphore", ret); err != nil {
		return 0, err
	}
	return render.Semaphore(d.semaphores.put(sem)), nil
}

func (d *Driver) DestroySemaphore(h render.Semaphore) {
	if s, ok := d.semaphores.take(uint64(h)); ok {
		vk.DestroySemaphore(d.device, s, nil)
	}
}

func (d *Driver) AllocateCommandBuffers(n int) ([]render.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, n)
	ret := vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(n),
	}, buffers)
	if err := check("allocate command buffers", ret); err != nil {
		return nil, err
	}
	handles := make([]render.CommandBuffer, n)
	for i, cmd := range buffers {
		handles[i] = render.CommandBuffer(d.commands.put(cmd))
	}
	return handles, nil
}

func (d *Driver) FreeCommandBuffers(handles []render.CommandBuffer) {
	var buffers []vk.CommandBuffer
	for _, h := range handles {
		if cmd, ok := d.commands.take(uint64(h)); ok {
			buffers = append(buffers, cmd)
		}
	}
	if len(buffers) > 0 {
		vk.FreeCommandBuffers(d.device, d.pool, uint32(len(buffers)), buffers)
	}
}

func (d *Driver) command(h render.CommandBuffer) vk.CommandBuffer {
	cmd, _ := d.commands.get(uint64(h))
	return cmd
}

func (d *Driver) BeginCommandBuffer(h render.CommandBuffer, oneShot bool) error {
	cmd, ok := d.commands.get(uint64(h))
	if !ok {
		return unknown("command buffer", uint64(h))
	}
	info := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if oneShot {
		info.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return check("begin command buffer", vk.BeginCommandBuffer(cmd, &info))
}

func (d *Driver) EndCommandBuffer(h render.CommandBuffer) error {
	cmd, ok := d.commands.get(uint64(h))
	if !ok {
		return unknown("command buffer", uint64(h))
	}
	return check("end command buffer", vk.EndCommandBuffer(cmd))
}

func (d *Driver) ResetCommandBuffer(h render.CommandBuffer) error {
	cmd, ok := d.commands.get(uint64(h))
	if !ok {
		return unknown("command buffer", uint64(h))
	}
	return check("reset command buffer", vk.ResetCommandBuffer(cmd, 0))
}

//Submit puts one command buffer on the graphics queue. Zero semaphores and fences are left out.
func (d *Driver) Submit(s render.SubmitInfo) error {
	cmd, ok := d.commands.get(uint64(s.Commands))
	if !ok {
		return unknown("command buffer", uint64(s.Commands))
	}
	info := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	if s.Wait != 0 {
		info.WaitSemaphoreCount = 1
		info.PWaitSemaphores = []vk.Semaphore{d.semaphore(s.Wait)}
		info.PWaitDstStageMask = []vk.PipelineStageFlags{s.WaitStage}
	}
	if s.Signal != 0 {
		info.SignalSemaphoreCount = 1
		info.PSignalSemaphores = []vk.Semaphore{d.semaphore(s.Signal)}
	}
	fence := vk.NullFence
	if s.Fence != 0 {
		f, ok := d.fences.get(uint64(s.Fence))
		if !ok {
			return unknown("fence", uint64(s.Fence))
		}
		fence = f
	}
	return check("queue submit", vk.QueueSubmit(d.graphics_queue, 1, []vk.SubmitInfo{info}, fence))
}
