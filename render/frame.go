package render

import (
	vk "github.com/goki/vulkan"
)

//SuboptimalThreshold is how many presents in a row may report suboptimal before the swapchain is rebuilt
const SuboptimalThreshold = 10

type SlotState int

const (
	SlotAvailable SlotState = iota
	SlotRecording
	SlotSubmitted
)

func (s SlotState) String() string {
	switch s {
	case SlotAvailable:
		return "available"
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	}
	return "unknown"
}

//FrameSlot is everything one frame in flight writes. The CPU touches it only after InFlight signals.
type FrameSlot struct {
	Index          int
	State          SlotState
	InFlight       Fence
	ImageAvailable Semaphore
	Commands       CommandBuffer
	Uniform        *Buffer
	Color          *Image
	Depth          *Image
	Set            DescriptorSet
	ScreenSet      DescriptorSet
}

type frameRing struct {
	slots   [FramesInFlight]*FrameSlot
	current int
}

func (r *frameRing) slot() *FrameSlot {
	return r.slots[r.current]
}

func (r *frameRing) advance() {
	r.current = (r.current + 1) % FramesInFlight
}

//FrameStats counts frame loop outcomes
type FrameStats struct {
	Presented   uint64
	Skipped     uint64
	Recreations uint64
}

//DrawFrame runs one throttle, acquire, update, record, submit, present, advance cycle.
//Surface conditions are handled internally; a frame skipped on an out of date acquire is reported as a
//recoverable error wrapping ErrOutOfDate. After a fatal error every later call fails.
func (r *Renderer) DrawFrame(t float32) error {
	if r.stopped != nil {
		return fatal("draw frame", ErrStopped)
	}
	err := r.drawFrame(t)
	if IsFatal(err) {
		r.stopped = err
	}
	return err
}

//NotifyResize defers a swapchain rebuild to the end of the current or next frame
func (r *Renderer) NotifyResize() {
	r.resized = true
}

func (r *Renderer) CurrentSlot() int {
	return r.ring.current
}

func (r *Renderer) Stats() FrameStats {
	return r.stats
}

func (r *Renderer) drawFrame(t float32) error {
	slot := r.ring.slot()

	if err := r.drv.WaitFence(slot.InFlight); err != nil {
		return fatal("wait for frame fence", err)
	}
	slot.State = SlotAvailable

	image, res := r.drv.AcquireNextImage(r.swapchain.Handle(), slot.ImageAvailable)
	switch res {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		r.log.Infof("acquire: surface out of date, recreating swapchain")
		r.stats.Skipped++
		if err := r.recreate(); err != nil {
			return err
		}
		return recoverable("acquire swapchain image", ErrOutOfDate)
	default:
		return &Error{Kind: Fatal, Op: "acquire swapchain image", Result: res, Err: vk.Error(res)}
	}
	slot.State = SlotRecording

	r.scene.Update(&r.payload, t)
	if err := r.payload.Encode(slot.Uniform.Mapped()); err != nil {
		return fatal("write uniform payload", err)
	}

	if err := r.drv.ResetFence(slot.InFlight); err != nil {
		return fatal("reset frame fence", err)
	}
	if err := r.drv.ResetCommandBuffer(slot.Commands); err != nil {
		return fatal("reset frame commands", err)
	}
	if err := r.record(slot, image); err != nil {
		return err
	}

	err := r.drv.Submit(SubmitInfo{
		Commands:  slot.Commands,
		Wait:      slot.ImageAvailable,
		WaitStage: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Signal:    r.swapchain.RenderFinished(image),
		Fence:     slot.InFlight,
	})
	if err != nil {
		return fatal("submit frame", err)
	}
	slot.State = SlotSubmitted

	res = r.drv.Present(r.swapchain.Handle(), image, r.swapchain.RenderFinished(image))
	err = r.afterPresent(res)
	r.ring.advance()
	return err
}

func (r *Renderer) afterPresent(res vk.Result) error {
	switch res {
	case vk.Success, vk.Suboptimal, vk.ErrorOutOfDate:
	default:
		return &Error{Kind: Fatal, Op: "present swapchain image", Result: res, Err: vk.Error(res)}
	}

	if res == vk.Suboptimal {
		if r.suboptimal == 0 {
			r.log.Warnf("present: swapchain suboptimal")
		}
		r.suboptimal++
	} else {
		r.suboptimal = 0
	}
	if res == vk.Success || res == vk.Suboptimal {
		r.stats.Presented++
	}

	switch {
	case r.resized:
		r.resized = false
		r.log.Infof("framebuffer resized, recreating swapchain")
		return r.recreate()
	case r.suboptimal >= SuboptimalThreshold:
		r.log.Infof("swapchain still suboptimal after %d frames, recreating", SuboptimalThreshold)
		return r.recreate()
	case res == vk.ErrorOutOfDate:
		r.log.Infof("present: surface out of date, recreating swapchain")
		return r.recreate()
	}
	return nil
}

func (r *Renderer) recreate() error {
	format := r.swapchain.Format()
	if err := r.swapchain.Recreate(); err != nil {
		return err
	}
	//a fresh chain starts its own suboptimal streak
	r.suboptimal = 0
	r.stats.Recreations++
	if r.swapchain.Format() != format {
		r.log.Warnf("swapchain format changed from %d to %d, pipelines still target the old format", format, r.swapchain.Format())
	}
	return nil
}

//record writes the offscreen pass, the blit to the acquired image and every barrier between them
func (r *Renderer) record(slot *FrameSlot, image uint32) error {
	cmd := slot.Commands
	if err := r.drv.BeginCommandBuffer(cmd, false); err != nil {
		return fatal("begin frame commands", err)
	}

	target := r.swapchain.Image(image)
	format := r.swapchain.Format()
	if err := r.factory.TransitionLayout(cmd, target, format, vk.ImageLayoutPresentSrc, vk.ImageLayoutColorAttachmentOptimal); err != nil {
		return err
	}
	if err := r.factory.TransitionLayout(cmd, slot.Color.Handle, slot.Color.Format, vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutColorAttachmentOptimal); err != nil {
		return err
	}

	offscreen := Extent{Width: OffscreenWidth, Height: OffscreenHeight}
	r.drv.CmdBeginRendering(cmd, RenderingInfo{
		Area: offscreen,
		Color: Attachment{
			View:       slot.Color.View,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
			Store:      true,
			ClearColor: [4]float32{0, 0, 0, 1},
		},
		Depth: &Attachment{
			View:       slot.Depth.View,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			ClearDepth: 1,
		},
	})
	r.drv.CmdSetViewportScissor(cmd, offscreen)

	r.drv.CmdBindPipeline(cmd, r.tiles.Handle)
	r.drv.CmdBindDescriptorSet(cmd, r.tiles.Layout, slot.Set)
	if r.indexCount > 0 {
		r.drv.CmdBindVertexBuffer(cmd, r.tileVertices.Handle)
		r.drv.CmdBindIndexBuffer(cmd, r.tileIndices.Handle)
		r.drv.CmdPushConstants(cmd, r.tiles.Layout, pushStages, r.scene.TileConstants().Bytes())
		r.drv.CmdDrawIndexed(cmd, r.indexCount)
	}

	if r.spriteCount > 0 {
		r.drv.CmdBindPipeline(cmd, r.sprites.Handle)
		r.drv.CmdBindDescriptorSet(cmd, r.sprites.Layout, slot.Set)
		r.drv.CmdBindVertexBuffer(cmd, r.spriteVertices.Handle)
		r.drv.CmdDraw(cmd, r.spriteCount)
	}
	r.drv.CmdEndRendering(cmd)

	if err := r.factory.TransitionLayout(cmd, slot.Color.Handle, slot.Color.Format, vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return err
	}

	screen := r.swapchain.Extent()
	r.drv.CmdSetViewportScissor(cmd, screen)
	r.drv.CmdBeginRendering(cmd, RenderingInfo{
		Area: screen,
		Color: Attachment{
			View:       r.swapchain.View(image),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
			Store:      true,
			ClearColor: [4]float32{0, 0, 0, 1},
		},
	})
	r.drv.CmdBindPipeline(cmd, r.screen.Handle)
	r.drv.CmdBindDescriptorSet(cmd, r.screen.Layout, slot.ScreenSet)
	r.drv.CmdDraw(cmd, 6)
	r.drv.CmdEndRendering(cmd)

	if err := r.factory.TransitionLayout(cmd, target, format, vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrc); err != nil {
		return err
	}
	if err := r.drv.EndCommandBuffer(cmd); err != nil {
		return fatal("end frame commands", err)
	}
	return nil
}
