package render

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

type layoutPair struct {
	from vk.ImageLayout
	to   vk.ImageLayout
}

type barrierMasks struct {
	srcStage  vk.PipelineStageFlagBits
	srcAccess vk.AccessFlagBits
	dstStage  vk.PipelineStageFlagBits
	dstAccess vk.AccessFlagBits
}

//Every layout change the renderer performs. Anything else is a logic error.
var transitions = map[layoutPair]barrierMasks{
	{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal}: {
		vk.PipelineStageTopOfPipeBit, 0,
		vk.PipelineStageTransferBit, vk.AccessTransferWriteBit,
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal}: {
		vk.PipelineStageTopOfPipeBit, 0,
		vk.PipelineStageTransferBit, vk.AccessTransferWriteBit,
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal}: {
		vk.PipelineStageTopOfPipeBit, 0,
		vk.PipelineStageEarlyFragmentTestsBit, vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit,
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutPresentSrc}: {
		vk.PipelineStageTopOfPipeBit, 0,
		vk.PipelineStageBottomOfPipeBit, vk.AccessMemoryReadBit,
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		vk.PipelineStageTransferBit, vk.AccessTransferWriteBit,
		vk.PipelineStageFragmentShaderBit, vk.AccessShaderReadBit,
	},
	//chains with the acquire semaphore wait at color output
	{vk.ImageLayoutPresentSrc, vk.ImageLayoutColorAttachmentOptimal}: {
		vk.PipelineStageColorAttachmentOutputBit, 0,
		vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit,
	},
	{vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrc}: {
		vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit,
		vk.PipelineStageBottomOfPipeBit, vk.AccessMemoryReadBit,
	},
	//offscreen color writes land before the screen pass samples them
	{vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit,
		vk.PipelineStageFragmentShaderBit, vk.AccessShaderReadBit,
	},
	{vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutColorAttachmentOptimal}: {
		vk.PipelineStageFragmentShaderBit, 0,
		vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit,
	},
}

//LookupTransition resolves the barrier for moving an image of format from one layout to another
func LookupTransition(format vk.Format, from, to vk.ImageLayout) (Barrier, error) {
	m, ok := transitions[layoutPair{from, to}]
	if !ok {
		return Barrier{}, fatal("transition layout", errors.Wrapf(ErrUnsupportedTransition, "%d -> %d", from, to))
	}
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if to == vk.ImageLayoutDepthStencilAttachmentOptimal {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if HasStencil(format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
	}
	return Barrier{
		OldLayout: from,
		NewLayout: to,
		SrcStage:  vk.PipelineStageFlags(m.srcStage),
		SrcAccess: vk.AccessFlags(m.srcAccess),
		DstStage:  vk.PipelineStageFlags(m.dstStage),
		DstAccess: vk.AccessFlags(m.dstAccess),
		Aspect:    aspect,
	}, nil
}

//SupportsTransition reports whether the table has an entry for from -> to
func SupportsTransition(from, to vk.ImageLayout) bool {
	_, ok := transitions[layoutPair{from, to}]
	return ok
}
