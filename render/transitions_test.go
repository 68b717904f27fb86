package render

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

func TestLookupTransitionTable(t *testing.T) {
	cases := []struct {
		from, to  vk.ImageLayout
		srcStage  vk.PipelineStageFlagBits
		srcAccess vk.AccessFlagBits
		dstStage  vk.PipelineStageFlagBits
		dstAccess vk.AccessFlagBits
	}{
		{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal,
			vk.PipelineStageTopOfPipeBit, 0, vk.PipelineStageTransferBit, vk.AccessTransferWriteBit},
		{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.PipelineStageTransferBit, vk.AccessTransferWriteBit, vk.PipelineStageFragmentShaderBit, vk.AccessShaderReadBit},
		{vk.ImageLayoutPresentSrc, vk.ImageLayoutColorAttachmentOptimal,
			vk.PipelineStageColorAttachmentOutputBit, 0, vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit},
		{vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrc,
			vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit, vk.PipelineStageBottomOfPipeBit, vk.AccessMemoryReadBit},
		{vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit, vk.PipelineStageFragmentShaderBit, vk.AccessShaderReadBit},
		{vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutColorAttachmentOptimal,
			vk.PipelineStageFragmentShaderBit, 0, vk.PipelineStageColorAttachmentOutputBit, vk.AccessColorAttachmentWriteBit},
		{vk.ImageLayoutUndefined, vk.ImageLayoutPresentSrc,
			vk.PipelineStageTopOfPipeBit, 0, vk.PipelineStageBottomOfPipeBit, vk.AccessMemoryReadBit},
	}
	for _, c := range cases {
		b, err := LookupTransition(vk.FormatB8g8r8a8Srgb, c.from, c.to)
		if err != nil {
			t.Errorf("%d->%d: %v", c.from, c.to, err)
			continue
		}
		if b.OldLayout != c.from || b.NewLayout != c.to {
			t.Errorf("%d->%d: layouts %d->%d", c.from, c.to, b.OldLayout, b.NewLayout)
		}
		if b.SrcStage != vk.PipelineStageFlags(c.srcStage) || b.DstStage != vk.PipelineStageFlags(c.dstStage) {
			t.Errorf("%d->%d: stages %#x->%#x", c.from, c.to, b.SrcStage, b.DstStage)
		}
		if b.SrcAccess != vk.AccessFlags(c.srcAccess) || b.DstAccess != vk.AccessFlags(c.dstAccess) {
			t.Errorf("%d->%d: access %#x->%#x", c.from, c.to, b.SrcAccess, b.DstAccess)
		}
		if b.Aspect != vk.ImageAspectFlags(vk.ImageAspectColorBit) {
			t.Errorf("%d->%d: aspect %#x, want color", c.from, c.to, b.Aspect)
		}
	}
}

func TestLookupTransitionDepthAspect(t *testing.T) {
	b, err := LookupTransition(vk.FormatD32Sfloat, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if b.Aspect != vk.ImageAspectFlags(vk.ImageAspectDepthBit) {
		t.Errorf("D32 aspect = %#x, want depth", b.Aspect)
	}

	b, err = LookupTransition(vk.FormatD24UnormS8Uint, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if b.Aspect != vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit) {
		t.Errorf("D24S8 aspect = %#x, want depth and stencil", b.Aspect)
	}
}

func TestLookupTransitionRejectsUnknownPair(t *testing.T) {
	_, err := LookupTransition(vk.FormatB8g8r8a8Srgb, vk.ImageLayoutPresentSrc, vk.ImageLayoutTransferDstOptimal)
	if !errors.Is(err, ErrUnsupportedTransition) {
		t.Fatalf("err = %v, want ErrUnsupportedTransition", err)
	}
	if !IsFatal(err) {
		t.Error("unsupported transition must be fatal")
	}
	if SupportsTransition(vk.ImageLayoutPresentSrc, vk.ImageLayoutTransferDstOptimal) {
		t.Error("SupportsTransition reports a missing pair")
	}
}
