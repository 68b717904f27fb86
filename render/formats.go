package render

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//DepthCandidates in order of preference
var DepthCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

//FindSupportedFormat picks the first candidate whose tiling features contain every requested bit
func FindSupportedFormat(drv Driver, candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		if drv.FormatFeatures(format, tiling)&features == features {
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.Errorf("none of %d candidate formats support features %#x", len(candidates), features)
}

func FindDepthFormat(drv Driver) (vk.Format, error) {
	format, err := FindSupportedFormat(drv, DepthCandidates, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
	if err != nil {
		return format, fatal("find depth format", errors.Wrap(ErrNoDepthFormat, err.Error()))
	}
	return format, nil
}

func HasStencil(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}
