package render

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//FindMemoryType returns the first memory type allowed by filter whose flags contain every bit of props
func FindMemoryType(types []vk.MemoryPropertyFlags, filter uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < uint32(len(types)) && i < 32; i++ {
		if filter&(1<<i) == 0 {
			continue
		}
		if types[i]&props == props {
			return i, nil
		}
	}
	return 0, fatal("find memory type", errors.Wrapf(ErrNoMemoryType, "filter %#x properties %#x", filter, props))
}

var (
	deviceLocal  = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	hostCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
)
