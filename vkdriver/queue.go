package vkdriver

import (
	vk "github.com/goki/vulkan"
)

//queueFamilies holds the capabilities of every queue family on one physical device
type queueFamilies struct {
	flags   []vk.QueueFlags
	present []bool
}

//queryQueueFamilies lists queue family properties and surface support for a physical device
func queryQueueFamilies(gpu vk.PhysicalDevice, surface vk.Surface) queueFamilies {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	properties := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, properties)

	q := queueFamilies{
		flags:   make([]vk.QueueFlags, count),
		present: make([]bool, count),
	}
	for i := range properties {
		properties[i].Deref()
		q.flags[i] = properties[i].QueueFlags
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, uint32(i), surface, &supported)
		q.present[i] = supported.B()
	}
	return q
}

//pick returns the graphics and present family indices, -1 when absent.
//A family that can do both is preferred so the swapchain stays exclusive.
func (q queueFamilies) pick() (graphics, present int) {
	graphics, present = -1, -1
	want := vk.QueueFlags(vk.QueueGraphicsBit)
	for i := range q.flags {
		if q.flags[i]&want == want && q.present[i] {
			return i, i
		}
	}
	for i := range q.flags {
		if graphics < 0 && q.flags[i]&want == want {
			graphics = i
		}
		if present < 0 && q.present[i] {
			present = i
		}
	}
	return graphics, present
}

//createInfos builds one queue per distinct family
func createInfos(graphics, present uint32) []vk.DeviceQueueCreateInfo {
	infos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: graphics,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	if present != graphics {
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: present,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	return infos
}
