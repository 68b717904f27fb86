package vkdriver

import (
	"unsafe"

	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//physical is one enumerated GPU with what qualification found out about it
type physical struct {
	gpu       vk.PhysicalDevice
	props     vk.PhysicalDeviceProperties
	candidate render.DeviceCandidate
}

func (d *Driver) selectDevice() error {
	var count uint32
	if err := check("enumerate physical devices", vk.EnumeratePhysicalDevices(d.instance, &count, nil)); err != nil {
		return err
	}
	if count == 0 {
		return fail("enumerate physical devices", errors.Wrap(render.ErrNoSuitableDevice, "no GPU devices found"))
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := check("enumerate physical devices", vk.EnumeratePhysicalDevices(d.instance, &count, gpus)); err != nil {
		return err
	}

	devices := make([]physical, 0, count)
	candidates := make([]render.DeviceCandidate, 0, count)
	for _, gpu := range gpus {
		p, err := d.describe(gpu)
		if err != nil {
			return err
		}
		devices = append(devices, p)
		candidates = append(candidates, p.candidate)
		d.log.Infof("vulkan: found %s (api %d.%d)", p.candidate.Name,
			p.props.ApiVersion>>22, (p.props.ApiVersion>>12)&0x3ff)
	}

	index, err := render.SelectDevice(candidates)
	if err != nil {
		return err
	}
	chosen := devices[index]
	d.gpu = chosen.gpu

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.gpu, &memory)
	memory.Deref()
	types := make([]vk.MemoryPropertyFlags, memory.MemoryTypeCount)
	for i := range types {
		memory.MemoryTypes[i].Deref()
		types[i] = memory.MemoryTypes[i].PropertyFlags
	}

	limits := chosen.props.Limits
	limits.Deref()
	d.info = render.DeviceInfo{
		Name:                  chosen.candidate.Name,
		GraphicsFamily:        uint32(chosen.candidate.GraphicsFamily),
		PresentFamily:         uint32(chosen.candidate.PresentFamily),
		MemoryTypes:           types,
		MaxUniformBufferRange: limits.MaxUniformBufferRange,
		MaxSamplerAnisotropy:  limits.MaxSamplerAnisotropy,
	}
	return nil
}

//describe gathers the qualification facts for one GPU
func (d *Driver) describe(gpu vk.PhysicalDevice) (physical, error) {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()

	extensions, err := DeviceExtensions(gpu)
	if err != nil {
		return physical{}, err
	}
	graphics, present := queryQueueFamilies(gpu, d.surface).pick()

	var formats, modes uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, d.surface, &formats, nil)
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, d.surface, &modes, nil)

	return physical{
		gpu:   gpu,
		props: props,
		candidate: render.DeviceCandidate{
			Name:           vk.ToString(props.DeviceName[:]),
			GraphicsFamily: graphics,
			PresentFamily:  present,
			Extensions:     extensions,
			Features:       queryFeatures(gpu, props.ApiVersion),
			SurfaceFormats: int(formats),
			PresentModes:   int(modes),
		},
	}, nil
}

//queryFeatures reads the core, 1.2 and 1.3 feature structs. Devices older than 1.3 only report
//core features.
func queryFeatures(gpu vk.PhysicalDevice, apiVersion uint32) render.DeviceFeatures {
	if apiVersion < uint32(vk.MakeVersion(1, 3, 0)) {
		var core vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(gpu, &core)
		core.Deref()
		return render.DeviceFeatures{SamplerAnisotropy: core.SamplerAnisotropy == vk.True}
	}

	v13 := vk.PhysicalDeviceVulkan13Features{SType: vk.StructureTypePhysicalDeviceVulkan13Features}
	c13, _ := v13.PassRef()
	defer v13.Free()
	v12 := vk.PhysicalDeviceVulkan12Features{
		SType: vk.StructureTypePhysicalDeviceVulkan12Features,
		PNext: unsafe.Pointer(c13),
	}
	c12, _ := v12.PassRef()
	defer v12.Free()
	features := vk.PhysicalDeviceFeatures2{
		SType: vk.StructureTypePhysicalDeviceFeatures2,
		PNext: unsafe.Pointer(c12),
	}
	vk.GetPhysicalDeviceFeatures2(gpu, &features)
	features.Deref()
	features.Features.Deref()
	v12.Deref()
	v13.Deref()

	return render.DeviceFeatures{
		SamplerAnisotropy:  features.Features.SamplerAnisotropy == vk.True,
		NonUniformIndexing: v12.ShaderSampledImageArrayNonUniformIndexing == vk.True,
		DynamicRendering:   v13.DynamicRendering == vk.True,
		Synchronization2:   v13.Synchronization2 == vk.True,
	}
}

//createDevice enables anisotropy, non uniform sampled image indexing, dynamic rendering and
//synchronization2 through the 1.2 and 1.3 feature chain
func (d *Driver) createDevice() error {
	v13 := vk.PhysicalDeviceVulkan13Features{
		SType:            vk.StructureTypePhysicalDeviceVulkan13Features,
		DynamicRendering: vk.True,
		Synchronization2: vk.True,
	}
	c13, _ := v13.PassRef()
	defer v13.Free()
	v12 := vk.PhysicalDeviceVulkan12Features{
		SType:              vk.StructureTypePhysicalDeviceVulkan12Features,
		PNext:              unsafe.Pointer(c13),
		DescriptorIndexing: vk.True,
		ShaderSampledImageArrayNonUniformIndexing: vk.True,
	}
	c12, _ := v12.PassRef()
	defer v12.Free()

	extensions := safeStrings(render.RequiredDeviceExtensions)
	queues := createInfos(d.info.GraphicsFamily, d.info.PresentFamily)
	var device vk.Device
	ret := vk.CreateDevice(d.gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   unsafe.Pointer(c12),
		QueueCreateInfoCount:    uint32(len(queues)),
		PQueueCreateInfos:       queues,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(d.layers)),
		PpEnabledLayerNames:     d.layers,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
		}},
	}, nil, &device)
	if err := check("create device", ret); err != nil {
		return err
	}
	d.device = device

	var queue vk.Queue
	vk.GetDeviceQueue(device, d.info.GraphicsFamily, 0, &queue)
	d.graphics_queue = queue
	d.present_queue = queue
	if d.info.PresentFamily != d.info.GraphicsFamily {
		var present vk.Queue
		vk.GetDeviceQueue(device, d.info.PresentFamily, 0, &present)
		d.present_queue = present
	}
	return nil
}

//createCommandPool makes the single pool every command buffer comes from. Buffers are reset individually.
func (d *Driver) createCommandPool() error {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.info.GraphicsFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := check("create command pool", ret); err != nil {
		return err
	}
	d.pool = pool
	return nil
}
