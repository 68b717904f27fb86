//Package vkdriver implements render.Driver on Vulkan 1.3 with dynamic rendering
package vkdriver

import (
	"strings"
	"unsafe"

	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

const debugReportExtension = "VK_EXT_debug_report"

//Window is the platform side of instance and surface creation
type Window interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type Options struct {
	AppName    string
	Validation bool
	Logger     *render.Logger
}

//Driver owns the instance, the device and every object created through it
type Driver struct {
	log *render.Logger

	instance       vk.Instance
	surface        vk.Surface
	debug_callback vk.DebugReportCallback
	gpu            vk.PhysicalDevice
	device         vk.Device
	graphics_queue vk.Queue
	present_queue  vk.Queue
	pool           vk.CommandPool
	info           render.DeviceInfo
	layers         []string

	fences           *table[vk.Fence]
	semaphores       *table[vk.Semaphore]
	commands         *table[vk.CommandBuffer]
	buffers          *table[vk.Buffer]
	images           *table[vk.Image]
	memories         *table[vk.DeviceMemory]
	views            *table[vk.ImageView]
	samplers         *table[vk.Sampler]
	swapchains       *table[*swapchain]
	shaders          *table[vk.ShaderModule]
	set_layouts      *table[vk.DescriptorSetLayout]
	pipeline_layouts *table[vk.PipelineLayout]
	pipelines        *table[vk.Pipeline]
	pools            *table[vk.DescriptorPool]
	sets             *table[descriptorSet]
}

var _ render.Driver = (*Driver)(nil)

func newDriver(logger *render.Logger) *Driver {
	if logger == nil {
		logger = render.Discard
	}
	return &Driver{
		log:              logger,
		fences:           newTable[vk.Fence](),
		semaphores:       newTable[vk.Semaphore](),
		commands:         newTable[vk.CommandBuffer](),
		buffers:          newTable[vk.Buffer](),
		images:           newTable[vk.Image](),
		memories:         newTable[vk.DeviceMemory](),
		views:            newTable[vk.ImageView](),
		samplers:         newTable[vk.Sampler](),
		swapchains:       newTable[*swapchain](),
		shaders:          newTable[vk.ShaderModule](),
		set_layouts:      newTable[vk.DescriptorSetLayout](),
		pipeline_layouts: newTable[vk.PipelineLayout](),
		pipelines:        newTable[vk.Pipeline](),
		pools:            newTable[vk.DescriptorPool](),
		sets:             newTable[descriptorSet](),
	}
}

//Open creates the instance, the window surface and a logical device on the first qualifying GPU.
//The Vulkan loader must already be initialized by the window layer.
func Open(win Window, opts Options) (drv *Driver, err error) {
	d := newDriver(opts.Logger)
	defer func() {
		if err != nil {
			d.Destroy()
		}
	}()

	if err := d.createInstance(win, opts); err != nil {
		return nil, err
	}
	surface, err := win.CreateSurface(d.instance)
	if err != nil {
		return nil, fail("create surface", err)
	}
	d.surface = surface

	if err := d.selectDevice(); err != nil {
		return nil, err
	}
	if err := d.createDevice(); err != nil {
		return nil, err
	}
	if err := d.createCommandPool(); err != nil {
		return nil, err
	}
	d.log.Infof("vulkan: device %s ready, graphics family %d, present family %d",
		d.info.Name, d.info.GraphicsFamily, d.info.PresentFamily)
	return d, nil
}

func (d *Driver) createInstance(win Window, opts Options) error {
	actual, err := InstanceExtensions()
	if err != nil {
		return err
	}
	var wanted []string
	if opts.Validation {
		wanted = append(wanted, debugReportExtension)
	}
	extensions := newNameSet(wanted, win.RequiredInstanceExtensions(), actual)
	if missing := extensions.Missing(); len(missing) > 0 {
		return fail("create instance", errors.Wrap(render.ErrMissingExtension, strings.Join(missing, ", ")))
	}

	if opts.Validation {
		available, err := ValidationLayers()
		if err != nil {
			return err
		}
		if missing := render.MissingLayers(available, []string{validationLayer}); len(missing) > 0 {
			return fail("create instance", errors.Wrap(render.ErrMissingLayer, strings.Join(missing, ", ")))
		}
		d.layers = safeStrings([]string{validationLayer})
	}

	enabled := extensions.Enabled()
	name := opts.AppName
	if name == "" {
		name = "dieselsprite"
	}
	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 3, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(name),
			PEngineName:        "dieselsprite\x00",
		},
		EnabledExtensionCount:   uint32(len(enabled)),
		PpEnabledExtensionNames: safeStrings(enabled),
		EnabledLayerCount:       uint32(len(d.layers)),
		PpEnabledLayerNames:     d.layers,
	}, nil, &instance)
	if err := check("create instance", ret); err != nil {
		return err
	}
	d.instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return fail("init instance", err)
	}
	d.log.Infof("vulkan: enabled %d instance extensions, %d layers", len(enabled), len(d.layers))

	for _, ext := range enabled {
		if ext == debugReportExtension {
			ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
				SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
				Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
				PfnCallback: d.debugReport,
			}, nil, &d.debug_callback)
			if err := check("create debug callback", ret); err != nil {
				return err
			}
			d.log.Infof("vulkan: debug report callback enabled")
		}
	}
	return nil
}

//debugReport routes validation messages into the renderer logs
func (d *Driver) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint64, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		d.log.Errorf("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		d.log.Warnf("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		d.log.Warnf("performance [%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		d.log.Infof("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

func (d *Driver) Info() render.DeviceInfo {
	return d.info
}

func (d *Driver) FormatFeatures(format vk.Format, tiling vk.ImageTiling) vk.FormatFeatureFlags {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.gpu, format, &props)
	props.Deref()
	if tiling == vk.ImageTilingLinear {
		return props.LinearTilingFeatures
	}
	return props.OptimalTilingFeatures
}

func (d *Driver) WaitIdle() error {
	return check("device wait idle", vk.DeviceWaitIdle(d.device))
}

func (d *Driver) QueueWaitIdle() error {
	return check("queue wait idle", vk.QueueWaitIdle(d.graphics_queue))
}

//Destroy releases anything still registered, then the device, surface and instance. Safe on a
//partially opened driver.
func (d *Driver) Destroy() {
	if d.device != nil {
		vk.DeviceWaitIdle(d.device)
		d.releaseAll()
		if d.pool != nil {
			vk.DestroyCommandPool(d.device, d.pool, nil)
			d.pool = nil
		}
		vk.DestroyDevice(d.device, nil)
		d.device = nil
	}
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	if d.debug_callback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.instance, d.debug_callback, nil)
		d.debug_callback = vk.NullDebugReportCallback
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}

//releaseAll destroys objects the renderer leaked, warning once per kind
func (d *Driver) releaseAll() {
	leaked := func(kind string, n int) {
		if n > 0 {
			d.log.Warnf("vulkan: releasing %d leaked %s", n, kind)
		}
	}
	leaked("pipelines", d.pipelines.len())
	d.pipelines.drain(func(p vk.Pipeline) { vk.DestroyPipeline(d.device, p, nil) })
	leaked("pipeline layouts", d.pipeline_layouts.len())
	d.pipeline_layouts.drain(func(l vk.PipelineLayout) { vk.DestroyPipelineLayout(d.device, l, nil) })
	d.sets.drain(func(descriptorSet) {})
	leaked("descriptor pools", d.pools.len())
	d.pools.drain(func(p vk.DescriptorPool) { vk.DestroyDescriptorPool(d.device, p, nil) })
	leaked("descriptor set layouts", d.set_layouts.len())
	d.set_layouts.drain(func(l vk.DescriptorSetLayout) { vk.DestroyDescriptorSetLayout(d.device, l, nil) })
	leaked("shader modules", d.shaders.len())
	d.shaders.drain(func(m vk.ShaderModule) { vk.DestroyShaderModule(d.device, m, nil) })
	leaked("samplers", d.samplers.len())
	d.samplers.drain(func(s vk.Sampler) { vk.DestroySampler(d.device, s, nil) })
	leaked("image views", d.views.len())
	d.views.drain(func(v vk.ImageView) { vk.DestroyImageView(d.device, v, nil) })
	leaked("swapchains", d.swapchains.len())
	d.swapchains.drain(func(sc *swapchain) {
		for _, h := range sc.images {
			d.images.take(uint64(h))
		}
		vk.DestroySwapchain(d.device, sc.handle, nil)
	})
	leaked("images", d.images.len())
	d.images.drain(func(img vk.Image) { vk.DestroyImage(d.device, img, nil) })
	leaked("buffers", d.buffers.len())
	d.buffers.drain(func(b vk.Buffer) { vk.DestroyBuffer(d.device, b, nil) })
	leaked("memory allocations", d.memories.len())
	d.memories.drain(func(m vk.DeviceMemory) { vk.FreeMemory(d.device, m, nil) })
	leaked("fences", d.fences.len())
	d.fences.drain(func(f vk.Fence) { vk.DestroyFence(d.device, f, nil) })
	leaked("semaphores", d.semaphores.len())
	d.semaphores.drain(func(s vk.Semaphore) { vk.DestroySemaphore(d.device, s, nil) })
	d.commands.drain(func(vk.CommandBuffer) {})
}
