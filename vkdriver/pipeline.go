package vkdriver

import (
	"unsafe"

	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
)

func (d *Driver) CreateShaderModule(code []uint32) (render.ShaderModule, error) {
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}, nil, &module)
	if err := check("create shader module", ret); err != nil {
		return 0, err
	}
	return render.ShaderModule(d.shaders.put(module)), nil
}

func (d *Driver) DestroyShaderModule(h render.ShaderModule) {
	if m, ok := d.shaders.take(uint64(h)); ok {
		vk.DestroyShaderModule(d.device, m, nil)
	}
}

func (d *Driver) CreateDescriptorSetLayout(bindings []render.DescriptorBinding) (render.DescriptorSetLayout, error) {
	list := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		list[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  b.Type,
			DescriptorCount: b.Count,
			StageFlags:      b.Stages,
		}
	}
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(d.device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(list)),
		PBindings:    list,
	}, nil, &layout)
	if err := check("create descriptor set layout", ret); err != nil {
		return 0, err
	}
	return render.DescriptorSetLayout(d.set_layouts.put(layout)), nil
}

func (d *Driver) DestroyDescriptorSetLayout(h render.DescriptorSetLayout) {
	if l, ok := d.set_layouts.take(uint64(h)); ok {
		vk.DestroyDescriptorSetLayout(d.device, l, nil)
	}
}

func (d *Driver) CreatePipelineLayout(set render.DescriptorSetLayout, push []render.PushConstantRange) (render.PipelineLayout, error) {
	setLayout, ok := d.set_layouts.get(uint64(set))
	if !ok {
		return 0, unknown("descriptor set layout", uint64(set))
	}
	ranges := make([]vk.PushConstantRange, len(push))
	for i, r := range push {
		ranges[i] = vk.PushConstantRange{StageFlags: r.Stages, Offset: r.Offset, Size: r.Size}
	}
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(d.device, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{setLayout},
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}, nil, &layout)
	if err := check("create pipeline layout", ret); err != nil {
		return 0, err
	}
	return render.PipelineLayout(d.pipeline_layouts.put(layout)), nil
}

func (d *Driver) DestroyPipelineLayout(h render.PipelineLayout) {
	if l, ok := d.pipeline_layouts.take(uint64(h)); ok {
		vk.DestroyPipelineLayout(d.device, l, nil)
	}
}

func shaderStage(stage vk.ShaderStageFlagBits, module vk.ShaderModule) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  safeString("main"),
	}
}

//vertexInput turns a render vertex layout into one per vertex binding with its attributes. A nil
//layout means the shader generates its own vertices.
func vertexInput(layout *render.VertexLayout) vk.PipelineVertexInputStateCreateInfo {
	info := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if layout == nil {
		return info
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(layout.Attributes))
	for i, a := range layout.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   a.Format,
			Offset:   a.Offset,
		}
	}
	info.VertexBindingDescriptionCount = 1
	info.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    layout.Stride,
		InputRate: vk.VertexInputRateVertex,
	}}
	info.VertexAttributeDescriptionCount = uint32(len(attributes))
	info.PVertexAttributeDescriptions = attributes
	return info
}

//CreateGraphicsPipeline compiles a pipeline for dynamic rendering. Viewport and scissor are dynamic,
//blending is off and the depth attachment is declared only when cfg.DepthFormat is set.
func (d *Driver) CreateGraphicsPipeline(cfg render.PipelineConfig) (render.PipelineHandle, error) {
	vert, ok := d.shaders.get(uint64(cfg.Vertex))
	if !ok {
		return 0, unknown("shader module", uint64(cfg.Vertex))
	}
	frag, ok := d.shaders.get(uint64(cfg.Fragment))
	if !ok {
		return 0, unknown("shader module", uint64(cfg.Fragment))
	}
	layout, ok := d.pipeline_layouts.get(uint64(cfg.Layout))
	if !ok {
		return 0, unknown("pipeline layout", uint64(cfg.Layout))
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		shaderStage(vk.ShaderStageVertexBit, vert),
		shaderStage(vk.ShaderStageFragmentBit, frag),
	}
	input := vertexInput(cfg.Input)
	assembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}
	viewport := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                cfg.CullMode,
		FrontFace:               cfg.FrontFace,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}
	blend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{{
			BlendEnable: vk.False,
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		}},
	}
	depth := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.False,
		DepthWriteEnable:      vk.False,
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		MaxDepthBounds:        1,
	}
	if cfg.DepthTest {
		depth.DepthTestEnable = vk.True
		depth.DepthWriteEnable = vk.True
	}
	dynamics := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamic := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamics)),
		PDynamicStates:    dynamics,
	}

	rendering := vk.PipelineRenderingCreateInfo{
		SType:                   vk.StructureTypePipelineRenderingCreateInfo,
		ColorAttachmentCount:    1,
		PColorAttachmentFormats: []vk.Format{cfg.ColorFormat},
		DepthAttachmentFormat:   cfg.DepthFormat,
		StencilAttachmentFormat: vk.FormatUndefined,
	}
	if render.HasStencil(cfg.DepthFormat) {
		rendering.StencilAttachmentFormat = cfg.DepthFormat
	}
	c_rendering, _ := rendering.PassRef()
	defer rendering.Free()

	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(d.device, nil, 1, []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		PNext:               unsafe.Pointer(c_rendering),
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &input,
		PInputAssemblyState: &assembly,
		PViewportState:      &viewport,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PDepthStencilState:  &depth,
		PColorBlendState:    &blend,
		PDynamicState:       &dynamic,
		Layout:              layout,
		BasePipelineIndex:   -1,
	}}, nil, pipelines)
	if err := check("create graphics pipeline", ret); err != nil {
		return 0, err
	}
	return render.PipelineHandle(d.pipelines.put(pipelines[0])), nil
}

func (d *Driver) DestroyPipeline(h render.PipelineHandle) {
	if p, ok := d.pipelines.take(uint64(h)); ok {
		vk.DestroyPipeline(d.device, p, nil)
	}
}

func (d *Driver) CreateDescriptorPool(maxSets uint32, sizes []render.DescriptorPoolSize) (render.DescriptorPool, error) {
	list := make([]vk.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		list[i] = vk.DescriptorPoolSize{Type: s.Type, DescriptorCount: s.Count}
	}
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(d.device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(list)),
		PPoolSizes:    list,
	}, nil, &pool)
	if err := check("create descriptor pool", ret); err != nil {
		return 0, err
	}
	return render.DescriptorPool(d.pools.put(pool)), nil
}

//DestroyDescriptorPool also forgets the sets allocated from the pool
func (d *Driver) DestroyDescriptorPool(h render.DescriptorPool) {
	p, ok := d.pools.take(uint64(h))
	if !ok {
		return
	}
	vk.DestroyDescriptorPool(d.device, p, nil)
	for id, set := range d.sets.items {
		if set.pool == h {
			d.sets.take(id)
		}
	}
}

//descriptorSet remembers its pool, sets die with it
type descriptorSet struct {
	handle vk.DescriptorSet
	pool   render.DescriptorPool
}

func (d *Driver) AllocateDescriptorSet(pool render.DescriptorPool, layout render.DescriptorSetLayout) (render.DescriptorSet, error) {
	p, ok := d.pools.get(uint64(pool))
	if !ok {
		return 0, unknown("descriptor pool", uint64(pool))
	}
	l, ok := d.set_layouts.get(uint64(layout))
	if !ok {
		return 0, unknown("descriptor set layout", uint64(layout))
	}
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{l},
	}, &set)
	if err := check("allocate descriptor set", ret); err != nil {
		return 0, err
	}
	return render.DescriptorSet(d.sets.put(descriptorSet{handle: set, pool: pool})), nil
}

//WriteDescriptorSet points binding 0 at the uniform buffer and fills binding 1 with the image views,
//all sampled through the same sampler in shader read layout
func (d *Driver) WriteDescriptorSet(h render.DescriptorSet, w render.DescriptorWrite) {
	entry, ok := d.sets.get(uint64(h))
	if !ok {
		d.log.Errorf("vulkan: write to unknown descriptor set %d", h)
		return
	}
	set := entry.handle
	buffer, _ := d.buffers.get(uint64(w.Uniform))
	sampler, _ := d.samplers.get(uint64(w.Sampler))

	images := make([]vk.DescriptorImageInfo, len(w.Images))
	for i, v := range w.Images {
		view, _ := d.views.get(uint64(v))
		images[i] = vk.DescriptorImageInfo{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}
	}

	writes := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer,
			Offset: 0,
			Range:  vk.DeviceSize(w.UniformRange),
		}},
	}}
	if len(images) > 0 {
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      1,
			DescriptorCount: uint32(len(images)),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      images,
		})
	}
	vk.UpdateDescriptorSets(d.device, uint32(len(writes)), writes, 0, nil)
}
