package render

import (
	vk "github.com/goki/vulkan"
)

//Pipeline bundles the descriptor layout, the pipeline layout and the compiled pipeline. It is immutable once built.
type Pipeline struct {
	DescriptorLayout DescriptorSetLayout
	Layout           PipelineLayout
	Handle           PipelineHandle
	drv              Driver
}

func (p *Pipeline) Destroy() {
	if p == nil || p.drv == nil {
		return
	}
	if p.Handle != 0 {
		p.drv.DestroyPipeline(p.Handle)
	}
	if p.Layout != 0 {
		p.drv.DestroyPipelineLayout(p.Layout)
	}
	if p.DescriptorLayout != 0 {
		p.drv.DestroyDescriptorSetLayout(p.DescriptorLayout)
	}
	p.drv = nil
}

//PipelineBuilder compiles the fixed pipeline configurations against the swapchain color and depth formats
type PipelineBuilder struct {
	drv         Driver
	colorFormat vk.Format
	depthFormat vk.Format
}

func NewPipelineBuilder(drv Driver, colorFormat, depthFormat vk.Format) *PipelineBuilder {
	return &PipelineBuilder{drv: drv, colorFormat: colorFormat, depthFormat: depthFormat}
}

//DescriptorBindings is the layout convention shared by every pipeline:
//binding 0 uniform buffer for vertex and fragment, binding 1 an array of samplers for fragment.
func DescriptorBindings(textures uint32) []DescriptorBinding {
	return []DescriptorBinding{
		{
			Binding: 0,
			Type:    vk.DescriptorTypeUniformBuffer,
			Count:   1,
			Stages:  vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		},
		{
			Binding: 1,
			Type:    vk.DescriptorTypeCombinedImageSampler,
			Count:   textures,
			Stages:  vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

//BuildVertexPipeline builds a depth tested, back face culled pipeline fed by a vertex buffer
func (b *PipelineBuilder) BuildVertexPipeline(shaders ShaderPair, input VertexLayout, push PushConstantRange, textures uint32) (*Pipeline, error) {
	return b.build(shaders, textures, []PushConstantRange{push}, PipelineConfig{
		Input:       &input,
		CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:   vk.FrontFaceCounterClockwise,
		DepthTest:   true,
		ColorFormat: b.colorFormat,
		DepthFormat: b.depthFormat,
	})
}

//BuildScreenPipeline builds the full screen quad pipeline: no vertex input, no depth, no culling, one texture
func (b *PipelineBuilder) BuildScreenPipeline(shaders ShaderPair) (*Pipeline, error) {
	return b.build(shaders, 1, nil, PipelineConfig{
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		ColorFormat: b.colorFormat,
		DepthFormat: vk.FormatUndefined,
	})
}

func (b *PipelineBuilder) build(shaders ShaderPair, textures uint32, push []PushConstantRange, cfg PipelineConfig) (*Pipeline, error) {
	p := &Pipeline{drv: b.drv}
	var err error

	if p.DescriptorLayout, err = b.drv.CreateDescriptorSetLayout(DescriptorBindings(textures)); err != nil {
		return nil, fatal("create descriptor set layout", err)
	}
	if p.Layout, err = b.drv.CreatePipelineLayout(p.DescriptorLayout, push); err != nil {
		p.Destroy()
		return nil, fatal("create pipeline layout", err)
	}

	vert, err := b.drv.CreateShaderModule(shaders.Vertex)
	if err != nil {
		p.Destroy()
		return nil, fatal("create vertex shader module", err)
	}
	defer b.drv.DestroyShaderModule(vert)
	frag, err := b.drv.CreateShaderModule(shaders.Fragment)
	if err != nil {
		p.Destroy()
		return nil, fatal("create fragment shader module", err)
	}
	defer b.drv.DestroyShaderModule(frag)

	cfg.Vertex = vert
	cfg.Fragment = frag
	cfg.Layout = p.Layout
	if p.Handle, err = b.drv.CreateGraphicsPipeline(cfg); err != nil {
		p.Destroy()
		return nil, fatal("create graphics pipeline", err)
	}
	return p, nil
}
