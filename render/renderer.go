package render

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//Offscreen target resolution, independent of the window
const (
	OffscreenWidth  uint32 = 1024
	OffscreenHeight uint32 = 768
)

var pushStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

//TileVertexLayout is pos vec3, uv vec2
var TileVertexLayout = VertexLayout{
	Stride: 20,
	Attributes: []VertexAttribute{
		{Location: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
		{Location: 1, Format: vk.FormatR32g32Sfloat, Offset: 12},
	},
}

//SpriteVertexLayout is color vec4, uv vec2, uv2 vec2, texture index, sprite index
var SpriteVertexLayout = VertexLayout{
	Stride: 40,
	Attributes: []VertexAttribute{
		{Location: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: 0},
		{Location: 1, Format: vk.FormatR32g32Sfloat, Offset: 16},
		{Location: 2, Format: vk.FormatR32g32Sfloat, Offset: 24},
		{Location: 3, Format: vk.FormatR32Uint, Offset: 32},
		{Location: 4, Format: vk.FormatR32Uint, Offset: 36},
	},
}

//Scene is the content the renderer draws. Geometry is uploaded once, Update runs every frame.
type Scene interface {
	//TileMesh returns packed tile vertices, 16 bit indices and the index count
	TileMesh() (vertices, indices []byte, indexCount uint32)
	//SpriteVertices returns packed sprite vertices and the vertex count
	SpriteVertices() (vertices []byte, vertexCount uint32)
	TileConstants() PushConstants
	Update(u *UniformPayload, t float32)
}

//Assets are the decoded inputs the pipelines and descriptor sets are built from
type Assets struct {
	Tiles    ShaderPair
	Sprite   ShaderPair
	Screen   ShaderPair
	Textures []Texture
}

//Renderer owns everything drawn per frame: the swapchain, three pipelines, the frame slot ring
//and the shared geometry, textures and sampler.
type Renderer struct {
	ctx       *Context
	drv       Driver
	factory   *Factory
	swapchain *Swapchain
	scene     Scene
	log       *Logger

	depthFormat vk.Format
	tiles       *Pipeline
	sprites     *Pipeline
	screen      *Pipeline

	tileVertices   *Buffer
	tileIndices    *Buffer
	spriteVertices *Buffer
	indexCount     uint32
	spriteCount    uint32

	textures []*Image
	sampler  Sampler
	pool     DescriptorPool
	ring     frameRing

	payload    UniformPayload
	suboptimal int
	resized    bool
	stopped    error
	stats      FrameStats
}

//New builds the renderer on an initialized context. On failure everything created so far is released.
func New(ctx *Context, window Window, scene Scene, assets Assets, logger *Logger) (r *Renderer, err error) {
	if logger == nil {
		logger = Discard
	}
	if len(assets.Textures) == 0 {
		return nil, fatal("create renderer", errors.New("at least one texture is required"))
	}
	drv := ctx.Driver()
	r = &Renderer{
		ctx:     ctx,
		drv:     drv,
		factory: NewFactory(drv),
		scene:   scene,
		log:     logger,
	}
	defer func() {
		if err != nil {
			r.Close()
			r = nil
		}
	}()

	r.swapchain = NewSwapchain(drv, r.factory, window, logger)
	if err = r.swapchain.Create(false); err != nil {
		return r, err
	}
	if r.depthFormat, err = FindDepthFormat(drv); err != nil {
		return r, err
	}
	if err = r.buildPipelines(assets, uint32(len(assets.Textures))); err != nil {
		return r, err
	}
	if err = r.uploadGeometry(); err != nil {
		return r, err
	}
	if err = r.uploadTextures(assets.Textures); err != nil {
		return r, err
	}
	if r.sampler, err = drv.CreateSampler(SamplerConfig{MaxAnisotropy: ctx.Info().MaxSamplerAnisotropy}); err != nil {
		return r, fatal("create texture sampler", err)
	}
	if err = r.createSlots(); err != nil {
		return r, err
	}
	if err = r.createDescriptors(); err != nil {
		return r, err
	}

	logger.Infof("renderer ready on %s: %d textures, %d tile indices, %d sprite vertices",
		ctx.Info().Name, len(r.textures), r.indexCount, r.spriteCount)
	return r, nil
}

func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

func (r *Renderer) Slot(i int) *FrameSlot {
	return r.ring.slots[i]
}

func (r *Renderer) buildPipelines(assets Assets, textures uint32) (err error) {
	builder := NewPipelineBuilder(r.drv, r.swapchain.Format(), r.depthFormat)
	push := PushConstantRange{Stages: pushStages, Size: PushConstantSize}

	if r.tiles, err = builder.BuildVertexPipeline(assets.Tiles, TileVertexLayout, push, textures); err != nil {
		return err
	}
	if r.sprites, err = builder.BuildVertexPipeline(assets.Sprite, SpriteVertexLayout, push, textures); err != nil {
		return err
	}
	r.screen, err = builder.BuildScreenPipeline(assets.Screen)
	return err
}

func (r *Renderer) uploadGeometry() (err error) {
	vertices, indices, count := r.scene.TileMesh()
	if count > 0 {
		if r.tileVertices, err = r.factory.UploadBuffer(vertices, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)); err != nil {
			return err
		}
		if r.tileIndices, err = r.factory.UploadBuffer(indices, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)); err != nil {
			return err
		}
		r.indexCount = count
	}

	sprites, n := r.scene.SpriteVertices()
	if n > 0 {
		if r.spriteVertices, err = r.factory.UploadBuffer(sprites, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)); err != nil {
			return err
		}
		r.spriteCount = n
	}
	return nil
}

func (r *Renderer) uploadTextures(textures []Texture) error {
	for _, tex := range textures {
		img, err := r.factory.UploadTexture(tex)
		if err != nil {
			return errors.Wrapf(err, "texture %s", tex.Name)
		}
		r.textures = append(r.textures, img)
	}
	return nil
}

//createSlots builds the per slot uniform buffer, offscreen targets and sync objects
func (r *Renderer) createSlots() error {
	if err := CheckUniformSize(UniformSize, r.ctx.Info().MaxUniformBufferRange); err != nil {
		return err
	}
	colorUsage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit)
	depthUsage := vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)

	for i := range r.ring.slots {
		slot := &FrameSlot{Index: i, Commands: r.ctx.CommandBuffer(i)}
		r.ring.slots[i] = slot
		var err error

		if slot.Uniform, err = r.factory.CreateBuffer(UniformSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostCoherent); err != nil {
			return err
		}
		if _, err = slot.Uniform.Map(); err != nil {
			return err
		}

		slot.Color, err = r.factory.CreateAttachment(OffscreenWidth, OffscreenHeight, r.swapchain.Format(),
			colorUsage, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		if err = r.factory.TransitionNow(slot.Color, vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
			return err
		}
		slot.Depth, err = r.factory.CreateAttachment(OffscreenWidth, OffscreenHeight, r.depthFormat,
			depthUsage, vk.ImageAspectFlags(vk.ImageAspectDepthBit))
		if err != nil {
			return err
		}
		if err = r.factory.TransitionNow(slot.Depth, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal); err != nil {
			return err
		}

		if slot.InFlight, err = r.drv.CreateFence(true); err != nil {
			return fatal("create frame fence", err)
		}
		if slot.ImageAvailable, err = r.drv.CreateSemaphore(); err != nil {
			return fatal("create image available semaphore", err)
		}
	}
	return nil
}

//createDescriptors allocates one main set and one screen set per slot
func (r *Renderer) createDescriptors() (err error) {
	textures := uint32(len(r.textures))
	r.pool, err = r.drv.CreateDescriptorPool(2*FramesInFlight, []DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, Count: 2 * FramesInFlight},
		{Type: vk.DescriptorTypeCombinedImageSampler, Count: FramesInFlight*textures + FramesInFlight},
	})
	if err != nil {
		return fatal("create descriptor pool", err)
	}

	views := make([]ImageView, len(r.textures))
	for i, img := range r.textures {
		views[i] = img.View
	}
	for _, slot := range r.ring.slots {
		if slot.Set, err = r.drv.AllocateDescriptorSet(r.pool, r.tiles.DescriptorLayout); err != nil {
			return fatal("allocate descriptor set", err)
		}
		r.drv.WriteDescriptorSet(slot.Set, DescriptorWrite{
			Uniform:      slot.Uniform.Handle,
			UniformRange: UniformSize,
			Sampler:      r.sampler,
			Images:       views,
		})

		if slot.ScreenSet, err = r.drv.AllocateDescriptorSet(r.pool, r.screen.DescriptorLayout); err != nil {
			return fatal("allocate screen descriptor set", err)
		}
		r.drv.WriteDescriptorSet(slot.ScreenSet, DescriptorWrite{
			Uniform:      slot.Uniform.Handle,
			UniformRange: UniformSize,
			Sampler:      r.sampler,
			Images:       []ImageView{slot.Color.View},
		})
	}
	return nil
}

//Close waits for the device and releases everything the renderer created. The context stays alive.
func (r *Renderer) Close() {
	if r.drv == nil {
		return
	}
	if err := r.drv.WaitIdle(); err != nil {
		r.log.Errorf("wait idle before shutdown: %v", err)
	}
	if r.swapchain != nil {
		r.swapchain.Destroy()
	}
	if r.sampler != 0 {
		r.drv.DestroySampler(r.sampler)
	}
	for _, img := range r.textures {
		img.Destroy()
	}
	r.textures = nil
	for _, slot := range r.ring.slots {
		if slot != nil {
			slot.Uniform.Destroy()
		}
	}
	if r.pool != 0 {
		r.drv.DestroyDescriptorPool(r.pool)
	}
	r.tiles.Destroy()
	r.sprites.Destroy()
	r.screen.Destroy()
	r.tileVertices.Destroy()
	r.tileIndices.Destroy()
	r.spriteVertices.Destroy()
	for _, slot := range r.ring.slots {
		if slot == nil {
			continue
		}
		if slot.InFlight != 0 {
			r.drv.DestroyFence(slot.InFlight)
		}
		if slot.ImageAvailable != 0 {
			r.drv.DestroySemaphore(slot.ImageAvailable)
		}
		slot.Color.Destroy()
		slot.Depth.Destroy()
	}
	r.drv = nil
}
