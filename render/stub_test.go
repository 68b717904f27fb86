package render

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type presentCall struct {
	image uint32
	wait  Semaphore
}

type barrierCall struct {
	cmd     CommandBuffer
	image   ImageHandle
	barrier Barrier
}

//stubDriver is a scripted software device. GPU work completes when its fence is waited on,
//so any CPU reuse of in flight objects shows up in violations.
type stubDriver struct {
	next          uint64
	info          DeviceInfo
	support       SurfaceSupport
	depthFeatures map[vk.Format]vk.FormatFeatureFlags
	failOn        map[string]error

	live      map[uint64]string
	memory    map[Memory][]byte
	signaled  map[Semaphore]bool
	fenceDone map[Fence]bool
	pending   map[CommandBuffer]Fence

	acquireResults map[int]vk.Result
	presentResults map[int]vk.Result
	acquireCalls   int
	presentCalls   int

	images     []ImageHandle
	nextImage  uint32
	swapchains int

	trace      []string
	cmds       []string
	waits      []Fence
	submits    []SubmitInfo
	presents   []presentCall
	barriers   []barrierCall
	violations []string
}

func newStubDriver() *stubDriver {
	return &stubDriver{
		info: DeviceInfo{
			Name:                  "stub",
			MemoryTypes:           []vk.MemoryPropertyFlags{deviceLocal, hostCoherent},
			MaxUniformBufferRange: MaxUniformBytes,
			MaxSamplerAnisotropy:  16,
		},
		support: SurfaceSupport{
			Capabilities: SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  3,
				CurrentExtent:  Extent{Width: 1024, Height: 768},
				MinImageExtent: Extent{Width: 1, Height: 1},
				MaxImageExtent: Extent{Width: 4096, Height: 4096},
			},
			Formats:      []SurfaceFormat{{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo},
		},
		depthFeatures: map[vk.Format]vk.FormatFeatureFlags{
			vk.FormatD32Sfloat: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
		},
		failOn:         map[string]error{},
		live:           map[uint64]string{},
		memory:         map[Memory][]byte{},
		signaled:       map[Semaphore]bool{},
		fenceDone:      map[Fence]bool{},
		pending:        map[CommandBuffer]Fence{},
		acquireResults: map[int]vk.Result{},
		presentResults: map[int]vk.Result{},
	}
}

func (s *stubDriver) create(kind string) uint64 {
	s.next++
	s.live[s.next] = kind
	return s.next
}

func (s *stubDriver) release(kind string, h uint64) {
	if h == 0 {
		return
	}
	got, ok := s.live[h]
	if !ok {
		s.violate("destroy of dead %s %d", kind, h)
		return
	}
	if got != kind {
		s.violate("destroy %d as %s, created as %s", h, kind, got)
	}
	delete(s.live, h)
}

func (s *stubDriver) violate(format string, args ...interface{}) {
	s.violations = append(s.violations, fmt.Sprintf(format, args...))
}

func (s *stubDriver) fail(op string) error {
	return s.failOn[op]
}

func (s *stubDriver) liveCount(kind string) int {
	n := 0
	for _, k := range s.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (s *stubDriver) Info() DeviceInfo { return s.info }

func (s *stubDriver) FormatFeatures(format vk.Format, tiling vk.ImageTiling) vk.FormatFeatureFlags {
	if tiling != vk.ImageTilingOptimal {
		return 0
	}
	return s.depthFeatures[format]
}

func (s *stubDriver) WaitIdle() error {
	s.trace = append(s.trace, "wait-idle")
	for f := range s.fenceDone {
		s.fenceDone[f] = true
	}
	s.pending = map[CommandBuffer]Fence{}
	return s.fail("WaitIdle")
}

func (s *stubDriver) QueueWaitIdle() error { return s.fail("QueueWaitIdle") }

func (s *stubDriver) Destroy() { s.trace = append(s.trace, "destroy-device") }

func (s *stubDriver) SurfaceSupport() (SurfaceSupport, error) {
	return s.support, s.fail("SurfaceSupport")
}

func (s *stubDriver) CreateSwapchain(cfg SwapchainConfig) (SwapchainHandle, []ImageHandle, error) {
	if err := s.fail("CreateSwapchain"); err != nil {
		return 0, nil, err
	}
	s.trace = append(s.trace, "create-swapchain")
	s.swapchains++
	s.images = make([]ImageHandle, cfg.ImageCount)
	for i := range s.images {
		s.next++
		s.images[i] = ImageHandle(s.next)
	}
	s.nextImage = 0
	return SwapchainHandle(s.create("swapchain")), s.images, nil
}

func (s *stubDriver) DestroySwapchain(sc SwapchainHandle) {
	s.trace = append(s.trace, "destroy-swapchain")
	s.release("swapchain", uint64(sc))
}

func (s *stubDriver) AcquireNextImage(sc SwapchainHandle, signal Semaphore) (uint32, vk.Result) {
	call := s.acquireCalls
	s.acquireCalls++
	s.trace = append(s.trace, "acquire")
	res := s.acquireResults[call]
	if res != vk.Success && res != vk.Suboptimal {
		return 0, res
	}
	if s.signaled[signal] {
		s.violate("acquire signals pending semaphore %d", signal)
	}
	s.signaled[signal] = true
	img := s.nextImage
	s.nextImage = (s.nextImage + 1) % uint32(len(s.images))
	return img, res
}

func (s *stubDriver) Present(sc SwapchainHandle, image uint32, wait Semaphore) vk.Result {
	call := s.presentCalls
	s.presentCalls++
	s.trace = append(s.trace, "present")
	if !s.signaled[wait] {
		s.violate("present waits on unsignaled semaphore %d", wait)
	}
	s.signaled[wait] = false
	s.presents = append(s.presents, presentCall{image: image, wait: wait})
	return s.presentResults[call]
}

func (s *stubDriver) CreateFence(signaled bool) (Fence, error) {
	if err := s.fail("CreateFence"); err != nil {
		return 0, err
	}
	f := Fence(s.create("fence"))
	s.fenceDone[f] = signaled
	return f, nil
}

func (s *stubDriver) DestroyFence(f Fence) {
	s.release("fence", uint64(f))
	delete(s.fenceDone, f)
}

func (s *stubDriver) WaitFence(f Fence) error {
	s.trace = append(s.trace, "wait")
	s.waits = append(s.waits, f)
	s.fenceDone[f] = true
	for cmd, fence := range s.pending {
		if fence == f {
			delete(s.pending, cmd)
		}
	}
	return s.fail("WaitFence")
}

func (s *stubDriver) ResetFence(f Fence) error {
	if !s.fenceDone[f] {
		s.violate("reset of unsignaled fence %d", f)
	}
	s.fenceDone[f] = false
	return nil
}

func (s *stubDriver) CreateSemaphore() (Semaphore, error) {
	if err := s.fail("CreateSemaphore"); err != nil {
		return 0, err
	}
	return Semaphore(s.create("semaphore")), nil
}

func (s *stubDriver) DestroySemaphore(sem Semaphore) {
	s.release("semaphore", uint64(sem))
	delete(s.signaled, sem)
}

func (s *stubDriver) AllocateCommandBuffers(n int) ([]CommandBuffer, error) {
	if err := s.fail("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	cmds := make([]CommandBuffer, n)
	for i := range cmds {
		cmds[i] = CommandBuffer(s.create("command"))
	}
	return cmds, nil
}

func (s *stubDriver) FreeCommandBuffers(cmds []CommandBuffer) {
	for _, c := range cmds {
		s.release("command", uint64(c))
	}
}

func (s *stubDriver) BeginCommandBuffer(cmd CommandBuffer, oneShot bool) error {
	if _, busy := s.pending[cmd]; busy {
		s.violate("begin of in flight command buffer %d", cmd)
	}
	return nil
}

func (s *stubDriver) EndCommandBuffer(cmd CommandBuffer) error { return nil }

func (s *stubDriver) ResetCommandBuffer(cmd CommandBuffer) error {
	if _, busy := s.pending[cmd]; busy {
		s.violate("reset of in flight command buffer %d", cmd)
	}
	return nil
}

func (s *stubDriver) Submit(info SubmitInfo) error {
	if err := s.fail("Submit"); err != nil {
		return err
	}
	if info.Fence == 0 {
		return nil
	}
	s.trace = append(s.trace, "submit")
	if s.fenceDone[info.Fence] {
		s.violate("submit with signaled fence %d", info.Fence)
	}
	if info.Wait != 0 {
		if !s.signaled[info.Wait] {
			s.violate("submit waits on unsignaled semaphore %d", info.Wait)
		}
		s.signaled[info.Wait] = false
	}
	if info.Signal != 0 {
		if s.signaled[info.Signal] {
			s.violate("submit signals pending semaphore %d", info.Signal)
		}
		s.signaled[info.Signal] = true
	}
	s.pending[info.Commands] = info.Fence
	s.submits = append(s.submits, info)
	return nil
}

func (s *stubDriver) CreateBuffer(size uint64, usage vk.BufferUsageFlags) (BufferHandle, MemoryRequirements, error) {
	if err := s.fail("CreateBuffer"); err != nil {
		return 0, MemoryRequirements{}, err
	}
	return BufferHandle(s.create("buffer")), MemoryRequirements{Size: size, MemoryTypeBits: 0x3}, nil
}

func (s *stubDriver) DestroyBuffer(b BufferHandle) { s.release("buffer", uint64(b)) }

func (s *stubDriver) CreateImage(cfg ImageConfig) (ImageHandle, MemoryRequirements, error) {
	if err := s.fail("CreateImage"); err != nil {
		return 0, MemoryRequirements{}, err
	}
	size := uint64(cfg.Width) * uint64(cfg.Height) * 4
	return ImageHandle(s.create("image")), MemoryRequirements{Size: size, MemoryTypeBits: 0x3}, nil
}

func (s *stubDriver) DestroyImage(img ImageHandle) { s.release("image", uint64(img)) }

func (s *stubDriver) AllocateMemory(size uint64, typeIndex uint32) (Memory, error) {
	if err := s.fail("AllocateMemory"); err != nil {
		return 0, err
	}
	mem := Memory(s.create("memory"))
	if s.info.MemoryTypes[typeIndex]&hostCoherent == hostCoherent {
		s.memory[mem] = make([]byte, size)
	}
	return mem, nil
}

func (s *stubDriver) FreeMemory(mem Memory) {
	s.release("memory", uint64(mem))
	delete(s.memory, mem)
}

func (s *stubDriver) BindBufferMemory(b BufferHandle, mem Memory) error { return s.fail("BindBufferMemory") }
func (s *stubDriver) BindImageMemory(img ImageHandle, mem Memory) error { return s.fail("BindImageMemory") }

func (s *stubDriver) MapMemory(mem Memory, size uint64) ([]byte, error) {
	data, ok := s.memory[mem]
	if !ok {
		return nil, fmt.Errorf("memory %d is not host visible", mem)
	}
	return data[:size], nil
}

func (s *stubDriver) UnmapMemory(mem Memory) {}

func (s *stubDriver) CreateImageView(img ImageHandle, format vk.Format, aspect vk.ImageAspectFlags) (ImageView, error) {
	if err := s.fail("CreateImageView"); err != nil {
		return 0, err
	}
	return ImageView(s.create("view")), nil
}

func (s *stubDriver) DestroyImageView(view ImageView) { s.release("view", uint64(view)) }

func (s *stubDriver) CreateSampler(cfg SamplerConfig) (Sampler, error) {
	if err := s.fail("CreateSampler"); err != nil {
		return 0, err
	}
	return Sampler(s.create("sampler")), nil
}

func (s *stubDriver) DestroySampler(sm Sampler) { s.release("sampler", uint64(sm)) }

func (s *stubDriver) CreateShaderModule(code []uint32) (ShaderModule, error) {
	return ShaderModule(s.create("shader")), nil
}

func (s *stubDriver) DestroyShaderModule(m ShaderModule) { s.release("shader", uint64(m)) }

func (s *stubDriver) CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error) {
	return DescriptorSetLayout(s.create("set-layout")), nil
}

func (s *stubDriver) DestroyDescriptorSetLayout(l DescriptorSetLayout) {
	s.release("set-layout", uint64(l))
}

func (s *stubDriver) CreatePipelineLayout(set DescriptorSetLayout, push []PushConstantRange) (PipelineLayout, error) {
	return PipelineLayout(s.create("pipeline-layout")), nil
}

func (s *stubDriver) DestroyPipelineLayout(l PipelineLayout) { s.release("pipeline-layout", uint64(l)) }

func (s *stubDriver) CreateGraphicsPipeline(cfg PipelineConfig) (PipelineHandle, error) {
	if err := s.fail("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	return PipelineHandle(s.create("pipeline")), nil
}

func (s *stubDriver) DestroyPipeline(p PipelineHandle) { s.release("pipeline", uint64(p)) }

func (s *stubDriver) CreateDescriptorPool(maxSets uint32, sizes []DescriptorPoolSize) (DescriptorPool, error) {
	return DescriptorPool(s.create("pool")), nil
}

func (s *stubDriver) DestroyDescriptorPool(p DescriptorPool) { s.release("pool", uint64(p)) }

func (s *stubDriver) AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error) {
	s.next++
	return DescriptorSet(s.next), nil
}

func (s *stubDriver) WriteDescriptorSet(set DescriptorSet, w DescriptorWrite) {}

func (s *stubDriver) CmdImageBarrier(cmd CommandBuffer, img ImageHandle, b Barrier) {
	s.cmds = append(s.cmds, "barrier")
	s.barriers = append(s.barriers, barrierCall{cmd: cmd, image: img, barrier: b})
}

func (s *stubDriver) CmdCopyBuffer(cmd CommandBuffer, src, dst BufferHandle, size uint64) {
	s.cmds = append(s.cmds, "copy")
}

func (s *stubDriver) CmdCopyBufferToImage(cmd CommandBuffer, src BufferHandle, dst ImageHandle, width, height uint32) {
	s.cmds = append(s.cmds, "copy-image")
}

func (s *stubDriver) CmdBeginRendering(cmd CommandBuffer, info RenderingInfo) {
	if info.Depth != nil {
		s.cmds = append(s.cmds, "begin-rendering-depth")
		return
	}
	s.cmds = append(s.cmds, "begin-rendering")
}

func (s *stubDriver) CmdEndRendering(cmd CommandBuffer) { s.cmds = append(s.cmds, "end-rendering") }

func (s *stubDriver) CmdBindPipeline(cmd CommandBuffer, p PipelineHandle) {
	s.cmds = append(s.cmds, "bind-pipeline")
}

func (s *stubDriver) CmdSetViewportScissor(cmd CommandBuffer, area Extent) {
	s.cmds = append(s.cmds, "viewport")
}

func (s *stubDriver) CmdBindDescriptorSet(cmd CommandBuffer, layout PipelineLayout, set DescriptorSet) {
	s.cmds = append(s.cmds, "bind-set")
}

func (s *stubDriver) CmdBindVertexBuffer(cmd CommandBuffer, b BufferHandle) {
	s.cmds = append(s.cmds, "bind-vertices")
}

func (s *stubDriver) CmdBindIndexBuffer(cmd CommandBuffer, b BufferHandle) {
	s.cmds = append(s.cmds, "bind-indices")
}

func (s *stubDriver) CmdPushConstants(cmd CommandBuffer, layout PipelineLayout, stages vk.ShaderStageFlags, data []byte) {
	s.cmds = append(s.cmds, "push")
}

func (s *stubDriver) CmdDraw(cmd CommandBuffer, vertexCount uint32) {
	s.cmds = append(s.cmds, fmt.Sprintf("draw %d", vertexCount))
}

func (s *stubDriver) CmdDrawIndexed(cmd CommandBuffer, indexCount uint32) {
	s.cmds = append(s.cmds, fmt.Sprintf("draw-indexed %d", indexCount))
}

type stubWindow struct {
	width, height int
}

func (w stubWindow) FramebufferSize() (int, int) { return w.width, w.height }

type stubScene struct {
	updates int
}

func (s *stubScene) TileMesh() ([]byte, []byte, uint32) {
	return make([]byte, 4*20), make([]byte, 6*2), 6
}

func (s *stubScene) SpriteVertices() ([]byte, uint32) {
	return make([]byte, 6*40), 6
}

func (s *stubScene) TileConstants() PushConstants {
	return PushConstants{Color: [4]float32{1, 1, 1, 1}}
}

func (s *stubScene) Update(u *UniformPayload, t float32) {
	s.updates++
	u.Time = t
}

func testShaders() ShaderPair {
	return ShaderPair{Vertex: []uint32{spirvMagic, 0x00010300}, Fragment: []uint32{spirvMagic, 0x00010300}}
}

func testAssets() Assets {
	return Assets{
		Tiles:  testShaders(),
		Sprite: testShaders(),
		Screen: testShaders(),
		Textures: []Texture{
			{Name: "a", Width: 2, Height: 2, Pixels: make([]byte, 16)},
			{Name: "b", Width: 1, Height: 1, Pixels: make([]byte, 4)},
		},
	}
}
