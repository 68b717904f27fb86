package render

import (
	"bytes"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

func TestFindMemoryType(t *testing.T) {
	types := []vk.MemoryPropertyFlags{
		deviceLocal,
		hostCoherent,
		deviceLocal | hostCoherent,
	}
	cases := []struct {
		filter uint32
		props  vk.MemoryPropertyFlags
		want   uint32
		ok     bool
	}{
		{0x7, deviceLocal, 0, true},
		{0x7, hostCoherent, 1, true},
		{0x4, hostCoherent, 2, true},
		{0x1, hostCoherent, 0, false},
		{0x0, 0, 0, false},
	}
	for _, c := range cases {
		got, err := FindMemoryType(types, c.filter, c.props)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("filter %#x props %#x: got %d, %v; want %d", c.filter, c.props, got, err, c.want)
		}
		if !c.ok && !errors.Is(err, ErrNoMemoryType) {
			t.Errorf("filter %#x props %#x: err = %v, want ErrNoMemoryType", c.filter, c.props, err)
		}
	}
}

func TestFindDepthFormatPrefersFirstSupported(t *testing.T) {
	drv := newStubDriver()
	attach := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	drv.depthFeatures = map[vk.Format]vk.FormatFeatureFlags{
		DepthCandidates[len(DepthCandidates)-1]: attach,
	}
	got, err := FindDepthFormat(drv)
	if err != nil || got != DepthCandidates[len(DepthCandidates)-1] {
		t.Errorf("only last supported: got %d, %v", got, err)
	}

	drv.depthFeatures[DepthCandidates[1]] = attach
	if got, _ := FindDepthFormat(drv); got != DepthCandidates[1] {
		t.Errorf("got %d, want %d", got, DepthCandidates[1])
	}

	drv.depthFeatures = map[vk.Format]vk.FormatFeatureFlags{
		vk.FormatD32Sfloat: vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit),
	}
	if _, err := FindDepthFormat(drv); !errors.Is(err, ErrNoDepthFormat) {
		t.Errorf("no support: err = %v, want ErrNoDepthFormat", err)
	}
}

func TestHasStencil(t *testing.T) {
	if HasStencil(vk.FormatD32Sfloat) {
		t.Error("D32 has no stencil")
	}
	if !HasStencil(vk.FormatD32SfloatS8Uint) || !HasStencil(vk.FormatD24UnormS8Uint) {
		t.Error("stencil formats not detected")
	}
}

func TestCreateBufferReleasesOnFailure(t *testing.T) {
	for _, op := range []string{"AllocateMemory", "BindBufferMemory"} {
		drv := newStubDriver()
		drv.failOn[op] = errors.New("injected")
		f := NewFactory(drv)
		if _, err := f.CreateBuffer(64, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), deviceLocal); err == nil {
			t.Errorf("%s failure not reported", op)
		}
		if len(drv.live) != 0 {
			t.Errorf("%s failure leaked %v", op, drv.live)
		}
	}
}

func TestCreateImageReleasesOnFailure(t *testing.T) {
	for _, op := range []string{"AllocateMemory", "BindImageMemory", "CreateImageView"} {
		drv := newStubDriver()
		drv.failOn[op] = errors.New("injected")
		f := NewFactory(drv)
		_, err := f.CreateAttachment(16, 16, vk.FormatD32Sfloat,
			vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), vk.ImageAspectFlags(vk.ImageAspectDepthBit))
		if err == nil {
			t.Errorf("%s failure not reported", op)
		}
		if len(drv.live) != 0 {
			t.Errorf("%s failure leaked %v", op, drv.live)
		}
	}
}

func TestCreateBufferWithoutMatchingMemory(t *testing.T) {
	drv := newStubDriver()
	drv.info.MemoryTypes = []vk.MemoryPropertyFlags{deviceLocal}
	f := NewFactory(drv)
	_, err := f.CreateBuffer(64, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostCoherent)
	if !errors.Is(err, ErrNoMemoryType) || !IsFatal(err) {
		t.Errorf("err = %v, want fatal ErrNoMemoryType", err)
	}
	if len(drv.live) != 0 {
		t.Errorf("leaked %v", drv.live)
	}
}

func TestUploadBufferStagesAndReleases(t *testing.T) {
	drv := newStubDriver()
	f := NewFactory(drv)
	buf, err := f.UploadBuffer([]byte{1, 2, 3, 4}, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		t.Fatal(err)
	}
	if buf.Size != 4 {
		t.Errorf("size = %d", buf.Size)
	}
	if drv.liveCount("buffer") != 1 || drv.liveCount("memory") != 1 {
		t.Errorf("staging not released: %v", drv.live)
	}
	if drv.liveCount("command") != 0 {
		t.Error("one shot command buffer not freed")
	}
	if len(drv.cmds) != 1 || drv.cmds[0] != "copy" {
		t.Errorf("recorded %v, want one copy", drv.cmds)
	}
	buf.Destroy()
	buf.Destroy()
	if len(drv.live) != 0 {
		t.Errorf("leaked %v", drv.live)
	}
	if len(drv.violations) != 0 {
		t.Errorf("violations %v", drv.violations)
	}
}

func TestUploadTexture(t *testing.T) {
	drv := newStubDriver()
	f := NewFactory(drv)
	img, err := f.UploadTexture(Texture{Name: "t", Width: 2, Height: 1, Pixels: make([]byte, 8)})
	if err != nil {
		t.Fatal(err)
	}
	if img.Format != TextureFormat || img.View == 0 {
		t.Errorf("texture format %d view %d", img.Format, img.View)
	}
	want := []string{"barrier", "copy-image", "barrier"}
	if len(drv.cmds) != len(want) {
		t.Fatalf("recorded %v", drv.cmds)
	}
	for i := range want {
		if drv.cmds[i] != want[i] {
			t.Fatalf("recorded %v, want %v", drv.cmds, want)
		}
	}
	last := drv.barriers[len(drv.barriers)-1].barrier
	if last.NewLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("texture left in layout %d", last.NewLayout)
	}

	if _, err := f.UploadTexture(Texture{Name: "bad", Width: 2, Height: 2, Pixels: make([]byte, 8)}); err == nil {
		t.Error("short pixel buffer accepted")
	}
	img.Destroy()
	if len(drv.live) != 0 {
		t.Errorf("leaked %v", drv.live)
	}
}

func TestBufferMapIsPersistent(t *testing.T) {
	drv := newStubDriver()
	f := NewFactory(drv)
	buf, err := f.CreateBuffer(16, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostCoherent)
	if err != nil {
		t.Fatal(err)
	}
	a, err := buf.Map()
	if err != nil {
		t.Fatal(err)
	}
	copy(a, []byte{9, 9})
	b, _ := buf.Map()
	if !bytes.Equal(buf.Mapped(), b) || b[0] != 9 {
		t.Error("second Map returned a different mapping")
	}
	buf.Destroy()
}
