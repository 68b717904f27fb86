package render

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	got, err := ChooseSurfaceFormat([]SurfaceFormat{other, preferred})
	if err != nil || got != preferred {
		t.Errorf("got %+v, %v; want preferred format", got, err)
	}
	got, err = ChooseSurfaceFormat([]SurfaceFormat{other})
	if err != nil || got != other {
		t.Errorf("fallback got %+v, %v; want first format", got, err)
	}
	if _, err := ChooseSurfaceFormat(nil); err == nil {
		t.Error("empty format list accepted")
	}
}

func TestChoosePresentMode(t *testing.T) {
	if m := ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}); m != vk.PresentModeMailbox {
		t.Errorf("got %d, want mailbox", m)
	}
	if m := ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}); m != vk.PresentModeFifo {
		t.Errorf("got %d, want fifo", m)
	}
}

func TestChooseExtent(t *testing.T) {
	caps := SurfaceCapabilities{
		CurrentExtent:  Extent{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: Extent{Width: 100, Height: 100},
		MaxImageExtent: Extent{Width: 2000, Height: 1000},
	}
	cases := []struct {
		w, h int
		want Extent
	}{
		{800, 600, Extent{800, 600}},
		{50, 600, Extent{100, 600}},
		{3000, 5000, Extent{2000, 1000}},
		{-1, 0, Extent{100, 100}},
	}
	for _, c := range cases {
		if got := ChooseExtent(caps, c.w, c.h); got != c.want {
			t.Errorf("ChooseExtent(%d, %d) = %+v, want %+v", c.w, c.h, got, c.want)
		}
	}

	caps.CurrentExtent = Extent{Width: 640, Height: 480}
	if got := ChooseExtent(caps, 800, 600); got != caps.CurrentExtent {
		t.Errorf("fixed extent ignored: %+v", got)
	}
}

func TestChooseImageCount(t *testing.T) {
	cases := []struct {
		min, max, want uint32
	}{
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
		{1, 2, 2},
	}
	for _, c := range cases {
		if got := ChooseImageCount(SurfaceCapabilities{MinImageCount: c.min, MaxImageCount: c.max}); got != c.want {
			t.Errorf("min %d max %d: got %d, want %d", c.min, c.max, got, c.want)
		}
	}
}

func newTestSwapchain(t *testing.T, drv *stubDriver, depth bool) *Swapchain {
	t.Helper()
	sc := NewSwapchain(drv, NewFactory(drv), stubWindow{800, 600}, nil)
	if err := sc.Create(depth); err != nil {
		t.Fatalf("create: %v", err)
	}
	return sc
}

func TestSwapchainCreateTransitionsImagesToPresent(t *testing.T) {
	drv := newStubDriver()
	sc := newTestSwapchain(t, drv, false)

	if sc.ImageCount() != 3 {
		t.Fatalf("images = %d", sc.ImageCount())
	}
	seen := map[ImageHandle]bool{}
	for _, b := range drv.barriers {
		if b.barrier.OldLayout == vk.ImageLayoutUndefined && b.barrier.NewLayout == vk.ImageLayoutPresentSrc {
			seen[b.image] = true
		}
	}
	for i := 0; i < sc.ImageCount(); i++ {
		if !seen[sc.Image(uint32(i))] {
			t.Errorf("image %d never moved to PRESENT", i)
		}
	}
	if sc.Depth() != nil {
		t.Error("depth image created without being requested")
	}
}

func TestSwapchainNeedsTwoImages(t *testing.T) {
	drv := newStubDriver()
	drv.support.Capabilities.MinImageCount = 0
	drv.support.Capabilities.MaxImageCount = 1

	sc := NewSwapchain(drv, NewFactory(drv), stubWindow{800, 600}, nil)
	if err := sc.Create(false); !IsFatal(err) {
		t.Fatalf("single image chain = %v, want fatal", err)
	}
	if len(drv.live) != 0 {
		t.Errorf("failed create leaked %v", drv.live)
	}
}

func TestSwapchainRecreateIsIdempotent(t *testing.T) {
	drv := newStubDriver()
	sc := newTestSwapchain(t, drv, true)

	if err := sc.Recreate(); err != nil {
		t.Fatal(err)
	}
	count, format, extent := sc.ImageCount(), sc.Format(), sc.Extent()
	live := len(drv.live)

	if err := sc.Recreate(); err != nil {
		t.Fatal(err)
	}
	if sc.ImageCount() != count || sc.Format() != format || sc.Extent() != extent {
		t.Errorf("second recreate changed state: %d %d %+v -> %d %d %+v",
			count, format, extent, sc.ImageCount(), sc.Format(), sc.Extent())
	}
	if len(drv.live) != live {
		t.Errorf("live handles %d -> %d across recreate", live, len(drv.live))
	}
	if sc.Depth() == nil {
		t.Error("depth policy lost on recreate")
	}
	if drv.liveCount("swapchain") != 1 {
		t.Errorf("live swapchains = %d", drv.liveCount("swapchain"))
	}

	sc.Destroy()
	if len(drv.live) != 0 {
		t.Errorf("destroy leaked %v", drv.live)
	}
}

func TestSwapchainRenderFinishedPerImage(t *testing.T) {
	drv := newStubDriver()
	drv.support.Capabilities.MinImageCount = 3
	drv.support.Capabilities.MaxImageCount = 0
	sc := newTestSwapchain(t, drv, false)

	if sc.ImageCount() != 4 {
		t.Fatalf("images = %d, want 4", sc.ImageCount())
	}
	seen := map[Semaphore]bool{}
	for i := 0; i < sc.ImageCount(); i++ {
		sem := sc.RenderFinished(uint32(i))
		if sem == 0 || seen[sem] {
			t.Errorf("image %d semaphore %d not distinct", i, sem)
		}
		seen[sem] = true
	}
}
