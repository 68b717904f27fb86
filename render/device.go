package render

import (
	"strings"

	"github.com/pkg/errors"
)

var RequiredDeviceExtensions = []string{
	"VK_KHR_swapchain",
	"VK_EXT_descriptor_indexing",
}

type DeviceFeatures struct {
	SamplerAnisotropy  bool
	NonUniformIndexing bool
	DynamicRendering   bool
	Synchronization2   bool
}

//DeviceCandidate is everything device qualification looks at. Families are -1 when absent.
type DeviceCandidate struct {
	Name           string
	GraphicsFamily int
	PresentFamily  int
	Extensions     []string
	Features       DeviceFeatures
	SurfaceFormats int
	PresentModes   int
}

//QualifyDevice returns nil when the candidate can run the renderer
func QualifyDevice(c DeviceCandidate) error {
	if c.GraphicsFamily < 0 {
		return errors.Wrapf(ErrNoSuitableDevice, "%s: no graphics queue family", c.Name)
	}
	if c.PresentFamily < 0 {
		return errors.Wrapf(ErrNoSuitableDevice, "%s: no present queue family", c.Name)
	}
	if missing := missingStrings(c.Extensions, RequiredDeviceExtensions); len(missing) > 0 {
		return errors.Wrapf(ErrMissingExtension, "%s: %s", c.Name, strings.Join(missing, ", "))
	}
	var absent []string
	if !c.Features.SamplerAnisotropy {
		absent = append(absent, "samplerAnisotropy")
	}
	if !c.Features.NonUniformIndexing {
		absent = append(absent, "shaderSampledImageArrayNonUniformIndexing")
	}
	if !c.Features.DynamicRendering {
		absent = append(absent, "dynamicRendering")
	}
	if !c.Features.Synchronization2 {
		absent = append(absent, "synchronization2")
	}
	if len(absent) > 0 {
		return errors.Wrapf(ErrMissingFeature, "%s: %s", c.Name, strings.Join(absent, ", "))
	}
	if c.SurfaceFormats == 0 || c.PresentModes == 0 {
		return errors.Wrapf(ErrNoSuitableDevice, "%s: surface reports %d formats and %d present modes",
			c.Name, c.SurfaceFormats, c.PresentModes)
	}
	return nil
}

//SelectDevice returns the index of the first qualifying candidate. No ranking is done.
func SelectDevice(candidates []DeviceCandidate) (int, error) {
	var last error = ErrNoSuitableDevice
	for i, c := range candidates {
		err := QualifyDevice(c)
		if err == nil {
			return i, nil
		}
		last = err
	}
	return -1, fatal("select device", errors.Wrapf(last, "%d devices checked", len(candidates)))
}

//missingStrings lists the required entries absent from have
func missingStrings(have, required []string) []string {
	var missing []string
	for _, req := range required {
		found := false
		for _, h := range have {
			if h == req {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	return missing
}

//MissingLayers lists requested layers the platform does not provide
func MissingLayers(available, requested []string) []string {
	return missingStrings(available, requested)
}
