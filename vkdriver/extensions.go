package vkdriver

import (
	vk "github.com/goki/vulkan"
)

//nameSet tracks names the driver needs, names it would like, and names the platform offers.
//It serves instance extensions, device extensions and layers alike.
type nameSet struct {
	wanted   []string
	required []string
	actual   []string
}

func newNameSet(wanted, required, actual []string) *nameSet {
	return &nameSet{wanted: wanted, required: required, actual: actual}
}

func (s *nameSet) has(name string) bool {
	for _, a := range s.actual {
		if a == name {
			return true
		}
	}
	return false
}

//Missing lists the required names the platform does not offer
func (s *nameSet) Missing() []string {
	var missing []string
	for _, req := range s.required {
		if !s.has(req) {
			missing = append(missing, req)
		}
	}
	return missing
}

//Enabled is every required name plus the wanted names that are available, without duplicates
func (s *nameSet) Enabled() []string {
	seen := make(map[string]bool)
	var enabled []string
	for _, req := range s.required {
		if !seen[req] {
			seen[req] = true
			enabled = append(enabled, req)
		}
	}
	for _, want := range s.wanted {
		if !seen[want] && s.has(want) {
			seen[want] = true
			enabled = append(enabled, want)
		}
	}
	return enabled
}

//InstanceExtensions gets a list of instance extensions available on the platform
func InstanceExtensions() ([]string, error) {
	var count uint32
	if err := check("enumerate instance extensions", vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := check("enumerate instance extensions", vk.EnumerateInstanceExtensionProperties("", &count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

//DeviceExtensions gets a list of extensions available on the physical device
func DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := check("enumerate device extensions", vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := check("enumerate device extensions", vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

//ValidationLayers gets a list of layers available on the platform
func ValidationLayers() ([]string, error) {
	var count uint32
	if err := check("enumerate layers", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.LayerProperties, count)
	if err := check("enumerate layers", vk.EnumerateInstanceLayerProperties(&count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

//safeStrings null terminates names for the C side
func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}
