//Package display owns the glfw window: creation, the Vulkan surface, input and fullscreen switching
package display

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

func init() {
	//glfw calls must come from the main thread
	runtime.LockOSThread()
}

//Events is what happened since the previous Poll
type Events struct {
	Quit    bool
	Resized bool
}

//Display is a resizable window without a client API, Vulkan renders into it through a surface
type Display struct {
	window     *glfw.Window
	fullscreen bool
	windowed   [4]int
	events     Events
}

//Open initializes glfw and the Vulkan loader and creates a hidden window of the given size. The
//window may not shrink below half that size.
func Open(title string, width, height int) (*Display, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: no Vulkan loader found")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "vulkan loader init")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}
	window.SetSizeLimits(width/2, height/2, glfw.DontCare, glfw.DontCare)

	d := &Display{window: window}
	window.SetKeyCallback(d.onKey)
	window.SetFramebufferSizeCallback(d.onFramebufferSize)
	return d, nil
}

//command is what a key press asks the display to do
type command int

const (
	commandNone command = iota
	commandQuit
	commandFullscreen
)

func keyCommand(key glfw.Key, action glfw.Action) command {
	if action != glfw.Press {
		return commandNone
	}
	switch key {
	case glfw.KeyEscape, glfw.KeyQ:
		return commandQuit
	case glfw.KeyF11:
		return commandFullscreen
	}
	return commandNone
}

func (d *Display) onKey(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	switch keyCommand(key, action) {
	case commandQuit:
		d.events.Quit = true
	case commandFullscreen:
		d.ToggleFullscreen()
	}
}

func (d *Display) onFramebufferSize(w *glfw.Window, width, height int) {
	d.events.Resized = true
}

//ToggleFullscreen switches between the primary monitor and the last windowed placement
func (d *Display) ToggleFullscreen() {
	if d.fullscreen {
		x, y, w, h := d.windowed[0], d.windowed[1], d.windowed[2], d.windowed[3]
		d.window.SetMonitor(nil, x, y, w, h, 0)
		d.fullscreen = false
	} else {
		monitor := glfw.GetPrimaryMonitor()
		if monitor == nil {
			return
		}
		d.windowed[0], d.windowed[1] = d.window.GetPos()
		d.windowed[2], d.windowed[3] = d.window.GetSize()
		mode := monitor.GetVideoMode()
		d.window.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
		d.fullscreen = true
	}
	d.events.Resized = true
}

func (d *Display) Show() {
	d.window.Show()
}

//Poll processes pending window events and returns what happened since the last call
func (d *Display) Poll() Events {
	glfw.PollEvents()
	if d.window.ShouldClose() {
		d.events.Quit = true
	}
	ev := d.events
	d.events = Events{Quit: ev.Quit}
	return ev
}

//FramebufferSize is the drawable size in pixels
func (d *Display) FramebufferSize() (int, int) {
	return d.window.GetFramebufferSize()
}

func (d *Display) RequiredInstanceExtensions() []string {
	return d.window.GetRequiredInstanceExtensions()
}

func (d *Display) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := d.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "create window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

//Time is seconds since glfw was initialized
func (d *Display) Time() float64 {
	return glfw.GetTime()
}

func (d *Display) Close() {
	if d.window != nil {
		d.window.Destroy()
		d.window = nil
	}
	glfw.Terminate()
}
