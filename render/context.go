package render

//FramesInFlight is the size of the frame slot ring
const FramesInFlight = 2

//Context owns the device connection and the per slot command buffers for the process lifetime
type Context struct {
	drv      Driver
	info     DeviceInfo
	commands []CommandBuffer
}

//NewContext wraps an initialized driver and pre allocates one command buffer per frame slot
func NewContext(drv Driver) (*Context, error) {
	cmds, err := drv.AllocateCommandBuffers(FramesInFlight)
	if err != nil {
		return nil, fatal("allocate frame commands", err)
	}
	return &Context{drv: drv, info: drv.Info(), commands: cmds}, nil
}

func (c *Context) Driver() Driver {
	return c.drv
}

func (c *Context) Info() DeviceInfo {
	return c.info
}

func (c *Context) CommandBuffer(slot int) CommandBuffer {
	return c.commands[slot]
}

//Teardown releases the device. The device must already be idle.
func (c *Context) Teardown() {
	if c.drv == nil {
		return
	}
	c.drv.FreeCommandBuffers(c.commands)
	c.commands = nil
	c.drv.Destroy()
	c.drv = nil
}
