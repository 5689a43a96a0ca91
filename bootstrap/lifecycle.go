package bootstrap

import (
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
)

// State is a step of the bootstrap sequence.
type State int

const (
	Uninitialized State = iota
	InstanceReady
	ChannelRegistered
	SurfaceReady
	AcceleratorSelected
	DeviceReady
	TearingDown
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case InstanceReady:
		return "instance ready"
	case ChannelRegistered:
		return "channel registered"
	case SurfaceReady:
		return "surface ready"
	case AcceleratorSelected:
		return "accelerator selected"
	case DeviceReady:
		return "device ready"
	case TearingDown:
		return "tearing down"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

type release struct {
	name string
	fn   func()
}

// Context owns everything the bootstrap sequence acquires. Resources are
// released in reverse acquisition order, whether Init fails part way or
// Destroy is called after a successful Init. The device is the one
// exception: it is released after the surface it presents to.
type Context struct {
	Config Config
	Driver Driver
	Sink   Sink
	Logger logrus.FieldLogger

	Instance  InstanceDriver
	Channel   *DiagnosticChannel
	Surface   Surface
	Selection Selection
	Device    *DeviceContext

	state    State
	releases []release
}

// Bootstrap runs the full sequence against window. On failure everything
// acquired so far has already been released.
func Bootstrap(driver Driver, window Window, cfg Config, sink Sink, logger logrus.FieldLogger) (*Context, error) {
	c := &Context{
		Config: cfg,
		Driver: driver,
		Sink:   sink,
		Logger: logger,
	}
	if err := c.Init(window); err != nil {
		return nil, err
	}
	return c, nil
}

// State returns the current step of the sequence.
func (c *Context) State() State { return c.state }

// Init runs Uninitialized through DeviceReady. It can only run once.
func (c *Context) Init(window Window) error {
	if c.state != Uninitialized {
		return errors.Newf("init: context is %s", c.state)
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}

	steps := []struct {
		name string
		next State
		fn   func(Window) error
	}{
		{"create instance", InstanceReady, c.createInstance},
		{"register diagnostic channel", ChannelRegistered, c.registerChannel},
		{"create surface", SurfaceReady, c.createSurface},
		{"select accelerator", AcceleratorSelected, c.selectAccelerator},
		{"create device", DeviceReady, c.createDevice},
	}

	for _, step := range steps {
		start := hrtime.Now()
		if err := step.fn(window); err != nil {
			c.Logger.WithError(err).WithField("step", step.name).Debug("bootstrap step failed")
			c.Destroy()
			return err
		}
		c.state = step.next
		c.Logger.WithFields(logrus.Fields{
			"step":    step.name,
			"elapsed": hrtime.Since(start),
		}).Debug("bootstrap step done")
	}

	return nil
}

func (c *Context) acquired(name string, fn func()) {
	c.releases = append(c.releases, release{name: name, fn: fn})
}

// acquiredBelowTop records a release that runs after the most recent one.
func (c *Context) acquiredBelowTop(name string, fn func()) {
	n := len(c.releases)
	if n == 0 {
		c.acquired(name, fn)
		return
	}
	c.releases = append(c.releases, c.releases[n-1])
	c.releases[n-1] = release{name: name, fn: fn}
}

func (c *Context) createInstance(window Window) error {
	c.Channel = newDiagnosticChannel(c.Config.DebugSeverities, c.Config.DebugTypes, c.Sink)
	debug := c.Channel.CreateInfo()

	var windowExtensions []string
	if window != nil {
		windowExtensions = window.RequiredExtensions()
	}
	extensions := mergeNames(windowExtensions, c.Config.InstanceExtensions, []string{DebugUtilsExtension})

	instance, err := CreateInstance(c.Driver, c.Config.Identity, c.Config.Layers, extensions, &debug)
	if err != nil {
		return err
	}

	c.Instance = instance
	c.acquired("destroy instance", func() {
		c.Instance.DestroyInstance()
		c.Instance = nil
	})
	return nil
}

func (c *Context) registerChannel(Window) error {
	if err := c.Channel.register(c.Instance); err != nil {
		return err
	}

	c.acquired("unregister diagnostic channel", c.Channel.Unregister)
	return nil
}

func (c *Context) createSurface(window Window) error {
	surface, err := CreateSurface(c.Instance, window)
	if err != nil {
		return err
	}

	c.Surface = surface
	c.acquired("destroy surface", func() {
		c.Surface.Destroy()
		c.Surface = nil
	})
	return nil
}

func (c *Context) selectAccelerator(Window) error {
	selection, err := SelectAccelerator(c.Instance, c.Surface)
	if err != nil {
		return err
	}
	c.Selection = selection

	for _, family := range selection.QueueFamilies {
		c.Logger.WithFields(logrus.Fields{
			"index": family.Index,
			"count": family.QueueCount,
			"flags": family.Flags,
		}).Debug("queue family")
	}
	c.Logger.WithFields(logrus.Fields{
		"device":   selection.Properties.Name,
		"type":     selection.Properties.Type,
		"api":      selection.Properties.APIVersion,
		"cache":    selection.Properties.PipelineCacheUUID,
		"graphics": selection.GraphicsQueueFamily,
		"transfer": selection.TransferQueueFamily,
	}).Info("selected accelerator")

	return nil
}

func (c *Context) createDevice(Window) error {
	device, err := CreateDevice(c.Instance, c.Selection, c.Config.DeviceExtensions, c.Config.Layers)
	if err != nil {
		return err
	}

	c.Device = device
	// The surface is released before the device.
	c.acquiredBelowTop("destroy device", c.Device.Destroy)
	return nil
}

// SurfaceCapabilities queries what the selected accelerator can present to
// the surface. It is only valid in DeviceReady.
func (c *Context) SurfaceCapabilities() (*SurfaceCapabilities, error) {
	if c.state != DeviceReady {
		return nil, errors.Newf("surface capabilities: context is %s", c.state)
	}

	capabilities, err := c.Selection.PhysicalDevice.SurfaceCapabilities(c.Surface)
	if err != nil {
		return nil, errors.Wrap(err, "surface capabilities")
	}
	return capabilities, nil
}

// Destroy releases the surface, device, diagnostic channel and instance, in
// that order. Calling it again has no effect.
func (c *Context) Destroy() {
	if c.state == Destroyed {
		return
	}
	c.state = TearingDown
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}

	for i := len(c.releases) - 1; i >= 0; i-- {
		r := c.releases[i]
		c.Logger.WithField("step", r.name).Debug("releasing")
		r.fn()
	}
	c.releases = nil
	c.Device = nil
	c.Channel = nil

	c.state = Destroyed
}
