// Package bootstraptest provides an in-memory bootstrap backend that
// records every call made to it.
package bootstraptest

import (
	"sync"

	"github.com/blazer-engine/blazer/bootstrap"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Calls recorded by Driver.
const (
	CreateInstance   = "create instance"
	DestroyInstance  = "destroy instance"
	CreateMessenger  = "create messenger"
	DestroyMessenger = "destroy messenger"
	CreateSurface    = "create surface"
	DestroySurface   = "destroy surface"
	CreateDevice     = "create device"
	DestroyDevice    = "destroy device"
)

// Driver is a fake runtime. The Fail* fields make the matching call fail.
type Driver struct {
	Layers     []string
	Extensions []string
	Devices    []*PhysicalDevice

	FailInstance  error
	FailMessenger error
	FailSurface   error
	FailDevice    error
	FailEnumerate error

	mu       sync.Mutex
	calls    []string
	instance *Instance
}

// NewDriver returns a driver advertising the validation layer, the debug
// utils extension and the surface extensions Window asks for.
func NewDriver(devices ...*PhysicalDevice) *Driver {
	return &Driver{
		Layers:     []string{bootstrap.ValidationLayer},
		Extensions: append([]string{bootstrap.DebugUtilsExtension}, WindowExtensions...),
		Devices:    devices,
	}
}

func (d *Driver) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

// Calls returns every create and destroy call made so far, in order.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Instance returns the last instance created.
func (d *Driver) Instance() *Instance {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.instance
}

func (d *Driver) AvailableLayers() ([]string, error) {
	return d.Layers, nil
}

func (d *Driver) AvailableExtensions() ([]string, error) {
	return d.Extensions, nil
}

func (d *Driver) CreateInstance(info bootstrap.InstanceCreateInfo) (bootstrap.InstanceDriver, error) {
	if d.FailInstance != nil {
		return nil, d.FailInstance
	}
	d.record(CreateInstance)

	instance := &Instance{
		driver: d,
		Info:   info,
	}
	// Layers and extensions are only borrowed for the call.
	instance.Info.Layers = append([]string(nil), info.Layers...)
	instance.Info.Extensions = append([]string(nil), info.Extensions...)

	d.mu.Lock()
	d.instance = instance
	d.mu.Unlock()
	return instance, nil
}

// Instance is a fake instance.
type Instance struct {
	driver *Driver

	// Info is a copy of what the instance was created with.
	Info bootstrap.InstanceCreateInfo

	mu         sync.Mutex
	messengers []*DebugMessenger
	destroyed  bool
}

// Emit delivers a message to every live messenger and to the messenger
// chained into instance creation, like a runtime raising a diagnostic.
func (i *Instance) Emit(severity bootstrap.Severity, msgType bootstrap.MessageType, message string) {
	i.mu.Lock()
	messengers := append([]*DebugMessenger(nil), i.messengers...)
	i.mu.Unlock()

	if len(messengers) == 0 && i.Info.Debug != nil {
		deliver(*i.Info.Debug, severity, msgType, message)
		return
	}
	for _, m := range messengers {
		if !m.destroyed {
			deliver(m.info, severity, msgType, message)
		}
	}
}

func deliver(info bootstrap.DebugMessengerCreateInfo, severity bootstrap.Severity, msgType bootstrap.MessageType, message string) {
	if info.Severities&severity == 0 || info.Types&msgType == 0 {
		return
	}
	info.Callback(severity, msgType, message)
}

func (i *Instance) CreateDebugMessenger(info bootstrap.DebugMessengerCreateInfo) (bootstrap.DebugMessenger, error) {
	if i.driver.FailMessenger != nil {
		return nil, i.driver.FailMessenger
	}
	i.driver.record(CreateMessenger)

	m := &DebugMessenger{instance: i, info: info}
	i.mu.Lock()
	i.messengers = append(i.messengers, m)
	i.mu.Unlock()
	return m, nil
}

func (i *Instance) CreateSurface(window bootstrap.Window) (bootstrap.Surface, error) {
	if i.driver.FailSurface != nil {
		return nil, i.driver.FailSurface
	}
	if _, ok := window.(*Window); !ok {
		return nil, errors.Newf("unsupported window %T", window)
	}
	i.driver.record(CreateSurface)
	return &Surface{driver: i.driver}, nil
}

func (i *Instance) EnumeratePhysicalDevices() ([]bootstrap.PhysicalDevice, error) {
	if i.driver.FailEnumerate != nil {
		return nil, i.driver.FailEnumerate
	}

	devices := make([]bootstrap.PhysicalDevice, 0, len(i.driver.Devices))
	for _, device := range i.driver.Devices {
		devices = append(devices, device)
	}
	return devices, nil
}

func (i *Instance) CreateDevice(physicalDevice bootstrap.PhysicalDevice, info bootstrap.DeviceCreateInfo) (bootstrap.DeviceDriver, error) {
	if i.driver.FailDevice != nil {
		return nil, i.driver.FailDevice
	}

	pd, ok := physicalDevice.(*PhysicalDevice)
	if !ok {
		return nil, errors.Newf("unknown physical device %T", physicalDevice)
	}
	for _, queueInfo := range info.QueueCreateInfos {
		if queueInfo.QueueFamilyIndex < 0 || queueInfo.QueueFamilyIndex >= len(pd.Families) {
			return nil, errors.Newf("invalid queue family %d", queueInfo.QueueFamilyIndex)
		}
	}
	i.driver.record(CreateDevice)

	pd.Created = append(pd.Created, info)
	return &Device{driver: i.driver, PhysicalDevice: pd, Info: info}, nil
}

func (i *Instance) DestroyInstance() {
	i.driver.record(DestroyInstance)
	i.destroyed = true
}

// Destroyed reports whether DestroyInstance was called.
func (i *Instance) Destroyed() bool { return i.destroyed }

// DebugMessenger is a fake registered messenger.
type DebugMessenger struct {
	instance  *Instance
	info      bootstrap.DebugMessengerCreateInfo
	destroyed bool
}

func (m *DebugMessenger) Destroy() {
	m.instance.driver.record(DestroyMessenger)
	m.instance.mu.Lock()
	m.destroyed = true
	m.instance.mu.Unlock()
}

// Surface is a fake surface.
type Surface struct {
	driver *Driver
}

func (s *Surface) Destroy() {
	s.driver.record(DestroySurface)
}

// Device is a fake logical device.
type Device struct {
	driver *Driver

	PhysicalDevice *PhysicalDevice
	Info           bootstrap.DeviceCreateInfo
}

func (d *Device) GetQueue(queueFamilyIndex, queueIndex int) bootstrap.Queue {
	return &Queue{Family: queueFamilyIndex, Index: queueIndex}
}

func (d *Device) DestroyDevice() {
	d.driver.record(DestroyDevice)
}

// Queue is a fake queue.
type Queue struct {
	Family int
	Index  int
}

func (q *Queue) FamilyIndex() int { return q.Family }

// WindowExtensions are the instance extensions Window requires.
var WindowExtensions = []string{"VK_KHR_surface", "VK_KHR_xlib_surface"}

// Window is a fake platform window.
type Window struct{}

func (w *Window) RequiredExtensions() []string { return WindowExtensions }

// Family describes a queue family for NewPhysicalDevice.
type Family struct {
	Flags   bootstrap.QueueFlags
	Count   int
	Present bool
}

// PhysicalDevice is a fake accelerator.
type PhysicalDevice struct {
	Props        bootstrap.PhysicalDeviceProperties
	Families     []bootstrap.QueueFamilyProperties
	Present      []bool
	Extensions   []string
	Capabilities bootstrap.SurfaceCapabilities

	FailProperties error
	FailSupport    error

	// SupportQueries records the queue families presentation was queried for.
	SupportQueries []int
	// Created records the create info of every device made from it.
	Created []bootstrap.DeviceCreateInfo
}

// NewPhysicalDevice returns a device of the given type supporting the
// swapchain extension. A Family with a zero Count gets one queue.
func NewPhysicalDevice(name string, deviceType bootstrap.PhysicalDeviceType, families ...Family) *PhysicalDevice {
	pd := &PhysicalDevice{
		Props: bootstrap.PhysicalDeviceProperties{
			Name:              name,
			Type:              deviceType,
			APIVersion:        bootstrap.NewVersion(1, 3, 0),
			PipelineCacheUUID: uuid.New(),
		},
		Extensions: []string{bootstrap.SwapchainExtension},
		Capabilities: bootstrap.SurfaceCapabilities{
			MinImageCount:       2,
			MaxImageCount:       8,
			CurrentExtent:       bootstrap.Extent{Width: 800, Height: 600},
			MinImageExtent:      bootstrap.Extent{Width: 1, Height: 1},
			MaxImageExtent:      bootstrap.Extent{Width: 4096, Height: 4096},
			MaxImageArrayLayers: 1,
		},
	}

	for index, family := range families {
		count := family.Count
		if count == 0 {
			count = 1
		}
		pd.Families = append(pd.Families, bootstrap.QueueFamilyProperties{
			Index:      index,
			QueueCount: count,
			Flags:      family.Flags,
		})
		pd.Present = append(pd.Present, family.Present)
	}
	return pd
}

func (p *PhysicalDevice) Properties() (*bootstrap.PhysicalDeviceProperties, error) {
	if p.FailProperties != nil {
		return nil, p.FailProperties
	}
	props := p.Props
	return &props, nil
}

func (p *PhysicalDevice) QueueFamilyProperties() []bootstrap.QueueFamilyProperties {
	return append([]bootstrap.QueueFamilyProperties(nil), p.Families...)
}

func (p *PhysicalDevice) AvailableExtensions() ([]string, error) {
	return p.Extensions, nil
}

func (p *PhysicalDevice) SurfaceSupport(surface bootstrap.Surface, queueFamilyIndex int) (bool, error) {
	if p.FailSupport != nil {
		return false, p.FailSupport
	}
	p.SupportQueries = append(p.SupportQueries, queueFamilyIndex)
	return queueFamilyIndex < len(p.Present) && p.Present[queueFamilyIndex], nil
}

func (p *PhysicalDevice) SurfaceCapabilities(surface bootstrap.Surface) (*bootstrap.SurfaceCapabilities, error) {
	capabilities := p.Capabilities
	return &capabilities, nil
}
