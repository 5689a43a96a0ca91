package vkng

import (
	"github.com/blazer-engine/blazer/bootstrap"
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

var (
	_ bootstrap.InstanceDriver = (*Instance)(nil)
	_ bootstrap.PhysicalDevice = (*PhysicalDevice)(nil)
	_ bootstrap.DeviceDriver   = (*Device)(nil)
	_ bootstrap.Queue          = (*Queue)(nil)
	_ bootstrap.Surface        = (*Surface)(nil)
	_ bootstrap.DebugMessenger = (*DebugMessenger)(nil)
	_ bootstrap.Window         = (*Window)(nil)
)

// Instance is a live vkngwrapper instance.
type Instance struct {
	driver           core1_0.CoreInstanceDriver
	debugDriver      ext_debug_utils.ExtensionDriver
	surfaceExtension khr_surface.ExtensionDriver
}

// Driver returns the underlying instance driver for later rendering stages.
func (i *Instance) Driver() core1_0.CoreInstanceDriver { return i.driver }

func (i *Instance) CreateDebugMessenger(info bootstrap.DebugMessengerCreateInfo) (bootstrap.DebugMessenger, error) {
	if i.debugDriver == nil {
		return nil, errors.Mark(errors.Newf("%s not enabled", ext_debug_utils.ExtensionName), bootstrap.ErrUnsupportedExtension)
	}

	messenger, _, err := i.debugDriver.CreateDebugUtilsMessenger(nil, debugMessengerOptions(info))
	if err != nil {
		return nil, err
	}
	return &DebugMessenger{debugDriver: i.debugDriver, messenger: messenger}, nil
}

func (i *Instance) CreateSurface(window bootstrap.Window) (bootstrap.Surface, error) {
	w, ok := window.(*Window)
	if !ok || w.Window == nil {
		return nil, errors.Newf("unsupported window %T", window)
	}

	if i.surfaceExtension == nil {
		return nil, errors.Mark(errors.Newf("%s not enabled", khr_surface.ExtensionName), bootstrap.ErrUnsupportedExtension)
	}

	surface, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surfaceExtension, w.Window)
	if err != nil {
		return nil, err
	}
	return &Surface{surfaceExtension: i.surfaceExtension, surface: surface}, nil
}

func (i *Instance) EnumeratePhysicalDevices() ([]bootstrap.PhysicalDevice, error) {
	physicalDevices, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]bootstrap.PhysicalDevice, 0, len(physicalDevices))
	for _, device := range physicalDevices {
		devices = append(devices, &PhysicalDevice{instance: i, device: device})
	}
	return devices, nil
}

func (i *Instance) CreateDevice(physicalDevice bootstrap.PhysicalDevice, info bootstrap.DeviceCreateInfo) (bootstrap.DeviceDriver, error) {
	pd, ok := physicalDevice.(*PhysicalDevice)
	if !ok {
		return nil, errors.Newf("physical device %T does not belong to this instance", physicalDevice)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueInfo := range info.QueueCreateInfos {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueInfo.QueueFamilyIndex,
			QueuePriorities:  queueInfo.QueuePriorities,
		})
	}

	device, _, err := i.driver.CreateDevice(pd.device, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledLayerNames:     info.Layers,
		EnabledExtensionNames: info.Extensions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
	})
	if err != nil {
		return nil, err
	}

	deviceDriver, err := i.driver.BuildDeviceDriver(device)
	if err != nil {
		return nil, errors.Wrap(err, "build device driver")
	}
	return &Device{driver: deviceDriver}, nil
}

func (i *Instance) DestroyInstance() {
	i.driver.DestroyInstance(nil)
}

// PhysicalDevice is an accelerator enumerated from an Instance.
type PhysicalDevice struct {
	instance *Instance
	device   core1_0.PhysicalDevice
}

// Handle returns the underlying physical device.
func (p *PhysicalDevice) Handle() core1_0.PhysicalDevice { return p.device }

func (p *PhysicalDevice) Properties() (*bootstrap.PhysicalDeviceProperties, error) {
	properties, err := p.instance.driver.GetPhysicalDeviceProperties(p.device)
	if err != nil {
		return nil, err
	}

	apiVersion := common.Version(properties.APIVersion)
	return &bootstrap.PhysicalDeviceProperties{
		Name:              properties.DriverName,
		Type:              bootstrap.PhysicalDeviceType(properties.DriverType),
		APIVersion:        bootstrap.NewVersion(apiVersion.Major(), apiVersion.Minor(), apiVersion.Patch()),
		DriverVersion:     uint32(properties.DriverVersion),
		VendorID:          properties.VendorID,
		DeviceID:          properties.DeviceID,
		PipelineCacheUUID: properties.PipelineCacheUUID,
	}, nil
}

func (p *PhysicalDevice) QueueFamilyProperties() []bootstrap.QueueFamilyProperties {
	queueFamilies := p.instance.driver.GetPhysicalDeviceQueueFamilyProperties(p.device)

	families := make([]bootstrap.QueueFamilyProperties, 0, len(queueFamilies))
	for index, queueFamily := range queueFamilies {
		families = append(families, bootstrap.QueueFamilyProperties{
			Index:      index,
			QueueCount: int(queueFamily.QueueCount),
			Flags:      bootstrap.QueueFlags(queueFamily.QueueFlags),
		})
	}
	return families
}

func (p *PhysicalDevice) AvailableExtensions() ([]string, error) {
	extensions, _, err := p.instance.driver.EnumerateDeviceExtensionProperties(p.device)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	return names, nil
}

func (p *PhysicalDevice) SurfaceSupport(surface bootstrap.Surface, queueFamilyIndex int) (bool, error) {
	s, ok := surface.(*Surface)
	if !ok {
		return false, errors.Newf("unsupported surface %T", surface)
	}

	supported, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceSupport(s.surface, p.device, queueFamilyIndex)
	return supported, err
}

func (p *PhysicalDevice) SurfaceCapabilities(surface bootstrap.Surface) (*bootstrap.SurfaceCapabilities, error) {
	s, ok := surface.(*Surface)
	if !ok {
		return nil, errors.Newf("unsupported surface %T", surface)
	}

	capabilities, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(s.surface, p.device)
	if err != nil {
		return nil, err
	}

	return &bootstrap.SurfaceCapabilities{
		MinImageCount:       int(capabilities.MinImageCount),
		MaxImageCount:       int(capabilities.MaxImageCount),
		CurrentExtent:       extent(capabilities.CurrentExtent),
		MinImageExtent:      extent(capabilities.MinImageExtent),
		MaxImageExtent:      extent(capabilities.MaxImageExtent),
		MaxImageArrayLayers: int(capabilities.MaxImageArrayLayers),
	}, nil
}

func extent(e core1_0.Extent2D) bootstrap.Extent {
	return bootstrap.Extent{Width: int(e.Width), Height: int(e.Height)}
}

// Device is a logical device.
type Device struct {
	driver core1_0.CoreDeviceDriver
}

// Driver returns the underlying device driver for later rendering stages.
func (d *Device) Driver() core1_0.CoreDeviceDriver { return d.driver }

func (d *Device) GetQueue(queueFamilyIndex, queueIndex int) bootstrap.Queue {
	return &Queue{queue: d.driver.GetQueue(queueFamilyIndex, queueIndex), family: queueFamilyIndex}
}

func (d *Device) DestroyDevice() {
	d.driver.DestroyDevice(nil)
}

// Queue is a queue retrieved from a Device.
type Queue struct {
	queue  core1_0.Queue
	family int
}

// Handle returns the underlying queue.
func (q *Queue) Handle() core1_0.Queue { return q.queue }

func (q *Queue) FamilyIndex() int { return q.family }

// Surface is a khr_surface surface.
type Surface struct {
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface
}

// Handle returns the underlying surface.
func (s *Surface) Handle() khr_surface.Surface { return s.surface }

func (s *Surface) Destroy() {
	if s.surface.Initialized() {
		s.surfaceExtension.DestroySurface(s.surface, nil)
		s.surface = khr_surface.Surface{}
	}
}

// DebugMessenger is a registered debug utils messenger.
type DebugMessenger struct {
	debugDriver ext_debug_utils.ExtensionDriver
	messenger   ext_debug_utils.DebugUtilsMessenger
}

func (m *DebugMessenger) Destroy() {
	if m.messenger.Initialized() {
		m.debugDriver.DestroyDebugUtilsMessenger(m.messenger, nil)
		m.messenger = ext_debug_utils.DebugUtilsMessenger{}
	}
}

// Window is an SDL window created with sdl.WINDOW_VULKAN.
type Window struct {
	*sdl.Window
}

func NewWindow(window *sdl.Window) *Window {
	return &Window{Window: window}
}

func (w *Window) RequiredExtensions() []string {
	return w.VulkanGetInstanceExtensions()
}
