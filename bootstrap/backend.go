// Package bootstrap acquires the handles every rendering stage depends on:
// an instance, a diagnostic channel, a window surface, a physical device
// with graphics and transfer queue families, and a logical device.
package bootstrap

import (
	"strings"

	"github.com/google/uuid"
)

// Well known layer and extension names.
const (
	ValidationLayer                 = "VK_LAYER_KHRONOS_validation"
	DebugUtilsExtension             = "VK_EXT_debug_utils"
	SwapchainExtension              = "VK_KHR_swapchain"
	PortabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	PortabilitySubsetExtension      = "VK_KHR_portability_subset"
)

// Driver is the global entry point of a graphics runtime.
type Driver interface {
	AvailableLayers() ([]string, error)
	AvailableExtensions() ([]string, error)
	CreateInstance(info InstanceCreateInfo) (InstanceDriver, error)
}

// InstanceDriver is a live runtime instance.
type InstanceDriver interface {
	CreateDebugMessenger(info DebugMessengerCreateInfo) (DebugMessenger, error)
	CreateSurface(window Window) (Surface, error)
	EnumeratePhysicalDevices() ([]PhysicalDevice, error)
	CreateDevice(physicalDevice PhysicalDevice, info DeviceCreateInfo) (DeviceDriver, error)
	DestroyInstance()
}

// PhysicalDevice is an accelerator exposed by an instance.
type PhysicalDevice interface {
	Properties() (*PhysicalDeviceProperties, error)
	QueueFamilyProperties() []QueueFamilyProperties
	AvailableExtensions() ([]string, error)
	SurfaceSupport(surface Surface, queueFamilyIndex int) (bool, error)
	SurfaceCapabilities(surface Surface) (*SurfaceCapabilities, error)
}

// DeviceDriver is a logical device.
type DeviceDriver interface {
	GetQueue(queueFamilyIndex, queueIndex int) Queue
	DestroyDevice()
}

// Queue is a submission queue borrowed from the DeviceDriver that returned
// it. It must not be used after that device is destroyed.
type Queue interface {
	FamilyIndex() int
}

// Surface is a presentable target wrapped around a platform window.
type Surface interface {
	Destroy()
}

// DebugMessenger is a registered diagnostic callback.
type DebugMessenger interface {
	Destroy()
}

// Window is the platform window a Surface is created from. It must stay
// valid for as long as the surface does.
type Window interface {
	// RequiredExtensions returns the instance extensions needed to create a
	// surface for this window.
	RequiredExtensions() []string
}

// InstanceCreateInfo is everything the runtime needs to create an instance.
// The name slices are only borrowed for the duration of CreateInstance.
type InstanceCreateInfo struct {
	Identity             ApplicationIdentity
	Layers               []string
	Extensions           []string
	EnumeratePortability bool

	// Debug, when non-nil, is chained into instance creation so that
	// messages raised while the instance is created and destroyed are
	// delivered too.
	Debug *DebugMessengerCreateInfo
}

// DebugMessengerCreateInfo selects which messages reach Callback.
type DebugMessengerCreateInfo struct {
	Severities Severity
	Types      MessageType
	// Callback may be called from any runtime thread. Its return value asks
	// the runtime to abort the call that raised the message.
	Callback func(severity Severity, msgType MessageType, message string) bool
}

// DeviceQueueCreateInfo requests queues from one queue family.
type DeviceQueueCreateInfo struct {
	QueueFamilyIndex int
	QueuePriorities  []float32
}

// DeviceCreateInfo is everything the runtime needs to create a logical device.
type DeviceCreateInfo struct {
	QueueCreateInfos []DeviceQueueCreateInfo
	Layers           []string
	Extensions       []string
}

// PhysicalDeviceType classifies an accelerator. Values match the runtime's.
type PhysicalDeviceType int

const (
	PhysicalDeviceTypeOther PhysicalDeviceType = iota
	PhysicalDeviceTypeIntegratedGPU
	PhysicalDeviceTypeDiscreteGPU
	PhysicalDeviceTypeVirtualGPU
	PhysicalDeviceTypeCPU
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeOther:
		return "other"
	case PhysicalDeviceTypeIntegratedGPU:
		return "integrated"
	case PhysicalDeviceTypeDiscreteGPU:
		return "discrete"
	case PhysicalDeviceTypeVirtualGPU:
		return "virtual"
	case PhysicalDeviceTypeCPU:
		return "cpu"
	}
	return "unknown"
}

// PhysicalDeviceProperties identifies an accelerator.
type PhysicalDeviceProperties struct {
	Name              string
	Type              PhysicalDeviceType
	APIVersion        Version
	DriverVersion     uint32
	VendorID          uint32
	DeviceID          uint32
	PipelineCacheUUID uuid.UUID
}

// QueueFlags is a queue family capability set. Bits match the runtime's.
type QueueFlags uint32

const (
	QueueGraphics      QueueFlags = 0x1
	QueueCompute       QueueFlags = 0x2
	QueueTransfer      QueueFlags = 0x4
	QueueSparseBinding QueueFlags = 0x8
)

// Has reports whether every bit of flags is set in f.
func (f QueueFlags) Has(flags QueueFlags) bool {
	return f&flags == flags
}

func (f QueueFlags) String() string {
	return flagString(uint32(f), []flagName{
		{uint32(QueueGraphics), "graphics"},
		{uint32(QueueCompute), "compute"},
		{uint32(QueueTransfer), "transfer"},
		{uint32(QueueSparseBinding), "sparse"},
	})
}

// QueueFamilyProperties is a snapshot of one queue family.
type QueueFamilyProperties struct {
	Index      int
	QueueCount int
	Flags      QueueFlags
}

// Extent is a two dimensional size in pixels.
type Extent struct {
	Width  int
	Height int
}

// SurfaceCapabilities is what an accelerator can present to a surface.
type SurfaceCapabilities struct {
	MinImageCount       int
	MaxImageCount       int
	CurrentExtent       Extent
	MinImageExtent      Extent
	MaxImageExtent      Extent
	MaxImageArrayLayers int
}

type flagName struct {
	bit  uint32
	name string
}

func flagString(value uint32, names []flagName) string {
	if value == 0 {
		return "none"
	}

	var parts []string
	for _, n := range names {
		if value&n.bit != 0 {
			parts = append(parts, n.name)
			value &^= n.bit
		}
	}
	if value != 0 {
		parts = append(parts, "unknown")
	}

	return strings.Join(parts, "|")
}
