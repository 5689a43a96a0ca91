// Package vkng implements the bootstrap backend with vkngwrapper.
package vkng

import (
	"unsafe"

	"github.com/blazer-engine/blazer/bootstrap"
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

var _ bootstrap.Driver = (*Driver)(nil)

// Driver is the global vkngwrapper driver.
type Driver struct {
	global core1_0.GlobalDriver
}

// NewDriver loads the runtime through a vkGetInstanceProcAddr pointer.
func NewDriver(procAddr unsafe.Pointer) (*Driver, error) {
	global, err := core.CreateDriverFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}
	return &Driver{global: global}, nil
}

// NewSDLDriver loads the runtime SDL loaded for its Vulkan windows.
func NewSDLDriver() (*Driver, error) {
	return NewDriver(sdl.VulkanGetVkGetInstanceProcAddr())
}

func (d *Driver) AvailableLayers() ([]string, error) {
	layers, _, err := d.global.AvailableLayers()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	return names, nil
}

func (d *Driver) AvailableExtensions() ([]string, error) {
	extensions, _, err := d.global.AvailableExtensions()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	return names, nil
}

func (d *Driver) CreateInstance(info bootstrap.InstanceCreateInfo) (bootstrap.InstanceDriver, error) {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:       info.Identity.Name,
		ApplicationVersion:    version(info.Identity.Version),
		EngineName:            info.Identity.EngineName,
		EngineVersion:         version(info.Identity.EngineVersion),
		APIVersion:            common.APIVersion(version(info.Identity.APIVersion)),
		EnabledLayerNames:     info.Layers,
		EnabledExtensionNames: info.Extensions,
	}

	if info.EnumeratePortability {
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if info.Debug != nil {
		instanceOptions.Next = debugMessengerOptions(*info.Debug)
	}

	instance, result, err := d.global.CreateInstance(nil, instanceOptions)
	if err != nil {
		switch result {
		case core1_0.VKErrorLayerNotPresent:
			return nil, errors.Mark(err, bootstrap.ErrUnsupportedLayer)
		case core1_0.VKErrorExtensionNotPresent:
			return nil, errors.Mark(err, bootstrap.ErrUnsupportedExtension)
		}
		return nil, err
	}

	instanceDriver, err := d.global.BuildInstanceDriver(instance)
	if err != nil {
		return nil, errors.Wrap(err, "build instance driver")
	}
	return newInstance(instanceDriver), nil
}

// Extension drivers are only loaded for extensions the instance enabled.
func newInstance(instanceDriver core1_0.CoreInstanceDriver) *Instance {
	i := &Instance{driver: instanceDriver}

	enabled := instanceDriver.Instance()
	if enabled.IsInstanceExtensionActive(ext_debug_utils.ExtensionName) {
		i.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(instanceDriver)
	}
	if enabled.IsInstanceExtensionActive(khr_surface.ExtensionName) {
		i.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(instanceDriver)
	}
	return i
}

func version(v bootstrap.Version) common.Version {
	return common.CreateVersion(v.Major, v.Minor, v.Patch)
}

// The debug utils severity and type bits are the ones bootstrap uses.
func debugMessengerOptions(info bootstrap.DebugMessengerCreateInfo) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.DebugUtilsMessageSeverityFlags(info.Severities),
		MessageType:     ext_debug_utils.DebugUtilsMessageTypeFlags(info.Types),
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			var message string
			if data != nil {
				message = data.Message
			}
			return info.Callback(bootstrap.Severity(severity), bootstrap.MessageType(msgType), message)
		},
	}
}
