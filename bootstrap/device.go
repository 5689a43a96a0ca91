package bootstrap

import (
	"github.com/cockroachdb/errors"
)

// DeviceContext owns a logical device and the queues retrieved from it.
type DeviceContext struct {
	Driver DeviceDriver

	// GraphicsQueue and TransferQueue are the same queue when the selection
	// uses a single family.
	GraphicsQueue Queue
	TransferQueue Queue
}

// CreateDevice creates a logical device on the selected accelerator with
// one queue from each distinct selected family. extensions are checked
// against what the accelerator advertises first.
func CreateDevice(instance InstanceDriver, selection Selection, extensions, layers []string) (*DeviceContext, error) {
	available, err := selection.PhysicalDevice.AvailableExtensions()
	if err != nil {
		return nil, newInitError(ErrDeviceCreationFailed, "device", errors.Wrap(err, "enumerate device extensions"))
	}
	for _, ext := range extensions {
		if !contains(available, ext) {
			return nil, newInitError(ErrDeviceCreationFailed, ext, errors.New("extension not supported by device"))
		}
	}

	// Devices that only implement a portable subset must say so.
	if contains(available, PortabilitySubsetExtension) {
		extensions = mergeNames(extensions, []string{PortabilitySubsetExtension})
	}

	var queueCreateInfos []DeviceQueueCreateInfo
	for _, family := range selection.QueueFamilyIndices() {
		queueCreateInfos = append(queueCreateInfos, DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	driver, err := instance.CreateDevice(selection.PhysicalDevice, DeviceCreateInfo{
		QueueCreateInfos: queueCreateInfos,
		Layers:           layers,
		Extensions:       extensions,
	})
	if err != nil {
		return nil, newInitError(ErrDeviceCreationFailed, "device", err)
	}

	device := &DeviceContext{Driver: driver}
	device.GraphicsQueue = driver.GetQueue(selection.GraphicsQueueFamily, 0)
	if selection.TransferQueueFamily == selection.GraphicsQueueFamily {
		device.TransferQueue = device.GraphicsQueue
	} else {
		device.TransferQueue = driver.GetQueue(selection.TransferQueueFamily, 0)
	}

	return device, nil
}

// Destroy destroys the device. Its queues become invalid.
func (d *DeviceContext) Destroy() {
	if d.Driver != nil {
		d.Driver.DestroyDevice()
		d.Driver = nil
		d.GraphicsQueue = nil
		d.TransferQueue = nil
	}
}
