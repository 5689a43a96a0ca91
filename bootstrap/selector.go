package bootstrap

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Selection is the accelerator and queue families a device is created with.
// GraphicsQueueFamily supports graphics and presents to the surface it was
// selected for; TransferQueueFamily supports transfer. They may be equal.
type Selection struct {
	PhysicalDevice      PhysicalDevice
	Properties          *PhysicalDeviceProperties
	QueueFamilies       []QueueFamilyProperties
	GraphicsQueueFamily int
	TransferQueueFamily int
}

// QueueFamilyIndices returns the distinct queue families of the selection,
// graphics first.
func (s Selection) QueueFamilyIndices() []int {
	if s.GraphicsQueueFamily == s.TransferQueueFamily {
		return []int{s.GraphicsQueueFamily}
	}
	return []int{s.GraphicsQueueFamily, s.TransferQueueFamily}
}

// SelectAccelerator picks the last discrete GPU in enumeration order and
// the queue families on it to use with surface. It does not fall back to
// another accelerator if the chosen one lacks suitable queue families.
func SelectAccelerator(instance InstanceDriver, surface Surface) (Selection, error) {
	devices, err := instance.EnumeratePhysicalDevices()
	if err != nil {
		return Selection{}, newInitError(ErrNoSuitableAccelerator, "physical devices", errors.Wrap(err, "enumerate"))
	}
	if len(devices) == 0 {
		return Selection{}, newInitError(ErrNoSuitableAccelerator, "physical devices", errors.New("none exposed"))
	}

	var selection Selection
	for i, device := range devices {
		properties, err := device.Properties()
		if err != nil {
			return Selection{}, newInitError(ErrNoSuitableAccelerator, fmt.Sprintf("physical device %d", i), err)
		}
		if properties.Type == PhysicalDeviceTypeDiscreteGPU {
			selection.PhysicalDevice = device
			selection.Properties = properties
		}
	}
	if selection.PhysicalDevice == nil {
		return Selection{}, newInitError(ErrNoSuitableAccelerator, "physical devices", errors.New("no discrete GPU"))
	}

	selection.QueueFamilies = selection.PhysicalDevice.QueueFamilyProperties()
	graphics, transfer, err := selectQueueFamilies(selection.QueueFamilies, func(index int) (bool, error) {
		return selection.PhysicalDevice.SurfaceSupport(surface, index)
	})
	if err != nil {
		return Selection{}, newInitError(ErrNoSuitableAccelerator, selection.Properties.Name, err)
	}

	selection.GraphicsQueueFamily = graphics
	selection.TransferQueueFamily = transfer
	return selection, nil
}

// selectQueueFamilies returns the first family with queues, graphics
// support and presentation support, and a transfer family. A transfer-only
// family replaces any family that also does graphics, and a later
// transfer-only family replaces an earlier one; a family doing both is only
// kept when it was the first transfer family seen.
func selectQueueFamilies(families []QueueFamilyProperties, presentable func(index int) (bool, error)) (graphics, transfer int, err error) {
	graphics, transfer = -1, -1

	for _, family := range families {
		if family.QueueCount == 0 {
			continue
		}
		index := family.Index

		if graphics < 0 && family.Flags.Has(QueueGraphics) {
			supported, err := presentable(index)
			if err != nil {
				return -1, -1, errors.Wrapf(err, "surface support of queue family %d", index)
			}
			if supported {
				graphics = index
			}
		}

		if family.Flags.Has(QueueTransfer) {
			if transfer < 0 || !family.Flags.Has(QueueGraphics) {
				transfer = index
			}
		}
	}

	if graphics < 0 {
		return -1, -1, errors.New("no queue family supports graphics and presentation")
	}
	if transfer < 0 {
		return -1, -1, errors.New("no queue family supports transfer")
	}
	return graphics, transfer, nil
}
