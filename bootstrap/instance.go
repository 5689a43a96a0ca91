package bootstrap

import (
	"github.com/cockroachdb/errors"
)

// CreateInstance checks the requested layers and extensions against what
// driver advertises and creates an instance with debug chained in, so that
// diagnostics cover instance creation itself.
func CreateInstance(driver Driver, identity ApplicationIdentity, layers, extensions []string, debug *DebugMessengerCreateInfo) (InstanceDriver, error) {
	availableLayers, err := driver.AvailableLayers()
	if err != nil {
		return nil, newInitError(ErrRuntimeCreationFailed, "instance", errors.Wrap(err, "enumerate layers"))
	}
	for _, layer := range layers {
		if !contains(availableLayers, layer) {
			return nil, newInitError(ErrUnsupportedLayer, layer, nil)
		}
	}

	availableExtensions, err := driver.AvailableExtensions()
	if err != nil {
		return nil, newInitError(ErrRuntimeCreationFailed, "instance", errors.Wrap(err, "enumerate extensions"))
	}
	for _, ext := range extensions {
		if !contains(availableExtensions, ext) {
			return nil, newInitError(ErrUnsupportedExtension, ext, nil)
		}
	}

	info := InstanceCreateInfo{
		Identity:   identity,
		Layers:     layers,
		Extensions: extensions,
		Debug:      debug,
	}

	// Needed to see MoltenVK devices on macOS.
	if contains(availableExtensions, PortabilityEnumerationExtension) && !contains(extensions, PortabilityEnumerationExtension) {
		info.Extensions = append(append([]string(nil), extensions...), PortabilityEnumerationExtension)
		info.EnumeratePortability = true
	} else if contains(extensions, PortabilityEnumerationExtension) {
		info.EnumeratePortability = true
	}

	instance, err := driver.CreateInstance(info)
	if err != nil {
		return nil, classify(err, ErrRuntimeCreationFailed, "instance")
	}
	return instance, nil
}

// mergeNames appends every name of each list that is not already present,
// keeping first-seen order.
func mergeNames(lists ...[]string) []string {
	var merged []string
	for _, list := range lists {
		for _, name := range list {
			if !contains(merged, name) {
				merged = append(merged, name)
			}
		}
	}
	return merged
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
