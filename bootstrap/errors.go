package bootstrap

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Failure kinds. Every error returned by this package satisfies errors.Is
// against exactly one of these.
var (
	ErrUnsupportedLayer      = errors.New("unsupported layer")
	ErrUnsupportedExtension  = errors.New("unsupported extension")
	ErrRuntimeCreationFailed = errors.New("runtime creation failed")
	ErrSurfaceCreationFailed = errors.New("surface creation failed")
	ErrNoSuitableAccelerator = errors.New("no suitable accelerator")
	ErrDeviceCreationFailed  = errors.New("device creation failed")
)

var kinds = []error{
	ErrUnsupportedLayer,
	ErrUnsupportedExtension,
	ErrRuntimeCreationFailed,
	ErrSurfaceCreationFailed,
	ErrNoSuitableAccelerator,
	ErrDeviceCreationFailed,
}

// InitError is a terminal bootstrap failure.
type InitError struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Resource names what failed: a layer or extension name, a physical
	// device, or the acquisition step.
	Resource string
	Err      error
}

func (e *InitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Resource, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Resource, e.Kind, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func (e *InitError) Is(target error) bool { return target == e.Kind }

func newInitError(kind error, resource string, cause error) error {
	return errors.WithStackDepth(&InitError{Kind: kind, Resource: resource, Err: cause}, 1)
}

// KindOf returns the failure kind of err, or nil if err did not come out of
// a bootstrap step.
func KindOf(err error) error {
	var initErr *InitError
	if errors.As(err, &initErr) {
		return initErr.Kind
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// ResourceOf returns the resource named by the InitError in err's chain.
func ResourceOf(err error) string {
	var initErr *InitError
	if errors.As(err, &initErr) {
		return initErr.Resource
	}
	return ""
}

// classify keeps a kind the backend already marked on err and falls back to
// kind otherwise.
func classify(err error, fallback error, resource string) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return newInitError(kind, resource, err)
		}
	}
	return newInitError(fallback, resource, err)
}
