package bootstrap

import "github.com/cockroachdb/errors"

// CreateSurface wraps window into a surface owned by instance. The surface
// must be destroyed before the instance.
func CreateSurface(instance InstanceDriver, window Window) (Surface, error) {
	if window == nil {
		return nil, newInitError(ErrSurfaceCreationFailed, "surface", errors.New("no window"))
	}

	surface, err := instance.CreateSurface(window)
	if err != nil {
		return nil, classify(err, ErrSurfaceCreationFailed, "surface")
	}
	return surface, nil
}
