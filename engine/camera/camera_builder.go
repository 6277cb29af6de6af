package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option for configuring a Camera via NewCamera.
type CameraBuilderOption func(*orbitCamera)

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: the orbit radius
//
// Returns:
//   - CameraBuilderOption: a function that sets the radius
func WithRadius(radius float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis in radians.
//
// Parameters:
//   - azimuth: the azimuth
//
// Returns:
//   - CameraBuilderOption: a function that sets the azimuth
func WithAzimuth(azimuth float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.azimuth = azimuth
	}
}

// WithElevation sets the initial angle above the horizontal plane in radians.
//
// Parameters:
//   - elevation: the elevation
//
// Returns:
//   - CameraBuilderOption: a function that sets the elevation
func WithElevation(elevation float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.elevation = elevation
	}
}

// WithTarget sets the point the camera orbits.
//
// Parameters:
//   - x, y, z: the target position
//
// Returns:
//   - CameraBuilderOption: a function that sets the target
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.target = mgl32.Vec3{x, y, z}
	}
}

// WithRadiusBounds constrains the orbit radius.
//
// Parameters:
//   - min: the smallest radius
//   - max: the largest radius
//
// Returns:
//   - CameraBuilderOption: a function that sets the bounds
func WithRadiusBounds(min, max float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.minRadius = min
		c.maxRadius = max
	}
}

// WithOrbitSpeed sets the angle in radians of one orbit step.
//
// Parameters:
//   - speed: the step
//
// Returns:
//   - CameraBuilderOption: a function that sets the orbit speed
func WithOrbitSpeed(speed float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the distance moved per unit of Zoom delta.
//
// Parameters:
//   - speed: the zoom speed
//
// Returns:
//   - CameraBuilderOption: a function that sets the zoom speed
func WithZoomSpeed(speed float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.zoomSpeed = speed
	}
}

// WithPerspective sets the projection.
//
// Parameters:
//   - fovY: the vertical field of view in radians
//   - aspect: width over height
//   - near, far: the clip plane distances
//
// Returns:
//   - CameraBuilderOption: a function that sets the projection
func WithPerspective(fovY, aspect, near, far float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.fov = fovY
		c.aspect = aspect
		c.near = near
		c.far = far
	}
}
