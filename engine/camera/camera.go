// Package camera provides an orbit camera that produces the views the instancing subsystem draws.
package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/engine/view"
	"github.com/go-gl/mathgl/mgl32"
)

// orbitCamera is the implementation of the Camera interface.
// Position is derived from the target and the spherical coordinates radius, azimuth and elevation.
type orbitCamera struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	radius    float32
	azimuth   float32 // Horizontal angle around Y axis
	elevation float32 // Vertical angle from horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32

	// Projection parameters
	fov    float32
	aspect float32
	near   float32
	far    float32
}

// Camera orbits a target point and builds views looking at it.
// All methods are safe to call from multiple goroutines.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the target
	Target() mgl32.Vec3

	// SetTarget moves the orbit center, keeping the spherical offset.
	//
	// Parameters:
	//   - target: the new target
	SetTarget(target mgl32.Vec3)

	// Radius returns the distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	//
	// Parameters:
	//   - radius: the new radius
	SetRadius(radius float32)

	// Zoom moves the camera toward the target by delta times the zoom speed.
	//
	// Parameters:
	//   - delta: positive zooms in, negative zooms out
	Zoom(delta float32)

	// OrbitLeft rotates the camera around the target by one orbit step.
	OrbitLeft()

	// OrbitRight rotates the camera around the target by one orbit step.
	OrbitRight()

	// OrbitUp raises the camera by one orbit step, clamped to the elevation bounds.
	OrbitUp()

	// OrbitDown lowers the camera by one orbit step, clamped to the elevation bounds.
	OrbitDown()

	// SetAspect sets the projection's width over height ratio.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// View builds a view from the camera's current position and projection.
	//
	// Parameters:
	//   - id: the view ID
	//   - options: extra view options, such as view.WithVisible
	//
	// Returns:
	//   - view.View: the view
	View(id view.ID, options ...view.ViewBuilderOption) view.View
}

var _ Camera = &orbitCamera{}

// NewCamera creates an orbit camera.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &orbitCamera{
		mu: &sync.Mutex{},

		radius:    50.0,
		elevation: float32(math.Pi / 6),

		minRadius:    1.0,
		maxRadius:    5000.0,
		minElevation: 0.05,
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed: 0.03,
		zoomSpeed:  5.0,

		fov:    mgl32.DegToRad(60),
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    10000,
	}

	for _, option := range options {
		option(c)
	}

	c.clamp()
	c.updatePosition()
	return c
}

// updatePosition recomputes the position from the spherical coordinates.
// Caller must hold the mutex.
func (c *orbitCamera) updatePosition() {
	cosElev := float32(math.Cos(float64(c.elevation)))
	sinElev := float32(math.Sin(float64(c.elevation)))
	cosAzim := float32(math.Cos(float64(c.azimuth)))
	sinAzim := float32(math.Sin(float64(c.azimuth)))

	c.position = mgl32.Vec3{
		c.target[0] + c.radius*cosElev*sinAzim,
		c.target[1] + c.radius*sinElev,
		c.target[2] + c.radius*cosElev*cosAzim,
	}
}

// clamp keeps radius and elevation inside their bounds. Caller must hold the mutex.
func (c *orbitCamera) clamp() {
	c.radius = mgl32.Clamp(c.radius, c.minRadius, c.maxRadius)
	c.elevation = mgl32.Clamp(c.elevation, c.minElevation, c.maxElevation)
}

func (c *orbitCamera) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *orbitCamera) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *orbitCamera) SetTarget(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.updatePosition()
}

func (c *orbitCamera) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *orbitCamera) SetRadius(radius float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = radius
	c.clamp()
	c.updatePosition()
}

func (c *orbitCamera) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius -= delta * c.zoomSpeed
	c.clamp()
	c.updatePosition()
}

func (c *orbitCamera) OrbitLeft() {
	c.orbit(-c.orbitSpeed, 0)
}

func (c *orbitCamera) OrbitRight() {
	c.orbit(c.orbitSpeed, 0)
}

func (c *orbitCamera) OrbitUp() {
	c.orbit(0, c.orbitSpeed)
}

func (c *orbitCamera) OrbitDown() {
	c.orbit(0, -c.orbitSpeed)
}

func (c *orbitCamera) orbit(azimuth, elevation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += azimuth
	c.elevation += elevation
	c.clamp()
	c.updatePosition()
}

func (c *orbitCamera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *orbitCamera) View(id view.ID, options ...view.ViewBuilderOption) view.View {
	c.mu.Lock()
	opts := []view.ViewBuilderOption{
		view.WithLookAt(c.position, c.target, mgl32.Vec3{0, 1, 0}),
		view.WithPerspective(c.fov, c.aspect, c.near, c.far),
	}
	c.mu.Unlock()
	return view.NewView(id, append(opts, options...)...)
}
