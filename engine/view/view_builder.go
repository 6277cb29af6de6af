package view

import (
	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/go-gl/mathgl/mgl32"
)

// ViewBuilderOption is a functional option for configuring a View via NewView.
type ViewBuilderOption func(*view)

// WithTransform sets the world-from-view matrix.
//
// Parameters:
//   - transform: the view transform
//
// Returns:
//   - ViewBuilderOption: a function that sets the view transform
func WithTransform(transform mgl32.Mat4) ViewBuilderOption {
	return func(v *view) {
		v.transform = transform
	}
}

// WithLookAt places the view at eye looking toward center.
//
// Parameters:
//   - eye: the view position
//   - center: the point looked at
//   - up: the up direction
//
// Returns:
//   - ViewBuilderOption: a function that sets the view transform
func WithLookAt(eye, center, up mgl32.Vec3) ViewBuilderOption {
	return func(v *view) {
		v.transform = mgl32.LookAtV(eye, center, up).Inv()
	}
}

// WithPerspective sets a perspective projection with WebGPU depth range.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - ViewBuilderOption: a function that sets the projection
func WithPerspective(fovY, aspect, near, far float32) ViewBuilderOption {
	return func(v *view) {
		v.projection = common.Perspective(fovY, aspect, near, far)
	}
}

// WithVisible restricts the view to the given entities.
//
// Parameters:
//   - entities: the visible entities
//
// Returns:
//   - ViewBuilderOption: a function that sets the visible set
func WithVisible(entities ...instance.Entity) ViewBuilderOption {
	return func(v *view) {
		v.SetVisible(entities)
	}
}
