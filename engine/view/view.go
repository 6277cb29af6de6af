// Package view describes a rendered view: where it looks from, how it projects, and which entities the
// host's visibility pass found visible.
package view

import (
	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/go-gl/mathgl/mgl32"
)

// ID identifies a view within a frame.
type ID uint32

// Rangefinder measures how far instances are along a view's forward axis.
type Rangefinder struct {
	// row2 is the third row of the view-from-world matrix.
	row2 mgl32.Vec4
}

// NewRangefinder builds a rangefinder for a view whose world-from-view transform is transform.
//
// Parameters:
//   - transform: the view's world-from-view matrix
//
// Returns:
//   - Rangefinder: the rangefinder
func NewRangefinder(transform mgl32.Mat4) Rangefinder {
	return Rangefinder{row2: transform.Inv().Row(2)}
}

// Distance returns the signed distance of a model transform's origin along the view's forward axis.
// Points in front of the view have positive distance.
//
// Parameters:
//   - model: the instance's world-from-model transform
//
// Returns:
//   - float32: the distance
func (r Rangefinder) Distance(model mgl32.Mat4) float32 {
	return -r.row2.Dot(model.Col(3))
}

// view is the implementation of the View interface.
type view struct {
	id          ID
	transform   mgl32.Mat4
	projection  mgl32.Mat4
	rangefinder Rangefinder
	visible     map[instance.Entity]struct{}
}

// View is a camera-like viewpoint consumed by the instance collector.
type View interface {
	instance.View

	// ID returns the view's identifier.
	//
	// Returns:
	//   - ID: the view ID
	ID() ID

	// Transform returns the world-from-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view transform
	Transform() mgl32.Mat4

	// Projection returns the clip-from-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection
	Projection() mgl32.Mat4

	// ViewProjection returns the clip-from-world matrix.
	//
	// Returns:
	//   - mgl32.Mat4: projection multiplied by the inverse transform
	ViewProjection() mgl32.Mat4

	// SetTransform replaces the world-from-view matrix.
	//
	// Parameters:
	//   - transform: the new view transform
	SetTransform(transform mgl32.Mat4)

	// SetProjection replaces the clip-from-view matrix.
	//
	// Parameters:
	//   - projection: the new projection
	SetProjection(projection mgl32.Mat4)

	// SetVisible replaces the visible set. A nil slice makes every entity visible.
	//
	// Parameters:
	//   - entities: the visible entities, or nil for all
	SetVisible(entities []instance.Entity)
}

var _ View = &view{}

// NewView creates a View at the origin looking down -Z with an identity projection and every entity visible.
//
// Parameters:
//   - id: the view's identifier
//   - options: functional options to configure the view
//
// Returns:
//   - View: the view
func NewView(id ID, options ...ViewBuilderOption) View {
	v := &view{
		id:         id,
		transform:  mgl32.Ident4(),
		projection: mgl32.Ident4(),
	}
	for _, opt := range options {
		opt(v)
	}
	v.rangefinder = NewRangefinder(v.transform)
	return v
}

func (v *view) ID() ID {
	return v.id
}

func (v *view) Transform() mgl32.Mat4 {
	return v.transform
}

func (v *view) Projection() mgl32.Mat4 {
	return v.projection
}

func (v *view) ViewProjection() mgl32.Mat4 {
	return v.projection.Mul4(v.transform.Inv())
}

func (v *view) SetTransform(transform mgl32.Mat4) {
	v.transform = transform
	v.rangefinder = NewRangefinder(transform)
}

func (v *view) SetProjection(projection mgl32.Mat4) {
	v.projection = projection
}

func (v *view) SetVisible(entities []instance.Entity) {
	if entities == nil {
		v.visible = nil
		return
	}
	v.visible = make(map[instance.Entity]struct{}, len(entities))
	for _, e := range entities {
		v.visible[e] = struct{}{}
	}
}

func (v *view) Distance(model mgl32.Mat4) float32 {
	return v.rangefinder.Distance(model)
}

func (v *view) Visible(e instance.Entity) bool {
	if v.visible == nil {
		return true
	}
	_, ok := v.visible[e]
	return ok
}
