package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPositionFromSphericalCoordinates(t *testing.T) {
	tests := []struct {
		name      string
		azimuth   float32
		elevation float32
		want      mgl32.Vec3
	}{
		{"in front", 0, 0.05, mgl32.Vec3{0, 10 * float32(math.Sin(0.05)), 10 * float32(math.Cos(0.05))}},
		{"quarter turn", math.Pi / 2, 0.05, mgl32.Vec3{10 * float32(math.Cos(0.05)), 10 * float32(math.Sin(0.05)), 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera(WithRadius(10), WithAzimuth(tt.azimuth), WithElevation(tt.elevation), WithTarget(0, 0, 0))
			if got := c.Position(); !got.ApproxEqualThreshold(tt.want, 1e-4) {
				t.Errorf("Position() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampsRadiusAndElevation(t *testing.T) {
	c := NewCamera(WithRadius(10), WithRadiusBounds(5, 20), WithOrbitSpeed(1))

	c.Zoom(100)
	if got := c.Radius(); got != 5 {
		t.Errorf("Radius() after zooming in = %v, want 5", got)
	}
	c.SetRadius(1000)
	if got := c.Radius(); got != 20 {
		t.Errorf("Radius() after SetRadius(1000) = %v, want 20", got)
	}

	for range 10 {
		c.OrbitUp()
	}
	if y := c.Position().Y(); y >= c.Radius() {
		t.Errorf("Position().Y() = %v, want below the radius %v", y, c.Radius())
	}
}

func TestViewLooksAtTarget(t *testing.T) {
	c := NewCamera(WithRadius(10), WithTarget(1, 2, 3))
	v := c.View(1)

	if v.ID() != 1 {
		t.Errorf("ID() = %d, want 1", v.ID())
	}
	d := v.Distance(mgl32.Translate3D(1, 2, 3))
	if math.Abs(float64(d-10)) > 1e-3 {
		t.Errorf("Distance(target) = %v, want 10", d)
	}
}
