package view

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestRangefinderDistance(t *testing.T) {
	tests := []struct {
		name      string
		transform mgl32.Mat4
		at        mgl32.Vec3
		want      float32
	}{
		{"identity in front", mgl32.Ident4(), mgl32.Vec3{0, 0, -5}, 5},
		{"identity behind", mgl32.Ident4(), mgl32.Vec3{0, 0, 2}, -2},
		{"lateral offset ignored", mgl32.Ident4(), mgl32.Vec3{7, -3, -4}, 4},
		{"translated view", mgl32.Translate3D(0, 0, 10), mgl32.Vec3{0, 0, 0}, 10},
		{"turned view", mgl32.HomogRotate3DY(mgl32.DegToRad(90)), mgl32.Vec3{-6, 0, 0}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRangefinder(tt.transform)
			got := r.Distance(mgl32.Translate3D(tt.at.X(), tt.at.Y(), tt.at.Z()))
			if !near(got, tt.want) {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookAtDistance(t *testing.T) {
	v := NewView(1, WithLookAt(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	if got := v.Distance(mgl32.Ident4()); !near(got, 10) {
		t.Errorf("Distance() = %v, want 10", got)
	}

	v.SetTransform(mgl32.Translate3D(0, 0, 4))
	if got := v.Distance(mgl32.Ident4()); !near(got, 4) {
		t.Errorf("Distance() after SetTransform = %v, want 4", got)
	}
}

func TestVisibility(t *testing.T) {
	v := NewView(1)
	if !v.Visible(42) {
		t.Errorf("Visible(42) = false on a view without a visible set")
	}

	v = NewView(2, WithVisible(1, 2))
	tests := []struct {
		e    instance.Entity
		want bool
	}{{1, true}, {2, true}, {3, false}}
	for _, tt := range tests {
		if got := v.Visible(tt.e); got != tt.want {
			t.Errorf("Visible(%d) = %v, want %v", tt.e, got, tt.want)
		}
	}

	v.SetVisible([]instance.Entity{})
	if v.Visible(1) {
		t.Errorf("Visible(1) = true with an empty visible set")
	}
	v.SetVisible(nil)
	if !v.Visible(3) {
		t.Errorf("Visible(3) = false after clearing the visible set")
	}
}

func TestUniform(t *testing.T) {
	v := NewView(1, WithTransform(mgl32.Translate3D(1, 2, 3)))
	u := Uniform(v)
	if u.Size() != 80 {
		t.Fatalf("Size() = %d, want 80", u.Size())
	}
	buf := u.Marshal()
	if len(buf) != 80 {
		t.Fatalf("len(Marshal()) = %d, want 80", len(buf))
	}
	want := []float32{1, 2, 3, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[64+i*4:]))
		if got != w {
			t.Errorf("position[%d] = %v, want %v", i, got, w)
		}
	}
	// Identity projection: view-projection is the inverse view transform.
	if tz := math.Float32frombits(binary.LittleEndian.Uint32(buf[14*4:])); !near(tz, -3) {
		t.Errorf("view-projection translation z = %v, want -3", tz)
	}
}
