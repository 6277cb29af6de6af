package phase

import (
	"errors"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/renderertest"
)

type recorder struct {
	name string
	log  *[]string
	err  error
}

func (r recorder) Draw(renderer.RenderPass) error {
	if r.err != nil {
		return r.err
	}
	*r.log = append(*r.log, r.name)
	return nil
}

func key(layout string) instance.BatchKey {
	return instance.BatchKey{Mesh: mesh.StructuralKey{Layout: layout}}
}

func TestPhaseOrder(t *testing.T) {
	tests := []struct {
		kind Kind
		want []string
	}{
		{KindOpaque, []string{"near", "tie-a", "tie-b", "far"}},
		{KindAlphaMask, []string{"near", "tie-a", "tie-b", "far"}},
		{KindTransparent, []string{"far", "tie-a", "tie-b", "near"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var log []string
			p := NewPhase(tt.kind)
			p.Add(Item{Key: key("b"), Distance: 5, Drawable: recorder{name: "tie-b", log: &log}})
			p.Add(Item{Key: key("z"), Distance: 9, Drawable: recorder{name: "far", log: &log}})
			p.Add(Item{Key: key("a"), Distance: 5, Drawable: recorder{name: "tie-a", log: &log}})
			p.Add(Item{Key: key("y"), Distance: 1, Drawable: recorder{name: "near", log: &log}})

			if got := p.Render(&renderertest.Pass{}); got != 4 {
				t.Errorf("Render() = %d, want 4", got)
			}
			if !slices.Equal(log, tt.want) {
				t.Errorf("draw order = %v, want %v", log, tt.want)
			}
		})
	}
}

func TestRenderContinuesAfterError(t *testing.T) {
	var log []string
	p := NewPhase(KindOpaque)
	p.Add(Item{Key: key("a"), Distance: 1, Drawable: recorder{name: "a", log: &log}})
	p.Add(Item{Key: key("b"), Distance: 2, Drawable: recorder{name: "b", log: &log, err: errors.New("boom")}})
	p.Add(Item{Key: key("c"), Distance: 3, Drawable: recorder{name: "c", log: &log}})

	if got := p.Render(&renderertest.Pass{}); got != 2 {
		t.Errorf("Render() = %d, want 2", got)
	}
	if !slices.Equal(log, []string{"a", "c"}) {
		t.Errorf("draw order = %v, want [a c]", log)
	}
}

func TestPhasesRenderInPhaseOrder(t *testing.T) {
	var log []string
	ps := NewPhases()
	ps.For(KindTransparent).Add(Item{Distance: 0, Drawable: recorder{name: "blend", log: &log}})
	ps.For(KindAlphaMask).Add(Item{Distance: 100, Drawable: recorder{name: "mask", log: &log}})
	ps.For(KindOpaque).Add(Item{Distance: 1000, Drawable: recorder{name: "opaque", log: &log}})

	if ps.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ps.Len())
	}
	ps.Render(&renderertest.Pass{})
	if !slices.Equal(log, []string{"opaque", "mask", "blend"}) {
		t.Errorf("draw order = %v, want [opaque mask blend]", log)
	}

	ps.Clear()
	if ps.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", ps.Len())
	}
}

func TestForAlpha(t *testing.T) {
	tests := []struct {
		alpha material.AlphaMode
		want  Kind
	}{
		{material.AlphaOpaque, KindOpaque},
		{material.AlphaMask, KindAlphaMask},
		{material.AlphaBlend, KindTransparent},
	}
	for _, tt := range tests {
		if got := ForAlpha(tt.alpha); got != tt.want {
			t.Errorf("ForAlpha(%v) = %v, want %v", tt.alpha, got, tt.want)
		}
	}
}
