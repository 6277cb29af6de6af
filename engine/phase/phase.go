// Package phase holds the per-view render phases instance batches are queued into. Each phase orders
// its items by distance and draws them in that order.
package phase

import (
	"cmp"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
)

// Kind identifies a render phase.
type Kind int

const (
	KindOpaque Kind = iota
	KindAlphaMask
	KindTransparent
)

// String returns the lowercase name of the phase.
func (k Kind) String() string {
	switch k {
	case KindAlphaMask:
		return "alpha_mask"
	case KindTransparent:
		return "transparent"
	default:
		return "opaque"
	}
}

// ForAlpha returns the phase that draws materials of the given alpha mode.
//
// Parameters:
//   - a: the alpha mode
//
// Returns:
//   - Kind: the phase
func ForAlpha(a material.AlphaMode) Kind {
	switch a {
	case material.AlphaMask:
		return KindAlphaMask
	case material.AlphaBlend:
		return KindTransparent
	default:
		return KindOpaque
	}
}

// Drawable is anything a phase item can draw.
type Drawable interface {
	// Draw records the item's draw commands into pass.
	//
	// Parameters:
	//   - pass: the render pass
	//
	// Returns:
	//   - error: an error if the item could not be drawn
	Draw(pass renderer.RenderPass) error
}

// Item is one entry of a phase.
type Item struct {
	Key      instance.BatchKey
	Distance float32
	Drawable Drawable
}

// phase is the implementation of the Phase interface.
type phase struct {
	mu    sync.Mutex
	kind  Kind
	items []Item
}

// Phase is an ordered list of draw items for one view. Opaque and alpha mask phases draw front to back,
// the transparent phase back to front; ties are broken by batch key.
type Phase interface {
	// Kind returns which phase this is.
	Kind() Kind

	// Add queues an item. Safe for concurrent use.
	//
	// Parameters:
	//   - item: the item
	Add(item Item)

	// Len returns the number of queued items.
	Len() int

	// Items returns the queued items in draw order.
	//
	// Returns:
	//   - []Item: the sorted items
	Items() []Item

	// Render draws every item in order. An item that fails to draw is logged and skipped.
	//
	// Parameters:
	//   - pass: the render pass
	//
	// Returns:
	//   - int: the number of items drawn successfully
	Render(pass renderer.RenderPass) int

	// Clear removes every item.
	Clear()
}

var _ Phase = &phase{}

// NewPhase creates an empty phase of the given kind.
//
// Parameters:
//   - kind: the phase kind
//
// Returns:
//   - Phase: the phase
func NewPhase(kind Kind) Phase {
	return &phase{kind: kind}
}

func (p *phase) Kind() Kind {
	return p.kind
}

func (p *phase) Add(item Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
}

func (p *phase) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *phase) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sort()
	return slices.Clone(p.items)
}

func (p *phase) sort() {
	backToFront := p.kind == KindTransparent
	slices.SortStableFunc(p.items, func(a, b Item) int {
		c := cmp.Compare(a.Distance, b.Distance)
		if backToFront {
			c = -c
		}
		if c != 0 {
			return c
		}
		return instance.Compare(a.Key, b.Key)
	})
}

func (p *phase) Render(pass renderer.RenderPass) int {
	drawn := 0
	for _, item := range p.Items() {
		if err := item.Drawable.Draw(pass); err != nil {
			common.Logger().Error("phase item draw failed", "phase", p.kind, "batch", item.Key, "err", err)
			continue
		}
		drawn++
	}
	return drawn
}

func (p *phase) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = p.items[:0]
}

// Phases are the three phases of one view.
type Phases struct {
	Opaque      Phase
	AlphaMask   Phase
	Transparent Phase
}

// NewPhases creates an empty set of phases.
//
// Returns:
//   - *Phases: the phases
func NewPhases() *Phases {
	return &Phases{
		Opaque:      NewPhase(KindOpaque),
		AlphaMask:   NewPhase(KindAlphaMask),
		Transparent: NewPhase(KindTransparent),
	}
}

// For returns the phase of the given kind.
//
// Parameters:
//   - kind: the phase kind
//
// Returns:
//   - Phase: the phase
func (p *Phases) For(kind Kind) Phase {
	switch kind {
	case KindAlphaMask:
		return p.AlphaMask
	case KindTransparent:
		return p.Transparent
	default:
		return p.Opaque
	}
}

// Render draws the opaque, alpha mask and transparent phases in that order.
//
// Parameters:
//   - pass: the render pass
//
// Returns:
//   - int: the number of items drawn successfully
func (p *Phases) Render(pass renderer.RenderPass) int {
	return p.Opaque.Render(pass) + p.AlphaMask.Render(pass) + p.Transparent.Render(pass)
}

// Clear empties every phase.
func (p *Phases) Clear() {
	p.Opaque.Clear()
	p.AlphaMask.Clear()
	p.Transparent.Clear()
}

// Len returns the total number of queued items.
func (p *Phases) Len() int {
	return p.Opaque.Len() + p.AlphaMask.Len() + p.Transparent.Len()
}
