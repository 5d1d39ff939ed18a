// Package menu implements the popover/menu primitive consumed by the
// selection pill and the structure grips.
//
// All open popovers live in one registry as a stack from root to deepest
// nested sub-menu. Escape and outside-click close the entire tree through
// the registry in a single step; individual popovers never listen for keys
// themselves, so a nested tree cannot be double-handled or closed one
// level at a time.
package menu

import (
	"sync"

	"github.com/rivo/uniseg"

	"github.com/dshills/gridstorm/internal/gesture"
)

// Item is one menu entry.
type Item struct {
	// Label is the rendered text.
	Label string

	// Action runs when the item is activated. Nil for pure submenu items.
	Action func()

	// Disabled renders the item visibly inert; activation is ignored.
	Disabled bool

	// Nested, when non-nil, opens as a sub-menu anchored at the item.
	Nested []Item
}

// itemPadding is the horizontal padding added around the widest label.
const itemPadding = 2

// Popover is one open menu level.
type Popover struct {
	Items  []Item
	Anchor gesture.Point
	depth  int
}

// Width returns the popover's rendered width: the widest label measured in
// grapheme clusters, plus padding.
func (p *Popover) Width() int {
	w := 0
	for _, it := range p.Items {
		if lw := uniseg.StringWidth(it.Label); lw > w {
			w = lw
		}
	}
	return w + itemPadding*2
}

// Height returns the popover's rendered height.
func (p *Popover) Height() int {
	return len(p.Items)
}

// Contains reports whether a point falls inside the popover's rectangle.
func (p *Popover) Contains(pt gesture.Point) bool {
	return pt.X >= p.Anchor.X && pt.X < p.Anchor.X+p.Width() &&
		pt.Y >= p.Anchor.Y && pt.Y < p.Anchor.Y+p.Height()
}

// ItemAt returns the index of the item at a point, or -1.
func (p *Popover) ItemAt(pt gesture.Point) int {
	if !p.Contains(pt) {
		return -1
	}
	return pt.Y - p.Anchor.Y
}

// Registry tracks the open popover tree.
type Registry struct {
	mu    sync.Mutex
	stack []*Popover
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Open closes any open tree and opens a new root popover.
func (r *Registry) Open(items []Item, anchor gesture.Point) *Popover {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &Popover{Items: items, Anchor: anchor, depth: 0}
	r.stack = []*Popover{p}
	return p
}

// OpenNested opens a sub-menu under parent, replacing any deeper levels.
func (r *Registry) OpenNested(parent *Popover, items []Item, anchor gesture.Point) *Popover {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.stack {
		if p == parent {
			r.stack = r.stack[:i+1]
			child := &Popover{Items: items, Anchor: anchor, depth: parent.depth + 1}
			r.stack = append(r.stack, child)
			return child
		}
	}
	return nil
}

// CloseAll closes the entire tree, root and all nested levels, in one
// step. This is the single Escape handler for every open menu.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = nil
}

// IsOpen reports whether any popover is open.
func (r *Registry) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack) > 0
}

// Depth returns the number of open levels.
func (r *Registry) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// Stack returns the open popovers from root to deepest.
func (r *Registry) Stack() []*Popover {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Popover(nil), r.stack...)
}

// Contains reports whether a point falls inside any open popover.
func (r *Registry) Contains(pt gesture.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.stack {
		if p.Contains(pt) {
			return true
		}
	}
	return false
}

// Click routes a pointer-down at pt into the open tree. A click on an
// enabled action item runs the action and closes the tree; a click on a
// submenu item opens its nested level; a click outside every popover
// closes the tree. It returns true when the click was consumed by a
// popover.
func (r *Registry) Click(pt gesture.Point) bool {
	r.mu.Lock()
	if len(r.stack) == 0 {
		r.mu.Unlock()
		return false
	}

	var hit *Popover
	idx := -1
	for i := len(r.stack) - 1; i >= 0; i-- {
		if n := r.stack[i].ItemAt(pt); n >= 0 {
			hit = r.stack[i]
			idx = n
			break
		}
	}

	if hit == nil {
		r.stack = nil
		r.mu.Unlock()
		return false
	}

	item := hit.Items[idx]
	switch {
	case item.Disabled:
		r.mu.Unlock()
		return true
	case item.Nested != nil:
		r.mu.Unlock()
		anchor := gesture.Point{X: hit.Anchor.X + hit.Width(), Y: hit.Anchor.Y + idx}
		r.OpenNested(hit, item.Nested, anchor)
		return true
	default:
		r.stack = nil
		r.mu.Unlock()
		if item.Action != nil {
			item.Action()
		}
		return true
	}
}
