// Package resize implements column-boundary width drags.
//
// A drag adjusts only the column left of the dragged boundary; the column
// to its right keeps its width. Widths clamp to a floor instead of
// failing. A grid in proportional layout is converted to explicit pixel
// widths, one per column, before the first delta applies, so ColumnWidths
// persists with the correct length from then on.
package resize

import (
	"sync"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/gesture"
	"github.com/dshills/gridstorm/internal/grid"
)

const source = "resize"

// MinColumnWidth is the default resize floor in logical pixels.
const MinColumnWidth = 50

// Options configures a Controller.
type Options struct {
	// MinWidth overrides the resize floor. Values below 1 keep the default.
	MinWidth int

	// SelectionActive reports whether a cell selection is established;
	// resize handles are disabled entirely while it returns true.
	SelectionActive func() bool
}

// Controller is the column resize controller.
type Controller struct {
	mu      sync.Mutex
	g       *grid.Grid
	bus     *event.Bus
	arbiter *gesture.Arbiter
	tracker *gesture.Tracker
	opts    Options

	col        int
	startWidth int
	dragging   bool
}

// New creates a resize controller over the given grid.
func New(g *grid.Grid, bus *event.Bus, arbiter *gesture.Arbiter, opts Options) *Controller {
	if opts.MinWidth < 1 {
		opts.MinWidth = MinColumnWidth
	}
	c := &Controller{
		g:       g,
		bus:     bus,
		arbiter: arbiter,
		tracker: gesture.NewTracker(gesture.KindResize),
		opts:    opts,
	}
	arbiter.Register(gesture.KindResize, c.cancel)
	return c
}

// Begin starts a drag on the boundary right of column col. rendered is
// the grid's current per-column rendered widths; it seeds the pixel
// conversion when the grid is still in proportional layout. Begin returns
// false when resizing is unavailable (active selection or bad column).
func (c *Controller) Begin(col int, rendered []int, px gesture.Point) bool {
	if c.opts.SelectionActive != nil && c.opts.SelectionActive() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if col < 0 || col >= c.g.Cols() {
		return false
	}

	// First resize on a proportional grid pins every column to its
	// current rendered width before any delta applies.
	if c.g.ColumnWidths == nil {
		if len(rendered) != c.g.Cols() {
			return false
		}
		widths := make([]int, len(rendered))
		for i, w := range rendered {
			if w < c.opts.MinWidth {
				w = c.opts.MinWidth
			}
			widths[i] = w
		}
		c.g.ColumnWidths = widths
	}

	c.arbiter.Begin(gesture.KindResize)
	c.col = col
	c.startWidth = c.g.ColumnWidths[col]
	c.dragging = true
	c.tracker.Press(px)
	return true
}

// Move applies the horizontal delta to the dragged column, clamped at the
// floor. Only the dragged column's width changes.
func (c *Controller) Move(px gesture.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return
	}
	c.tracker.Move(px)

	w := c.startWidth + c.tracker.Delta().X
	if w < c.opts.MinWidth {
		w = c.opts.MinWidth
	}
	c.g.ColumnWidths[c.col] = w
}

// End commits the drag at the last known position.
func (c *Controller) End() {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	c.dragging = false
	c.tracker.Release()
	col := c.col
	width := c.g.ColumnWidths[col]
	c.mu.Unlock()

	c.arbiter.End(gesture.KindResize)
	c.bus.Publish(event.TopicGridLayout.Sub("resized"), source, struct {
		Col   int
		Width int
	}{col, width})
}

// Dragging reports whether a resize drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// cancel is the arbiter hook: commit at the last applied width and stop.
func (c *Controller) cancel() {
	c.mu.Lock()
	c.dragging = false
	c.tracker.Cancel()
	c.mu.Unlock()
}
