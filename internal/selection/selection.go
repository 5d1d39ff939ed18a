// Package selection implements cell selection: rectangle drags, whole
// row/column selection via grips, the keyboard clear path, and the
// selection action menu behind the pill affordance.
//
// The controller is a three-state machine: Idle, Dragging (pointer down
// and moved past the drag threshold over a second cell), Selected. A
// selection is an anchor cell and a focus cell defining an inclusive
// rectangle, or a full row/column entered via a grip click.
package selection

import (
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/gesture"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/menu"
)

// source tag for published events.
const source = "selection"

// Pos addresses one cell.
type Pos struct {
	Row int
	Col int
}

// Mode describes what unit the selection covers.
type Mode uint8

const (
	// ModeNone means nothing is selected.
	ModeNone Mode = iota
	// ModeCells is a rectangular cell selection.
	ModeCells
	// ModeRow is a full-row selection entered via a row grip.
	ModeRow
	// ModeColumn is a full-column selection entered via a column grip.
	ModeColumn
)

// State is the controller's lifecycle state.
type State uint8

const (
	// StateIdle means no selection and no pointer held.
	StateIdle State = iota
	// StateDragging means a rectangle drag is extending live.
	StateDragging
	// StateSelected means a selection is established.
	StateSelected
)

// Rect is a normalized inclusive cell rectangle.
type Rect struct {
	MinRow, MinCol int
	MaxRow, MaxCol int
}

// Contains reports whether (row, col) lies inside the rectangle.
func (r Rect) Contains(row, col int) bool {
	return row >= r.MinRow && row <= r.MaxRow && col >= r.MinCol && col <= r.MaxCol
}

// Options configures a Controller.
type Options struct {
	// Threshold overrides the drag threshold in logical pixels.
	Threshold int

	// Swatches are the hex colors offered by the color picker.
	Swatches []string

	// Copy receives the selected cells when the menu's Copy action runs.
	Copy func(cells [][]grid.Cell)
}

// Controller is the cell selection controller.
type Controller struct {
	mu      sync.Mutex
	g       *grid.Grid
	tree    block.Tree
	bus     *event.Bus
	menus   *menu.Registry
	arbiter *gesture.Arbiter
	tracker *gesture.Tracker
	opts    Options

	state     State
	mode      Mode
	anchor    Pos
	focus     Pos
	pressCell Pos
	pressed   bool
}

// New creates a selection controller over the given grid. The controller
// registers itself with the arbiter so other gestures cancel it cleanly.
func New(g *grid.Grid, tree block.Tree, bus *event.Bus, menus *menu.Registry, arbiter *gesture.Arbiter, opts Options) *Controller {
	c := &Controller{
		g:       g,
		tree:    tree,
		bus:     bus,
		menus:   menus,
		arbiter: arbiter,
		tracker: gesture.NewTracker(gesture.KindSelect),
		opts:    opts,
	}
	c.tracker.SetThreshold(opts.Threshold)
	arbiter.Register(gesture.KindSelect, c.cancelDrag)
	return c
}

// PointerDown handles a pointer press on a cell. An open menu for a prior
// selection is closed before the new gesture establishes anything.
func (c *Controller) PointerDown(cell Pos, px gesture.Point) {
	c.menus.CloseAll()
	c.arbiter.Begin(gesture.KindSelect)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.g.InRange(cell.Row, cell.Col) {
		return
	}
	c.pressCell = cell
	c.pressed = true
	c.tracker.Press(px)
}

// PointerMove extends an in-progress gesture. The rectangle updates live
// while dragging, not only on release.
func (c *Controller) PointerMove(cell Pos, px gesture.Point) {
	c.mu.Lock()
	if !c.tracker.Active() {
		c.mu.Unlock()
		return
	}
	started := c.tracker.Move(px)
	if c.tracker.State() != gesture.StateDragging {
		c.mu.Unlock()
		return
	}
	if started && c.state != StateDragging {
		c.state = StateDragging
		c.mode = ModeCells
		c.anchor = c.pressCell
	}
	if c.state == StateDragging && c.g.InRange(cell.Row, cell.Col) {
		c.focus = cell
	}
	c.mu.Unlock()
	c.publish("extended")
}

// PointerUp finalizes the gesture. A press that never crossed the drag
// threshold resolves to a one-cell selection at the pressed cell.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	if !c.pressed {
		// The gesture was cancelled by another controller; a stray
		// release must not resurrect a selection.
		c.mu.Unlock()
		return
	}
	c.pressed = false
	wasDrag := c.tracker.Release()
	if !wasDrag {
		c.anchor = c.pressCell
		c.focus = c.pressCell
		c.mode = ModeCells
	}
	c.state = StateSelected
	c.mu.Unlock()

	c.arbiter.End(gesture.KindSelect)
	c.publish("established")
}

// SelectRow selects an entire row atomically (grip click).
func (c *Controller) SelectRow(row int) {
	c.mu.Lock()
	if row < 0 || row >= c.g.Rows() {
		c.mu.Unlock()
		return
	}
	c.state = StateSelected
	c.mode = ModeRow
	c.anchor = Pos{Row: row, Col: 0}
	c.focus = Pos{Row: row, Col: c.g.Cols() - 1}
	c.mu.Unlock()
	c.publish("established")
}

// SelectColumn selects an entire column atomically (grip click).
func (c *Controller) SelectColumn(col int) {
	c.mu.Lock()
	if col < 0 || col >= c.g.Cols() {
		c.mu.Unlock()
		return
	}
	c.state = StateSelected
	c.mode = ModeColumn
	c.anchor = Pos{Row: 0, Col: col}
	c.focus = Pos{Row: c.g.Rows() - 1, Col: col}
	c.mu.Unlock()
	c.publish("established")
}

// Clear drops the selection (outside pointer-down or keyboard clear).
func (c *Controller) Clear() {
	c.mu.Lock()
	changed := c.state != StateIdle
	c.state = StateIdle
	c.mode = ModeNone
	c.pressed = false
	c.tracker.Cancel()
	c.mu.Unlock()
	if changed {
		c.publish("cleared")
	}
}

// cancelDrag is the arbiter's cancellation hook: another gesture took
// over mid-drag.
func (c *Controller) cancelDrag() {
	c.mu.Lock()
	if c.state == StateDragging {
		c.state = StateIdle
		c.mode = ModeNone
	}
	c.pressed = false
	c.tracker.Cancel()
	c.mu.Unlock()
}

// State returns the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode returns the selection mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Active reports whether a selection is established or being dragged.
// Column resize is disabled while this is true.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateIdle
}

// Rect returns the normalized selection rectangle. ok is false when
// nothing is selected.
func (c *Controller) Rect() (Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rectLocked()
}

func (c *Controller) rectLocked() (Rect, bool) {
	if c.state == StateIdle || c.mode == ModeNone {
		return Rect{}, false
	}
	r := Rect{
		MinRow: c.anchor.Row, MaxRow: c.focus.Row,
		MinCol: c.anchor.Col, MaxCol: c.focus.Col,
	}
	if r.MinRow > r.MaxRow {
		r.MinRow, r.MaxRow = r.MaxRow, r.MinRow
	}
	if r.MinCol > r.MaxCol {
		r.MinCol, r.MaxCol = r.MaxCol, r.MinCol
	}
	return r, true
}

// Contains reports whether a cell is inside the current selection.
func (c *Controller) Contains(row, col int) bool {
	r, ok := c.Rect()
	return ok && r.Contains(row, col)
}

// SelectedCells returns deep copies of the selected cells, row by row.
func (c *Controller) SelectedCells() [][]grid.Cell {
	r, ok := c.Rect()
	if !ok {
		return nil
	}
	out := make([][]grid.Cell, 0, r.MaxRow-r.MinRow+1)
	for row := r.MinRow; row <= r.MaxRow; row++ {
		line := make([]grid.Cell, 0, r.MaxCol-r.MinCol+1)
		for col := r.MinCol; col <= r.MaxCol; col++ {
			line = append(line, c.g.Cell(row, col).Clone())
		}
		out = append(out, line)
	}
	return out
}

// DeleteContents clears the content references of every selected cell.
// Cells remain, color overrides remain; only content is removed. The
// underlying blocks are destroyed unless still referenced by a cell
// outside the selection, so no orphan can survive.
func (c *Controller) DeleteContents() {
	r, ok := c.Rect()
	if !ok {
		return
	}
	var removed []block.ID
	for row := r.MinRow; row <= r.MaxRow; row++ {
		for col := r.MinCol; col <= r.MaxCol; col++ {
			cell := c.g.Cell(row, col)
			removed = append(removed, cell.Content...)
			cell.Content = nil
			_ = c.g.SetCell(row, col, cell)
		}
	}
	block.DestroyUnless(c.tree, removed, c.g.References)
	c.bus.Publish(event.TopicGridContent.Sub("cleared"), source, r)
}

// ApplyColor sets the background override of every selected cell. An
// empty background removes both overrides (the picker's "default"
// action); otherwise the text color is chosen for contrast against the
// background.
func (c *Controller) ApplyColor(background string) {
	r, ok := c.Rect()
	if !ok {
		return
	}
	text := contrastColor(background)
	for row := r.MinRow; row <= r.MaxRow; row++ {
		for col := r.MinCol; col <= r.MaxCol; col++ {
			cell := c.g.Cell(row, col)
			cell.Background = background
			cell.TextColor = text
			_ = c.g.SetCell(row, col, cell)
		}
	}
	c.bus.Publish(event.TopicGridLayout.Sub("colored"), source, r)
}

// contrastColor picks a readable text color for a background, or empty
// when the background override is being removed.
func contrastColor(background string) string {
	if background == "" {
		return ""
	}
	col, err := colorful.Hex(background)
	if err != nil {
		return ""
	}
	if _, _, l := col.Hcl(); l < 0.5 {
		return "#ffffff"
	}
	return "#1f1f1f"
}

// OpenMenu opens the selection action menu at the pill's anchor:
// Copy, Clear, and the nested color swatch picker.
func (c *Controller) OpenMenu(anchor gesture.Point) {
	if !c.Active() {
		return
	}

	swatches := make([]menu.Item, 0, len(c.opts.Swatches)+1)
	for _, s := range c.opts.Swatches {
		s := s
		swatches = append(swatches, menu.Item{
			Label:  s,
			Action: func() { c.ApplyColor(s) },
		})
	}
	swatches = append(swatches, menu.Item{
		Label:  "default",
		Action: func() { c.ApplyColor("") },
	})

	items := []menu.Item{
		{Label: "Copy", Action: c.copySelection},
		{Label: "Clear", Action: c.DeleteContents},
		{Label: "Color", Nested: swatches},
	}
	c.menus.Open(items, anchor)
}

func (c *Controller) copySelection() {
	if c.opts.Copy == nil {
		return
	}
	cells := c.SelectedCells()
	if cells != nil {
		c.opts.Copy(cells)
	}
}

func (c *Controller) publish(what string) {
	c.bus.Publish(event.TopicSelection.Sub(what), source, nil)
}
