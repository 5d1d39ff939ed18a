// Package structure implements row/column structural edits: the grip
// popover (insert, delete, heading toggles), drag-reorder with a ghost,
// and the add/remove buttons with quantized drag.
package structure

import (
	"sync"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/gesture"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/menu"
	"github.com/dshills/gridstorm/internal/selection"
)

const source = "structure"

// Axis distinguishes row and column operations.
type Axis uint8

const (
	// AxisRow operates on rows.
	AxisRow Axis = iota
	// AxisColumn operates on columns.
	AxisColumn
)

// String returns the axis name.
func (a Axis) String() string {
	if a == AxisColumn {
		return "column"
	}
	return "row"
}

// Ghost is the visual stand-in that tracks the pointer during a reorder
// drag. Presentation reads it; the editor guarantees it is cleared on
// drop and on cancel.
type Ghost struct {
	Axis  Axis
	Index int
	Pos   gesture.Point
}

// Options configures an Editor.
type Options struct {
	// RowHeight quantizes vertical add/remove drags.
	RowHeight int

	// ColumnUnit quantizes horizontal add/remove drags.
	ColumnUnit int

	// UnitIndexAt maps a pointer position to the nearest row/column
	// index, using the current rendered layout. Reorder drops use it.
	UnitIndexAt func(axis Axis, px gesture.Point) int

	// ScrollX and SetScrollX expose the horizontal wrapper's scroll
	// position, restored after drag-driven insert/removal sequences.
	ScrollX    func() int
	SetScrollX func(int)
}

// Editor mutates the grid's shape.
type Editor struct {
	mu      sync.Mutex
	g       *grid.Grid
	tree    block.Tree
	bus     *event.Bus
	arbiter *gesture.Arbiter
	sel     *selection.Controller
	menus   *menu.Registry
	opts    Options

	reorder *gesture.Tracker
	ghost   *Ghost
	dragged int // index being reordered

	addRemove   *gesture.Tracker
	addAxis     Axis
	baseCount   int
	savedScroll int
}

// New creates a structure editor.
func New(g *grid.Grid, tree block.Tree, bus *event.Bus, arbiter *gesture.Arbiter, sel *selection.Controller, menus *menu.Registry, opts Options) *Editor {
	if opts.RowHeight < 1 {
		opts.RowHeight = 1
	}
	if opts.ColumnUnit < 1 {
		opts.ColumnUnit = grid.DefaultColumnWidth
	}
	e := &Editor{
		g:         g,
		tree:      tree,
		bus:       bus,
		arbiter:   arbiter,
		sel:       sel,
		menus:     menus,
		opts:      opts,
		reorder:   gesture.NewTracker(gesture.KindReorder),
		addRemove: gesture.NewTracker(gesture.KindAddRemove),
	}
	arbiter.Register(gesture.KindReorder, e.cancelReorder)
	arbiter.Register(gesture.KindAddRemove, e.cancelAddRemove)
	return e
}

// --- structural operations ---

// InsertRow inserts an empty row at index.
func (e *Editor) InsertRow(index int) error {
	e.mu.Lock()
	err := e.g.InsertRow(index, nil)
	e.mu.Unlock()
	if err == nil {
		e.publish("row-inserted")
	}
	return err
}

// InsertColumn inserts an empty column at index.
func (e *Editor) InsertColumn(index int) error {
	e.mu.Lock()
	err := e.g.InsertColumn(index, nil)
	e.mu.Unlock()
	if err == nil {
		e.publish("column-inserted")
	}
	return err
}

// DeleteRow deletes the row at index. Deleting the last row is a no-op
// signalled by grid.ErrAtMinimum; the grip menu renders the item disabled
// before it gets here.
func (e *Editor) DeleteRow(index int) error {
	e.mu.Lock()
	removed := rowBlocks(e.g, index)
	err := e.g.DeleteRow(index)
	e.mu.Unlock()
	if err == nil {
		block.DestroyUnless(e.tree, removed, e.g.References)
		e.sel.Clear()
		e.publish("row-deleted")
	}
	return err
}

// DeleteColumn deletes the column at index.
func (e *Editor) DeleteColumn(index int) error {
	e.mu.Lock()
	removed := columnBlocks(e.g, index)
	err := e.g.DeleteColumn(index)
	e.mu.Unlock()
	if err == nil {
		block.DestroyUnless(e.tree, removed, e.g.References)
		e.sel.Clear()
		e.publish("column-deleted")
	}
	return err
}

// rowBlocks collects the block ids referenced by one row.
func rowBlocks(g *grid.Grid, row int) []block.ID {
	var ids []block.ID
	for _, cell := range g.Row(row) {
		ids = append(ids, cell.Content...)
	}
	return ids
}

// columnBlocks collects the block ids referenced by one column.
func columnBlocks(g *grid.Grid, col int) []block.ID {
	if col < 0 || col >= g.Cols() {
		return nil
	}
	var ids []block.ID
	for r := 0; r < g.Rows(); r++ {
		ids = append(ids, g.Cell(r, col).Content...)
	}
	return ids
}

// ToggleHeadingRow flips the heading flag of row 0. The column heading
// flag is independent and never touched.
func (e *Editor) ToggleHeadingRow() {
	e.mu.Lock()
	e.g.WithHeadingRow = !e.g.WithHeadingRow
	e.mu.Unlock()
	e.bus.Publish(event.TopicGridLayout.Sub("heading-row"), source, e.g.WithHeadingRow)
}

// ToggleHeadingColumn flips the heading flag of column 0.
func (e *Editor) ToggleHeadingColumn() {
	e.mu.Lock()
	e.g.WithHeadingColumn = !e.g.WithHeadingColumn
	e.mu.Unlock()
	e.bus.Publish(event.TopicGridLayout.Sub("heading-column"), source, e.g.WithHeadingColumn)
}

// --- grip popover ---

// GripClick selects the unit and opens its popover, as one action.
func (e *Editor) GripClick(axis Axis, index int, anchor gesture.Point) {
	if axis == AxisRow {
		e.sel.SelectRow(index)
	} else {
		e.sel.SelectColumn(index)
	}
	e.menus.Open(e.gripItems(axis, index), anchor)
}

// gripItems builds the grip popover. Delete is rendered but disabled when
// performing it would leave zero units; the heading toggle appears only
// for the first unit of its axis.
func (e *Editor) gripItems(axis Axis, index int) []menu.Item {
	e.mu.Lock()
	rows, cols := e.g.Rows(), e.g.Cols()
	e.mu.Unlock()

	var items []menu.Item
	if axis == AxisRow {
		items = []menu.Item{
			{Label: "Insert above", Action: func() { _ = e.InsertRow(index) }},
			{Label: "Insert below", Action: func() { _ = e.InsertRow(index + 1) }},
			{Label: "Delete", Disabled: rows <= 1, Action: func() { _ = e.DeleteRow(index) }},
		}
		if index == 0 {
			items = append(items, menu.Item{Label: "Heading row", Action: e.ToggleHeadingRow})
		}
	} else {
		items = []menu.Item{
			{Label: "Insert left", Action: func() { _ = e.InsertColumn(index) }},
			{Label: "Insert right", Action: func() { _ = e.InsertColumn(index + 1) }},
			{Label: "Delete", Disabled: cols <= 1, Action: func() { _ = e.DeleteColumn(index) }},
		}
		if index == 0 {
			items = append(items, menu.Item{Label: "Heading column", Action: e.ToggleHeadingColumn})
		}
	}
	return items
}

// --- grip reorder drag ---

// BeginReorder starts a potential reorder drag from a grip press.
func (e *Editor) BeginReorder(axis Axis, index int, px gesture.Point) {
	// Acquire the gesture slot before taking the editor lock: the
	// arbiter may cancel this editor's other gesture, which also locks.
	e.arbiter.Begin(gesture.KindReorder)

	e.mu.Lock()
	defer e.mu.Unlock()
	limit := e.g.Rows()
	if axis == AxisColumn {
		limit = e.g.Cols()
	}
	if index < 0 || index >= limit {
		return
	}
	e.dragged = index
	e.reorder.Press(px)
	e.ghost = nil
}

// MoveReorder updates the drag. The ghost appears once the movement
// threshold is crossed and tracks the pointer from then on.
func (e *Editor) MoveReorder(axis Axis, px gesture.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.reorder.Active() {
		return
	}
	e.reorder.Move(px)
	if e.reorder.State() == gesture.StateDragging {
		e.ghost = &Ghost{Axis: axis, Index: e.dragged, Pos: px}
	}
}

// DropReorder finishes the drag. A drag moves the unit to the slot
// nearest the drop point; a press that never became a drag is left for
// GripClick handling. The ghost is removed on every path.
func (e *Editor) DropReorder(axis Axis, px gesture.Point) (moved bool) {
	e.mu.Lock()
	wasDrag := e.reorder.Release()
	e.ghost = nil
	from := e.dragged
	e.mu.Unlock()
	e.arbiter.End(gesture.KindReorder)

	if !wasDrag || e.opts.UnitIndexAt == nil {
		return false
	}
	to := e.opts.UnitIndexAt(axis, px)

	e.mu.Lock()
	var err error
	if axis == AxisRow {
		err = e.g.MoveRow(from, to)
	} else {
		err = e.g.MoveColumn(from, to)
	}
	e.mu.Unlock()

	if err != nil || from == to {
		return false
	}
	e.sel.Clear()
	e.publish(axis.String() + "-moved")
	return true
}

// cancelReorder is the arbiter hook; the ghost never outlives the drag.
func (e *Editor) cancelReorder() {
	e.mu.Lock()
	e.reorder.Cancel()
	e.ghost = nil
	e.mu.Unlock()
}

// Ghost returns the active reorder ghost, or nil.
func (e *Editor) Ghost() *Ghost {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ghost == nil {
		return nil
	}
	g := *e.ghost
	return &g
}

// --- add/remove buttons ---

// AddRow appends one row (single click on the add-row button).
func (e *Editor) AddRow() {
	_ = e.InsertRow(e.g.Rows())
}

// AddColumn appends one column.
func (e *Editor) AddColumn() {
	_ = e.InsertColumn(e.g.Cols())
}

// BeginAddRemove starts a press on an add button that may become a
// quantized drag.
func (e *Editor) BeginAddRemove(axis Axis, px gesture.Point) {
	e.arbiter.Begin(gesture.KindAddRemove)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.addAxis = axis
	if axis == AxisRow {
		e.baseCount = e.g.Rows()
	} else {
		e.baseCount = e.g.Cols()
	}
	if e.opts.ScrollX != nil {
		e.savedScroll = e.opts.ScrollX()
	}
	e.addRemove.Press(px)
}

// MoveAddRemove applies the drag's quantized displacement: dragging
// outward appends units, dragging back removes trailing units. Only
// trailing units whose cells are all empty may be removed; the first
// non-empty trailing unit blocks further removal. A drag returning to
// the start position nets to zero.
func (e *Editor) MoveAddRemove(px gesture.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.addRemove.Active() {
		return
	}
	e.addRemove.Move(px)
	if e.addRemove.State() != gesture.StateDragging {
		return
	}

	delta := e.addRemove.Delta()
	var unitDelta int
	if e.addAxis == AxisRow {
		unitDelta = quantize(delta.Y, e.opts.RowHeight)
	} else {
		unitDelta = quantize(delta.X, e.opts.ColumnUnit)
	}
	e.applyUnitDelta(e.baseCount + unitDelta)
}

// EndAddRemove finishes at the last applied count. A press that never
// became a drag is the single-click append. The wrapper's scroll position
// is restored after any drag-driven insert/removal sequence.
func (e *Editor) EndAddRemove() {
	e.mu.Lock()
	wasDrag := e.addRemove.Release()
	axis := e.addAxis
	scroll := e.savedScroll
	e.mu.Unlock()
	e.arbiter.End(gesture.KindAddRemove)

	if !wasDrag {
		if axis == AxisRow {
			e.AddRow()
		} else {
			e.AddColumn()
		}
		return
	}
	if e.opts.SetScrollX != nil {
		e.opts.SetScrollX(scroll)
	}
	e.publish(axis.String() + "-count")
}

func (e *Editor) cancelAddRemove() {
	e.mu.Lock()
	e.addRemove.Cancel()
	e.mu.Unlock()
}

// applyUnitDelta grows or trims toward target, respecting the 1-unit
// floor and the non-empty-trailing-unit removal block. Caller holds mu.
func (e *Editor) applyUnitDelta(target int) {
	if target < 1 {
		target = 1
	}
	if e.addAxis == AxisRow {
		for e.g.Rows() < target {
			if e.g.InsertRow(e.g.Rows(), nil) != nil {
				return
			}
		}
		for e.g.Rows() > target {
			if !e.rowEmpty(e.g.Rows() - 1) {
				return
			}
			if e.g.DeleteRow(e.g.Rows()-1) != nil {
				return
			}
		}
		return
	}
	for e.g.Cols() < target {
		if e.g.InsertColumn(e.g.Cols(), nil) != nil {
			return
		}
	}
	for e.g.Cols() > target {
		if !e.columnEmpty(e.g.Cols() - 1) {
			return
		}
		if e.g.DeleteColumn(e.g.Cols()-1) != nil {
			return
		}
	}
}

func (e *Editor) rowEmpty(row int) bool {
	for col := 0; col < e.g.Cols(); col++ {
		if !e.g.Cell(row, col).IsEmpty() {
			return false
		}
	}
	return true
}

func (e *Editor) columnEmpty(col int) bool {
	for row := 0; row < e.g.Rows(); row++ {
		if !e.g.Cell(row, col).IsEmpty() {
			return false
		}
	}
	return true
}

// quantize converts a pixel displacement into whole units, truncating
// toward zero: 2.5 units of outward drag adds 2.
func quantize(px, unit int) int {
	if unit < 1 {
		return 0
	}
	return px / unit
}

func (e *Editor) publish(what string) {
	e.bus.Publish(event.TopicGridStructure.Sub(what), source, nil)
}
