// Package grid implements the canonical rectangular table data model.
//
// A Grid is an ordered list of equal-length rows of Cells. Cells never hold
// text directly; they reference child blocks owned by the host document's
// block tree. All mutators preserve the structural invariants: the grid is
// never smaller than 1x1, every row has the same length, and ColumnWidths
// (when present) always matches the column count.
package grid

import (
	"errors"

	"github.com/dshills/gridstorm/internal/block"
)

// DefaultColumnWidth is the pixel width assigned to columns created while
// the grid is in explicit pixel layout.
const DefaultColumnWidth = 120

var (
	// ErrAtMinimum signals a refused destructive operation that would
	// shrink the grid below one row or one column.
	ErrAtMinimum = errors.New("grid: at minimum size")

	// ErrOutOfRange signals a row or column index outside the grid.
	ErrOutOfRange = errors.New("grid: index out of range")

	// ErrRaggedRow signals an insert whose cell count does not match the
	// grid's column count.
	ErrRaggedRow = errors.New("grid: row length mismatch")
)

// Cell is one grid position: ordered references to child content blocks
// plus optional per-cell color overrides. The empty string means no
// override.
type Cell struct {
	Content    []block.ID
	Background string
	TextColor  string
}

// EmptyCell returns a cell with no content and no color overrides.
func EmptyCell() Cell {
	return Cell{}
}

// IsEmpty returns true if the cell references no content blocks.
func (c Cell) IsEmpty() bool {
	return len(c.Content) == 0
}

// Clone returns a deep copy of the cell.
func (c Cell) Clone() Cell {
	out := c
	if c.Content != nil {
		out.Content = append([]block.ID(nil), c.Content...)
	}
	return out
}

// Equal reports whether two cells reference the same blocks in the same
// order with the same color overrides.
func (c Cell) Equal(other Cell) bool {
	if len(c.Content) != len(other.Content) {
		return false
	}
	for i, id := range c.Content {
		if other.Content[i] != id {
			return false
		}
	}
	return c.Background == other.Background && c.TextColor == other.TextColor
}

// Grid is the table's rectangular data structure.
type Grid struct {
	rows [][]Cell

	// WithHeadingRow marks row 0 as a heading row.
	WithHeadingRow bool

	// WithHeadingColumn marks column 0 as a heading column.
	WithHeadingColumn bool

	// ColumnWidths holds one pixel width per column, or nil for
	// proportional layout.
	ColumnWidths []int
}

// New creates a grid of empty cells. Dimensions below 1 are raised to 1.
func New(rows, cols int) *Grid {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	g := &Grid{rows: make([][]Cell, rows)}
	for r := range g.rows {
		g.rows[r] = make([]Cell, cols)
	}
	return g
}

// Rows returns the row count.
func (g *Grid) Rows() int { return len(g.rows) }

// Cols returns the column count.
func (g *Grid) Cols() int {
	if len(g.rows) == 0 {
		return 0
	}
	return len(g.rows[0])
}

// InRange reports whether (row, col) addresses a cell.
func (g *Grid) InRange(row, col int) bool {
	return row >= 0 && row < g.Rows() && col >= 0 && col < g.Cols()
}

// Cell returns the cell at (row, col). Out-of-range positions yield an
// empty cell.
func (g *Grid) Cell(row, col int) Cell {
	if !g.InRange(row, col) {
		return EmptyCell()
	}
	return g.rows[row][col]
}

// SetCell replaces the cell at (row, col).
func (g *Grid) SetCell(row, col int, c Cell) error {
	if !g.InRange(row, col) {
		return ErrOutOfRange
	}
	g.rows[row][col] = c
	return nil
}

// Row returns a copy of the cells of one row.
func (g *Grid) Row(row int) []Cell {
	if row < 0 || row >= g.Rows() {
		return nil
	}
	out := make([]Cell, g.Cols())
	for c := range out {
		out[c] = g.rows[row][c].Clone()
	}
	return out
}

// EmptyRow returns a slice of empty cells matching the column count.
func (g *Grid) EmptyRow() []Cell {
	return make([]Cell, g.Cols())
}

// InsertRow inserts cells as a new row at index. A nil cells slice inserts
// an empty row. Index is clamped to [0, Rows()].
func (g *Grid) InsertRow(index int, cells []Cell) error {
	if cells == nil {
		cells = g.EmptyRow()
	}
	if len(cells) != g.Cols() {
		return ErrRaggedRow
	}
	if index < 0 {
		index = 0
	}
	if index > len(g.rows) {
		index = len(g.rows)
	}
	g.rows = append(g.rows, nil)
	copy(g.rows[index+1:], g.rows[index:])
	g.rows[index] = cells
	return nil
}

// DeleteRow removes the row at index. Deleting the last remaining row is
// refused with ErrAtMinimum and leaves the grid unchanged.
func (g *Grid) DeleteRow(index int) error {
	if len(g.rows) <= 1 {
		return ErrAtMinimum
	}
	if index < 0 || index >= len(g.rows) {
		return ErrOutOfRange
	}
	g.rows = append(g.rows[:index], g.rows[index+1:]...)
	return nil
}

// InsertColumn inserts cells as a new column at index. A nil cells slice
// inserts empty cells. In pixel layout the new column gets
// DefaultColumnWidth so ColumnWidths keeps matching the column count.
func (g *Grid) InsertColumn(index int, cells []Cell) error {
	if cells == nil {
		cells = make([]Cell, g.Rows())
	}
	if len(cells) != g.Rows() {
		return ErrRaggedRow
	}
	if index < 0 {
		index = 0
	}
	if index > g.Cols() {
		index = g.Cols()
	}
	for r := range g.rows {
		row := g.rows[r]
		row = append(row, Cell{})
		copy(row[index+1:], row[index:])
		row[index] = cells[r]
		g.rows[r] = row
	}
	if g.ColumnWidths != nil {
		g.ColumnWidths = append(g.ColumnWidths, 0)
		copy(g.ColumnWidths[index+1:], g.ColumnWidths[index:])
		g.ColumnWidths[index] = DefaultColumnWidth
	}
	return nil
}

// DeleteColumn removes the column at index. Deleting the last remaining
// column is refused with ErrAtMinimum and leaves the grid unchanged.
func (g *Grid) DeleteColumn(index int) error {
	if g.Cols() <= 1 {
		return ErrAtMinimum
	}
	if index < 0 || index >= g.Cols() {
		return ErrOutOfRange
	}
	for r := range g.rows {
		g.rows[r] = append(g.rows[r][:index], g.rows[r][index+1:]...)
	}
	if g.ColumnWidths != nil {
		g.ColumnWidths = append(g.ColumnWidths[:index], g.ColumnWidths[index+1:]...)
	}
	return nil
}

// MoveRow moves the row at from to position to. Cells move verbatim; block
// references are never copied.
func (g *Grid) MoveRow(from, to int) error {
	if from < 0 || from >= len(g.rows) || to < 0 || to >= len(g.rows) {
		return ErrOutOfRange
	}
	if from == to {
		return nil
	}
	row := g.rows[from]
	g.rows = append(g.rows[:from], g.rows[from+1:]...)
	g.rows = append(g.rows, nil)
	copy(g.rows[to+1:], g.rows[to:])
	g.rows[to] = row
	return nil
}

// MoveColumn moves the column at from to position to, keeping
// ColumnWidths aligned.
func (g *Grid) MoveColumn(from, to int) error {
	if from < 0 || from >= g.Cols() || to < 0 || to >= g.Cols() {
		return ErrOutOfRange
	}
	if from == to {
		return nil
	}
	for r := range g.rows {
		row := g.rows[r]
		cell := row[from]
		row = append(row[:from], row[from+1:]...)
		row = append(row, Cell{})
		copy(row[to+1:], row[to:])
		row[to] = cell
		g.rows[r] = row
	}
	if g.ColumnWidths != nil {
		w := g.ColumnWidths[from]
		g.ColumnWidths = append(g.ColumnWidths[:from], g.ColumnWidths[from+1:]...)
		g.ColumnWidths = append(g.ColumnWidths, 0)
		copy(g.ColumnWidths[to+1:], g.ColumnWidths[to:])
		g.ColumnWidths[to] = w
	}
	return nil
}

// ExpandTo grows the grid to at least rows x cols by appending empty rows
// and columns. It never shrinks.
func (g *Grid) ExpandTo(rows, cols int) {
	for g.Cols() < cols {
		_ = g.InsertColumn(g.Cols(), nil)
	}
	for g.Rows() < rows {
		_ = g.InsertRow(g.Rows(), nil)
	}
}

// ContentIDs returns the de-duplicated union of every cell's block
// references, in row-major first-seen order. This is the derived value the
// host document persists for child reference tracking.
func (g *Grid) ContentIDs() []block.ID {
	seen := make(map[block.ID]struct{})
	var out []block.ID
	for _, row := range g.rows {
		for _, cell := range row {
			for _, id := range cell.Content {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// References reports whether any cell references id.
func (g *Grid) References(id block.ID) bool {
	for _, row := range g.rows {
		for _, cell := range row {
			for _, ref := range cell.Content {
				if ref == id {
					return true
				}
			}
		}
	}
	return false
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{
		rows:              make([][]Cell, len(g.rows)),
		WithHeadingRow:    g.WithHeadingRow,
		WithHeadingColumn: g.WithHeadingColumn,
	}
	for r, row := range g.rows {
		out.rows[r] = make([]Cell, len(row))
		for c := range row {
			out.rows[r][c] = row[c].Clone()
		}
	}
	if g.ColumnWidths != nil {
		out.ColumnWidths = append([]int(nil), g.ColumnWidths...)
	}
	return out
}

// Rectangular reports whether every row has the same length and
// ColumnWidths (when present) matches it. Held after every mutator; exposed
// for tests.
func (g *Grid) Rectangular() bool {
	if len(g.rows) == 0 {
		return false
	}
	cols := len(g.rows[0])
	if cols == 0 {
		return false
	}
	for _, row := range g.rows {
		if len(row) != cols {
			return false
		}
	}
	return g.ColumnWidths == nil || len(g.ColumnWidths) == cols
}
