package render

import (
	"github.com/dshills/gridstorm/internal/gesture"
	"github.com/dshills/gridstorm/internal/grid"
)

// PxPerCell converts logical pixel widths to screen columns. Persisted
// column widths and the resize floor are in logical pixels; the terminal
// draws in character cells.
const PxPerCell = 8

// rowPitch is the screen height of one grid row: one content line plus
// the border line below it.
const rowPitch = 2

const minScreenColumns = 3

// Layout maps grid coordinates to screen coordinates and back. It is
// recomputed from the grid on every frame.
type Layout struct {
	OriginX int
	OriginY int
	ScrollX int

	rows   int
	widths []int
}

// NewLayout computes column geometry for a grid. When the grid has no
// explicit widths the available width is split evenly.
func NewLayout(g *grid.Grid, avail int) *Layout {
	lay := &Layout{rows: g.Rows()}
	cols := g.Cols()
	lay.widths = make([]int, cols)
	if g.ColumnWidths != nil {
		for i, px := range g.ColumnWidths {
			w := px / PxPerCell
			if w < minScreenColumns {
				w = minScreenColumns
			}
			lay.widths[i] = w
		}
		return lay
	}
	inner := avail - (cols + 1)
	share := inner / cols
	if share < minScreenColumns {
		share = minScreenColumns
	}
	for i := range lay.widths {
		lay.widths[i] = share
	}
	return lay
}

// Widths returns the screen width of each column.
func (l *Layout) Widths() []int { return l.widths }

// PixelWidths returns the rendered widths in logical pixels. The resize
// controller uses these to pin proportional columns on first drag.
func (l *Layout) PixelWidths() []int {
	px := make([]int, len(l.widths))
	for i, w := range l.widths {
		px[i] = w * PxPerCell
	}
	return px
}

// Width returns the total screen width including borders.
func (l *Layout) Width() int {
	w := len(l.widths) + 1
	for _, cw := range l.widths {
		w += cw
	}
	return w
}

// Height returns the total screen height including borders.
func (l *Layout) Height() int { return l.rows*rowPitch + 1 }

// colX returns the screen x of the border left of column i, before scroll.
func (l *Layout) colX(i int) int {
	x := l.OriginX
	for c := 0; c < i; c++ {
		x += l.widths[c] + 1
	}
	return x
}

// ColStart returns the screen x of the first content cell of a column.
func (l *Layout) ColStart(i int) int { return l.colX(i) + 1 - l.ScrollX }

// RowY returns the screen y of a row's content line.
func (l *Layout) RowY(r int) int { return l.OriginY + 1 + r*rowPitch }

// CellAt maps a screen point to a cell. Border lines are not cells.
func (l *Layout) CellAt(p gesture.Point) (row, col int, ok bool) {
	x := p.X + l.ScrollX
	y := p.Y
	if y <= l.OriginY || y >= l.OriginY+l.Height()-1 {
		return 0, 0, false
	}
	dy := y - l.OriginY - 1
	if dy%rowPitch != 0 {
		return 0, 0, false
	}
	row = dy / rowPitch
	cx := l.OriginX
	for c, w := range l.widths {
		cx++
		if x >= cx && x < cx+w {
			return row, c, true
		}
		cx += w
	}
	return 0, 0, false
}

// NearestCell maps a screen point to the closest cell, clamping to the
// grid edges. Drag extension uses this so a pointer on a border or past
// an edge still grows the selection.
func (l *Layout) NearestCell(p gesture.Point) (row, col int) {
	x := p.X + l.ScrollX
	dy := p.Y - l.OriginY - 1
	row = dy / rowPitch
	if row < 0 {
		row = 0
	}
	if row >= l.rows {
		row = l.rows - 1
	}
	col = len(l.widths) - 1
	cx := l.OriginX + 1
	for c, w := range l.widths {
		if x < cx+w {
			col = c
			break
		}
		cx += w + 1
	}
	if col < 0 {
		col = 0
	}
	return row, col
}

// BoundaryAt reports the column whose right border lies under the point.
// This is the hit zone for the resize handle.
func (l *Layout) BoundaryAt(p gesture.Point) (col int, ok bool) {
	x := p.X + l.ScrollX
	if p.Y <= l.OriginY || p.Y >= l.OriginY+l.Height() {
		return 0, false
	}
	for c := range l.widths {
		if x == l.colX(c+1) {
			return c, true
		}
	}
	return 0, false
}

// RowGripAt reports the row whose grip lies under the point. Grips render
// in the gutter left of the grid, one per row content line.
func (l *Layout) RowGripAt(p gesture.Point) (row int, ok bool) {
	if p.X != l.OriginX-2 {
		return 0, false
	}
	for r := 0; r < l.rows; r++ {
		if p.Y == l.RowY(r) {
			return r, true
		}
	}
	return 0, false
}

// ColumnGripAt reports the column whose grip lies under the point. Grips
// render on the line above the grid, centered over each column.
func (l *Layout) ColumnGripAt(p gesture.Point) (col int, ok bool) {
	if p.Y != l.OriginY-1 {
		return 0, false
	}
	x := p.X + l.ScrollX
	for c, w := range l.widths {
		start := l.colX(c) + 1
		if x >= start && x < start+w {
			return c, true
		}
	}
	return 0, false
}

// AddRowButtonAt reports whether the point is on the add-row strip along
// the grid's bottom edge.
func (l *Layout) AddRowButtonAt(p gesture.Point) bool {
	x := p.X + l.ScrollX
	return p.Y == l.OriginY+l.Height() &&
		x >= l.OriginX && x < l.OriginX+l.Width()
}

// AddColumnButtonAt reports whether the point is on the add-column strip
// along the grid's right edge.
func (l *Layout) AddColumnButtonAt(p gesture.Point) bool {
	x := p.X + l.ScrollX
	return x == l.OriginX+l.Width() &&
		p.Y > l.OriginY && p.Y < l.OriginY+l.Height()
}

// UnitIndexAt maps a screen point to a row or column slot index for
// reorder drops. Points past either end clamp to the ends.
func (l *Layout) UnitIndexAt(axis int, p gesture.Point) int {
	if axis == 0 { // row
		idx := (p.Y - l.OriginY) / rowPitch
		if idx < 0 {
			idx = 0
		}
		if idx >= l.rows {
			idx = l.rows - 1
		}
		return idx
	}
	_, col := l.NearestCell(p)
	return col
}
