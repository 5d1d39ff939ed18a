package render

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/menu"
	"github.com/dshills/gridstorm/internal/selection"
	"github.com/dshills/gridstorm/internal/structure"
)

// Mode selects between the interactive editor surface and the read-only
// surface. Switching modes changes what is drawn, nothing else.
type Mode uint8

const (
	// ModeEdit draws grips, handles, add buttons, and selection.
	ModeEdit Mode = iota
	// ModeReadOnly draws only the grid content.
	ModeReadOnly
)

// Frame is everything the view needs to draw one frame.
type Frame struct {
	Grid   *grid.Grid
	Layout *Layout
	Sel    *selection.Controller
	Ghost  *structure.Ghost
	Menus  *menu.Registry

	// ShowGrips draws the hover grips. The host keeps it true for a
	// configured delay after the last pointer activity.
	ShowGrips bool
}

// View draws a grid frame onto a Backend.
type View struct {
	backend Backend
	tree    block.Tree
	mode    Mode
}

// NewView creates a view in edit mode.
func NewView(backend Backend, tree block.Tree) *View {
	return &View{backend: backend, tree: tree}
}

// SetMode switches between edit and read-only rendering.
func (v *View) SetMode(m Mode) { v.mode = m }

// Mode returns the current rendering mode.
func (v *View) Mode() Mode { return v.mode }

// Draw renders one frame and flushes it.
func (v *View) Draw(f Frame) {
	v.backend.Clear()
	v.drawBorders(f)
	v.drawCells(f)
	if v.mode == ModeEdit {
		if f.ShowGrips {
			v.drawGrips(f)
		}
		v.drawAddButtons(f)
		v.drawGhost(f)
		v.drawMenus(f)
	}
	v.backend.Show()
}

func (v *View) drawBorders(f Frame) {
	lay := f.Layout
	g := f.Grid
	style := tcell.StyleDefault
	left := lay.OriginX - lay.ScrollX
	right := left + lay.Width() - 1
	bottom := lay.OriginY + lay.Height() - 1

	for y := lay.OriginY; y <= bottom; y++ {
		horizontal := (y-lay.OriginY)%rowPitch == 0
		for x := left; x <= right; x++ {
			if !horizontal {
				continue
			}
			v.backend.SetContent(x, y, '─', style)
		}
		v.backend.SetContent(left, y, borderRune(0, y, lay), style)
		v.backend.SetContent(right, y, borderRune(g.Cols(), y, lay), style)
		for c := 1; c < g.Cols(); c++ {
			v.backend.SetContent(lay.colX(c)-lay.ScrollX, y, borderRune(c, y, lay), style)
		}
	}
}

// borderRune picks the junction rune for the border left of column c at
// screen line y.
func borderRune(c, y int, lay *Layout) rune {
	top := y == lay.OriginY
	bottom := y == lay.OriginY+lay.Height()-1
	horizontal := (y-lay.OriginY)%rowPitch == 0
	first := c == 0
	last := lay.colX(c) == lay.colX(len(lay.widths))
	switch {
	case !horizontal:
		return '│'
	case top && first:
		return '┌'
	case top && last:
		return '┐'
	case bottom && first:
		return '└'
	case bottom && last:
		return '┘'
	case top:
		return '┬'
	case bottom:
		return '┴'
	case first:
		return '├'
	case last:
		return '┤'
	default:
		return '┼'
	}
}

func (v *View) drawCells(f Frame) {
	g := f.Grid
	lay := f.Layout
	for r := 0; r < g.Rows(); r++ {
		y := lay.RowY(r)
		for c := 0; c < g.Cols(); c++ {
			cell := g.Cell(r, c)
			style := v.cellStyle(f, r, c, cell)
			x := lay.ColStart(c)
			w := lay.widths[c]
			for i := 0; i < w; i++ {
				v.backend.SetContent(x+i, y, ' ', style)
			}
			drawText(v.backend, x, y, w, cellText(v.tree, cell), style)
		}
	}
}

func (v *View) cellStyle(f Frame, row, col int, cell grid.Cell) tcell.Style {
	style := tcell.StyleDefault
	if bg, ok := hexColor(cell.Background); ok {
		style = style.Background(bg)
	}
	if fg, ok := hexColor(cell.TextColor); ok {
		style = style.Foreground(fg)
	}
	heading := (f.Grid.WithHeadingRow && row == 0) ||
		(f.Grid.WithHeadingColumn && col == 0)
	if heading {
		style = style.Bold(true)
	}
	if v.mode == ModeEdit && f.Sel != nil && f.Sel.Contains(row, col) {
		style = style.Reverse(true)
	}
	return style
}

func (v *View) drawGrips(f Frame) {
	lay := f.Layout
	style := tcell.StyleDefault.Dim(true)
	for r := 0; r < f.Grid.Rows(); r++ {
		v.backend.SetContent(lay.OriginX-2, lay.RowY(r), '⣿', style)
	}
	for c := 0; c < f.Grid.Cols(); c++ {
		x := lay.colX(c) + 1 + lay.widths[c]/2 - lay.ScrollX
		v.backend.SetContent(x, lay.OriginY-1, '⠿', style)
	}
}

func (v *View) drawAddButtons(f Frame) {
	lay := f.Layout
	style := tcell.StyleDefault.Dim(true)
	left := lay.OriginX - lay.ScrollX
	y := lay.OriginY + lay.Height()
	for x := left; x < left+lay.Width(); x++ {
		v.backend.SetContent(x, y, '+', style)
	}
	x := left + lay.Width()
	for cy := lay.OriginY + 1; cy < lay.OriginY+lay.Height(); cy++ {
		v.backend.SetContent(x, cy, '+', style)
	}
}

func (v *View) drawGhost(f Frame) {
	if f.Ghost == nil {
		return
	}
	lay := f.Layout
	style := tcell.StyleDefault.Dim(true)
	if f.Ghost.Axis == structure.AxisRow {
		y := f.Ghost.Pos.Y
		left := lay.OriginX - lay.ScrollX
		for x := left; x < left+lay.Width(); x++ {
			v.backend.SetContent(x, y, '░', style)
		}
		return
	}
	x := f.Ghost.Pos.X
	for y := lay.OriginY; y < lay.OriginY+lay.Height(); y++ {
		v.backend.SetContent(x, y, '░', style)
	}
}

func (v *View) drawMenus(f Frame) {
	if f.Menus == nil {
		return
	}
	for _, pop := range f.Menus.Stack() {
		v.drawPopover(pop)
	}
}

func (v *View) drawPopover(p *menu.Popover) {
	w := p.Width()
	base := tcell.StyleDefault.Reverse(true)
	for i, item := range p.Items {
		y := p.Anchor.Y + i
		style := base
		if item.Disabled {
			style = style.Dim(true)
		}
		label := " " + item.Label
		if item.Nested != nil {
			label = label + " ▸"
		}
		for x := 0; x < w; x++ {
			v.backend.SetContent(p.Anchor.X+x, y, ' ', style)
		}
		drawText(v.backend, p.Anchor.X, y, w, label, style)
	}
}

// cellText joins the cell's paragraph texts with spaces.
func cellText(tree block.Tree, cell grid.Cell) string {
	if len(cell.Content) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cell.Content))
	for _, id := range cell.Content {
		if s := block.TextOf(tree, id); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// drawText writes s into a field of width w, truncating on grapheme
// boundaries with an ellipsis.
func drawText(b Backend, x, y, w int, s string, style tcell.Style) {
	if w <= 0 || s == "" {
		return
	}
	truncated := uniseg.StringWidth(s) > w
	limit := w
	if truncated {
		limit = w - 1
	}
	pos := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cw := gr.Width()
		if pos+cw > limit {
			break
		}
		runes := gr.Runes()
		b.SetContent(x+pos, y, runes[0], style)
		pos += cw
	}
	if truncated {
		b.SetContent(x+pos, y, '…', style)
	}
}

// hexColor parses a #rrggbb string into a terminal color.
func hexColor(s string) (tcell.Color, bool) {
	if s == "" {
		return 0, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, false
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), true
}
