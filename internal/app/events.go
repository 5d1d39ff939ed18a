package app

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gridstorm/internal/gesture"
	"github.com/dshills/gridstorm/internal/paste"
	"github.com/dshills/gridstorm/internal/render"
	"github.com/dshills/gridstorm/internal/selection"
	"github.com/dshills/gridstorm/internal/structure"
)

// pointerTarget tracks which controller owns the held pointer.
type pointerTarget uint8

const (
	targetNone pointerTarget = iota
	targetSelect
	targetResize
	targetRowGrip
	targetColGrip
	targetAddRow
	targetAddCol
)

// handleEvent routes one terminal event. Returns ErrQuit to exit.
func (app *Application) handleEvent(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		return ErrQuit
	case *tcell.EventResize:
		return nil
	case *tcell.EventKey:
		return app.handleKey(ev)
	case *tcell.EventMouse:
		app.handleMouse(ev)
		return nil
	case *tcell.EventPaste:
		app.handlePasteMarker(ev)
		return nil
	default:
		return nil
	}
}

func (app *Application) handleKey(ev *tcell.EventKey) error {
	if app.pasting {
		app.collectPaste(ev)
		return nil
	}

	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyCtrlQ:
		return ErrQuit
	case tcell.KeyEscape:
		// One Escape closes the whole menu tree; the next clears the
		// selection.
		if app.menus.IsOpen() {
			app.menus.CloseAll()
			return nil
		}
		app.sel.Clear()
		return nil
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		if app.view.Mode() == render.ModeEdit {
			app.sel.DeleteContents()
		}
		return nil
	case tcell.KeyCtrlV:
		if app.view.Mode() == render.ModeEdit {
			app.pasteFromClipboard()
		}
		return nil
	case tcell.KeyCtrlR:
		app.toggleReadOnly()
		return nil
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			return ErrQuit
		}
		return nil
	default:
		return nil
	}
}

// toggleReadOnly flips the rendering mode. The model is untouched either
// way; an in-flight gesture is dropped.
func (app *Application) toggleReadOnly() {
	if app.view.Mode() == render.ModeEdit {
		app.menus.CloseAll()
		app.sel.Clear()
		app.target = targetNone
		app.view.SetMode(render.ModeReadOnly)
		return
	}
	app.view.SetMode(render.ModeEdit)
}

func (app *Application) handleMouse(ev *tcell.EventMouse) {
	if app.view.Mode() == render.ModeReadOnly {
		return
	}
	app.armGrips()
	x, y := ev.Position()
	pt := gesture.Point{X: x, Y: y}

	switch {
	case ev.Buttons()&tcell.Button1 != 0 && app.target == targetNone:
		app.pointerDown(pt)
	case ev.Buttons()&tcell.Button2 != 0:
		app.contextClick(pt)
	case ev.Buttons() == tcell.ButtonNone && app.target != targetNone:
		app.pointerUp(pt)
	default:
		app.pointerMove(pt)
	}
}

func (app *Application) pointerDown(pt gesture.Point) {
	if app.menus.IsOpen() {
		if app.menus.Click(pt) {
			return
		}
		// Click fell outside and closed the tree; the press still lands
		// on whatever is underneath.
	}
	lay := app.currentLayout()

	if lay.AddRowButtonAt(pt) {
		app.editor.BeginAddRemove(structure.AxisRow, pt)
		app.target = targetAddRow
		return
	}
	if lay.AddColumnButtonAt(pt) {
		app.editor.BeginAddRemove(structure.AxisColumn, pt)
		app.target = targetAddCol
		return
	}
	if row, ok := lay.RowGripAt(pt); ok {
		app.editor.BeginReorder(structure.AxisRow, row, pt)
		app.target = targetRowGrip
		return
	}
	if col, ok := lay.ColumnGripAt(pt); ok {
		app.editor.BeginReorder(structure.AxisColumn, col, pt)
		app.target = targetColGrip
		return
	}
	if col, ok := lay.BoundaryAt(pt); ok {
		if app.resizer.Begin(col, lay.PixelWidths(), scalePx(pt)) {
			app.target = targetResize
			return
		}
	}
	if row, col, ok := lay.CellAt(pt); ok {
		app.sel.PointerDown(selection.Pos{Row: row, Col: col}, pt)
		app.target = targetSelect
		return
	}
	// Press on dead space clears any selection.
	app.sel.Clear()
}

func (app *Application) pointerMove(pt gesture.Point) {
	lay := app.currentLayout()
	switch app.target {
	case targetSelect:
		row, col := lay.NearestCell(pt)
		app.sel.PointerMove(selection.Pos{Row: row, Col: col}, pt)
	case targetResize:
		app.resizer.Move(scalePx(pt))
	case targetRowGrip:
		app.editor.MoveReorder(structure.AxisRow, pt)
	case targetColGrip:
		app.editor.MoveReorder(structure.AxisColumn, pt)
	case targetAddRow, targetAddCol:
		app.editor.MoveAddRemove(pt)
	}
}

func (app *Application) pointerUp(pt gesture.Point) {
	target := app.target
	app.target = targetNone
	switch target {
	case targetSelect:
		app.sel.PointerUp()
	case targetResize:
		app.resizer.End()
	case targetRowGrip:
		if !app.editor.DropReorder(structure.AxisRow, pt) {
			if row, ok := app.currentLayout().RowGripAt(pt); ok {
				app.editor.GripClick(structure.AxisRow, row, pt)
			}
		}
	case targetColGrip:
		if !app.editor.DropReorder(structure.AxisColumn, pt) {
			if col, ok := app.currentLayout().ColumnGripAt(pt); ok {
				app.editor.GripClick(structure.AxisColumn, col, pt)
			}
		}
	case targetAddRow, targetAddCol:
		app.editor.EndAddRemove()
	}
}

// contextClick opens the selection menu when the press lands inside the
// established selection.
func (app *Application) contextClick(pt gesture.Point) {
	lay := app.currentLayout()
	row, col, ok := lay.CellAt(pt)
	if !ok || !app.sel.Contains(row, col) {
		return
	}
	app.sel.OpenMenu(pt)
}

// scalePx converts a screen point to logical pixels for the resize
// controller, whose widths persist in pixels.
func scalePx(pt gesture.Point) gesture.Point {
	return gesture.Point{X: pt.X * render.PxPerCell, Y: pt.Y}
}

// handlePasteMarker brackets a terminal paste. Runes arriving between
// the start and end markers accumulate into one payload.
func (app *Application) handlePasteMarker(ev *tcell.EventPaste) {
	if ev.Start() {
		app.pasting = true
		app.pasted = app.pasted[:0]
		return
	}
	if !ev.End() {
		return
	}
	app.pasting = false
	text := string(app.pasted)
	app.pasted = nil
	if app.view.Mode() == render.ModeReadOnly || text == "" {
		return
	}
	app.mergePayload(paste.Payload{Text: text})
}

func (app *Application) collectPaste(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		app.pasted = append(app.pasted, ev.Rune())
	case tcell.KeyEnter:
		app.pasted = append(app.pasted, '\n')
	case tcell.KeyTab:
		app.pasted = append(app.pasted, '\t')
	}
}

// pasteFromClipboard merges the in-process clipboard at the anchor cell.
func (app *Application) pasteFromClipboard() {
	payload, err := app.clip.Read()
	if err != nil {
		return
	}
	app.mergePayload(payload)
}

func (app *Application) mergePayload(payload paste.Payload) {
	anchor := paste.Anchor{}
	if rect, ok := app.sel.Rect(); ok {
		anchor = paste.Anchor{Row: rect.MinRow, Col: rect.MinCol}
	}
	res, err := app.engine.Merge(context.Background(), app.recordID, app.g, anchor, payload)
	if err != nil || !res.Merged {
		return
	}
	// Focus lands at the end of the pasted range.
	app.sel.Clear()
	app.sel.PointerDown(selection.Pos{Row: res.Caret.Row, Col: res.Caret.Col}, gesture.Point{})
	app.sel.PointerUp()
}
