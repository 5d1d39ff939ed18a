package app

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/config"
	"github.com/dshills/gridstorm/internal/document"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/gesture"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/menu"
	"github.com/dshills/gridstorm/internal/paste"
	"github.com/dshills/gridstorm/internal/render"
	"github.com/dshills/gridstorm/internal/resize"
	"github.com/dshills/gridstorm/internal/selection"
	"github.com/dshills/gridstorm/internal/structure"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the TOML configuration file.
	ConfigPath string

	// DocPath is the host document to open. Empty starts a fresh
	// document with one empty table.
	DocPath string

	// ReadOnly starts the surface in read-only mode.
	ReadOnly bool
}

// defaultRows and defaultCols size a freshly created table.
const (
	defaultRows = 3
	defaultCols = 3
)

// Application wires the grid engine's components and runs the event loop.
type Application struct {
	mu   sync.Mutex
	opts Options
	cfg  config.Config

	bus  *event.Bus
	tree *block.MemoryTree
	doc  *document.Document

	recordID string
	g        *grid.Grid

	menus   *menu.Registry
	arbiter *gesture.Arbiter
	sel     *selection.Controller
	resizer *resize.Controller
	editor  *structure.Editor
	engine  *paste.Engine
	clip    paste.Clipboard

	term   *render.Terminal
	screen render.Backend
	view   *render.View
	layout *render.Layout

	scrollX   int
	target    pointerTarget
	pasting   bool
	pasted    []rune
	gripUntil time.Time

	running     atomic.Bool
	watchCancel context.CancelFunc
}

// New creates an application and bootstraps its components.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = cfg

	app.bus = event.NewBus()
	app.tree = block.NewMemoryTree()
	app.doc = document.New(app.tree)
	app.clip = paste.NewMemoryClipboard()

	if err := app.loadDocument(); err != nil {
		return &InitError{Component: "document", Err: err}
	}

	app.menus = menu.NewRegistry()
	app.arbiter = gesture.NewArbiter()
	app.sel = selection.New(app.g, app.tree, app.bus, app.menus, app.arbiter, selection.Options{
		Threshold: cfg.DragThreshold,
		Swatches:  cfg.Swatches,
		Copy:      app.copyCells,
	})
	app.resizer = resize.New(app.g, app.bus, app.arbiter, resize.Options{
		MinWidth:        cfg.MinColumnWidth,
		SelectionActive: app.sel.Active,
	})
	app.editor = structure.New(app.g, app.tree, app.bus, app.arbiter, app.sel, app.menus, structure.Options{
		RowHeight:   cfg.RowHeight,
		ColumnUnit:  cfg.DefaultColumnWidth / render.PxPerCell,
		UnitIndexAt: app.unitIndexAt,
		ScrollX:     func() int { return app.scrollX },
		SetScrollX:  func(x int) { app.scrollX = x },
	})
	app.engine = paste.NewEngine(app.doc, app.bus)
	return nil
}

// loadDocument opens the host document from DocPath, or starts a fresh
// one holding a single empty table.
func (app *Application) loadDocument() error {
	ctx := context.Background()
	if app.opts.DocPath != "" {
		raw, err := os.ReadFile(app.opts.DocPath)
		if err == nil {
			if err := app.doc.Unmarshal(raw); err != nil {
				return err
			}
			for _, rec := range app.doc.Records() {
				if rec.Type != document.ToolTable {
					continue
				}
				g, err := grid.Load(ctx, app.tree, rec.Data)
				if err != nil {
					return err
				}
				app.recordID = rec.ID
				app.g = g
				return nil
			}
			return ErrNoTable
		}
		if !os.IsNotExist(err) {
			return err
		}
	}

	g := grid.New(defaultRows, defaultCols)
	data, err := g.Marshal()
	if err != nil {
		return err
	}
	rec := app.doc.Append(document.ToolTable, data)
	app.recordID = rec.ID
	app.g = g
	return nil
}

// SetBackend sets the terminal backend. Must be called before Run.
func (app *Application) SetBackend(t *render.Terminal) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.running.Load() {
		return ErrAlreadyRunning
	}
	app.term = t
	app.screen = t
	return nil
}

// Run starts the main loop and blocks until quit.
func (app *Application) Run() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.term.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	defer app.term.Shutdown()

	app.view = render.NewView(app.screen, app.tree)
	if app.opts.ReadOnly {
		app.view.SetMode(render.ModeReadOnly)
	}
	app.startConfigWatch()

	for {
		app.draw()
		ev := app.term.PollEvent()
		if ev == nil {
			return app.save()
		}
		if err := app.handleEvent(ev); err != nil {
			if err == ErrQuit {
				return app.save()
			}
			return err
		}
	}
}

// Shutdown interrupts a blocked Run.
func (app *Application) Shutdown() {
	if app.watchCancel != nil {
		app.watchCancel()
	}
	if app.term != nil {
		app.term.PostQuit()
	}
}

// startConfigWatch reloads presentation options when the config file
// changes. Gesture thresholds bind at startup.
func (app *Application) startConfigWatch() {
	if app.opts.ConfigPath == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	app.watchCancel = cancel
	go func() {
		_ = config.Watch(ctx, app.opts.ConfigPath, func(cfg config.Config) {
			app.mu.Lock()
			app.cfg = cfg
			app.mu.Unlock()
		})
	}()
}

// save writes the document back to DocPath.
func (app *Application) save() error {
	if err := app.doc.SaveTable(app.recordID, app.g); err != nil {
		return err
	}
	if app.opts.DocPath == "" {
		return nil
	}
	raw, err := app.doc.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(app.opts.DocPath, raw, 0o644)
}

// copyCells encodes the selected cells onto the clipboard.
func (app *Application) copyCells(cells [][]grid.Cell) {
	_ = app.clip.Write(paste.Encode(app.tree, cells))
}

// unitIndexAt maps a pointer position to a row/column slot using the
// frame's layout.
func (app *Application) unitIndexAt(axis structure.Axis, px gesture.Point) int {
	lay := app.currentLayout()
	if axis == structure.AxisRow {
		return lay.UnitIndexAt(0, px)
	}
	return lay.UnitIndexAt(1, px)
}

// currentLayout recomputes geometry from the grid's present shape.
func (app *Application) currentLayout() *render.Layout {
	width, _ := app.screen.Size()
	lay := render.NewLayout(app.g, width-gutterX-2)
	lay.OriginX = gutterX
	lay.OriginY = gutterY
	lay.ScrollX = app.scrollX
	app.layout = lay
	return lay
}

// gutterX and gutterY leave room for grips left of and above the grid.
const (
	gutterX = 4
	gutterY = 2
)

func (app *Application) draw() {
	lay := app.currentLayout()
	app.view.Draw(render.Frame{
		Grid:      app.g,
		Layout:    lay,
		Sel:       app.sel,
		Ghost:     app.editor.Ghost(),
		Menus:     app.menus,
		ShowGrips: time.Now().Before(app.gripUntil),
	})
}

// armGrips keeps hover grips visible for the configured delay after the
// last pointer activity.
func (app *Application) armGrips() {
	app.mu.Lock()
	delay := time.Duration(app.cfg.GripHideDelayMs) * time.Millisecond
	app.mu.Unlock()
	app.gripUntil = time.Now().Add(delay)
}
