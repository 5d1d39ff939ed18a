package resize

import (
	"testing"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/gesture"
	"github.com/dshills/gridstorm/internal/grid"
)

func newController(g *grid.Grid, selActive bool) *Controller {
	return New(g, event.NewBus(), gesture.NewArbiter(), Options{
		SelectionActive: func() bool { return selActive },
	})
}

func TestFirstResizeConvertsToPixelWidths(t *testing.T) {
	g := grid.New(2, 3)
	if g.ColumnWidths != nil {
		t.Fatal("new grid should be proportional")
	}
	c := newController(g, false)

	rendered := []int{150, 150, 40} // last column rendered below the floor
	if !c.Begin(0, rendered, gesture.Point{X: 150}) {
		t.Fatal("Begin refused")
	}

	if len(g.ColumnWidths) != 3 {
		t.Fatalf("ColumnWidths length = %d, want 3", len(g.ColumnWidths))
	}
	for i, w := range g.ColumnWidths {
		if w < MinColumnWidth {
			t.Errorf("ColumnWidths[%d] = %d, below floor %d", i, w, MinColumnWidth)
		}
	}
	c.End()
}

func TestMoveChangesOnlyDraggedColumn(t *testing.T) {
	g := grid.New(1, 3)
	g.ColumnWidths = []int{100, 100, 100}
	c := newController(g, false)

	if !c.Begin(1, nil, gesture.Point{X: 200}) {
		t.Fatal("Begin refused")
	}
	c.Move(gesture.Point{X: 230})
	c.End()

	want := []int{100, 130, 100}
	for i, w := range want {
		if g.ColumnWidths[i] != w {
			t.Errorf("ColumnWidths[%d] = %d, want %d", i, g.ColumnWidths[i], w)
		}
	}
}

func TestMoveClampsAtFloor(t *testing.T) {
	g := grid.New(1, 2)
	g.ColumnWidths = []int{100, 100}
	c := newController(g, false)

	c.Begin(0, nil, gesture.Point{X: 100})
	c.Move(gesture.Point{X: -400})
	c.End()

	if g.ColumnWidths[0] != MinColumnWidth {
		t.Errorf("width = %d, want clamp at %d", g.ColumnWidths[0], MinColumnWidth)
	}
	if g.ColumnWidths[1] != 100 {
		t.Errorf("neighbor width = %d, want untouched 100", g.ColumnWidths[1])
	}
}

func TestDisabledDuringSelection(t *testing.T) {
	g := grid.New(1, 2)
	g.ColumnWidths = []int{100, 100}
	c := newController(g, true)

	if c.Begin(0, nil, gesture.Point{X: 100}) {
		t.Error("Begin succeeded while a selection is active")
	}
	c.Move(gesture.Point{X: 300})
	if g.ColumnWidths[0] != 100 {
		t.Errorf("width changed to %d while disabled", g.ColumnWidths[0])
	}
}

func TestCommitAtLastPositionOnCancel(t *testing.T) {
	g := grid.New(1, 2)
	g.ColumnWidths = []int{100, 100}
	arbiter := gesture.NewArbiter()
	c := New(g, event.NewBus(), arbiter, Options{})

	c.Begin(0, nil, gesture.Point{X: 100})
	c.Move(gesture.Point{X: 160})

	// Another gesture takes over: the width committed so far stays.
	arbiter.Begin(gesture.KindSelect)

	if c.Dragging() {
		t.Error("still dragging after arbiter cancellation")
	}
	if g.ColumnWidths[0] != 160 {
		t.Errorf("width after cancel = %d, want 160", g.ColumnWidths[0])
	}
}

func TestBeginOutOfRange(t *testing.T) {
	g := grid.New(1, 2)
	g.ColumnWidths = []int{100, 100}
	c := newController(g, false)
	if c.Begin(5, nil, gesture.Point{}) {
		t.Error("Begin accepted out-of-range column")
	}
}

func TestResizePublishesLayoutEvent(t *testing.T) {
	g := grid.New(1, 2)
	g.ColumnWidths = []int{100, 100}
	bus := event.NewBus()
	published := 0
	bus.Subscribe(event.TopicGridLayout, func(event.Event) { published++ })
	c := New(g, bus, gesture.NewArbiter(), Options{})

	c.Begin(0, nil, gesture.Point{X: 100})
	c.Move(gesture.Point{X: 120})
	c.End()

	if published != 1 {
		t.Errorf("layout events = %d, want 1", published)
	}
}
