package menu

import (
	"testing"

	"github.com/dshills/gridstorm/internal/gesture"
)

func items(labels ...string) []Item {
	out := make([]Item, len(labels))
	for i, l := range labels {
		out[i] = Item{Label: l}
	}
	return out
}

func TestOpenReplacesTree(t *testing.T) {
	r := NewRegistry()
	r.Open(items("a", "b"), gesture.Point{})
	if !r.IsOpen() || r.Depth() != 1 {
		t.Fatalf("IsOpen=%v Depth=%d, want open depth 1", r.IsOpen(), r.Depth())
	}

	r.Open(items("c"), gesture.Point{X: 10})
	if r.Depth() != 1 {
		t.Errorf("Depth after re-open = %d, want 1", r.Depth())
	}
	if got := r.Stack()[0].Items[0].Label; got != "c" {
		t.Errorf("root label = %q, want %q", got, "c")
	}
}

func TestCloseAllClosesNestedTreeInOneStep(t *testing.T) {
	r := NewRegistry()
	root := r.Open(items("color"), gesture.Point{})
	child := r.OpenNested(root, items("red", "default"), gesture.Point{X: 12})
	if child == nil {
		t.Fatal("OpenNested returned nil")
	}
	r.OpenNested(child, items("deep"), gesture.Point{X: 24})
	if r.Depth() != 3 {
		t.Fatalf("Depth = %d, want 3", r.Depth())
	}

	// One Escape closes root and every nested level.
	r.CloseAll()
	if r.IsOpen() || r.Depth() != 0 {
		t.Errorf("tree still open after CloseAll: depth %d", r.Depth())
	}
}

func TestOpenNestedReplacesDeeperLevels(t *testing.T) {
	r := NewRegistry()
	root := r.Open([]Item{{Label: "color", Nested: items("red")}}, gesture.Point{})
	first := r.OpenNested(root, items("red"), gesture.Point{X: 12})
	r.OpenNested(first, items("deep"), gesture.Point{X: 24})

	r.OpenNested(root, items("blue"), gesture.Point{X: 12})
	if r.Depth() != 2 {
		t.Errorf("Depth = %d, want 2 after re-nesting at root", r.Depth())
	}
}

func TestClickRunsActionAndCloses(t *testing.T) {
	r := NewRegistry()
	ran := false
	r.Open([]Item{{Label: "copy", Action: func() { ran = true }}}, gesture.Point{X: 5, Y: 5})

	if !r.Click(gesture.Point{X: 6, Y: 5}) {
		t.Fatal("Click inside popover not consumed")
	}
	if !ran {
		t.Error("action did not run")
	}
	if r.IsOpen() {
		t.Error("tree open after action click")
	}
}

func TestClickDisabledItem(t *testing.T) {
	r := NewRegistry()
	ran := false
	r.Open([]Item{{Label: "delete", Disabled: true, Action: func() { ran = true }}}, gesture.Point{})

	if !r.Click(gesture.Point{X: 2, Y: 0}) {
		t.Fatal("Click on disabled item not consumed")
	}
	if ran {
		t.Error("disabled action ran")
	}
	if !r.IsOpen() {
		t.Error("tree closed by disabled click")
	}
}

func TestClickNestedOpensSubMenu(t *testing.T) {
	r := NewRegistry()
	r.Open([]Item{{Label: "color", Nested: items("red", "default")}}, gesture.Point{})

	if !r.Click(gesture.Point{X: 2, Y: 0}) {
		t.Fatal("Click on submenu item not consumed")
	}
	if r.Depth() != 2 {
		t.Errorf("Depth = %d, want 2 after opening nested", r.Depth())
	}
}

func TestClickOutsideClosesTree(t *testing.T) {
	r := NewRegistry()
	r.Open(items("a"), gesture.Point{X: 5, Y: 5})

	if r.Click(gesture.Point{X: 100, Y: 100}) {
		t.Error("outside click reported as consumed")
	}
	if r.IsOpen() {
		t.Error("tree open after outside click")
	}
}

func TestPopoverGeometry(t *testing.T) {
	p := &Popover{Items: items("ab", "wider-label"), Anchor: gesture.Point{X: 10, Y: 20}}
	if w := p.Width(); w != len("wider-label")+itemPadding*2 {
		t.Errorf("Width() = %d, want %d", w, len("wider-label")+itemPadding*2)
	}
	if h := p.Height(); h != 2 {
		t.Errorf("Height() = %d, want 2", h)
	}
	if p.ItemAt(gesture.Point{X: 11, Y: 21}) != 1 {
		t.Errorf("ItemAt second row = %d, want 1", p.ItemAt(gesture.Point{X: 11, Y: 21}))
	}
	if p.ItemAt(gesture.Point{X: 0, Y: 0}) != -1 {
		t.Errorf("ItemAt outside = %d, want -1", p.ItemAt(gesture.Point{X: 0, Y: 0}))
	}
}
