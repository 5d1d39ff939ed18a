package paste

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/document"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/grid"
)

type mergeHarness struct {
	tree   *block.MemoryTree
	doc    *document.Document
	engine *Engine
	g      *grid.Grid
	rec    *document.Record
}

// newMergeHarness builds a rows x cols grid whose cells hold the given
// labels ("" leaves the cell empty).
func newMergeHarness(t *testing.T, labels [][]string) *mergeHarness {
	t.Helper()
	h := &mergeHarness{tree: block.NewMemoryTree()}
	h.doc = document.New(h.tree)
	h.engine = NewEngine(h.doc, event.NewBus())
	h.g = grid.New(len(labels), len(labels[0]))
	ctx := context.Background()
	for r, row := range labels {
		for c, text := range row {
			if text == "" {
				continue
			}
			id, err := h.tree.Create(ctx, block.ToolParagraph, block.ParagraphData(text))
			if err != nil {
				t.Fatal(err)
			}
			_ = h.g.SetCell(r, c, grid.Cell{Content: []block.ID{id}})
		}
	}
	h.rec = h.doc.Append(document.ToolTable, "{}")
	return h
}

func (h *mergeHarness) text(r, c int) string {
	cell := h.g.Cell(r, c)
	if cell.IsEmpty() {
		return ""
	}
	return block.TextOf(h.tree, cell.Content[0])
}

// checkNoOrphans asserts contentIds equals exactly the set of resolvable
// referenced blocks.
func (h *mergeHarness) checkNoOrphans(t *testing.T) {
	t.Helper()
	ids := h.g.ContentIDs()
	for _, id := range ids {
		if _, ok := h.tree.Resolve(id); !ok {
			t.Errorf("orphaned reference %s: in contentIds without a live block", id)
		}
	}
}

func TestMergeReplacesRectangleOnly(t *testing.T) {
	// Pasting a 1x2 candidate at the origin of a 3x3 grid replaces only
	// that rectangle.
	h := newMergeHarness(t, [][]string{
		{"A1", "B1", "C1"},
		{"A2", "B2", "C2"},
		{"A3", "B3", "C3"},
	})
	before := h.g.Clone()

	res, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0},
		Payload{Text: "X\tY"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !res.Merged {
		t.Fatal("merge reported no-op")
	}

	if got := h.text(0, 0); got != "X" {
		t.Errorf("(0,0) = %q, want X", got)
	}
	if got := h.text(0, 1); got != "Y" {
		t.Errorf("(0,1) = %q, want Y", got)
	}

	// (0,2) and rows 1-2 are byte-for-byte identical to before.
	for _, pos := range [][2]int{{0, 2}, {1, 0}, {1, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}} {
		if !h.g.Cell(pos[0], pos[1]).Equal(before.Cell(pos[0], pos[1])) {
			t.Errorf("cell (%d,%d) changed outside the pasted rectangle", pos[0], pos[1])
		}
	}
	if h.g.Rows() != 3 || h.g.Cols() != 3 {
		t.Errorf("grid = %dx%d, want unchanged 3x3", h.g.Rows(), h.g.Cols())
	}

	if res.Caret != (Anchor{0, 1}) {
		t.Errorf("caret = %+v, want bottom-right pasted cell (0,1)", res.Caret)
	}
	h.checkNoOrphans(t)
}

func TestMergeDestroysReplacedBlocks(t *testing.T) {
	h := newMergeHarness(t, [][]string{{"old"}})
	replaced := h.g.Cell(0, 0).Content[0]

	_, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0},
		Payload{Text: "new"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if _, ok := h.tree.Resolve(replaced); ok {
		t.Error("replaced block still alive")
	}
	if got := h.text(0, 0); got != "new" {
		t.Errorf("(0,0) = %q, want new", got)
	}
	h.checkNoOrphans(t)
}

func TestMergeKeepsBlocksReferencedElsewhere(t *testing.T) {
	h := newMergeHarness(t, [][]string{{"shared", ""}})
	shared := h.g.Cell(0, 0).Content[0]
	// The same block is referenced at a second position outside the
	// pasted rectangle.
	_ = h.g.SetCell(0, 1, grid.Cell{Content: []block.ID{shared}})

	_, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0},
		Payload{Text: "paste"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if _, ok := h.tree.Resolve(shared); !ok {
		t.Error("block still referenced at (0,1) was destroyed")
	}
	h.checkNoOrphans(t)
}

func TestMergeGrowsColumnsNotExtraRows(t *testing.T) {
	h := newMergeHarness(t, [][]string{
		{"A1", "B1"},
		{"A2", "B2"},
	})

	// 1x2 candidate at anchor (0,1): needs column 2, no extra rows.
	_, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 1},
		Payload{Text: "X\tY"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if h.g.Cols() != 3 {
		t.Errorf("cols = %d, want grown to 3", h.g.Cols())
	}
	if h.g.Rows() != 2 {
		t.Errorf("rows = %d, want unchanged 2", h.g.Rows())
	}
	if got := h.text(1, 0); got != "A2" {
		t.Errorf("row below anchor changed: (1,0) = %q", got)
	}
	if !h.g.Rectangular() {
		t.Error("grid not rectangular after growth")
	}
	h.checkNoOrphans(t)
}

func TestMergeGrowsRowsToFitCandidate(t *testing.T) {
	h := newMergeHarness(t, [][]string{{"A1"}})

	// 3x1 candidate at (0,0) on a 1x1 grid: rows grow to exactly 3.
	_, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0},
		Payload{Text: "r0\nr1\nr2"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if h.g.Rows() != 3 || h.g.Cols() != 1 {
		t.Errorf("grid = %dx%d, want 3x1", h.g.Rows(), h.g.Cols())
	}
	if got := h.text(2, 0); got != "r2" {
		t.Errorf("(2,0) = %q, want r2", got)
	}
}

func TestMergeMultipleTablesCreatesSiblings(t *testing.T) {
	// Pasting exporter HTML holding two tables into a 2x2 grid at (0,0):
	// the first table merges in place, the second becomes a sibling.
	h := newMergeHarness(t, [][]string{
		{"O1", "O2"},
		{"O3", "O4"},
	})

	html := `<b id="docs-internal-guid-xyz">
		<table><tr><td>P1</td><td>P2</td></tr></table>
		<table><tr><td>Q1</td></tr><tr><td>Q2</td></tr></table>
	</b>`
	res, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0},
		Payload{HTML: html})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	// First candidate merged in place.
	if got := h.text(0, 0); got != "P1" {
		t.Errorf("(0,0) = %q, want P1", got)
	}
	// The second row is untouched.
	if got := h.text(1, 0); got != "O3" {
		t.Errorf("(1,0) = %q, want O3", got)
	}
	if got := h.text(1, 1); got != "O4" {
		t.Errorf("(1,1) = %q, want O4", got)
	}

	// One sibling table per extra candidate: two candidates leave the
	// document with the merged original plus one new sibling record.
	// The second candidate never overwrites existing cells.
	if len(res.Siblings) != 1 {
		t.Fatalf("siblings = %d, want 1", len(res.Siblings))
	}
	if h.doc.TableCount() != 2 {
		t.Fatalf("table records = %d, want 2", h.doc.TableCount())
	}

	records := h.doc.Records()
	if records[1].ID != res.Siblings[0].ID {
		t.Error("sibling not inserted immediately after the current block")
	}
	h.checkNoOrphans(t)
}

func TestMergeThreeTablesTotalCount(t *testing.T) {
	h := newMergeHarness(t, [][]string{{"O1", "O2"}, {"O3", "O4"}})

	html := `<b id="docs-internal-guid-3t">
		<table><tr><td>a</td></tr></table>
		<table><tr><td>b</td></tr></table>
		<table><tr><td>c</td></tr></table>
	</b>`
	res, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0},
		Payload{HTML: html})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(res.Siblings) != 2 {
		t.Errorf("siblings = %d, want 2", len(res.Siblings))
	}
	if h.doc.TableCount() != 3 {
		t.Errorf("table records = %d, want 3", h.doc.TableCount())
	}
	// Siblings keep clipboard order: b then c after the current table.
	records := h.doc.Records()
	if records[1].ID != res.Siblings[0].ID || records[2].ID != res.Siblings[1].ID {
		t.Error("sibling order does not match clipboard order")
	}
}

func TestMergeEmptyPayloadIsNoOp(t *testing.T) {
	h := newMergeHarness(t, [][]string{{"keep"}})
	before := h.g.Clone()

	res, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0}, Payload{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Merged {
		t.Error("empty payload reported as merged")
	}
	if !h.g.Cell(0, 0).Equal(before.Cell(0, 0)) {
		t.Error("grid changed by no-op paste")
	}
}

func TestMergeContentIDsMatchUnion(t *testing.T) {
	h := newMergeHarness(t, [][]string{
		{"A1", "B1"},
		{"A2", "B2"},
	})

	_, err := h.engine.Merge(context.Background(), h.rec.ID, h.g, Anchor{0, 0},
		Payload{Text: "x\ty\nz\tw"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := h.doc.SaveTable(h.rec.ID, h.g); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}

	rec, _ := h.doc.Record(h.rec.ID)
	union := h.g.ContentIDs()
	if len(rec.ContentIDs) != len(union) {
		t.Fatalf("contentIds = %d entries, want %d", len(rec.ContentIDs), len(union))
	}
	for i, id := range union {
		if rec.ContentIDs[i] != string(id) {
			t.Errorf("contentIds[%d] = %q, want %q", i, rec.ContentIDs[i], id)
		}
	}
	h.checkNoOrphans(t)
}

// gatedTree delays Create until released, standing in for asynchronous
// block creation in the host.
type gatedTree struct {
	*block.MemoryTree
	gate chan struct{}
}

func (g *gatedTree) Create(ctx context.Context, tool, data string) (block.ID, error) {
	<-g.gate
	return g.MemoryTree.Create(ctx, tool, data)
}

func TestSaveDuringMergeSeesCompleteState(t *testing.T) {
	gated := &gatedTree{MemoryTree: block.NewMemoryTree(), gate: make(chan struct{})}
	doc := document.New(gated)
	engine := NewEngine(doc, event.NewBus())
	g := grid.New(1, 1)
	rec := doc.Append(document.ToolTable, "{}")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Merge(context.Background(), rec.ID, g, Anchor{0, 0},
			Payload{Text: "pasted"})
	}()

	saved := make(chan struct{})
	go func() {
		// Give the merge time to enter its critical section, then save.
		time.Sleep(10 * time.Millisecond)
		_ = doc.SaveTable(rec.ID, g)
		close(saved)
	}()

	select {
	case <-saved:
		t.Fatal("save completed while merge was awaiting block creation")
	case <-time.After(30 * time.Millisecond):
	}

	close(gated.gate)
	<-done
	<-saved

	// The save that waited observed the fully post-merge state.
	final, _ := doc.Record(rec.ID)
	if len(final.ContentIDs) != 1 {
		t.Errorf("saved contentIds = %v, want the pasted block", final.ContentIDs)
	}
	for _, id := range g.ContentIDs() {
		if _, ok := gated.Resolve(id); !ok {
			t.Errorf("orphaned reference %s after merge", id)
		}
	}
}
