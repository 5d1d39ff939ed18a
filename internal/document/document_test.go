package document

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/grid"
)

func TestSaveTableEmitsContentIDs(t *testing.T) {
	tree := block.NewMemoryTree()
	doc := New(tree)

	g := grid.New(1, 2)
	_ = g.SetCell(0, 0, grid.Cell{Content: []block.ID{"b1", "b2"}})
	_ = g.SetCell(0, 1, grid.Cell{Content: []block.ID{"b2"}})

	rec := doc.Append(ToolTable, "{}")
	if err := doc.SaveTable(rec.ID, g); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}

	saved, ok := doc.Record(rec.ID)
	if !ok {
		t.Fatal("record disappeared")
	}
	want := []string{"b1", "b2"}
	if len(saved.ContentIDs) != len(want) {
		t.Fatalf("ContentIDs = %v, want %v", saved.ContentIDs, want)
	}
	for i := range want {
		if saved.ContentIDs[i] != want[i] {
			t.Errorf("ContentIDs[%d] = %q, want %q", i, saved.ContentIDs[i], want[i])
		}
	}
}

func TestSaveTableUnknownRecord(t *testing.T) {
	doc := New(block.NewMemoryTree())
	if err := doc.SaveTable("missing", grid.New(1, 1)); err == nil {
		t.Error("SaveTable(missing) = nil, want error")
	}
}

func TestInsertTableAfterOrdering(t *testing.T) {
	tree := block.NewMemoryTree()
	doc := New(tree)
	first := doc.Append(ToolTable, "{}")
	doc.Append("paragraph", "{}")

	sibling := grid.New(2, 2)
	err := doc.Update(context.Background(), func(ctx context.Context) error {
		_, err := doc.InsertTableAfter(first.ID, sibling)
		return err
	})
	if err != nil {
		t.Fatalf("InsertTableAfter: %v", err)
	}

	records := doc.Records()
	if len(records) != 3 {
		t.Fatalf("record count = %d, want 3", len(records))
	}
	if records[0].ID != first.ID {
		t.Error("existing table moved")
	}
	if records[1].Type != ToolTable {
		t.Errorf("inserted sibling type = %q, want %q", records[1].Type, ToolTable)
	}
	if doc.TableCount() != 2 {
		t.Errorf("TableCount = %d, want 2", doc.TableCount())
	}
}

func TestSaveWaitsForUpdate(t *testing.T) {
	tree := block.NewMemoryTree()
	doc := New(tree)
	g := grid.New(1, 1)
	rec := doc.Append(ToolTable, "{}")

	entered := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = doc.Update(context.Background(), func(ctx context.Context) error {
			close(entered)
			<-release
			_ = g.SetCell(0, 0, grid.Cell{Content: []block.ID{"merged"}})
			return nil
		})
	}()

	<-entered
	saved := make(chan struct{})
	go func() {
		_ = doc.SaveTable(rec.ID, g)
		close(saved)
	}()

	select {
	case <-saved:
		t.Fatal("SaveTable completed during in-flight update")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-saved

	got, _ := doc.Record(rec.ID)
	if len(got.ContentIDs) != 1 || got.ContentIDs[0] != "merged" {
		t.Errorf("save observed partial state: ContentIDs = %v", got.ContentIDs)
	}
}

func TestDestroyUnreferenced(t *testing.T) {
	tree := block.NewMemoryTree()
	doc := New(tree)
	ctx := context.Background()

	kept, _ := tree.Create(ctx, block.ToolParagraph, block.ParagraphData("kept"))
	dropped, _ := tree.Create(ctx, block.ToolParagraph, block.ParagraphData("dropped"))

	g := grid.New(1, 2)
	_ = g.SetCell(0, 0, grid.Cell{Content: []block.ID{kept}})

	doc.DestroyUnreferenced(g, []block.ID{kept, dropped})

	if _, ok := tree.Resolve(kept); !ok {
		t.Error("still-referenced block was destroyed")
	}
	if _, ok := tree.Resolve(dropped); ok {
		t.Error("unreferenced block survived")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := New(block.NewMemoryTree())
	doc.Append(ToolTable, `{"content":[]}`)

	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	doc2 := New(block.NewMemoryTree())
	if err := doc2.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(doc2.Records()) != 1 {
		t.Fatalf("records = %d, want 1", len(doc2.Records()))
	}
}
