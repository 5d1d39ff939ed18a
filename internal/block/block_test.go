package block

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryTreeLifecycle(t *testing.T) {
	tree := NewMemoryTree()
	ctx := context.Background()

	id, err := tree.Create(ctx, ToolParagraph, ParagraphData("hello"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty id")
	}

	spec, ok := tree.Resolve(id)
	if !ok {
		t.Fatal("Resolve returned false for live block")
	}
	if spec.Tool != ToolParagraph {
		t.Errorf("tool = %q, want %q", spec.Tool, ToolParagraph)
	}
	if got := ParagraphText(spec.Data); got != "hello" {
		t.Errorf("text = %q, want %q", got, "hello")
	}

	tree.Destroy(id)
	if _, ok := tree.Resolve(id); ok {
		t.Error("Resolve returned true for destroyed block")
	}

	// Destroying an unknown id is not an error.
	tree.Destroy("missing")
}

func TestMemoryTreeClosed(t *testing.T) {
	tree := NewMemoryTree()
	tree.Close()
	if _, err := tree.Create(context.Background(), ToolParagraph, "{}"); !errors.Is(err, ErrTreeClosed) {
		t.Errorf("Create after Close = %v, want ErrTreeClosed", err)
	}
}

func TestTextOfUnresolvable(t *testing.T) {
	tree := NewMemoryTree()
	if got := TextOf(tree, "gone"); got != "" {
		t.Errorf("TextOf(unresolvable) = %q, want empty", got)
	}
}

func TestDestroyUnless(t *testing.T) {
	tree := NewMemoryTree()
	ctx := context.Background()
	a, _ := tree.Create(ctx, ToolParagraph, ParagraphData("a"))
	b, _ := tree.Create(ctx, ToolParagraph, ParagraphData("b"))

	DestroyUnless(tree, []ID{a, b}, func(id ID) bool { return id == b })

	if _, ok := tree.Resolve(a); ok {
		t.Error("block a survived, want destroyed")
	}
	if _, ok := tree.Resolve(b); !ok {
		t.Error("kept block b was destroyed")
	}
}
