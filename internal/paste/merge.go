package paste

import (
	"context"
	"fmt"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/document"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/grid"
)

const source = "paste"

// Anchor is the focused cell a paste targets.
type Anchor struct {
	Row int
	Col int
}

// Result reports what a merge did.
type Result struct {
	// Merged is false for a no-op paste (nothing parseable).
	Merged bool

	// Caret is the bottom-right-most pasted cell; focus moves to the end
	// of its content after the merge.
	Caret Anchor

	// Siblings are the new table records created for candidates beyond
	// the first.
	Siblings []*document.Record
}

// Engine merges clipboard candidates into a live grid.
type Engine struct {
	doc *document.Document
	bus *event.Bus
}

// NewEngine creates a paste-merge engine over the host document.
func NewEngine(doc *document.Document, bus *event.Bus) *Engine {
	return &Engine{doc: doc, bus: bus}
}

// Merge parses the payload and merges the first candidate into g at the
// anchor; every further candidate is inserted as an independent sibling
// table after recordID.
//
// The whole operation runs inside the document's critical section: block
// creation is awaited before any cell reference changes, and a save
// issued mid-merge observes either the fully pre-merge or fully
// post-merge state. Cells outside the pasted rectangle are never touched.
func (e *Engine) Merge(ctx context.Context, recordID string, g *grid.Grid, anchor Anchor, payload Payload) (Result, error) {
	candidates := Parse(payload)
	if len(candidates) == 0 {
		return Result{}, nil
	}
	if anchor.Row < 0 || anchor.Col < 0 {
		return Result{}, fmt.Errorf("paste: invalid anchor (%d,%d)", anchor.Row, anchor.Col)
	}

	var res Result
	err := e.doc.Update(ctx, func(ctx context.Context) error {
		first := candidates[0]
		height, width := first.Height(), first.Width()

		// Create every block of the pasted rectangle before touching the
		// grid, so the reference swap below is a single synchronous step.
		created, err := e.createBlocks(ctx, first)
		if err != nil {
			return err
		}

		// Columns grow to fit the rectangle; rows grow only as far as the
		// rectangle itself needs. Nothing ever shrinks.
		g.ExpandTo(anchor.Row+height, anchor.Col+width)

		var removed []block.ID
		for i := 0; i < height; i++ {
			for j := 0; j < width; j++ {
				row, col := anchor.Row+i, anchor.Col+j
				old := g.Cell(row, col)
				removed = append(removed, old.Content...)

				spec := first.Rows[i][j]
				_ = g.SetCell(row, col, grid.Cell{
					Content:    created[i][j],
					Background: spec.Background,
					TextColor:  spec.TextColor,
				})
			}
		}

		// Replaced blocks are destroyed unless a cell outside the pasted
		// rectangle still references them; no orphan survives the merge.
		e.doc.DestroyUnreferenced(g, removed)

		// Candidates beyond the first never overwrite existing cells:
		// each becomes a new table block right after the current one.
		after := recordID
		for _, cand := range candidates[1:] {
			sibling, err := e.buildGrid(ctx, cand)
			if err != nil {
				return err
			}
			rec, err := e.doc.InsertTableAfter(after, sibling)
			if err != nil {
				return err
			}
			res.Siblings = append(res.Siblings, rec)
			after = rec.ID
		}

		res.Merged = true
		res.Caret = Anchor{Row: anchor.Row + height - 1, Col: anchor.Col + width - 1}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if res.Merged {
		e.bus.Publish(event.TopicGridContent.Sub("merged"), source, res)
		if len(res.Siblings) > 0 {
			e.bus.Publish(event.TopicDocument.Sub("table-inserted"), source, len(res.Siblings))
		}
	}
	return res, nil
}

// createBlocks creates the blocks of every candidate cell, awaiting each
// creation. On failure the blocks created so far are destroyed so a
// failed merge leaks nothing.
func (e *Engine) createBlocks(ctx context.Context, cand Candidate) ([][][]block.ID, error) {
	tree := e.doc.Tree()
	created := make([][][]block.ID, cand.Height())
	var all []block.ID

	for i, row := range cand.Rows {
		created[i] = make([][]block.ID, len(row))
		for j, spec := range row {
			for _, b := range spec.Blocks {
				id, err := tree.Create(ctx, b.Tool, b.Data)
				if err != nil {
					for _, undo := range all {
						tree.Destroy(undo)
					}
					return nil, fmt.Errorf("creating pasted block: %w", err)
				}
				created[i][j] = append(created[i][j], id)
				all = append(all, id)
			}
		}
	}
	return created, nil
}

// buildGrid materializes a candidate as a standalone grid for sibling
// table insertion.
func (e *Engine) buildGrid(ctx context.Context, cand Candidate) (*grid.Grid, error) {
	created, err := e.createBlocks(ctx, cand)
	if err != nil {
		return nil, err
	}
	g := grid.New(cand.Height(), cand.Width())
	for i, row := range cand.Rows {
		for j, spec := range row {
			_ = g.SetCell(i, j, grid.Cell{
				Content:    created[i][j],
				Background: spec.Background,
				TextColor:  spec.TextColor,
			})
		}
	}
	return g, nil
}
