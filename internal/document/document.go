// Package document models the slice of the host document the table engine
// touches: the ordered list of top-level block records, the persisted form
// of a table block, and the save-time contentIds emission used by the host
// for child block reference tracking.
//
// The document also owns the merge critical section. Paste-merge awaits
// asynchronous block creation; a save requested while a merge is in flight
// must observe either the fully pre-merge or the fully post-merge state,
// never a partially-applied one. Both Save and Update take the same lock.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/grid"
)

// ToolTable is the tool name of a table block record.
const ToolTable = "table"

// ErrNoRecord signals an operation against an unknown block record.
var ErrNoRecord = errors.New("document: no such record")

// Record is one top-level block of the host document. ContentIDs lists
// every child BlockId referenced anywhere in Data; the host uses it for
// reference tracking and garbage collection.
type Record struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Data       string   `json:"data"`
	ContentIDs []string `json:"contentIds,omitempty"`
}

// Document is the host document collaborator: an ordered list of records
// plus the child block tree.
type Document struct {
	mu      sync.Mutex
	tree    block.Tree
	records []*Record
}

// New creates a document over the given block tree.
func New(tree block.Tree) *Document {
	return &Document{tree: tree}
}

// Tree returns the document's block tree.
func (d *Document) Tree() block.Tree { return d.tree }

// Update runs fn while holding the document lock. Multi-step mutations
// that must not interleave with Save (notably paste-merge, which awaits
// block creation) run inside Update.
func (d *Document) Update(ctx context.Context, fn func(ctx context.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(ctx)
}

// Append adds a record at the end of the document and returns it.
func (d *Document) Append(recordType, data string) *Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := &Record{ID: uuid.NewString(), Type: recordType, Data: data}
	d.records = append(d.records, rec)
	return rec
}

// InsertTableAfter serializes g as a new table record placed immediately
// after the record with the given id. Used by paste-merge for every
// clipboard candidate beyond the first; the new table is an independent
// sibling and never touches the existing table's cells.
//
// The caller holds the document lock via Update.
func (d *Document) InsertTableAfter(afterID string, g *grid.Grid) (*Record, error) {
	data, err := g.Marshal()
	if err != nil {
		return nil, err
	}
	rec := &Record{
		ID:         uuid.NewString(),
		Type:       ToolTable,
		Data:       data,
		ContentIDs: idStrings(g.ContentIDs()),
	}

	for i, r := range d.records {
		if r.ID == afterID {
			d.records = append(d.records, nil)
			copy(d.records[i+2:], d.records[i+1:])
			d.records[i+1] = rec
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoRecord, afterID)
}

// Record returns the record with the given id.
func (d *Document) Record(id string) (*Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.records {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Records returns the document's records in order.
func (d *Document) Records() []*Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Record(nil), d.records...)
}

// TableCount returns the number of table block records.
func (d *Document) TableCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.records {
		if r.Type == ToolTable {
			n++
		}
	}
	return n
}

// SaveTable re-serializes the live grid into its record: Data from the
// grid's persisted form, ContentIDs recomputed from the grid's
// de-duplicated block reference union. Blocks until any in-flight Update
// completes.
func (d *Document) SaveTable(recordID string, g *grid.Grid) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.records {
		if r.ID == recordID {
			data, err := g.Marshal()
			if err != nil {
				return err
			}
			r.Data = data
			r.ContentIDs = idStrings(g.ContentIDs())
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoRecord, recordID)
}

// Marshal serializes the document's records.
func (d *Document) Marshal() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return json.MarshalIndent(d.records, "", "  ")
}

// Unmarshal replaces the document's records from serialized form.
func (d *Document) Unmarshal(data []byte) error {
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = records
	return nil
}

// DestroyUnreferenced destroys each removed block id that no cell of g
// still references. This is the shared no-orphan release path for
// overwritten paste destinations and cleared selections.
func (d *Document) DestroyUnreferenced(g *grid.Grid, removed []block.ID) {
	block.DestroyUnless(d.tree, removed, g.References)
}

func idStrings(ids []block.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
