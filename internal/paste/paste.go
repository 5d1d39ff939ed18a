// Package paste implements the clipboard paste-merge engine.
//
// A clipboard payload is parsed into candidate grids with a fixed
// precedence: the tool's own serialized payload embedded in the HTML, then
// a documents-exporter fingerprint (one candidate per top-level table),
// then a generic HTML table, then best-effort plain text. The first
// candidate merges into the focused grid at the anchor cell; every further
// candidate becomes a new sibling table block.
package paste

import (
	"sync"

	"github.com/dshills/gridstorm/internal/block"
)

// Payload is what the clipboard offers on paste: an HTML representation
// and a plain-text fallback.
type Payload struct {
	HTML string
	Text string
}

// Clipboard is the engine's view of the system clipboard.
type Clipboard interface {
	Read() (Payload, error)
	Write(Payload) error
}

// MemoryClipboard is an in-process Clipboard for the demo binary and
// tests.
type MemoryClipboard struct {
	mu      sync.Mutex
	payload Payload
}

// NewMemoryClipboard creates an empty clipboard.
func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{}
}

// Read returns the stored payload.
func (c *MemoryClipboard) Read() (Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payload, nil
}

// Write replaces the stored payload.
func (c *MemoryClipboard) Write(p Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = p
	return nil
}

// CellSpec describes one candidate cell: the blocks to create for it plus
// optional color overrides.
type CellSpec struct {
	Blocks     []block.Spec
	Background string
	TextColor  string
}

// textCell builds a single-paragraph cell spec. Empty text yields an
// empty cell.
func textCell(text string) CellSpec {
	if text == "" {
		return CellSpec{}
	}
	return CellSpec{Blocks: []block.Spec{{Tool: block.ToolParagraph, Data: block.ParagraphData(text)}}}
}

// Candidate is a grid parsed from clipboard data, not yet merged.
type Candidate struct {
	Rows [][]CellSpec
}

// Height returns the candidate's row count.
func (c Candidate) Height() int { return len(c.Rows) }

// Width returns the candidate's column count.
func (c Candidate) Width() int {
	if len(c.Rows) == 0 {
		return 0
	}
	return len(c.Rows[0])
}

// normalize pads ragged rows to the widest row and drops the candidate
// entirely if it has no content cells at all.
func (c Candidate) normalize() (Candidate, bool) {
	width := 0
	for _, row := range c.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if len(c.Rows) == 0 || width == 0 {
		return Candidate{}, false
	}
	for i, row := range c.Rows {
		for len(row) < width {
			row = append(row, CellSpec{})
		}
		c.Rows[i] = row
	}
	return c, true
}
