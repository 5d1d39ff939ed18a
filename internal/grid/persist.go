package grid

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/gridstorm/internal/block"
)

// persistCell is the object form of a cell in persisted block data.
type persistCell struct {
	Blocks    []string `json:"blocks"`
	Color     string   `json:"color,omitempty"`
	TextColor string   `json:"textColor,omitempty"`
}

// persistData is the persisted block data shape.
type persistData struct {
	WithHeadings      bool            `json:"withHeadings"`
	WithHeadingColumn bool            `json:"withHeadingColumn"`
	Content           [][]persistCell `json:"content"`
	ColWidths         []int           `json:"colWidths,omitempty"`
}

// Load builds a grid from persisted block data.
//
// The loader is deliberately tolerant: missing or empty content yields a
// 1x1 grid of empty cells with all flags false, and the legacy form where a
// cell is a plain string is normalized into a single-block cell by creating
// a paragraph block holding that string.
func Load(ctx context.Context, tree block.Tree, data string) (*Grid, error) {
	content := gjson.Get(data, "content")
	if !content.Exists() || !content.IsArray() || len(content.Array()) == 0 {
		return New(1, 1), nil
	}

	g := &Grid{
		WithHeadingRow:    gjson.Get(data, "withHeadings").Bool(),
		WithHeadingColumn: gjson.Get(data, "withHeadingColumn").Bool(),
	}

	cols := 0
	for _, row := range content.Array() {
		if n := len(row.Array()); n > cols {
			cols = n
		}
	}
	if cols == 0 {
		return New(1, 1), nil
	}

	for _, row := range content.Array() {
		cells := make([]Cell, cols)
		for i, raw := range row.Array() {
			cell, err := loadCell(ctx, tree, raw)
			if err != nil {
				return nil, err
			}
			cells[i] = cell
		}
		g.rows = append(g.rows, cells)
	}

	if widths := gjson.Get(data, "colWidths"); widths.IsArray() {
		for _, w := range widths.Array() {
			g.ColumnWidths = append(g.ColumnWidths, int(w.Int()))
		}
		// A persisted width list that no longer matches the column count is
		// unusable; fall back to proportional layout.
		if len(g.ColumnWidths) != cols {
			g.ColumnWidths = nil
		}
	}

	return g, nil
}

// loadCell normalizes one persisted cell value.
func loadCell(ctx context.Context, tree block.Tree, raw gjson.Result) (Cell, error) {
	switch raw.Type {
	case gjson.String:
		// Legacy form: the cell is its text. Normalize into a single
		// paragraph block.
		if raw.String() == "" {
			return EmptyCell(), nil
		}
		id, err := tree.Create(ctx, block.ToolParagraph, block.ParagraphData(raw.String()))
		if err != nil {
			return Cell{}, fmt.Errorf("normalizing legacy cell: %w", err)
		}
		return Cell{Content: []block.ID{id}}, nil
	case gjson.JSON:
		cell := Cell{
			Background: raw.Get("color").String(),
			TextColor:  raw.Get("textColor").String(),
		}
		for _, id := range raw.Get("blocks").Array() {
			cell.Content = append(cell.Content, block.ID(id.String()))
		}
		return cell, nil
	default:
		return EmptyCell(), nil
	}
}

// Marshal serializes the grid to its persisted block data form.
func (g *Grid) Marshal() (string, error) {
	data := persistData{
		WithHeadings:      g.WithHeadingRow,
		WithHeadingColumn: g.WithHeadingColumn,
		Content:           make([][]persistCell, g.Rows()),
		ColWidths:         g.ColumnWidths,
	}
	for r := range g.rows {
		row := make([]persistCell, g.Cols())
		for c, cell := range g.rows[r] {
			pc := persistCell{
				Blocks:    make([]string, 0, len(cell.Content)),
				Color:     cell.Background,
				TextColor: cell.TextColor,
			}
			for _, id := range cell.Content {
				pc.Blocks = append(pc.Blocks, string(id))
			}
			row[c] = pc
		}
		data.Content[r] = row
	}
	out, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshaling grid: %w", err)
	}
	return string(out), nil
}
