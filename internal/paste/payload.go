package paste

import (
	"fmt"
	"html"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/gridstorm/internal/block"
	"github.com/dshills/gridstorm/internal/grid"
)

// PayloadAttr is the custom attribute carrying the tool's own serialized
// clipboard format. HTML containing it round-trips losslessly: every
// nested block descriptor survives, not just flattened text.
const PayloadAttr = "data-gridstorm"

// Encode serializes copied cells into a clipboard payload: an HTML table
// carrying the lossless format in PayloadAttr, plus a tab/newline
// plain-text rendering. Block references are resolved through the tree at
// copy time so the payload is self-contained.
func Encode(tree block.Tree, cells [][]grid.Cell) Payload {
	doc := "{}"
	doc, _ = sjson.Set(doc, "rows", len(cells))
	cols := 0
	if len(cells) > 0 {
		cols = len(cells[0])
	}
	doc, _ = sjson.Set(doc, "cols", cols)

	var text strings.Builder
	var table strings.Builder

	for r, row := range cells {
		if r > 0 {
			text.WriteByte('\n')
		}
		table.WriteString("<tr>")
		for c, cell := range row {
			if c > 0 {
				text.WriteByte('\t')
			}
			base := fmt.Sprintf("cells.%d.%d", r, c)
			doc, _ = sjson.Set(doc, base+".blocks", []any{})
			if cell.Background != "" {
				doc, _ = sjson.Set(doc, base+".color", cell.Background)
			}
			if cell.TextColor != "" {
				doc, _ = sjson.Set(doc, base+".textColor", cell.TextColor)
			}

			var cellText strings.Builder
			for i, id := range cell.Content {
				spec, ok := tree.Resolve(id)
				if !ok {
					continue
				}
				doc, _ = sjson.Set(doc, fmt.Sprintf("%s.blocks.%d.tool", base, i), spec.Tool)
				doc, _ = sjson.SetRaw(doc, fmt.Sprintf("%s.blocks.%d.data", base, i), spec.Data)
				if cellText.Len() > 0 {
					cellText.WriteByte(' ')
				}
				cellText.WriteString(block.ParagraphText(spec.Data))
			}
			text.WriteString(cellText.String())
			table.WriteString("<td>" + html.EscapeString(cellText.String()) + "</td>")
		}
		table.WriteString("</tr>")
	}

	htmlOut := fmt.Sprintf("<table %s=%q><tbody>%s</tbody></table>",
		PayloadAttr, html.EscapeString(doc), table.String())
	return Payload{HTML: htmlOut, Text: text.String()}
}

// decodePayload parses the lossless format out of its attribute value.
// ok is false when the JSON does not describe at least one cell.
func decodePayload(raw string) (Candidate, bool) {
	doc := html.UnescapeString(raw)
	cells := gjson.Get(doc, "cells")
	if !cells.IsArray() {
		return Candidate{}, false
	}

	var cand Candidate
	for _, row := range cells.Array() {
		var specs []CellSpec
		for _, cell := range row.Array() {
			spec := CellSpec{
				Background: cell.Get("color").String(),
				TextColor:  cell.Get("textColor").String(),
			}
			for _, b := range cell.Get("blocks").Array() {
				tool := b.Get("tool").String()
				if tool == "" {
					continue
				}
				spec.Blocks = append(spec.Blocks, block.Spec{
					Tool: tool,
					Data: b.Get("data").Raw,
				})
			}
			specs = append(specs, spec)
		}
		cand.Rows = append(cand.Rows, specs)
	}
	return cand.normalize()
}
