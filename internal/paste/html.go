package paste

import (
	"strings"

	"golang.org/x/net/html"
)

// ExporterMarkerPrefix identifies a documents-exporter clipboard: the
// exporter wraps its fragment in an element whose id carries this prefix.
const ExporterMarkerPrefix = "docs-internal-guid"

// Parse turns a clipboard payload into candidate grids, applying the
// parsing precedence. The result omits empty candidates; a nil result
// means the paste is a no-op.
func Parse(p Payload) []Candidate {
	if strings.TrimSpace(p.HTML) != "" {
		root, err := html.Parse(strings.NewReader(p.HTML))
		if err == nil {
			// 1. Lossless round-trip: the tool's own serialized payload.
			if raw, ok := findAttr(root, PayloadAttr); ok {
				if cand, ok := decodePayload(raw); ok {
					return []Candidate{cand}
				}
			}

			// 2. Documents-exporter fragment: one candidate per
			// top-level table.
			if wrapper := findExporterWrapper(root); wrapper != nil {
				var cands []Candidate
				for _, tbl := range topLevelTables(wrapper) {
					if cand, ok := parseTable(tbl).normalize(); ok {
						cands = append(cands, cand)
					}
				}
				if len(cands) > 0 {
					return cands
				}
			}

			// 3. Generic HTML: the first table only.
			if tables := topLevelTables(root); len(tables) > 0 {
				if cand, ok := parseTable(tables[0]).normalize(); ok {
					return []Candidate{cand}
				}
			}
		}
	}

	// 4. Plain-text fallback: newline rows, tab cells.
	return parseText(p.Text)
}

// findAttr returns the value of the named attribute on the first element
// carrying it.
func findAttr(n *html.Node, name string) (string, bool) {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == name {
				return attr.Val, true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v, ok := findAttr(c, name); ok {
			return v, true
		}
	}
	return "", false
}

// findExporterWrapper returns the element carrying the exporter's marker
// id, or nil.
func findExporterWrapper(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && strings.HasPrefix(attr.Val, ExporterMarkerPrefix) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if w := findExporterWrapper(c); w != nil {
			return w
		}
	}
	return nil
}

// topLevelTables collects table elements under n without descending into
// them: sub-tables nested inside a cell are out of scope.
func topLevelTables(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

// parseTable extracts a candidate from a table element, walking thead,
// tbody and direct tr children.
func parseTable(table *html.Node) Candidate {
	var cand Candidate
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead", "tbody", "tfoot":
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.Type == html.ElementNode && tr.Data == "tr" {
					if row := parseRow(tr); row != nil {
						cand.Rows = append(cand.Rows, row)
					}
				}
			}
		case "tr":
			if row := parseRow(c); row != nil {
				cand.Rows = append(cand.Rows, row)
			}
		}
	}
	return cand
}

// parseRow extracts the cells of one tr.
func parseRow(tr *html.Node) []CellSpec {
	var row []CellSpec
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			row = append(row, textCell(cellText(c)))
		}
	}
	return row
}

// cellText extracts a cell's text; nested paragraph-like elements each
// contribute a segment, joined by single spaces.
func cellText(n *html.Node) string {
	var segments []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			segments = append(segments, s)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "p", "div", "br", "li":
				flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (n.Data == "p" || n.Data == "div" || n.Data == "li") {
			flush()
		}
	}
	walk(n)
	flush()

	return strings.Join(segments, " ")
}

// parseText splits the plain-text fallback into a single candidate:
// newline-separated rows of tab-separated cells. A payload of nothing but
// whitespace yields no candidates.
func parseText(text string) []Candidate {
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var cand Candidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		var row []CellSpec
		for _, field := range strings.Split(line, "\t") {
			row = append(row, textCell(strings.TrimSpace(field)))
		}
		cand.Rows = append(cand.Rows, row)
	}
	if cand, ok := cand.normalize(); ok {
		return []Candidate{cand}
	}
	return nil
}
