package block

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ToolParagraph is the tool name of the plain-text child block every
// non-structured cell resolves to.
const ToolParagraph = "paragraph"

// ParagraphData builds the serialized data of a paragraph block holding
// the given text.
func ParagraphData(text string) string {
	data, _ := sjson.Set("{}", "text", text)
	return data
}

// ParagraphText extracts the text of a paragraph block's serialized data.
// Non-paragraph or malformed data yields the empty string.
func ParagraphText(data string) string {
	return gjson.Get(data, "text").String()
}

// TextOf resolves a block and returns its paragraph text. Unresolvable
// blocks render as empty, never as an error.
func TextOf(t Tree, id ID) string {
	spec, ok := t.Resolve(id)
	if !ok {
		return ""
	}
	return ParagraphText(spec.Data)
}
