package richtext

import (
	"strings"
	"unicode/utf8"
)

var inlineTypes = map[string]struct{}{
	TypeText:      {},
	TypeHardBreak: {},
	TypeImage:     {},
	"mention":     {},
	"emoji":       {},
}

// PlainText flattens a document to text, one line per block. Used for search
// records and excerpts.
func PlainText(doc *Document) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	for _, node := range doc.Content {
		writePlain(&b, node)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writePlain(b *strings.Builder, node Node) {
	switch node.Type {
	case TypeText:
		b.WriteString(node.Text)
		return
	case TypeHardBreak:
		b.WriteString("\n")
		return
	case TypeImage:
		if alt := attrString(node.Attrs, "alt"); alt != "" {
			b.WriteString(alt)
		}
		return
	}
	for _, child := range node.Content {
		writePlain(b, child)
	}
	if _, inline := inlineTypes[node.Type]; inline {
		return
	}
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
}

// Excerpt returns at most max runes of the document's text with whitespace
// collapsed, ending in an ellipsis when truncated.
func Excerpt(doc *Document, max int) string {
	text := strings.Join(strings.Fields(PlainText(doc)), " ")
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "…"
}
