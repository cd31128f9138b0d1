// Package richtext turns loosely-typed rich-text editor values into a canonical
// document tree and renders that tree for display.
//
// Raw values arrive per locale as opaque strings or decoded JSON objects. Resolve
// picks the value for the active locale, Canonicalize turns it into a *Document
// (or nil for "no content"), and Render, RenderHTML and PlainText walk the result.
// Every function in this package is pure and safe for concurrent use.
package richtext

import (
	"encoding/json"
	"sort"
)

// Node types with dedicated rendering. Any other type is still accepted and
// rendered as a neutral container.
const (
	TypeDoc            = "doc"
	TypeText           = "text"
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeBulletList     = "bulletList"
	TypeOrderedList    = "orderedList"
	TypeTaskList       = "taskList"
	TypeListItem       = "listItem"
	TypeTaskItem       = "taskItem"
	TypeBlockquote     = "blockquote"
	TypeCodeBlock      = "codeBlock"
	TypeHorizontalRule = "horizontalRule"
	TypeHardBreak      = "hardBreak"
	TypeImage          = "image"
	TypeTable          = "table"
	TypeTableRow       = "tableRow"
	TypeTableCell      = "tableCell"
	TypeTableHeader    = "tableHeader"
)

// Mark is inline formatting attached to a text node (bold, italic, link...).
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is a block or text node of a canonical document. Text nodes carry Text
// and Marks and never Content.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// IsText reports whether n is a text leaf.
func (n Node) IsText() bool {
	return n.Type == TypeText
}

// MarshalJSON always writes text on text nodes and keeps an empty content
// array on other nodes, so ProseMirror's Node.fromJSON accepts the output.
func (n Node) MarshalJSON() ([]byte, error) {
	type wireNode struct {
		Type    string         `json:"type"`
		Attrs   map[string]any `json:"attrs,omitempty"`
		Content *[]Node        `json:"content,omitempty"`
		Text    *string        `json:"text,omitempty"`
		Marks   []Mark         `json:"marks,omitempty"`
	}
	w := wireNode{Type: n.Type, Attrs: n.Attrs, Marks: n.Marks}
	if n.IsText() {
		w.Text = &n.Text
	} else {
		if n.Content != nil {
			w.Content = &n.Content
		}
		if n.Text != "" {
			w.Text = &n.Text
		}
	}
	return json.Marshal(w)
}

// Document is the canonical root of a rich-text tree. Content never holds
// another document.
type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// NewDocument builds a document holding the given top-level nodes.
func NewDocument(content ...Node) *Document {
	if content == nil {
		content = []Node{}
	}
	return &Document{Type: TypeDoc, Content: content}
}

// Paragraph is a convenience constructor for a paragraph holding a single
// unformatted text run.
func Paragraph(text string) Node {
	return Node{Type: TypeParagraph, Content: []Node{{Type: TypeText, Text: text}}}
}

// Raw is an as-stored rich content value: RawString, RawObject or *Document.
// A nil Raw means null.
type Raw interface {
	isRaw()
}

// RawString is a persisted string: plain prose or JSON-encoded nodes.
type RawString string

// RawObject is an already-decoded JSON object of unknown shape.
type RawObject map[string]any

func (RawString) isRaw() {}
func (RawObject) isRaw() {}
func (*Document) isRaw() {}

// RawFrom adapts a decoded JSON value (or a document) to Raw. Values of any
// other kind yield nil.
func RawFrom(value any) Raw {
	switch v := value.(type) {
	case nil:
		return nil
	case Raw:
		return v
	case string:
		return RawString(v)
	case *string:
		if v == nil {
			return nil
		}
		return RawString(*v)
	case []byte:
		return RawString(v)
	case json.RawMessage:
		return RawString(v)
	case map[string]any:
		return RawObject(v)
	case Document:
		return &v
	default:
		return nil
	}
}

// LocalizedContent maps a locale to the raw rich content stored for it.
// Locales are populated independently; missing entries are allowed.
type LocalizedContent map[Locale]Raw

// UnmarshalJSON decodes {"en": "...", "fr": {...}, "ar": null}. Strings become
// RawString, objects RawObject; any other JSON value is treated as absent.
func (c *LocalizedContent) UnmarshalJSON(data []byte) error {
	var slots map[Locale]json.RawMessage
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	if slots == nil {
		*c = nil
		return nil
	}
	out := make(LocalizedContent, len(slots))
	for locale, slot := range slots {
		out[locale] = decodeSlot(slot)
	}
	*c = out
	return nil
}

func decodeSlot(slot json.RawMessage) Raw {
	var value any
	if err := json.Unmarshal(slot, &value); err != nil {
		return nil
	}
	switch v := value.(type) {
	case string:
		return RawString(v)
	case map[string]any:
		return RawObject(v)
	default:
		return nil
	}
}

// Locales lists the locales holding non-empty content, sorted.
func (c LocalizedContent) Locales() []Locale {
	locales := make([]Locale, 0, len(c))
	for locale, raw := range c {
		if !isEmptyRaw(raw) {
			locales = append(locales, locale)
		}
	}
	sort.Slice(locales, func(i, j int) bool { return locales[i] < locales[j] })
	return locales
}

// LocalizedText maps a locale to a plain string (titles, summaries).
type LocalizedText map[Locale]string

// Resolve applies the same fallback policy as ResolveWithFallback and returns
// the chosen string with the locale it came from. An empty locale means nothing
// was found.
func (t LocalizedText) Resolve(active, fallback Locale) (string, Locale) {
	if value := t[active]; value != "" {
		return value, active
	}
	if value := t[fallback]; value != "" {
		return value, fallback
	}
	return "", ""
}
