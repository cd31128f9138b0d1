package richtext

import "strconv"

// MaxDepth bounds descriptor nesting. Anything deeper is flattened into text
// runs of the deepest container.
const MaxDepth = 256

// Descriptor is the render-ready form of a node. Block descriptors hold their
// children in document order; text descriptors hold a run with its marks.
type Descriptor struct {
	Type     string         `json:"type"`
	Tag      string         `json:"tag,omitempty"`
	Known    bool           `json:"known"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Text     string         `json:"text,omitempty"`
	Marks    []Mark         `json:"marks,omitempty"`
	Children []Descriptor   `json:"children,omitempty"`
}

// neutralTag is used for node types without dedicated rendering.
const neutralTag = "div"

var blockTags = map[string]string{
	TypeParagraph:      "p",
	TypeBulletList:     "ul",
	TypeOrderedList:    "ol",
	TypeTaskList:       "ul",
	TypeListItem:       "li",
	TypeTaskItem:       "li",
	TypeBlockquote:     "blockquote",
	TypeCodeBlock:      "pre",
	TypeHorizontalRule: "hr",
	TypeHardBreak:      "br",
	TypeImage:          "img",
	TypeTable:          "table",
	TypeTableRow:       "tr",
	TypeTableCell:      "td",
	TypeTableHeader:    "th",
}

// Render walks a canonical document and returns one descriptor per top-level
// node. Unknown node types become neutral containers whose children are still
// rendered. Output depends on nothing but doc.
func Render(doc *Document) []Descriptor {
	if doc == nil {
		return nil
	}
	return renderNodes(doc.Content, 0)
}

func renderNodes(nodes []Node, depth int) []Descriptor {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Descriptor, 0, len(nodes))
	for _, node := range nodes {
		if depth >= MaxDepth {
			out = append(out, flattenText(node)...)
			continue
		}
		out = append(out, renderNode(node, depth))
	}
	return out
}

func renderNode(node Node, depth int) Descriptor {
	if node.IsText() {
		return Descriptor{
			Type:  TypeText,
			Known: true,
			Text:  node.Text,
			Marks: node.Marks,
		}
	}

	desc := Descriptor{
		Type:  node.Type,
		Attrs: node.Attrs,
		Marks: node.Marks,
	}
	if node.Type == TypeHeading {
		desc.Tag = "h" + strconv.Itoa(headingLevel(node.Attrs))
		desc.Known = true
	} else if tag, ok := blockTags[node.Type]; ok {
		desc.Tag = tag
		desc.Known = true
	} else {
		desc.Tag = neutralTag
	}
	desc.Children = renderNodes(node.Content, depth+1)
	return desc
}

// flattenText collects the text runs below node without recursing, so that
// pathological nesting cannot exhaust the stack.
func flattenText(node Node) []Descriptor {
	var out []Descriptor
	stack := []Node{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current.IsText() {
			out = append(out, Descriptor{Type: TypeText, Known: true, Text: current.Text, Marks: current.Marks})
			continue
		}
		for i := len(current.Content) - 1; i >= 0; i-- {
			stack = append(stack, current.Content[i])
		}
	}
	return out
}

func headingLevel(attrs map[string]any) int {
	level := attrInt(attrs, "level")
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	default:
		return level
	}
}

func attrInt(attrs map[string]any, key string) int {
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func attrString(attrs map[string]any, key string) string {
	s, _ := attrs[key].(string)
	return s
}
