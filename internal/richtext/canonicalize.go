package richtext

import "encoding/json"

// Shape names the recognised forms a raw value can take. Canonicalize checks
// them in declaration order and the first match wins.
type Shape int

const (
	// ShapeEmpty is null or the empty string.
	ShapeEmpty Shape = iota
	// ShapeDocument is {"type":"doc","content":[...]}, decoded or as JSON text.
	ShapeDocument
	// ShapeNode is a single non-root node with array content, as JSON text.
	ShapeNode
	// ShapeNodeList is a non-empty JSON array whose first element is a node.
	ShapeNodeList
	// ShapePartialNode is a JSON node whose content is present but not an array.
	ShapePartialNode
	// ShapePlainText is any other string, taken literally.
	ShapePlainText
	// ShapeUnrecognized is a decoded object matching none of the above.
	ShapeUnrecognized
)

var shapeNames = [...]string{
	ShapeEmpty:        "empty",
	ShapeDocument:     "document",
	ShapeNode:         "node",
	ShapeNodeList:     "node_list",
	ShapePartialNode:  "partial_node",
	ShapePlainText:    "plain_text",
	ShapeUnrecognized: "unrecognized",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "unknown"
	}
	return shapeNames[s]
}

// match is the outcome of classification: the shape plus whatever was parsed
// on the way, so Canonicalize never parses twice.
type match struct {
	shape  Shape
	doc    *Document
	object map[string]any
	list   []any
	text   string
}

// Classify reports which shape raw takes without building a document.
func Classify(raw Raw) Shape {
	return classify(raw).shape
}

// Canonicalize converts raw into a well-formed Document, or nil when there is
// no content. It never panics and never returns a partially built tree.
func Canonicalize(raw Raw) *Document {
	m := classify(raw)
	switch m.shape {
	case ShapeDocument:
		if m.doc != nil {
			if isCanonical(m.doc.Content) {
				return m.doc
			}
			return NewDocument(normalizeNodes(m.doc.Content)...)
		}
		content, _ := m.object["content"].([]any)
		return NewDocument(convertList(content)...)
	case ShapeNode:
		return NewDocument(convertList([]any{m.object})...)
	case ShapeNodeList:
		return NewDocument(convertList(m.list)...)
	case ShapePartialNode:
		return partialDocument(m.object)
	case ShapePlainText:
		return NewDocument(Paragraph(m.text))
	default:
		return nil
	}
}

func classify(raw Raw) match {
	switch v := raw.(type) {
	case nil:
		return match{shape: ShapeEmpty}
	case *Document:
		if v == nil {
			return match{shape: ShapeEmpty}
		}
		if v.Type == TypeDoc && v.Content != nil {
			return match{shape: ShapeDocument, doc: v}
		}
		return match{shape: ShapeUnrecognized}
	case RawObject:
		if v == nil {
			return match{shape: ShapeEmpty}
		}
		if isDocObject(v) {
			return match{shape: ShapeDocument, object: v}
		}
		return match{shape: ShapeUnrecognized}
	case RawString:
		if v == "" {
			return match{shape: ShapeEmpty}
		}
		return classifyString(string(v))
	default:
		return match{shape: ShapeUnrecognized}
	}
}

func classifyString(s string) match {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return match{shape: ShapePlainText, text: s}
	}
	switch v := parsed.(type) {
	case map[string]any:
		switch {
		case isDocObject(v):
			return match{shape: ShapeDocument, object: v}
		case isNodeObject(v):
			return match{shape: ShapeNode, object: v}
		case isPartialObject(v):
			return match{shape: ShapePartialNode, object: v}
		}
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok && isNodeObject(first) {
				return match{shape: ShapeNodeList, list: v}
			}
		}
	}
	return match{shape: ShapePlainText, text: s}
}

func isDocObject(m map[string]any) bool {
	t, _ := m["type"].(string)
	_, ok := m["content"].([]any)
	return t == TypeDoc && ok
}

func isNodeObject(m map[string]any) bool {
	t, _ := m["type"].(string)
	_, ok := m["content"].([]any)
	return t != "" && ok
}

func isPartialObject(m map[string]any) bool {
	t, _ := m["type"].(string)
	content, present := m["content"]
	if t == "" || !present {
		return false
	}
	_, isList := content.([]any)
	return !isList
}

// partialDocument wraps a node whose content is not a list in a paragraph.
// The node keeps its type and attributes but loses the unusable content, and a
// stray "doc" type becomes a paragraph so documents never nest.
func partialDocument(object map[string]any) *Document {
	paragraph := Node{Type: TypeParagraph, Content: []Node{}}
	if truthy(object["content"]) {
		nodeType, _ := object["type"].(string)
		if nodeType == TypeDoc {
			nodeType = TypeParagraph
		}
		paragraph.Content = []Node{convertNode(object, nodeType)}
	}
	return NewDocument(paragraph)
}

// truthy follows JSON-value truthiness: null, false, 0 and "" are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

// convertList turns decoded JSON items into nodes. Items that are not objects
// with a string type are dropped; nested documents are spliced in place.
func convertList(items []any) []Node {
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			continue
		}
		nodeType, _ := object["type"].(string)
		if nodeType == "" {
			continue
		}
		if nodeType == TypeDoc {
			if content, ok := object["content"].([]any); ok {
				nodes = append(nodes, convertList(content)...)
			}
			continue
		}
		nodes = append(nodes, convertNode(object, nodeType))
	}
	return nodes
}

func convertNode(object map[string]any, nodeType string) Node {
	node := Node{Type: nodeType}
	if attrs, ok := object["attrs"].(map[string]any); ok && len(attrs) > 0 {
		node.Attrs = attrs
	}
	if marks, ok := object["marks"].([]any); ok {
		node.Marks = convertMarks(marks)
	}
	if nodeType == TypeText {
		node.Text, _ = object["text"].(string)
		return node
	}
	if content, ok := object["content"].([]any); ok {
		node.Content = convertList(content)
	}
	return node
}

func convertMarks(items []any) []Mark {
	if len(items) == 0 {
		return nil
	}
	marks := make([]Mark, 0, len(items))
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			continue
		}
		markType, _ := object["type"].(string)
		if markType == "" {
			continue
		}
		mark := Mark{Type: markType}
		if attrs, ok := object["attrs"].(map[string]any); ok && len(attrs) > 0 {
			mark.Attrs = attrs
		}
		marks = append(marks, mark)
	}
	if len(marks) == 0 {
		return nil
	}
	return marks
}

// isCanonical reports whether a typed tree already satisfies the document
// invariants, letting Canonicalize hand it back untouched.
func isCanonical(nodes []Node) bool {
	for _, node := range nodes {
		if node.Type == "" || node.Type == TypeDoc {
			return false
		}
		if node.IsText() {
			if len(node.Content) > 0 {
				return false
			}
			continue
		}
		if !isCanonical(node.Content) {
			return false
		}
	}
	return true
}

// normalizeNodes is convertList for typed trees built in Go code.
func normalizeNodes(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		switch {
		case node.Type == "":
			continue
		case node.Type == TypeDoc:
			out = append(out, normalizeNodes(node.Content)...)
		case node.IsText():
			node.Content = nil
			out = append(out, node)
		default:
			if node.Content != nil {
				node.Content = normalizeNodes(node.Content)
			}
			out = append(out, node)
		}
	}
	return out
}
