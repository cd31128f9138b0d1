package richtext

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLOptions tunes RenderHTML output.
type HTMLOptions struct {
	// Dir wraps the output in <div dir="..."> when set ("ltr" or "rtl").
	Dir string
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func htmlPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("mark", "s", "u", "sub", "sup")
		p.AllowAttrs("dir").Matching(regexp.MustCompile(`^(ltr|rtl)$`)).OnElements("div", "p")
		p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
		p.AllowAttrs("data-type").Matching(regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)).OnElements("div", "ul", "li")
		p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// RenderHTML renders a canonical document to sanitized HTML. A nil document
// renders as the empty string.
func RenderHTML(doc *Document, opts HTMLOptions) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	if opts.Dir != "" {
		fmt.Fprintf(&b, `<div dir="%s">`, html.EscapeString(opts.Dir))
	}
	writeDescriptors(&b, Render(doc))
	if opts.Dir != "" {
		b.WriteString("</div>")
	}
	return htmlPolicy().Sanitize(b.String())
}

func writeDescriptors(b *strings.Builder, items []Descriptor) {
	for _, item := range items {
		writeDescriptor(b, item)
	}
}

func writeDescriptor(b *strings.Builder, d Descriptor) {
	switch d.Type {
	case TypeText:
		b.WriteString(textWithMarks(d.Text, d.Marks))
	case TypeHardBreak:
		b.WriteString("<br>")
	case TypeHorizontalRule:
		b.WriteString("<hr>\n")
	case TypeImage:
		src := attrString(d.Attrs, "src")
		if src == "" {
			return
		}
		fmt.Fprintf(b, `<img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(attrString(d.Attrs, "alt")))
	case TypeCodeBlock:
		b.WriteString("<pre><code>")
		b.WriteString(html.EscapeString(plainRuns(d.Children)))
		b.WriteString("</code></pre>\n")
	case TypeOrderedList:
		if start := attrInt(d.Attrs, "start"); start > 1 {
			fmt.Fprintf(b, `<ol start="%d">`, start)
		} else {
			b.WriteString("<ol>")
		}
		b.WriteString("\n")
		writeDescriptors(b, d.Children)
		b.WriteString("</ol>\n")
	case TypeTableCell, TypeTableHeader:
		b.WriteString("<" + d.Tag + spanAttrs(d.Attrs) + ">")
		writeDescriptors(b, d.Children)
		b.WriteString("</" + d.Tag + ">\n")
	default:
		open := d.Tag
		if !d.Known {
			open += ` data-type="` + html.EscapeString(d.Type) + `"`
		}
		b.WriteString("<" + open + ">")
		if isContainerTag(d.Tag) {
			b.WriteString("\n")
		}
		writeDescriptors(b, d.Children)
		b.WriteString("</" + d.Tag + ">\n")
	}
}

func isContainerTag(tag string) bool {
	switch tag {
	case "ul", "ol", "blockquote", "table", "tr", neutralTag:
		return true
	default:
		return false
	}
}

func spanAttrs(attrs map[string]any) string {
	var out string
	if n := attrInt(attrs, "colspan"); n > 1 {
		out += ` colspan="` + strconv.Itoa(n) + `"`
	}
	if n := attrInt(attrs, "rowspan"); n > 1 {
		out += ` rowspan="` + strconv.Itoa(n) + `"`
	}
	return out
}

// plainRuns concatenates text runs, ignoring marks (code blocks).
func plainRuns(items []Descriptor) string {
	var b strings.Builder
	for _, item := range items {
		if item.Type == TypeText {
			b.WriteString(item.Text)
			continue
		}
		b.WriteString(plainRuns(item.Children))
	}
	return b.String()
}

// textWithMarks applies marks from the outside in.
func textWithMarks(text string, marks []Mark) string {
	if text == "" {
		return ""
	}
	out := html.EscapeString(text)
	for i := len(marks) - 1; i >= 0; i-- {
		mark := marks[i]
		switch mark.Type {
		case "bold", "strong":
			out = "<strong>" + out + "</strong>"
		case "italic", "em":
			out = "<em>" + out + "</em>"
		case "code":
			out = "<code>" + out + "</code>"
		case "strike":
			out = "<s>" + out + "</s>"
		case "underline":
			out = "<u>" + out + "</u>"
		case "highlight":
			out = "<mark>" + out + "</mark>"
		case "subscript":
			out = "<sub>" + out + "</sub>"
		case "superscript":
			out = "<sup>" + out + "</sup>"
		case "link":
			href := attrString(mark.Attrs, "href")
			if href == "" {
				continue
			}
			out = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), out)
		}
	}
	return out
}
