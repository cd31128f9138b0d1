// Command richtext canonicalizes, renders and resolves stored rich-text
// values from files or stdin.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"showcase/api/internal/richtext"
)

// CLI defines the command-line interface using Kong
type CLI struct {
	NoColor bool `name:"no-color" help:"Disable colored diagnostics"`

	Canonicalize CanonicalizeCmd `cmd:"" help:"Print the canonical document for a stored value"`
	Render       RenderCmd       `cmd:"" help:"Render a stored value as HTML, descriptors or plain text"`
	Resolve      ResolveCmd      `cmd:"" help:"Pick the value for a locale from a localized JSON object and render it"`
}

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (s *streams) note(attr color.Attribute, format string, args ...any) {
	_, _ = color.New(attr).Fprintf(s.errOut, format+"\n", args...)
}

// CanonicalizeCmd reads one stored value, taken as text exactly as persisted.
type CanonicalizeCmd struct {
	File    string `arg:"" optional:"" help:"Input file; stdin when omitted or '-'"`
	Compact bool   `name:"compact" help:"Print JSON on one line"`
}

func (c *CanonicalizeCmd) Run(s *streams) error {
	raw, err := readRaw(c.File, s.in)
	if err != nil {
		return err
	}
	shape := richtext.Classify(raw)
	doc := richtext.Canonicalize(raw)
	s.note(color.FgCyan, "shape: %s", shape)
	if doc == nil {
		s.note(color.FgYellow, "no content")
	}
	return writeJSON(s.out, doc, c.Compact)
}

type RenderCmd struct {
	File   string `arg:"" optional:"" help:"Input file; stdin when omitted or '-'"`
	Format string `name:"format" short:"f" enum:"html,json,text" default:"html" help:"Output format: html, json or text"`
	Locale string `name:"locale" short:"l" help:"Content locale, sets the HTML text direction"`
}

func (c *RenderCmd) Run(s *streams) error {
	raw, err := readRaw(c.File, s.in)
	if err != nil {
		return err
	}
	doc := richtext.Canonicalize(raw)
	if doc == nil {
		s.note(color.FgYellow, "no content")
	}
	dir := ""
	if c.Locale != "" {
		dir = richtext.Locale(strings.ToLower(c.Locale)).Direction()
	}
	return writeRendered(s.out, doc, c.Format, dir)
}

// ResolveCmd reads {"en": ..., "fr": ...} where each slot holds a stored value.
type ResolveCmd struct {
	File     string `arg:"" optional:"" help:"Input file; stdin when omitted or '-'"`
	Locale   string `name:"locale" short:"l" required:"" help:"Active locale"`
	Fallback string `name:"fallback" default:"en" help:"Locale used when the active one has no content"`
	Format   string `name:"format" short:"f" enum:"html,json,text" default:"json" help:"Output format: html, json or text"`
}

func (c *ResolveCmd) Run(s *streams) error {
	data, err := readInput(c.File, s.in)
	if err != nil {
		return err
	}
	var content richtext.LocalizedContent
	if err := json.Unmarshal(data, &content); err != nil {
		return fmt.Errorf("parse localized content: %w", err)
	}

	active := richtext.Locale(strings.ToLower(strings.TrimSpace(c.Locale)))
	fallback := richtext.Locale(strings.ToLower(strings.TrimSpace(c.Fallback)))
	res := richtext.ResolveMeta(content, active, fallback)
	switch {
	case res.Missing:
		s.note(color.FgYellow, "no content for %s or %s", active, fallback)
	case res.FallbackUsed:
		s.note(color.FgYellow, "resolved: %s (fallback from %s)", res.Resolved, active)
	default:
		s.note(color.FgGreen, "resolved: %s", res.Resolved)
	}

	dirLocale := res.Resolved
	if dirLocale == "" {
		dirLocale = active
	}
	return writeRendered(s.out, richtext.Canonicalize(res.Value), c.Format, dirLocale.Direction())
}

func readInput(file string, stdin io.Reader) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return data, nil
}

// readRaw returns the input as a stored string value. A single trailing
// newline, as left by editors and shells, is not part of the value.
func readRaw(file string, stdin io.Reader) (richtext.Raw, error) {
	data, err := readInput(file, stdin)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	return richtext.RawString(text), nil
}

func writeRendered(w io.Writer, doc *richtext.Document, format, dir string) error {
	switch format {
	case "json":
		blocks := richtext.Render(doc)
		if blocks == nil {
			blocks = []richtext.Descriptor{}
		}
		return writeJSON(w, blocks, false)
	case "text":
		_, err := fmt.Fprintln(w, richtext.PlainText(doc))
		return err
	default:
		_, err := fmt.Fprintln(w, richtext.RenderHTML(doc, richtext.HTMLOptions{Dir: dir}))
		return err
	}
}

func writeJSON(w io.Writer, value any, compact bool) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(value)
}

func run(args []string, s *streams) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("richtext"),
		kong.Description("Canonicalize and render stored rich-text values"),
		kong.UsageOnError(),
		kong.Writers(s.out, s.errOut),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	if cli.NoColor {
		color.NoColor = true
	}
	return ctx.Run(s)
}

func main() {
	s := &streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := run(os.Args[1:], s); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "richtext: %v\n", err)
		os.Exit(1)
	}
}
