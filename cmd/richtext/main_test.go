package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"showcase/api/internal/richtext"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(append([]string{"--no-color"}, args...), &streams{
		in:     strings.NewReader(stdin),
		out:    &out,
		errOut: &errOut,
	})
	return out.String(), errOut.String(), err
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func TestCanonicalizePlainTextFromStdin(t *testing.T) {
	out, diag, err := runCLI(t, "Hello world\n", "canonicalize", "--compact")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	want := `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Hello world"}]}]}`
	if strings.TrimSpace(out) != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
	if !strings.Contains(diag, "shape: plain_text") {
		t.Errorf("stderr = %q", diag)
	}
}

func TestCanonicalizeEmptyInput(t *testing.T) {
	out, diag, err := runCLI(t, "", "canonicalize")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if strings.TrimSpace(out) != "null" {
		t.Errorf("stdout = %q, want null", out)
	}
	if !strings.Contains(diag, "no content") {
		t.Errorf("stderr = %q", diag)
	}
}

func TestCanonicalizeFile(t *testing.T) {
	path := writeTestFile(t, "node.json", `{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Title"}]}`)
	out, diag, err := runCLI(t, "", "canonicalize", path)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var doc richtext.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("stdout is not a document: %v\n%s", err, out)
	}
	if len(doc.Content) != 1 || doc.Content[0].Type != richtext.TypeHeading {
		t.Errorf("doc = %+v", doc)
	}
	if !strings.Contains(diag, "shape: node") {
		t.Errorf("stderr = %q", diag)
	}
}

func TestRenderFormats(t *testing.T) {
	input := `[{"type":"paragraph","content":[{"type":"text","text":"one","marks":[{"type":"bold"}]}]},{"type":"paragraph","content":[{"type":"text","text":"two"}]}]`

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"html", []string{"render"}, "<p><strong>one</strong></p>"},
		{"html rtl", []string{"render", "--locale", "ar"}, `<div dir="rtl">`},
		{"text", []string{"render", "--format", "text"}, "one\ntwo"},
		{"json", []string{"render", "-f", "json"}, `"tag": "p"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, input, tt.args...)
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("stdout = %q, want it to contain %q", out, tt.want)
			}
		})
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	if _, _, err := runCLI(t, "x", "render", "--format", "pdf"); err == nil {
		t.Error("run() accepted unknown format")
	}
}

func TestResolveFallsBack(t *testing.T) {
	path := writeTestFile(t, "content.json", `{"en":"English body","fr":"","ar":null}`)

	out, diag, err := runCLI(t, "", "resolve", path, "--locale", "fr", "--format", "text")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if strings.TrimSpace(out) != "English body" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(diag, "fallback from fr") {
		t.Errorf("stderr = %q", diag)
	}

	out, diag, err = runCLI(t, `{"fr":"Bonjour"}`, "resolve", "--locale", "ar", "--fallback", "de")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if strings.TrimSpace(out) != "[]" || !strings.Contains(diag, "no content") {
		t.Errorf("missing resolution stdout = %q, stderr = %q", out, diag)
	}
}

func TestResolveRequiresLocale(t *testing.T) {
	if _, _, err := runCLI(t, `{"en":"x"}`, "resolve"); err == nil {
		t.Error("run() accepted resolve without --locale")
	}
}

func TestResolveRejectsInvalidJSON(t *testing.T) {
	if _, _, err := runCLI(t, `not json`, "resolve", "--locale", "en"); err == nil {
		t.Error("run() accepted invalid localized content")
	}
}
