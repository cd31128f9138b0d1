package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

func pandocArgs(p brochurePage) []string {
	args := []string{
		"--from", "html",
		"--to", "docx",
		"--standalone",
		"--metadata", "title=" + p.Title,
	}
	if p.Locale != "" {
		args = append(args, "--metadata", "lang="+string(p.Locale))
	}
	if p.Locale.Direction() == "rtl" {
		args = append(args, "--metadata", "dir=rtl")
	}
	return append(args, "--output", "-")
}

// exportDOCX converts the brochure page with pandoc.
func exportDOCX(ctx context.Context, p brochurePage) (*Result, error) {
	pandoc, err := exec.LookPath("pandoc")
	if err != nil {
		return nil, fmt.Errorf("%w: pandoc not installed", ErrDOCXDependencyMissing)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, pandoc, pandocArgs(p)...)
	cmd.Stdin = strings.NewReader(p.HTML)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pandoc exited with %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("run pandoc: %w", err)
	}
	return &Result{
		Data:     stdout.Bytes(),
		MimeType: mimeType(FormatDOCX),
	}, nil
}
