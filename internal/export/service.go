package export

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"

	"showcase/api/internal/richtext"
	"showcase/api/internal/storage"
)

// brochurePage is a brochure rendered to a standalone HTML page.
type brochurePage struct {
	HTML   string
	Title  string
	Locale richtext.Locale
}

// converter turns a brochure page into an export file.
type converter func(ctx context.Context, p brochurePage) (*Result, error)

// Service provides project export functionality. Generated files are kept in
// objects when set, keyed by content fingerprint.
type Service struct {
	objects    storage.ObjectStore
	converters map[Format]converter
}

// NewService creates a new export service. objects may be nil to disable caching.
func NewService(objects storage.ObjectStore) *Service {
	return &Service{
		objects: objects,
		converters: map[Format]converter{
			FormatPDF:  exportPDF,
			FormatDOCX: exportDOCX,
		},
	}
}

// Export generates an export in the requested format. cached reports whether
// the file was served from object storage.
func (s *Service) Export(ctx context.Context, b Brochure, format Format) (result *Result, cached bool, err error) {
	if b.Body == nil {
		return nil, false, ErrContentUnavailable
	}
	convert, ok := s.converters[format]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	filename := sanitizeFilename(firstNonEmpty(b.Title, b.Slug)) + "." + string(format)
	key := storage.ExportKey(b.Slug, string(b.Locale), b.Fingerprint, string(format))
	if s.objects != nil && b.Fingerprint != "" {
		data, info, err := s.objects.Get(ctx, key)
		switch {
		case err == nil:
			return &Result{Data: data, Filename: filename, MimeType: firstNonEmpty(info.ContentType, mimeType(format))}, true, nil
		case !errors.Is(err, storage.ErrNotFound):
			log.Printf("export: read cached %s: %v", key, err)
		}
	}

	html, err := RenderBrochureHTML(templateData(b))
	if err != nil {
		return nil, false, fmt.Errorf("render template: %w", err)
	}

	result, err = convert(ctx, brochurePage{HTML: html, Title: firstNonEmpty(b.Title, b.Slug), Locale: b.Locale})
	if err != nil {
		return nil, false, err
	}
	result.Filename = filename

	if s.objects != nil && b.Fingerprint != "" {
		if err := s.objects.Put(ctx, key, result.Data, result.MimeType); err != nil {
			log.Printf("export: store %s: %v", key, err)
		}
	}
	return result, false, nil
}

func templateData(b Brochure) TemplateData {
	dir := b.Locale.Direction()
	return TemplateData{
		Lang:        string(b.Locale),
		Dir:         dir,
		Title:       b.Title,
		Summary:     b.Summary,
		Category:    b.Category,
		CoverURL:    b.CoverURL,
		ContentHTML: template.HTML(richtext.RenderHTML(b.Body, richtext.HTMLOptions{Dir: dir})),
		UpdatedAt:   b.UpdatedAt,
	}
}

func mimeType(format Format) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
