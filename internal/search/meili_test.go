package search

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	meili "github.com/meilisearch/meilisearch-go"

	"showcase/api/internal/richtext"
)

func TestHitToResult(t *testing.T) {
	hit := meili.Hit{
		"projectId":  json.RawMessage(`"p1"`),
		"slug":       json.RawMessage(`"harbour-bridge"`),
		"locale":     json.RawMessage(`"fr"`),
		"category":   json.RawMessage(`"infra"`),
		"title":      json.RawMessage(`"Pont"`),
		"summary":    json.RawMessage(`""`),
		"_formatted": json.RawMessage(`{"title":"<mark>Pont</mark>","summary":"","body":"…un <mark>pont</mark>…","published":true}`),
	}
	want := Result{
		ProjectID: "p1",
		Slug:      "harbour-bridge",
		Locale:    richtext.French,
		Category:  "infra",
		Title:     "<mark>Pont</mark>",
		Snippet:   "…un <mark>pont</mark>…",
	}
	if diff := cmp.Diff(want, hitToResult(hit)); diff != "" {
		t.Errorf("hitToResult() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFilters(t *testing.T) {
	got := buildFilters(Query{Locale: richtext.Arabic, Category: "civic"})
	want := []string{`locale = "ar"`, `category = "civic"`, "published = true"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buildFilters() mismatch (-want +got):\n%s", diff)
	}
}
