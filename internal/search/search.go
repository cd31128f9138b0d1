package search

import "showcase/api/internal/richtext"

// Result is a single search hit returned to the caller.
type Result struct {
	ProjectID string          `json:"projectId"`
	Slug      string          `json:"slug"`
	Locale    richtext.Locale `json:"locale"`
	Category  string          `json:"category,omitempty"`
	Title     string          `json:"title"`
	Snippet   string          `json:"snippet"`
}

// Query describes a search request. Locale is required: each project is
// indexed once per locale.
type Query struct {
	Text               string
	Locale             richtext.Locale
	Category           string
	Limit              int
	Offset             int
	IncludeUnpublished bool
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push project records into a search index.
type Indexer interface {
	IndexProjects(records []ProjectRecord) error
	DeleteRecord(id string) error
}

// ProjectRecord is the plain-text projection of one project in one locale.
type ProjectRecord struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	Locale    richtext.Locale `json:"locale"`
	Slug      string          `json:"slug"`
	Category  string          `json:"category"`
	Title     string          `json:"title"`
	Summary   string          `json:"summary"`
	Body      string          `json:"body"`
	Published bool            `json:"published"`
}

// RecordID is the index primary key for a project in a locale. Meilisearch
// ids only allow alphanumerics, hyphens and underscores.
func RecordID(projectID string, locale richtext.Locale) string {
	return projectID + "__" + string(locale)
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func normalizePage(q Query) (limit, offset int) {
	limit = q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = q.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
