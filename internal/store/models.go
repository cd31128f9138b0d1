package store

import (
	"time"

	"showcase/api/internal/richtext"
)

type Project struct {
	ID          string
	Slug        string
	Category    string
	CoverURL    string
	SortOrder   int
	Published   bool
	Title       richtext.LocalizedText
	Summary     richtext.LocalizedText
	Description richtext.LocalizedContent
	// ContentHash is the head commit of the project's history.
	ContentHash string
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectFilter narrows ListProjects. Zero value lists everything.
type ProjectFilter struct {
	Category      string
	PublishedOnly bool
}

type AdminUser struct {
	ID            string
	Email         string
	DisplayName   string
	PasswordHash  string
	Role          string
	DeactivatedAt *time.Time
	CreatedAt     time.Time
}

// SearchRow is the per-locale plain-text projection of a project kept for
// full-text search.
type SearchRow struct {
	ProjectID string
	Locale    richtext.Locale
	Slug      string
	Category  string
	Title     string
	Summary   string
	Body      string
	Published bool
}

type CommitInfo struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
	Added     int
	Removed   int
}
