package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"showcase/api/internal/richtext"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search ranks project_search rows of one locale with plainto_tsquery and
// ts_rank, using ts_headline over the body for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	limit, offset := normalizePage(q)

	where, args := buildWhere(q)
	countSQL := "SELECT count(*) FROM project_search ps WHERE " + where
	dataSQL := fmt.Sprintf(`
		SELECT ps.project_id, ps.slug, ps.locale, ps.category, ps.title,
			ts_headline('simple', coalesce(NULLIF(ps.summary, ''), ps.body), plainto_tsquery('simple', $1), 'MaxFragments=1,MaxWords=30,StartSel=<mark>,StopSel=</mark>') AS snippet
		FROM project_search ps
		WHERE %s
		ORDER BY ts_rank(ps.fts, plainto_tsquery('simple', $1)) DESC, ps.slug ASC
		LIMIT %d OFFSET %d`, where, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r      Result
			locale string
		)
		if err := rows.Scan(&r.ProjectID, &r.Slug, &locale, &r.Category, &r.Title, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Locale = richtext.Locale(locale)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// buildWhere returns the filter clause; $1 is always the query text.
func buildWhere(q Query) (string, []any) {
	clauses := []string{"ps.fts @@ plainto_tsquery('simple', $1)", "ps.locale = $2"}
	args := []any{q.Text, string(q.Locale)}
	if q.Category != "" {
		args = append(args, q.Category)
		clauses = append(clauses, fmt.Sprintf("ps.category = $%d", len(args)))
	}
	if !q.IncludeUnpublished {
		clauses = append(clauses, "ps.published = TRUE")
	}
	return strings.Join(clauses, " AND "), args
}

// LoadAllRecords returns all search rows for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ProjectRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT project_id, locale, slug, category, title, summary, body, published
		FROM project_search
	`)
	if err != nil {
		return nil, fmt.Errorf("load search rows: %w", err)
	}
	defer rows.Close()

	records := make([]ProjectRecord, 0)
	for rows.Next() {
		var (
			r      ProjectRecord
			locale string
		)
		if err := rows.Scan(&r.ProjectID, &locale, &r.Slug, &r.Category, &r.Title, &r.Summary, &r.Body, &r.Published); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		r.Locale = richtext.Locale(locale)
		r.ID = RecordID(r.ProjectID, r.Locale)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return records, nil
}
