package search

import (
	"context"
	"log"
	"strings"

	"showcase/api/internal/richtext"
)

type primaryIndex interface {
	Searcher
	Indexer
}

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili primaryIndex
	pgfts Searcher
	// loader feeds ReindexAllFromPG; nil disables reindexing.
	loader func(ctx context.Context) ([]ProjectRecord, error)
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	s := &Service{}
	if meili != nil {
		s.meili = meili
	}
	if pgfts != nil {
		s.pgfts = pgfts
		s.loader = pgfts.LoadAllRecords
	}
	return s
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if strings.TrimSpace(q.Text) == "" {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	if q.Locale == "" {
		q.Locale = richtext.DefaultFallback
	}

	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	if s.pgfts == nil {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexProject indexes every locale record of a project (fire-and-forget to Meilisearch).
func (s *Service) IndexProject(records []ProjectRecord) {
	if len(records) == 0 || s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexProjects(records); err != nil {
			log.Printf("search: index project %s: %v", records[0].ProjectID, err)
		}
	}()
}

// DeleteProject removes a project's locale records from the search index (fire-and-forget).
func (s *Service) DeleteProject(projectID string, locales []richtext.Locale) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		for _, locale := range locales {
			if err := s.meili.DeleteRecord(RecordID(projectID, locale)); err != nil {
				log.Printf("search: delete project %s/%s: %v", projectID, locale, err)
			}
		}
	}()
}

// ReindexAll pushes records to Meilisearch in one batch.
func (s *Service) ReindexAll(records []ProjectRecord) {
	if s.meili == nil || !s.meili.Healthy() || len(records) == 0 {
		return
	}
	if err := s.meili.IndexProjects(records); err != nil {
		log.Printf("search: reindex projects: %v", err)
	}
}

// ReindexAllFromPG reindexes all search rows from PostgreSQL into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.loader == nil {
		return
	}
	records, err := s.loader(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(records)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
