package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"showcase/api/internal/richtext"
)

func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("SHOWCASE_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("SHOWCASE_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func TestProjectRoundTripPostgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := Project{
		ID:        "prj_1",
		Slug:      "harbour-bridge",
		Category:  "infrastructure",
		SortOrder: 2,
		Published: true,
		Title:     richtext.LocalizedText{richtext.English: "Harbour bridge", richtext.French: "Pont du port"},
		Description: richtext.LocalizedContent{
			richtext.English: richtext.RawString("Plain English body"),
			richtext.French:  richtext.RawString(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Bonjour"}]}]}`),
			richtext.Arabic:  richtext.RawObject{"type": "doc", "content": []any{}},
		},
		UpdatedBy: "Editor",
	}
	if err := s.InsertProject(ctx, item); err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}

	got, err := s.GetProjectBySlug(ctx, "harbour-bridge")
	if err != nil {
		t.Fatalf("GetProjectBySlug() error = %v", err)
	}
	if got.Title[richtext.French] != "Pont du port" {
		t.Errorf("Title[fr] = %q", got.Title[richtext.French])
	}
	if got.Description[richtext.English] != richtext.RawString("Plain English body") {
		t.Errorf("Description[en] = %#v", got.Description[richtext.English])
	}
	if _, ok := got.Description[richtext.Arabic].(richtext.RawObject); !ok {
		t.Errorf("Description[ar] = %#v, want decoded object", got.Description[richtext.Arabic])
	}

	dup := item
	dup.ID = "prj_2"
	if err := s.InsertProject(ctx, dup); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("InsertProject(duplicate slug) error = %v, want ErrSlugTaken", err)
	}

	item.Published = false
	if err := s.UpdateProject(ctx, item); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	published, err := s.ListProjects(ctx, ProjectFilter{PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(published) != 0 {
		t.Errorf("ListProjects(published) = %d items, want 0", len(published))
	}

	if err := s.ReplaceProjectSearch(ctx, item.ID, []SearchRow{
		{ProjectID: item.ID, Locale: richtext.English, Slug: item.Slug, Title: "Harbour bridge", Body: "Plain English body"},
	}); err != nil {
		t.Fatalf("ReplaceProjectSearch() error = %v", err)
	}

	if err := s.DeleteProject(ctx, item.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := s.GetProject(ctx, item.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetProject(deleted) error = %v, want sql.ErrNoRows", err)
	}
	if err := s.DeleteProject(ctx, item.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("DeleteProject(missing) error = %v, want sql.ErrNoRows", err)
	}
}

func TestAdminUsersPostgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertAdmin(ctx, AdminUser{ID: "adm_1", Email: "Admin@Example.com", PasswordHash: "x", Role: "admin"}); err != nil {
		t.Fatalf("InsertAdmin() error = %v", err)
	}
	if err := s.InsertAdmin(ctx, AdminUser{ID: "adm_2", Email: "admin@example.com", PasswordHash: "y", Role: "editor"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("InsertAdmin(duplicate) error = %v, want ErrEmailTaken", err)
	}
	user, err := s.GetAdminByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail() error = %v", err)
	}
	if user.ID != "adm_1" || user.Role != "admin" {
		t.Errorf("GetAdminByEmail() = %+v", user)
	}
}
