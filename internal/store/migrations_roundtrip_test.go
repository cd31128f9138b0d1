package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var schemaTables = []string{"projects", "admin_users", "project_search"}

func TestMigrationsRoundTripPostgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("SHOWCASE_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("SHOWCASE_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	migrationsDir := filepath.Join("..", "..", "db", "migrations")

	if err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("ApplyMigrations() pass 1 error = %v", err)
	}
	assertTables(t, ctx, db, true)

	// A second run with everything recorded is a no-op.
	if err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("ApplyMigrations() rerun error = %v", err)
	}

	if err := applyDownMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("apply down migrations: %v", err)
	}
	assertTables(t, ctx, db, false)

	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		t.Fatalf("clear schema_migrations: %v", err)
	}
	if err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("ApplyMigrations() pass 2 error = %v", err)
	}
	assertTables(t, ctx, db, true)
}

func assertTables(t *testing.T, ctx context.Context, db *sql.DB, want bool) {
	t.Helper()
	for _, table := range schemaTables {
		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+table).Scan(&exists); err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if exists != want {
			t.Errorf("table %s exists = %v, want %v", table, exists, want)
		}
	}
}

func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	return err
}

// applyDownMigrations runs the down files matching the up files, newest first.
func applyDownMigrations(ctx context.Context, db *sql.DB, migrationsDir string) error {
	ups, err := listMigrations(migrationsDir)
	if err != nil {
		return err
	}
	for i := len(ups) - 1; i >= 0; i-- {
		downPath := strings.TrimSuffix(ups[i].path, ".up.sql") + ".down.sql"
		sqlBytes, err := os.ReadFile(downPath)
		if err != nil {
			return err
		}
		sqlText := strings.TrimSpace(string(sqlBytes))
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			return err
		}
	}
	return nil
}
