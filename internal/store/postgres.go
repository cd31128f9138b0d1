package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSlugTaken  = errors.New("slug already in use")
	ErrEmailTaken = errors.New("email already in use")
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const projectColumns = `id, slug, category, cover_url, sort_order, published, title, summary, description, content_hash, updated_by_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var (
		item                        Project
		title, summary, description []byte
	)
	if err := row.Scan(
		&item.ID, &item.Slug, &item.Category, &item.CoverURL, &item.SortOrder, &item.Published,
		&title, &summary, &description, &item.ContentHash, &item.UpdatedBy, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return Project{}, err
	}
	if err := decodeJSONColumn(title, &item.Title); err != nil {
		return Project{}, fmt.Errorf("decode title: %w", err)
	}
	if err := decodeJSONColumn(summary, &item.Summary); err != nil {
		return Project{}, fmt.Errorf("decode summary: %w", err)
	}
	if err := decodeJSONColumn(description, &item.Description); err != nil {
		return Project{}, fmt.Errorf("decode description: %w", err)
	}
	return item, nil
}

func decodeJSONColumn(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}

func encodeJSONColumn(value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if string(payload) == "null" {
		return []byte("{}"), nil
	}
	return payload, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var (
		clauses []string
		args    []any
	)
	if filter.PublishedOnly {
		clauses = append(clauses, "published = TRUE")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY sort_order ASC, updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	return scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, projectID))
}

func (s *PostgresStore) GetProjectBySlug(ctx context.Context, slug string) (Project, error) {
	return scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug=$1`, slug))
}

func (s *PostgresStore) InsertProject(ctx context.Context, item Project) error {
	title, summary, description, err := encodeProjectColumns(item)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, slug, category, cover_url, sort_order, published, title, summary, description, content_hash, updated_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, item.ID, item.Slug, item.Category, item.CoverURL, item.SortOrder, item.Published,
		title, summary, description, item.ContentHash, item.UpdatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, item Project) error {
	title, summary, description, err := encodeProjectColumns(item)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET slug=$2, category=$3, cover_url=$4, sort_order=$5, published=$6,
			title=$7, summary=$8, description=$9, content_hash=$10, updated_by_name=$11, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Slug, item.Category, item.CoverURL, item.SortOrder, item.Published,
		title, summary, description, item.ContentHash, item.UpdatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("update project: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, projectID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func encodeProjectColumns(item Project) (title, summary, description []byte, err error) {
	if title, err = encodeJSONColumn(item.Title); err != nil {
		return nil, nil, nil, fmt.Errorf("encode title: %w", err)
	}
	if summary, err = encodeJSONColumn(item.Summary); err != nil {
		return nil, nil, nil, fmt.Errorf("encode summary: %w", err)
	}
	if description, err = encodeJSONColumn(item.Description); err != nil {
		return nil, nil, nil, fmt.Errorf("encode description: %w", err)
	}
	return title, summary, description, nil
}

// ReplaceProjectSearch swaps every search row of a project in one transaction.
func (s *PostgresStore) ReplaceProjectSearch(ctx context.Context, projectID string, rows []SearchRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin search tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_search WHERE project_id=$1`, projectID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear search rows: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO project_search (project_id, locale, slug, category, title, summary, body, published)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, projectID, string(row.Locale), row.Slug, row.Category, row.Title, row.Summary, row.Body, row.Published); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert search row %s: %w", row.Locale, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit search rows: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAdminByEmail(ctx context.Context, email string) (AdminUser, error) {
	var user AdminUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, deactivated_at, created_at
		FROM admin_users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.Role, &user.DeactivatedAt, &user.CreatedAt)
	if err != nil {
		return AdminUser{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetAdminByID(ctx context.Context, userID string) (AdminUser, error) {
	var user AdminUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, deactivated_at, created_at
		FROM admin_users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.Role, &user.DeactivatedAt, &user.CreatedAt)
	if err != nil {
		return AdminUser{}, err
	}
	return user, nil
}

func (s *PostgresStore) InsertAdmin(ctx context.Context, user AdminUser) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, display_name, password_hash, role)
		VALUES ($1, LOWER($2), $3, $4, $5)
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
