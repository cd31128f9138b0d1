package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"showcase/api/internal/authpw"
	"showcase/api/internal/config"
	"showcase/api/internal/export"
	"showcase/api/internal/gitrepo"
	"showcase/api/internal/metrics"
	"showcase/api/internal/richtext"
	"showcase/api/internal/search"
	"showcase/api/internal/store"
)

type fakeStore struct {
	mu         sync.Mutex
	projects   map[string]store.Project
	admins     map[string]store.AdminUser
	searchRows map[string][]store.SearchRow
	pingErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:   map[string]store.Project{},
		admins:     map[string]store.AdminUser{},
		searchRows: map[string][]store.SearchRow{},
	}
}

func (f *fakeStore) ListProjects(_ context.Context, filter store.ProjectFilter) ([]store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.Project, 0, len(f.projects))
	for _, project := range f.projects {
		if filter.PublishedOnly && !project.Published {
			continue
		}
		if filter.Category != "" && project.Category != filter.Category {
			continue
		}
		items = append(items, project)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Slug < items[j].Slug
	})
	return items, nil
}

func (f *fakeStore) GetProject(_ context.Context, id string) (store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	project, ok := f.projects[id]
	if !ok {
		return store.Project{}, sql.ErrNoRows
	}
	return project, nil
}

func (f *fakeStore) GetProjectBySlug(_ context.Context, slug string) (store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, project := range f.projects {
		if project.Slug == slug {
			return project, nil
		}
	}
	return store.Project{}, sql.ErrNoRows
}

func (f *fakeStore) InsertProject(_ context.Context, project store.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.projects {
		if existing.Slug == project.Slug {
			return store.ErrSlugTaken
		}
	}
	now := time.Now().UTC()
	project.CreatedAt, project.UpdatedAt = now, now
	f.projects[project.ID] = project
	return nil
}

func (f *fakeStore) UpdateProject(_ context.Context, project store.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[project.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, existing := range f.projects {
		if id != project.ID && existing.Slug == project.Slug {
			return store.ErrSlugTaken
		}
	}
	project.UpdatedAt = time.Now().UTC()
	f.projects[project.ID] = project
	return nil
}

func (f *fakeStore) DeleteProject(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.projects, id)
	delete(f.searchRows, id)
	return nil
}

func (f *fakeStore) ReplaceProjectSearch(_ context.Context, id string, rows []store.SearchRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchRows[id] = append([]store.SearchRow(nil), rows...)
	return nil
}

func (f *fakeStore) GetAdminByEmail(_ context.Context, email string) (store.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.admins {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return store.AdminUser{}, sql.ErrNoRows
}

func (f *fakeStore) GetAdminByID(_ context.Context, id string) (store.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.admins[id]
	if !ok {
		return store.AdminUser{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) InsertAdmin(_ context.Context, user store.AdminUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.admins {
		if strings.EqualFold(existing.Email, user.Email) {
			return store.ErrEmailTaken
		}
	}
	f.admins[user.ID] = user
	return nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

type fakeCommit struct {
	info    store.CommitInfo
	content gitrepo.Content
}

type fakeGit struct {
	mu      sync.Mutex
	repos   map[string][]fakeCommit
	counter int
}

func newFakeGit() *fakeGit {
	return &fakeGit{repos: map[string][]fakeCommit{}}
}

func (f *fakeGit) appendCommit(id string, content gitrepo.Content, author, message string) store.CommitInfo {
	f.counter++
	info := store.CommitInfo{
		Hash:      fmt.Sprintf("c%03d", f.counter),
		Message:   message,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}
	f.repos[id] = append(f.repos[id], fakeCommit{info: info, content: content})
	return info
}

func (f *fakeGit) EnsureProjectRepo(id string, initial gitrepo.Content, author string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.repos[id]; ok {
		return nil
	}
	f.appendCommit(id, initial, author, "Create project")
	return nil
}

func (f *fakeGit) CommitContent(id string, content gitrepo.Content, author, message string) (store.CommitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	commits, ok := f.repos[id]
	if !ok {
		return store.CommitInfo{}, errors.New("repository does not exist")
	}
	head := commits[len(commits)-1]
	if !gitrepo.HasChanges(head.content, content) {
		return head.info, gitrepo.ErrNoChanges
	}
	return f.appendCommit(id, content, author, message), nil
}

func (f *fakeGit) GetHeadContent(id string) (gitrepo.Content, store.CommitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	commits, ok := f.repos[id]
	if !ok || len(commits) == 0 {
		return gitrepo.Content{}, store.CommitInfo{}, errors.New("repository does not exist")
	}
	head := commits[len(commits)-1]
	return head.content, head.info, nil
}

func (f *fakeGit) GetContentByHash(id, hash string) (gitrepo.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, commit := range f.repos[id] {
		if commit.info.Hash == hash {
			return commit.content, nil
		}
	}
	return gitrepo.Content{}, errors.New("commit not found")
}

func (f *fakeGit) History(id string, limit int) ([]store.CommitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	commits := f.repos[id]
	out := make([]store.CommitInfo, 0, len(commits))
	for i := len(commits) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, commits[i].info)
	}
	return out, nil
}

func (f *fakeGit) RemoveProjectRepo(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.repos, id)
	return nil
}

type fakeSearch struct {
	mu        sync.Mutex
	queries   []search.Query
	indexed   []search.ProjectRecord
	deleted   map[string][]richtext.Locale
	reindexed chan struct{}
	results   []search.Result
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{deleted: map[string][]richtext.Locale{}, reindexed: make(chan struct{}, 1)}
}

func (f *fakeSearch) Search(q search.Query) search.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return search.Response{Results: f.results, Total: len(f.results), Query: q.Text}
}

func (f *fakeSearch) IndexProject(records []search.ProjectRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, records...)
}

func (f *fakeSearch) DeleteProject(id string, locales []richtext.Locale) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[id] = locales
}

func (f *fakeSearch) ReindexAllFromPG(context.Context) {
	f.reindexed <- struct{}{}
}

type fakeExporter struct {
	mu        sync.Mutex
	brochures []export.Brochure
	err       error
}

func (f *fakeExporter) Export(_ context.Context, b export.Brochure, format export.Format) (*export.Result, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	f.brochures = append(f.brochures, b)
	return &export.Result{
		Data:     []byte("%PDF-1.7 " + b.Title),
		Filename: b.Slug + "-" + string(b.Locale) + "." + string(format),
		MimeType: "application/pdf",
	}, len(f.brochures) > 1, nil
}

type testEnv struct {
	service  *Service
	server   http.Handler
	store    *fakeStore
	git      *fakeGit
	search   *fakeSearch
	exporter *fakeExporter
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fs := newFakeStore()
	env := &testEnv{
		store:    fs,
		git:      newFakeGit(),
		search:   newFakeSearch(),
		exporter: &fakeExporter{},
		metrics:  metrics.New(),
	}
	env.service = &Service{
		cfg: config.Config{
			JWTSecret:      "test-secret",
			AccessTTL:      time.Hour,
			Locales:        []richtext.Locale{richtext.English, richtext.French, richtext.Arabic},
			FallbackLocale: richtext.English,
		},
		store:     fs,
		git:       env.git,
		search:    env.search,
		exports:   env.exporter,
		metrics:   env.metrics,
		passwords: authpw.NewService(fs),
	}
	env.server = NewHTTPServer(env.service, "*").Handler()
	return env
}

// addAdmin stores an admin with the given role and password.
func (e *testEnv) addAdmin(t *testing.T, id, email, role, password string) {
	t.Helper()
	hash, err := authpw.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := e.store.InsertAdmin(context.Background(), store.AdminUser{
		ID:           id,
		Email:        email,
		DisplayName:  strings.Split(email, "@")[0],
		PasswordHash: hash,
		Role:         role,
	}); err != nil {
		t.Fatalf("InsertAdmin() error = %v", err)
	}
}

// token signs in through the service and returns the bearer token.
func (e *testEnv) token(t *testing.T, email, password string) string {
	t.Helper()
	payload, err := e.service.SignIn(context.Background(), email, password)
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	return payload["accessToken"].(string)
}

func (e *testEnv) addProject(project store.Project) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.projects[project.ID] = project
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}
