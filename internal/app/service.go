package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"showcase/api/internal/auth"
	"showcase/api/internal/authpw"
	"showcase/api/internal/config"
	"showcase/api/internal/export"
	"showcase/api/internal/gitrepo"
	"showcase/api/internal/metrics"
	"showcase/api/internal/rbac"
	"showcase/api/internal/rendercache"
	"showcase/api/internal/richtext"
	"showcase/api/internal/search"
	"showcase/api/internal/store"
	"showcase/api/internal/util"
)

const (
	excerptLength  = 180
	historyLimit   = 50
	defaultMessage = "Update project"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Session struct {
	Token     string
	UserID    string
	UserName  string
	Email     string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// ProjectInput is the admin payload for creating or replacing a project.
// Description slots accept any persisted shape; they are canonicalized
// before storage.
type ProjectInput struct {
	Slug        string                    `json:"slug"`
	Category    string                    `json:"category"`
	CoverURL    string                    `json:"coverUrl"`
	SortOrder   int                       `json:"sortOrder"`
	Published   bool                      `json:"published"`
	Title       richtext.LocalizedText    `json:"title"`
	Summary     richtext.LocalizedText    `json:"summary"`
	Description richtext.LocalizedContent `json:"description"`
	Message     string                    `json:"message"`
}

// LocaleRequest carries the inputs to locale negotiation.
type LocaleRequest struct {
	Requested      string
	AcceptLanguage string
}

type dataStore interface {
	ListProjects(context.Context, store.ProjectFilter) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	GetProjectBySlug(context.Context, string) (store.Project, error)
	InsertProject(context.Context, store.Project) error
	UpdateProject(context.Context, store.Project) error
	DeleteProject(context.Context, string) error
	ReplaceProjectSearch(context.Context, string, []store.SearchRow) error
	GetAdminByEmail(context.Context, string) (store.AdminUser, error)
	GetAdminByID(context.Context, string) (store.AdminUser, error)
	InsertAdmin(context.Context, store.AdminUser) error
	Ping(ctx context.Context) error
}

type gitService interface {
	EnsureProjectRepo(string, gitrepo.Content, string) error
	CommitContent(string, gitrepo.Content, string, string) (store.CommitInfo, error)
	GetHeadContent(string) (gitrepo.Content, store.CommitInfo, error)
	GetContentByHash(string, string) (gitrepo.Content, error)
	History(string, int) ([]store.CommitInfo, error)
	RemoveProjectRepo(string) error
}

type searchService interface {
	Search(search.Query) search.Response
	IndexProject([]search.ProjectRecord)
	DeleteProject(string, []richtext.Locale)
	ReindexAllFromPG(context.Context)
}

type renderCache interface {
	Get(ctx context.Context, fingerprint, variant string) (rendercache.Entry, error)
	Put(ctx context.Context, fingerprint, variant string, entry rendercache.Entry) error
	Purge(ctx context.Context) (int, error)
}

type exporter interface {
	Export(ctx context.Context, b export.Brochure, format export.Format) (*export.Result, bool, error)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	git       gitService
	search    searchService
	cache     renderCache
	exports   exporter
	metrics   *metrics.Metrics
	passwords *authpw.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, gitService *gitrepo.Service, searchService *search.Service, exportService *export.Service, m *metrics.Metrics) *Service {
	s := &Service{
		cfg:       cfg,
		store:     dataStore,
		git:       gitService,
		metrics:   m,
		passwords: authpw.NewService(dataStore),
	}
	if searchService != nil {
		s.search = searchService
	}
	if exportService != nil {
		s.exports = exportService
	}
	return s
}

// NewWithRenderCache is New with rendered HTML cached in Redis.
func NewWithRenderCache(cfg config.Config, dataStore *store.PostgresStore, cache *rendercache.RedisStore, gitService *gitrepo.Service, searchService *search.Service, exportService *export.Service, m *metrics.Metrics) *Service {
	s := New(cfg, dataStore, gitService, searchService, exportService, m)
	s.cache = cache
	return s
}

// Bootstrap creates the configured admin account on first start.
func (s *Service) Bootstrap(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.AdminEmail) == "" {
		return nil
	}
	created, err := s.passwords.EnsureAdmin(ctx, s.cfg.AdminEmail, s.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		log.Printf("bootstrap: created admin %s", s.cfg.AdminEmail)
	}
	return nil
}

// Ping checks the health of service dependencies (database, etc.)
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

func (s *Service) fallback() richtext.Locale {
	if s.cfg.FallbackLocale == "" {
		return richtext.DefaultFallback
	}
	return s.cfg.FallbackLocale
}

func (s *Service) supportedLocales() []richtext.Locale {
	if len(s.cfg.Locales) == 0 {
		return []richtext.Locale{s.fallback()}
	}
	return s.cfg.Locales
}

// ActiveLocale negotiates the request locale against the supported set.
func (s *Service) ActiveLocale(req LocaleRequest) richtext.Locale {
	return richtext.NegotiateLocale(req.Requested, req.AcceptLanguage, s.supportedLocales(), s.fallback())
}

// resolvedContent is one project's description for one active locale.
type resolvedContent struct {
	resolution richtext.Resolution
	doc        *richtext.Document
	dir        string
}

func (s *Service) resolveDescription(content richtext.LocalizedContent, active richtext.Locale) resolvedContent {
	res := richtext.ResolveMeta(content, active, s.fallback())
	s.metrics.ObserveResolution(res.FallbackUsed, res.Missing)
	contentLocale := res.Resolved
	if contentLocale == "" {
		contentLocale = active
	}
	return resolvedContent{
		resolution: res,
		doc:        richtext.Canonicalize(res.Value),
		dir:        contentLocale.Direction(),
	}
}

// rendered returns the HTML, text and excerpt for doc, served from the
// render cache when one is configured.
func (s *Service) rendered(ctx context.Context, doc *richtext.Document, dir string) rendercache.Entry {
	if doc == nil {
		return rendercache.Entry{}
	}
	fingerprint := richtext.Fingerprint(doc)
	if s.cache != nil {
		entry, err := s.cache.Get(ctx, fingerprint, dir)
		if err == nil {
			s.metrics.ObserveRenderCache(true)
			return entry
		}
		if !errors.Is(err, rendercache.ErrMiss) {
			log.Printf("cache: get %s: %v", fingerprint, err)
		}
		s.metrics.ObserveRenderCache(false)
	}

	entry := rendercache.Entry{
		HTML:     richtext.RenderHTML(doc, richtext.HTMLOptions{Dir: dir}),
		Text:     richtext.PlainText(doc),
		Excerpt:  richtext.Excerpt(doc, excerptLength),
		CachedAt: time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, fingerprint, dir, entry); err != nil {
			log.Printf("cache: put %s: %v", fingerprint, err)
		}
	}
	return entry
}

// ListPublished returns the public project cards for the negotiated locale.
func (s *Service) ListPublished(ctx context.Context, req LocaleRequest, category string) (map[string]any, error) {
	active := s.ActiveLocale(req)
	projects, err := s.store.ListProjects(ctx, store.ProjectFilter{Category: strings.TrimSpace(category), PublishedOnly: true})
	if err != nil {
		return nil, err
	}

	cards := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		title, _ := project.Title.Resolve(active, s.fallback())
		summary, _ := project.Summary.Resolve(active, s.fallback())
		content := s.resolveDescription(project.Description, active)
		entry := s.rendered(ctx, content.doc, content.dir)
		cards = append(cards, map[string]any{
			"id":             project.ID,
			"slug":           project.Slug,
			"category":       project.Category,
			"coverUrl":       project.CoverURL,
			"title":          title,
			"summary":        summary,
			"excerpt":        entry.Excerpt,
			"resolvedLocale": nilIfEmpty(string(content.resolution.Resolved)),
			"fallbackUsed":   content.resolution.FallbackUsed,
			"dir":            content.dir,
		})
	}
	return map[string]any{
		"locale":   active,
		"dir":      active.Direction(),
		"projects": cards,
	}, nil
}

// GetPublished returns one published project rendered for the negotiated
// locale. A project without content in either locale still succeeds, with a
// null document.
func (s *Service) GetPublished(ctx context.Context, slug string, req LocaleRequest) (map[string]any, error) {
	project, err := s.store.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !project.Published {
		return nil, sql.ErrNoRows
	}

	active := s.ActiveLocale(req)
	title, titleLocale := project.Title.Resolve(active, s.fallback())
	summary, _ := project.Summary.Resolve(active, s.fallback())
	content := s.resolveDescription(project.Description, active)
	entry := s.rendered(ctx, content.doc, content.dir)

	blocks := richtext.Render(content.doc)
	if blocks == nil {
		blocks = []richtext.Descriptor{}
	}
	return map[string]any{
		"id":               project.ID,
		"slug":             project.Slug,
		"category":         project.Category,
		"coverUrl":         project.CoverURL,
		"title":            title,
		"titleLocale":      nilIfEmpty(string(titleLocale)),
		"summary":          summary,
		"document":         content.doc,
		"blocks":           blocks,
		"html":             entry.HTML,
		"locale":           active,
		"dir":              content.dir,
		"resolution":       content.resolution,
		"availableLocales": project.Description.Locales(),
		"updatedAt":        project.UpdatedAt,
	}, nil
}

// ExportPublished renders a published project as a downloadable file.
func (s *Service) ExportPublished(ctx context.Context, slug string, req LocaleRequest, formatValue string) (*export.Result, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(formatValue)))
	if err != nil {
		return nil, validationError("format must be 'pdf' or 'docx'", nil)
	}
	if s.exports == nil {
		return nil, exportUnavailable("Export service not configured")
	}

	project, err := s.store.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !project.Published {
		return nil, sql.ErrNoRows
	}

	active := s.ActiveLocale(req)
	content := s.resolveDescription(project.Description, active)
	if content.doc == nil {
		return nil, export.ErrContentUnavailable
	}
	title, _ := project.Title.Resolve(active, s.fallback())
	summary, _ := project.Summary.Resolve(active, s.fallback())
	contentLocale := content.resolution.Resolved

	result, cached, err := s.exports.Export(ctx, export.Brochure{
		Slug:        project.Slug,
		Title:       title,
		Summary:     summary,
		Category:    project.Category,
		CoverURL:    project.CoverURL,
		Locale:      contentLocale,
		Body:        content.doc,
		Fingerprint: richtext.Fingerprint(content.doc),
		UpdatedAt:   project.UpdatedAt,
	}, format)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveExport(string(format), cached)
	return result, nil
}

// Search queries the project index in the negotiated locale.
func (s *Service) Search(req LocaleRequest, text, category string, limit, offset int) map[string]any {
	active := s.ActiveLocale(req)
	response := search.Response{Results: []search.Result{}, Query: text}
	if s.search != nil {
		response = s.search.Search(search.Query{
			Text:     text,
			Locale:   active,
			Category: strings.TrimSpace(category),
			Limit:    limit,
			Offset:   offset,
		})
	}
	return map[string]any{
		"locale":  active,
		"query":   response.Query,
		"total":   response.Total,
		"results": response.Results,
	}
}

// Preview canonicalizes and renders a raw value exactly as the public pages
// would, reporting the detected input shape.
func (s *Service) Preview(ctx context.Context, raw richtext.Raw, locale string) map[string]any {
	active := s.ActiveLocale(LocaleRequest{Requested: locale})
	shape := richtext.Classify(raw)
	s.metrics.ObserveShape(shape.String())
	doc := richtext.Canonicalize(raw)
	dir := active.Direction()
	entry := s.rendered(ctx, doc, dir)

	blocks := richtext.Render(doc)
	if blocks == nil {
		blocks = []richtext.Descriptor{}
	}
	return map[string]any{
		"shape":       shape.String(),
		"document":    doc,
		"blocks":      blocks,
		"html":        entry.HTML,
		"text":        entry.Text,
		"fingerprint": richtext.Fingerprint(doc),
		"locale":      active,
		"dir":         dir,
	}
}

func (s *Service) ListAdminProjects(ctx context.Context, category string) (map[string]any, error) {
	projects, err := s.store.ListProjects(ctx, store.ProjectFilter{Category: strings.TrimSpace(category)})
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		items = append(items, adminProjectPayload(project))
	}
	return map[string]any{"projects": items}, nil
}

func (s *Service) GetAdminProject(ctx context.Context, projectID string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return adminProjectPayload(project), nil
}

func (s *Service) CreateProject(ctx context.Context, session Session, input ProjectInput) (map[string]any, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	project := store.Project{ID: util.NewID("prj")}
	s.applyInput(&project, input, session)

	if err := s.git.EnsureProjectRepo(project.ID, contentFromProject(project), authorName(session)); err != nil {
		return nil, fmt.Errorf("create history: %w", err)
	}
	if _, head, err := s.git.GetHeadContent(project.ID); err == nil {
		project.ContentHash = head.Hash
	}

	if err := s.store.InsertProject(ctx, project); err != nil {
		if removeErr := s.git.RemoveProjectRepo(project.ID); removeErr != nil {
			log.Printf("history: remove %s after failed insert: %v", project.ID, removeErr)
		}
		return nil, err
	}
	if err := s.syncSearch(ctx, project); err != nil {
		return nil, err
	}
	return adminProjectPayload(project), nil
}

func (s *Service) UpdateProject(ctx context.Context, session Session, projectID string, input ProjectInput) (map[string]any, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.applyInput(&project, input, session)

	message := strings.TrimSpace(input.Message)
	if message == "" {
		message = defaultMessage
	}
	commit, err := s.git.CommitContent(project.ID, contentFromProject(project), authorName(session), message)
	committed := err == nil
	switch {
	case committed:
		project.ContentHash = commit.Hash
	case errors.Is(err, gitrepo.ErrNoChanges):
	default:
		return nil, fmt.Errorf("commit project: %w", err)
	}

	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	if err := s.syncSearch(ctx, project); err != nil {
		return nil, err
	}
	payload := adminProjectPayload(project)
	payload["committed"] = committed
	return payload, nil
}

func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.git.RemoveProjectRepo(projectID); err != nil {
		log.Printf("history: remove %s: %v", projectID, err)
	}
	if s.search != nil {
		s.search.DeleteProject(projectID, s.indexedLocales(project))
	}
	return nil
}

func (s *Service) ProjectHistory(ctx context.Context, projectID string) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	commits, err := s.git.History(projectID, historyLimit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(commits))
	for _, commit := range commits {
		items = append(items, commitPayload(commit))
	}
	return map[string]any{"projectId": projectID, "commits": items}, nil
}

// CompareRevisions diffs two history revisions. An empty to compares
// against the current head.
func (s *Service) CompareRevisions(ctx context.Context, projectID, from, to string) (map[string]any, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, validationError("from is required", nil)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	before, err := s.git.GetContentByHash(projectID, from)
	if err != nil {
		return nil, revisionNotFound(from)
	}
	var after gitrepo.Content
	to = strings.TrimSpace(to)
	if to == "" {
		var head store.CommitInfo
		after, head, err = s.git.GetHeadContent(projectID)
		if err != nil {
			return nil, err
		}
		to = head.Hash
	} else {
		after, err = s.git.GetContentByHash(projectID, to)
		if err != nil {
			return nil, revisionNotFound(to)
		}
	}

	changes := gitrepo.DiffFields(before, after)
	if changes == nil {
		changes = []gitrepo.FieldChange{}
	}
	return map[string]any{
		"projectId": projectID,
		"from":      from,
		"to":        to,
		"changes":   changes,
	}, nil
}

// Reindex rebuilds the primary search index from the database in the
// background.
func (s *Service) Reindex(ctx context.Context) map[string]any {
	if s.search == nil {
		return map[string]any{"ok": false}
	}
	go s.search.ReindexAllFromPG(context.WithoutCancel(ctx))
	return map[string]any{"ok": true}
}

func (s *Service) PurgeRenderCache(ctx context.Context) (map[string]any, error) {
	if s.cache == nil {
		return map[string]any{"ok": true, "purged": 0}, nil
	}
	purged, err := s.cache.Purge(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "purged": purged}, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (map[string]any, error) {
	user, err := s.passwords.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	ttl := s.cfg.AccessTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expiresAt := time.Now().Add(ttl)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Role:  user.Role,
		JTI:   util.NewID("jti"),
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"accessToken": token,
		"userId":      user.ID,
		"userName":    user.DisplayName,
		"email":       user.Email,
		"role":        rbac.Normalize(user.Role),
		"expiresAt":   expiresAt.Unix(),
	}, nil
}

// SessionFromToken validates a bearer token and reloads the admin so role
// changes and deactivation apply before the token expires.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetAdminByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}
	if user.DeactivatedAt != nil {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		Role:      string(rbac.Normalize(user.Role)),
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) validateInput(input ProjectInput) error {
	details := map[string]any{}
	if !slugPattern.MatchString(strings.TrimSpace(input.Slug)) {
		details["slug"] = "must be lowercase letters, digits and single hyphens"
	}
	hasTitle := false
	for _, title := range input.Title {
		if strings.TrimSpace(title) != "" {
			hasTitle = true
			break
		}
	}
	if !hasTitle {
		details["title"] = "at least one locale is required"
	}
	if len(details) > 0 {
		return validationError("Invalid project", details)
	}
	return nil
}

// applyInput copies input onto project, storing each description slot in
// canonical form. Slots without content are dropped.
func (s *Service) applyInput(project *store.Project, input ProjectInput, session Session) {
	project.Slug = strings.TrimSpace(input.Slug)
	project.Category = strings.TrimSpace(input.Category)
	project.CoverURL = strings.TrimSpace(input.CoverURL)
	project.SortOrder = input.SortOrder
	project.Published = input.Published
	project.Title = trimText(input.Title)
	project.Summary = trimText(input.Summary)
	project.UpdatedBy = authorName(session)

	description := make(richtext.LocalizedContent, len(input.Description))
	for locale, raw := range input.Description {
		shape := richtext.Classify(raw)
		s.metrics.ObserveShape(shape.String())
		if doc := richtext.Canonicalize(raw); doc != nil {
			description[locale] = doc
		}
	}
	project.Description = description
}

func (s *Service) indexedLocales(project store.Project) []richtext.Locale {
	seen := map[richtext.Locale]struct{}{}
	locales := make([]richtext.Locale, 0, len(s.supportedLocales()))
	add := func(locale richtext.Locale) {
		if _, ok := seen[locale]; ok || locale == "" {
			return
		}
		seen[locale] = struct{}{}
		locales = append(locales, locale)
	}
	for _, locale := range s.supportedLocales() {
		add(locale)
	}
	for _, locale := range project.Description.Locales() {
		add(locale)
	}
	return locales
}

// syncSearch rewrites the project's full-text rows and pushes the same
// records to the primary index. Each locale is indexed with fallback
// applied, matching what a visitor in that locale sees.
func (s *Service) syncSearch(ctx context.Context, project store.Project) error {
	locales := s.indexedLocales(project)
	rows := make([]store.SearchRow, 0, len(locales))
	records := make([]search.ProjectRecord, 0, len(locales))
	var emptied []richtext.Locale
	for _, locale := range locales {
		title, _ := project.Title.Resolve(locale, s.fallback())
		summary, _ := project.Summary.Resolve(locale, s.fallback())
		doc := richtext.Canonicalize(richtext.ResolveWithFallback(project.Description, locale, s.fallback()))
		body := richtext.PlainText(doc)
		if title == "" && summary == "" && body == "" {
			emptied = append(emptied, locale)
			continue
		}
		rows = append(rows, store.SearchRow{
			ProjectID: project.ID,
			Locale:    locale,
			Slug:      project.Slug,
			Category:  project.Category,
			Title:     title,
			Summary:   summary,
			Body:      body,
			Published: project.Published,
		})
		records = append(records, search.ProjectRecord{
			ID:        search.RecordID(project.ID, locale),
			ProjectID: project.ID,
			Locale:    locale,
			Slug:      project.Slug,
			Category:  project.Category,
			Title:     title,
			Summary:   summary,
			Body:      body,
			Published: project.Published,
		})
	}
	if err := s.store.ReplaceProjectSearch(ctx, project.ID, rows); err != nil {
		return fmt.Errorf("sync search rows: %w", err)
	}
	if s.search != nil {
		s.search.IndexProject(records)
		if len(emptied) > 0 {
			s.search.DeleteProject(project.ID, emptied)
		}
	}
	return nil
}

func contentFromProject(project store.Project) gitrepo.Content {
	description := make(map[richtext.Locale]*richtext.Document, len(project.Description))
	for locale, raw := range project.Description {
		if doc := richtext.Canonicalize(raw); doc != nil {
			description[locale] = doc
		}
	}
	return gitrepo.Content{
		Slug:        project.Slug,
		Category:    project.Category,
		CoverURL:    project.CoverURL,
		Published:   project.Published,
		Title:       project.Title,
		Summary:     project.Summary,
		Description: description,
	}
}

func adminProjectPayload(project store.Project) map[string]any {
	description := project.Description
	if description == nil {
		description = richtext.LocalizedContent{}
	}
	return map[string]any{
		"id":          project.ID,
		"slug":        project.Slug,
		"category":    project.Category,
		"coverUrl":    project.CoverURL,
		"sortOrder":   project.SortOrder,
		"published":   project.Published,
		"title":       nonNilText(project.Title),
		"summary":     nonNilText(project.Summary),
		"description": description,
		"locales":     description.Locales(),
		"contentHash": project.ContentHash,
		"updatedBy":   project.UpdatedBy,
		"createdAt":   project.CreatedAt,
		"updatedAt":   project.UpdatedAt,
	}
}

func commitPayload(commit store.CommitInfo) map[string]any {
	return map[string]any{
		"hash":      commit.Hash,
		"message":   commit.Message,
		"author":    commit.Author,
		"createdAt": commit.CreatedAt,
		"added":     commit.Added,
		"removed":   commit.Removed,
	}
}

func trimText(text richtext.LocalizedText) richtext.LocalizedText {
	out := make(richtext.LocalizedText, len(text))
	for locale, value := range text {
		if value = strings.TrimSpace(value); value != "" {
			out[locale] = value
		}
	}
	return out
}

func nonNilText(text richtext.LocalizedText) richtext.LocalizedText {
	if text == nil {
		return richtext.LocalizedText{}
	}
	return text
}

func authorName(session Session) string {
	return firstNonBlank(session.UserName, session.Email, "Admin")
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func nilIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
