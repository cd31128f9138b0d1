package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"showcase/api/internal/auth"
	"showcase/api/internal/authpw"
	"showcase/api/internal/export"
	"showcase/api/internal/rbac"
	"showcase/api/internal/richtext"
	"showcase/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/metrics" {
		if s.service.metrics == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		s.service.metrics.Handler().ServeHTTP(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		offset, _ := strconv.Atoi(query.Get("offset"))
		writeJSON(w, http.StatusOK, s.service.Search(localeRequest(r), query.Get("q"), query.Get("category"), limit, offset))
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "projects" {
		s.handlePublicProjects(w, r, parts)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/admin/signin" {
		s.handleAdminSignIn(w, r)
		return
	}

	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "admin" {
		session, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		s.handleAdmin(w, r, session, parts)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handlePublicProjects(w http.ResponseWriter, r *http.Request, parts []string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	switch {
	case len(parts) == 2:
		payload, err := s.service.ListPublished(r.Context(), localeRequest(r), r.URL.Query().Get("category"))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 3:
		payload, err := s.service.GetPublished(r.Context(), parts[2], localeRequest(r))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 4 && parts[3] == "export":
		result, err := s.service.ExportPublished(r.Context(), parts[2], localeRequest(r), r.URL.Query().Get("format"))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "session" {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userId":        session.UserID,
			"userName":      session.UserName,
			"email":         session.Email,
			"role":          session.Role,
			"expiresAt":     session.ExpiresAt.Unix(),
		})
		return
	}

	if r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "preview" {
		if !s.service.Can(session.Role, rbac.ActionRead) {
			s.forbid(w, session, rbac.ActionRead)
			return
		}
		var body struct {
			Content json.RawMessage `json:"content"`
			Locale  string          `json:"locale"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, s.service.Preview(r.Context(), previewRaw(body.Content), body.Locale))
		return
	}

	if r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "reindex" {
		if !s.service.Can(session.Role, rbac.ActionAdmin) {
			s.forbid(w, session, rbac.ActionAdmin)
			return
		}
		writeJSON(w, http.StatusAccepted, s.service.Reindex(r.Context()))
		return
	}

	if r.Method == http.MethodPost && len(parts) == 4 && parts[2] == "cache" && parts[3] == "purge" {
		if !s.service.Can(session.Role, rbac.ActionAdmin) {
			s.forbid(w, session, rbac.ActionAdmin)
			return
		}
		payload, err := s.service.PurgeRenderCache(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	if len(parts) >= 3 && parts[2] == "projects" {
		s.handleAdminProjects(w, r, session, parts)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleAdminProjects(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			if !s.service.Can(session.Role, rbac.ActionRead) {
				s.forbid(w, session, rbac.ActionRead)
				return
			}
			payload, err := s.service.ListAdminProjects(r.Context(), r.URL.Query().Get("category"))
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodPost:
			input, ok := s.decodeProjectInput(w, r, session)
			if !ok {
				return
			}
			payload, err := s.service.CreateProject(r.Context(), session, input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	projectID := parts[3]

	if len(parts) == 4 {
		switch r.Method {
		case http.MethodGet:
			if !s.service.Can(session.Role, rbac.ActionRead) {
				s.forbid(w, session, rbac.ActionRead)
				return
			}
			payload, err := s.service.GetAdminProject(r.Context(), projectID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodPut:
			input, ok := s.decodeProjectInput(w, r, session)
			if !ok {
				return
			}
			payload, err := s.service.UpdateProject(r.Context(), session, projectID, input)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodDelete:
			if !s.service.Can(session.Role, rbac.ActionDelete) {
				s.forbid(w, session, rbac.ActionDelete)
				return
			}
			if err := s.service.DeleteProject(r.Context(), projectID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": projectID})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 5 && r.Method == http.MethodGet {
		if !s.service.Can(session.Role, rbac.ActionRead) {
			s.forbid(w, session, rbac.ActionRead)
			return
		}
		var (
			payload map[string]any
			err     error
		)
		switch parts[4] {
		case "history":
			payload, err = s.service.ProjectHistory(r.Context(), projectID)
		case "compare":
			query := r.URL.Query()
			payload, err = s.service.CompareRevisions(r.Context(), projectID, query.Get("from"), query.Get("to"))
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// decodeProjectInput reads a project body and checks write permission, plus
// publish permission when the body publishes.
func (s *HTTPServer) decodeProjectInput(w http.ResponseWriter, r *http.Request, session Session) (ProjectInput, bool) {
	if !s.service.Can(session.Role, rbac.ActionWrite) {
		s.forbid(w, session, rbac.ActionWrite)
		return ProjectInput{}, false
	}
	var input ProjectInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return ProjectInput{}, false
	}
	if input.Published && !s.service.Can(session.Role, rbac.ActionPublish) {
		s.forbid(w, session, rbac.ActionPublish)
		return ProjectInput{}, false
	}
	return input, true
}

func (s *HTTPServer) handleAdminSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// forbid writes a 403 Forbidden response and logs the denial
func (s *HTTPServer) forbid(w http.ResponseWriter, session Session, action rbac.Action) {
	log.Printf("rbac: denied %s to %s (%s)", action, session.UserID, session.Role)
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		elapsed := time.Since(started)
		s.service.metrics.ObserveRequest(r.Method, routeLabel(r.URL.Path), writer.status, elapsed)
		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			elapsed.Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
	header.Add("Vary", "Accept-Language")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func localeRequest(r *http.Request) LocaleRequest {
	return LocaleRequest{
		Requested:      r.URL.Query().Get("locale"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	}
}

// previewRaw maps a JSON body value onto the persisted shapes: strings and
// objects as stored, arrays as their JSON text. Anything else is no content.
func previewRaw(content json.RawMessage) richtext.Raw {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil
		}
		return richtext.RawString(text)
	case '{':
		var object map[string]any
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return nil
		}
		return richtext.RawObject(object)
	case '[':
		return richtext.RawString(trimmed)
	default:
		return nil
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// routeLabel collapses ids and slugs so request metrics stay low-cardinality.
func routeLabel(path string) string {
	parts := splitPath(path)
	switch {
	case len(parts) >= 3 && parts[0] == "api" && parts[1] == "projects":
		parts[2] = ":slug"
	case len(parts) >= 4 && parts[0] == "api" && parts[1] == "admin" && parts[2] == "projects":
		parts[3] = ":id"
	case len(parts) > 0 && parts[0] != "api":
		return "other"
	}
	return "/" + strings.Join(parts, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil
	case errors.Is(err, authpw.ErrDeactivated):
		return http.StatusForbidden, "ACCOUNT_DEACTIVATED", "Account is deactivated", nil
	case errors.Is(err, store.ErrSlugTaken):
		return http.StatusConflict, "SLUG_TAKEN", "Slug already in use", nil
	case errors.Is(err, export.ErrContentUnavailable):
		return http.StatusNotFound, "CONTENT_UNAVAILABLE", "No content available to export", nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'pdf' or 'docx'", nil
	case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export dependency missing", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
