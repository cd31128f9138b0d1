package app

import (
	"fmt"
	"net/http"
)

// DomainError carries an HTTP status and a stable machine-readable code out of
// the service layer; mapError passes it through unchanged.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}

func revisionNotFound(hash string) *DomainError {
	return domainError(http.StatusNotFound, "REVISION_NOT_FOUND", "Revision not found", map[string]any{"hash": hash})
}

func exportUnavailable(message string) *DomainError {
	return domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", message, nil)
}
