// Package storage keeps generated export files so identical content is
// rendered once.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}

// ObjectStore is the subset of blob storage used by the export cache.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, ObjectInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// ExportKey builds the object key for an exported project body. The
// fingerprint makes keys content addressed, so stale exports are never served.
func ExportKey(slug, locale, fingerprint, format string) string {
	return path.Join("exports", cleanSegment(slug), cleanSegment(locale), fmt.Sprintf("%s.%s", cleanSegment(fingerprint), cleanSegment(format)))
}

func cleanSegment(value string) string {
	value = strings.TrimSpace(value)
	value = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(value)
	if value == "" {
		return "_"
	}
	return value
}
