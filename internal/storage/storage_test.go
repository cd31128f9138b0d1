package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestExportKey(t *testing.T) {
	tests := []struct {
		slug, locale, fingerprint, format string
		want                              string
	}{
		{"harbour-bridge", "fr", "abc", "pdf", "exports/harbour-bridge/fr/abc.pdf"},
		{"../etc", "en", "abc", "docx", "exports/__etc/en/abc.docx"},
		{"", "", "", "pdf", "exports/_/_/_.pdf"},
	}
	for _, tt := range tests {
		if got := ExportKey(tt.slug, tt.locale, tt.fingerprint, tt.format); got != tt.want {
			t.Errorf("ExportKey(%q, %q, %q, %q) = %q, want %q", tt.slug, tt.locale, tt.fingerprint, tt.format, got, tt.want)
		}
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	ctx := context.Background()
	key := ExportKey("bridge", "en", "fp1", "pdf")

	if ok, err := store.Exists(ctx, key); err != nil || ok {
		t.Fatalf("Exists(before put) = %v, %v", ok, err)
	}
	if _, _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(before put) error = %v, want ErrNotFound", err)
	}

	if err := store.Put(ctx, key, []byte("%PDF-1.7"), "application/pdf"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if ok, err := store.Exists(ctx, key); err != nil || !ok {
		t.Fatalf("Exists(after put) = %v, %v", ok, err)
	}
	data, info, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "%PDF-1.7" || info.Size != 8 {
		t.Errorf("Get() = %q, %+v", data, info)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}

func TestTranslateError(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	if err := translateError("k", missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("translateError(NoSuchKey) = %v, want ErrNotFound", err)
	}
	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	if err := translateError("k", denied); errors.Is(err, ErrNotFound) || err == nil {
		t.Errorf("translateError(AccessDenied) = %v, want wrapped error", err)
	}
}
