package util

import (
	"regexp"
	"testing"
)

func TestNewID(t *testing.T) {
	pattern := regexp.MustCompile(`^prj_[0-9a-f]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID("prj")
		if !pattern.MatchString(id) {
			t.Fatalf("NewID() = %q, want prj_<32 hex>", id)
		}
		if seen[id] {
			t.Fatalf("NewID() repeated %q", id)
		}
		seen[id] = true
	}
	if id := NewID(""); len(id) != 32 {
		t.Errorf("NewID(\"\") = %q, want 32 chars", id)
	}
}
