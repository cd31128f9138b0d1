package richtext

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a stable hex digest of a canonical document, suitable as
// a cache key for anything derived from it. Nil documents have no fingerprint.
func Fingerprint(doc *Document) string {
	if doc == nil {
		return ""
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
