package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the deterministic digest identifying a document for
// result caching: SHA-256 over the raw content followed by the declared type.
// Identical content submitted under a different type hashes differently.
func Fingerprint(content []byte, documentType string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte(":"))
	h.Write([]byte(documentType))
	return hex.EncodeToString(h.Sum(nil))
}
