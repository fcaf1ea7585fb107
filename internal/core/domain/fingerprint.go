package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of the raw upload bytes.
// It is the stable content identifier used for duplicate detection and
// surfaced to callers in duplicate upload results.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
