// Package custody computes chain-of-custody digests for uploaded evidence
// files. The digest is recorded before any mapping happens so the original
// bytes can be verified later in court-ready documentation.
package custody

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the SHA-256 hex digest of the file content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
