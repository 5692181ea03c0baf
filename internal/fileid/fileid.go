// Package fileid generates document identifiers. Documents ingested from
// watched files get a deterministic ID derived from the path, so re-ingesting
// the same file replaces the previous version. Documents submitted through
// the API get a random ID.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/google/uuid"
)

const filePrefix = "file-"

// ForPath returns a stable document ID for the given path. The same path
// always yields the same ID, after path cleaning.
func ForPath(path string) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized))
	return filePrefix + hex.EncodeToString(hash[:16])
}

// New returns a fresh random document ID.
func New() string {
	return uuid.New().String()
}

// IsPathDerived reports whether id was produced by ForPath.
func IsPathDerived(id string) bool {
	return len(id) > len(filePrefix) && id[:len(filePrefix)] == filePrefix
}
