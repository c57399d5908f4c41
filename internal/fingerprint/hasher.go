// Package fingerprint computes content fingerprints used as detection cache keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Hasher fingerprints files by hashing their bytes with SHA-256.
// The zero value is ready to use.
type Hasher struct{}

// NewHasher returns a SHA-256 content hasher.
func NewHasher() Hasher {
	return Hasher{}
}

// Fingerprint returns the lowercase hex SHA-256 of the file's contents.
// Byte-identical files always yield the same fingerprint regardless of name or mtime.
func (Hasher) Fingerprint(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the caller on purpose
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Reader(f)
}

// Reader fingerprints everything readable from r.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
