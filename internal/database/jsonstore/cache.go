package jsonstore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-recognizer/internal/database"
	log "github.com/sirupsen/logrus"
)

// CacheDir stores one JSON document per content fingerprint.
// Entries are sharded by the first two hex characters of the fingerprint.
type CacheDir struct {
	dir string
}

// NewCacheDir creates a detection cache rooted at dir.
func NewCacheDir(dir string) *CacheDir {
	return &CacheDir{dir: dir}
}

// entryPath returns the file path for a fingerprint, or an error for keys that are not hex.
func (c *CacheDir) entryPath(fingerprint string) (string, error) {
	if len(fingerprint) < 2 {
		return "", fmt.Errorf("invalid fingerprint %q", fingerprint)
	}
	if _, err := hex.DecodeString(fingerprint); err != nil {
		return "", fmt.Errorf("invalid fingerprint %q: %w", fingerprint, err)
	}
	return filepath.Join(c.dir, fingerprint[:2], fingerprint+".json"), nil
}

// Get returns the cached detection for fingerprint. Unreadable or corrupt entries are misses.
func (c *CacheDir) Get(_ context.Context, fingerprint string) (*database.DetectionResult, bool) {
	path, err := c.entryPath(fingerprint)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a validated hex fingerprint
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("fingerprint", fingerprint).Warn("detection cache read failed")
		}
		return nil, false
	}

	var result database.DetectionResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.WithError(err).WithField("fingerprint", fingerprint).Warn("detection cache entry is corrupt, ignoring")
		return nil, false
	}
	return &result, true
}

// Put writes the entry, replacing an existing one.
func (c *CacheDir) Put(_ context.Context, fingerprint string, result *database.DetectionResult) error {
	path, err := c.entryPath(fingerprint)
	if err != nil {
		return err
	}
	if err := writeJSON(path, result); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
