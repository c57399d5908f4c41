// Package badgerstore implements the detection cache on top of BadgerDB.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kozaktomas/face-recognizer/internal/database"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "detection:"

// Cache is a DetectionCache storing one JSON value per fingerprint key
type Cache struct {
	db *badger.DB
}

// Options configures the BadgerDB cache.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool
}

// Open opens (or creates) a BadgerDB-backed cache.
func Open(opts Options) (*Cache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger cache directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(logrusLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func key(fingerprint string) []byte {
	return []byte(keyPrefix + fingerprint)
}

// Get returns the cached detection for fingerprint. Read failures are misses.
func (c *Cache) Get(_ context.Context, fingerprint string) (*database.DetectionResult, bool) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(fingerprint))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		log.WithError(err).WithField("fingerprint", fingerprint).Warn("detection cache read failed")
		return nil, false
	}

	var result database.DetectionResult
	if err := json.Unmarshal(val, &result); err != nil {
		log.WithError(err).WithField("fingerprint", fingerprint).Warn("detection cache entry is corrupt, ignoring")
		return nil, false
	}
	return &result, true
}

// Put stores the result under fingerprint, replacing any previous value.
func (c *Cache) Put(_ context.Context, fingerprint string, result *database.DetectionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal detection result: %w", err)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(fingerprint), data)
	}); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached detections.
func (c *Cache) Count() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// logrusLogger routes badger output through logrus, dropping info and debug noise.
type logrusLogger struct{}

func (logrusLogger) Errorf(f string, v ...interface{})   { log.Errorf("[badger] "+f, v...) }
func (logrusLogger) Warningf(f string, v ...interface{}) { log.Warnf("[badger] "+f, v...) }
func (logrusLogger) Infof(string, ...interface{})        {}
func (logrusLogger) Debugf(string, ...interface{})       {}
