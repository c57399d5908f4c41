package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/database"
)

// Cache backends
const (
	CacheBackendJSON   = "json"
	CacheBackendBadger = "badger"
)

// Detector kinds
const (
	DetectorHTTP      = "http"
	DetectorSynthetic = "synthetic"
)

// Match index kinds
const (
	MatchIndexExact = "exact"
	MatchIndexHNSW  = "hnsw"
)

type Config struct {
	DataDir     string // holds people.json, cache/ and samples/
	Cache       CacheConfig
	Detector    DetectorConfig
	MatchIndex  string // exact or hnsw
	OptionsFile string // optional YAML file with recognition option defaults
	Concurrency int    // files recognized in parallel by batch operations
	Log         LogConfig
	Web         WebConfig
}

type CacheConfig struct {
	Backend string // json or badger
	Dir     string // defaults to <DataDir>/cache
}

type DetectorConfig struct {
	Kind    string        // http or synthetic
	URL     string        // embedding server, defaults to http://localhost:8000
	Timeout time.Duration // per detector call
	Dim     int           // embedding length of the synthetic detector
}

type LogConfig struct {
	Level string
	File  string
}

type WebConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string // CORS origins, empty allows any
}

// PeoplePath returns the location of the people document.
func (c *Config) PeoplePath() string {
	return filepath.Join(c.DataDir, constants.PeopleFileName)
}

// CacheDir returns the detection cache location.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.DataDir, constants.CacheDirName)
}

// SamplesDir returns the exemplar sample directory.
func (c *Config) SamplesDir() string {
	return filepath.Join(c.DataDir, constants.SamplesDirName)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendJSON, CacheBackendBadger:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want json or badger)", c.Cache.Backend)
	}
	switch c.Detector.Kind {
	case DetectorHTTP, DetectorSynthetic:
	default:
		return fmt.Errorf("unknown DETECTOR %q (want http or synthetic)", c.Detector.Kind)
	}
	switch c.MatchIndex {
	case MatchIndexExact, MatchIndexHNSW:
	default:
		return fmt.Errorf("unknown MATCH_INDEX %q (want exact or hnsw)", c.MatchIndex)
	}
	return nil
}

// RecognitionOptions returns the default options overlaid with the options file, if any.
func (c *Config) RecognitionOptions() (database.RecognitionOptions, error) {
	opts := database.DefaultRecognitionOptions()
	if c.OptionsFile == "" {
		return opts, nil
	}
	data, err := os.ReadFile(c.OptionsFile)
	if err != nil {
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse options file %s: %w", c.OptionsFile, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("options file %s: %w", c.OptionsFile, err)
	}
	return opts, nil
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		DataDir: envString("DATA_DIR", "./data"),
		Cache: CacheConfig{
			Backend: strings.ToLower(envString("CACHE_BACKEND", CacheBackendJSON)),
			Dir:     os.Getenv("CACHE_DIR"),
		},
		Detector: DetectorConfig{
			Kind:    strings.ToLower(envString("DETECTOR", DetectorHTTP)),
			URL:     os.Getenv("EMBEDDING_URL"),
			Timeout: time.Duration(envInt("DETECTOR_TIMEOUT", int(constants.DefaultDetectorTimeout/time.Second))) * time.Second,
			Dim:     envInt("EMBEDDING_DIM", constants.DefaultEmbeddingDim),
		},
		MatchIndex:  strings.ToLower(envString("MATCH_INDEX", MatchIndexExact)),
		OptionsFile: os.Getenv("RECOGNITION_OPTIONS_FILE"),
		Concurrency: envInt("RECOGNITION_CONCURRENCY", constants.DefaultConcurrency),
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		Web: WebConfig{
			Port:           envInt("WEB_PORT", 8080),
			Host:           envString("WEB_HOST", "0.0.0.0"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
	}
}
