package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "CACHE_BACKEND", "CACHE_DIR", "DETECTOR", "DETECTOR_TIMEOUT", "EMBEDDING_DIM", "MATCH_INDEX", "WEB_PORT", "WEB_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.DataDir != "./data" {
		t.Errorf("expected default data dir ./data, got %s", cfg.DataDir)
	}
	if cfg.Cache.Backend != CacheBackendJSON || cfg.Detector.Kind != DetectorHTTP || cfg.MatchIndex != MatchIndexExact {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Detector.Timeout != 60*time.Second {
		t.Errorf("expected 60s detector timeout, got %v", cfg.Detector.Timeout)
	}
	if cfg.Detector.Dim != 512 {
		t.Errorf("expected default embedding dim 512, got %d", cfg.Detector.Dim)
	}
	if cfg.Web.Port != 8080 || len(cfg.Web.AllowedOrigins) != 0 {
		t.Errorf("unexpected web defaults: %+v", cfg.Web)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/faces")
	t.Setenv("CACHE_BACKEND", "Badger")
	t.Setenv("DETECTOR", "synthetic")
	t.Setenv("DETECTOR_TIMEOUT", "5")
	t.Setenv("EMBEDDING_DIM", "128")
	t.Setenv("MATCH_INDEX", "hnsw")
	t.Setenv("WEB_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg := Load()

	if cfg.Cache.Backend != CacheBackendBadger || cfg.Detector.Kind != DetectorSynthetic || cfg.MatchIndex != MatchIndexHNSW {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Detector.Timeout != 5*time.Second || cfg.Detector.Dim != 128 {
		t.Errorf("unexpected detector config: %+v", cfg.Detector)
	}
	if cfg.PeoplePath() != filepath.Join("/srv/faces", "people.json") {
		t.Errorf("unexpected people path %s", cfg.PeoplePath())
	}
	if cfg.CacheDir() != filepath.Join("/srv/faces", "cache") {
		t.Errorf("unexpected cache dir %s", cfg.CacheDir())
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("unexpected origins %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_InvalidEmbeddingDim(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "not-a-number")

	cfg := Load()

	if cfg.Detector.Dim != 512 {
		t.Errorf("expected fallback to 512 for invalid value, got %d", cfg.Detector.Dim)
	}
}

func TestValidate_UnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"cache backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"detector", func(c *Config) { c.Detector.Kind = "magic" }},
		{"match index", func(c *Config) { c.MatchIndex = "faiss" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRecognitionOptions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	content := "match_confidence_threshold: 0.75\nmax_faces_per_image: 4\nenable_landmarks: true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{OptionsFile: path}
	opts, err := cfg.RecognitionOptions()
	if err != nil {
		t.Fatalf("RecognitionOptions failed: %v", err)
	}
	if opts.MatchConfidenceThreshold != 0.75 || opts.MaxFacesPerImage != 4 || !opts.EnableLandmarks {
		t.Errorf("file values not applied: %+v", opts)
	}
	if opts.MinFaceSize != 20 || opts.DetectionConfidenceThreshold != 0.5 {
		t.Errorf("defaults should be kept for unset keys: %+v", opts)
	}
}

func TestRecognitionOptions_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	if err := os.WriteFile(path, []byte("detection_confidence_threshold: 3\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{OptionsFile: path}
	if _, err := cfg.RecognitionOptions(); err == nil {
		t.Error("expected error for out-of-range threshold")
	}
}

func TestRecognitionOptions_NoFile(t *testing.T) {
	cfg := &Config{}
	opts, err := cfg.RecognitionOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.MatchConfidenceThreshold != 0.6 {
		t.Errorf("expected default match threshold 0.6, got %v", opts.MatchConfidenceThreshold)
	}
}
