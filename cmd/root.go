package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recognizer/internal/config"
	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/database/badgerstore"
	"github.com/kozaktomas/face-recognizer/internal/database/jsonstore"
	"github.com/kozaktomas/face-recognizer/internal/detector"
	"github.com/kozaktomas/face-recognizer/internal/facematch"
	"github.com/kozaktomas/face-recognizer/internal/logger"
	"github.com/kozaktomas/face-recognizer/internal/recognition"
	"github.com/kozaktomas/face-recognizer/internal/registry"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "face-recognizer",
	Short: "Detect faces in images and match them to known people",
	Long: `Face Recognizer detects faces in image files through an embedding server,
caches detections by image content and matches every face against a registry
of named people built from exemplar faces.

Configuration is read from the environment (and an optional .env file):
  DATA_DIR, CACHE_BACKEND, CACHE_DIR, DETECTOR, EMBEDDING_URL, EMBEDDING_DIM,
  DETECTOR_TIMEOUT, MATCH_INDEX, RECOGNITION_OPTIONS_FILE,
  RECOGNITION_CONCURRENCY, LOG_LEVEL, LOG_FILE`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	logCfg := config.Load().Log
	if verbose {
		logCfg.Level = "debug"
	}
	logger.Init(logCfg)
}

// openPipeline wires the recognition pipeline described by cfg.
// The returned cleanup func releases the cache and must always be called.
func openPipeline(ctx context.Context, cfg *config.Config) (*recognition.Pipeline, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	opts, err := cfg.RecognitionOptions()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var cache database.DetectionCache
	switch cfg.Cache.Backend {
	case config.CacheBackendBadger:
		bc, err := badgerstore.Open(badgerstore.Options{Dir: cfg.CacheDir()})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open detection cache: %w", err)
		}
		cache = bc
		cleanup = func() { _ = bc.Close() }
		if n, err := bc.Count(); err == nil {
			log.WithFields(log.Fields{"dir": cfg.CacheDir(), "entries": n}).Info("detection cache opened")
		}
	default:
		cache = jsonstore.NewCacheDir(cfg.CacheDir())
	}

	var det detector.Detector
	switch cfg.Detector.Kind {
	case config.DetectorSynthetic:
		det = detector.NewSynthetic(cfg.Detector.Dim)
	default:
		det = detector.NewHTTPDetector(cfg.Detector.URL)
	}

	var matcher facematch.Matcher
	if cfg.MatchIndex == config.MatchIndexHNSW {
		matcher = facematch.NewHNSWMatcher()
	} else {
		matcher = facematch.NewExactMatcher()
	}

	reg, err := registry.New(ctx, jsonstore.NewPeopleFile(cfg.PeoplePath()), registry.NewSampleStore(cfg.SamplesDir()))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load people: %w", err)
	}

	pipeline, err := recognition.New(recognition.Config{
		Cache:           cache,
		Detector:        det,
		Registry:        reg,
		Matcher:         matcher,
		Options:         &opts,
		DetectorTimeout: cfg.Detector.Timeout,
		Concurrency:     cfg.Concurrency,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return pipeline, cleanup, nil
}
