// Package recognition runs the face recognition pipeline:
// hash -> cache lookup -> detect on miss -> cache store -> match -> annotate.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/database"
	"github.com/kozaktomas/face-recognizer/internal/detector"
	"github.com/kozaktomas/face-recognizer/internal/facematch"
	"github.com/kozaktomas/face-recognizer/internal/fingerprint"
	"github.com/kozaktomas/face-recognizer/internal/registry"
)

// detectionNamespace scopes detection IDs derived from (fingerprint, index).
var detectionNamespace = uuid.MustParse("6f1c3c2e-2b7a-5d8e-9a41-0c7e5f3d2b19")

// Hasher computes content fingerprints
type Hasher interface {
	Fingerprint(path string) (string, error)
}

// Config wires the pipeline's collaborators. Cache, Detector and Registry are required.
type Config struct {
	Hasher          Hasher            // defaults to SHA-256
	Cache           database.DetectionCache
	Detector        detector.Detector
	Registry        *registry.Registry
	Matcher         facematch.Matcher // defaults to the exact matcher
	Options         *database.RecognitionOptions
	DetectorTimeout time.Duration // 0 uses the default
	Concurrency     int           // files detected in parallel by RecognizeBatch, default 1
}

// ProgressFunc receives batch progress. processed grows by one per file, up to total.
type ProgressFunc func(processed, total int)

// Pipeline owns recognition over a detection cache and a person registry
type Pipeline struct {
	hasher   Hasher
	cache    database.DetectionCache
	detector detector.Detector
	registry *registry.Registry
	matcher  facematch.Matcher

	mu          sync.RWMutex
	opts        database.RecognitionOptions
	timeout     time.Duration
	concurrency int
}

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Cache == nil || cfg.Detector == nil || cfg.Registry == nil {
		return nil, errors.New("recognition: cache, detector and registry are required")
	}
	p := &Pipeline{
		hasher:      cfg.Hasher,
		cache:       cfg.Cache,
		detector:    cfg.Detector,
		registry:    cfg.Registry,
		matcher:     cfg.Matcher,
		opts:        database.DefaultRecognitionOptions(),
		timeout:     cfg.DetectorTimeout,
		concurrency: cfg.Concurrency,
	}
	if p.hasher == nil {
		p.hasher = fingerprint.NewHasher()
	}
	if p.matcher == nil {
		p.matcher = facematch.NewExactMatcher()
	}
	if cfg.Options != nil {
		if err := cfg.Options.Validate(); err != nil {
			return nil, err
		}
		p.opts = *cfg.Options
	}
	if p.timeout <= 0 {
		p.timeout = constants.DefaultDetectorTimeout
	}
	if p.concurrency <= 0 {
		p.concurrency = constants.DefaultConcurrency
	}
	return p, nil
}

// Options returns the options currently in force.
func (p *Pipeline) Options() database.RecognitionOptions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// Configure merges a partial update into the current options. Invalid results are rejected
// and leave the options unchanged.
func (p *Pipeline) Configure(u database.OptionsUpdate) (database.RecognitionOptions, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.opts.Merge(u)
	if err := next.Validate(); err != nil {
		return p.opts, err
	}
	if next.DetectionSignature() != p.opts.DetectionSignature() {
		log.Info("detection options changed, cached detections will be recomputed")
	}
	p.opts = next
	return next, nil
}

// SetConcurrency sets how many files RecognizeBatch processes at once.
func (p *Pipeline) SetConcurrency(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.concurrency = max(1, n)
}

// RecognizeOne runs the pipeline on a single file. Failures are reported in the
// result's Error and ErrorKind fields, never returned.
func (p *Pipeline) RecognizeOne(ctx context.Context, path string) database.DetectionResult {
	res, err := p.recognize(ctx, path)
	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = kindOf(err)
		log.WithFields(log.Fields{"file": path, "kind": res.ErrorKind}).Warnf("recognition failed: %v", err)
	}
	return res
}

// recognize returns the result and the error that should be recorded on it.
// On a configuration error the result still carries the unannotated detections.
func (p *Pipeline) recognize(ctx context.Context, path string) (database.DetectionResult, error) {
	res := database.DetectionResult{FilePath: path, Faces: []database.FaceDetection{}}

	if !IsSupported(path) {
		return res, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	// Hashing
	fp, err := p.hasher.Fingerprint(path)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrIO, err)
	}
	res.Fingerprint = fp

	opts := p.Options()
	sig := opts.DetectionSignature()
	logger := log.WithFields(log.Fields{"file": path, "fingerprint": fp})

	// CacheLookup
	var raw database.DetectionResult
	if cached, ok := p.cache.Get(ctx, fp); ok && cached.OptionsSignature == sig && !cached.Failed() {
		logger.Debug("detection cache hit")
		raw = *cached
		raw.FilePath = path
	} else {
		logger.Debug("detection cache miss")
		raw, err = p.detect(ctx, path, fp, opts)
		if err != nil {
			return res, err
		}
		if err := p.cache.Put(ctx, fp, &raw); err != nil {
			logger.Warnf("failed to cache detection: %v", err)
		}
	}

	// MatchingFaces works on a copy; the cached value never carries annotations.
	res = raw.Clone()
	if len(res.Faces) == 0 || p.registry.IsEmpty() {
		return res, nil
	}
	matched, err := p.match(res.Faces, opts.MatchConfidenceThreshold)
	if err != nil {
		for i := range res.Faces {
			clearMatch(&res.Faces[i])
		}
		return res, err
	}
	if len(matched) > 0 {
		if err := p.registry.RecordMatches(ctx, fp, matched); err != nil {
			logger.Warnf("failed to record matches: %v", err)
		}
	}
	return res, nil
}

// detect runs the detector under the configured timeout and assigns stable face IDs.
func (p *Pipeline) detect(ctx context.Context, path, fp string, opts database.RecognitionOptions) (database.DetectionResult, error) {
	raw := database.DetectionResult{
		FilePath:         path,
		Fingerprint:      fp,
		OptionsSignature: opts.DetectionSignature(),
	}
	raw.ImageWidth, raw.ImageHeight = imageSize(path)

	p.mu.RLock()
	timeout := p.timeout
	p.mu.RUnlock()

	detectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	faces, err := p.detector.Detect(detectCtx, path, opts)
	if err != nil {
		if ctx.Err() != nil {
			return raw, ctx.Err()
		}
		return raw, fmt.Errorf("%w: %w", ErrDetector, err)
	}
	log.WithFields(log.Fields{"file": path, "faces": len(faces), "took": time.Since(start)}).Debug("detected faces")

	if faces == nil {
		faces = []database.FaceDetection{}
	}
	for i := range faces {
		faces[i].ID = DetectionID(fp, i)
		clearMatch(&faces[i])
	}
	raw.Faces = faces
	return raw, nil
}

// match annotates faces in place and returns the distinct matched person IDs.
func (p *Pipeline) match(faces []database.FaceDetection, threshold float64) ([]string, error) {
	candidates := p.registry.Snapshot()
	var matched []string
	for i := range faces {
		m, err := p.matcher.Match(faces[i].Embedding, candidates, threshold)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		faces[i].PersonID = m.PersonID
		faces[i].PersonName = m.PersonName
		faces[i].MatchConfidence = m.Confidence
		if !slices.Contains(matched, m.PersonID) {
			matched = append(matched, m.PersonID)
		}
	}
	return matched, nil
}

func clearMatch(f *database.FaceDetection) {
	f.PersonID = ""
	f.PersonName = ""
	f.MatchConfidence = 0
}

// DetectionID derives a stable face ID from the content fingerprint and detection index.
func DetectionID(fp string, index int) string {
	return uuid.NewSHA1(detectionNamespace, []byte(fp+":"+strconv.Itoa(index))).String()
}

// IsSupported reports whether the file extension is an accepted image format.
func IsSupported(path string) bool {
	return slices.Contains(constants.SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// imageSize returns the pixel dimensions, or zeros for formats that can't be decoded here.
func imageSize(path string) (int, int) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the caller on purpose
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
