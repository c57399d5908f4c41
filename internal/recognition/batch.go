package recognition

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// RecognizeBatch recognizes files in input order and reports progress after each one.
// Per-file failures are recorded in the results. Cancellation is checked before each
// file; when it fires, the results finished so far are returned with ctx.Err().
func (p *Pipeline) RecognizeBatch(ctx context.Context, paths []string, onProgress ProgressFunc) ([]database.DetectionResult, error) {
	p.mu.RLock()
	concurrency := p.concurrency
	p.mu.RUnlock()

	log.WithFields(log.Fields{"files": len(paths), "workers": concurrency}).Info("batch recognition started")
	if concurrency <= 1 || len(paths) <= 1 {
		return p.recognizeSequential(ctx, paths, onProgress)
	}
	return p.recognizeParallel(ctx, paths, concurrency, onProgress)
}

func (p *Pipeline) recognizeSequential(ctx context.Context, paths []string, onProgress ProgressFunc) ([]database.DetectionResult, error) {
	results := make([]database.DetectionResult, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			log.WithField("processed", i).Info("batch recognition cancelled")
			return results, err
		}
		results = append(results, p.RecognizeOne(ctx, path))
		if onProgress != nil {
			onProgress(i+1, len(paths))
		}
	}
	return results, nil
}

// recognizeParallel detects several files at once. Progress callbacks are
// serialized so processed still grows by exactly one per call.
func (p *Pipeline) recognizeParallel(ctx context.Context, paths []string, concurrency int, onProgress ProgressFunc) ([]database.DetectionResult, error) {
	results := make([]database.DetectionResult, len(paths))
	done := make([]bool, len(paths))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	processed := 0

	for i, path := range paths {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			// Files still queued when cancellation fires are not started.
			if ctx.Err() != nil {
				return
			}
			res := p.RecognizeOne(ctx, path)

			progressMu.Lock()
			results[idx] = res
			done[idx] = true
			processed++
			if onProgress != nil {
				onProgress(processed, len(paths))
			}
			progressMu.Unlock()
		}(i, path)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		partial := make([]database.DetectionResult, 0, processed)
		for i := range results {
			if done[i] {
				partial = append(partial, results[i])
			}
		}
		log.WithField("processed", processed).Info("batch recognition cancelled")
		return partial, err
	}
	return results, nil
}
