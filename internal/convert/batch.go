package convert

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// BatchResult holds the outcome of converting one zone archive.
type BatchResult struct {
	Zone   string
	Output string
	Warns  int
	Err    error
}

// Run converts all zone archives using a worker pool and writes one
// .glb per zone into outputDir.
func Run(paths []string, outputDir string, opts Options) []BatchResult {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
		opts.Logger = logger
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	total := len(paths)
	results := make([]BatchResult, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					logger.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("zones_per_sec", float64(p)/elapsed))
				}
			}
		}
	}()

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processZone(paths[idx], outputDir, opts)
				processed.Add(1)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func processZone(path, outputDir string, opts Options) BatchResult {
	res, err := Zone(path, opts)
	if err != nil {
		return BatchResult{Zone: filepath.Base(path), Err: err}
	}

	outPath := filepath.Join(outputDir, res.Name+".glb")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return BatchResult{Zone: res.Name, Err: err}
	}
	if err := os.WriteFile(outPath, res.GLB, 0644); err != nil {
		return BatchResult{Zone: res.Name, Err: err}
	}
	return BatchResult{Zone: res.Name, Output: outPath, Warns: len(res.Warnings)}
}
