package export

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"projmap/internal/monitoring"
)

// Frame is one named view to write.
type Frame struct {
	Name  string
	Image image.Image
}

// Config holds the shared settings of a batch export.
type Config struct {
	OutputDir string
	Ext       string
	Workers   int
}

// Result holds the outcome of writing one frame.
type Result struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Run writes frames concurrently and returns results in input order.
func Run(cfg Config, frames []Frame) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Ext == "" {
		cfg.Ext = ".webp"
	}
	total := len(frames)
	results := make([]Result, total)
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
				if p := processed.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					monitoring.Logf("export: [%d/%d] %.1f frames/sec", p, total, rate)
				}
			}
		}
	}()

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = writeFrame(cfg, frames[idx])
				processed.Add(1)
			}
		}()
	}
	for i := range frames {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)
	return results
}

func writeFrame(cfg Config, fr Frame) Result {
	res := Result{Name: fr.Name, Path: filepath.Join(cfg.OutputDir, fr.Name+cfg.Ext)}
	if fr.Image == nil {
		res.Error = "no image"
		return res
	}
	b := fr.Image.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	if err := Save(res.Path, fr.Image); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

// Summary formats a one-line count of the batch outcome.
func Summary(results []Result) string {
	return fmt.Sprintf("%d written, %d failed", len(results)-len(Failed(results)), len(Failed(results)))
}
