package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/sortifyr/internal/formatter"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk link exports.
type BulkExportOpts struct {
	Formats    []formatter.Format // Formats to write (default: all)
	OutputDir  string             // Base output directory (default: links_export_{epoch})
	NumWorkers int                // Concurrent workers (default: 3, max: 5)
	RateLimit  float64            // Jobs started per second (default: 10)
}

// FormatExportResult is the outcome of writing one format.
type FormatExportResult struct {
	Format formatter.Format `json:"format"`
	File   string           `json:"file,omitempty"`
	Error  error            `json:"-"`
	ErrMsg string           `json:"error,omitempty"`
}

// BulkExportResult summarizes a [LinkEngine.BulkExport] run.
type BulkExportResult struct {
	Total             int                  `json:"total"`
	SuccessfulExports int                  `json:"successful"`
	FailedExports     int                  `json:"failed"`
	OutputDirectory   string               `json:"output_directory"`
	Results           []FormatExportResult `json:"results"`
	ManifestPath      string               `json:"-"`
}

// BulkExport writes export in several formats concurrently with rate limiting and progress tracking.
//
// Failures of a single format are recorded and do not stop the others. A
// manifest summarizing the run is written to export_manifest.json.
func (e *LinkEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	export *models.LinkExport,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if export == nil {
		return nil, fmt.Errorf("%w: nothing to export", shared.ErrInvalidInput)
	}

	if len(opts.Formats) == 0 {
		opts.Formats = formatter.Formats
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("links_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 5 {
		opts.NumWorkers = 5
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(opts.Formats)
	result := &BulkExportResult{
		Total:           total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]FormatExportResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan formatter.Format, total)
	results := make(chan FormatExportResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, export, opts.OutputDir)
	}

	go func() {
		defer close(jobs)
		for i, format := range opts.Formats {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(prog, exportingUpdate(i+1, total, format))
			jobs <- format
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.ErrMsg = res.Error.Error()
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, total, res))
		} else {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, total, res))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("links exported", "dir", opts.OutputDir, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// exportWorker is a worker goroutine that writes formats from the jobs channel.
func (e *LinkEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan formatter.Format,
	results chan<- FormatExportResult,
	export *models.LinkExport,
	dir string,
) {
	defer wg.Done()

	for format := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := FormatExportResult{Format: format}
		path := filepath.Join(dir, "links."+string(format))
		res.File, res.Error = formatter.WriteExport(export, format, path)
		results <- res
	}
}
