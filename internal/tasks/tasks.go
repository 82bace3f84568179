package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/services"
	"github.com/desertthunder/sortifyr/internal/shared"
)

// EndpointResult represents the result of fetching data from a single backend endpoint.
type EndpointResult struct {
	Endpoint string
	Count    int
	Error    error
}

// LoadResult contains the catalog fetched from the backend.
type LoadResult struct {
	Export *models.LinkExport
	Errors []EndpointResult // Failed endpoint fetches, sorted by endpoint
}

type endpointOperation struct {
	name    string
	phase   Phase
	message string
	fetch   func(ctx context.Context) (int, error)
}

type fetchResult struct {
	EndpointResult
	phase Phase
}

// LinkEngine runs catalog operations against a [services.Service].
type LinkEngine struct {
	svc    services.Service
	logger *log.Logger
}

// NewLinkEngine creates a new LinkEngine. A nil logger discards output.
func NewLinkEngine(svc services.Service, logger *log.Logger) *LinkEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LinkEngine{svc: svc, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LinkEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Load fetches directories, playlists, and links concurrently.
//
// Every endpoint is attempted. The returned error joins the failures, and the
// result still carries whatever was fetched.
func (e *LinkEngine) Load(ctx context.Context, progress chan<- ProgressUpdate) (*LoadResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: link service not initialized", shared.ErrServiceUnavailable)
	}

	export := &models.LinkExport{}
	endpoints := []endpointOperation{
		{name: "directories", phase: FetchDirectories, message: "Fetching directories...", fetch: func(ctx context.Context) (int, error) {
			dirs, err := e.svc.GetDirectories(ctx)
			export.Directories = dirs
			return len(dirs), err
		}},
		{name: "playlists", phase: FetchPlaylists, message: "Fetching playlists...", fetch: func(ctx context.Context) (int, error) {
			playlists, err := e.svc.GetPlaylists(ctx)
			export.Playlists = playlists
			return len(playlists), err
		}},
		{name: "links", phase: FetchLinks, message: "Fetching links...", fetch: func(ctx context.Context) (int, error) {
			links, err := e.svc.GetLinks(ctx)
			export.Links = links
			return len(links), err
		}},
	}

	total := len(endpoints)
	results := make(chan fetchResult, total)

	var wg sync.WaitGroup
	for i, endpoint := range endpoints {
		e.sendProgress(progress, operationUpdate(endpoint, i+1, total))
		wg.Add(1)
		go func(op endpointOperation) {
			defer wg.Done()
			n, err := op.fetch(ctx)
			results <- fetchResult{EndpointResult{Endpoint: op.name, Count: n, Error: err}, op.phase}
		}(endpoint)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &LoadResult{Export: export, Errors: []EndpointResult{}}
	completed := 0
	for res := range results {
		completed++
		e.sendProgress(progress, fetchedUpdate(res.EndpointResult, res.phase, completed, total))
		if res.Error != nil {
			e.logger.Warn("fetch failed", "endpoint", res.Endpoint, "error", res.Error)
			result.Errors = append(result.Errors, res.EndpointResult)
		}
	}

	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Endpoint < result.Errors[j].Endpoint })

	var errs []error
	for _, r := range result.Errors {
		errs = append(errs, fmt.Errorf("failed to fetch %s: %w", r.Endpoint, r.Error))
	}
	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	e.logger.Debug("catalog loaded",
		"directories", len(export.Directories), "playlists", len(export.Playlists), "links", len(export.Links))
	return result, nil
}
