package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/sortifyr/internal/repositories"
	"github.com/desertthunder/sortifyr/internal/services"
	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	return r.writePlain("%s\n", resp.Body)
}

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

// APIDump fetches directories, playlists and links as one document that
// `setup seed` accepts.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	output := cmd.String("output")

	r.logger.Info("dumping API state")

	result, err := r.engine.Load(ctx, nil)
	if result == nil {
		return err
	}
	if err != nil {
		// partial dumps are still useful; the failed endpoints are logged
		for _, e := range result.Errors {
			r.logger.Warn("endpoint failed", "endpoint", e.Endpoint, "error", e.Error)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
	}

	dump := repositories.SeedData{
		Directories: result.Export.Directories,
		Playlists:   result.Export.Playlists,
		Links:       result.Export.Links,
	}

	if output != "" {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to save dump: %w", err)
		}
		r.logger.Info("dump saved", "file", output)
	}

	return r.writeJSON(dump, pretty)
}
