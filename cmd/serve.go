package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sortifyr/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the local backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = port
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	addr := config.Server.Addr()
	r.success("Serving the link API on http://%s", addr)
	if err := server.New(db, addr, r.logger).Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
