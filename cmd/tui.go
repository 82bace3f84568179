package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/desertthunder/sortifyr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Edit launches the interactive link editor.
func (r *Runner) Edit(ctx context.Context, cmd *cli.Command) error {
	if r.service == nil {
		return fmt.Errorf("%w: link service not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.service, ui.Options{
		Debounce: r.config.Editor.Debounce(),
		Logger:   shared.WithLogger(fileLogger, "session", shared.GenerateID()),
	})
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if model.Editor().Dirty() {
		added, removed := model.Editor().Diff()
		r.warn("Exited with unsaved changes (%d added, %d removed)", len(added), len(removed))
	}
	return nil
}
