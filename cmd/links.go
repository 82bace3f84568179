package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/desertthunder/sortifyr/internal/formatter"
	"github.com/desertthunder/sortifyr/internal/linker"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/desertthunder/sortifyr/internal/tasks"
	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v3"
)

// loadExport fetches the whole catalog; any failed endpoint is an error.
func (r *Runner) loadExport(ctx context.Context) (*models.LinkExport, error) {
	result, err := r.engine.Load(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}
	return result.Export, nil
}

// logProgress forwards progress updates to the logger until the returned
// function is called.
func (r *Runner) logProgress() (chan<- tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range ch {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	return ch, func() {
		close(ch)
		wg.Wait()
	}
}

func endName(kind, name string) string {
	return kind + " " + name
}

// LinksList prints every link with the names of its ends.
func (r *Runner) LinksList(ctx context.Context, cmd *cli.Command) error {
	export, err := r.loadExport(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(export.Links, cmd.Bool("pretty"))
	}

	if len(export.Links) == 0 {
		return r.writePlain("No links.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Links (%d)", len(export.Links)))

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	for _, l := range export.Links {
		tbl.AddRow(
			subtle.Sprintf("#%d", l.ID),
			endName(l.SourceKind(), export.SourceName(l)),
			"→",
			endName(l.TargetKind(), export.TargetName(l)),
		)
	}
	return r.writePlain("%s\n", tbl)
}

// LinksTree prints the directory tree annotated with link counts.
func (r *Runner) LinksTree(ctx context.Context, cmd *cli.Command) error {
	export, err := r.loadExport(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", strings.TrimRight(formatter.ExportToTree(export, cmd.String("root")), "\n"))
}

func parseFormats(names []string) ([]formatter.Format, error) {
	formats := make([]formatter.Format, 0, len(names))
	seen := make(map[formatter.Format]bool)
	for _, name := range names {
		f, err := formatter.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// LinksExport writes the links in one or more formats.
//
// A single format goes to --output (default links.<format>); several formats
// are written concurrently into the --output directory with a manifest.
func (r *Runner) LinksExport(ctx context.Context, cmd *cli.Command) error {
	formats := formatter.Formats
	if !cmd.Bool("all") {
		var err error
		if formats, err = parseFormats(cmd.StringSlice("format")); err != nil {
			return err
		}
	}
	if len(formats) == 0 {
		return fmt.Errorf("%w: --format", shared.ErrMissingArgument)
	}
	if cmd.Bool("clipboard") && len(formats) != 1 {
		return fmt.Errorf("%w: --clipboard takes a single format", shared.ErrInvalidArgument)
	}

	export, err := r.loadExport(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("clipboard") {
		data, err := formatter.Export(export, formats[0])
		if err != nil {
			return err
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		return r.success("Copied %s as %s to the clipboard", shared.Plural(len(export.Links), "link"), formats[0])
	}

	if len(formats) == 1 {
		path, err := formatter.WriteExport(export, formats[0], cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("links exported", "format", formats[0], "file", path)
		return r.success("Exported %s to %s", shared.Plural(len(export.Links), "link"), path)
	}

	progress, done := r.logProgress()
	result, err := r.engine.BulkExport(ctx, progress, export, tasks.BulkExportOpts{
		Formats:    formats,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	done()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Export to %s", result.OutputDirectory))
	for _, res := range result.Results {
		if res.Error != nil {
			r.failure("%s: %v", res.Format, res.Error)
			continue
		}
		r.success("%s: %s", res.Format, res.File)
	}
	r.writePlainln("%d of %d formats written, manifest at %s", result.SuccessfulExports, result.Total, result.ManifestPath)

	if result.FailedExports > 0 {
		return fmt.Errorf("%d of %d exports failed", result.FailedExports, result.Total)
	}
	return nil
}

// LinksRender writes the two-column link diagram as SVG.
func (r *Runner) LinksRender(ctx context.Context, cmd *cli.Command) error {
	export, err := r.loadExport(ctx)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(export, formatter.FormatSVG, cmd.String("output"))
	if err != nil {
		return err
	}
	return r.success("Diagram with %s written to %s", shared.Plural(len(export.Links), "link"), path)
}

// LinksPlan prints the playlist routes the links expand to.
func (r *Runner) LinksPlan(ctx context.Context, cmd *cli.Command) error {
	progress, done := r.logProgress()
	plan, err := r.engine.Plan(ctx, progress)
	done()
	if err != nil {
		return fmt.Errorf("failed to plan routes: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(plan, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s from %s", shared.Plural(len(plan.Routes), "route"), shared.Plural(len(plan.Links), "link")))

	targets := plan.Targets()
	var last int
	for _, route := range plan.Routes {
		if route.Target.ID == last {
			continue
		}
		last = route.Target.ID

		r.writePlain("%s\n", route.Target.Name)
		for _, in := range targets[route.Target.ID] {
			r.writePlain("  ← %s %s\n", in.Source.Name, subtle.Sprintf("(links %s)", joinIDs(in.LinkIDs)))
		}
	}

	for _, s := range plan.Skipped {
		r.warn("link #%d skipped: %s", s.Link.ID, s.Reason)
	}
	return nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ", ")
}

// editLinks hands the exported links to a headless editor, applies edit and
// saves when it reports a change.
func (r *Runner) editLinks(ctx context.Context, cmd *cli.Command, edit func(e *linker.Editor, from, to linker.AnchorID) (bool, error)) (*models.LinkExport, []models.Link, error) {
	source, err := linker.ParseRef(cmd.String("from"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: --from: %v", shared.ErrInvalidArgument, err)
	}
	target, err := linker.ParseRef(cmd.String("to"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: --to: %v", shared.ErrInvalidArgument, err)
	}
	if source == target {
		return nil, nil, fmt.Errorf("%w: cannot link %s to itself", shared.ErrInvalidArgument, source)
	}

	export, err := r.loadExport(ctx)
	if err != nil {
		return nil, nil, err
	}

	editor := linker.New(linker.Options{Store: r.service, Logger: r.logger})
	defer editor.Dispose()

	if err := editor.LoadLinks(export.Links); err != nil {
		return nil, nil, err
	}
	editor.SetTree(export.Directories, export.Playlists)

	changed, err := edit(editor, linker.NewAnchorID(source, linker.SideSource), linker.NewAnchorID(target, linker.SideTarget))
	if err != nil || !changed {
		return export, nil, err
	}

	saved, err := editor.SaveConnections(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			return nil, nil, fmt.Errorf("%s or %s does not exist: %w", source, target, err)
		}
		return nil, nil, err
	}
	return export, saved, nil
}

// LinksAdd links --from to --to and saves the result.
func (r *Runner) LinksAdd(ctx context.Context, cmd *cli.Command) error {
	export, saved, err := r.editLinks(ctx, cmd, func(e *linker.Editor, from, to linker.AnchorID) (bool, error) {
		return e.AddConnection(from, to), nil
	})
	if err != nil {
		return err
	}
	if saved == nil {
		return r.warn("Link already exists")
	}

	l := linkBetween(cmd)
	for _, s := range saved {
		if s.SameEdge(l) {
			l = s
			break
		}
	}
	r.logger.Info("link added", "id", l.ID)
	return r.success("Linked %s → %s (%s saved)", export.SourceName(l), export.TargetName(l), shared.Plural(len(saved), "link"))
}

// LinksRemove deletes the link from --from to --to and saves the result.
func (r *Runner) LinksRemove(ctx context.Context, cmd *cli.Command) error {
	_, saved, err := r.editLinks(ctx, cmd, func(e *linker.Editor, from, to linker.AnchorID) (bool, error) {
		if !e.RemoveConnection(from, to) {
			return false, fmt.Errorf("%w: no link from %s to %s", shared.ErrNotFound, cmd.String("from"), cmd.String("to"))
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("link removed", "from", cmd.String("from"), "to", cmd.String("to"))
	return r.success("Removed link, %s left", shared.Plural(len(saved), "link"))
}

// linkBetween is the record --from and --to describe; both flags were validated by editLinks.
func linkBetween(cmd *cli.Command) models.Link {
	source, _ := linker.ParseRef(cmd.String("from"))
	target, _ := linker.ParseRef(cmd.String("to"))
	return linker.LinkFromRefs(source, target)
}
