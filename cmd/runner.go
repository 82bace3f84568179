package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/services"
	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/desertthunder/sortifyr/internal/tasks"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

var (
	okMark   = color.New(color.FgGreen, color.Bold)
	warnMark = color.New(color.FgYellow, color.Bold)
	failMark = color.New(color.FgRed, color.Bold)
	subtle   = color.New(color.Faint)
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	api        *services.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.LinkEngine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// When Service is nil the runner talks to the backend through API, which
// defaults to a [services.Client] built from the [api] config section.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	API        *services.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.API == nil {
		opts.API = services.NewClientFromConfig(opts.Config.API, opts.Logger)
	}
	if opts.Service == nil {
		opts.Service = opts.API
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		api:        opts.API,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     tasks.NewLinkEngine(opts.Service, opts.Logger),
	}
}

// SetLogger replaces the logger used by the runner and its link engine.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.engine = tasks.NewLinkEngine(r.service, logger)
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "sortifyr",
		Usage:    "Link directories and playlists of a Sortifyr library",
		Version:  "0.3.0",
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, apiCommand, linksCommand, editCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeStatus writes one line prefixed with a colored status glyph.
func (r *Runner) writeStatus(mark *color.Color, glyph, format string, args ...any) error {
	return r.writePlain("%s %s\n", mark.Sprint(glyph), fmt.Sprintf(format, args...))
}

func (r *Runner) success(format string, args ...any) error {
	return r.writeStatus(okMark, "✓", format, args...)
}

func (r *Runner) warn(format string, args ...any) error {
	return r.writeStatus(warnMark, "!", format, args...)
}

func (r *Runner) failure(format string, args ...any) error {
	return r.writeStatus(failMark, "✗", format, args...)
}
